package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisansally/ally/app/pricing"
)

func listing(title string, pence int64) pricing.Listing {
	return pricing.Listing{
		ListingID: title,
		Title:     title,
		Price:     pricing.Price{Amount: pence, Divisor: 100, CurrencyCode: "GBP"},
		Source:    "eBay",
	}
}

func TestAnalyse(t *testing.T) {
	s := pricing.Analyse([]pricing.Listing{
		listing("a", 1000), listing("b", 2000), listing("c", 3333),
	})
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 21.11, s.AveragePrice)
	assert.Equal(t, 10.0, s.MinPrice)
	assert.Equal(t, 33.33, s.MaxPrice)
}

func TestAnalyse_Empty(t *testing.T) {
	assert.Equal(t, pricing.Stats{}, pricing.Analyse(nil))
}

func TestScenarios(t *testing.T) {
	got := pricing.Scenarios(20, 5)
	require.Len(t, got, 3)

	assert.Equal(t, pricing.Scenario{Name: "The Budget Leader", Price: 18, Profit: 7.8}, got[0])
	assert.Equal(t, pricing.Scenario{Name: "The Competitor", Price: 20, Profit: 9.6}, got[1])
	assert.Equal(t, pricing.Scenario{Name: "The Premium Brand", Price: 23, Profit: 12.3}, got[2])
}

func TestScenarios_NoListings(t *testing.T) {
	for _, s := range pricing.Scenarios(0, 5) {
		assert.Equal(t, 0.0, s.Price)
		assert.Equal(t, -8.4, s.Profit, s.Name)
	}
}

func TestTopKeywords(t *testing.T) {
	got := pricing.TopKeywords([]pricing.Listing{
		listing("Jesmonite Tray - Terrazzo Trinket Tray", 1),
		listing("Handmade jesmonite trinket dish", 1),
		listing("Terrazzo coaster set of 4", 1),
		listing("Jesmonite tray", 1),
	}, 4)
	// terrazzo, tray and trinket tie on two titles each; ties sort alphabetically.
	assert.Equal(t, []string{"jesmonite", "terrazzo", "tray", "trinket"}, got)
}
