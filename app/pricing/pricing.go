// Package pricing turns marketplace listings into price statistics, three
// pricing tiers with profit estimates, and the most common title keywords.
package pricing

import (
	"sort"
	"strings"
	"unicode"

	"github.com/artisansally/ally/app/costing"
)

const (
	FeeRate      = 0.10
	FixedFee     = 0.20
	ShippingCost = 3.20
)

// Price is an amount in minor units: Amount/Divisor in CurrencyCode.
type Price struct {
	Amount       int64  `json:"amount"`
	Divisor      int64  `json:"divisor"`
	CurrencyCode string `json:"currency_code"`
}

func (p Price) Value() float64 {
	if p.Divisor == 0 {
		return 0
	}
	return float64(p.Amount) / float64(p.Divisor)
}

// Listing is a marketplace result normalised across sources.
type Listing struct {
	ListingID string `json:"listing_id"`
	Title     string `json:"title"`
	Price     Price  `json:"price"`
	Source    string `json:"source"`
}

type Stats struct {
	Count        int     `json:"count"`
	AveragePrice float64 `json:"average_price"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
}

// Analyse summarises listing prices. An empty input gives zero stats.
func Analyse(listings []Listing) Stats {
	if len(listings) == 0 {
		return Stats{}
	}
	var sum float64
	lo, hi := listings[0].Price.Value(), listings[0].Price.Value()
	for _, l := range listings {
		v := l.Price.Value()
		sum += v
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return Stats{
		Count:        len(listings),
		AveragePrice: costing.Round(sum/float64(len(listings)), 2),
		MinPrice:     costing.Round(lo, 2),
		MaxPrice:     costing.Round(hi, 2),
	}
}

type Scenario struct {
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Profit float64 `json:"profit"`
}

var tiers = []struct {
	name   string
	factor float64
}{
	{"The Budget Leader", 0.9},
	{"The Competitor", 1.0},
	{"The Premium Brand", 1.15},
}

// Scenarios prices the three tiers off the market average. Profit is taken
// on the unrounded price after percentage fee, fixed fee and shipping.
func Scenarios(average, materialCost float64) []Scenario {
	out := make([]Scenario, 0, len(tiers))
	for _, t := range tiers {
		price := average * t.factor
		fees := price*FeeRate + FixedFee
		out = append(out, Scenario{
			Name:   t.name,
			Price:  costing.Round(price, 2),
			Profit: costing.Round(price-materialCost-fees-ShippingCost, 2),
		})
	}
	return out
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "for": true, "with": true, "of": true,
	"in": true, "on": true, "to": true, "by": true, "or": true, "&": true, "x": true,
	"new": true, "uk": true, "free": true, "set": true, "from": true, "your": true,
}

// TopKeywords returns up to n of the most frequent title words, ignoring
// stopwords, numbers and one-letter tokens. Ties sort alphabetically.
func TopKeywords(listings []Listing, n int) []string {
	counts := map[string]int{}
	for _, l := range listings {
		seen := map[string]bool{}
		for _, w := range strings.FieldsFunc(strings.ToLower(l.Title), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			if len(w) < 2 || stopwords[w] || isNumber(w) || seen[w] {
				continue
			}
			seen[w] = true
			counts[w]++
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
