package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/artisansally/ally/app/integrations/ebay"
	"github.com/artisansally/ally/app/pricing"
	"github.com/artisansally/ally/pkg/logger"
)

// Analysis defaults.
const (
	DefaultQuery       = "jesmonite tray"
	DefaultMarketplace = "EBAY_GB"
	topKeywordCount    = 10
)

var ErrMarketplaceUnavailable = errors.New("marketplace unavailable")

type Sources struct {
	Etsy []pricing.Listing `json:"etsy"`
	Ebay []pricing.Listing `json:"ebay"`
}

type AnalysisStats struct {
	Overall pricing.Stats `json:"overall"`
	Etsy    pricing.Stats `json:"etsy"`
	Ebay    pricing.Stats `json:"ebay"`
}

type SEOAnalysis struct {
	TopKeywords []string `json:"top_keywords"`
}

type MarketAnalysis struct {
	Listings        Sources            `json:"listings"`
	Analysis        AnalysisStats      `json:"analysis"`
	ProfitScenarios []pricing.Scenario `json:"profit_scenarios"`
	SEOAnalysis     SEOAnalysis        `json:"seo_analysis"`
	// UpstreamOK is false when the marketplace could not be searched, which
	// tells "no matches" apart from "marketplace down".
	UpstreamOK bool `json:"upstream_ok"`
}

type MarketService struct {
	ebay *ebay.Client
}

func NewMarketService(client *ebay.Client) *MarketService {
	return &MarketService{ebay: client}
}

// Analyse prices a product against live listings for query. A failed search
// still yields a full analysis over zero listings.
func (s *MarketService) Analyse(ctx context.Context, query, marketplace string, materialCost float64) MarketAnalysis {
	if query == "" {
		query = DefaultQuery
	}
	if marketplace == "" {
		marketplace = DefaultMarketplace
	}

	ok := true
	listings, err := s.ebay.Search(ctx, ebay.SearchParams{Query: query, Marketplace: marketplace})
	if err != nil {
		ok = false
		logger.WithCtx(ctx).Warn("ebay search failed", "query", query, "marketplace", marketplace, "error", err)
	}
	if listings == nil {
		listings = []pricing.Listing{}
	}

	stats := pricing.Analyse(listings)
	keywords := pricing.TopKeywords(listings, topKeywordCount)
	if keywords == nil {
		keywords = []string{}
	}
	return MarketAnalysis{
		Listings:        Sources{Etsy: []pricing.Listing{}, Ebay: listings},
		Analysis:        AnalysisStats{Overall: stats, Etsy: pricing.Analyse(nil), Ebay: stats},
		ProfitScenarios: pricing.Scenarios(stats.AveragePrice, materialCost),
		SEOAnalysis:     SEOAnalysis{TopKeywords: keywords},
		UpstreamOK:      ok,
	}
}

// RelatedItems finds listings in the same category as itemID, excluding it.
// An unknown item, or one without a title or category, has no related
// items. Other marketplace failures return ErrMarketplaceUnavailable.
func (s *MarketService) RelatedItems(ctx context.Context, itemID string) ([]pricing.Listing, error) {
	log := logger.WithCtx(ctx)
	if _, err := s.ebay.AppToken(ctx); err != nil {
		log.Error("ebay app token", "error", err)
		return nil, ErrEbayAuth
	}

	item, err := s.ebay.Item(ctx, itemID, DefaultMarketplace)
	if err != nil {
		var apiErr *ebay.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return []pricing.Listing{}, nil
		}
		log.Warn("ebay item lookup failed", "item_id", itemID, "error", err)
		return nil, ErrMarketplaceUnavailable
	}
	if item.CategoryID == "" || item.Title == "" {
		return []pricing.Listing{}, nil
	}

	listings, err := s.ebay.Search(ctx, ebay.SearchParams{
		Query:         item.Title,
		Marketplace:   DefaultMarketplace,
		CategoryID:    item.CategoryID,
		ExcludeItemID: itemID,
	})
	if err != nil {
		log.Warn("ebay related search failed", "item_id", itemID, "error", err)
		return nil, ErrMarketplaceUnavailable
	}
	if listings == nil {
		listings = []pricing.Listing{}
	}
	return listings, nil
}
