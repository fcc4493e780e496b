package ebay

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/artisansally/ally/app/pricing"
	"github.com/artisansally/ally/pkg/http"
	"github.com/artisansally/ally/pkg/metrics"
)

const (
	searchLimit         = "100"
	categorySearchLimit = "50"
)

type SearchParams struct {
	Query       string
	Marketplace string
	CategoryID  string
	// ExcludeItemID drops one listing, typically the item being viewed.
	ExcludeItemID string
}

type itemSummary struct {
	ItemID string `json:"itemId"`
	Title  string `json:"title"`
	Price  *struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"price"`
}

type searchResponse struct {
	ItemSummaries []itemSummary `json:"itemSummaries"`
}

// Search queries the Browse API and normalises results. Listings without a
// price are skipped.
func (c *Client) Search(ctx context.Context, p SearchParams) (listings []pricing.Listing, err error) {
	token, err := c.AppToken(ctx)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveUpstream("ebay", "search", time.Now(), &err)

	limit := searchLimit
	if p.CategoryID != "" {
		limit = categorySearchLimit
	}
	var exclude string
	if p.ExcludeItemID != "" {
		exclude = "itemId:-{" + p.ExcludeItemID + "}"
	}

	resp, err := http.Get(c.cfg.APIBase+"/buy/browse/v1/item_summary/search").
		WithContext(ctx).
		Bearer(token).
		Header("X-EBAY-C-MARKETPLACE-ID", c.marketplace(p.Marketplace)).
		Query("q", p.Query).
		Query("limit", limit).
		Query("category_ids", p.CategoryID).
		Query("filter", exclude).
		Send()
	if err != nil {
		return nil, transportErr("search", err)
	}
	if !resp.OK() {
		return nil, &APIError{Op: "search", Status: resp.StatusCode, Body: resp.Raw}
	}

	var body searchResponse
	if err := resp.JSON(&body); err != nil {
		return nil, transportErr("search", err)
	}

	listings = make([]pricing.Listing, 0, len(body.ItemSummaries))
	for _, it := range body.ItemSummaries {
		if it.Price == nil || it.Price.Value == "" || it.ItemID == p.ExcludeItemID {
			continue
		}
		value, perr := strconv.ParseFloat(it.Price.Value, 64)
		if perr != nil {
			continue
		}
		listings = append(listings, pricing.Listing{
			ListingID: it.ItemID,
			Title:     it.Title,
			Price: pricing.Price{
				Amount:       int64(math.Round(value * 100)),
				Divisor:      100,
				CurrencyCode: it.Price.Currency,
			},
			Source: "eBay",
		})
	}
	return listings, nil
}

// Item is the part of a Browse item the related-items lookup needs.
type Item struct {
	ItemID string
	Title  string
	// CategoryID is the first segment of categoryPath.
	CategoryID string
}

// Item fetches one listing by its Browse API id.
func (c *Client) Item(ctx context.Context, itemID, marketplace string) (item *Item, err error) {
	token, err := c.AppToken(ctx)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveUpstream("ebay", "item", time.Now(), &err)

	resp, err := http.Get(c.cfg.APIBase+"/buy/browse/v1/item/"+url.PathEscape(itemID)).
		WithContext(ctx).
		Bearer(token).
		Header("X-EBAY-C-MARKETPLACE-ID", c.marketplace(marketplace)).
		Send()
	if err != nil {
		return nil, transportErr("item", err)
	}
	if !resp.OK() {
		return nil, &APIError{Op: "item", Status: resp.StatusCode, Body: resp.Raw}
	}

	var body struct {
		ItemID       string `json:"itemId"`
		Title        string `json:"title"`
		CategoryPath string `json:"categoryPath"`
	}
	if err := resp.JSON(&body); err != nil {
		return nil, transportErr("item", err)
	}
	category, _, _ := strings.Cut(body.CategoryPath, "|")
	return &Item{ItemID: body.ItemID, Title: body.Title, CategoryID: category}, nil
}

func (c *Client) marketplace(m string) string {
	if m != "" {
		return m
	}
	if c.cfg.Marketplace != "" {
		return c.cfg.Marketplace
	}
	return "EBAY_GB"
}
