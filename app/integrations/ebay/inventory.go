package ebay

import (
	"context"
	gohttp "net/http"
	"net/url"
	"time"

	"github.com/artisansally/ally/pkg/http"
	"github.com/artisansally/ally/pkg/metrics"
)

const contentLanguage = "en-GB"

func (c *Client) inventoryURL(path string) string {
	return c.cfg.APIBase + "/sell/inventory/v1" + path
}

// EnsureLocation makes sure the merchant location key exists, creating a
// minimal GB warehouse location when the probe does not find it.
func (c *Client) EnsureLocation(ctx context.Context, userToken, key string) (err error) {
	defer metrics.ObserveUpstream("ebay", "ensure_location", time.Now(), &err)

	u := c.inventoryURL("/location/" + url.PathEscape(key))
	probe, err := http.Get(u).WithContext(ctx).Bearer(userToken).Send()
	if err != nil {
		return transportErr("location probe", err)
	}
	if probe.StatusCode == gohttp.StatusOK {
		return nil
	}

	resp, err := http.Post(u).
		WithContext(ctx).
		Bearer(userToken).
		Body(map[string]interface{}{
			"location": map[string]interface{}{
				"address": map[string]string{"country": "GB"},
			},
			"name":                   "Primary dispatch location",
			"merchantLocationStatus": "ENABLED",
			"locationTypes":          []string{"WAREHOUSE"},
		}).
		Send()
	if err != nil {
		return transportErr("create location", err)
	}
	if !resp.OK() {
		return &APIError{Op: "create location", Status: resp.StatusCode, Body: resp.Raw}
	}
	return nil
}

type InventoryItem struct {
	Product              InventoryProduct     `json:"product"`
	Condition            string               `json:"condition"`
	PackageWeightAndSize PackageWeightAndSize `json:"packageWeightAndSize"`
	Availability         Availability         `json:"availability"`
}

type InventoryProduct struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURLs   []string `json:"imageUrls,omitempty"`
}

type PackageWeightAndSize struct {
	Dimensions Dimensions `json:"dimensions"`
	Weight     Weight     `json:"weight"`
}

type Dimensions struct {
	Height float64 `json:"height"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Unit   string  `json:"unit"`
}

type Weight struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type Availability struct {
	ShipToLocationAvailability struct {
		Quantity int `json:"quantity"`
	} `json:"shipToLocationAvailability"`
}

// PutInventoryItem creates or replaces the inventory item stored under sku.
func (c *Client) PutInventoryItem(ctx context.Context, userToken, sku string, item InventoryItem) (err error) {
	defer metrics.ObserveUpstream("ebay", "put_inventory_item", time.Now(), &err)

	resp, err := http.Put(c.inventoryURL("/inventory_item/"+url.PathEscape(sku))).
		WithContext(ctx).
		Bearer(userToken).
		Header("Content-Language", contentLanguage).
		Body(item).
		Send()
	if err != nil {
		return transportErr("put inventory item", err)
	}
	if !resp.OK() {
		return &APIError{Op: "put inventory item", Status: resp.StatusCode, Body: resp.Raw}
	}
	return nil
}

// DeleteInventoryItem removes an inventory item. A 404 counts as success.
func (c *Client) DeleteInventoryItem(ctx context.Context, userToken, sku string) (err error) {
	defer metrics.ObserveUpstream("ebay", "delete_inventory_item", time.Now(), &err)

	resp, err := http.Delete(c.inventoryURL("/inventory_item/"+url.PathEscape(sku))).
		WithContext(ctx).
		Bearer(userToken).
		Send()
	if err != nil {
		return transportErr("delete inventory item", err)
	}
	if !resp.OK() && resp.StatusCode != gohttp.StatusNotFound {
		return &APIError{Op: "delete inventory item", Status: resp.StatusCode, Body: resp.Raw}
	}
	return nil
}

type Offer struct {
	SKU                 string          `json:"sku"`
	MarketplaceID       string          `json:"marketplaceId"`
	Format              string          `json:"format"`
	ListingDescription  string          `json:"listingDescription"`
	AvailableQuantity   int             `json:"availableQuantity"`
	PricingSummary      PricingSummary  `json:"pricingSummary"`
	ListingPolicies     ListingPolicies `json:"listingPolicies"`
	CategoryID          string          `json:"categoryId"`
	MerchantLocationKey string          `json:"merchantLocationKey"`
}

type PricingSummary struct {
	Price Amount `json:"price"`
}

type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type ListingPolicies struct {
	FulfillmentPolicyID string `json:"fulfillmentPolicyId"`
	PaymentPolicyID     string `json:"paymentPolicyId"`
	ReturnPolicyID      string `json:"returnPolicyId"`
}

// CreateOffer creates an unpublished offer and returns its id.
func (c *Client) CreateOffer(ctx context.Context, userToken string, offer Offer) (offerID string, err error) {
	defer metrics.ObserveUpstream("ebay", "create_offer", time.Now(), &err)

	resp, err := http.Post(c.inventoryURL("/offer")).
		WithContext(ctx).
		Bearer(userToken).
		Header("Content-Language", contentLanguage).
		Body(offer).
		Send()
	if err != nil {
		return "", transportErr("create offer", err)
	}
	if !resp.OK() {
		return "", &APIError{Op: "create offer", Status: resp.StatusCode, Body: resp.Raw}
	}

	var body struct {
		OfferID string `json:"offerId"`
	}
	_ = resp.JSON(&body)
	return body.OfferID, nil
}
