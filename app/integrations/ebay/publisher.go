package ebay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artisansally/ally/config"
	"github.com/artisansally/ally/pkg/logger"
	"github.com/artisansally/ally/pkg/metrics"
)

// Draft listing defaults.
const (
	DraftMarketplace = "EBAY_GB"
	DraftCurrency    = "GBP"
	DraftCategoryID  = "11700"
	LocationKey      = "ALLY_DEFAULT"
)

// ErrLocation means the merchant location could not be found or created.
var ErrLocation = errors.New("ebay: inventory location unavailable")

type Policies struct {
	FulfillmentPolicyID string
	PaymentPolicyID     string
	ReturnPolicyID      string
}

func PoliciesFromEnv() Policies {
	return Policies{
		FulfillmentPolicyID: config.EbayFulfillmentPolicyID(),
		PaymentPolicyID:     config.EbayPaymentPolicyID(),
		ReturnPolicyID:      config.EbayReturnPolicyID(),
	}
}

type Draft struct {
	Title       string
	Description string
	Price       float64
	ImageURLs   []string
}

type DraftResult struct {
	SKU     string
	OfferID string
}

// Publisher creates draft offers. The inventory item and the offer are two
// separate calls; if the offer fails the inventory item is deleted again.
type Publisher struct {
	client   *Client
	policies Policies
	now      func() time.Time
	newID    func() string
}

func NewPublisher(client *Client, policies Policies) *Publisher {
	return &Publisher{client: client, policies: policies, now: time.Now, newID: uuid.NewString}
}

func (p *Publisher) sku() string {
	id := strings.ReplaceAll(p.newID(), "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("ALLY-%d-%s", p.now().Unix(), id)
}

// CreateDraft runs location → inventory item → offer with the seller's
// access token.
func (p *Publisher) CreateDraft(ctx context.Context, userToken string, d Draft) (DraftResult, error) {
	log := logger.WithCtx(ctx)

	if err := p.client.EnsureLocation(ctx, userToken, LocationKey); err != nil {
		log.Warn("ebay: ensure location failed", "error", err)
		metrics.DraftsPublished.WithLabelValues("failed").Inc()
		return DraftResult{}, fmt.Errorf("%w: %w", ErrLocation, err)
	}

	sku := p.sku()
	item := InventoryItem{
		Product:   InventoryProduct{Title: d.Title, Description: d.Description, ImageURLs: d.ImageURLs},
		Condition: "NEW",
		PackageWeightAndSize: PackageWeightAndSize{
			Dimensions: Dimensions{Height: 10, Length: 10, Width: 10, Unit: "CENTIMETER"},
			Weight:     Weight{Value: 250, Unit: "GRAM"},
		},
	}
	item.Availability.ShipToLocationAvailability.Quantity = 1

	if err := p.client.PutInventoryItem(ctx, userToken, sku, item); err != nil {
		log.Warn("ebay: put inventory item failed", "sku", sku, "error", err)
		metrics.DraftsPublished.WithLabelValues("failed").Inc()
		return DraftResult{SKU: sku}, err
	}

	offerID, err := p.client.CreateOffer(ctx, userToken, Offer{
		SKU:                sku,
		MarketplaceID:      DraftMarketplace,
		Format:             "FIXED_PRICE",
		ListingDescription: d.Description,
		AvailableQuantity:  1,
		PricingSummary: PricingSummary{Price: Amount{
			Value:    strconv.FormatFloat(d.Price, 'f', -1, 64),
			Currency: DraftCurrency,
		}},
		ListingPolicies: ListingPolicies{
			FulfillmentPolicyID: p.policies.FulfillmentPolicyID,
			PaymentPolicyID:     p.policies.PaymentPolicyID,
			ReturnPolicyID:      p.policies.ReturnPolicyID,
		},
		CategoryID:          DraftCategoryID,
		MerchantLocationKey: LocationKey,
	})
	if err != nil {
		log.Warn("ebay: create offer failed, removing inventory item", "sku", sku, "error", err)
		if derr := p.client.DeleteInventoryItem(ctx, userToken, sku); derr != nil {
			log.Error("ebay: orphaned inventory item", "sku", sku, "error", derr)
			metrics.DraftsPublished.WithLabelValues("failed").Inc()
		} else {
			metrics.DraftsPublished.WithLabelValues("compensated").Inc()
		}
		return DraftResult{SKU: sku}, err
	}

	metrics.DraftsPublished.WithLabelValues("created").Inc()
	return DraftResult{SKU: sku, OfferID: offerID}, nil
}
