package ebay

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisansally/ally/pkg/testkit"
)

const base = "https://api.ebay.test"

func testClient() *Client {
	return NewClient(Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		RuName:       "Ally-RuName",
		APIBase:      base,
		AuthBase:     "https://auth.ebay.test",
		Marketplace:  "EBAY_GB",
	}, NewMemoryTokenCache())
}

func mockAppToken(mt *testkit.MockTransport) {
	mt.On("POST", base+"/identity/v1/oauth2/token").JSON(200, map[string]interface{}{
		"access_token": "app-token",
		"expires_in":   7200,
		"token_type":   "Application Access Token",
	})
}

func form(t *testing.T, c testkit.Call) url.Values {
	t.Helper()
	v, err := url.ParseQuery(string(c.Body))
	require.NoError(t, err)
	return v
}

func TestAppToken_CachedAcrossCalls(t *testing.T) {
	mt := testkit.Mock(t)
	mockAppToken(mt)
	c := testClient()

	for i := 0; i < 3; i++ {
		tok, err := c.AppToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "app-token", tok)
	}

	calls := mt.CallsTo("POST", base+"/identity/v1/oauth2/token")
	require.Len(t, calls, 1)
	body := form(t, calls[0])
	assert.Equal(t, "client_credentials", body.Get("grant_type"))
	assert.Equal(t, ScopePublic, body.Get("scope"))
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("cid:secret")), calls[0].Header.Get("Authorization"))
}

func TestAppToken_RefetchedInsideSafetyMargin(t *testing.T) {
	mt := testkit.Mock(t)
	mockAppToken(mt)

	cache := NewMemoryTokenCache()
	c := testClient()
	c.tokens = cache

	_, err := c.AppToken(context.Background())
	require.NoError(t, err)

	// 7200s token, cached for 6900s.
	cache.now = func() time.Time { return time.Now().Add(6899 * time.Second) }
	_, err = c.AppToken(context.Background())
	require.NoError(t, err)
	assert.Len(t, mt.Calls(), 1)

	cache.now = func() time.Time { return time.Now().Add(6901 * time.Second) }
	_, err = c.AppToken(context.Background())
	require.NoError(t, err)
	assert.Len(t, mt.Calls(), 2)
}

func TestAppToken_NotConfigured(t *testing.T) {
	testkit.Mock(t)
	c := NewClient(Config{APIBase: base}, nil)
	_, err := c.AppToken(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSearch_Normalises(t *testing.T) {
	mt := testkit.Mock(t)
	mockAppToken(mt)
	mt.On("GET", base+"/buy/browse/v1/item_summary/search").JSON(200, map[string]interface{}{
		"itemSummaries": []map[string]interface{}{
			{"itemId": "v1|1|0", "title": "Jesmonite tray", "price": map[string]string{"value": "19.99", "currency": "GBP"}},
			{"itemId": "v1|2|0", "title": "No price"},
			{"itemId": "v1|3|0", "title": "Coaster", "price": map[string]string{"value": "8.5", "currency": "GBP"}},
		},
	})

	listings, err := testClient().Search(context.Background(), SearchParams{Query: "jesmonite tray"})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "v1|1|0", listings[0].ListingID)
	assert.Equal(t, int64(1999), listings[0].Price.Amount)
	assert.Equal(t, int64(100), listings[0].Price.Divisor)
	assert.Equal(t, "GBP", listings[0].Price.CurrencyCode)
	assert.Equal(t, "eBay", listings[0].Source)
	assert.Equal(t, int64(850), listings[1].Price.Amount)

	call := mt.CallsTo("GET", base+"/buy/browse/v1/item_summary/search")[0]
	u, _ := url.Parse(call.URL)
	assert.Equal(t, "jesmonite tray", u.Query().Get("q"))
	assert.Equal(t, "100", u.Query().Get("limit"))
	assert.Empty(t, u.Query().Get("filter"))
	assert.Equal(t, "Bearer app-token", call.Header.Get("Authorization"))
	assert.Equal(t, "EBAY_GB", call.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
}

func TestSearch_CategoryAndExclusion(t *testing.T) {
	mt := testkit.Mock(t)
	mockAppToken(mt)
	mt.On("GET", base+"/buy/browse/v1/item_summary/search").JSON(200, map[string]interface{}{
		"itemSummaries": []map[string]interface{}{
			{"itemId": "v1|9|0", "title": "Self", "price": map[string]string{"value": "5", "currency": "GBP"}},
		},
	})

	listings, err := testClient().Search(context.Background(), SearchParams{
		Query: "tray", CategoryID: "11700", ExcludeItemID: "v1|9|0", Marketplace: "EBAY_US",
	})
	require.NoError(t, err)
	assert.Empty(t, listings)

	call := mt.CallsTo("GET", base+"/buy/browse/v1/item_summary/search")[0]
	u, _ := url.Parse(call.URL)
	assert.Equal(t, "50", u.Query().Get("limit"))
	assert.Equal(t, "11700", u.Query().Get("category_ids"))
	assert.Equal(t, "itemId:-{v1|9|0}", u.Query().Get("filter"))
	assert.Equal(t, "EBAY_US", call.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
}

func TestSearch_UpstreamError(t *testing.T) {
	mt := testkit.Mock(t)
	mockAppToken(mt)
	mt.On("GET", base+"/buy/browse/v1/item_summary/search").JSON(503, map[string]string{"message": "down"})

	_, err := testClient().Search(context.Background(), SearchParams{Query: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 503, apiErr.Status)
	assert.Equal(t, map[string]interface{}{"message": "down"}, Details(err))
}

func TestSearch_TokenFailure(t *testing.T) {
	mt := testkit.Mock(t)
	mt.On("POST", base+"/identity/v1/oauth2/token").JSON(401, map[string]string{"error": "invalid_client"})

	_, err := testClient().Search(context.Background(), SearchParams{Query: "x"})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Empty(t, mt.CallsTo("GET", base+"/buy"))
}

func TestItem_FirstCategory(t *testing.T) {
	mt := testkit.Mock(t)
	mockAppToken(mt)
	mt.On("GET", base+"/buy/browse/v1/item/").JSON(200, map[string]string{
		"itemId": "v1|1|0", "title": "Tray", "categoryPath": "11700|Home|Decor",
	})

	item, err := testClient().Item(context.Background(), "v1|1|0", "")
	require.NoError(t, err)
	assert.Equal(t, "Tray", item.Title)
	assert.Equal(t, "11700", item.CategoryID)
}

func TestAuthURL(t *testing.T) {
	u, err := url.Parse(testClient().AuthURL("signed-state"))
	require.NoError(t, err)
	assert.Equal(t, "auth.ebay.test", u.Host)
	assert.Equal(t, "/oauth2/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "Ally-RuName", q.Get("redirect_uri"))
	assert.Equal(t, ScopeInventory, q.Get("scope"))
	assert.Equal(t, "signed-state", q.Get("state"))
}

func TestExchangeCode(t *testing.T) {
	mt := testkit.Mock(t)
	mt.On("POST", base+"/identity/v1/oauth2/token").JSON(200, map[string]interface{}{
		"access_token":             "user-access",
		"expires_in":               7200,
		"refresh_token":            "user-refresh",
		"refresh_token_expires_in": 47304000,
		"token_type":               "User Access Token",
	})

	c := testClient()
	fixed := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return fixed }

	g, err := c.ExchangeCode(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "user-refresh", g.RefreshToken)
	assert.Equal(t, fixed.Unix()+47304000, g.RefreshExpiry)

	body := form(t, mt.Calls()[0])
	assert.Equal(t, "authorization_code", body.Get("grant_type"))
	assert.Equal(t, "auth-code", body.Get("code"))
	assert.Equal(t, "Ally-RuName", body.Get("redirect_uri"))
}

func TestUserAccessToken(t *testing.T) {
	mt := testkit.Mock(t)
	mt.On("POST", base+"/identity/v1/oauth2/token").JSON(200, map[string]interface{}{
		"access_token": "fresh", "expires_in": 7200, "token_type": "User Access Token",
	})

	c := testClient()
	for i := 0; i < 2; i++ {
		tok, err := c.UserAccessToken(context.Background(), "user-refresh")
		require.NoError(t, err)
		assert.Equal(t, "fresh", tok)
	}

	calls := mt.Calls()
	require.Len(t, calls, 2, "user tokens are never cached")
	body := form(t, calls[0])
	assert.Equal(t, "refresh_token", body.Get("grant_type"))
	assert.Equal(t, "user-refresh", body.Get("refresh_token"))
	assert.Equal(t, ScopeInventory, body.Get("scope"))
}

func testPublisher() *Publisher {
	p := NewPublisher(testClient(), Policies{FulfillmentPolicyID: "f", PaymentPolicyID: "p", ReturnPolicyID: "r"})
	p.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	p.newID = func() string { return "abcdef12-3456-7890-abcd-ef1234567890" }
	return p
}

const (
	locationURL = base + "/sell/inventory/v1/location/ALLY_DEFAULT"
	skuURL      = base + "/sell/inventory/v1/inventory_item/ALLY-1700000000-abcdef12"
	offerURL    = base + "/sell/inventory/v1/offer"
)

func TestCreateDraft(t *testing.T) {
	mt := testkit.Mock(t)
	mt.On("GET", locationURL).Status(http.StatusOK)
	mt.On("PUT", skuURL).Status(http.StatusNoContent)
	mt.On("POST", offerURL).JSON(http.StatusCreated, map[string]string{"offerId": "offer-1"})

	res, err := testPublisher().CreateDraft(context.Background(), "user-token", Draft{
		Title: "Terrazzo tray", Description: "Hand poured", Price: 24.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "offer-1", res.OfferID)
	assert.Equal(t, "ALLY-1700000000-abcdef12", res.SKU)
	mt.AssertAllCalled(t)

	put := mt.CallsTo("PUT", skuURL)[0]
	assert.Equal(t, "en-GB", put.Header.Get("Content-Language"))
	var item InventoryItem
	require.NoError(t, put.JSON(&item))
	assert.Equal(t, "NEW", item.Condition)
	assert.Equal(t, "Terrazzo tray", item.Product.Title)
	assert.Equal(t, 1, item.Availability.ShipToLocationAvailability.Quantity)
	assert.Equal(t, 250.0, item.PackageWeightAndSize.Weight.Value)

	var offer Offer
	require.NoError(t, mt.CallsTo("POST", offerURL)[0].JSON(&offer))
	assert.Equal(t, "24.5", offer.PricingSummary.Price.Value)
	assert.Equal(t, "GBP", offer.PricingSummary.Price.Currency)
	assert.Equal(t, "11700", offer.CategoryID)
	assert.Equal(t, "ALLY_DEFAULT", offer.MerchantLocationKey)
	assert.Equal(t, "EBAY_GB", offer.MarketplaceID)
	assert.Equal(t, "FIXED_PRICE", offer.Format)
	assert.Equal(t, "f", offer.ListingPolicies.FulfillmentPolicyID)
}

func TestCreateDraft_CreatesMissingLocation(t *testing.T) {
	mt := testkit.Mock(t)
	mt.On("GET", locationURL).Status(http.StatusNotFound)
	mt.On("POST", locationURL).Status(http.StatusNoContent)
	mt.On("PUT", skuURL).Status(http.StatusNoContent)
	mt.On("POST", offerURL).JSON(http.StatusCreated, map[string]string{"offerId": "offer-2"})

	_, err := testPublisher().CreateDraft(context.Background(), "user-token", Draft{Title: "t", Price: 1})
	require.NoError(t, err)

	var loc map[string]interface{}
	require.NoError(t, mt.CallsTo("POST", locationURL)[0].JSON(&loc))
	assert.Equal(t, "ENABLED", loc["merchantLocationStatus"])
	assert.Equal(t, "Primary dispatch location", loc["name"])
}

func TestCreateDraft_LocationFailure(t *testing.T) {
	mt := testkit.Mock(t)
	mt.On("GET", locationURL).Status(http.StatusNotFound)
	mt.On("POST", locationURL).JSON(http.StatusBadRequest, map[string]string{"error": "bad"})

	_, err := testPublisher().CreateDraft(context.Background(), "user-token", Draft{Title: "t"})
	assert.ErrorIs(t, err, ErrLocation)
	assert.Empty(t, mt.CallsTo("PUT", base))
}

func TestCreateDraft_OfferFailureCompensates(t *testing.T) {
	mt := testkit.Mock(t)
	mt.On("GET", locationURL).Status(http.StatusOK)
	mt.On("PUT", skuURL).Status(http.StatusNoContent)
	mt.On("POST", offerURL).JSON(http.StatusBadRequest, map[string]interface{}{
		"errors": []map[string]interface{}{{"errorId": 25002, "message": "policy"}},
	})
	mt.On("DELETE", skuURL).Status(http.StatusNoContent)

	_, err := testPublisher().CreateDraft(context.Background(), "user-token", Draft{Title: "t", Price: 3})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "create offer", apiErr.Op)
	assert.Len(t, mt.CallsTo("DELETE", skuURL), 1)
}
