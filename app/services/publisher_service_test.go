package services_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisansally/ally/app/integrations/ebay"
	"github.com/artisansally/ally/app/models"
	"github.com/artisansally/ally/app/repositories"
	"github.com/artisansally/ally/app/services"
	"github.com/artisansally/ally/pkg/auth"
	"github.com/artisansally/ally/pkg/crypt"
	"github.com/artisansally/ally/pkg/testkit"
)

func newPublisher(t *testing.T) (*services.PublisherService, *repositories.EbayTokenRepository, uint) {
	t.Helper()
	db := testkit.NewDB(t)
	u := &models.User{Email: "seller@example.com", Password: "x", Currency: "GBP"}
	require.NoError(t, repositories.NewUserRepository(db).Create(context.Background(), u))

	client := testEbay()
	pub := ebay.NewPublisher(client, ebay.Policies{FulfillmentPolicyID: "f", PaymentPolicyID: "p", ReturnPolicyID: "r"})
	return services.NewPublisherService(db, client, pub), repositories.NewEbayTokenRepository(db), u.ID
}

func TestAuthURL_CarriesSignedState(t *testing.T) {
	s, _, userID := newPublisher(t)

	raw, err := s.AuthURL(userID)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	state := u.Query().Get("state")
	id, err := auth.ParseToken(state, auth.PurposeEbayOAuth)
	require.NoError(t, err)
	assert.Equal(t, userID, id)
}

func TestHandleCallback_StoresSealedRefreshToken(t *testing.T) {
	mt := testkit.Mock(t)
	mockEbayToken(mt)
	s, tokens, userID := newPublisher(t)
	ctx := context.Background()

	state, err := auth.IssueToken(auth.PurposeEbayOAuth, userID, time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.HandleCallback(ctx, "code", state))
	// re-authorising replaces the token
	require.NoError(t, s.HandleCallback(ctx, "code", state))

	stored, err := tokens.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.NotEqual(t, "user-refresh", stored.RefreshToken)
	plain, err := crypt.Decrypt(stored.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-refresh", plain)
	assert.Greater(t, stored.RefreshTokenExpiry, time.Now().Unix())
}

func TestHandleCallback_RejectsForgedState(t *testing.T) {
	mt := testkit.Mock(t)
	s, _, userID := newPublisher(t)

	assert.ErrorIs(t, s.HandleCallback(context.Background(), "code", "1"), services.ErrInvalidToken)

	reset, err := auth.IssueToken(auth.PurposePasswordReset, userID, time.Minute)
	require.NoError(t, err)
	assert.ErrorIs(t, s.HandleCallback(context.Background(), "code", reset), services.ErrInvalidToken)
	assert.Empty(t, mt.Calls())
}

func TestCreateDraft_NotConnected(t *testing.T) {
	testkit.Mock(t)
	s, _, userID := newPublisher(t)

	_, err := s.CreateDraft(context.Background(), userID, services.DraftInput{Title: "t", Description: "d", Price: f64(5)})
	assert.ErrorIs(t, err, services.ErrEbayNotConnected)
}

func TestCreateDraft_ExpiredRefreshToken(t *testing.T) {
	testkit.Mock(t)
	s, tokens, userID := newPublisher(t)
	sealed, err := crypt.Encrypt("old")
	require.NoError(t, err)
	require.NoError(t, tokens.Save(context.Background(), &models.EbayToken{
		UserID: userID, RefreshToken: sealed, RefreshTokenExpiry: time.Now().Add(-time.Hour).Unix(),
	}))

	_, err = s.CreateDraft(context.Background(), userID, services.DraftInput{Title: "t", Description: "d", Price: f64(5)})
	assert.ErrorIs(t, err, services.ErrEbayNotConnected)
}

func connect(t *testing.T, tokens *repositories.EbayTokenRepository, userID uint) {
	t.Helper()
	sealed, err := crypt.Encrypt("user-refresh")
	require.NoError(t, err)
	require.NoError(t, tokens.Save(context.Background(), &models.EbayToken{
		UserID: userID, RefreshToken: sealed, RefreshTokenExpiry: time.Now().Add(time.Hour).Unix(),
	}))
}

func TestCreateDraft_Publishes(t *testing.T) {
	mt := testkit.Mock(t)
	mockEbayToken(mt)
	mt.On("GET", ebayBase+"/sell/inventory/v1/location/ALLY_DEFAULT").Status(http.StatusOK)
	mt.On("PUT", ebayBase+"/sell/inventory/v1/inventory_item/").Status(http.StatusNoContent)
	mt.On("POST", ebayBase+"/sell/inventory/v1/offer").JSON(http.StatusCreated, map[string]string{"offerId": "offer-9"})

	s, tokens, userID := newPublisher(t)
	connect(t, tokens, userID)

	res, err := s.CreateDraft(context.Background(), userID, services.DraftInput{
		Title: "Tray", Description: "Hand poured", Price: f64(19.99), ImageURLs: []string{"https://cdn.test/a.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "offer-9", res.OfferID)

	put := mt.CallsTo("PUT", ebayBase+"/sell/inventory/v1/inventory_item/")[0]
	assert.Equal(t, "Bearer access", put.Header.Get("Authorization"))
	var item ebay.InventoryItem
	require.NoError(t, put.JSON(&item))
	assert.Equal(t, []string{"https://cdn.test/a.jpg"}, item.Product.ImageURLs)
}

func TestCreateDraft_UserTokenRejected(t *testing.T) {
	mt := testkit.Mock(t)
	mt.On("POST", ebayBase+"/identity/v1/oauth2/token").JSON(http.StatusBadRequest, map[string]string{"error": "invalid_grant"})

	s, tokens, userID := newPublisher(t)
	connect(t, tokens, userID)

	_, err := s.CreateDraft(context.Background(), userID, services.DraftInput{Title: "t", Description: "d", Price: f64(5)})
	assert.ErrorIs(t, err, services.ErrEbayAuth)
	assert.ErrorIs(t, err, ebay.ErrUpstream)
}
