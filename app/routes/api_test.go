package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/artisansally/ally/app/models"
	"github.com/artisansally/ally/app/routes"
	"github.com/artisansally/ally/pkg/auth"
	"github.com/artisansally/ally/pkg/router"
	"github.com/artisansally/ally/pkg/session"
	"github.com/artisansally/ally/pkg/testkit"
)

type apiClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newAPI(t *testing.T) (*apiClient, *gorm.DB, *testkit.Mailbox) {
	t.Helper()
	db := testkit.NewDB(t)
	mb := testkit.CaptureMail(t)
	testkit.Mock(t)

	r := router.New()
	r.Use(session.Middleware(session.DefaultOptions()))
	routes.RegisterAPI(r)

	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{t: t, base: srv.URL, http: &http.Client{Jar: jar}}, db, mb
}

func (a *apiClient) do(method, path string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.base+path, &buf)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := a.http.Do(req)
	require.NoError(a.t, err)
	defer res.Body.Close()

	out := map[string]interface{}{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

// signIn registers, verifies and logs in a user.
func (a *apiClient) signIn(db *gorm.DB, email string) {
	a.t.Helper()
	code, _ := a.do(http.MethodPost, "/api/register", map[string]string{"email": email, "password": "s3cret-pass"})
	require.Equal(a.t, http.StatusCreated, code)

	var u models.User
	require.NoError(a.t, db.Where("email = ?", strings.ToLower(email)).First(&u).Error)
	token, err := auth.IssueToken(auth.PurposeEmailVerification, u.ID, time.Hour)
	require.NoError(a.t, err)

	code, _ = a.do(http.MethodGet, "/api/verify-email/"+token, nil)
	require.Equal(a.t, http.StatusOK, code)

	code, _ = a.do(http.MethodPost, "/api/login", map[string]string{"email": email, "password": "s3cret-pass"})
	require.Equal(a.t, http.StatusOK, code)
}

func TestRegisterVerifyLoginLogout(t *testing.T) {
	api, db, mb := newAPI(t)

	code, body := api.do(http.MethodPost, "/api/register", map[string]string{"email": "Maker@Example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusCreated, code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "maker@example.com", user["email"])
	assert.Equal(t, false, user["email_confirmed"])

	msg, ok := mb.Last()
	require.True(t, ok)
	require.Len(t, msg.To, 1)
	assert.Equal(t, "maker@example.com", msg.To[0].Email)

	code, body = api.do(http.MethodPost, "/api/register", map[string]string{"email": "maker@example.com", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Email already registered", body["error"])

	code, _ = api.do(http.MethodPost, "/api/login", map[string]string{"email": "maker@example.com", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusForbidden, code)

	var u models.User
	require.NoError(t, db.Where("email = ?", "maker@example.com").First(&u).Error)
	token, err := auth.IssueToken(auth.PurposeEmailVerification, u.ID, time.Hour)
	require.NoError(t, err)

	code, body = api.do(http.MethodGet, "/api/verify-email/"+token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Email verified. You can now log in.", body["message"])

	code, body = api.do(http.MethodGet, "/api/verify-email/not-a-token", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "The verification link is invalid.", body["error"])

	code, _ = api.do(http.MethodPost, "/api/login", map[string]string{"email": "maker@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.do(http.MethodPost, "/api/login", map[string]string{"email": "maker@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, code)

	code, body = api.do(http.MethodGet, "/api/check_session", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["logged_in"])

	code, _ = api.do(http.MethodPost, "/api/logout", nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = api.do(http.MethodGet, "/api/check_session", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["logged_in"])

	code, _ = api.do(http.MethodGet, "/api/workshop", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRegisterValidation(t *testing.T) {
	api, _, _ := newAPI(t)

	code, body := api.do(http.MethodPost, "/api/register", map[string]string{"email": "not-an-email", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, code)
	fields := body["errors"].(map[string]interface{})
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	code, body = api.do(http.MethodPost, "/api/register", map[string]string{"password": "s3cret-pass"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation failed", body["error"])
	assert.Contains(t, body["errors"], "email")
}

func TestWorkshopFlow(t *testing.T) {
	api, db, _ := newAPI(t)
	api.signIn(db, "maker@example.com")

	code, body := api.do(http.MethodPost, "/api/materials", map[string]interface{}{
		"name": "Resin", "cost": 20.0, "quantity": 1000.0, "unit": "g",
	})
	require.Equal(t, http.StatusCreated, code)
	materialID := body["id"].(float64)

	code, body = api.do(http.MethodPost, "/api/products", map[string]interface{}{
		"name":          "Tray",
		"recipe":        []map[string]interface{}{{"material_id": materialID, "quantity": 250.0}},
		"labour_hours":  0.5,
		"hourly_rate":   12.0,
		"profit_margin": 100.0,
	})
	require.Equal(t, http.StatusCreated, code)

	code, body = api.do(http.MethodGet, "/api/workshop", nil)
	require.Equal(t, http.StatusOK, code)
	products := body["products"].([]interface{})
	require.Len(t, products, 1)
	tray := products[0].(map[string]interface{})
	assert.InDelta(t, 5.0, tray["material_cost"], 0.001)
	assert.InDelta(t, 6.0, tray["labour_cost"], 0.001)
	assert.InDelta(t, 11.0, tray["total_cost"], 0.001)
	assert.InDelta(t, 22.0, tray["suggested_price"], 0.001)

	code, _ = api.do(http.MethodDelete, "/api/materials/"+jsonID(materialID), nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = api.do(http.MethodDelete, "/api/materials/"+jsonID(materialID)+"?force=true", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodPost, "/api/materials", map[string]interface{}{"name": "Bad", "cost": -1.0, "quantity": 1.0, "unit": "g"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = api.do(http.MethodPost, "/api/materials", map[string]interface{}{"name": "resin"})
	assert.Equal(t, http.StatusBadRequest, code)
	fields := body["errors"].(map[string]interface{})
	assert.Contains(t, fields, "cost")
	assert.Contains(t, fields, "quantity")
	assert.Contains(t, fields, "unit")
}

func TestWorkshopOwnership(t *testing.T) {
	api, db, _ := newAPI(t)

	owner := &models.User{Email: "other@example.com", Password: "x", EmailConfirmed: true}
	require.NoError(t, db.Create(owner).Error)
	foreign := &models.Material{UserID: owner.ID, Name: "Pigment", Cost: 5, Quantity: 50, Unit: "g"}
	require.NoError(t, db.Create(foreign).Error)

	api.signIn(db, "maker@example.com")

	code, _ := api.do(http.MethodPut, "/api/materials/"+jsonID(float64(foreign.ID)), map[string]interface{}{
		"name": "Mine now", "cost": 1.0, "quantity": 1.0, "unit": "g",
	})
	assert.Equal(t, http.StatusForbidden, code)

	code, body := api.do(http.MethodPost, "/api/products", map[string]interface{}{
		"name":   "Sneaky",
		"recipe": []map[string]interface{}{{"material_id": foreign.ID, "quantity": 1.0}},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["errors"], "recipe.0.material_id")

	code, _ = api.do(http.MethodDelete, "/api/products/999", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMarketEndpointsWithoutUpstream(t *testing.T) {
	api, _, _ := newAPI(t)

	for _, cost := range []string{"abc", "NaN", "Inf", "-Inf", "1e400"} {
		code, body := api.do(http.MethodGet, "/api/analyse?query=tray&cost="+cost, nil)
		assert.Equal(t, http.StatusBadRequest, code, cost)
		assert.Equal(t, "Invalid request parameters", body["error"], cost)
	}

	code, body := api.do(http.MethodGet, "/api/analyse?cost=4", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["upstream_ok"])
	assert.Contains(t, body, "profit_scenarios")

	code, body = api.do(http.MethodGet, "/api/related-items/v1%7C123%7C0", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Could not authenticate with eBay", body["error"])
}

func TestForgotPasswordDoesNotRevealAccounts(t *testing.T) {
	api, _, mb := newAPI(t)

	code, body := api.do(http.MethodPost, "/api/forgot-password", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "If an account with this email exists, a reset link has been sent.", body["message"])
	assert.Empty(t, mb.Sent())
}

func TestDeleteAccount(t *testing.T) {
	api, db, _ := newAPI(t)
	api.signIn(db, "maker@example.com")

	code, _ := api.do(http.MethodDelete, "/api/user", map[string]string{"password": "nope-nope"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body := api.do(http.MethodDelete, "/api/user", map[string]string{"password": "s3cret-pass"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Account deleted", body["message"])

	var n int64
	db.Model(&models.User{}).Count(&n)
	assert.Zero(t, n)

	code, _ = api.do(http.MethodGet, "/api/workshop", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func jsonID(id float64) string {
	b, _ := json.Marshal(uint(id))
	return string(b)
}
