// Package ebay talks to the eBay Browse, Inventory and Identity APIs.
//
// Two kinds of access token are used. The application token
// (client-credentials, public browse scope) is cached in a TokenCache until
// five minutes before it expires. User tokens (sell.inventory scope) are
// minted from the seller's stored refresh token on every call.
package ebay

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/artisansally/ally/config"
	"github.com/artisansally/ally/pkg/http"
	"github.com/artisansally/ally/pkg/metrics"
)

const (
	ScopePublic    = "https://api.ebay.com/oauth/api_scope"
	ScopeInventory = "https://api.ebay.com/oauth/api_scope/sell.inventory"

	// appTokenMargin is taken off expires_in before caching.
	appTokenMargin = 300 * time.Second
	appTokenKey    = "app_token"
)

type Config struct {
	ClientID     string
	ClientSecret string
	// RuName is eBay's name for the registered redirect URL.
	RuName      string
	APIBase     string
	AuthBase    string
	Marketplace string
}

// ConfigFromEnv reads the EBAY_* settings.
func ConfigFromEnv() Config {
	return Config{
		ClientID:     config.EbayClientID(),
		ClientSecret: config.EbayClientSecret(),
		RuName:       config.EbayRuName(),
		APIBase:      config.EbayAPIBase(),
		AuthBase:     config.EbayAuthBase(),
		Marketplace:  config.EbayMarketplace(),
	}
}

type Client struct {
	cfg    Config
	tokens TokenCache
	now    func() time.Time
}

func NewClient(cfg Config, tokens TokenCache) *Client {
	if tokens == nil {
		tokens = NewMemoryTokenCache()
	}
	return &Client{cfg: cfg, tokens: tokens, now: time.Now}
}

func (c *Client) Marketplace() string { return c.cfg.Marketplace }

func (c *Client) tokenURL() string { return c.cfg.APIBase + "/identity/v1/oauth2/token" }

func (c *Client) userOAuth() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		RedirectURL:  c.cfg.RuName,
		Scopes:       []string{ScopeInventory},
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.cfg.AuthBase + "/oauth2/authorize",
			TokenURL:  c.tokenURL(),
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// oauthCtx routes oauth2's token requests through the shared client so
// they are mocked and instrumented like every other outbound call.
func oauthCtx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, http.DefaultClient)
}

func oauthErr(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return &APIError{Op: op, Status: re.Response.StatusCode, Body: re.Body}
	}
	return transportErr(op, err)
}

// AppToken returns the cached application token, fetching a new one with
// the client-credentials grant when the cache is empty.
func (c *Client) AppToken(ctx context.Context) (token string, err error) {
	if t, ok := c.tokens.Get(ctx, appTokenKey); ok {
		metrics.TokenCacheLookups.WithLabelValues("hit").Inc()
		return t, nil
	}
	metrics.TokenCacheLookups.WithLabelValues("miss").Inc()

	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return "", ErrNotConfigured
	}
	defer metrics.ObserveUpstream("ebay", "app_token", time.Now(), &err)

	cc := clientcredentials.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		TokenURL:     c.tokenURL(),
		Scopes:       []string{ScopePublic},
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tok, err := cc.Token(oauthCtx(ctx))
	if err != nil {
		return "", oauthErr("app token", err)
	}

	if !tok.Expiry.IsZero() {
		c.tokens.Set(ctx, appTokenKey, tok.AccessToken, tok.Expiry.Sub(c.now())-appTokenMargin)
	}
	return tok.AccessToken, nil
}

// AuthURL is the consent page the seller is sent to. state comes back
// untouched on the callback.
func (c *Client) AuthURL(state string) string {
	return c.userOAuth().AuthCodeURL(state)
}

// Grant is the long-lived part of an authorization-code exchange.
type Grant struct {
	RefreshToken string
	// RefreshExpiry is a unix timestamp.
	RefreshExpiry int64
}

// ExchangeCode trades the callback's authorization code for a refresh token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (g Grant, err error) {
	defer metrics.ObserveUpstream("ebay", "exchange_code", time.Now(), &err)

	tok, err := c.userOAuth().Exchange(oauthCtx(ctx), code)
	if err != nil {
		return Grant{}, oauthErr("exchange code", err)
	}
	if tok.RefreshToken == "" {
		return Grant{}, &APIError{Op: "exchange code", Status: 200, Body: []byte("no refresh_token in reply")}
	}
	return Grant{
		RefreshToken:  tok.RefreshToken,
		RefreshExpiry: c.now().Unix() + extraSeconds(tok, "refresh_token_expires_in"),
	}, nil
}

func extraSeconds(tok *oauth2.Token, key string) int64 {
	switch v := tok.Extra(key).(type) {
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// UserAccessToken mints a sell.inventory access token from a refresh token.
// It is never cached.
func (c *Client) UserAccessToken(ctx context.Context, refreshToken string) (token string, err error) {
	defer metrics.ObserveUpstream("ebay", "user_token", time.Now(), &err)

	// oauth2's own refresh path drops the scope eBay requires, so the
	// refresh grant goes through clientcredentials with grant_type overridden.
	cc := clientcredentials.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		TokenURL:     c.tokenURL(),
		Scopes:       []string{ScopeInventory},
		AuthStyle:    oauth2.AuthStyleInHeader,
		EndpointParams: url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {refreshToken},
		},
	}
	tok, err := cc.Token(oauthCtx(ctx))
	if err != nil {
		return "", oauthErr("user token", err)
	}
	return tok.AccessToken, nil
}
