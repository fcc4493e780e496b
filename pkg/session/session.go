// Package session provides cookie sessions backed by the shared cache.
//
// The Middleware loads the session for each request; handlers read it with
// FromCtx and must call Save before writing the response body:
//
//	sess := session.FromCtx(r)
//	sess.Regenerate()
//	sess.Set(session.UserKey, user.ID)
//	_ = sess.Save(r.Context(), w)
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/artisansally/ally/config"
	"github.com/artisansally/ally/pkg/cache"
)

// UserKey holds the signed-in user's id.
const UserKey = "user_id"

// Options configures the session cookie.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	SameSite   http.SameSite
	Path       string
}

// DefaultOptions reads cookie security from config. The front-end is served
// from another origin in production, so Secure sessions use SameSite=None.
func DefaultOptions() Options {
	opts := Options{
		CookieName: "ally_session",
		TTL:        7 * 24 * time.Hour,
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
	}
	if config.SessionSecure() {
		opts.Secure = true
		opts.SameSite = http.SameSiteNoneMode
	}
	return opts
}

type ctxKey struct{}

// Session is the per-request session handle.
type Session struct {
	id      string
	prevID  string
	data    map[string]interface{}
	opts    Options
	changed bool
	ended   bool
}

func newID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("session: entropy: %v", err))
	}
	return hex.EncodeToString(b)
}

func storeKey(id string) string { return "ally:session:" + id }

func (s *Session) ID() string { return s.id }

func (s *Session) Set(key string, value interface{}) {
	s.data[key] = value
	s.changed = true
}

func (s *Session) Get(key string) (interface{}, bool) {
	v, ok := s.data[key]
	return v, ok
}

// GetUint reads a numeric value. JSON round-trips numbers as float64.
func (s *Session) GetUint(key string) (uint, bool) {
	switch n := s.data[key].(type) {
	case float64:
		if n <= 0 {
			return 0, false
		}
		return uint(n), true
	case uint:
		return n, n > 0
	case int:
		if n <= 0 {
			return 0, false
		}
		return uint(n), true
	}
	return 0, false
}

func (s *Session) Delete(key string) {
	delete(s.data, key)
	s.changed = true
}

// Regenerate issues a fresh id while keeping the data; call it on login.
func (s *Session) Regenerate() {
	if s.prevID == "" {
		s.prevID = s.id
	}
	s.id = newID()
	s.changed = true
}

// Destroy clears the data and marks the cookie for removal on Save.
func (s *Session) Destroy() {
	s.data = map[string]interface{}{}
	s.ended = true
	s.changed = true
}

// Save persists the session and writes (or clears) the cookie.
func (s *Session) Save(ctx context.Context, w http.ResponseWriter) error {
	if !s.changed {
		return nil
	}

	if s.prevID != "" {
		_ = cache.Del(ctx, storeKey(s.prevID))
		s.prevID = ""
	}

	if s.ended {
		if err := cache.Del(ctx, storeKey(s.id)); err != nil {
			return fmt.Errorf("session: delete: %w", err)
		}
		http.SetCookie(w, s.cookie("", -1))
		s.changed = false
		return nil
	}

	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := cache.Set(ctx, storeKey(s.id), json.RawMessage(raw), s.opts.TTL); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}

	http.SetCookie(w, s.cookie(s.id, int(s.opts.TTL.Seconds())))
	s.changed = false
	return nil
}

func (s *Session) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    value,
		Path:     s.opts.Path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: s.opts.SameSite,
	}
}

// Middleware loads the session named by the request cookie, or starts an
// empty one. Unknown or expired ids get a fresh id so a client can never
// choose its own.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &Session{opts: opts, data: map[string]interface{}{}}

			if c, err := r.Cookie(opts.CookieName); err == nil && c.Value != "" {
				var data map[string]interface{}
				if cache.Get(r.Context(), storeKey(c.Value), &data) {
					sess.id = c.Value
					sess.data = data
				}
			}
			if sess.id == "" {
				sess.id = newID()
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromCtx returns the request's session, or a detached empty one.
func FromCtx(r *http.Request) *Session {
	if s, ok := r.Context().Value(ctxKey{}).(*Session); ok {
		return s
	}
	return &Session{id: newID(), data: map[string]interface{}{}, opts: DefaultOptions()}
}
