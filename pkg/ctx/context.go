// Package ctx provides the request context every Ally handler receives.
//
// Instead of (http.ResponseWriter, *http.Request) a handler takes a single
// *Context with helpers for params, binding, the session and JSON replies:
//
//	func (h *WorkshopController) ShowProduct(c *ctx.Context) {
//	    id, ok := c.ParamUint("id")
//	    if !ok {
//	        c.NotFound("Product not found")
//	        return
//	    }
//	    c.JSON(http.StatusOK, product)
//	}
//
//	r.Get("/products/{id}", "products.show", ctx.Wrap(h.ShowProduct))
package ctx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/artisansally/ally/pkg/auth"
	"github.com/artisansally/ally/pkg/bind"
	"github.com/artisansally/ally/pkg/logger"
	"github.com/artisansally/ally/pkg/response"
	"github.com/artisansally/ally/pkg/session"
	"github.com/artisansally/ally/pkg/validate"
)

type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	mu     sync.RWMutex
	store  map[string]any
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{store: make(map[string]any)} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	for k := range c.store {
		delete(c.store, k)
	}
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

func (c *Context) Param(key string) string { return chi.URLParam(c.R, key) }

// ParamUint parses a numeric path parameter. ok is false for anything that
// is not a positive integer.
func (c *Context) ParamUint(key string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func (c *Context) Query(key string) string { return c.R.URL.Query().Get(key) }

// DefaultQuery returns a query-string value, or def if it is empty.
func (c *Context) DefaultQuery(key, def string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return def
}

func (c *Context) Header(key string) string { return c.R.Header.Get(key) }

func (c *Context) Context() context.Context { return c.R.Context() }

// Log returns the request-scoped logger.
func (c *Context) Log() *slog.Logger { return logger.WithCtx(c.R.Context()) }

// UserID is the signed-in user set by middleware.RequireLogin.
func (c *Context) UserID() uint {
	id, _ := auth.UserID(c.R.Context())
	return id
}

// Session returns the cookie session loaded by session.Middleware.
func (c *Context) Session() *session.Session { return session.FromCtx(c.R) }

// SaveSession persists the session and sets its cookie. It must run before
// the response body is written.
func (c *Context) SaveSession() error {
	s := c.Session()
	if s == nil {
		return errors.New("ctx: no session middleware")
	}
	return s.Save(c.Context(), c.W)
}

// ─── Per-request store ────────────────────────────────────────────────────────

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	c.store[key] = val
	c.mu.Unlock()
}

func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	v, ok := c.store[key]
	c.mu.RUnlock()
	return v, ok
}

// ─── Binding ──────────────────────────────────────────────────────────────────

// BindJSON decodes and validates the body into dest. A malformed body or a
// failed rule gets a 400 (rule failures carry the per-field "errors" map);
// either way the response is sent and false returned.
//
//	var in RegisterInput
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid request body")
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// DecodeJSON decodes without validation. Handlers that reproduce a specific
// error message for missing fields use it and check fields themselves.
func (c *Context) DecodeJSON(dest any) bool {
	if err := json.NewDecoder(c.R.Body).Decode(dest); err != nil {
		return false
	}
	return true
}

// ─── Responses ────────────────────────────────────────────────────────────────

func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

// Message sends {"message": msg}.
func (c *Context) Message(code int, msg string) {
	c.JSON(code, map[string]string{"message": msg})
}

func (c *Context) Error(code int, message string) {
	c.JSON(code, response.ErrorBody{Status: code, Error: message})
}

// ErrorDetails sends an error with an upstream payload or message attached.
func (c *Context) ErrorDetails(code int, message string, details any) {
	c.JSON(code, response.ErrorBody{Status: code, Error: message, Details: details})
}

func (c *Context) ValidationError(errs map[string]string) {
	c.JSON(http.StatusBadRequest, response.ErrorBody{
		Status: http.StatusBadRequest,
		Error:  "Validation failed",
		Fields: errs,
	})
}

func (c *Context) Unauthorized(message ...string) {
	c.Error(http.StatusUnauthorized, first(message, "Authentication required"))
}

func (c *Context) Forbidden(message ...string) {
	c.Error(http.StatusForbidden, first(message, "Forbidden"))
}

func (c *Context) NotFound(message ...string) {
	c.Error(http.StatusNotFound, first(message, "Not found"))
}

// ServerError logs err and sends a generic 500 with message.
func (c *Context) ServerError(message string, err error) {
	c.Log().Error(message, "error", err)
	c.Error(http.StatusInternalServerError, message)
}

func (c *Context) Status(code int) {
	c.status = code
	c.W.WriteHeader(code)
}

func (c *Context) Redirect(code int, url string) {
	c.status = code
	http.Redirect(c.W, c.R, url, code)
}

func (c *Context) String(code int, format string, args ...any) {
	c.W.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.Status(code)
	fmt.Fprintf(c.W, format, args...)
}

// WrittenStatus is the status sent so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }

func first(s []string, def string) string {
	if len(s) > 0 {
		return s[0]
	}
	return def
}
