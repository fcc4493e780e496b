// Package reqid tags every request with an id that is echoed in the
// X-Request-ID response header and attached to each log line.
package reqid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const Header = "X-Request-ID"

type ctxKey struct{}

func New() string { return uuid.NewString() }

func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromCtx returns the request id, or "" outside a request.
func FromCtx(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Middleware reuses an inbound X-Request-ID (capped at 64 bytes) or mints one.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(Header)
			if id == "" || len(id) > 64 {
				id = New()
			}
			w.Header().Set(Header, id)
			next.ServeHTTP(w, r.WithContext(WithValue(r.Context(), id)))
		})
	}
}
