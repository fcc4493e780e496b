package middleware

import (
	"net/http"

	"github.com/artisansally/ally/pkg/auth"
	"github.com/artisansally/ally/pkg/response"
	"github.com/artisansally/ally/pkg/session"
)

// RequireLogin rejects requests without a signed-in session with 401 and
// otherwise puts the user id on the request context (see auth.UserID).
// session.Middleware must run earlier in the chain.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := session.FromCtx(r).GetUint(session.UserKey)
		if !ok {
			response.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), id)))
	})
}
