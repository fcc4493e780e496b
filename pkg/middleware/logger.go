package middleware

import (
	"net/http"
	"time"

	"github.com/artisansally/ally/pkg/logger"
	"github.com/artisansally/ally/pkg/reqid"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Logger injects a request_id-tagged logger into the context and writes one
// access line per request. reqid.Middleware must run first.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.L.With("request_id", reqid.FromCtx(r.Context()))
		r = r.WithContext(logger.InjectLogger(r.Context(), log))

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		level := logger.LevelFor(sw.status)
		log.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start).String(),
			"ip", clientIP(r),
		)
	})
}
