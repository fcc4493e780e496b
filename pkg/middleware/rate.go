// Package middleware holds the HTTP middleware chain.
package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/artisansally/ally/pkg/response"
)

type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window request counter keyed by client IP.
type Limiter struct {
	mu      sync.Mutex
	max     int
	period  time.Duration
	windows map[string]*window
	now     func() time.Time
}

func NewLimiter(max int, period time.Duration) *Limiter {
	return &Limiter{max: max, period: period, windows: map[string]*window{}, now: time.Now}
}

// Allow counts one request for key and reports whether it is within budget.
// Expired windows are swept opportunistically.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.windows) > 10_000 {
		for k, w := range l.windows {
			if now.After(w.resetAt) {
				delete(l.windows, k)
			}
		}
	}

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(l.period)}
		l.windows[key] = w
	}
	w.count++
	return w.count <= l.max
}

// RateLimit answers 429 once a client exceeds the limiter's budget.
func RateLimit(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(clientIP(r)) {
				response.TooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
