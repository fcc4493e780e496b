package app

import (
	"context"
	"net/http"
	"time"

	"github.com/artisansally/ally/config"
	"github.com/artisansally/ally/pkg/database"
	"github.com/artisansally/ally/pkg/metrics"
	"github.com/artisansally/ally/pkg/middleware"
	"github.com/artisansally/ally/pkg/reqid"
	"github.com/artisansally/ally/pkg/response"
	"github.com/artisansally/ally/pkg/router"
	"github.com/artisansally/ally/pkg/session"
	"github.com/artisansally/ally/pkg/storage"
)

// buildHandler installs the global middleware, the operational endpoints
// and then the application routes.
func buildHandler(a *Application) *router.Router {
	r := router.New()

	// Outermost first:
	//  1. metrics    - total latency including everything below
	//  2. recovery   - a panic becomes a 500
	//  3. request id - before anything logs
	//  4. logger     - access line tagged with request_id
	//  5. session    - cookie session from the cache store
	//  6. CORS       - allow-listed front-end origins with credentials
	//  7. rate limit - per client IP
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(session.Middleware(session.DefaultOptions()))
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(config.CORSOrigins())))
	r.Use(middleware.RateLimit(middleware.NewLimiter(200, time.Minute)))

	r.Get("/healthz", "health", healthz)
	r.Get("/metrics", "metrics", metrics.Handler())

	if d, err := storage.Use("local"); err == nil {
		if local, ok := d.(*storage.Local); ok {
			r.Mount("/storage", http.StripPrefix("/storage", http.FileServer(http.Dir(local.Root()))))
		}
	}

	for _, fn := range a.routesFns {
		fn(r)
	}
	return r
}

// healthz reports 503 when the database does not answer a ping.
func healthz(w http.ResponseWriter, r *http.Request) {
	if database.DB == nil {
		response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "database": "not connected"})
		return
	}
	sqlDB, err := database.DB.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "database": err.Error()})
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
