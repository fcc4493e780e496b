// Package app boots the Ally process: configuration, logging, database,
// cache, storage and mail, then the HTTP kernel.
//
//	a := app.New().Routes(routes.RegisterAPI)
//	if err := a.Boot(); err != nil {
//	    return err
//	}
//	return a.Serve(ctx)
//
// cmd/ally wraps these calls in cobra commands.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/artisansally/ally/config"
	"github.com/artisansally/ally/internal/server"
	"github.com/artisansally/ally/pkg/cache"
	"github.com/artisansally/ally/pkg/database"
	"github.com/artisansally/ally/pkg/logger"
	"github.com/artisansally/ally/pkg/mail"
	"github.com/artisansally/ally/pkg/router"
	"github.com/artisansally/ally/pkg/storage"
)

// Application collects route registrations and owns process start-up.
type Application struct {
	routesFns []func(*router.Router)
}

func New() *Application {
	return &Application{}
}

// Routes adds a route-registration callback. Callbacks run in order when
// the kernel is built.
func (a *Application) Routes(fn func(*router.Router)) *Application {
	a.routesFns = append(a.routesFns, fn)
	return a
}

// BootDB loads config and connects the database only. Migrations and seeders
// need nothing else.
func BootDB() error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return database.Connect()
}

// Boot connects every backing service the HTTP server needs. Optional
// services (the Mongo log sink) only warn when unreachable.
func (a *Application) Boot() error {
	if err := BootDB(); err != nil {
		return err
	}
	if uri := config.LogMongoURI(); uri != "" {
		if err := logger.EnableMongo(uri); err != nil {
			logger.Warn("mongo log sink disabled", "error", err)
		}
	}
	if err := cache.Connect(); err != nil {
		return err
	}
	storage.Connect()
	mail.Use(mail.FromConfig())

	logger.Info("application booted",
		"env", config.AppEnv(),
		"db", config.DatabaseDriver(),
		"mail", mail.Current().Name(),
		"storage", config.StorageDefault(),
	)
	return nil
}

// Handler builds the HTTP kernel.
func (a *Application) Handler() http.Handler {
	return buildHandler(a).Handler()
}

// Serve listens on APP_PORT until ctx is cancelled, then drains in-flight
// requests.
func (a *Application) Serve(ctx context.Context) error {
	defer logger.Close()
	return server.Run(ctx, ":"+config.AppPort(), a.Handler())
}

// RouteList returns every registered route without booting anything.
func (a *Application) RouteList() []router.Route {
	r := router.New()
	for _, fn := range a.routesFns {
		fn(r)
	}
	return r.Routes()
}
