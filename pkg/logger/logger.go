// Package logger provides the structured, levelled application logger built
// on log/slog.
//
// WithCtx returns the per-request logger (tagged with request_id by the
// Logger middleware), so every line a handler writes is correlated:
//
//	log := logger.WithCtx(r.Context())
//	log.Warn("ebay search failed", "query", q, "error", err)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/artisansally/ally/config"
)

var L *slog.Logger

// sink is the optional MongoDB handler; nil unless EnableMongo succeeded.
var sink *MongoHandler

func init() {
	L = slog.New(baseHandler(os.Stdout))
	slog.SetDefault(L)
}

func baseHandler(w io.Writer) slog.Handler {
	if config.IsProduction() {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// EnableMongo ships WARN and ERROR records to MongoDB in addition to stdout.
// Upstream integration failures are logged at WARN/ERROR, so this collection
// doubles as the integration audit trail.
func EnableMongo(uri string) error {
	h, err := NewMongoHandler(uri, "ally", "logs", slog.LevelWarn)
	if err != nil {
		return err
	}
	sink = h
	L = slog.New(NewMultiHandler(baseHandler(os.Stdout), h))
	slog.SetDefault(L)
	return nil
}

// Close flushes the Mongo sink if one is active.
func Close() {
	if sink != nil {
		sink.Close()
	}
}

// SetOutput redirects the base logger. Tests use it to silence output.
func SetOutput(w io.Writer) {
	L = slog.New(baseHandler(w))
	slog.SetDefault(L)
}

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the request-scoped logger stored by InjectLogger, or the
// base logger when ctx carries none.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }

// LevelFor maps an HTTP status to the level its access line is logged at.
func LevelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
