// Package cache is the shared key/value store behind sessions and the eBay
// application-token cache. Redis is used when REDIS_ADDR is set; otherwise
// values live in process memory, which is fine for a single instance.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/artisansally/ally/config"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store is a byte-oriented TTL store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Default is the process-wide store. It starts as a memory store so tests and
// the CLI work without calling Connect.
var Default Store = NewMemory()

// Connect selects the backing store from config. With Redis configured the
// connection is verified with a ping and a failure is returned to the caller.
func Connect() error {
	addr := config.RedisAddr()
	if addr == "" {
		Default = NewMemory()
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.RedisPassword(),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("cache: redis ping: %w", err)
	}

	Default = NewRedis(rdb)
	return nil
}

// Get decodes the JSON value under key into dest. It reports false on a miss
// or on any decode/transport error.
func Get(ctx context.Context, key string, dest interface{}) bool {
	raw, err := Default.Get(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// Set JSON-encodes value and stores it for ttl.
func Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return Default.Set(ctx, key, data, ttl)
}

// Del removes one or more keys.
func Del(ctx context.Context, keys ...string) error {
	return Default.Del(ctx, keys...)
}
