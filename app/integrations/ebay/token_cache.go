package ebay

import (
	"context"
	"sync"
	"time"

	"github.com/artisansally/ally/pkg/cache"
)

// TokenCache holds the application access token between requests.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, token string, ttl time.Duration)
}

// MemoryTokenCache keeps tokens in process memory.
type MemoryTokenCache struct {
	mu      sync.Mutex
	entries map[string]memoryToken
	now     func() time.Time
}

type memoryToken struct {
	value   string
	expires time.Time
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{entries: map[string]memoryToken{}, now: time.Now}
}

func (c *MemoryTokenCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		delete(c.entries, key)
		return "", false
	}
	return e.value, true
}

func (c *MemoryTokenCache) Set(_ context.Context, key, token string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryToken{value: token, expires: c.now().Add(ttl)}
}

// SharedTokenCache stores tokens in the application cache, so every process
// behind the same Redis reuses one token.
type SharedTokenCache struct {
	prefix string
}

func NewSharedTokenCache() *SharedTokenCache {
	return &SharedTokenCache{prefix: "ally:ebay:"}
}

func (c *SharedTokenCache) Get(ctx context.Context, key string) (string, bool) {
	var token string
	if !cache.Get(ctx, c.prefix+key, &token) || token == "" {
		return "", false
	}
	return token, true
}

func (c *SharedTokenCache) Set(ctx context.Context, key, token string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	_ = cache.Set(ctx, c.prefix+key, token, ttl)
}
