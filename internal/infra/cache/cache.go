// Package cache holds read-through caches for comment bodies.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	gocache "github.com/patrickmn/go-cache"
)

// Cache stores string values. Misses and backend failures look the same to
// callers: the value is simply fetched again.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
	Delete(ctx context.Context, key string)
}

type Memory struct {
	cache *gocache.Cache
	ttl   time.Duration
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool) {
	v, found := m.cache.Get(key)
	if !found {
		return "", false
	}
	return v.(string), true
}

func (m *Memory) Set(ctx context.Context, key, value string) {
	m.cache.Set(key, value, m.ttl)
}

func (m *Memory) Delete(ctx context.Context, key string) {
	m.cache.Delete(key)
}

const memcachedPrefix = "issuestore:"

type Memcached struct {
	client *memcache.Client
	ttl    time.Duration
}

func NewMemcached(client *memcache.Client, ttl time.Duration) *Memcached {
	return &Memcached{client: client, ttl: ttl}
}

func (m *Memcached) Get(ctx context.Context, key string) (string, bool) {
	item, err := m.client.Get(memcachedPrefix + key)
	if err != nil {
		if err != memcache.ErrCacheMiss {
			slog.WarnContext(ctx, "memcached get failed",
				slog.String("error", err.Error()),
				slog.String("module", "cache"),
			)
		}
		return "", false
	}
	return string(item.Value), true
}

func (m *Memcached) Set(ctx context.Context, key, value string) {
	err := m.client.Set(&memcache.Item{
		Key:        memcachedPrefix + key,
		Value:      []byte(value),
		Expiration: int32(m.ttl.Seconds()),
	})
	if err != nil {
		slog.WarnContext(ctx, "memcached set failed",
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
	}
}

func (m *Memcached) Delete(ctx context.Context, key string) {
	err := m.client.Delete(memcachedPrefix + key)
	if err != nil && err != memcache.ErrCacheMiss {
		slog.WarnContext(ctx, "memcached delete failed",
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
	}
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) (string, bool) { return "", false }
func (Noop) Set(ctx context.Context, key, value string)          {}
func (Noop) Delete(ctx context.Context, key string)              {}
