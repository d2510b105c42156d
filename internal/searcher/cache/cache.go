// Package cache stores ranked search results in Redis. Concurrent misses for
// the same key are collapsed with singleflight, and Redis failures trip a
// circuit breaker so searches fall back to the index without waiting on a
// sick cache.
//
// The invalidation generation is held per process. Replicas may share one
// key prefix only when every mutation reaches all of them through the
// ingest feed; a replica that accepts direct writes needs its own prefix.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/resilience"
)

// DefaultKeyPrefix namespaces cached results when the config leaves it empty.
const DefaultKeyPrefix = "search:"

// Backend is the subset of the Redis client the cache uses.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Key identifies a cached result: the canonical query plus the status
// filter.
type Key struct {
	Query  *parser.Query
	Status index.Status
}

type QueryCache struct {
	backend    Backend
	prefix     string
	ttl        time.Duration
	breaker    *resilience.CircuitBreaker
	group      singleflight.Group
	generation atomic.Uint64
	logger     *slog.Logger
	hits       atomic.Int64
	misses     atomic.Int64
}

func New(backend Backend, cfg config.RedisConfig, breaker *resilience.CircuitBreaker) *QueryCache {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{})
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &QueryCache{
		backend: backend,
		prefix:  prefix,
		ttl:     cfg.CacheTTL,
		breaker: breaker,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, k Key) ([]index.Document, bool) {
	return c.get(ctx, c.buildKey(k))
}

func (c *QueryCache) get(ctx context.Context, key string) ([]index.Document, bool) {
	var data string
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.backend.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			return nil
		}
		return err
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	if data == "" {
		c.misses.Add(1)
		return nil, false
	}
	var docs []index.Document
	if err := json.Unmarshal([]byte(data), &docs); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key)
	return docs, true
}

func (c *QueryCache) Set(ctx context.Context, k Key, docs []index.Document) {
	c.set(ctx, c.buildKey(k), docs)
}

func (c *QueryCache) set(ctx context.Context, key string, docs []index.Document) {
	data, err := json.Marshal(docs)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.backend.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for k or computes, stores and
// returns it. The bool reports a cache hit. Compute errors are not cached.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	k Key,
	computeFn func() ([]index.Document, error),
) ([]index.Document, bool, error) {
	key := c.buildKey(k)
	if docs, ok := c.get(ctx, key); ok {
		return docs, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		docs, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, docs)
		return docs, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]index.Document), false, nil
}

// Invalidate retires every cached result. The generation bump takes effect
// at once, so a result computed before a mutation and stored after it is
// never served; the flush only reclaims space.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	gen := c.generation.Add(1)
	var deleted int64
	err := c.breaker.Execute(func() error {
		var err error
		deleted, err = c.backend.FlushByPattern(ctx, c.prefix+"*")
		return err
	})
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Debug("cache invalidated", "generation", gen, "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) buildKey(k Key) string {
	raw := fmt.Sprintf("%s|status=%s", k.Query.Key(), k.Status)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%d:%x", c.prefix, c.generation.Load(), hash[:16])
}
