// Package redis implements Redis caching for the skill progress hub.
// Its single responsibility is the learning-resource catalog: the last
// good catalog payload is cached with a TTL so dashboards keep serving
// recommendations while the upstream catalog is slow or down.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/recommend"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Host is the Redis server hostname.
	Host string

	// Port is the Redis server port.
	Port int

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int

	// MaxRetries is the maximum number of retries before giving up.
	MaxRetries int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewClient creates a configured Redis client and verifies connectivity.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to ping: %w", err)
	}
	return client, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCacheMiss is returned when the requested key is not found in cache.
	ErrCacheMiss = errors.New("catalog_cache: key not found")

	// ErrCacheSerialization is returned when serialization/deserialization fails.
	ErrCacheSerialization = errors.New("catalog_cache: serialization failed")
)

// Key prefixes for namespacing Redis keys.
const (
	// PrefixCatalog is the prefix for catalog payload keys.
	PrefixCatalog = "catalog:"

	// keyEntries holds the full normalized catalog in catalog order.
	keyEntries = PrefixCatalog + "entries"

	// keyFetchedAt holds the time of the last successful refresh.
	keyFetchedAt = PrefixCatalog + "fetched_at"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG CACHE
// ══════════════════════════════════════════════════════════════════════════════

// CatalogCache stores the last good catalog payload with a TTL.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a catalog cache. A non-positive TTL falls back
// to one hour.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CatalogCache{client: client, ttl: ttl}
}

// Get returns the cached catalog, or ErrCacheMiss when absent or expired.
// Entries come back in catalog order.
func (c *CatalogCache) Get(ctx context.Context) ([]recommend.CatalogEntry, error) {
	data, err := c.client.Get(ctx, keyEntries).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("catalog_cache: get: %w", err)
	}

	var entries []recommend.CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return entries, nil
}

// Set replaces the cached catalog and stamps the refresh time.
func (c *CatalogCache) Set(ctx context.Context, entries []recommend.CatalogEntry, fetchedAt time.Time) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, keyEntries, data, c.ttl)
	pipe.Set(ctx, keyFetchedAt, fetchedAt.UTC().Format(time.RFC3339), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("catalog_cache: set: %w", err)
	}
	return nil
}

// FetchedAt returns when the cached catalog was last refreshed.
func (c *CatalogCache) FetchedAt(ctx context.Context) (time.Time, error) {
	raw, err := c.client.Get(ctx, keyFetchedAt).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, ErrCacheMiss
		}
		return time.Time{}, fmt.Errorf("catalog_cache: fetched_at: %w", err)
	}

	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return at, nil
}

// Invalidate drops the cached catalog.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, keyEntries, keyFetchedAt).Err(); err != nil {
		return fmt.Errorf("catalog_cache: invalidate: %w", err)
	}
	return nil
}
