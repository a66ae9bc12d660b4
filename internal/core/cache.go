// Package core provides the repository ports and shared business helpers for the site.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
)

// CacheRepository defines the interface for caching operations.
// This follows the hexagonal architecture pattern where the core defines interfaces
// and the data layer provides implementations.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key from the cache.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}

const catalogCacheKey = "catalog:all"

// CatalogCache keeps the full public listing in the shared cache so catalog
// page views do not hit Postgres. Writes invalidate it.
type CatalogCache struct {
	cache  CacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

// CatalogCacheOptions bundles dependencies for NewCatalogCache.
type CatalogCacheOptions struct {
	Cache  CacheRepository
	TTL    time.Duration
	Logger *slog.Logger
}

// NewCatalogCache creates a CatalogCache. A nil Cache yields a cache that always misses.
func NewCatalogCache(opts CatalogCacheOptions) *CatalogCache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogCache{cache: opts.Cache, ttl: ttl, logger: logger.With("component", "catalog_cache")}
}

// Get returns the cached listing, or nil on a miss. Cache failures count as misses.
func (c *CatalogCache) Get(ctx context.Context) []*model.Property {
	if c == nil || c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, catalogCacheKey)
	if err != nil {
		c.logger.WarnContext(ctx, "catalog cache read failed", "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var props []*model.Property
	if err := json.Unmarshal(raw, &props); err != nil {
		c.logger.WarnContext(ctx, "catalog cache decode failed", "error", err)
		return nil
	}
	return props
}

// Set stores the listing.
func (c *CatalogCache) Set(ctx context.Context, props []*model.Property) error {
	if c == nil || c.cache == nil {
		return nil
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := c.cache.Set(ctx, catalogCacheKey, raw, c.ttl); err != nil {
		return fmt.Errorf("cache catalog: %w", err)
	}
	return nil
}

// Invalidate drops the cached listing. Failures are logged; the TTL bounds staleness.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if c == nil || c.cache == nil {
		return
	}
	if _, err := c.cache.Delete(ctx, catalogCacheKey); err != nil {
		c.logger.WarnContext(ctx, "catalog cache invalidate failed", "error", err)
	}
}
