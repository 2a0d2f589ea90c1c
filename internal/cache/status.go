package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sanction-Guard/sanctionguard/pkg/models"
	"github.com/Sanction-Guard/sanctionguard/pkg/tracing"
)

const statusKey = "screening:search_status"

// StatusCache keeps the computed search status hot for a short window so
// status polling doesn't hit the index and database on every request.
// A nil StatusCache is valid and disables caching.
type StatusCache struct {
	client *Client
	ttl    time.Duration
}

// NewStatusCache creates a status cache with the given TTL.
func NewStatusCache(client *Client, ttl time.Duration) *StatusCache {
	return &StatusCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached status, or nil on a miss. Cache failures degrade to
// a miss rather than failing the request.
func (c *StatusCache) Get(ctx context.Context) *models.SearchStatus {
	if c == nil || c.client == nil {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "cache.StatusCache.Get")
	defer span.End()

	raw, err := c.client.Get(ctx, statusKey)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.client.logger.WithContext(ctx).WithError(err).Warn("Failed to read search status from cache")
		}
		return nil
	}

	var status models.SearchStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		c.client.logger.WithContext(ctx).WithError(err).Warn("Failed to decode cached search status")
		return nil
	}
	return &status
}

// Set stores the status for the configured TTL. Failures are logged and
// swallowed.
func (c *StatusCache) Set(ctx context.Context, status models.SearchStatus) {
	if c == nil || c.client == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "cache.StatusCache.Set")
	defer span.End()

	raw, err := json.Marshal(status)
	if err != nil {
		c.client.logger.WithContext(ctx).WithError(err).Warn("Failed to encode search status for cache")
		return
	}
	if err := c.client.Set(ctx, statusKey, raw, c.ttl); err != nil {
		c.client.logger.WithContext(ctx).WithError(err).Warn("Failed to write search status to cache")
	}
}

// Invalidate drops the cached status. Called after ingestion batches so the
// next poll reflects the new record count promptly.
func (c *StatusCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, statusKey); err != nil {
		c.client.logger.WithContext(ctx).WithError(err).Warn("Failed to invalidate cached search status")
	}
}
