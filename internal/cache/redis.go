// Package cache wraps Redis for two ambient, non-authoritative concerns:
// caching the Smart Sub-sampler's per-event priority tier across instances,
// and a SETNX-based cross-instance poll-cycle lock (spec §5's "cycles must
// not overlap" rule, given teeth beyond a single process). Neither use is
// the system of record — Postgres remains that, per SPEC_FULL.md §2.2.
// Grounded on alert-service/internal/dedup.Deduplicator's Exists/Set/TTL
// idiom and alert-service/internal/ratelimit.TokenBucket's key-per-concern
// layout.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

func New(redisURL string) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Cache{client: redis.NewClient(opts)}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// tierCacheKey is the per-event sub-sampler tier cache key.
func tierCacheKey(eventID string) string {
	return fmt.Sprintf("sharpline:tier:%s", eventID)
}

// SetTier caches an event's priority tier with a TTL long enough to survive
// between polls without going stale across a commence_time boundary.
func (c *Cache) SetTier(ctx context.Context, eventID, tier string, ttl time.Duration) error {
	return c.client.Set(ctx, tierCacheKey(eventID), tier, ttl).Err()
}

// GetTier returns the cached tier for an event, or "" if absent.
func (c *Cache) GetTier(ctx context.Context, eventID string) (string, error) {
	val, err := c.client.Get(ctx, tierCacheKey(eventID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get tier: %w", err)
	}
	return val, nil
}

const cycleLockKey = "sharpline:poll:lock"

// AcquireCycleLock attempts the cross-instance poll-cycle lock via SETNX.
// Returns false without error if another instance already holds it.
func (c *Cache) AcquireCycleLock(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, cycleLockKey, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire cycle lock: %w", err)
	}
	return ok, nil
}

// ReleaseCycleLock releases the lock if still held by owner.
func (c *Cache) ReleaseCycleLock(ctx context.Context, owner string) error {
	val, err := c.client.Get(ctx, cycleLockKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cycle lock: %w", err)
	}
	if val != owner {
		return nil
	}
	return c.client.Del(ctx, cycleLockKey).Err()
}
