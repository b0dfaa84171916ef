package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/routinez-api/internal/models"
	appErrors "github.com/noah-isme/routinez-api/pkg/errors"
)

const snapshotCacheKey = "routinez:catalog:snapshot"

// cachedSnapshot is the Redis wire form of a snapshot; the per-course
// index is rebuilt on read.
type cachedSnapshot struct {
	FetchedAt time.Time        `json:"fetchedAt"`
	Sections  []models.Section `json:"sections"`
}

// RedisCache stores the latest snapshot in Redis so multiple instances
// share one upstream fetch.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context) (*models.Snapshot, error) {
	if c.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	raw, err := c.client.Get(ctx, snapshotCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", snapshotCacheKey, err)
	}

	var cached cachedSnapshot
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("unmarshal cached snapshot: %w", err)
	}
	return models.NewSnapshot(cached.FetchedAt, cached.Sections), nil
}

// InstrumentCache reports every lookup outcome to observe. A nil
// observe returns the cache unchanged.
func InstrumentCache(inner Cache, observe func(hit bool)) Cache {
	if observe == nil {
		return inner
	}
	return &instrumentedCache{inner: inner, observe: observe}
}

type instrumentedCache struct {
	inner   Cache
	observe func(hit bool)
}

func (c *instrumentedCache) Get(ctx context.Context) (*models.Snapshot, error) {
	snapshot, err := c.inner.Get(ctx)
	c.observe(err == nil && snapshot != nil)
	return snapshot, err
}

func (c *instrumentedCache) Set(ctx context.Context, snapshot *models.Snapshot) error {
	return c.inner.Set(ctx, snapshot)
}

func (c *RedisCache) Set(ctx context.Context, snapshot *models.Snapshot) error {
	if c.client == nil || snapshot == nil {
		return nil
	}

	payload, err := json.Marshal(cachedSnapshot{
		FetchedAt: snapshot.FetchedAt,
		Sections:  snapshot.Sections,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot for cache: %w", err)
	}
	if err := c.client.Set(ctx, snapshotCacheKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", snapshotCacheKey, err)
	}
	return nil
}
