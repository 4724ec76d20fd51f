package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"mediashelf/internal/model"
)

const (
	// TrendingPrefix is the key prefix for trending result snapshots
	TrendingPrefix = "trending:"

	// TrendingTTL bounds how stale a trending answer can be
	TrendingTTL = 5 * time.Minute
)

// TrendingCache stores computed trending results per (timeRange, mediaType,
// limit) so repeated reads within the TTL skip the aggregate scan. Feed pages
// are never cached (each feed call is a stateless recompute); trending is a
// viewer-independent aggregate, so a short snapshot is safe.
type TrendingCache interface {
	Get(ctx context.Context, key string) ([]model.TrendingMedia, bool, error)
	Set(ctx context.Context, key string, items []model.TrendingMedia) error
	// Invalidate drops all trending snapshots. Called by workers when
	// activity is created or deleted.
	Invalidate(ctx context.Context) error
}

// RedisTrendingCache implements TrendingCache with JSON values under a
// shared prefix.
type RedisTrendingCache struct {
	client *redis.Client
}

func NewTrendingCache(client *redis.Client) TrendingCache {
	return &RedisTrendingCache{client: client}
}

// Key builds the snapshot key for a trending query.
func Key(timeRange model.TimeRange, mediaType *string, limit int) string {
	mt := "all"
	if mediaType != nil {
		mt = *mediaType
	}
	return fmt.Sprintf("%s%s:%s:%d", TrendingPrefix, timeRange, mt, limit)
}

func (c *RedisTrendingCache) Get(ctx context.Context, key string) ([]model.TrendingMedia, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("trending cache get: %w", err)
	}

	var items []model.TrendingMedia
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("[TrendingCache] Corrupt snapshot key=%s: %v", key, err)
		return nil, false, nil
	}
	return items, true, nil
}

func (c *RedisTrendingCache) Set(ctx context.Context, key string, items []model.TrendingMedia) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal trending snapshot: %w", err)
	}
	if err := c.client.Set(ctx, key, data, TrendingTTL).Err(); err != nil {
		return fmt.Errorf("trending cache set: %w", err)
	}
	return nil
}

// Invalidate scans for snapshot keys and deletes them. The key space is tiny
// (a handful of range/type/limit combinations), so SCAN is cheap here.
func (c *RedisTrendingCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, TrendingPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("trending cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("trending cache del: %w", err)
	}
	log.Printf("[TrendingCache] Invalidated %d snapshots", len(keys))
	return nil
}
