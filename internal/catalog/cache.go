package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"mediashelf/internal/model"
	"mediashelf/internal/repository"
)

const (
	// CachePrefix is the key prefix for cached media records
	CachePrefix = "catalog:media:"

	// CacheTTL is how long a cached record stays valid (24 hours)
	CacheTTL = 24 * time.Hour
)

// Cache resolves media records by id, batched. It is the read boundary the
// feed core uses for media metadata; the external catalog fetch lives behind
// the repository.
type Cache interface {
	// ResolveMany resolves records for the distinct ids given, one redis
	// round trip for hits plus one DB round trip for misses. Unknown ids are
	// simply absent from the result.
	ResolveMany(ctx context.Context, ids []int64) (map[int64]model.MediaRecord, error)
}

// RedisCache implements Cache with a redis read-through over MediaRepository.
type RedisCache struct {
	client    *redis.Client
	mediaRepo repository.MediaRepository
}

func NewCache(client *redis.Client, mediaRepo repository.MediaRepository) Cache {
	return &RedisCache{client: client, mediaRepo: mediaRepo}
}

func mediaKey(id int64) string {
	return fmt.Sprintf("%s%d", CachePrefix, id)
}

func (c *RedisCache) ResolveMany(ctx context.Context, ids []int64) (map[int64]model.MediaRecord, error) {
	result := make(map[int64]model.MediaRecord, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	// Batched cache read via pipeline
	pipe := c.client.Pipeline()
	cmds := make(map[int64]*redis.StringCmd, len(ids))
	for _, id := range ids {
		cmds[id] = pipe.Get(ctx, mediaKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		// Cache unavailable: fall through to the DB for everything
		log.Printf("[CatalogCache] Pipeline read failed, falling back to DB: %v", err)
		return c.mediaRepo.GetByIDs(ctx, ids)
	}

	var misses []int64
	for id, cmd := range cmds {
		data, err := cmd.Bytes()
		if err == redis.Nil {
			misses = append(misses, id)
			continue
		}
		if err != nil {
			misses = append(misses, id)
			continue
		}
		var record model.MediaRecord
		if err := json.Unmarshal(data, &record); err != nil {
			log.Printf("[CatalogCache] Corrupt cache entry for media=%d: %v", id, err)
			misses = append(misses, id)
			continue
		}
		result[id] = record
	}

	if len(misses) == 0 {
		return result, nil
	}

	// Miss path: one batched DB read, then write back with TTL
	records, err := c.mediaRepo.GetByIDs(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("resolve media misses: %w", err)
	}

	writeback := c.client.Pipeline()
	for id, record := range records {
		result[id] = record
		data, err := json.Marshal(record)
		if err != nil {
			continue
		}
		writeback.Set(ctx, mediaKey(id), data, CacheTTL)
	}
	if _, err := writeback.Exec(ctx); err != nil {
		// Write-back failure is not fatal; the records are already resolved
		log.Printf("[CatalogCache] Write-back failed: %v", err)
	}

	log.Printf("[CatalogCache] ResolveMany OK: requested=%d hits=%d misses=%d",
		len(ids), len(ids)-len(misses), len(misses))

	return result, nil
}
