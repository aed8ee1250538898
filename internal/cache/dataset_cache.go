package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/config"
	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const datasetKeyPrefix = "dataset:"

// DatasetCache keeps recently used datasets close to the API.
// A miss is reported as (nil, false, nil).
type DatasetCache interface {
	Get(ctx context.Context, id string) (*domain.Dataset, bool, error)
	Set(ctx context.Context, ds *domain.Dataset) error
	Invalidate(ctx context.Context, id string) error
	InvalidateAll(ctx context.Context) error
}

type redisDatasetCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDatasetCache struct{}

// NewDatasetCache returns a redis backed cache, or a no-op one when caching is disabled.
func NewDatasetCache(cfg config.CacheConfig) (DatasetCache, error) {
	if !cfg.Enabled {
		return &noopDatasetCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDatasetCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopDatasetCache() DatasetCache {
	return &noopDatasetCache{}
}

func datasetKey(id string) string {
	return datasetKeyPrefix + id
}

func (c *redisDatasetCache) Get(ctx context.Context, id string) (*domain.Dataset, bool, error) {
	payload, err := c.client.Get(ctx, datasetKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	ds, err := decodeDataset(payload)
	if err != nil {
		return nil, false, err
	}
	return ds, true, nil
}

func (c *redisDatasetCache) Set(ctx context.Context, ds *domain.Dataset) error {
	payload, err := encodeDataset(ds)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, datasetKey(ds.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisDatasetCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, datasetKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *redisDatasetCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, datasetKeyPrefix, scanBatchSize)
}

func (n *noopDatasetCache) Get(ctx context.Context, id string) (*domain.Dataset, bool, error) {
	return nil, false, nil
}

func (n *noopDatasetCache) Set(ctx context.Context, ds *domain.Dataset) error {
	return nil
}

func (n *noopDatasetCache) Invalidate(ctx context.Context, id string) error {
	return nil
}

func (n *noopDatasetCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func encodeDataset(ds *domain.Dataset) ([]byte, error) {
	payload, err := msgpack.Marshal(ds)
	if err != nil {
		return nil, fmt.Errorf("encode dataset cache: %w", err)
	}
	return payload, nil
}

func decodeDataset(payload []byte) (*domain.Dataset, error) {
	var ds domain.Dataset
	if err := msgpack.Unmarshal(payload, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset cache: %w", err)
	}
	return &ds, nil
}
