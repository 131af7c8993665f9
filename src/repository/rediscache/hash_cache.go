package rediscache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
	"github.com/redis/go-redis/v9"
)

var _ interfaces.HashCache = (*HashCache)(nil)

const HASH_KEY_PREFIX = "mtec:schedule:hash:"

// Connect returns nil when addr is empty or the server does not answer, callers then run without the cache.
func Connect(ctx context.Context, addr string) *redis.Client {
	if addr == "" {
		slog.Warn("REDIS_ADDR is not set, snapshot hash cache is disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to redis, snapshot hash cache is disabled", "err", err)
		client.Close()
		return nil
	}
	slog.Info("connected to redis", "addr", addr)
	return client
}

// HashCache keeps the last stored snapshot hash per target. A nil client makes every lookup a miss.
type HashCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewHashCache(client *redis.Client, ttl time.Duration) *HashCache {
	return &HashCache{client: client, ttl: ttl}
}

func HashKey(target entities.Target) string {
	return HASH_KEY_PREFIX + target.String()
}

func (cache *HashCache) GetHash(ctx context.Context, target entities.Target) (string, error) {
	if cache.client == nil {
		return "", nil
	}
	hash, err := cache.client.Get(ctx, HashKey(target)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cached hash of %s: %w", target, err)
	}
	return hash, nil
}

func (cache *HashCache) SetHash(ctx context.Context, target entities.Target, hash string) error {
	if cache.client == nil {
		return nil
	}
	if err := cache.client.Set(ctx, HashKey(target), hash, cache.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache hash of %s: %w", target, err)
	}
	return nil
}
