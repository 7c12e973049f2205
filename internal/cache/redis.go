package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/billbuddy/billbuddy/internal/engine"
)

// Ensure RedisCache implements BalanceCache
var _ BalanceCache = (*RedisCache)(nil)

// RedisConfig is the redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache implements BalanceCache on redis, for deployments running more
// than one server instance. Each group's summaries live in one hash keyed by
// member and direction, so invalidation is a single DEL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a redis-backed balance cache with the given TTL.
func NewRedisCache(config RedisConfig, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     config.Addr,
			Password: config.Password,
			DB:       config.DB,
		}),
		ttl: ttl,
	}
}

func groupKey(groupID string) string {
	return "balances:" + groupID
}

func (c *RedisCache) Get(ctx context.Context, groupID, memberID string, dir engine.Direction) (*engine.BalanceSummary, bool) {
	val, err := c.client.HGet(ctx, groupKey(groupID), entryField(memberID, dir)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("balance cache read failed", "group_id", groupID, "error", err)
		return nil, false
	}

	var summary engine.BalanceSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		slog.Warn("balance cache entry corrupt", "group_id", groupID, "error", err)
		return nil, false
	}
	return &summary, true
}

func (c *RedisCache) Set(ctx context.Context, groupID, memberID string, dir engine.Direction, summary *engine.BalanceSummary) {
	value, err := json.Marshal(summary)
	if err != nil {
		slog.Warn("balance cache encode failed", "group_id", groupID, "error", err)
		return
	}

	key := groupKey(groupID)
	if err := c.client.HSet(ctx, key, entryField(memberID, dir), value).Err(); err != nil {
		slog.Warn("balance cache write failed", "group_id", groupID, "error", err)
		return
	}
	// TTL rides on the whole hash; a lost invalidation expires with it.
	if err := c.client.Expire(ctx, key, c.ttl).Err(); err != nil {
		slog.Warn("balance cache expire failed", "group_id", groupID, "error", err)
	}
}

func (c *RedisCache) InvalidateGroup(ctx context.Context, groupID string) {
	if err := c.client.Del(ctx, groupKey(groupID)).Err(); err != nil {
		slog.Warn("balance cache invalidation failed", "group_id", groupID, "error", err)
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
