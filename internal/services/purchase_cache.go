package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PurchaseCache keeps pending-purchase context in a redis hash keyed by
// payment intent, with a TTL. It is an optimization only: phase 2 falls
// back to the intent's own metadata when the hash is gone.
type PurchaseCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewPurchaseCache(redisClient *redis.Client, ttl time.Duration) *PurchaseCache {
	return &PurchaseCache{Redis: redisClient, TTL: ttl}
}

func purchaseKey(intentID string) string {
	return fmt.Sprintf("purchase:%s", intentID)
}

func (c *PurchaseCache) Store(ctx context.Context, intentID string, pc *PurchaseContext) error {
	key := purchaseKey(intentID)

	fields := make(map[string]any)
	for k, v := range pc.ToMetadata() {
		fields[k] = v
	}
	if err := c.Redis.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("purchase cache: store %s: %w", intentID, err)
	}
	if err := c.Redis.Expire(ctx, key, c.TTL).Err(); err != nil {
		return fmt.Errorf("purchase cache: expire %s: %w", intentID, err)
	}
	return nil
}

// Fetch returns the cached context, or (nil, nil) when the key has
// expired or never existed.
func (c *PurchaseCache) Fetch(ctx context.Context, intentID string) (*PurchaseContext, error) {
	data, err := c.Redis.HGetAll(ctx, purchaseKey(intentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("purchase cache: fetch %s: %w", intentID, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	pc, err := ContextFromMetadata(data)
	if err != nil {
		return nil, nil
	}
	return pc, nil
}

func (c *PurchaseCache) Delete(ctx context.Context, intentID string) {
	c.Redis.Del(ctx, purchaseKey(intentID))
}
