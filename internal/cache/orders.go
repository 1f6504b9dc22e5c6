package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyOrder = "order:%s"

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// RedisOrderCache stores order snapshots (lines included) as JSON.
type RedisOrderCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisOrderCache(rdb redis.Cmdable, ttl time.Duration) *RedisOrderCache {
	return &RedisOrderCache{rdb: rdb, ttl: ttl}
}

func OrderKey(id uuid.UUID) string {
	return fmt.Sprintf(keyOrder, id)
}

func (c *RedisOrderCache) Get(ctx context.Context, id uuid.UUID) (*models.Order, bool, error) {
	raw, err := c.rdb.Get(ctx, OrderKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var order models.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, false, fmt.Errorf("decode cached order %s: %w", id, err)
	}
	return &order, true, nil
}

func (c *RedisOrderCache) Set(ctx context.Context, order *models.Order) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, OrderKey(order.ID), raw, c.ttl).Err()
}

func (c *RedisOrderCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.rdb.Del(ctx, OrderKey(id)).Err()
}
