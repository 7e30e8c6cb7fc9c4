package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopstack/commerce-core/internal/domain"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, owner domain.OwnerKey) (domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Cart{}, ErrCacheMiss
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("redis get: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return domain.Cart{}, fmt.Errorf("unmarshal cart: %w", err)
	}

	return cart, nil
}

func (r *RedisCache) Set(ctx context.Context, owner domain.OwnerKey, cart domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	// Jitter spreads expiries so a burst of carts does not refill at once.
	ttl := r.baseTTL + time.Duration(rand.Intn(5))*time.Minute
	if err := r.client.Set(ctx, cacheKey(owner), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, owner domain.OwnerKey) error {
	if err := r.client.Del(ctx, cacheKey(owner)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func cacheKey(owner domain.OwnerKey) string {
	return "cart:" + owner.String()
}
