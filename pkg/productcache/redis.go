package productcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"product-notes-be/pkg/shopify"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares product summaries between replicas.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// NewRedisClient accepts either a redis:// URL or a bare host:port.
func NewRedisClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	return redis.NewClient(opt)
}

func (r *RedisCache) Get(ctx context.Context, key string) (*shopify.Product, bool) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil and connection errors alike fall back to the catalog.
		return nil, false
	}
	var p shopify.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (r *RedisCache) Set(ctx context.Context, key string, product *shopify.Product) error {
	b, err := json.Marshal(product)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
