package productcache

import (
	"context"
	"time"

	"product-notes-be/pkg/shopify"

	"github.com/patrickmn/go-cache"
)

type MemoryCache struct {
	cache *cache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (m *MemoryCache) Get(ctx context.Context, key string) (*shopify.Product, bool) {
	if x, found := m.cache.Get(key); found {
		p := *x.(*shopify.Product)
		return &p, true
	}
	return nil, false
}

func (m *MemoryCache) Set(ctx context.Context, key string, product *shopify.Product) error {
	p := *product
	m.cache.Set(key, &p, cache.DefaultExpiration)
	return nil
}
