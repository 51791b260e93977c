package productcache

import (
	"context"
	"fmt"

	"product-notes-be/pkg/shopify"
)

// Cache holds product summaries for a short TTL so that repeated list
// requests do not refetch the same catalog data.
type Cache interface {
	Get(ctx context.Context, key string) (*shopify.Product, bool)
	Set(ctx context.Context, key string, product *shopify.Product) error
}

// Catalog is anything that can fetch a product summary, usually *shopify.Client.
type Catalog interface {
	GetProduct(ctx context.Context, shop, productID string) (*shopify.Product, error)
}

func Key(shop, productID string) string {
	return fmt.Sprintf("product:%s:%s", shop, productID)
}

// CachedCatalog is a read-through decorator over a Catalog. Failed lookups
// are not cached.
type CachedCatalog struct {
	catalog Catalog
	cache   Cache
}

func NewCachedCatalog(catalog Catalog, cache Cache) *CachedCatalog {
	return &CachedCatalog{catalog: catalog, cache: cache}
}

func (c *CachedCatalog) GetProduct(ctx context.Context, shop, productID string) (*shopify.Product, error) {
	key := Key(shop, productID)
	if p, ok := c.cache.Get(ctx, key); ok {
		return p, nil
	}

	p, err := c.catalog.GetProduct(ctx, shop, productID)
	if err != nil {
		return nil, err
	}

	// A cache write failure only costs a refetch next time.
	_ = c.cache.Set(ctx, key, p)
	return p, nil
}
