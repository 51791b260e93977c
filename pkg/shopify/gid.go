package shopify

import (
	"fmt"
	"strings"
)

// NumericID returns the trailing segment of a GID such as
// "gid://shopify/Product/123". Plain ids are returned unchanged.
func NumericID(gid string) string {
	gid = strings.TrimSpace(gid)
	if i := strings.LastIndex(gid, "/"); i >= 0 {
		return gid[i+1:]
	}
	return gid
}

// ShopName strips the ".myshopify.com" suffix from a shop domain.
func ShopName(shop string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(shop)), ".myshopify.com")
}

// AdminProductURL links to the product page in the Shopify admin.
func AdminProductURL(shop, productID string) string {
	id := NumericID(productID)
	if shop == "" || id == "" {
		return ""
	}
	return fmt.Sprintf("https://admin.shopify.com/store/%s/products/%s", ShopName(shop), id)
}
