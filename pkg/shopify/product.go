package shopify

import (
	"context"
	"fmt"
)

const productSummaryQuery = `query ProductSummary($id: ID!) {
  product(id: $id) {
    id
    title
    featuredImage {
      url
    }
  }
}`

// Product is the slice of catalog data shown next to a note.
type Product struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

type productSummaryData struct {
	Product *struct {
		ID            string `json:"id"`
		Title         string `json:"title"`
		FeaturedImage *struct {
			URL string `json:"url"`
		} `json:"featuredImage"`
	} `json:"product"`
}

// GetProduct fetches title and featured image for one product.
// A product the API reports as null yields ErrProductNotFound.
func (c *Client) GetProduct(ctx context.Context, shop, productID string) (*Product, error) {
	data, err := execute[productSummaryData](ctx, c, shop, productSummaryQuery, map[string]interface{}{
		"id": productID,
	})
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	if data.Product == nil {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}

	p := &Product{
		ID:    data.Product.ID,
		Title: data.Product.Title,
	}
	if data.Product.FeaturedImage != nil {
		p.ImageURL = data.Product.FeaturedImage.URL
	}
	return p, nil
}
