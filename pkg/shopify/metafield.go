package shopify

import (
	"context"
	"fmt"
)

const metafieldsSetMutation = `mutation MetafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields {
      id
    }
    userErrors {
      field
      message
      code
    }
  }
}`

type MetafieldsSetInput struct {
	OwnerID   string `json:"ownerId"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

type metafieldsSetData struct {
	MetafieldsSet struct {
		UserErrors []UserError `json:"userErrors"`
	} `json:"metafieldsSet"`
}

// SetProductNoteMetafield writes the note onto the product's configured
// metafield, replacing any previous value.
func (c *Client) SetProductNoteMetafield(ctx context.Context, shop, productID, note string) error {
	ns, key := c.cfg.MetafieldNS, c.cfg.MetafieldKey
	if ns == "" {
		ns = "custom"
	}
	if key == "" {
		key = "product_note"
	}

	data, err := execute[metafieldsSetData](ctx, c, shop, metafieldsSetMutation, map[string]interface{}{
		"metafields": []MetafieldsSetInput{
			{
				OwnerID:   productID,
				Namespace: ns,
				Key:       key,
				Type:      "multi_line_text_field",
				Value:     note,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("metafieldsSet %s: %w", productID, err)
	}
	if len(data.MetafieldsSet.UserErrors) > 0 {
		return &UserErrorsError{Action: "metafieldsSet", Errors: data.MetafieldsSet.UserErrors}
	}
	return nil
}
