package service

import (
	"context"
	"errors"

	"product-notes-be/pkg/events"
	"product-notes-be/pkg/shopify"
)

// ProductCatalog resolves display data for a product id.
type ProductCatalog interface {
	GetProduct(ctx context.Context, shop, productID string) (*shopify.Product, error)
}

// MetafieldWriter mirrors a note onto the product in the catalog.
type MetafieldWriter interface {
	SetProductNoteMetafield(ctx context.Context, shop, productID, note string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type eventFanOut []EventPublisher

// NewEventFanOut publishes every event to each non-nil publisher. It returns
// nil when there is nothing to publish to.
func NewEventFanOut(publishers ...EventPublisher) EventPublisher {
	var out eventFanOut
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (f eventFanOut) Publish(ctx context.Context, event events.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
