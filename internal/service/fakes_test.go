package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"product-notes-be/internal/entity"
	"product-notes-be/internal/repository/contract"
	"product-notes-be/internal/repository/unitofwork"
	"product-notes-be/pkg/events"
	"product-notes-be/pkg/shopify"
)

type fakeCatalog struct {
	products map[string]*shopify.Product
	delays   map[string]time.Duration
	failing  map[string]bool

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (c *fakeCatalog) GetProduct(ctx context.Context, shop, productID string) (*shopify.Product, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		max := c.maxInFlight.Load()
		if n <= max || c.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}

	if d, ok := c.delays[productID]; ok {
		time.Sleep(d)
	}
	if c.failing[productID] {
		return nil, errors.New("graphql errors: Throttled")
	}
	p, ok := c.products[productID]
	if !ok {
		return nil, shopify.ErrProductNotFound
	}
	return p, nil
}

type metafieldCall struct {
	Shop, ProductID, Note string
}

type fakeMetafields struct {
	mu      sync.Mutex
	calls   []metafieldCall
	failing map[string]bool
}

func (m *fakeMetafields) SetProductNoteMetafield(ctx context.Context, shop, productID, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, metafieldCall{shop, productID, note})
	if m.failing[productID] {
		return errors.New("metafieldsSet failed")
	}
	return nil
}

func (m *fakeMetafields) Calls() []metafieldCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]metafieldCall(nil), m.calls...)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (f *fakeEvents) Publish(ctx context.Context, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakeEvents) Types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, len(f.events))
	for i, e := range f.events {
		types[i] = e.EventType()
	}
	return types
}

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (f *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return nil
}

// failingFactory makes Create fail for one product id, standing in for a
// store error in the middle of a batch.
type failingFactory struct {
	inner  unitofwork.RepositoryFactory
	failOn string
}

func (f failingFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return failingUoW{UnitOfWork: f.inner.NewUnitOfWork(ctx), failOn: f.failOn}
}

type failingUoW struct {
	unitofwork.UnitOfWork
	failOn string
}

func (u failingUoW) ProductNoteRepository() contract.ProductNoteRepository {
	return failingRepo{ProductNoteRepository: u.UnitOfWork.ProductNoteRepository(), failOn: u.failOn}
}

type failingRepo struct {
	contract.ProductNoteRepository
	failOn string
}

func (r failingRepo) Create(ctx context.Context, n *entity.ProductNote) error {
	if n.ProductId == r.failOn {
		return errors.New("insert failed")
	}
	return r.ProductNoteRepository.Create(ctx, n)
}
