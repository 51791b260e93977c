package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"product-notes-be/internal/config"
	"product-notes-be/internal/dto"
	"product-notes-be/internal/entity"
	"product-notes-be/internal/pkg/apperror"
	"product-notes-be/internal/pkg/logger"
	"product-notes-be/internal/repository/memory"
	"product-notes-be/internal/repository/specification"
	"product-notes-be/internal/repository/unitofwork"
	"product-notes-be/pkg/events"
	"product-notes-be/pkg/shopify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShop = "demo.myshopify.com"

type serviceFixture struct {
	store      *memory.ProductNoteStore
	catalog    *fakeCatalog
	metafields *fakeMetafields
	events     *fakeEvents
	publisher  *fakePublisher
}

func newFixture() *serviceFixture {
	return &serviceFixture{
		store: memory.NewProductNoteStore(),
		catalog: &fakeCatalog{
			products: map[string]*shopify.Product{},
			delays:   map[string]time.Duration{},
			failing:  map[string]bool{},
		},
		metafields: &fakeMetafields{failing: map[string]bool{}},
		events:     &fakeEvents{},
		publisher:  &fakePublisher{},
	}
}

func (f *serviceFixture) service(cfg config.NotesConfig) IProductNoteService {
	return f.serviceWith(f.store, cfg)
}

func (f *serviceFixture) serviceWith(factory unitofwork.RepositoryFactory, cfg config.NotesConfig) IProductNoteService {
	return NewProductNoteService(factory, f.catalog, f.metafields, f.publisher, f.events, logger.NewNopLogger(), cfg)
}

func (f *serviceFixture) seed(t *testing.T, shop, productId, text string, createdAt time.Time) *entity.ProductNote {
	t.Helper()
	n := &entity.ProductNote{Shop: shop, ProductId: productId, Note: text, CreatedAt: createdAt}
	require.NoError(t, f.store.Create(context.Background(), n))
	return n
}

func (f *serviceFixture) notes(t *testing.T, shop string) []*entity.ProductNote {
	t.Helper()
	notes, err := f.store.FindAll(context.Background(), specification.ByShop{Shop: shop}, specification.NewestFirst())
	require.NoError(t, err)
	return notes
}

func TestListEnriched_OrderSurvivesOutOfOrderCompletion(t *testing.T) {
	f := newFixture()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.seed(t, testShop, "p-old", "oldest", base)
	f.seed(t, testShop, "p-mid", "middle", base.Add(time.Minute))
	f.seed(t, testShop, "p-new", "newest", base.Add(2*time.Minute))

	for _, id := range []string{"p-old", "p-mid", "p-new"} {
		f.catalog.products[id] = &shopify.Product{ID: id, Title: "Title " + id, ImageURL: "https://cdn/" + id}
	}
	// The newest note resolves last.
	f.catalog.delays["p-new"] = 60 * time.Millisecond
	f.catalog.delays["p-mid"] = 30 * time.Millisecond

	res, err := f.service(config.NotesConfig{EnrichmentConcurrency: 3}).ListEnriched(context.Background(), testShop)

	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "newest", res[0].Note)
	assert.Equal(t, "Title p-new", res[0].Title)
	assert.Equal(t, "middle", res[1].Note)
	assert.Equal(t, "oldest", res[2].Note)
	assert.Equal(t, "https://cdn/p-old", res[2].Image)
}

func TestListEnriched_FailuresBecomePlaceholders(t *testing.T) {
	f := newFixture()
	base := time.Now()
	f.seed(t, testShop, "gid://shopify/Product/1", "ok", base)
	f.seed(t, testShop, "gid://shopify/Product/2", "throttled", base.Add(time.Second))
	f.seed(t, testShop, "gid://shopify/Product/3", "deleted", base.Add(2*time.Second))
	f.catalog.products["gid://shopify/Product/1"] = &shopify.Product{Title: "Snowboard", ImageURL: "https://cdn/1"}
	f.catalog.failing["gid://shopify/Product/2"] = true

	res, err := f.service(config.NotesConfig{}).ListEnriched(context.Background(), testShop)

	require.NoError(t, err)
	require.Len(t, res, 3)

	byNote := map[string]dto.ProductNoteResponse{}
	for _, r := range res {
		byNote[r.Note] = r
	}
	assert.Equal(t, "Snowboard", byNote["ok"].Title)
	assert.Equal(t, UnknownProductTitle, byNote["throttled"].Title)
	assert.Empty(t, byNote["throttled"].Image)
	assert.Equal(t, UnknownProductTitle, byNote["deleted"].Title)
	assert.Equal(t, "https://admin.shopify.com/store/demo/products/3", byNote["deleted"].AdminUrl)
}

func TestListEnriched_BoundedConcurrency(t *testing.T) {
	f := newFixture()
	base := time.Now()
	for i := 0; i < 10; i++ {
		id := uuid.NewString()
		f.seed(t, testShop, id, "n", base.Add(time.Duration(i)*time.Second))
		f.catalog.delays[id] = 10 * time.Millisecond
	}

	res, err := f.service(config.NotesConfig{EnrichmentConcurrency: 2}).ListEnriched(context.Background(), testShop)

	require.NoError(t, err)
	assert.Len(t, res, 10)
	assert.LessOrEqual(t, f.catalog.maxInFlight.Load(), int32(2))
}

func TestListEnriched_ScopedToShop(t *testing.T) {
	f := newFixture()
	f.seed(t, testShop, "p1", "mine", time.Now())
	f.seed(t, "other.myshopify.com", "p2", "theirs", time.Now())

	res, err := f.service(config.NotesConfig{}).ListEnriched(context.Background(), testShop)

	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "mine", res[0].Note)
}

func TestListEnriched_Empty(t *testing.T) {
	f := newFixture()

	res, err := f.service(config.NotesConfig{}).ListEnriched(context.Background(), testShop)

	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)
}

func TestAdd_CreatesOneRowPerProductWithSharedTimestamp(t *testing.T) {
	f := newFixture()
	svc := f.service(config.NotesConfig{})

	res, err := svc.Add(context.Background(), testShop, &dto.AddNotesRequest{
		Products: []string{"gid://shopify/Product/1", "gid://shopify/Product/2"},
		Note:     "  Fragile  ",
	})

	require.NoError(t, err)
	assert.Equal(t, &dto.ActionResponse{Success: true, Message: "Note added"}, res)

	notes := f.notes(t, testShop)
	require.Len(t, notes, 2)
	assert.Equal(t, "Fragile", notes[0].Note)
	assert.Equal(t, "Fragile", notes[1].Note)
	assert.True(t, notes[0].CreatedAt.Equal(notes[1].CreatedAt))
	assert.ElementsMatch(t, []string{events.NoteCreated, events.NoteCreated}, f.events.Types())
}

func TestAdd_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  dto.AddNotesRequest
	}{
		{"no products", dto.AddNotesRequest{Products: nil, Note: "Fragile"}},
		{"blank product ids", dto.AddNotesRequest{Products: []string{" "}, Note: "Fragile"}},
		{"empty note", dto.AddNotesRequest{Products: []string{"p1"}, Note: ""}},
		{"whitespace note", dto.AddNotesRequest{Products: []string{"p1"}, Note: " \n\t "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.service(config.NotesConfig{}).Add(context.Background(), testShop, &tt.req)

			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Empty(t, f.notes(t, testShop))
			assert.Empty(t, f.events.Types())
		})
	}
}

func TestAdd_BestEffortKeepsEarlierRows(t *testing.T) {
	f := newFixture()
	svc := f.serviceWith(failingFactory{inner: f.store, failOn: "p2"}, config.NotesConfig{})

	_, err := svc.Add(context.Background(), testShop, &dto.AddNotesRequest{
		Products: []string{"p1", "p2", "p3"},
		Note:     "Fragile",
	})

	var partial *apperror.PartialBatchError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, 2, partial.Succeeded)
	assert.Equal(t, 1, partial.Failed)
	assert.Len(t, f.notes(t, testShop), 2)
	assert.Len(t, f.events.Types(), 2)
}

func TestAdd_AtomicRollsBackWholeBatch(t *testing.T) {
	f := newFixture()
	f.seed(t, testShop, "p0", "existing", time.Now())
	svc := f.serviceWith(failingFactory{inner: f.store, failOn: "p2"}, config.NotesConfig{AtomicAdd: true})

	_, err := svc.Add(context.Background(), testShop, &dto.AddNotesRequest{
		Products: []string{"p1", "p2", "p3"},
		Note:     "Fragile",
	})

	require.Error(t, err)
	notes := f.notes(t, testShop)
	require.Len(t, notes, 1)
	assert.Equal(t, "existing", notes[0].Note)
	assert.Empty(t, f.events.Types())
}

func TestAdd_AtomicSuccess(t *testing.T) {
	f := newFixture()
	svc := f.service(config.NotesConfig{AtomicAdd: true})

	_, err := svc.Add(context.Background(), testShop, &dto.AddNotesRequest{Products: []string{"p1", "p2"}, Note: "x"})

	require.NoError(t, err)
	assert.Len(t, f.notes(t, testShop), 2)
}

func TestAdd_DuplicateProductsAllowed(t *testing.T) {
	f := newFixture()
	svc := f.service(config.NotesConfig{})

	for i := 0; i < 2; i++ {
		_, err := svc.Add(context.Background(), testShop, &dto.AddNotesRequest{Products: []string{"p1"}, Note: "again"})
		require.NoError(t, err)
	}

	assert.Len(t, f.notes(t, testShop), 2)
}

func TestAdd_EventFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture()
	f.events.err = errors.New("nats: no responders")

	res, err := f.service(config.NotesConfig{}).Add(context.Background(), testShop, &dto.AddNotesRequest{Products: []string{"p1"}, Note: "x"})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Len(t, f.notes(t, testShop), 1)
}

func TestAdd_SyncOnWriteQueuesMessages(t *testing.T) {
	f := newFixture()
	svc := f.service(config.NotesConfig{SyncOnWrite: true})

	_, err := svc.Add(context.Background(), testShop, &dto.AddNotesRequest{Products: []string{"p1", "p2"}, Note: "Fragile"})

	require.NoError(t, err)
	require.Len(t, f.publisher.payloads, 2)
	var msg dto.PublishMetafieldSyncMessage
	require.NoError(t, json.Unmarshal(f.publisher.payloads[0], &msg))
	assert.Equal(t, testShop, msg.Shop)
	assert.Equal(t, "p1", msg.ProductId)
	assert.Equal(t, "Fragile", msg.Note)
}

func TestAdd_NoQueueWithoutSyncOnWrite(t *testing.T) {
	f := newFixture()

	_, err := f.service(config.NotesConfig{}).Add(context.Background(), testShop, &dto.AddNotesRequest{Products: []string{"p1"}, Note: "x"})

	require.NoError(t, err)
	assert.Empty(t, f.publisher.payloads)
}

func TestUpdate(t *testing.T) {
	f := newFixture()
	created := f.seed(t, testShop, "p1", "Fragile", time.Now().Add(-time.Hour))
	svc := f.service(config.NotesConfig{SyncOnWrite: true})

	t.Run("changes text only", func(t *testing.T) {
		res, err := svc.Update(context.Background(), testShop, &dto.UpdateNoteRequest{Id: created.Id, Note: " Handle with care "})

		require.NoError(t, err)
		assert.Equal(t, "Note updated", res.Message)
		notes := f.notes(t, testShop)
		require.Len(t, notes, 1)
		assert.Equal(t, "Handle with care", notes[0].Note)
		assert.Equal(t, "p1", notes[0].ProductId)
		assert.True(t, created.CreatedAt.Equal(notes[0].CreatedAt))
		assert.Contains(t, f.events.Types(), events.NoteUpdated)
		assert.Len(t, f.publisher.payloads, 1)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Update(context.Background(), testShop, &dto.UpdateNoteRequest{Id: uuid.New(), Note: "x"})
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("other shop", func(t *testing.T) {
		_, err := svc.Update(context.Background(), "other.myshopify.com", &dto.UpdateNoteRequest{Id: created.Id, Note: "x"})
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("blank note", func(t *testing.T) {
		_, err := svc.Update(context.Background(), testShop, &dto.UpdateNoteRequest{Id: created.Id, Note: "   "})
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.Equal(t, "Handle with care", f.notes(t, testShop)[0].Note)
	})
}

func TestDelete(t *testing.T) {
	f := newFixture()
	created := f.seed(t, testShop, "p1", "Fragile", time.Now())
	svc := f.service(config.NotesConfig{})

	_, err := svc.Delete(context.Background(), "other.myshopify.com", &dto.DeleteNoteRequest{Id: created.Id})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	res, err := svc.Delete(context.Background(), testShop, &dto.DeleteNoteRequest{Id: created.Id})
	require.NoError(t, err)
	assert.Equal(t, "Note deleted", res.Message)
	assert.Empty(t, f.notes(t, testShop))
	assert.Equal(t, []string{events.NoteDeleted}, f.events.Types())

	_, err = svc.Delete(context.Background(), testShop, &dto.DeleteNoteRequest{Id: created.Id})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSync_CountsFailuresWithoutFailing(t *testing.T) {
	f := newFixture()
	f.metafields.failing["p2"] = true
	svc := f.service(config.NotesConfig{})

	res, err := svc.Sync(context.Background(), testShop, &dto.SyncNotesRequest{
		Products: []string{"p1", "p2", "p3"},
		Note:     "Fragile",
	})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Synced 2/3 products", res.Message)
	assert.Len(t, f.metafields.Calls(), 3, "a failure does not stop the batch")
	assert.Empty(t, f.notes(t, testShop), "sync never touches the store")
}

func TestSync_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.service(config.NotesConfig{}).Sync(context.Background(), testShop, &dto.SyncNotesRequest{Products: []string{"p1"}, Note: " "})

	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Empty(t, f.metafields.Calls())
}

func TestService_WithoutOptionalCollaborators(t *testing.T) {
	store := memory.NewProductNoteStore()
	svc := NewProductNoteService(store, nil, nil, nil, nil, logger.NewNopLogger(), config.NotesConfig{SyncOnWrite: true})

	_, err := svc.Add(context.Background(), testShop, &dto.AddNotesRequest{Products: []string{"p1"}, Note: "x"})
	require.NoError(t, err)

	res, err := svc.ListEnriched(context.Background(), testShop)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, UnknownProductTitle, res[0].Title)

	syncRes, err := svc.Sync(context.Background(), testShop, &dto.SyncNotesRequest{Products: []string{"p1"}, Note: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Synced 0/1 products", syncRes.Message)
}
