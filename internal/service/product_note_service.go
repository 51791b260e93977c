package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"product-notes-be/internal/config"
	"product-notes-be/internal/dto"
	"product-notes-be/internal/entity"
	"product-notes-be/internal/mapper"
	"product-notes-be/internal/pkg/apperror"
	"product-notes-be/internal/pkg/logger"
	"product-notes-be/internal/pkg/metrics"
	"product-notes-be/internal/repository/contract"
	"product-notes-be/internal/repository/specification"
	"product-notes-be/internal/repository/unitofwork"
	"product-notes-be/pkg/events"
	"product-notes-be/pkg/shopify"

	"golang.org/x/sync/errgroup"
)

const (
	productNoteModule = "PRODUCT_NOTE"

	UnknownProductTitle = "Unknown Product"
)

type IProductNoteService interface {
	ListEnriched(ctx context.Context, shop string) ([]dto.ProductNoteResponse, error)
	Add(ctx context.Context, shop string, req *dto.AddNotesRequest) (*dto.ActionResponse, error)
	Update(ctx context.Context, shop string, req *dto.UpdateNoteRequest) (*dto.ActionResponse, error)
	Delete(ctx context.Context, shop string, req *dto.DeleteNoteRequest) (*dto.ActionResponse, error)
	Sync(ctx context.Context, shop string, req *dto.SyncNotesRequest) (*dto.ActionResponse, error)
}

type productNoteService struct {
	uowFactory       unitofwork.RepositoryFactory
	catalog          ProductCatalog
	metafields       MetafieldWriter
	publisherService IPublisherService
	eventPublisher   EventPublisher
	logger           logger.ILogger
	cfg              config.NotesConfig
	mapper           *mapper.ProductNoteMapper
	now              func() time.Time
}

// NewProductNoteService wires the note use cases. catalog, metafields,
// publisherService and eventPublisher may be nil; the matching side effect
// is then skipped.
func NewProductNoteService(
	uowFactory unitofwork.RepositoryFactory,
	catalog ProductCatalog,
	metafields MetafieldWriter,
	publisherService IPublisherService,
	eventPublisher EventPublisher,
	sysLogger logger.ILogger,
	cfg config.NotesConfig,
) IProductNoteService {
	if cfg.EnrichmentConcurrency <= 0 {
		cfg.EnrichmentConcurrency = 8
	}
	return &productNoteService{
		uowFactory:       uowFactory,
		catalog:          catalog,
		metafields:       metafields,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           sysLogger,
		cfg:              cfg,
		mapper:           mapper.NewProductNoteMapper(),
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *productNoteService) ListEnriched(ctx context.Context, shop string) ([]dto.ProductNoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	notes, err := uow.ProductNoteRepository().FindAll(ctx,
		specification.ByShop{Shop: shop},
		specification.NewestFirst(),
	)
	if err != nil {
		return nil, err
	}

	// Each goroutine owns one slot, so the result keeps store order no
	// matter which lookup finishes first.
	enriched := make([]*entity.EnrichedProductNote, len(notes))

	var g errgroup.Group
	g.SetLimit(s.cfg.EnrichmentConcurrency)
	for i, note := range notes {
		g.Go(func() error {
			enriched[i] = s.enrich(ctx, shop, note)
			return nil
		})
	}
	_ = g.Wait()

	return s.mapper.ToResponses(enriched), nil
}

func (s *productNoteService) enrich(ctx context.Context, shop string, note *entity.ProductNote) *entity.EnrichedProductNote {
	out := &entity.EnrichedProductNote{
		ProductNote: *note,
		Title:       UnknownProductTitle,
		AdminUrl:    shopify.AdminProductURL(shop, note.ProductId),
	}
	if s.catalog == nil {
		return out
	}

	product, err := s.catalog.GetProduct(ctx, shop, note.ProductId)
	if err != nil {
		metrics.RecordEnrichment(false)
		s.logger.Warn(productNoteModule, "Product enrichment failed", map[string]interface{}{
			"shop":       shop,
			"product_id": note.ProductId,
			"error":      apperror.External("get product", err).Error(),
		})
		return out
	}
	metrics.RecordEnrichment(true)

	if product.Title != "" {
		out.Title = product.Title
	}
	out.Image = product.ImageURL
	return out
}

func (s *productNoteService) Add(ctx context.Context, shop string, req *dto.AddNotesRequest) (*dto.ActionResponse, error) {
	products := compact(req.Products)
	note := strings.TrimSpace(req.Note)
	if len(products) == 0 {
		return nil, apperror.Validation("products must contain at least 1 item(s)")
	}
	if note == "" {
		return nil, apperror.Validation("note is required")
	}

	createdAt := s.now()
	batch := make([]*entity.ProductNote, len(products))
	for i, productId := range products {
		batch[i] = &entity.ProductNote{
			Shop:      shop,
			ProductId: productId,
			Note:      note,
			CreatedAt: createdAt,
		}
	}

	var (
		created []*entity.ProductNote
		err     error
	)
	if s.cfg.AtomicAdd {
		created, err = s.addAtomic(ctx, batch)
	} else {
		created, err = s.addBestEffort(ctx, batch)
	}

	for _, n := range created {
		s.afterWrite(ctx, events.NoteCreated, n)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(productNoteModule, "Notes added", map[string]interface{}{
		"shop":  shop,
		"count": len(created),
	})
	return &dto.ActionResponse{Success: true, Message: "Note added"}, nil
}

// addBestEffort creates rows one at a time. Rows written before a failure
// stay written and the failure is reported as a PartialBatchError.
func (s *productNoteService) addBestEffort(ctx context.Context, batch []*entity.ProductNote) ([]*entity.ProductNote, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).ProductNoteRepository()

	created := make([]*entity.ProductNote, 0, len(batch))
	var errs []error
	for _, n := range batch {
		if err := repo.Create(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("product %s: %w", n.ProductId, err))
			continue
		}
		created = append(created, n)
	}

	switch {
	case len(errs) == 0:
		return created, nil
	case len(created) == 0:
		return nil, fmt.Errorf("add notes: %w", errs[0])
	}

	s.logger.Warn(productNoteModule, "Note batch partially applied", map[string]interface{}{
		"succeeded": len(created),
		"failed":    len(errs),
	})
	return created, &apperror.PartialBatchError{
		Succeeded: len(created),
		Failed:    len(errs),
		Errs:      errs,
	}
}

func (s *productNoteService) addAtomic(ctx context.Context, batch []*entity.ProductNote) ([]*entity.ProductNote, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	repo := uow.ProductNoteRepository()
	for _, n := range batch {
		if err := repo.Create(ctx, n); err != nil {
			return nil, fmt.Errorf("product %s: %w", n.ProductId, err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *productNoteService) Update(ctx context.Context, shop string, req *dto.UpdateNoteRequest) (*dto.ActionResponse, error) {
	note := strings.TrimSpace(req.Note)
	if note == "" {
		return nil, apperror.Validation("note is required")
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).ProductNoteRepository()
	updated, err := repo.UpdateNote(ctx, shop, req.Id, note)
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, events.NoteUpdated, updated)
	return &dto.ActionResponse{Success: true, Message: "Note updated"}, nil
}

func (s *productNoteService) Delete(ctx context.Context, shop string, req *dto.DeleteNoteRequest) (*dto.ActionResponse, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).ProductNoteRepository()

	existing, err := findOwned(ctx, repo, shop, req)
	if err != nil {
		return nil, err
	}
	if err := repo.Delete(ctx, shop, req.Id); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NoteDeleted, existing)
	return &dto.ActionResponse{Success: true, Message: "Note deleted"}, nil
}

// findOwned loads the row being deleted so the event can carry its product id.
func findOwned(ctx context.Context, repo contract.ProductNoteRepository, shop string, req *dto.DeleteNoteRequest) (*entity.ProductNote, error) {
	existing, err := repo.FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.ByShop{Shop: shop},
	)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperror.NotFound("product note")
	}
	return existing, nil
}

// Sync writes the note onto every product's metafield. Individual failures
// are logged and counted; the operation itself never fails on them.
func (s *productNoteService) Sync(ctx context.Context, shop string, req *dto.SyncNotesRequest) (*dto.ActionResponse, error) {
	products := compact(req.Products)
	note := strings.TrimSpace(req.Note)
	if len(products) == 0 {
		return nil, apperror.Validation("products must contain at least 1 item(s)")
	}
	if note == "" {
		return nil, apperror.Validation("note is required")
	}

	result := dto.SyncResult{Total: len(products)}
	for _, productId := range products {
		if s.syncOne(ctx, shop, productId, note) {
			result.Synced++
		}
	}

	s.logger.Info(productNoteModule, "Metafield sync finished", map[string]interface{}{
		"shop":   shop,
		"total":  result.Total,
		"synced": result.Synced,
	})
	return &dto.ActionResponse{
		Success: true,
		Message: fmt.Sprintf("Synced %d/%d products", result.Synced, result.Total),
	}, nil
}

func (s *productNoteService) syncOne(ctx context.Context, shop, productId, note string) bool {
	if s.metafields == nil {
		return false
	}
	if err := s.metafields.SetProductNoteMetafield(ctx, shop, productId, note); err != nil {
		metrics.RecordMetafieldSync(false)
		s.logger.Warn(productNoteModule, "Metafield sync failed", map[string]interface{}{
			"shop":       shop,
			"product_id": productId,
			"error":      apperror.External("metafieldsSet", err).Error(),
		})
		return false
	}
	metrics.RecordMetafieldSync(true)
	return true
}

func (s *productNoteService) afterWrite(ctx context.Context, eventType string, n *entity.ProductNote) {
	s.publishEvent(ctx, eventType, n)
	if s.cfg.SyncOnWrite {
		s.queueSync(ctx, n)
	}
}

func (s *productNoteService) publishEvent(ctx context.Context, eventType string, n *entity.ProductNote) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.NewNoteEvent(eventType, n.Shop, n.Id.String(), n.ProductId)
	// Events are auxiliary; a broker outage must not fail the write.
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn(productNoteModule, "Failed to publish note event", map[string]interface{}{
			"event":   eventType,
			"note_id": n.Id.String(),
			"error":   err.Error(),
		})
	}
}

func (s *productNoteService) queueSync(ctx context.Context, n *entity.ProductNote) {
	if s.publisherService == nil {
		return
	}
	payload, err := json.Marshal(dto.PublishMetafieldSyncMessage{
		Shop:      n.Shop,
		ProductId: n.ProductId,
		Note:      n.Note,
	})
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn(productNoteModule, "Failed to queue metafield sync", map[string]interface{}{
			"product_id": n.ProductId,
			"error":      err.Error(),
		})
	}
}

// compact trims product ids and drops blanks.
func compact(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
