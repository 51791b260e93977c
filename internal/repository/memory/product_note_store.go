package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"product-notes-be/internal/entity"
	"product-notes-be/internal/pkg/apperror"
	"product-notes-be/internal/repository/contract"
	"product-notes-be/internal/repository/specification"
	"product-notes-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// ProductNoteStore keeps product notes in process memory. It backs
// STORE_DRIVER=memory and the service tests.
type ProductNoteStore struct {
	mu    sync.RWMutex
	notes map[uuid.UUID]entity.ProductNote
}

var _ unitofwork.RepositoryFactory = (*ProductNoteStore)(nil)

func NewProductNoteStore() *ProductNoteStore {
	return &ProductNoteStore{
		notes: make(map[uuid.UUID]entity.ProductNote),
	}
}

func (s *ProductNoteStore) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: s}
}

// unitOfWork buffers writes made between Begin and Commit. Nothing touches the
// shared map until Commit, which applies the whole buffer under one lock.
type unitOfWork struct {
	store *ProductNoteStore
	tx    *txRepository // nil outside Begin/Commit
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = &txRepository{store: u.store}
	return nil
}

func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.apply()
	u.tx = nil
	return err
}

func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	u.tx = nil
	return nil
}

func (u *unitOfWork) ProductNoteRepository() contract.ProductNoteRepository {
	if u.tx != nil {
		return u.tx
	}
	return u.store
}

func (s *ProductNoteStore) Create(ctx context.Context, note *entity.ProductNote) error {
	note.Note = strings.TrimSpace(note.Note)
	if note.Note == "" {
		return apperror.Validation("note must not be empty")
	}
	if note.Id == uuid.Nil {
		note.Id = uuid.New()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[note.Id] = *note
	return nil
}

func (s *ProductNoteStore) UpdateNote(ctx context.Context, shop string, id uuid.UUID, note string) (*entity.ProductNote, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperror.Validation("note must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.notes[id]
	if !ok || existing.Shop != shop {
		return nil, apperror.NotFound("product note")
	}
	existing.Note = note
	s.notes[id] = existing
	return &existing, nil
}

func (s *ProductNoteStore) Delete(ctx context.Context, shop string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.notes[id]
	if !ok || existing.Shop != shop {
		return apperror.NotFound("product note")
	}
	delete(s.notes, id)
	return nil
}

func (s *ProductNoteStore) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ProductNote, error) {
	notes, err := s.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, nil
	}
	return notes[0], nil
}

func (s *ProductNoteStore) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ProductNote, error) {
	var (
		filters    []func(entity.ProductNote) bool
		order      *specification.OrderBy
		pagination *specification.Pagination
	)

	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			filters = append(filters, func(n entity.ProductNote) bool { return n.Id == sp.ID })
		case specification.ByShop:
			filters = append(filters, func(n entity.ProductNote) bool { return n.Shop == sp.Shop })
		case specification.ByProductID:
			filters = append(filters, func(n entity.ProductNote) bool { return n.ProductId == sp.ProductID })
		case specification.OrderBy:
			if sp.Field != "created_at" {
				return nil, fmt.Errorf("memory store: unsupported order field %q", sp.Field)
			}
			order = &sp
		case specification.Pagination:
			pagination = &sp
		default:
			return nil, fmt.Errorf("memory store: unsupported specification %T", spec)
		}
	}

	s.mu.RLock()
	result := make([]*entity.ProductNote, 0, len(s.notes))
	for _, n := range s.notes {
		if matches(n, filters) {
			n := n
			result = append(result, &n)
		}
	}
	s.mu.RUnlock()

	// Map iteration is random; ties on created_at fall back to id for a stable result.
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if order != nil && order.Desc {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Id.String() < b.Id.String()
	})

	if pagination != nil {
		result = paginate(result, *pagination)
	}
	return result, nil
}

func (s *ProductNoteStore) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	notes, err := s.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(notes)), nil
}

func matches(n entity.ProductNote, filters []func(entity.ProductNote) bool) bool {
	for _, f := range filters {
		if !f(n) {
			return false
		}
	}
	return true
}

func paginate(notes []*entity.ProductNote, p specification.Pagination) []*entity.ProductNote {
	if p.Offset >= len(notes) {
		return []*entity.ProductNote{}
	}
	end := len(notes)
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	return notes[p.Offset:end]
}
