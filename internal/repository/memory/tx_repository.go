package memory

import (
	"context"
	"strings"
	"time"

	"product-notes-be/internal/entity"
	"product-notes-be/internal/pkg/apperror"
	"product-notes-be/internal/repository/specification"

	"github.com/google/uuid"
)

type opKind int

const (
	opCreate opKind = iota
	opUpdate
	opDelete
)

type pendingOp struct {
	kind opKind
	note entity.ProductNote
}

// txRepository is the repository seen inside a transaction. Writes are
// queued; reads see committed rows only.
type txRepository struct {
	store *ProductNoteStore
	ops   []pendingOp
}

func (t *txRepository) Create(ctx context.Context, note *entity.ProductNote) error {
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
	t.ops = append(t.ops, pendingOp{kind: opCreate, note: *note})
	return nil
}

func (t *txRepository) UpdateNote(ctx context.Context, shop string, id uuid.UUID, note string) (*entity.ProductNote, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperror.Validation("note must not be empty")
	}

	current, ok := t.current(id)
	if !ok || current.Shop != shop {
		return nil, apperror.NotFound("product note")
	}
	current.Note = note
	t.ops = append(t.ops, pendingOp{kind: opUpdate, note: current})
	return &current, nil
}

func (t *txRepository) Delete(ctx context.Context, shop string, id uuid.UUID) error {
	current, ok := t.current(id)
	if !ok || current.Shop != shop {
		return apperror.NotFound("product note")
	}
	t.ops = append(t.ops, pendingOp{kind: opDelete, note: current})
	return nil
}

func (t *txRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ProductNote, error) {
	return t.store.FindOne(ctx, specs...)
}

func (t *txRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ProductNote, error) {
	return t.store.FindAll(ctx, specs...)
}

func (t *txRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return t.store.Count(ctx, specs...)
}

// current is the committed row with this transaction's queued writes replayed
// on top.
func (t *txRepository) current(id uuid.UUID) (entity.ProductNote, bool) {
	t.store.mu.RLock()
	n, ok := t.store.notes[id]
	t.store.mu.RUnlock()

	for _, op := range t.ops {
		if op.note.Id != id {
			continue
		}
		switch op.kind {
		case opCreate, opUpdate:
			n, ok = op.note, true
		case opDelete:
			ok = false
		}
	}
	return n, ok
}

// apply commits the queued writes all-or-nothing. An update or delete whose
// row was removed by someone else in the meantime fails the whole commit.
func (t *txRepository) apply() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	staged := make(map[uuid.UUID]*entity.ProductNote)
	lookup := func(id uuid.UUID) (*entity.ProductNote, bool) {
		if n, ok := staged[id]; ok {
			return n, n != nil
		}
		n, ok := t.store.notes[id]
		return &n, ok
	}

	for _, op := range t.ops {
		n := op.note
		switch op.kind {
		case opCreate:
			staged[n.Id] = &n
		case opUpdate:
			existing, ok := lookup(n.Id)
			if !ok || existing.Shop != n.Shop {
				return apperror.NotFound("product note")
			}
			updated := *existing
			updated.Note = n.Note
			staged[n.Id] = &updated
		case opDelete:
			if existing, ok := lookup(n.Id); !ok || existing.Shop != n.Shop {
				return apperror.NotFound("product note")
			}
			staged[n.Id] = nil
		}
	}

	for id, n := range staged {
		if n == nil {
			delete(t.store.notes, id)
			continue
		}
		t.store.notes[id] = *n
	}
	t.ops = nil
	return nil
}
