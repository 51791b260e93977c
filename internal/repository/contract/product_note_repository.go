package contract

import (
	"context"

	"product-notes-be/internal/entity"
	"product-notes-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ProductNoteRepository is the Note Store. Mutations touch exactly one row.
//
// Create and UpdateNote return an apperror.ErrValidation error for a blank note;
// UpdateNote and Delete return apperror.ErrNotFound when no row matches both
// the id and the shop.
type ProductNoteRepository interface {
	Create(ctx context.Context, note *entity.ProductNote) error
	UpdateNote(ctx context.Context, shop string, id uuid.UUID, note string) (*entity.ProductNote, error)
	Delete(ctx context.Context, shop string, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ProductNote, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ProductNote, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
