package unitofwork

import (
	"context"

	"product-notes-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ProductNoteRepository() contract.ProductNoteRepository
}
