package implementation

import (
	"context"
	"errors"
	"strings"

	"product-notes-be/internal/entity"
	"product-notes-be/internal/mapper"
	"product-notes-be/internal/model"
	"product-notes-be/internal/pkg/apperror"
	"product-notes-be/internal/repository/contract"
	"product-notes-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductNoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProductNoteMapper
}

func NewProductNoteRepository(db *gorm.DB) contract.ProductNoteRepository {
	return &ProductNoteRepositoryImpl{
		db:     db,
		mapper: mapper.NewProductNoteMapper(),
	}
}

func (r *ProductNoteRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ProductNoteRepositoryImpl) Create(ctx context.Context, note *entity.ProductNote) error {
	note.Note = strings.TrimSpace(note.Note)
	if note.Note == "" {
		return apperror.Validation("note must not be empty")
	}
	if note.Id == uuid.Nil {
		note.Id = uuid.New()
	}

	m := r.mapper.ToModel(note)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*note = *r.mapper.ToEntity(m)
	return nil
}

func (r *ProductNoteRepositoryImpl) UpdateNote(ctx context.Context, shop string, id uuid.UUID, note string) (*entity.ProductNote, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperror.Validation("note must not be empty")
	}

	res := r.db.WithContext(ctx).
		Model(&model.ProductNote{}).
		Where("id = ? AND shop = ?", id, shop).
		Update("note", note)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("product note")
	}

	var m model.ProductNote
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ProductNoteRepositoryImpl) Delete(ctx context.Context, shop string, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND shop = ?", id, shop).Delete(&model.ProductNote{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("product note")
	}
	return nil
}

func (r *ProductNoteRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ProductNote, error) {
	var m model.ProductNote
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ProductNoteRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ProductNote, error) {
	var models []*model.ProductNote
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ProductNoteRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ProductNote{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
