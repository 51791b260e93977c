package mapper

import (
	"product-notes-be/internal/dto"
	"product-notes-be/internal/entity"
	"product-notes-be/internal/model"
)

type ProductNoteMapper struct{}

func NewProductNoteMapper() *ProductNoteMapper {
	return &ProductNoteMapper{}
}

func (m *ProductNoteMapper) ToEntity(n *model.ProductNote) *entity.ProductNote {
	if n == nil {
		return nil
	}

	return &entity.ProductNote{
		Id:        n.Id,
		Shop:      n.Shop,
		ProductId: n.ProductId,
		Note:      n.Note,
		CreatedAt: n.CreatedAt,
	}
}

func (m *ProductNoteMapper) ToModel(n *entity.ProductNote) *model.ProductNote {
	if n == nil {
		return nil
	}

	return &model.ProductNote{
		Id:        n.Id,
		Shop:      n.Shop,
		ProductId: n.ProductId,
		Note:      n.Note,
		CreatedAt: n.CreatedAt,
	}
}

func (m *ProductNoteMapper) ToEntities(notes []*model.ProductNote) []*entity.ProductNote {
	entities := make([]*entity.ProductNote, len(notes))
	for i, n := range notes {
		entities[i] = m.ToEntity(n)
	}
	return entities
}

func (m *ProductNoteMapper) ToResponse(n *entity.EnrichedProductNote) dto.ProductNoteResponse {
	return dto.ProductNoteResponse{
		Id:        n.Id,
		Shop:      n.Shop,
		ProductId: n.ProductId,
		Note:      n.Note,
		CreatedAt: n.CreatedAt,
		Title:     n.Title,
		Image:     n.Image,
		AdminUrl:  n.AdminUrl,
	}
}

func (m *ProductNoteMapper) ToResponses(notes []*entity.EnrichedProductNote) []dto.ProductNoteResponse {
	res := make([]dto.ProductNoteResponse, len(notes))
	for i, n := range notes {
		res[i] = m.ToResponse(n)
	}
	return res
}
