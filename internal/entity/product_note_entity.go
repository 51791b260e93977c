package entity

import (
	"time"

	"github.com/google/uuid"
)

type ProductNote struct {
	Id        uuid.UUID
	Shop      string
	ProductId string
	Note      string
	CreatedAt time.Time
}

// EnrichedProductNote is a ProductNote decorated with catalog display data.
type EnrichedProductNote struct {
	ProductNote
	Title    string
	Image    string
	AdminUrl string
}
