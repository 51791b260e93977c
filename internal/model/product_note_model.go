package model

import (
	"time"

	"github.com/google/uuid"
)

type ProductNote struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Shop      string    `gorm:"type:varchar(255);not null;index:idx_product_notes_shop_created,priority:1"`
	ProductId string    `gorm:"type:varchar(255);not null;index"`
	Note      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_product_notes_shop_created,priority:2,sort:desc"`
}

func (ProductNote) TableName() string {
	return "product_notes"
}
