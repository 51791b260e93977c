package specification

import "gorm.io/gorm"

// ByShop scopes a query to one tenant.
type ByShop struct {
	Shop string
}

func (s ByShop) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("shop = ?", s.Shop)
}

type ByProductID struct {
	ProductID string
}

func (s ByProductID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("product_id = ?", s.ProductID)
}

// NewestFirst is the listing contract for product notes.
func NewestFirst() Specification {
	return OrderBy{Field: "created_at", Desc: true}
}
