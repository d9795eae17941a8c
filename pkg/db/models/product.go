package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SizeEntry is one named size of a product with its price.
type SizeEntry struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Product is a cake or other bakery item listed in the catalog. Pricing is
// stored either as Sizes or as a free-text PriceRange; Sizes wins when both
// are present.
type Product struct {
	ID          uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	Name        string      `gorm:"column:name;not null"`
	Description string      `gorm:"column:description;not null;default:''"`
	CategoryKey string      `gorm:"column:category_key;not null;index"`
	Sizes       []SizeEntry `gorm:"column:sizes;type:jsonb;serializer:json"`
	PriceRange  *string     `gorm:"column:price_range"`
	ImageURLs   []string    `gorm:"column:image_urls;type:jsonb;serializer:json"`
	IsFeatured  bool        `gorm:"column:is_featured;not null;default:false"`
	IsActive    bool        `gorm:"column:is_active;not null"`
	CreatedAt   time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
