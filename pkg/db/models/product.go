package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product represents a catalog item sold across branches.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU         string           `gorm:"column:sku;not null;uniqueIndex:products_sku_key"`
	Name        string           `gorm:"column:name;not null"`
	Description *string          `gorm:"column:description"`
	Category    *string          `gorm:"column:category"`
	Allergens   pq.StringArray   `gorm:"column:allergens;type:text[]"`
	PriceCents  int              `gorm:"column:price_cents;not null"`
	ImageURL    *string          `gorm:"column:image_url"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
