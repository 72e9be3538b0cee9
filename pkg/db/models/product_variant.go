package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is an optional size/flavor option priced as a delta on the
// parent product.
type ProductVariant struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name            string    `gorm:"column:name;not null"`
	PriceDeltaCents int       `gorm:"column:price_delta_cents;not null;default:0"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
