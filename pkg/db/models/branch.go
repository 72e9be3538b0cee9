package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bakehouse-labs/bakehouse-backend/pkg/types"
)

// Branch is a physical fulfillment location with its own inventory.
type Branch struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string               `gorm:"column:name;not null"`
	Slug      string               `gorm:"column:slug;not null;uniqueIndex:branches_slug_key"`
	Phone     *string              `gorm:"column:phone"`
	Address   string               `gorm:"column:address;not null"`
	Location  types.GeographyPoint `gorm:"column:location;type:geography(Point,4326);not null"`
	IsActive  bool                 `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
