package models

import (
	"time"

	"github.com/google/uuid"
)

// BranchInventory tracks stock and reservation counts for a product (and
// optional variant) at a single branch. reserved_qty never exceeds stock_qty;
// the conditional updates in internal/inventory are the only mutation path.
type BranchInventory struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BranchID           uuid.UUID  `gorm:"column:branch_id;type:uuid;not null;uniqueIndex:branch_inventory_branch_product_variant_key"`
	ProductID          uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:branch_inventory_branch_product_variant_key"`
	VariantID          *uuid.UUID `gorm:"column:variant_id;type:uuid;uniqueIndex:branch_inventory_branch_product_variant_key"`
	StockQty           int        `gorm:"column:stock_qty;not null;default:0"`
	ReservedQty        int        `gorm:"column:reserved_qty;not null;default:0"`
	MinStockLevel      int        `gorm:"column:min_stock_level;not null;default:0"`
	PriceOverrideCents *int       `gorm:"column:price_override_cents"`
	IsAvailable        bool       `gorm:"column:is_available;not null;default:true"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// AvailableQty derives the sellable quantity.
func (b BranchInventory) AvailableQty() int {
	return b.StockQty - b.ReservedQty
}
