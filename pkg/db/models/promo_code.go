package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bakehouse-labs/bakehouse-backend/pkg/enums"
)

// PromoCode is a time-bounded, usage-capped discount rule. Code is stored
// lowercased; lookups normalize before matching.
type PromoCode struct {
	ID                     uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code                   string                  `gorm:"column:code;not null;uniqueIndex:promo_codes_code_key"`
	Description            *string                 `gorm:"column:description"`
	DiscountType           enums.PromoDiscountType `gorm:"column:discount_type;type:promo_discount_type;not null"`
	DiscountValue          decimal.Decimal         `gorm:"column:discount_value;type:numeric(10,2);not null"`
	MinOrderAmountCents    *int                    `gorm:"column:min_order_amount_cents"`
	MaxDiscountAmountCents *int                    `gorm:"column:max_discount_amount_cents"`
	UsageLimit             *int                    `gorm:"column:usage_limit"`
	UserUsageLimit         *int                    `gorm:"column:user_usage_limit"`
	UsageCount             int                     `gorm:"column:usage_count;not null;default:0"`
	ValidFrom              time.Time               `gorm:"column:valid_from;not null"`
	ValidUntil             time.Time               `gorm:"column:valid_until;not null"`
	IsActive               bool                    `gorm:"column:is_active;not null;default:true"`
	CreatedAt              time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
