package models

import (
	"time"

	"github.com/google/uuid"
)

// PromoCodeUsage records one redemption. Per-user limits count these rows.
type PromoCodeUsage struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PromoCodeID         uuid.UUID `gorm:"column:promo_code_id;type:uuid;not null;index:promo_code_usages_code_user_idx"`
	UserID              uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:promo_code_usages_code_user_idx"`
	OrderID             uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:promo_code_usages_order_key"`
	DiscountAmountCents int       `gorm:"column:discount_amount_cents;not null"`
	UsedAt              time.Time `gorm:"column:used_at;autoCreateTime"`
}
