package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bakehouse-labs/bakehouse-backend/pkg/enums"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/types"
)

// Order captures a priced, reserved checkout. Totals satisfy
// total = max(0, subtotal + delivery_fee - discount + tax).
type Order struct {
	ID                       uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                   uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index:orders_user_idx"`
	BranchID                 uuid.UUID            `gorm:"column:branch_id;type:uuid;not null;index:orders_branch_idx"`
	PromoCodeID              *uuid.UUID           `gorm:"column:promo_code_id;type:uuid"`
	Status                   enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'draft'"`
	PaymentStatus            enums.PaymentStatus  `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	PaymentMethod            string               `gorm:"column:payment_method;not null"`
	DeliveryAddress          string               `gorm:"column:delivery_address;not null"`
	DeliveryLocation         types.GeographyPoint `gorm:"column:delivery_location;type:geography(Point,4326);not null"`
	ShippingZone             enums.ShippingZone   `gorm:"column:shipping_zone;type:shipping_zone;not null"`
	SubtotalCents            int                  `gorm:"column:subtotal_cents;not null"`
	DeliveryFeeOriginalCents int                  `gorm:"column:delivery_fee_original_cents;not null"`
	DeliveryFeeCents         int                  `gorm:"column:delivery_fee_cents;not null"`
	DiscountCents            int                  `gorm:"column:discount_cents;not null;default:0"`
	ShippingDiscountCents    int                  `gorm:"column:shipping_discount_cents;not null;default:0"`
	TaxCents                 int                  `gorm:"column:tax_cents;not null;default:0"`
	TotalCents               int                  `gorm:"column:total_cents;not null"`
	EstimatedDeliveryMinutes int                  `gorm:"column:estimated_delivery_minutes;not null;default:0"`
	Items                    []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ReservedAt               *time.Time           `gorm:"column:reserved_at"`
	ConfirmedAt              *time.Time           `gorm:"column:confirmed_at"`
	CancelledAt              *time.Time           `gorm:"column:cancelled_at"`
	CreatedAt                time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
