package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/bakehouse-labs/bakehouse-backend/pkg/enums"
)

// OrderConfirmedEvent signals a reserved order that completed checkout.
type OrderConfirmedEvent struct {
	OrderID      uuid.UUID          `json:"order_id"`
	UserID       uuid.UUID          `json:"user_id"`
	BranchID     uuid.UUID          `json:"branch_id"`
	PromoCodeID  *uuid.UUID         `json:"promo_code_id,omitempty"`
	ShippingZone enums.ShippingZone `json:"shipping_zone"`
	TotalCents   int                `json:"total_cents"`
	ConfirmedAt  time.Time          `json:"confirmed_at"`
}

// OrderCancelledEvent is emitted whenever a user cancels before fulfillment.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	UserID      uuid.UUID `json:"user_id"`
	BranchID    uuid.UUID `json:"branch_id"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// OrderExpiredEvent reports a reservation released by the TTL sweep.
type OrderExpiredEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	BranchID   uuid.UUID `json:"branch_id"`
	ReservedAt time.Time `json:"reserved_at"`
	ExpiredAt  time.Time `json:"expired_at"`
}
