package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/bakehouse-labs/bakehouse-backend/pkg/enums"
)

// LineInput is a normalized cart line. Client-supplied prices are ignored;
// pricing always comes from the catalog and branch overrides.
type LineInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Qty       int
}

// QuoteInput carries everything needed to price a cart. Either
// DeliveryLat/DeliveryLng or a geocodable DeliveryAddress must be present.
// BranchID nil means auto-selection by distance and stock.
type QuoteInput struct {
	UserID          uuid.UUID
	Lines           []LineInput
	DeliveryAddress string
	DeliveryLat     *float64
	DeliveryLng     *float64
	BranchID        *uuid.UUID
	PromoCode       string
}

// CreateInput extends a quote with the fields needed to commit an order.
type CreateInput struct {
	QuoteInput
	PaymentMethod string
}

// QuoteLine is a priced cart line as it will appear on the order.
type QuoteLine struct {
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	ProductName    string     `json:"product_name"`
	Qty            int        `json:"qty"`
	UnitPriceCents int        `json:"unit_price_cents"`
	LineTotalCents int        `json:"line_total_cents"`
}

// Quote is the full pricing breakdown. The commit path reuses the same
// computation so a preview and the subsequent order always agree.
type Quote struct {
	BranchID                 uuid.UUID          `json:"branch_id"`
	Zone                     enums.ShippingZone `json:"zone"`
	DistanceKM               float64            `json:"distance_km"`
	SubtotalCents            int                `json:"subtotal_cents"`
	DeliveryFeeOriginalCents int                `json:"delivery_fee_original_cents"`
	DeliveryFeeCents         int                `json:"delivery_fee_cents"`
	DiscountCents            int                `json:"discount_cents"`
	ShippingDiscountCents    int                `json:"shipping_discount_cents"`
	TaxCents                 int                `json:"tax_cents"`
	TotalCents               int                `json:"total_cents"`
	FreeShippingApplied      bool               `json:"free_shipping_applied"`
	EstimatedDeliveryMinutes int                `json:"estimated_delivery_minutes"`
	Lines                    []QuoteLine        `json:"lines"`

	promoCodeID     *uuid.UUID
	deliveryLat     float64
	deliveryLng     float64
	deliveryAddress string
}

// BranchAvailability reports per-branch cart feasibility for the
// availability endpoint.
type BranchAvailability struct {
	BranchID uuid.UUID         `json:"branch_id"`
	Status   enums.StockStatus `json:"status"`
}

// OrderFilters narrows the order history list.
type OrderFilters struct {
	Status   *enums.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}
