package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bakehouse-labs/bakehouse-backend/api/responses"
	"github.com/bakehouse-labs/bakehouse-backend/api/validators"
	"github.com/bakehouse-labs/bakehouse-backend/internal/orders"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/db/models"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/logger"
)

type checkoutRequest struct {
	quoteRequest
	PaymentMethod string `json:"payment_method" validate:"required,min=2,max=40"`
}

// Checkout reprices the cart, reserves stock and commits the order in one
// transaction.
func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), orders.CreateInput{
			QuoteInput:    newQuoteInput(userID, payload.quoteRequest),
			PaymentMethod: payload.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type orderResponse struct {
	OrderID                  uuid.UUID           `json:"order_id"`
	BranchID                 uuid.UUID           `json:"branch_id"`
	Status                   string              `json:"status"`
	PaymentStatus            string              `json:"payment_status"`
	PaymentMethod            string              `json:"payment_method"`
	DeliveryAddress          string              `json:"delivery_address"`
	ShippingZone             string              `json:"shipping_zone"`
	SubtotalCents            int                 `json:"subtotal_cents"`
	DeliveryFeeOriginalCents int                 `json:"delivery_fee_original_cents"`
	DeliveryFeeCents         int                 `json:"delivery_fee_cents"`
	DiscountCents            int                 `json:"discount_cents"`
	ShippingDiscountCents    int                 `json:"shipping_discount_cents"`
	TaxCents                 int                 `json:"tax_cents"`
	TotalCents               int                 `json:"total_cents"`
	EstimatedDeliveryMinutes int                 `json:"estimated_delivery_minutes"`
	Items                    []orderItemResponse `json:"items"`
	ReservedAt               *time.Time          `json:"reserved_at,omitempty"`
	ConfirmedAt              *time.Time          `json:"confirmed_at,omitempty"`
	CancelledAt              *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt                time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	ProductName    string     `json:"product_name"`
	Qty            int        `json:"qty"`
	UnitPriceCents int        `json:"unit_price_cents"`
	LineTotalCents int        `json:"line_total_cents"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			ProductName:    item.ProductName,
			Qty:            item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return orderResponse{
		OrderID:                  order.ID,
		BranchID:                 order.BranchID,
		Status:                   string(order.Status),
		PaymentStatus:            string(order.PaymentStatus),
		PaymentMethod:            order.PaymentMethod,
		DeliveryAddress:          order.DeliveryAddress,
		ShippingZone:             string(order.ShippingZone),
		SubtotalCents:            order.SubtotalCents,
		DeliveryFeeOriginalCents: order.DeliveryFeeOriginalCents,
		DeliveryFeeCents:         order.DeliveryFeeCents,
		DiscountCents:            order.DiscountCents,
		ShippingDiscountCents:    order.ShippingDiscountCents,
		TaxCents:                 order.TaxCents,
		TotalCents:               order.TotalCents,
		EstimatedDeliveryMinutes: order.EstimatedDeliveryMinutes,
		Items:                    items,
		ReservedAt:               order.ReservedAt,
		ConfirmedAt:              order.ConfirmedAt,
		CancelledAt:              order.CancelledAt,
		CreatedAt:                order.CreatedAt,
	}
}
