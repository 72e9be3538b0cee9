package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bakehouse-labs/bakehouse-backend/api/middleware"
	"github.com/bakehouse-labs/bakehouse-backend/api/responses"
	"github.com/bakehouse-labs/bakehouse-backend/api/validators"
	"github.com/bakehouse-labs/bakehouse-backend/internal/orders"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/logger"
)

type cartLineRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Qty       int        `json:"qty" validate:"required,min=1"`
}

type quoteRequest struct {
	Lines           []cartLineRequest `json:"lines" validate:"required,min=1,dive"`
	DeliveryAddress string            `json:"delivery_address,omitempty"`
	DeliveryLat     *float64          `json:"delivery_lat,omitempty" validate:"omitempty,latitude"`
	DeliveryLng     *float64          `json:"delivery_lng,omitempty" validate:"omitempty,longitude"`
	BranchID        *uuid.UUID        `json:"branch_id,omitempty"`
	PromoCode       string            `json:"promo_code,omitempty"`
}

// Quote prices a cart without touching inventory.
func Quote(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), newQuoteInput(userID, payload))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

func newQuoteInput(userID uuid.UUID, payload quoteRequest) orders.QuoteInput {
	lines := make([]orders.LineInput, 0, len(payload.Lines))
	for _, line := range payload.Lines {
		lines = append(lines, orders.LineInput{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Qty:       line.Qty,
		})
	}
	return orders.QuoteInput{
		UserID:          userID,
		Lines:           lines,
		DeliveryAddress: payload.DeliveryAddress,
		DeliveryLat:     payload.DeliveryLat,
		DeliveryLng:     payload.DeliveryLng,
		BranchID:        payload.BranchID,
		PromoCode:       payload.PromoCode,
	}
}

func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
