package controllers

import (
	"net/http"

	"github.com/bakehouse-labs/bakehouse-backend/api/responses"
	"github.com/bakehouse-labs/bakehouse-backend/api/validators"
	"github.com/bakehouse-labs/bakehouse-backend/internal/promos"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/logger"
)

type validatePromoRequest struct {
	Code                     string `json:"code" validate:"required,min=1,max=40"`
	OrderTotalCents          int    `json:"order_total_cents" validate:"required,min=1"`
	DeliveryFeeOriginalCents int    `json:"delivery_fee_original_cents,omitempty" validate:"omitempty,min=0"`
}

type validatePromoResponse struct {
	Code                  string `json:"code"`
	DiscountCents         int    `json:"discount_cents"`
	ShippingDiscountCents int    `json:"shipping_discount_cents"`
	FinalTotalCents       int    `json:"final_total_cents"`
}

// ValidatePromo checks a promo code against the caller's cart figures
// without redeeming it.
func ValidatePromo(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload validatePromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eval, err := svc.Validate(r.Context(), payload.Code, promos.OrderContext{
			UserID:                   userID,
			OrderTotalCents:          payload.OrderTotalCents,
			DeliveryFeeOriginalCents: payload.DeliveryFeeOriginalCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, validatePromoResponse{
			Code:                  eval.Promo.Code,
			DiscountCents:         eval.DiscountCents,
			ShippingDiscountCents: eval.ShippingDiscountCents,
			FinalTotalCents:       eval.FinalTotalCents,
		})
	}
}
