package controllers

import (
	"net/http"

	"github.com/bakehouse-labs/bakehouse-backend/api/responses"
	"github.com/bakehouse-labs/bakehouse-backend/api/validators"
	"github.com/bakehouse-labs/bakehouse-backend/internal/availability"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/logger"
)

// OrderingWindow reports the current ordering window and whether orders are
// accepted right now.
func OrderingWindow(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability service unavailable"))
			return
		}

		window, err := svc.Window(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		open, err := svc.IsOpen(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"window": window,
			"open":   open,
		})
	}
}

type rescheduleWindowRequest struct {
	Enabled  bool   `json:"enabled"`
	Open     string `json:"open" validate:"required_if=Enabled true,omitempty,len=5"`
	Close    string `json:"close" validate:"required_if=Enabled true,omitempty,len=5"`
	Timezone string `json:"timezone,omitempty" validate:"omitempty,max=64"`
}

// RescheduleWindow replaces the ordering window. Operator only.
func RescheduleWindow(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability service unavailable"))
			return
		}

		var payload rescheduleWindowRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		window := availability.Window{
			Enabled:  payload.Enabled,
			Open:     payload.Open,
			Close:    payload.Close,
			Timezone: payload.Timezone,
		}
		if err := svc.Reschedule(r.Context(), window); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, window)
	}
}
