package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bakehouse-labs/bakehouse-backend/api/responses"
	"github.com/bakehouse-labs/bakehouse-backend/api/validators"
	"github.com/bakehouse-labs/bakehouse-backend/internal/branches"
	"github.com/bakehouse-labs/bakehouse-backend/internal/orders"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/db/models"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/logger"
)

type branchResponse struct {
	BranchID uuid.UUID `json:"branch_id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	Phone    *string   `json:"phone,omitempty"`
	Address  string    `json:"address"`
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
	IsActive bool      `json:"is_active"`
}

// ListBranches returns every branch, active or not. The storefront greys out
// inactive ones.
func ListBranches(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "branches service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]branchResponse, 0, len(list))
		for _, branch := range list {
			items = append(items, newBranchResponse(branch))
		}
		responses.WriteSuccess(w, items)
	}
}

func newBranchResponse(branch models.Branch) branchResponse {
	return branchResponse{
		BranchID: branch.ID,
		Name:     branch.Name,
		Slug:     branch.Slug,
		Phone:    branch.Phone,
		Address:  branch.Address,
		Lat:      branch.Location.Lat,
		Lng:      branch.Location.Lng,
		IsActive: branch.IsActive,
	}
}

type branchAvailabilityRequest struct {
	BranchIDs []uuid.UUID       `json:"branch_ids" validate:"required,min=1,max=50"`
	Lines     []cartLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// BranchAvailability reports whether each requested branch can satisfy the
// cart right now.
func BranchAvailability(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload branchAvailabilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]orders.LineInput, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, orders.LineInput{
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Qty:       line.Qty,
			})
		}

		availability, err := svc.CheckBranchAvailability(r.Context(), payload.BranchIDs, lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"branches": availability})
	}
}
