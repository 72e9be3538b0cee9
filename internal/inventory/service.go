package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bakehouse-labs/bakehouse-backend/pkg/enums"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
)

// Reasons reported on failed reservation lines.
const (
	ReasonInsufficientStock = "insufficient_stock"
	ReasonNotAvailable      = "not_available"
)

// Line identifies a product (and optional variant) with a quantity.
type Line struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Qty       int
}

// Availability summarizes one inventory row for availability checks.
type Availability struct {
	ProductID    uuid.UUID
	VariantID    *uuid.UUID
	Status       enums.StockStatus
	AvailableQty int
}

// ReservationResult reports the outcome of one reservation line.
type ReservationResult struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Reserved  bool
	Reason    string
}

// BranchGate answers whether a branch can take reservations.
type BranchGate interface {
	IsActive(ctx context.Context, branchID uuid.UUID) (bool, error)
}

// Service exposes the inventory ledger operations.
type Service interface {
	CheckAvailability(ctx context.Context, branchID uuid.UUID, line Line) (Availability, error)
	CheckCart(ctx context.Context, branchID uuid.UUID, lines []Line) (bool, []Availability, error)
	Reserve(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, lines []Line) ([]ReservationResult, error)
	Release(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, lines []Line) error
}

type service struct {
	repo              Repository
	branches          BranchGate
	lowStockThreshold int
}

// NewService wires the inventory service with its repository and branch gate.
func NewService(repo Repository, branches BranchGate, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if branches == nil {
		return nil, fmt.Errorf("branch gate required")
	}
	if lowStockThreshold < 0 {
		lowStockThreshold = 0
	}
	return &service{repo: repo, branches: branches, lowStockThreshold: lowStockThreshold}, nil
}

// CheckAvailability reports the stock status for one line. A missing row, an
// inactive branch, or is_available=false all map to unavailable.
func (s *service) CheckAvailability(ctx context.Context, branchID uuid.UUID, line Line) (Availability, error) {
	out := Availability{ProductID: line.ProductID, VariantID: line.VariantID, Status: enums.StockStatusUnavailable}
	if branchID == uuid.Nil || line.ProductID == uuid.Nil {
		return out, pkgerrors.New(pkgerrors.CodeValidation, "branch id and product id are required")
	}

	active, err := s.branches.IsActive(ctx, branchID)
	if err != nil {
		return out, err
	}
	if !active {
		return out, nil
	}

	row, err := s.repo.Find(ctx, branchID, line.ProductID, line.VariantID)
	if err != nil {
		return out, err
	}
	if row == nil || !row.IsAvailable {
		return out, nil
	}

	available := row.AvailableQty()
	if available < 0 {
		available = 0
	}
	out.AvailableQty = available

	threshold := s.lowStockThreshold
	if row.MinStockLevel > 0 {
		threshold = row.MinStockLevel
	}

	switch {
	case available == 0:
		out.Status = enums.StockStatusOutOfStock
	case available <= threshold:
		out.Status = enums.StockStatusLowStock
	default:
		out.Status = enums.StockStatusAvailable
	}
	return out, nil
}

// CheckCart reports whether every line can be satisfied, plus the per-line
// availability. Read-only; used by branch selection.
func (s *service) CheckCart(ctx context.Context, branchID uuid.UUID, lines []Line) (bool, []Availability, error) {
	if len(lines) == 0 {
		return false, nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	results := make([]Availability, 0, len(lines))
	satisfied := true
	for _, line := range lines {
		if line.Qty <= 0 {
			return false, nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		avail, err := s.CheckAvailability(ctx, branchID, line)
		if err != nil {
			return false, nil, err
		}
		if avail.Status == enums.StockStatusUnavailable || avail.AvailableQty < line.Qty {
			satisfied = false
		}
		results = append(results, avail)
	}
	return satisfied, results, nil
}

// Reserve attempts each line with a single conditional update, walking lines
// in ascending product id (variant id tiebreak) so concurrent checkouts touch
// rows in the same order. Results are returned in the caller's line order.
// Reservation never creates rows; the caller releases successful lines when
// any line fails.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, lines []Line) ([]ReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if branchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
		}
	}

	repo := s.repo.WithTx(tx)

	active, err := s.branches.IsActive(ctx, branchID)
	if err != nil {
		return nil, err
	}

	order := stableLineOrder(lines)
	results := make([]ReservationResult, len(lines))
	for _, idx := range order {
		line := lines[idx]
		result := ReservationResult{ProductID: line.ProductID, VariantID: line.VariantID}
		if !active {
			result.Reason = ReasonNotAvailable
			results[idx] = result
			continue
		}
		affected, err := repo.ReserveConditional(ctx, branchID, line.ProductID, line.VariantID, line.Qty)
		if err != nil {
			return nil, err
		}
		if affected > 0 {
			result.Reserved = true
			results[idx] = result
			continue
		}
		row, err := repo.Find(ctx, branchID, line.ProductID, line.VariantID)
		if err != nil {
			return nil, err
		}
		if row == nil || !row.IsAvailable {
			result.Reason = ReasonNotAvailable
		} else {
			result.Reason = ReasonInsufficientStock
		}
		results[idx] = result
	}
	return results, nil
}

// Release returns held quantities, clamping at zero when the request exceeds
// the current hold. It never fails on missing rows.
func (s *service) Release(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, lines []Line) error {
	if branchID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	for _, idx := range stableLineOrder(lines) {
		line := lines[idx]
		if line.Qty <= 0 {
			continue
		}
		affected, err := repo.ReleaseConditional(ctx, branchID, line.ProductID, line.VariantID, line.Qty)
		if err != nil {
			return err
		}
		if affected == 0 {
			if err := repo.ReleaseAll(ctx, branchID, line.ProductID, line.VariantID); err != nil {
				return err
			}
		}
	}
	return nil
}

// stableLineOrder returns indexes sorted by product id with variant tiebreak.
func stableLineOrder(lines []Line) []int {
	order := make([]int, len(lines))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		la, lb := lines[order[a]], lines[order[b]]
		if la.ProductID != lb.ProductID {
			return la.ProductID.String() < lb.ProductID.String()
		}
		return variantKey(la.VariantID) < variantKey(lb.VariantID)
	})
	return order
}

func variantKey(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
