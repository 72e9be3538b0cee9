package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bakehouse-labs/bakehouse-backend/pkg/db/models"
)

// Repository manages persistence for branch inventory rows. All quantity
// mutations go through the conditional updates; nothing else writes
// reserved_qty.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, branchID, productID uuid.UUID, variantID *uuid.UUID) (*models.BranchInventory, error)
	ListForBranch(ctx context.Context, branchID uuid.UUID, productIDs []uuid.UUID) ([]models.BranchInventory, error)
	ReserveConditional(ctx context.Context, branchID, productID uuid.UUID, variantID *uuid.UUID, qty int) (int64, error)
	ReleaseConditional(ctx context.Context, branchID, productID uuid.UUID, variantID *uuid.UUID, qty int) (int64, error)
	ReleaseAll(ctx context.Context, branchID, productID uuid.UUID, variantID *uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, branchID, productID uuid.UUID, variantID *uuid.UUID) (*models.BranchInventory, error) {
	var row models.BranchInventory
	query := r.db.WithContext(ctx).
		Where("branch_id = ? AND product_id = ?", branchID, productID)
	query = scopeVariant(query, variantID)
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListForBranch(ctx context.Context, branchID uuid.UUID, productIDs []uuid.UUID) ([]models.BranchInventory, error) {
	var rows []models.BranchInventory
	query := r.db.WithContext(ctx).Where("branch_id = ?", branchID)
	if len(productIDs) > 0 {
		query = query.Where("product_id IN ?", productIDs)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ReserveConditional increments reserved_qty only when enough sellable stock
// remains. The returned row count is zero when the guard fails or no row
// matches, which callers disambiguate with Find.
func (r *repository) ReserveConditional(ctx context.Context, branchID, productID uuid.UUID, variantID *uuid.UUID, qty int) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BranchInventory{}).
		Where("branch_id = ? AND product_id = ?", branchID, productID).
		Where("is_available = ?", true).
		Where("stock_qty - reserved_qty >= ?", qty)
	query = scopeVariant(query, variantID)
	res := query.Update("reserved_qty", gorm.Expr("reserved_qty + ?", qty))
	return res.RowsAffected, res.Error
}

// ReleaseConditional decrements reserved_qty when at least qty is held.
func (r *repository) ReleaseConditional(ctx context.Context, branchID, productID uuid.UUID, variantID *uuid.UUID, qty int) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BranchInventory{}).
		Where("branch_id = ? AND product_id = ?", branchID, productID).
		Where("reserved_qty >= ?", qty)
	query = scopeVariant(query, variantID)
	res := query.Update("reserved_qty", gorm.Expr("reserved_qty - ?", qty))
	return res.RowsAffected, res.Error
}

// ReleaseAll zeroes the hold, used when a release request exceeds what is held.
func (r *repository) ReleaseAll(ctx context.Context, branchID, productID uuid.UUID, variantID *uuid.UUID) error {
	query := r.db.WithContext(ctx).Model(&models.BranchInventory{}).
		Where("branch_id = ? AND product_id = ?", branchID, productID)
	query = scopeVariant(query, variantID)
	return query.Update("reserved_qty", 0).Error
}

func scopeVariant(query *gorm.DB, variantID *uuid.UUID) *gorm.DB {
	if variantID == nil {
		return query.Where("variant_id IS NULL")
	}
	return query.Where("variant_id = ?", *variantID)
}
