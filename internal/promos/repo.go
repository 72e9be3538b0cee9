package promos

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bakehouse-labs/bakehouse-backend/pkg/db/models"
)

// Repository manages promo codes and their redemption bookkeeping.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.PromoCode, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PromoCode, error)
	CountUserUsage(ctx context.Context, promoID, userID uuid.UUID) (int64, error)
	IncrementUsageConditional(ctx context.Context, promoID uuid.UUID) (int64, error)
	CreateUsage(ctx context.Context, usage *models.PromoCodeUsage) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a promo repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindByCode matches case-insensitively; codes are stored lowercased.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var promo models.PromoCode
	err := r.db.WithContext(ctx).Where("code = ?", normalized).First(&promo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&promo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

func (r *repository) CountUserUsage(ctx context.Context, promoID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PromoCodeUsage{}).
		Where("promo_code_id = ? AND user_id = ?", promoID, userID).
		Count(&count).Error
	return count, err
}

// IncrementUsageConditional bumps usage_count only while the global limit
// holds. Zero rows affected means the limit was exhausted by a concurrent
// redemption.
func (r *repository) IncrementUsageConditional(ctx context.Context, promoID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.PromoCode{}).
		Where("id = ?", promoID).
		Where("usage_limit IS NULL OR usage_count < usage_limit").
		Update("usage_count", gorm.Expr("usage_count + 1"))
	return res.RowsAffected, res.Error
}

func (r *repository) CreateUsage(ctx context.Context, usage *models.PromoCodeUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}
