package promos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bakehouse-labs/bakehouse-backend/pkg/db/models"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/enums"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
)

// OrderContext carries the order figures a promo is evaluated against.
// Amounts are integer cents.
type OrderContext struct {
	UserID                   uuid.UUID
	OrderTotalCents          int
	DeliveryFeeOriginalCents int
}

// Evaluation is the outcome of a successful validation. Exactly one of
// DiscountCents and ShippingDiscountCents is nonzero except for degenerate
// zero-value promos.
type Evaluation struct {
	Promo                 *models.PromoCode
	DiscountCents         int
	ShippingDiscountCents int
	FinalTotalCents       int
}

// Service validates promo codes and records redemptions. Validate is
// side-effect free; Redeem mutates and must run inside the order transaction.
type Service interface {
	Validate(ctx context.Context, code string, order OrderContext) (*Evaluation, error)
	Redeem(ctx context.Context, tx *gorm.DB, promoID, userID, orderID uuid.UUID, discountCents int) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires the promo evaluator with its repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Validate applies the rejection rules in order and short-circuits on the
// first failure: existence/active/window, then minimum order, then global
// usage, then per-user usage. The returned error names the failed rule.
func (s *service) Validate(ctx context.Context, code string, order OrderContext) (*Evaluation, error) {
	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if promo == nil || !promo.IsActive || now.Before(promo.ValidFrom) || now.After(promo.ValidUntil) {
		return nil, rejection(code, enums.PromoRejectExpiredOrInactive)
	}
	if promo.MinOrderAmountCents != nil && order.OrderTotalCents < *promo.MinOrderAmountCents {
		return nil, rejection(code, enums.PromoRejectBelowMinimum)
	}
	if promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
		return nil, rejection(code, enums.PromoRejectUsageExhausted)
	}
	if promo.UserUsageLimit != nil && order.UserID != uuid.Nil {
		used, err := s.repo.CountUserUsage(ctx, promo.ID, order.UserID)
		if err != nil {
			return nil, err
		}
		if used >= int64(*promo.UserUsageLimit) {
			return nil, rejection(code, enums.PromoRejectUserLimitReached)
		}
	}

	eval := &Evaluation{Promo: promo}
	switch promo.DiscountType {
	case enums.PromoDiscountPercentage:
		eval.DiscountCents = percentageDiscount(promo, order.OrderTotalCents)
	case enums.PromoDiscountFixedAmount:
		eval.DiscountCents = fixedDiscount(promo, order.OrderTotalCents)
	case enums.PromoDiscountFreeShipping:
		eval.ShippingDiscountCents = order.DeliveryFeeOriginalCents
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown discount type %q", promo.DiscountType))
	}

	final := order.OrderTotalCents - eval.DiscountCents
	if final < 0 {
		final = 0
	}
	eval.FinalTotalCents = final
	return eval, nil
}

// Redeem increments usage under the limit guard and writes the usage row.
// Callers pass the surrounding order transaction so the redemption commits
// or rolls back with the order.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, promoID, userID, orderID uuid.UUID, discountCents int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	repo := s.repo.WithTx(tx)

	affected, err := repo.IncrementUsageConditional(ctx, promoID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return rejection(promoID.String(), enums.PromoRejectUsageExhausted)
	}
	return repo.CreateUsage(ctx, &models.PromoCodeUsage{
		ID:                  uuid.New(),
		PromoCodeID:         promoID,
		UserID:              userID,
		OrderID:             orderID,
		DiscountAmountCents: discountCents,
	})
}

// percentageDiscount rounds half away from zero once, then caps at the
// configured maximum and at the order total.
func percentageDiscount(promo *models.PromoCode, orderTotalCents int) int {
	raw := decimal.NewFromInt(int64(orderTotalCents)).
		Mul(promo.DiscountValue).
		Div(decimal.NewFromInt(100))
	discount := int(raw.Round(0).IntPart())
	if promo.MaxDiscountAmountCents != nil && discount > *promo.MaxDiscountAmountCents {
		discount = *promo.MaxDiscountAmountCents
	}
	if discount > orderTotalCents {
		discount = orderTotalCents
	}
	return discount
}

// fixedDiscount converts the configured currency value to cents and floors
// the result at the order total so a total never goes negative.
func fixedDiscount(promo *models.PromoCode, orderTotalCents int) int {
	discount := int(promo.DiscountValue.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
	if discount > orderTotalCents {
		discount = orderTotalCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

func rejection(code string, reason enums.PromoRejectReason) error {
	return pkgerrors.New(pkgerrors.CodePromoInvalid, "promo code cannot be applied").
		WithDetails(map[string]any{"code": code, "reason": string(reason)})
}
