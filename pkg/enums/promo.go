package enums

import "fmt"

// PromoDiscountType describes how a promo code reduces the order total.
type PromoDiscountType string

const (
	PromoDiscountPercentage   PromoDiscountType = "percentage"
	PromoDiscountFixedAmount  PromoDiscountType = "fixed_amount"
	PromoDiscountFreeShipping PromoDiscountType = "free_shipping"
)

var validPromoDiscountTypes = []PromoDiscountType{
	PromoDiscountPercentage,
	PromoDiscountFixedAmount,
	PromoDiscountFreeShipping,
}

// IsValid reports whether the value is a known PromoDiscountType.
func (p PromoDiscountType) IsValid() bool {
	for _, candidate := range validPromoDiscountTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromoDiscountType converts the raw string to PromoDiscountType.
func ParsePromoDiscountType(value string) (PromoDiscountType, error) {
	for _, candidate := range validPromoDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promo discount type %q", value)
}

// PromoRejectReason names the first validation rule a promo code failed.
type PromoRejectReason string

const (
	PromoRejectExpiredOrInactive PromoRejectReason = "expired_or_inactive"
	PromoRejectBelowMinimum      PromoRejectReason = "below_minimum"
	PromoRejectUsageExhausted    PromoRejectReason = "usage_exhausted"
	PromoRejectUserLimitReached  PromoRejectReason = "user_limit_reached"
)
