package handlers

import (
	"time"

	"storefront/internal/models"
)

const (
	couponReasonInvalid       = "InvalidCoupon"
	couponReasonExpired       = "Expired"
	couponReasonBelowMinimum  = "BelowMinimum"
	couponReasonNotApplicable = "NotApplicable"
)

type couponRejection struct {
	Reason  string
	Message string
}

func (e couponRejection) Error() string {
	return e.Message
}

// couponLineItem is the slice of a cart line the discount math needs.
type couponLineItem struct {
	Price    float64
	Quantity int
	Category []string
}

// couponResult is the successful outcome of a validation.
type couponResult struct {
	Code           string  `json:"code"`
	DiscountType   string  `json:"type"`
	DiscountValue  float64 `json:"value"`
	DiscountAmount float64 `json:"discountAmount"`
}

// evaluateCoupon applies the validity and discount rules. When the coupon is
// category-restricted the discount base is only the subtotal of matching
// lines; the result is capped at MaximumDiscount and never exceeds the base.
func evaluateCoupon(coupon models.Coupon, cartAmount float64, items []couponLineItem, now time.Time) (couponResult, error) {
	if !coupon.IsActive {
		return couponResult{}, couponRejection{Reason: couponReasonInvalid, Message: "coupon is not active"}
	}
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidUntil) {
		return couponResult{}, couponRejection{Reason: couponReasonExpired, Message: "coupon is expired"}
	}
	if cartAmount < coupon.MinimumAmount {
		return couponResult{}, couponRejection{Reason: couponReasonBelowMinimum, Message: "cart amount below coupon minimum"}
	}

	base := cartAmount
	if len(coupon.ApplicableCategories) > 0 {
		base = matchingSubtotal(items, coupon.ApplicableCategories)
		if base <= 0 {
			return couponResult{}, couponRejection{Reason: couponReasonNotApplicable, Message: "coupon does not apply to these items"}
		}
	}

	var discount float64
	switch coupon.DiscountType {
	case models.DiscountTypePercentage:
		discount = base * coupon.DiscountValue / 100
	case models.DiscountTypeFixed:
		discount = coupon.DiscountValue
	default:
		return couponResult{}, couponRejection{Reason: couponReasonInvalid, Message: "unknown discount type"}
	}

	if coupon.MaximumDiscount > 0 && discount > coupon.MaximumDiscount {
		discount = coupon.MaximumDiscount
	}
	if discount > base {
		discount = base
	}

	return couponResult{
		Code:           coupon.Code,
		DiscountType:   coupon.DiscountType,
		DiscountValue:  coupon.DiscountValue,
		DiscountAmount: discount,
	}, nil
}

func matchingSubtotal(items []couponLineItem, categories []string) float64 {
	allowed := make(map[string]bool, len(categories))
	for _, category := range categories {
		allowed[category] = true
	}

	subtotal := 0.0
	for _, item := range items {
		for _, category := range item.Category {
			if allowed[category] {
				subtotal += item.Price * float64(item.Quantity)
				break
			}
		}
	}
	return subtotal
}
