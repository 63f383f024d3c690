package handlers

import (
	"errors"
	"testing"
	"time"

	"storefront/internal/models"
)

func activeCoupon() models.Coupon {
	now := time.Now()
	return models.Coupon{
		Code:            "SAVE10",
		DiscountType:    models.DiscountTypePercentage,
		DiscountValue:   10,
		MinimumAmount:   500,
		MaximumDiscount: 200,
		ValidFrom:       now.Add(-24 * time.Hour),
		ValidUntil:      now.Add(24 * time.Hour),
		IsActive:        true,
	}
}

func TestPercentageDiscountCappedAtMaximum(t *testing.T) {
	result, err := evaluateCoupon(activeCoupon(), 3000, nil, time.Now())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	// 10% of 3000 is 300, capped at 200.
	if result.DiscountAmount != 200 {
		t.Fatalf("expected discount 200, got %v", result.DiscountAmount)
	}
}

func TestCartBelowMinimumRejected(t *testing.T) {
	_, err := evaluateCoupon(activeCoupon(), 400, nil, time.Now())

	var rejection couponRejection
	if !errors.As(err, &rejection) {
		t.Fatalf("expected couponRejection, got %v", err)
	}
	if rejection.Reason != couponReasonBelowMinimum {
		t.Fatalf("expected BelowMinimum, got %s", rejection.Reason)
	}
}

func TestInactiveCouponRejected(t *testing.T) {
	coupon := activeCoupon()
	coupon.IsActive = false

	_, err := evaluateCoupon(coupon, 1000, nil, time.Now())
	var rejection couponRejection
	if !errors.As(err, &rejection) || rejection.Reason != couponReasonInvalid {
		t.Fatalf("expected InvalidCoupon, got %v", err)
	}
}

func TestExpiredCouponRejected(t *testing.T) {
	coupon := activeCoupon()
	coupon.ValidUntil = time.Now().Add(-time.Hour)

	_, err := evaluateCoupon(coupon, 1000, nil, time.Now())
	var rejection couponRejection
	if !errors.As(err, &rejection) || rejection.Reason != couponReasonExpired {
		t.Fatalf("expected Expired, got %v", err)
	}

	coupon = activeCoupon()
	coupon.ValidFrom = time.Now().Add(time.Hour)
	_, err = evaluateCoupon(coupon, 1000, nil, time.Now())
	if !errors.As(err, &rejection) || rejection.Reason != couponReasonExpired {
		t.Fatalf("expected Expired before validFrom, got %v", err)
	}
}

func TestCategoryRestrictedUsesMatchingSubtotal(t *testing.T) {
	coupon := activeCoupon()
	coupon.ApplicableCategories = models.StringList{"clothing"}

	items := []couponLineItem{
		{Price: 400, Quantity: 2, Category: []string{"clothing"}},
		{Price: 1000, Quantity: 1, Category: []string{"electronics"}},
	}

	result, err := evaluateCoupon(coupon, 1800, items, time.Now())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	// 10% of the 800 clothing subtotal, not of the 1800 cart.
	if result.DiscountAmount != 80 {
		t.Fatalf("expected discount 80, got %v", result.DiscountAmount)
	}
}

func TestCategoryRestrictedWithNoMatchRejected(t *testing.T) {
	coupon := activeCoupon()
	coupon.ApplicableCategories = models.StringList{"clothing"}

	items := []couponLineItem{
		{Price: 1000, Quantity: 1, Category: []string{"electronics"}},
	}

	_, err := evaluateCoupon(coupon, 1000, items, time.Now())
	var rejection couponRejection
	if !errors.As(err, &rejection) || rejection.Reason != couponReasonNotApplicable {
		t.Fatalf("expected NotApplicable, got %v", err)
	}
}

func TestFixedDiscountNeverExceedsBase(t *testing.T) {
	coupon := activeCoupon()
	coupon.DiscountType = models.DiscountTypeFixed
	coupon.DiscountValue = 900
	coupon.MinimumAmount = 0
	coupon.MaximumDiscount = 0

	result, err := evaluateCoupon(coupon, 600, nil, time.Now())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result.DiscountAmount != 600 {
		t.Fatalf("expected discount clamped to 600, got %v", result.DiscountAmount)
	}
}
