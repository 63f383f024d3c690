package handlers

import (
	"strings"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/payment"
)

func TestCreationStatusCODConfirmsInOneStep(t *testing.T) {
	paymentStatus, orderStatus := creationStatus(models.PaymentMethodCOD)
	if paymentStatus != models.PaymentStatusCOD || orderStatus != models.OrderStatusConfirmed {
		t.Fatalf("expected cod/confirmed, got %s/%s", paymentStatus, orderStatus)
	}
}

func TestCreationStatusGatewayAwaitsPayment(t *testing.T) {
	paymentStatus, orderStatus := creationStatus(models.PaymentMethodPhonePe)
	if paymentStatus != models.PaymentStatusPending || orderStatus != models.OrderStatusPending {
		t.Fatalf("expected pending/pending, got %s/%s", paymentStatus, orderStatus)
	}
}

func TestFinalizeTransitionCompleted(t *testing.T) {
	paymentStatus, orderStatus, final := finalizeTransition(payment.StateCompleted)
	if !final {
		t.Fatal("expected COMPLETED to finalize")
	}
	if paymentStatus != models.PaymentStatusPaid || orderStatus != models.OrderStatusConfirmed {
		t.Fatalf("expected paid/confirmed, got %s/%s", paymentStatus, orderStatus)
	}
}

func TestFinalizeTransitionPendingDoesNotFinalize(t *testing.T) {
	_, _, final := finalizeTransition(payment.StatePending)
	if final {
		t.Fatal("expected PENDING to leave the order untouched")
	}
}

func TestFinalizeTransitionFailureStates(t *testing.T) {
	for _, state := range []string{payment.StateFailed, "DECLINED", "TIMED_OUT", ""} {
		paymentStatus, orderStatus, final := finalizeTransition(state)
		if !final {
			t.Fatalf("expected %q to finalize", state)
		}
		if paymentStatus != models.PaymentStatusFailed || orderStatus != models.OrderStatusCancelled {
			t.Fatalf("expected failed/cancelled for %q, got %s/%s", state, paymentStatus, orderStatus)
		}
	}
}

func TestDisplayStatusPrefersLastTimelineEntry(t *testing.T) {
	order := models.Order{OrderStatus: models.OrderStatusConfirmed}
	if got := displayStatus(order); got != models.OrderStatusConfirmed {
		t.Fatalf("expected orderStatus fallback, got %s", got)
	}

	order.Updates = []models.OrderUpdate{
		{Status: models.OrderStatusPacked, At: time.Now().Add(-2 * time.Hour)},
		{Status: models.OrderStatusShipped, At: time.Now().Add(-time.Hour)},
	}
	if got := displayStatus(order); got != models.OrderStatusShipped {
		t.Fatalf("expected last update to win, got %s", got)
	}
}

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	number := newOrderNumber(now)

	if !strings.HasPrefix(number, "ORD-20260314-") {
		t.Fatalf("unexpected order number prefix: %s", number)
	}
	if len(number) != len("ORD-20260314-")+8 {
		t.Fatalf("unexpected order number length: %s", number)
	}
	if number == newOrderNumber(now) {
		t.Fatal("expected consecutive order numbers to differ")
	}
}

func TestOrderAmountPaiseRounds(t *testing.T) {
	if got := orderAmountPaise(1499.00); got != 149900 {
		t.Fatalf("expected 149900, got %d", got)
	}
	if got := orderAmountPaise(10.555); got != 1056 {
		t.Fatalf("expected rounding to 1056, got %d", got)
	}
}
