package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/models"
	"storefront/internal/payment"
)

// newOrderNumber builds a server-issued, display-friendly order number. The
// unique index on orderNumber backs it; creation retries on a duplicate key.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

// newTransactionID issues the merchant transaction id sent to the gateway.
func newTransactionID() string {
	return "TXN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// creationStatus returns the status pair a new order starts in. Cash on
// delivery confirms in one step and never touches the gateway; everything
// else waits for payment.
func creationStatus(paymentMethod string) (paymentStatus, orderStatus string) {
	if paymentMethod == models.PaymentMethodCOD {
		return models.PaymentStatusCOD, models.OrderStatusConfirmed
	}
	return models.PaymentStatusPending, models.OrderStatusPending
}

// finalizeTransition maps a gateway state onto the order status pair. A
// pending state is not a transition; the client keeps polling.
func finalizeTransition(gatewayState string) (paymentStatus, orderStatus string, final bool) {
	switch gatewayState {
	case payment.StateCompleted:
		return models.PaymentStatusPaid, models.OrderStatusConfirmed, true
	case payment.StatePending:
		return "", "", false
	default:
		return models.PaymentStatusFailed, models.OrderStatusCancelled, true
	}
}

// displayStatus picks what tracking shows: the last fulfillment update when
// the timeline has one, otherwise the order status itself.
func displayStatus(order models.Order) string {
	if n := len(order.Updates); n > 0 {
		return order.Updates[n-1].Status
	}
	return order.OrderStatus
}

// orderAmountPaise converts the order total to the gateway's integer unit.
func orderAmountPaise(totalAmount float64) int64 {
	return int64(totalAmount*100 + 0.5)
}
