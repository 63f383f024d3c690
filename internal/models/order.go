package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
	PaymentStatusCOD     = "cod"

	OrderStatusPending        = "pending"
	OrderStatusProcessing     = "processing"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusPacked         = "packed"
	OrderStatusShipped        = "shipped"
	OrderStatusOutForDelivery = "out for delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"

	PaymentMethodCOD     = "cod"
	PaymentMethodPhonePe = "phonepe"
)

// OrderItem is a checkout-time snapshot of a cart line. Price is captured when
// the order is created and does not follow later product price changes.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
}

// OrderCustomer captures contact details as they were at checkout.
type OrderCustomer struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

// PaymentDetails holds the gateway-side identifiers for an online payment.
// Absent on cash-on-delivery orders.
type PaymentDetails struct {
	TransactionID string    `bson:"transactionId" json:"transactionId"`
	ProviderRef   string    `bson:"providerRef,omitempty" json:"providerRef,omitempty"`
	State         string    `bson:"state,omitempty" json:"state,omitempty"`
	ResponseCode  string    `bson:"responseCode,omitempty" json:"responseCode,omitempty"`
	InitiatedAt   time.Time `bson:"initiatedAt" json:"initiatedAt"`
}

// OrderUpdate is one fulfillment timeline entry. The last entry, when present,
// is the authoritative display status for tracking.
type OrderUpdate struct {
	Status string    `bson:"status" json:"status"`
	Note   string    `bson:"note,omitempty" json:"note,omitempty"`
	At     time.Time `bson:"at" json:"at"`
}

// Order is the canonical order document shared by the COD and gateway paths.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber     string             `bson:"orderNumber" json:"orderNumber"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	Customer        OrderCustomer      `bson:"customer" json:"customer"`
	ShippingAddress Address            `bson:"shippingAddress" json:"shippingAddress"`
	Items           []OrderItem        `bson:"items" json:"items"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	DiscountAmount  float64            `bson:"discountAmount" json:"discountAmount"`
	CouponCode      string             `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	PaymentStatus   string             `bson:"paymentStatus" json:"paymentStatus"`
	OrderStatus     string             `bson:"orderStatus" json:"orderStatus"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentDetails  *PaymentDetails    `bson:"paymentDetails,omitempty" json:"paymentDetails,omitempty"`
	Updates         []OrderUpdate      `bson:"updates" json:"updates"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
