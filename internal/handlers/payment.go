package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/config"
	"storefront/internal/email"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/payment"
)

type initiatePaymentRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

// InitiatePayment opens a gateway pay-page session for a pending order and
// returns the URL the client must redirect the shopper to. Re-initiating a
// pending order issues a fresh transaction id.
func InitiatePayment(db *mongo.Database, gateway *payment.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payments"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req initiatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		orderID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.OrderID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid orderId"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{
			"_id":    orderID,
			"userId": userID,
		}).Decode(&order); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if order.PaymentMethod != models.PaymentMethodPhonePe {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order does not use gateway payment"})
			return
		}
		if order.PaymentStatus != models.PaymentStatusPending {
			c.JSON(http.StatusConflict, gin.H{
				"error":         "order is not awaiting payment",
				"paymentStatus": order.PaymentStatus,
			})
			return
		}

		transactionID := newTransactionID()
		now := time.Now()

		// Attach the transaction only while the order is still pending; a
		// concurrent finalize must not be overwritten.
		res, err := db.Collection("orders").UpdateOne(ctx, bson.M{
			"_id":           orderID,
			"paymentStatus": models.PaymentStatusPending,
		}, bson.M{"$set": bson.M{
			"paymentDetails": models.PaymentDetails{
				TransactionID: transactionID,
				InitiatedAt:   now,
			},
			"updatedAt": now,
		}})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "order is not awaiting payment"})
			return
		}

		redirectURL, err := gateway.Initiate(ctx, payment.InitiateRequest{
			TransactionID: transactionID,
			UserID:        userID.Hex(),
			Amount:        orderAmountPaise(order.TotalAmount),
			RedirectURL:   config.AppEnv.PaymentRedirect + "?transactionId=" + transactionID,
			CallbackURL:   config.AppEnv.PaymentCallback,
		})
		if err != nil {
			log.Println("[PAYMENT] [ERROR] initiate failed:", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable"})
			return
		}

		log.Printf("[PAYMENT] [INFO] initiated %s for order %s", transactionID, order.OrderNumber)
		c.JSON(http.StatusOK, gin.H{
			"redirectUrl":   redirectURL,
			"transactionId": transactionID,
		})
	}
}

// PaymentStatus polls the gateway for a transaction and finalizes the order
// when the gateway has reached a terminal state. Clients retry on "pending".
func PaymentStatus(db *mongo.Database, gateway *payment.Client, producer *events.Producer, mailer *email.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /payments/status"
		defer handlePanic(c, route)

		transactionID := strings.TrimSpace(c.Query("transactionId"))
		if transactionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "transactionId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		result, err := gateway.Status(ctx, transactionID)
		if err != nil {
			log.Println("[PAYMENT] [ERROR] status check failed:", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable"})
			return
		}

		if result.State == payment.StatePending {
			c.JSON(http.StatusOK, gin.H{
				"transactionId": transactionID,
				"paymentStatus": models.PaymentStatusPending,
				"final":         false,
			})
			return
		}

		order, paymentStatus, err := finalizeOrderPayment(ctx, db, result, producer, mailer)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if order == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"transactionId": transactionID,
			"orderNumber":   order.OrderNumber,
			"paymentStatus": paymentStatus,
			"orderStatus":   order.OrderStatus,
			"final":         true,
		})
	}
}

type webhookRequest struct {
	Response string `json:"response" binding:"required"`
}

// PhonePeWebhook handles the server-to-server callback. The checksum is
// verified before the body is trusted; a mismatch is a hard 401.
func PhonePeWebhook(db *mongo.Database, gateway *payment.Client, producer *events.Producer, mailer *email.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /webhooks/phonepe"
		defer handlePanic(c, route)

		var req webhookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if err := gateway.VerifyWebhook(req.Response, c.GetHeader("X-VERIFY")); err != nil {
			log.Println("[PAYMENT] [WARN] webhook checksum mismatch")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		result, err := gateway.DecodeWebhook(req.Response)
		if err != nil {
			log.Println("[PAYMENT] [ERROR] webhook decode failed:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		if result.State == payment.StatePending {
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		order, _, err := finalizeOrderPayment(ctx, db, result, producer, mailer)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if order == nil {
			// Unknown transaction. Acknowledge anyway so the gateway stops
			// retrying a payload we can never match.
			log.Println("[PAYMENT] [WARN] webhook for unknown transaction:", result.TransactionID)
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// finalizeOrderPayment applies a terminal gateway result to the matching
// order exactly once. The conditional filter only matches orders still
// pending, so webhook deliveries and status polls can race freely; the loser
// reads back the already-finalized order. A nil order means the transaction
// id is unknown.
func finalizeOrderPayment(ctx context.Context, db *mongo.Database, result payment.StatusResult, producer *events.Producer, mailer *email.Service) (*models.Order, string, error) {
	paymentStatus, orderStatus, final := finalizeTransition(result.State)
	if !final {
		return nil, "", nil
	}

	now := time.Now()
	note := "payment failed"
	if paymentStatus == models.PaymentStatusPaid {
		note = "payment received"
	}

	res, err := db.Collection("orders").UpdateOne(ctx, bson.M{
		"paymentDetails.transactionId": result.TransactionID,
		"paymentStatus":                models.PaymentStatusPending,
	}, bson.M{
		"$set": bson.M{
			"paymentStatus":               paymentStatus,
			"orderStatus":                 orderStatus,
			"paymentDetails.state":        result.State,
			"paymentDetails.responseCode": result.ResponseCode,
			"paymentDetails.providerRef":  result.ProviderRef,
			"updatedAt":                   now,
		},
		"$push": bson.M{
			"updates": models.OrderUpdate{Status: orderStatus, Note: note, At: now},
		},
	})
	if err != nil {
		return nil, "", err
	}

	var order models.Order
	if err := db.Collection("orders").FindOne(ctx, bson.M{
		"paymentDetails.transactionId": result.TransactionID,
	}).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, "", nil
		}
		return nil, "", err
	}

	if res.MatchedCount == 0 {
		// Already finalized by an earlier delivery; report the stored state.
		return &order, order.PaymentStatus, nil
	}

	log.Printf("[PAYMENT] [INFO] transaction %s finalized as %s", result.TransactionID, paymentStatus)

	producer.PublishOrderStatusUpdated(ctx, orderEvent(order))
	if paymentStatus == models.PaymentStatusPaid {
		if err := mailer.SendOrderConfirmation(order); err != nil {
			log.Println("[PAYMENT] [ERROR] confirmation email failed:", err)
		}
	}
	return &order, paymentStatus, nil
}
