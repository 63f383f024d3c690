package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/email"
	"storefront/internal/events"
	"storefront/internal/models"
)

type createOrderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Size      string `json:"size"`
}

type createOrderRequest struct {
	Items      []createOrderItemRequest `json:"items" binding:"required"`
	AddressID  string                   `json:"addressId" binding:"required"`
	CouponCode string                   `json:"couponCode"`
}

type outOfStockError struct {
	ProductID primitive.ObjectID
	Available int
	Requested int
}

func (e outOfStockError) Error() string {
	return "product out of stock"
}

type productNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e productNotFoundError) Error() string {
	return "product not found"
}

// CreateOrder starts the gateway payment path: the order is persisted as
// pending/pending with stock already reserved, and the client follows up with
// POST /payments to get the redirect URL.
func CreateOrder(db *mongo.Database, producer *events.Producer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		order, ok := assembleAndInsertOrder(c, db, route, models.PaymentMethodPhonePe)
		if !ok {
			return
		}

		producer.PublishOrderCreated(c.Request.Context(), orderEvent(order))

		c.JSON(http.StatusCreated, gin.H{
			"orderId":     order.ID.Hex(),
			"orderNumber": order.OrderNumber,
			"totalAmount": order.TotalAmount,
			"message":     "order created, awaiting payment",
		})
	}
}

// CreateCODOrder persists a cash-on-delivery order as confirmed in one step.
// No gateway call is ever made on this path.
func CreateCODOrder(db *mongo.Database, producer *events.Producer, mailer *email.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/cod"
		defer handlePanic(c, route)

		order, ok := assembleAndInsertOrder(c, db, route, models.PaymentMethodCOD)
		if !ok {
			return
		}

		producer.PublishOrderCreated(c.Request.Context(), orderEvent(order))
		if err := mailer.SendOrderConfirmation(order); err != nil {
			log.Println("[ORDER] [ERROR] confirmation email failed:", err)
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderId":     order.ID.Hex(),
			"orderNumber": order.OrderNumber,
			"totalAmount": order.TotalAmount,
			"message":     "order confirmed",
		})
	}
}

// assembleAndInsertOrder runs the shared creation flow: resolve the shopper
// and address, reserve stock and capture prices in one transaction, re-run
// coupon validation server-side, and insert the order document. Responses for
// every failure mode are written here; the bool reports success.
func assembleAndInsertOrder(c *gin.Context, db *mongo.Database, route, paymentMethod string) (models.Order, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		log.Println("[ORDER] [ERROR] userId missing in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return models.Order{}, false
	}

	if err := ensureDBConnection(c.Request.Context(), db); err != nil {
		respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
		return models.Order{}, false
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return models.Order{}, false
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one item is required"})
		return models.Order{}, false
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be greater than zero"})
			return models.Order{}, false
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		log.Println("[ORDER] [ERROR] user lookup failed:", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return models.Order{}, false
	}

	var shippingAddress *models.Address
	for i := range user.Addresses {
		if user.Addresses[i].ID == strings.TrimSpace(req.AddressID) {
			shippingAddress = &user.Addresses[i]
			break
		}
	}
	if shippingAddress == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
		return models.Order{}, false
	}

	session, err := db.Client().StartSession()
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return models.Order{}, false
	}
	defer session.EndSession(ctx)

	now := time.Now()
	order := models.Order{
		UserID: userID,
		Customer: models.OrderCustomer{
			Name:  user.Name,
			Email: user.Email,
		},
		ShippingAddress: *shippingAddress,
		PaymentMethod:   paymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.PaymentStatus, order.OrderStatus = creationStatus(paymentMethod)
	note := "awaiting payment"
	if paymentMethod == models.PaymentMethodCOD {
		note = "order placed"
	}
	order.Updates = []models.OrderUpdate{{Status: order.OrderStatus, Note: note, At: now}}

	createOrder := func(sessCtx mongo.SessionContext) (interface{}, error) {
		items := make([]models.OrderItem, 0, len(req.Items))
		total := 0.0
		couponItems := make([]couponLineItem, 0, len(req.Items))

		for _, item := range req.Items {
			productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(item.ProductID))
			if err != nil {
				return nil, errors.New("invalid productId")
			}

			var product models.Product
			err = db.Collection("products").FindOne(sessCtx, bson.M{
				"_id":       productID,
				"isDeleted": bson.M{"$ne": true},
			}).Decode(&product)
			if err == mongo.ErrNoDocuments {
				return nil, productNotFoundError{ProductID: productID}
			}
			if err != nil {
				return nil, err
			}

			if product.Stock < item.Quantity {
				return nil, outOfStockError{
					ProductID: productID,
					Available: product.Stock,
					Requested: item.Quantity,
				}
			}

			// Conditional decrement closes the lost-update window between the
			// read above and this write.
			res, err := db.Collection("products").UpdateOne(sessCtx, bson.M{
				"_id":       productID,
				"isDeleted": bson.M{"$ne": true},
				"stock":     bson.M{"$gte": item.Quantity},
			}, bson.M{"$inc": bson.M{"stock": -item.Quantity}})
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, outOfStockError{
					ProductID: productID,
					Available: product.Stock,
					Requested: item.Quantity,
				}
			}

			items = append(items, models.OrderItem{
				ProductID: productID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  item.Quantity,
				Size:      strings.TrimSpace(item.Size),
			})
			couponItems = append(couponItems, couponLineItem{
				Price:    product.Price,
				Quantity: item.Quantity,
				Category: []string(product.Category),
			})
			total += product.Price * float64(item.Quantity)
		}

		discount := 0.0
		if code := strings.TrimSpace(req.CouponCode); code != "" {
			coupon, err := findCoupon(sessCtx, db, code)
			if err != nil {
				if err == mongo.ErrNoDocuments {
					return nil, couponRejection{Reason: couponReasonInvalid, Message: "coupon not found"}
				}
				return nil, err
			}
			result, err := evaluateCoupon(coupon, total, couponItems, now)
			if err != nil {
				return nil, err
			}
			discount = result.DiscountAmount
			order.CouponCode = result.Code
		}

		order.Items = items
		order.DiscountAmount = discount
		order.TotalAmount = total - discount

		order.OrderNumber = newOrderNumber(now)
		res, err := db.Collection("orders").InsertOne(sessCtx, order)
		if err != nil {
			return nil, err
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			order.ID = id
		}
		return nil, nil
	}

	_, err = session.WithTransaction(ctx, createOrder)
	if mongo.IsDuplicateKeyError(err) {
		// Order number collision. The aborted transaction rolled every write
		// back, so the whole callback runs again with a fresh draw.
		_, err = session.WithTransaction(ctx, createOrder)
	}
	if err != nil {
		respondOrderCreationError(c, route, err)
		return models.Order{}, false
	}

	log.Printf("[ORDER] [INFO] %s order %s created for user %s", paymentMethod, order.OrderNumber, userID.Hex())
	return order, true
}

func respondOrderCreationError(c *gin.Context, route string, err error) {
	var stockErr outOfStockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "insufficient stock",
			"productId": stockErr.ProductID.Hex(),
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
		return
	}

	var notFoundErr productNotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "product not found",
			"productId": notFoundErr.ProductID.Hex(),
		})
		return
	}

	var rejection couponRejection
	if errors.As(err, &rejection) {
		c.JSON(http.StatusBadRequest, gin.H{"error": rejection.Message, "reason": rejection.Reason})
		return
	}

	if err.Error() == "invalid productId" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid productId"})
		return
	}

	respondWithError(c, http.StatusInternalServerError, route, "db error")
}

func orderEvent(order models.Order) events.OrderEvent {
	return events.OrderEvent{
		OrderID:       order.ID.Hex(),
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID.Hex(),
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		OrderStatus:   order.OrderStatus,
		Timestamp:     time.Now(),
	}
}

// GetMyOrders lists the signed-in shopper's orders, newest first.
func GetMyOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := db.Collection("orders").Find(ctx, bson.M{"userId": userID}, findOptions)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

// GetOrderTracking returns one order with its resolved display status.
func GetOrderTracking(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Query("orderId")))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid orderId"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{
			"_id":    orderID,
			"userId": userID,
		}).Decode(&order); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"order":         order,
			"displayStatus": displayStatus(order),
		})
	}
}

type trackingUpdateRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Status  string `json:"status" binding:"required"`
	Note    string `json:"note"`
}

var fulfillmentStatuses = map[string]bool{
	models.OrderStatusProcessing:     true,
	models.OrderStatusPacked:         true,
	models.OrderStatusShipped:        true,
	models.OrderStatusOutForDelivery: true,
	models.OrderStatusDelivered:      true,
	models.OrderStatusCancelled:      true,
}

// AppendTrackingUpdate is the fulfillment-side hook: it appends a timeline
// entry and moves orderStatus along. Delivered orders are terminal.
func AppendTrackingUpdate(db *mongo.Database, producer *events.Producer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/tracking"
		defer handlePanic(c, route)

		var req trackingUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		status := strings.TrimSpace(req.Status)
		if !fulfillmentStatuses[status] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}

		orderID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.OrderID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid orderId"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		res, err := db.Collection("orders").UpdateOne(ctx, bson.M{
			"_id":         orderID,
			"orderStatus": bson.M{"$nin": []string{models.OrderStatusDelivered}},
		}, bson.M{
			"$set": bson.M{
				"orderStatus": status,
				"updatedAt":   now,
			},
			"$push": bson.M{
				"updates": models.OrderUpdate{Status: status, Note: strings.TrimSpace(req.Note), At: now},
			},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found or already delivered"})
			return
		}

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err == nil {
			producer.PublishOrderStatusUpdated(c.Request.Context(), orderEvent(order))
		}

		log.Printf("[ORDER] [INFO] tracking update %s applied to %s", status, orderID.Hex())
		c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
	}
}
