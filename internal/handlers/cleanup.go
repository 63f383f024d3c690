package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

var errOrderNoLongerStale = errors.New("order no longer stale")

// restockQuantities aggregates an order's reserved quantities per product, so
// a product appearing on several lines (different sizes) is credited once.
func restockQuantities(items []models.OrderItem) map[primitive.ObjectID]int {
	quantities := make(map[primitive.ObjectID]int, len(items))
	for _, item := range items {
		quantities[item.ProductID] += item.Quantity
	}
	return quantities
}

// CleanupStaleOrders removes gateway orders that never reached a paid state
// within maxAge and returns their reserved stock. COD orders are confirmed at
// creation and are never matched. Invoked by the scheduler through the
// cron-secret gate.
func CleanupStaleOrders(db *mongo.Database, maxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cron/cleanup-failed-orders"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		reclaimable := bson.M{"$in": []string{models.PaymentStatusPending, models.PaymentStatusFailed}}
		cutoff := time.Now().Add(-maxAge)

		cursor, err := db.Collection("orders").Find(ctx, bson.M{
			"paymentStatus": reclaimable,
			"createdAt":     bson.M{"$lt": cutoff},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var stale []models.Order
		if err := cursor.All(ctx, &stale); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		session, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		deleted := int64(0)
		for _, order := range stale {
			orderID := order.ID
			quantities := restockQuantities(order.Items)

			// Delete and restock commit together. The delete is conditional
			// on the order still being reclaimable, so a replayed or
			// interrupted sweep cannot credit the same reservation twice.
			_, err := session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
				res, err := db.Collection("orders").DeleteOne(sessCtx, bson.M{
					"_id":           orderID,
					"paymentStatus": reclaimable,
				})
				if err != nil {
					return nil, err
				}
				if res.DeletedCount == 0 {
					return nil, errOrderNoLongerStale
				}

				for productID, quantity := range quantities {
					if _, err := db.Collection("products").UpdateOne(sessCtx,
						bson.M{"_id": productID},
						bson.M{"$inc": bson.M{"stock": quantity}}); err != nil {
						return nil, err
					}
				}
				return nil, nil
			})
			if err != nil {
				if errors.Is(err, errOrderNoLongerStale) {
					continue
				}
				log.Println("[CRON] [ERROR] stale order reclaim failed:", err)
				continue
			}
			deleted++
		}

		log.Printf("[CRON] [INFO] removed %d stale orders older than %s", deleted, maxAge)
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"deletedCount": deleted,
		})
	}
}
