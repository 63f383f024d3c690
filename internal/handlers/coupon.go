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
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

type couponItemRequest struct {
	ProductID string   `json:"productId"`
	Price     float64  `json:"price" binding:"required"`
	Quantity  int      `json:"quantity" binding:"required"`
	Category  []string `json:"category"`
}

type validateCouponRequest struct {
	Code       string              `json:"code" binding:"required"`
	CartAmount float64             `json:"cartAmount" binding:"required"`
	Items      []couponItemRequest `json:"items"`
}

// ValidateCoupon checks a code against the cart and returns the discount the
// checkout should apply. Order creation re-runs the same evaluation so a
// stale client quote can never be persisted.
func ValidateCoupon(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /coupons/validate"
		defer handlePanic(c, route)

		var req validateCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		coupon, err := findCoupon(ctx, db, req.Code)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"error": "coupon not found", "reason": couponReasonInvalid})
				return
			}
			log.Println("[COUPON] [ERROR] lookup failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		items := make([]couponLineItem, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, couponLineItem{
				Price:    item.Price,
				Quantity: item.Quantity,
				Category: item.Category,
			})
		}

		result, err := evaluateCoupon(coupon, req.CartAmount, items, time.Now())
		if err != nil {
			var rejection couponRejection
			if errors.As(err, &rejection) {
				c.JSON(http.StatusBadRequest, gin.H{"error": rejection.Message, "reason": rejection.Reason})
				return
			}
			log.Println("[COUPON] [ERROR] evaluate failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"code":           result.Code,
			"type":           result.DiscountType,
			"value":          result.DiscountValue,
			"discountAmount": result.DiscountAmount,
		})
	}
}

func findCoupon(ctx context.Context, db *mongo.Database, code string) (models.Coupon, error) {
	var coupon models.Coupon
	err := db.Collection("coupons").FindOne(ctx, bson.M{
		"code": strings.ToUpper(strings.TrimSpace(code)),
	}).Decode(&coupon)
	return coupon, err
}
