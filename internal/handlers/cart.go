package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/cartstore"
	"storefront/internal/models"
)

type cartSyncRequest struct {
	Items []cartstore.CartItem `json:"items"`
}

// GetUserCart returns the server copy of the cart in the store's wire shape.
func GetUserCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			log.Println("[CART] [ERROR] userId missing in context")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			log.Println("[CART] [ERROR] get cart failed:", err)
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		items := make([]cartstore.CartItem, 0, len(user.Cart))
		for _, line := range user.Cart {
			items = append(items, cartstore.CartItem{
				Product: cartstore.Product{
					ID:       line.ProductID.Hex(),
					Name:     line.Name,
					Price:    line.Price,
					Discount: line.Discount,
				},
				Quantity: line.Quantity,
				Size:     line.Size,
			})
		}

		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

// SyncUserCart replaces the server cart with the posted snapshot.
// Last-write-wins: no version check, the newest full list is the truth.
func SyncUserCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			log.Println("[CART] [ERROR] userId missing in context")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req cartSyncRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Println("[CART] [ERROR] invalid cart body:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		lines := make([]models.CartLine, 0, len(req.Items))
		for _, item := range req.Items {
			if item.Quantity < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be at least 1"})
				return
			}
			productID, err := primitive.ObjectIDFromHex(item.Product.ID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid productId"})
				return
			}
			lines = append(lines, models.CartLine{
				ProductID: productID,
				Name:      item.Product.Name,
				Price:     item.Product.Price,
				Discount:  item.Product.Discount,
				Size:      item.Size,
				Quantity:  item.Quantity,
			})
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$set": bson.M{
				"cart":      lines,
				"updatedAt": time.Now(),
			},
		})
		if err != nil {
			log.Println("[CART] [ERROR] cart sync failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "itemCount": len(lines)})
	}
}
