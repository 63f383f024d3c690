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

	"storefront/internal/models"
)

type wishlistToggleRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

type wishlistReplaceRequest struct {
	ProductIDs []string `json:"productIds"`
}

// GetWishlist returns the favorited products in the order they were added.
func GetWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			log.Println("[WISHLIST] [ERROR] userId missing in context")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			log.Println("[WISHLIST] [ERROR] get wishlist failed:", err)
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		if len(user.Favorites) == 0 {
			c.JSON(http.StatusOK, gin.H{"data": []models.Product{}})
			return
		}

		cursor, err := db.Collection("products").Find(ctx, bson.M{
			"_id":       bson.M{"$in": user.Favorites},
			"isDeleted": bson.M{"$ne": true},
		})
		if err != nil {
			log.Println("[WISHLIST] [ERROR] list products failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0, len(user.Favorites))
		if err := cursor.All(ctx, &products); err != nil {
			log.Println("[WISHLIST] [ERROR] decode products failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		productByID := make(map[primitive.ObjectID]models.Product, len(products))
		for _, product := range products {
			product.InStock = product.Stock > 0
			productByID[product.ID] = product
		}

		ordered := make([]models.Product, 0, len(products))
		for _, favoriteID := range user.Favorites {
			if product, exists := productByID[favoriteID]; exists {
				ordered = append(ordered, product)
			}
		}

		c.JSON(http.StatusOK, gin.H{"data": ordered})
	}
}

// ToggleWishlist flips a single product in or out of the favorites list.
func ToggleWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			log.Println("[WISHLIST] [ERROR] userId missing in context")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req wishlistToggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Println("[WISHLIST] [ERROR] invalid body:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProductID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid productId"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := db.Collection("products").FindOne(ctx, bson.M{
			"_id":       productID,
			"isDeleted": bson.M{"$ne": true},
		}).Err(); err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid productId"})
				return
			}
			log.Println("[WISHLIST] [ERROR] product lookup failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		// Membership decides the direction of the toggle.
		alreadyFavorite := db.Collection("users").FindOne(ctx, bson.M{
			"_id":       userID,
			"favorites": productID,
		}).Err() == nil

		update := bson.M{
			"$addToSet": bson.M{"favorites": productID},
			"$set":      bson.M{"updatedAt": time.Now()},
		}
		if alreadyFavorite {
			update = bson.M{
				"$pull": bson.M{"favorites": productID},
				"$set":  bson.M{"updatedAt": time.Now()},
			}
		}

		res, err := db.Collection("users").UpdateByID(ctx, userID, update)
		if err != nil {
			log.Println("[WISHLIST] [ERROR] toggle failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"favorited": !alreadyFavorite})
	}
}

// ReplaceWishlist overwrites the whole favorites list; the store pushes full
// snapshots, last write wins.
func ReplaceWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			log.Println("[WISHLIST] [ERROR] userId missing in context")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req wishlistReplaceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Println("[WISHLIST] [ERROR] invalid body:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		ids := make([]primitive.ObjectID, 0, len(req.ProductIDs))
		for _, raw := range req.ProductIDs {
			id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid productId"})
				return
			}
			ids = append(ids, id)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$set": bson.M{
				"favorites": ids,
				"updatedAt": time.Now(),
			},
		})
		if err != nil {
			log.Println("[WISHLIST] [ERROR] replace failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(ids)})
	}
}
