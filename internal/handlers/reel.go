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
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type reelLikeRequest struct {
	Liked *bool `json:"liked" binding:"required"`
}

// GetReels returns the vertical feed, newest first.
func GetReels(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reels"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("reels").Find(ctx, bson.M{
			"isActive": bson.M{"$ne": false},
		}, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		reels := make([]models.Reel, 0, limit)
		if err := cursor.All(ctx, &reels); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data": reels,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
			},
		})
	}
}

// CountReelView bumps the view counter. Fire-and-forget from the feed; no
// auth required.
func CountReelView(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reelID, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reel id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("reels").UpdateByID(ctx, reelID, bson.M{
			"$inc": bson.M{"views": 1},
		})
		if err != nil {
			log.Println("[REEL] [ERROR] view increment failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "reel not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// SetReelLike applies the client's desired like state. The likedBy membership
// filter makes the write conditional, so replays and double-submits cannot
// drift the likes counter.
func SetReelLike(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			log.Println("[REEL] [ERROR] userId missing in context")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		reelID, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reel id"})
			return
		}

		var req reelLikeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Println("[REEL] [ERROR] invalid like body:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		liked := *req.Liked

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := db.Collection("reels").FindOne(ctx, bson.M{"_id": reelID}).Err(); err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"error": "reel not found"})
				return
			}
			log.Println("[REEL] [ERROR] reel lookup failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		var filter, update bson.M
		if liked {
			filter = bson.M{
				"_id":            reelID,
				"likedBy.userId": bson.M{"$ne": userID},
			}
			update = bson.M{
				"$push": bson.M{"likedBy": models.ReelLike{UserID: userID, LikedAt: time.Now()}},
				"$inc":  bson.M{"likes": 1},
			}
		} else {
			filter = bson.M{
				"_id":            reelID,
				"likedBy.userId": userID,
			}
			update = bson.M{
				"$pull": bson.M{"likedBy": bson.M{"userId": userID}},
				"$inc":  bson.M{"likes": -1},
			}
		}

		if _, err := db.Collection("reels").UpdateOne(ctx, filter, update); err != nil {
			log.Println("[REEL] [ERROR] like update failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		// Mirror onto the user document so sign-in can rebuild local state.
		userUpdate := bson.M{
			"$addToSet": bson.M{"likedReels": reelID},
			"$set":      bson.M{"updatedAt": time.Now()},
		}
		if !liked {
			userUpdate = bson.M{
				"$pull": bson.M{"likedReels": reelID},
				"$set":  bson.M{"updatedAt": time.Now()},
			}
		}
		if _, err := db.Collection("users").UpdateByID(ctx, userID, userUpdate); err != nil {
			log.Println("[REEL] [ERROR] user likedReels update failed:", err)
		}

		var reel models.Reel
		if err := db.Collection("reels").FindOne(ctx, bson.M{"_id": reelID}).Decode(&reel); err != nil {
			log.Println("[REEL] [ERROR] reel reload failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"liked": liked, "likes": reel.Likes})
	}
}
