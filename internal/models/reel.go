package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReelLike records a single user's like on a reel.
type ReelLike struct {
	UserID  primitive.ObjectID `bson:"userId" json:"userId"`
	LikedAt time.Time          `bson:"likedAt" json:"likedAt"`
}

// Reel is a short product-demo video browsable in the vertical feed. Likes is
// a denormalized counter kept in step with LikedBy inside one update.
type Reel struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	VideoURL    string              `bson:"videoUrl" json:"videoUrl"`
	ProductID   *primitive.ObjectID `bson:"productId,omitempty" json:"productId,omitempty"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Likes       int                 `bson:"likes" json:"likes"`
	Views       int                 `bson:"views" json:"views"`
	LikedBy     []ReelLike          `bson:"likedBy" json:"-"`
	IsActive    bool                `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}
