package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressState mirrors the state picker on the checkout form.
type AddressState struct {
	Code  string `bson:"code" json:"code"`
	Title string `bson:"title" json:"title"`
}

// Address is a single address book entry. At most one entry per user carries
// IsDefault=true; the handlers enforce the invariant on every write.
type Address struct {
	ID           string       `bson:"id" json:"id"`
	Label        string       `bson:"label" json:"label"`
	FullName     string       `bson:"fullName" json:"fullName"`
	PhoneNumber  string       `bson:"phoneNumber" json:"phoneNumber"`
	AddressLine1 string       `bson:"addressLine1" json:"addressLine1"`
	AddressLine2 string       `bson:"addressLine2,omitempty" json:"addressLine2,omitempty"`
	City         string       `bson:"city" json:"city"`
	State        AddressState `bson:"state" json:"state"`
	Pincode      string       `bson:"pincode" json:"pincode"`
	IsDefault    bool         `bson:"isDefault" json:"isDefault"`
}

// CartLine is the server-side copy of one cart line. Identity is the pair
// (productId, size); quantity is always at least 1 in persisted state.
type CartLine struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Discount  float64            `bson:"discount" json:"discount"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// User is the shopper account document. Cart, favorites and liked reels live
// on the user so a whole-snapshot sync is a single document write.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Email        string               `bson:"email" json:"email"`
	PasswordHash string               `bson:"passwordHash" json:"-"`
	Name         string               `bson:"name" json:"name"`
	Phone        string               `bson:"phone,omitempty" json:"phone,omitempty"`
	Addresses    []Address            `bson:"addresses" json:"addresses"`
	Cart         []CartLine           `bson:"cart" json:"cart"`
	Favorites    []primitive.ObjectID `bson:"favorites" json:"favorites"`
	LikedReels   []primitive.ObjectID `bson:"likedReels" json:"likedReels"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}
