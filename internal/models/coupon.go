package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

type Coupon struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code                 string             `bson:"code" json:"code"`
	Description          string             `bson:"description,omitempty" json:"description,omitempty"`
	DiscountType         string             `bson:"discountType" json:"discountType"`
	DiscountValue        float64            `bson:"discountValue" json:"discountValue"`
	MinimumAmount        float64            `bson:"minimumAmount" json:"minimumAmount"`
	MaximumDiscount      float64            `bson:"maximumDiscount" json:"maximumDiscount"`
	ValidFrom            time.Time          `bson:"validFrom" json:"validFrom"`
	ValidUntil           time.Time          `bson:"validUntil" json:"validUntil"`
	IsActive             bool               `bson:"isActive" json:"isActive"`
	ApplicableCategories StringList         `bson:"applicableCategories,omitempty" json:"applicableCategories,omitempty"`
	CreatedAt            time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt" json:"updatedAt"`
}
