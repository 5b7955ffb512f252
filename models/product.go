package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	Name      string    `bson:"name" json:"name"`
	Comment   string    `bson:"comment" json:"comment"`
	Rating    float64   `bson:"rating" json:"rating"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Product struct {
	ID                     primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name                   string               `bson:"name" json:"name" binding:"required"`
	Image                  []primitive.ObjectID `bson:"image,omitempty" json:"image,omitempty"`
	Category               primitive.ObjectID   `bson:"category" json:"category" binding:"required"`
	Description            string               `bson:"description" json:"description" binding:"required"`
	Price                  float64              `bson:"price,omitempty" json:"price"`
	CountInStock           int                  `bson:"countInStock" json:"countInStock"`
	ProductDiscountedPrice float64              `bson:"productDiscountedPrice" json:"productDiscountedPrice"`
	Rating                 float64              `bson:"rating,omitempty" json:"rating"`
	NumReviews             int                  `bson:"numReviews,omitempty" json:"numReviews"`
	Reviews                []Review             `bson:"reviews" json:"reviews"`
	CreatedAt              time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time            `bson:"updatedAt" json:"updatedAt"`
}
