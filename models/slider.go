package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Slider is a promotional entry pointing at a product, with media images
// joined from the media collection when listed.
type Slider struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Image       []primitive.ObjectID `bson:"image" json:"image"`
	Description string               `bson:"description" json:"description"`
	Product     primitive.ObjectID   `bson:"product" json:"product"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}
