package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kitchenviz/database"
	"kitchenviz/models"
)

func CreateSlider(c *gin.Context) {
	var body struct {
		Name        string   `json:"name"`
		Image       []string `json:"image"`
		Description string   `json:"description"`
		Product     string   `json:"product"`
	}
	if err := c.ShouldBindJSON(&body); err != nil ||
		strings.TrimSpace(body.Name) == "" || len(body.Image) == 0 ||
		body.Description == "" || body.Product == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Required fields are missing or invalid."})
		return
	}

	productID, err := primitive.ObjectIDFromHex(body.Product)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product ID."})
		return
	}

	imageIDs := make([]primitive.ObjectID, 0, len(body.Image))
	for _, raw := range body.Image {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid media ID: " + raw})
			return
		}
		imageIDs = append(imageIDs, id)
	}

	ctx, cancel := requestContext()
	defer cancel()

	name := strings.TrimSpace(body.Name)
	var existing models.Slider
	err = database.SliderCollection.FindOne(ctx, bson.M{"name": name}).Decode(&existing)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "Slider with this name already exists."})
		return
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		slog.Error("slider lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while creating slider."})
		return
	}

	slider := models.Slider{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Image:       imageIDs,
		Description: body.Description,
		Product:     productID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if _, err := database.SliderCollection.InsertOne(ctx, slider); err != nil {
		slog.Error("slider insert failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while creating slider."})
		return
	}

	c.JSON(http.StatusCreated, slider)
}

// GetAllSliders joins each slider with its product and media documents.
func GetAllSliders(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         "products",
			"localField":   "product",
			"foreignField": "_id",
			"as":           "productDetails",
		}}},
		{{Key: "$unwind", Value: "$productDetails"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "media",
			"localField":   "image",
			"foreignField": "_id",
			"as":           "imageDetails",
		}}},
		{{Key: "$project", Value: bson.M{
			"name":        1,
			"description": 1,
			"createdAt":   1,
			"updatedAt":   1,
			"product":     "$productDetails",
			"image":       "$imageDetails",
		}}},
		{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
	}

	cursor, err := database.SliderCollection.Aggregate(ctx, pipeline)
	if err != nil {
		slog.Error("slider aggregation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching sliders."})
		return
	}

	sliders := []bson.M{}
	if err := cursor.All(ctx, &sliders); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching sliders."})
		return
	}

	c.JSON(http.StatusOK, sliders)
}

func UpdateSlider(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid slider ID."})
		return
	}

	var body struct {
		Name        *string  `json:"name"`
		Image       []string `json:"image"`
		Description *string  `json:"description"`
		Product     *string  `json:"product"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}

	update := bson.M{}
	if body.Name != nil {
		update["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Image != nil {
		imageIDs := make([]primitive.ObjectID, 0, len(body.Image))
		for _, raw := range body.Image {
			id, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid media ID: " + raw})
				return
			}
			imageIDs = append(imageIDs, id)
		}
		update["image"] = imageIDs
	}
	if body.Description != nil {
		update["description"] = *body.Description
	}
	if body.Product != nil {
		productID, err := primitive.ObjectIDFromHex(*body.Product)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product ID."})
			return
		}
		update["product"] = productID
	}
	update["updatedAt"] = time.Now()

	ctx, cancel := requestContext()
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Slider
	err = database.SliderCollection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$set": update}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Slider not found."})
		return
	}
	if err != nil {
		slog.Error("slider update failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while updating slider."})
		return
	}

	c.JSON(http.StatusOK, updated)
}

func DeleteSlider(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid slider ID."})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	res, err := database.SliderCollection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		slog.Error("slider delete failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while deleting slider."})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Slider not found."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Slider deleted successfully."})
}
