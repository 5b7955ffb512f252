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

func CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Required fields are missing or invalid."})
		return
	}
	product.Name = strings.TrimSpace(product.Name)

	ctx, cancel := requestContext()
	defer cancel()

	var existing models.Product
	err := database.ProductCollection.FindOne(ctx, bson.M{"name": product.Name}).Decode(&existing)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "Product with this name already exists."})
		return
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		slog.Error("product lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while creating product."})
		return
	}

	product.ID = primitive.NewObjectID()
	product.Rating = 0
	product.NumReviews = 0
	product.Reviews = []models.Review{}
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	if _, err := database.ProductCollection.InsertOne(ctx, product); err != nil {
		slog.Error("product insert failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while creating product."})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProducts returns all products with their category name joined,
// newest first.
func GetProducts(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         "categories",
			"localField":   "category",
			"foreignField": "_id",
			"as":           "categoryDetails",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$categoryDetails", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
	}

	cursor, err := database.ProductCollection.Aggregate(ctx, pipeline)
	if err != nil {
		slog.Error("product aggregation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching products."})
		return
	}

	products := []bson.M{}
	if err := cursor.All(ctx, &products); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching products."})
		return
	}

	c.JSON(http.StatusOK, products)
}

func GetProductByID(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product ID."})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var product models.Product
	err = database.ProductCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found."})
		return
	}
	if err != nil {
		slog.Error("product lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching product."})
		return
	}

	c.JSON(http.StatusOK, product)
}

func UpdateProduct(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product ID."})
		return
	}

	var body struct {
		Name                   *string               `json:"name"`
		Image                  []primitive.ObjectID  `json:"image"`
		Category               *primitive.ObjectID   `json:"category"`
		Description            *string               `json:"description"`
		Price                  *float64              `json:"price"`
		CountInStock           *int                  `json:"countInStock"`
		ProductDiscountedPrice *float64              `json:"productDiscountedPrice"`
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
		update["image"] = body.Image
	}
	if body.Category != nil {
		update["category"] = *body.Category
	}
	if body.Description != nil {
		update["description"] = *body.Description
	}
	if body.Price != nil {
		update["price"] = *body.Price
	}
	if body.CountInStock != nil {
		update["countInStock"] = *body.CountInStock
	}
	if body.ProductDiscountedPrice != nil {
		update["productDiscountedPrice"] = *body.ProductDiscountedPrice
	}
	update["updatedAt"] = time.Now()

	ctx, cancel := requestContext()
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Product
	err = database.ProductCollection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$set": update}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found."})
		return
	}
	if err != nil {
		slog.Error("product update failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while updating product."})
		return
	}

	c.JSON(http.StatusOK, updated)
}

func DeleteProduct(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product ID."})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	res, err := database.ProductCollection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		slog.Error("product delete failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while deleting product."})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully."})
}
