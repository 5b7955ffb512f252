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

func CreateCategory(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Category name is required"})
		return
	}
	name := strings.TrimSpace(body.Name)

	ctx, cancel := requestContext()
	defer cancel()

	var existing models.Category
	err := database.CategoryCollection.FindOne(ctx, bson.M{"name": name}).Decode(&existing)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "Category already exists"})
		return
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		slog.Error("category lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while creating category"})
		return
	}

	category := models.Category{
		ID:        primitive.NewObjectID(),
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if _, err := database.CategoryCollection.InsertOne(ctx, category); err != nil {
		slog.Error("category insert failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while creating category"})
		return
	}

	c.JSON(http.StatusCreated, category)
}

func GetCategories(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := database.CategoryCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		slog.Error("category list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching categories"})
		return
	}

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching categories"})
		return
	}

	c.JSON(http.StatusOK, categories)
}

func GetCategoryByID(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category ID."})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var category models.Category
	err = database.CategoryCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&category)
	if errors.Is(err, mongo.ErrNoDocuments) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Category not found"})
		return
	}
	if err != nil {
		slog.Error("category lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching category"})
		return
	}

	c.JSON(http.StatusOK, category)
}
