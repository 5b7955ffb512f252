package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"kitchenviz/models"
)

type ProductStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// DecrementStock takes qty units off countInStock as one conditional
	// update; it reports false, nil when the product had fewer than qty
	// units (or no longer exists), leaving the document untouched.
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error)
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

type mongoProductStore struct {
	products *mongo.Collection
}

func NewProductStore(db *mongo.Database) ProductStore {
	return &mongoProductStore{products: db.Collection("products")}
}

func (s *mongoProductStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *mongoProductStore) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error) {
	res, err := s.products.UpdateOne(
		ctx,
		bson.M{"_id": id, "countInStock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"countInStock": -qty}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *mongoProductStore) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	_, err := s.products.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"countInStock": qty}},
	)
	return err
}
