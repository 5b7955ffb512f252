package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kitchenviz/models"
)

// ErrNotFound is returned when an id does not resolve to a document.
var ErrNotFound = errors.New("document not found")

type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) (primitive.ObjectID, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindAll(ctx context.Context) ([]models.Order, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Order, error)
	FindDetail(ctx context.Context, id primitive.ObjectID) (bson.M, error)
}

type mongoOrderStore struct {
	orders *mongo.Collection
}

func NewOrderStore(db *mongo.Database) OrderStore {
	return &mongoOrderStore{orders: db.Collection("orders")}
}

func (s *mongoOrderStore) Insert(ctx context.Context, order *models.Order) (primitive.ObjectID, error) {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := s.orders.InsertOne(ctx, order); err != nil {
		return primitive.NilObjectID, err
	}
	return order.ID, nil
}

func (s *mongoOrderStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.orders.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *mongoOrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *mongoOrderStore) FindAll(ctx context.Context) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.orders.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *mongoOrderStore) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Order
	err := s.orders.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// FindDetail joins each line item with its product document and the
// product's media images, reshaped back into a single order document.
func (s *mongoOrderStore) FindDetail(ctx context.Context, id primitive.ObjectID) (bson.M, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$unwind", Value: "$orderItems"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "products",
			"localField":   "orderItems.product",
			"foreignField": "_id",
			"as":           "productDetails",
		}}},
		{{Key: "$unwind", Value: "$productDetails"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "media",
			"localField":   "productDetails.image",
			"foreignField": "_id",
			"as":           "productImages",
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":             "$_id",
			"shippingAddress": bson.M{"$first": "$shippingAddress"},
			"contactDetails":  bson.M{"$first": "$contactDetails"},
			"paymentMethod":   bson.M{"$first": "$paymentMethod"},
			"paymentResult":   bson.M{"$first": "$paymentResult"},
			"itemsPrice":      bson.M{"$first": "$itemsPrice"},
			"shippingPrice":   bson.M{"$first": "$shippingPrice"},
			"totalPrice":      bson.M{"$first": "$totalPrice"},
			"status":          bson.M{"$first": "$status"},
			"paymentStatus":   bson.M{"$first": "$paymentStatus"},
			"isPaid":          bson.M{"$first": "$isPaid"},
			"paidAt":          bson.M{"$first": "$paidAt"},
			"orderItems": bson.M{"$push": bson.M{
				"name":           "$orderItems.name",
				"quantity":       "$orderItems.quantity",
				"price":          "$orderItems.price",
				"product":        "$orderItems.product",
				"productDetails": "$productDetails",
				"productImages":  "$productImages",
			}},
		}}},
	}

	cursor, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results[0], nil
}
