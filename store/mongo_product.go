package store

import (
	"context"
	"regexp"
	"time"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProductStore keeps products in the products collection
type MongoProductStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

func (s *MongoProductStore) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(filter.Category) + "$", Options: "i"}
	}
	if filter.Featured != nil {
		query["featured"] = *filter.Featured
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Product](ctx, cursor)
}

func (s *MongoProductStore) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return findOne[models.Product](ctx, s.collection, bson.M{"_id": id})
}

func (s *MongoProductStore) CreateProduct(ctx context.Context, product *models.Product) error {
	now := models.NewTimestamp(s.now())
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	_, err := s.collection.InsertOne(ctx, product)
	return err
}

func (s *MongoProductStore) UpdateProduct(ctx context.Context, id primitive.ObjectID, update models.ProductUpdate) (*models.Product, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Price != nil {
		set["price"] = *update.Price
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.Image != nil {
		set["image"] = *update.Image
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Featured != nil {
		set["featured"] = *update.Featured
	}
	if len(set) == 0 {
		return s.GetProduct(ctx, id)
	}
	return updateAndFetch[models.Product](ctx, s.collection, bson.M{"_id": id}, bson.M{
		"$set":         set,
		"$currentDate": bson.M{"updatedAt": true},
	})
}

func (s *MongoProductStore) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
