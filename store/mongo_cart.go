package store

import (
	"context"
	"time"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCartStore keeps one document per (user, product) in the carts collection
type MongoCartStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

func (s *MongoCartStore) ListCart(ctx context.Context, userID string) ([]models.CartItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.CartItem](ctx, cursor)
}

func (s *MongoCartStore) GetCartItem(ctx context.Context, id primitive.ObjectID) (*models.CartItem, error) {
	return findOne[models.CartItem](ctx, s.collection, bson.M{"_id": id})
}

func (s *MongoCartStore) FindCartItem(ctx context.Context, userID string, productID primitive.ObjectID) (*models.CartItem, error) {
	return findOne[models.CartItem](ctx, s.collection, bson.M{"userId": userID, "productId": productID})
}

func (s *MongoCartStore) InsertCartItem(ctx context.Context, item *models.CartItem) error {
	now := models.NewTimestamp(s.now())
	item.ID = primitive.NewObjectID()
	item.CreatedAt = now
	item.UpdatedAt = now
	_, err := s.collection.InsertOne(ctx, item)
	return err
}

func (s *MongoCartStore) IncrementQuantity(ctx context.Context, id primitive.ObjectID, delta int) error {
	return updateOne(ctx, s.collection, bson.M{"_id": id}, bson.M{
		"$inc":         bson.M{"quantity": delta},
		"$currentDate": bson.M{"updatedAt": true},
	})
}

func (s *MongoCartStore) SetQuantity(ctx context.Context, id primitive.ObjectID, quantity int) error {
	return updateOne(ctx, s.collection, bson.M{"_id": id}, bson.M{
		"$set":         bson.M{"quantity": quantity},
		"$currentDate": bson.M{"updatedAt": true},
	})
}

func (s *MongoCartStore) DeleteCartItem(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoCartStore) ClearCart(ctx context.Context, userID string) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
