package store

import (
	"context"
	"time"

	"go-storefront/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOrderStore keeps orders in the orders collection
type MongoOrderStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

func (s *MongoOrderStore) InsertOrder(ctx context.Context, order *models.Order) error {
	now := models.NewTimestamp(s.now())
	order.ID = primitive.NewObjectID()
	order.CreatedAt = now
	order.UpdatedAt = now
	_, err := s.collection.InsertOne(ctx, order)
	return err
}

func (s *MongoOrderStore) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return findOne[models.Order](ctx, s.collection, bson.M{"_id": id})
}

func (s *MongoOrderStore) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["userId"] = filter.UserID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Order](ctx, cursor)
}

func (s *MongoOrderStore) SubmitPayment(ctx context.Context, id primitive.ObjectID, txnID string) (*models.Order, error) {
	return updateAndFetch[models.Order](ctx, s.collection, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"paymentTxnId": txnID,
			"status":       models.StatusPaymentSubmitted,
		},
		"$currentDate": bson.M{"updatedAt": true, "paymentSubmittedAt": true},
	})
}

func (s *MongoOrderStore) SetStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	return updateAndFetch[models.Order](ctx, s.collection, bson.M{"_id": id}, bson.M{
		"$set":         bson.M{"status": status},
		"$currentDate": bson.M{"updatedAt": true},
	})
}

type statusGroup struct {
	Status  models.OrderStatus `bson:"_id"`
	Count   int                `bson:"count"`
	Revenue decimal.Decimal    `bson:"revenue"`
}

func (s *MongoOrderStore) OrderStats(ctx context.Context) (models.OrderStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$totalAmount"}}},
		}}},
	}
	stats := models.NewOrderStats()
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return stats, err
	}
	groups, err := decodeAll[statusGroup](ctx, cursor)
	if err != nil {
		return stats, err
	}
	for _, group := range groups {
		stats.Add(group.Status, group.Count, group.Revenue)
	}
	return stats, nil
}
