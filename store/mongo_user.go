package store

import (
	"context"
	"time"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUserStore keeps profiles in the users collection, keyed by uid
type MongoUserStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

func (s *MongoUserStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	return findOne[models.User](ctx, s.collection, bson.M{"_id": uid})
}

func (s *MongoUserStore) CreateUser(ctx context.Context, user *models.User) error {
	now := models.NewTimestamp(s.now())
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := s.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoUserStore) UpdateProfile(ctx context.Context, uid string, update models.ProfileUpdate) (*models.User, error) {
	set := bson.M{}
	for field, value := range map[string]*string{
		"name":    update.Name,
		"gender":  update.Gender,
		"address": update.Address,
		"city":    update.City,
		"pincode": update.Pincode,
		"phone":   update.Phone,
	} {
		if value != nil {
			set[field] = *value
		}
	}
	if len(set) == 0 {
		return s.GetUser(ctx, uid)
	}
	return updateAndFetch[models.User](ctx, s.collection, bson.M{"_id": uid}, bson.M{
		"$set":         set,
		"$currentDate": bson.M{"updatedAt": true},
	})
}

func (s *MongoUserStore) SetEmailVerified(ctx context.Context, uid string) error {
	return updateOne(ctx, s.collection, bson.M{"_id": uid}, bson.M{
		"$set":         bson.M{"emailVerified": true},
		"$currentDate": bson.M{"updatedAt": true},
	})
}

// MongoAccountStore keeps credentials in the accounts collection
type MongoAccountStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

func (s *MongoAccountStore) CreateAccount(ctx context.Context, account *models.Account) error {
	account.CreatedAt = models.NewTimestamp(s.now())
	_, err := s.collection.InsertOne(ctx, account)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoAccountStore) GetAccount(ctx context.Context, uid string) (*models.Account, error) {
	return findOne[models.Account](ctx, s.collection, bson.M{"_id": uid})
}

func (s *MongoAccountStore) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return findOne[models.Account](ctx, s.collection, bson.M{"email": email})
}

func (s *MongoAccountStore) VerifyAccountEmail(ctx context.Context, uid string) error {
	return updateOne(ctx, s.collection, bson.M{"_id": uid}, bson.M{"$set": bson.M{"emailVerified": true}})
}

func (s *MongoAccountStore) SetAccountRole(ctx context.Context, uid, role string) error {
	return updateOne(ctx, s.collection, bson.M{"_id": uid}, bson.M{"$set": bson.M{"role": role}})
}
