// Package store persists catalog, cart, order, profile and account documents.
package store

import (
	"context"
	"errors"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("store: document not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// ProductStore lists newest products first.
type ProductStore interface {
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// CreateProduct assigns ID, CreatedAt and UpdatedAt.
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, id primitive.ObjectID, update models.ProductUpdate) (*models.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
}

// CartStore lists a user's items oldest first.
type CartStore interface {
	ListCart(ctx context.Context, userID string) ([]models.CartItem, error)
	GetCartItem(ctx context.Context, id primitive.ObjectID) (*models.CartItem, error)
	FindCartItem(ctx context.Context, userID string, productID primitive.ObjectID) (*models.CartItem, error)
	// InsertCartItem assigns ID, CreatedAt and UpdatedAt.
	InsertCartItem(ctx context.Context, item *models.CartItem) error
	IncrementQuantity(ctx context.Context, id primitive.ObjectID, delta int) error
	SetQuantity(ctx context.Context, id primitive.ObjectID, quantity int) error
	DeleteCartItem(ctx context.Context, id primitive.ObjectID) error
	// ClearCart deletes every item of the user. Clearing an empty cart is not an error.
	ClearCart(ctx context.Context, userID string) (int64, error)
}

// OrderStore lists newest orders first.
type OrderStore interface {
	// InsertOrder assigns ID, CreatedAt and UpdatedAt.
	InsertOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	// SubmitPayment records the reference, moves the order to PAYMENT_SUBMITTED
	// and stamps PaymentSubmittedAt.
	SubmitPayment(ctx context.Context, id primitive.ObjectID, txnID string) (*models.Order, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
	OrderStats(ctx context.Context) (models.OrderStats, error)
}

type UserStore interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	// CreateUser assigns CreatedAt and UpdatedAt and fails with ErrDuplicate if the uid exists.
	CreateUser(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, uid string, update models.ProfileUpdate) (*models.User, error)
	SetEmailVerified(ctx context.Context, uid string) error
}

// AccountStore keeps credentials. Emails are unique.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	VerifyAccountEmail(ctx context.Context, uid string) error
	SetAccountRole(ctx context.Context, uid, role string) error
}

// Stores bundles one implementation of every store.
type Stores struct {
	Products ProductStore
	Carts    CartStore
	Orders   OrderStore
	Users    UserStore
	Accounts AccountStore
}
