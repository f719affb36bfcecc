package models

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxLineQuantity caps the quantity of a single cart row or order line.
const MaxLineQuantity = 1000

// ValidQuantity reports whether q is an acceptable line quantity.
func ValidQuantity(q int) bool {
	return q >= 1 && q <= MaxLineQuantity
}

// CartItem is one (user, product) row of a cart
type CartItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"userId"`
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     decimal.Decimal    `bson:"price" json:"price"`
	Image     string             `bson:"image" json:"image"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	CreatedAt Timestamp          `bson:"createdAt" json:"createdAt"`
	UpdatedAt Timestamp          `bson:"updatedAt" json:"updatedAt"`
}

func (c CartItem) LineTotal() decimal.Decimal {
	return c.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// Cart represents a user's shopping cart
type Cart struct {
	Items    []CartItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Count    int             `json:"count"`
}

func NewCart(items []CartItem) Cart {
	if items == nil {
		items = []CartItem{}
	}
	cart := Cart{Items: items, Subtotal: decimal.Zero}
	for _, item := range items {
		cart.Subtotal = cart.Subtotal.Add(item.LineTotal())
		cart.Count += item.Quantity
	}
	return cart
}

// CartProductRef identifies the product being added
type CartProductRef struct {
	ID       string `json:"id"`
	Quantity *int   `json:"quantity"`
}

// AddToCartRequest is the body of POST /cart
type AddToCartRequest struct {
	UserID  string          `json:"userId"`
	Product *CartProductRef `json:"product"`
}

// QuantityUpdate is the body of PUT /cart/{cartId}
type QuantityUpdate struct {
	Quantity int `json:"quantity"`
}
