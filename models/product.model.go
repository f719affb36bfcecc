package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	// Money goes over the wire as a JSON number, not a quoted string.
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultCategory is used when a product is created without one.
const DefaultCategory = "General"

// Product represents a catalog entry
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Price       decimal.Decimal    `bson:"price" json:"price"`
	Category    string             `bson:"category" json:"category"`
	Image       string             `bson:"image" json:"image"`
	Description string             `bson:"description" json:"description"`
	Featured    bool               `bson:"featured" json:"featured"`
	CreatedAt   Timestamp          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   Timestamp          `bson:"updatedAt" json:"updatedAt"`
}

// ProductRequest is the body of a create product call
type ProductRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Featured    bool            `json:"featured"`
}

// ProductUpdate holds the fields of a partial product update; nil means unchanged.
type ProductUpdate struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Image       *string          `json:"image"`
	Description *string          `json:"description"`
	Featured    *bool            `json:"featured"`
}

// Empty reports whether the update changes nothing.
func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Price == nil && u.Category == nil &&
		u.Image == nil && u.Description == nil && u.Featured == nil
}

// Apply copies the set fields onto p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Featured != nil {
		p.Featured = *u.Featured
	}
}

// ProductFilter narrows a catalog listing. Zero value matches everything.
type ProductFilter struct {
	Category string
	Featured *bool
}

func (f ProductFilter) Match(p Product) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, p.Category) {
		return false
	}
	if f.Featured != nil && *f.Featured != p.Featured {
		return false
	}
	return true
}
