package services

import (
	"context"
	"errors"
	"strings"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"
)

// CartService keeps one row per (user, product); adding again bumps the quantity.
type CartService struct {
	carts    store.CartStore
	products store.ProductStore
}

func NewCartService(carts store.CartStore, products store.ProductStore) *CartService {
	return &CartService{carts: carts, products: products}
}

func (s *CartService) GetCart(ctx context.Context, actor Actor, userID string) (models.Cart, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Cart{}, utils.Validation("userId is required")
	}
	if err := authorize(actor, userID); err != nil {
		return models.Cart{}, err
	}
	items, err := s.carts.ListCart(ctx, userID)
	if err != nil {
		return models.Cart{}, utils.Internal(err, "Failed to fetch cart")
	}
	return models.NewCart(items), nil
}

// AddToCart reports whether a new row was created rather than an existing one incremented.
func (s *CartService) AddToCart(ctx context.Context, actor Actor, req models.AddToCartRequest) (bool, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" || req.Product == nil || strings.TrimSpace(req.Product.ID) == "" {
		return false, utils.Validation("userId and product.id are required")
	}
	quantity := 1
	if req.Product.Quantity != nil {
		quantity = *req.Product.Quantity
	}
	if !models.ValidQuantity(quantity) {
		return false, quantityError()
	}
	if err := authorize(actor, userID); err != nil {
		return false, err
	}

	productID, err := parseObjectID(req.Product.ID, "product")
	if err != nil {
		return false, err
	}
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return false, storeError(err, "product")
	}

	existing, err := s.carts.FindCartItem(ctx, userID, productID)
	switch {
	case err == nil:
		if !models.ValidQuantity(existing.Quantity + quantity) {
			return false, utils.Validation("cart already holds %d; at most %d of one product allowed",
				existing.Quantity, models.MaxLineQuantity)
		}
		if err := s.carts.IncrementQuantity(ctx, existing.ID, quantity); err != nil {
			return false, storeError(err, "cart item")
		}
		return false, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, utils.Internal(err, "Failed to update cart")
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Name:      product.Name,
		Price:     product.Price,
		Image:     product.Image,
		Quantity:  quantity,
	}
	if err := s.carts.InsertCartItem(ctx, item); err != nil {
		return false, utils.Internal(err, "Failed to add to cart")
	}
	return true, nil
}

func quantityError() error {
	return utils.Validation("quantity must be between 1 and %d", models.MaxLineQuantity)
}

func (s *CartService) UpdateQuantity(ctx context.Context, actor Actor, cartID string, quantity int) error {
	if !models.ValidQuantity(quantity) {
		return quantityError()
	}
	item, err := s.ownedItem(ctx, actor, cartID)
	if err != nil {
		return err
	}
	if err := s.carts.SetQuantity(ctx, item.ID, quantity); err != nil {
		return storeError(err, "cart item")
	}
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, actor Actor, cartID string) error {
	item, err := s.ownedItem(ctx, actor, cartID)
	if err != nil {
		return err
	}
	if err := s.carts.DeleteCartItem(ctx, item.ID); err != nil {
		return storeError(err, "cart item")
	}
	return nil
}

func (s *CartService) ownedItem(ctx context.Context, actor Actor, cartID string) (*models.CartItem, error) {
	id, err := parseObjectID(cartID, "cart")
	if err != nil {
		return nil, err
	}
	item, err := s.carts.GetCartItem(ctx, id)
	if err != nil {
		return nil, storeError(err, "cart item")
	}
	if err := authorize(actor, item.UserID); err != nil {
		return nil, err
	}
	return item, nil
}
