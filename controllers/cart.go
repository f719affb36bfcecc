package controllers

import (
	"context"
	"net/http"
	"time"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/services"
	"go-storefront/utils"

	"github.com/gorilla/mux"
)

// CartController handles cart-related requests
type CartController struct {
	carts   *services.CartService
	timeout time.Duration
}

// NewCartController creates a new CartController
func NewCartController(carts *services.CartService, timeout time.Duration) *CartController {
	return &CartController{carts: carts, timeout: timeout}
}

// AddToCart adds a product to the user's cart or bumps its quantity
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	var req models.AddToCartRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cc.timeout)
	defer cancel()
	created, err := cc.carts.AddToCart(ctx, actor, req)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if created {
		utils.WriteMessage(w, http.StatusCreated, "Added to cart")
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Cart quantity updated")
}

// GetCart returns the user's cart with its subtotal
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), cc.timeout)
	defer cancel()
	cart, err := cc.carts.GetCart(ctx, actor, mux.Vars(r)["userId"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

// UpdateCartItem sets the quantity of one cart row
func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	var req models.QuantityUpdate
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cc.timeout)
	defer cancel()
	if err := cc.carts.UpdateQuantity(ctx, actor, mux.Vars(r)["cartId"], req.Quantity); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Quantity updated")
}

// RemoveFromCart deletes one cart row
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), cc.timeout)
	defer cancel()
	if err := cc.carts.RemoveItem(ctx, actor, mux.Vars(r)["cartId"]); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Item removed from cart")
}
