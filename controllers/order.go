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

// OrderController handles order-related requests
type OrderController struct {
	orders  *services.OrderService
	timeout time.Duration
}

// NewOrderController creates a new OrderController
func NewOrderController(orders *services.OrderService, timeout time.Duration) *OrderController {
	return &OrderController{orders: orders, timeout: timeout}
}

// CreateOrder places an order awaiting UPI payment and empties the cart
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	var req models.OrderRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), oc.timeout)
	defer cancel()
	order, err := oc.orders.PlaceOrder(ctx, actor, req)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "Order placed",
		"orderId": order.ID.Hex(),
	})
}

// GetOrders lists the orders of ?userId=, newest first
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), oc.timeout)
	defer cancel()
	orders, err := oc.orders.ListOrders(ctx, actor, r.URL.Query().Get("userId"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// SubmitPayment records the buyer's UPI transaction reference
func (oc *OrderController) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	var req models.PaymentSubmission
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), oc.timeout)
	defer cancel()
	order, err := oc.orders.SubmitPayment(ctx, actor, mux.Vars(r)["orderId"], req.PaymentTxnID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Payment submitted successfully",
		"order":   order,
	})
}

// ListAllOrders lists every order (Admin only). Optional filter: status.
func (oc *OrderController) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), oc.timeout)
	defer cancel()
	orders, err := oc.orders.ListAllOrders(ctx, r.URL.Query().Get("status"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus sets an order's status (Admin only)
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusUpdate
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), oc.timeout)
	defer cancel()
	order, err := oc.orders.UpdateStatus(ctx, mux.Vars(r)["orderId"], req.Status)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Order updated",
		"order":   order,
	})
}

// GetOrderStats returns the admin dashboard counters (Admin only)
func (oc *OrderController) GetOrderStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), oc.timeout)
	defer cancel()
	stats, err := oc.orders.Stats(ctx)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}
