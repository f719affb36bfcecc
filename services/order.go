package services

import (
	"context"
	"strings"
	"time"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/rs/zerolog"
)

//go:generate mockgen -destination=mock_notifier_test.go -package=services go-storefront/services Notifier

// Notifier is told about every successful order write. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, event models.OrderEvent) error
}

// OrderService places orders and moves them through the payment lifecycle.
type OrderService struct {
	orders   store.OrderStore
	carts    store.CartStore
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewOrderService returns an OrderService. notifier may be nil.
func NewOrderService(orders store.OrderStore, carts store.CartStore, notifier Notifier, logger zerolog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		carts:    carts,
		notifier: notifier,
		logger:   logger.With().Str("component", "orders").Logger(),
		now:      time.Now,
	}
}

func validateOrder(req *models.OrderRequest) error {
	req.UserID = strings.TrimSpace(req.UserID)
	req.PaymentTxnID = strings.TrimSpace(req.PaymentTxnID)
	if req.UserID == "" || len(req.Items) == 0 || req.TotalAmount.IsZero() || req.PaymentTxnID == "" || req.Address == nil {
		return utils.Validation("Missing required fields")
	}
	if !req.TotalAmount.IsPositive() {
		return utils.Validation("totalAmount must be greater than zero")
	}

	addr := req.Address
	addr.Name = strings.TrimSpace(addr.Name)
	addr.Address = strings.TrimSpace(addr.Address)
	addr.City = strings.TrimSpace(addr.City)
	addr.Pincode = strings.TrimSpace(addr.Pincode)
	if addr.Name == "" || addr.Address == "" || addr.City == "" || addr.Pincode == "" {
		return utils.Validation("Missing required fields")
	}

	for i, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			return utils.Validation("item %d: name is required", i)
		}
		if item.Price.IsNegative() {
			return utils.Validation("item %d: price cannot be negative", i)
		}
		if !models.ValidQuantity(item.Quantity) {
			return utils.Validation("item %d: quantity must be between 1 and %d", i, models.MaxLineQuantity)
		}
	}
	return nil
}

// PlaceOrder stores the order as PAYMENT_PENDING and then empties the
// user's cart. A failed cart clear is reported after the order exists; the
// returned order is non-nil in that case.
func (s *OrderService) PlaceOrder(ctx context.Context, actor Actor, req models.OrderRequest) (*models.Order, error) {
	if err := validateOrder(&req); err != nil {
		return nil, err
	}
	if err := authorize(actor, req.UserID); err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:        req.UserID,
		Items:         req.Items,
		TotalAmount:   req.TotalAmount,
		PaymentMethod: models.PaymentMethodUPI,
		PaymentTxnID:  req.PaymentTxnID,
		Address:       *req.Address,
		Status:        models.StatusPaymentPending,
	}
	if err := s.orders.InsertOrder(ctx, order); err != nil {
		return nil, utils.Internal(err, "Failed to create order")
	}

	if _, err := s.carts.ClearCart(ctx, order.UserID); err != nil {
		s.logger.Error().Err(err).
			Str("orderId", order.ID.Hex()).
			Str("userId", order.UserID).
			Msg("order placed but cart was not cleared")
		return order, utils.Internal(err, "Order "+order.ID.Hex()+" was placed but the cart could not be cleared")
	}

	s.notify(ctx, models.EventOrderPlaced, order, "")
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, actor Actor, userID string) ([]models.Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, utils.Validation("userId is required")
	}
	if err := authorize(actor, userID); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListOrders(ctx, models.OrderFilter{UserID: userID})
	if err != nil {
		return nil, utils.Internal(err, "Failed to retrieve orders")
	}
	return orders, nil
}

func (s *OrderService) SubmitPayment(ctx context.Context, actor Actor, orderID, txnID string) (*models.Order, error) {
	id, err := parseObjectID(orderID, "order")
	if err != nil {
		return nil, err
	}
	txnID = strings.TrimSpace(txnID)
	if txnID == "" {
		return nil, utils.Validation("UPI Transaction ID is required")
	}

	existing, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, storeError(err, "order")
	}
	if err := authorize(actor, existing.UserID); err != nil {
		return nil, err
	}

	order, err := s.orders.SubmitPayment(ctx, id, txnID)
	if err != nil {
		return nil, storeError(err, "order")
	}
	s.notify(ctx, models.EventPaymentSubmitted, order, existing.Status)
	return order, nil
}

// ListAllOrders is the admin view. An empty status lists everything.
func (s *OrderService) ListAllOrders(ctx context.Context, status string) ([]models.Order, error) {
	var filter models.OrderFilter
	if strings.TrimSpace(status) != "" {
		parsed, ok := models.ParseOrderStatus(status)
		if !ok {
			return nil, utils.Validation("unknown status %q", status)
		}
		filter.Status = parsed
	}
	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, utils.Internal(err, "Failed to retrieve orders")
	}
	return orders, nil
}

// UpdateStatus sets any known status; there is no transition table.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	id, err := parseObjectID(orderID, "order")
	if err != nil {
		return nil, err
	}
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, utils.Validation("status must be one of PAYMENT_PENDING, PAYMENT_SUBMITTED, PAID, SHIPPED, DELIVERED")
	}

	existing, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, storeError(err, "order")
	}
	order, err := s.orders.SetStatus(ctx, id, next)
	if err != nil {
		return nil, storeError(err, "order")
	}
	s.notify(ctx, models.EventStatusChanged, order, existing.Status)
	return order, nil
}

func (s *OrderService) Stats(ctx context.Context) (models.OrderStats, error) {
	stats, err := s.orders.OrderStats(ctx)
	if err != nil {
		return models.OrderStats{}, utils.Internal(err, "Failed to compute order stats")
	}
	return stats, nil
}

func (s *OrderService) notify(ctx context.Context, eventType models.OrderEventType, order *models.Order, previous models.OrderStatus) {
	if s.notifier == nil {
		return
	}
	event := models.OrderEvent{
		Type:           eventType,
		Order:          *order,
		PreviousStatus: previous,
		OccurredAt:     models.NewTimestamp(s.now()),
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn().Err(err).
			Str("event", string(eventType)).
			Str("orderId", order.ID.Hex()).
			Msg("order notification failed")
	}
}
