package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is a step of the order lifecycle
type OrderStatus string

const (
	StatusPaymentPending   OrderStatus = "PAYMENT_PENDING"
	StatusPaymentSubmitted OrderStatus = "PAYMENT_SUBMITTED"
	StatusPaid             OrderStatus = "PAID"
	StatusShipped          OrderStatus = "SHIPPED"
	StatusDelivered        OrderStatus = "DELIVERED"
)

// OrderStatuses lists every status in intended progression order.
var OrderStatuses = []OrderStatus{
	StatusPaymentPending,
	StatusPaymentSubmitted,
	StatusPaid,
	StatusShipped,
	StatusDelivered,
}

// ParseOrderStatus is case-insensitive and ignores surrounding spaces.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	candidate := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, status := range OrderStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// OrderItem is a line item snapshot taken at purchase time
type OrderItem struct {
	Name     string          `bson:"name" json:"name"`
	Price    decimal.Decimal `bson:"price" json:"price"`
	Quantity int             `bson:"quantity" json:"quantity"`
}

// Address is the delivery address of an order
type Address struct {
	Name    string `bson:"name" json:"name"`
	Address string `bson:"address" json:"address"`
	City    string `bson:"city" json:"city"`
	Pincode string `bson:"pincode" json:"pincode"`
}

// Order represents a user's order
type Order struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             string             `bson:"userId" json:"userId"`
	Items              []OrderItem        `bson:"items" json:"items"`
	TotalAmount        decimal.Decimal    `bson:"totalAmount" json:"totalAmount"`
	PaymentMethod      string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentTxnID       string             `bson:"paymentTxnId" json:"paymentTxnId"`
	Address            Address            `bson:"address" json:"address"`
	Status             OrderStatus        `bson:"status" json:"status"`
	CreatedAt          Timestamp          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          Timestamp          `bson:"updatedAt" json:"updatedAt"`
	PaymentSubmittedAt Timestamp          `bson:"paymentSubmittedAt" json:"paymentSubmittedAt"`
}

// OrderRequest is the body of POST /orders
type OrderRequest struct {
	UserID       string          `json:"userId"`
	Items        []OrderItem     `json:"items"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	PaymentTxnID string          `json:"paymentTxnId"`
	Address      *Address        `json:"address"`
}

// StatusUpdate is the body of PUT /admin/orders/{orderId}
type StatusUpdate struct {
	Status string `json:"status"`
}

// OrderFilter narrows an order listing. Zero value matches every order.
type OrderFilter struct {
	UserID string
	Status OrderStatus
}

func (f OrderFilter) Match(o Order) bool {
	if f.UserID != "" && f.UserID != o.UserID {
		return false
	}
	if f.Status != "" && f.Status != o.Status {
		return false
	}
	return true
}

// OrderStats backs the admin dashboard counters
type OrderStats struct {
	TotalOrders     int                 `json:"totalOrders"`
	TotalRevenue    decimal.Decimal     `json:"totalRevenue"`
	PendingPayments int                 `json:"pendingPayments"`
	ByStatus        map[OrderStatus]int `json:"byStatus"`
}

// NewOrderStats returns stats with every known status present.
func NewOrderStats() OrderStats {
	stats := OrderStats{TotalRevenue: decimal.Zero, ByStatus: make(map[OrderStatus]int, len(OrderStatuses))}
	for _, status := range OrderStatuses {
		stats.ByStatus[status] = 0
	}
	return stats
}

// Add counts count orders of the given status worth revenue in total.
func (s *OrderStats) Add(status OrderStatus, count int, revenue decimal.Decimal) {
	s.TotalOrders += count
	s.TotalRevenue = s.TotalRevenue.Add(revenue)
	s.ByStatus[status] += count
	if status == StatusPaymentPending {
		s.PendingPayments += count
	}
}

// OrderEventType names an order lifecycle notification
type OrderEventType string

const (
	EventOrderPlaced      OrderEventType = "order.placed"
	EventPaymentSubmitted OrderEventType = "order.payment_submitted"
	EventStatusChanged    OrderEventType = "order.status_changed"
)

// OrderEvent is emitted after an order write succeeds
type OrderEvent struct {
	Type           OrderEventType `json:"type"`
	Order          Order          `json:"order"`
	PreviousStatus OrderStatus    `json:"previousStatus,omitempty"`
	OccurredAt     Timestamp      `json:"occurredAt"`
}
