package models

// PaymentMethodUPI is the only payment method: a manual bank transfer whose
// reference is checked by a human before the order is marked PAID.
const PaymentMethodUPI = "UPI"

// PaymentSubmission is the body of PUT /orders/{orderId}/payment
type PaymentSubmission struct {
	PaymentTxnID string `json:"paymentTxnId"`
}
