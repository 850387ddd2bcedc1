package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	// OrderStatusDelivering is the state every order is born in.
	OrderStatusDelivering OrderStatus = "delivering"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCanceled   OrderStatus = "canceled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusDelivering, OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

// CanTransitionTo encodes the forward-only lifecycle: a delivering order may
// become delivered or canceled; delivered and canceled are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s != OrderStatusDelivering {
		return false
	}
	return next == OrderStatusDelivered || next == OrderStatusCanceled
}

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
)

// Fee returns the flat shipping fee in VND. Unknown methods price as standard.
func (m ShippingMethod) Fee() int64 {
	if m == ShippingExpress {
		return 50000
	}
	return 30000
}

// OrderItem is a frozen line snapshot. Title and UnitPrice are copied from the
// catalog at checkout time; later catalog edits never reach past orders.
type OrderItem struct {
	BookID    int64  `json:"book_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
}

// CurrencyVND is the only currency orders are priced in. Amounts are whole
// dong, never fractional.
const CurrencyVND = "VND"

// PaymentCOD is the default payment method when the client names none.
const PaymentCOD = "cod"

type ShippingInfo struct {
	Name    string         `json:"name"`
	Phone   string         `json:"phone"`
	Address string         `json:"address"`
	Method  ShippingMethod `json:"method"`
}

type Order struct {
	ID             uuid.UUID    `json:"id"`
	UserID         string       `json:"user_id"`
	Items          []OrderItem  `json:"items"`
	ItemsTotal     int64        `json:"items_total"`
	ShippingFee    int64        `json:"shipping_fee"`
	TotalAmount    int64        `json:"total_amount"`
	Currency       string       `json:"currency"`
	Status         OrderStatus  `json:"status"`
	Shipping       ShippingInfo `json:"shipping"`
	PaymentMethod  string       `json:"payment_method"`
	IdempotencyKey string       `json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
