// Package orders exposes order placement, tracking and the server-side
// shopping-cart endpoint.
package orders

import (
	"time"

	"github.com/davemarchant/tienda-go/users"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pendiente"
	StatusPaid      OrderStatus = "Pagado"
	StatusShipped   OrderStatus = "Enviado"
	StatusDelivered OrderStatus = "Entregado"
	StatusCancelled OrderStatus = "Cancelado"
)

// PaymentMethod identifies how an order is paid.
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "Credit Card"
	PaymentDebitCard  PaymentMethod = "Debit Card"
	PaymentPaypal     PaymentMethod = "PayPal"
)

// PaymentInfo is the non-sensitive payment summary stored with an order.
type PaymentInfo struct {
	Method       PaymentMethod `json:"method"`
	CardLastFour string        `json:"cardLastFour,omitempty"`
}

// OrderItem is one purchased line. Name and price are copied from the
// product at purchase time.
type OrderItem struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// Order is a placed order.
type Order struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"userId"`
	Items           []OrderItem   `json:"items"`
	BillingAddress  users.Address `json:"billingAddress"`
	ShippingAddress users.Address `json:"shippingAddress"`
	PaymentInfo     PaymentInfo   `json:"paymentInfo"`
	Subtotal        float64       `json:"subtotal"`
	Tax             float64       `json:"tax"`
	ShippingCost    float64       `json:"shippingCost"`
	TotalPrice      float64       `json:"totalPrice"`
	Status          OrderStatus   `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// CreateOrderItem is one line of a new order request.
type CreateOrderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CreateOrderRequest is the checkout payload. IdempotencyKey lets the server
// deduplicate retried submissions.
type CreateOrderRequest struct {
	Items           []CreateOrderItem `json:"items"`
	BillingAddress  users.Address     `json:"billingAddress"`
	ShippingAddress users.Address     `json:"shippingAddress"`
	PaymentInfo     PaymentInfo       `json:"paymentInfo"`
	Subtotal        float64           `json:"subtotal"`
	Tax             float64           `json:"tax"`
	ShippingCost    float64           `json:"shippingCost"`
	TotalPrice      float64           `json:"totalPrice"`
	IdempotencyKey  string            `json:"idempotencyKey,omitempty"`
}
