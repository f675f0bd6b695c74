package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

// Order is the customer-facing order covering every seller group in one
// checkout. Each seller's share lives in a SellerOrder.
type Order struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	CustomerID      string         `json:"customerId" db:"customer_id"`
	Price           float64        `json:"price" db:"price"`
	ShippingFee     float64        `json:"shippingFee" db:"shipping_fee"`
	ShippingAddress string         `json:"shippingAddress" db:"shipping_address"`
	PaymentStatus   PaymentStatus  `json:"paymentStatus" db:"payment_status"`
	DeliveryStatus  DeliveryStatus `json:"deliveryStatus" db:"delivery_status"`
	RazorpayOrderID *string        `json:"-" db:"razorpay_order_id"`
	CreatedAt       time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time      `json:"updatedAt" db:"updated_at"`
}

// OrderItem is one purchased product line, stored denormalized on the
// seller order.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// SellerOrder is one seller's slice of an order.
type SellerOrder struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	OrderID        uuid.UUID      `json:"orderId" db:"order_id"`
	SellerID       string         `json:"sellerId" db:"seller_id"`
	Price          float64        `json:"price" db:"price"`
	Items          []OrderItem    `json:"items" db:"-"`
	PaymentStatus  PaymentStatus  `json:"paymentStatus" db:"payment_status"`
	DeliveryStatus DeliveryStatus `json:"deliveryStatus" db:"delivery_status"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
}

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderForbidden   = errors.New("order belongs to another customer")
	ErrOrderAlreadyPaid = errors.New("order already paid")
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrEmptyOrder       = errors.New("order has no products")
	ErrMissingSeller    = errors.New("product group is missing a seller id")
)
