package domain

import (
	"context"

	"github.com/google/uuid"
)

type OrderRepository interface {
	// Create persists the order and its seller orders atomically.
	Create(ctx context.Context, order *Order, sellerOrders []SellerOrder) error

	GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error)

	SellerOrdersForOrder(ctx context.Context, orderID uuid.UUID) ([]SellerOrder, error)

	ListForCustomer(ctx context.Context, customerID string) ([]Order, error)

	// MarkPaid flips the order and its seller orders to paid. Returns false
	// when the order was not in the unpaid state.
	MarkPaid(ctx context.Context, orderID uuid.UUID) (bool, error)

	// CancelIfUnpaid cancels the order and its seller orders when payment
	// never arrived. Returns false when the order was already paid or gone.
	CancelIfUnpaid(ctx context.Context, orderID uuid.UUID) (bool, error)

	// ListPendingUnpaid feeds watchdog recovery after a restart.
	ListPendingUnpaid(ctx context.Context) ([]Order, error)
}
