package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hasibdev/bazario/internal/modules/order/domain"
	"github.com/jmoiron/sqlx"
)

type PgOrderRepository struct {
	db *sqlx.DB
}

func NewPgOrderRepository(db *sqlx.DB) *PgOrderRepository {
	return &PgOrderRepository{db: db}
}

// Create inserts the order and all its seller orders in one transaction.
// Seller order items are stored as a JSONB column.
func (r *PgOrderRepository) Create(ctx context.Context, order *domain.Order, sellerOrders []domain.SellerOrder) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (id, customer_id, price, shipping_fee, shipping_address,
		                    payment_status, delivery_status, razorpay_order_id, created_at, updated_at)
		VALUES (:id, :customer_id, :price, :shipping_fee, :shipping_address,
		        :payment_status, :delivery_status, :razorpay_order_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, orderQuery, order); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO seller_orders (id, order_id, seller_id, price, items,
		                           payment_status, delivery_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, so := range sellerOrders {
		items, err := json.Marshal(so.Items)
		if err != nil {
			return fmt.Errorf("failed to encode order items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, itemQuery,
			so.ID, so.OrderID, so.SellerID, so.Price, items,
			so.PaymentStatus, so.DeliveryStatus, so.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert seller order: %w", err)
		}
	}

	return tx.Commit()
}

func (r *PgOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *PgOrderRepository) SellerOrdersForOrder(ctx context.Context, orderID uuid.UUID) ([]domain.SellerOrder, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, order_id, seller_id, price, items, payment_status, delivery_status, created_at
		FROM seller_orders WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller orders: %w", err)
	}
	defer rows.Close()

	var result []domain.SellerOrder
	for rows.Next() {
		var so domain.SellerOrder
		var items []byte
		if err := rows.Scan(&so.ID, &so.OrderID, &so.SellerID, &so.Price, &items,
			&so.PaymentStatus, &so.DeliveryStatus, &so.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan seller order: %w", err)
		}
		if len(items) > 0 {
			if err := json.Unmarshal(items, &so.Items); err != nil {
				return nil, fmt.Errorf("failed to decode order items: %w", err)
			}
		}
		result = append(result, so)
	}
	return result, rows.Err()
}

func (r *PgOrderRepository) ListForCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.SelectContext(ctx, &orders,
		`SELECT * FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// MarkPaid flips the order and its seller orders to paid. Returns false when
// the order was already paid or does not exist.
func (r *PgOrderRepository) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET payment_status = 'paid', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'unpaid'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE seller_orders SET payment_status = 'paid' WHERE order_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to mark seller orders paid: %w", err)
	}

	return true, tx.Commit()
}

// CancelIfUnpaid cancels the order only when it is still unpaid and pending.
// The conditional update makes the watchdog callback safe to fire after a
// payment raced it.
func (r *PgOrderRepository) CancelIfUnpaid(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET delivery_status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'unpaid' AND delivery_status = 'pending'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	if _, err := r.db.ExecContext(ctx, `
		UPDATE seller_orders SET delivery_status = 'cancelled' WHERE order_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to cancel seller orders: %w", err)
	}
	return true, nil
}

func (r *PgOrderRepository) ListPendingUnpaid(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE payment_status = 'unpaid' AND delivery_status = 'pending'
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid orders: %w", err)
	}
	return orders, nil
}
