package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/medsupply-io/backoffice/internal/domain"
)

// pq error class for unique_violation.
const pgUniqueViolation = "23505"

// OrderRepository is the only component with write access to order and
// order-item rows. All writes go through Create and UpdateStatus.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists the order and all of its items as a single transaction.
// A duplicate order number surfaces as ErrWriteConflict with nothing
// persisted, so the caller can re-allocate and retry.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError(err)
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, customer_id, sales_rep_id, status, total_amount,
			shipping_address, billing_address, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, order.ID, order.OrderNumber, order.CustomerID, order.SalesRepID, order.Status,
		order.TotalAmount, order.ShippingAddress, order.BillingAddress, order.Notes, order.CreatedAt)
	if err != nil {
		return storeError(err)
	}

	for i, item := range order.Items {
		itemID := uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, line_no, product_id, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, itemID, order.ID, i+1, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice)
		if err != nil {
			return storeError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError(err)
	}

	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := r.scanOrder(r.db.QueryRowContext(ctx, `
		SELECT id, order_number, customer_id, sales_rep_id, status, total_amount,
			shipping_address, billing_address, notes, created_at,
			shipped_at, delivered_at, cancelled_at, refunded_at
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: domain.KindOrder, ID: id}
		}
		return nil, storeError(err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity, unit_price, total_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_no
	`, id)
	if err != nil {
		return nil, storeError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, storeError(err)
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}

	return order, nil
}

// UpdateStatus sets the order's status and, for statuses with a timestamp
// side effect, stamps the matching column if it is still null. Repeating a
// transition never overwrites the first timestamp.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	query := `UPDATE orders SET status = $1 WHERE id = $2`
	if col := domain.StatusTimestampColumn(status); col != "" {
		query = fmt.Sprintf(`UPDATE orders SET status = $1, %s = COALESCE(%s, NOW()) WHERE id = $2`, col, col)
	}

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return nil, storeError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, storeError(err)
	}

	if rowsAffected == 0 {
		return nil, &domain.NotFoundError{Kind: domain.KindOrder, ID: id}
	}

	return r.GetByID(ctx, id)
}

func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_number, customer_id, sales_rep_id, status, total_amount,
			shipping_address, billing_address, notes, created_at,
			shipped_at, delivered_at, cancelled_at, refunded_at
		FROM orders
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, storeError(err)
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, storeError(err)
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, quantity, unit_price, total_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY line_no
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, storeError(err)
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, storeError(err)
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, storeError(err)
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// LastOrderNumber returns the lexicographically greatest order number with
// the given prefix, or "" when none exists. The date and sequence portions
// are fixed width, so lexicographic order matches numeric order.
func (r *OrderRepository) LastOrderNumber(ctx context.Context, prefix string) (string, error) {
	var last string
	err := r.db.QueryRowContext(ctx, `
		SELECT order_number
		FROM orders
		WHERE order_number LIKE $1 || '%'
		ORDER BY order_number DESC
		LIMIT 1
	`, prefix).Scan(&last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", storeError(err)
	}
	return last, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *OrderRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var shippedAt, deliveredAt, cancelledAt, refundedAt sql.NullTime

	err := row.Scan(&order.ID, &order.OrderNumber, &order.CustomerID, &order.SalesRepID,
		&order.Status, &order.TotalAmount, &order.ShippingAddress, &order.BillingAddress,
		&order.Notes, &order.CreatedAt,
		&shippedAt, &deliveredAt, &cancelledAt, &refundedAt)
	if err != nil {
		return nil, err
	}

	order.ShippedAt = nullableTime(shippedAt)
	order.DeliveredAt = nullableTime(deliveredAt)
	order.CancelledAt = nullableTime(cancelledAt)
	order.RefundedAt = nullableTime(refundedAt)

	return order, nil
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

// storeError maps driver failures onto the domain taxonomy: unique_violation
// becomes ErrWriteConflict, anything else wraps ErrStoreUnavailable.
func storeError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return domain.ErrWriteConflict
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
