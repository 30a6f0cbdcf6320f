package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderService manages the order aggregate. Status is never written here
// except through advanceStatusTx, which the stage service drives.
type OrderService interface {
	CreateOrder(ctx context.Context, in NewOrderInput, actingUser string) (*Order, error)
	GetOrder(ctx context.Context, orderID int) (*Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	// ReviseOrder applies a back-office correction. Status is left alone.
	ReviseOrder(ctx context.Context, orderID int, in ReviseOrderInput) (*Order, error)
	// DeleteOrder removes the order and, by cascade, every stage record.
	DeleteOrder(ctx context.Context, orderID int) error
}

type orderService struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewOrderService(pool *pgxpool.Pool) OrderService {
	return &orderService{pool: pool, now: time.Now}
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const orderColumns = `id, order_date, style_id, customer, quantity, has_sizes,
	size_xs, size_s, size_m, size_l, size_xl, size_2xl, size_3xl, size_4xl, size_5xl, size_6xl, size_7xl,
	rate, status, amount, created_by, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var hasSizes bool
	var sz SizeBreakdown
	var status string
	err := row.Scan(&o.ID, &o.OrderDate, &o.StyleID, &o.Customer, &o.Quantity, &hasSizes,
		&sz.XS, &sz.S, &sz.M, &sz.L, &sz.XL, &sz.XXL, &sz.XXXL, &sz.XL4, &sz.XL5, &sz.XL6, &sz.XL7,
		&o.Rate, &status, &o.Amount, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	if hasSizes {
		o.Sizes = &sz
	}
	return &o, nil
}

// sizeArgs flattens the optional breakdown into the has_sizes flag and eleven columns.
func sizeArgs(o *Order) []any {
	var sz SizeBreakdown
	if o.Sizes != nil {
		sz = *o.Sizes
	}
	args := []any{o.Sizes != nil}
	for _, q := range sz.Buckets() {
		args = append(args, q)
	}
	return args
}

func (s *orderService) CreateOrder(ctx context.Context, in NewOrderInput, actingUser string) (*Order, error) {
	o, err := BuildOrder(in, actingUser, s.now())
	if err != nil {
		return nil, err
	}

	args := []any{o.OrderDate, o.StyleID, o.Customer, o.Quantity}
	args = append(args, sizeArgs(o)...)
	args = append(args, o.Rate, string(o.Status), o.Amount, o.CreatedBy)

	created, err := scanOrder(s.pool.QueryRow(ctx, `
		INSERT INTO orders (order_date, style_id, customer, quantity, has_sizes,
			size_xs, size_s, size_m, size_l, size_xl, size_2xl, size_3xl, size_4xl, size_5xl, size_6xl, size_7xl,
			rate, status, amount, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING `+orderColumns, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}
	return created, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	return getOrder(ctx, s.pool, orderID)
}

func getOrder(ctx context.Context, q pgxQuerier, orderID int) (*Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("order", orderID)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	return o, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error) {
	return listOrders(ctx, s.pool, filter)
}

func listOrders(ctx context.Context, q pgxQuerier, filter OrderFilter) ([]Order, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, NewValidationError("status", "unknown status %q", string(filter.Status))
	}

	var where []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where = append(where, fmt.Sprintf("order_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where = append(where, fmt.Sprintf("order_date <= $%d", len(args)))
	}

	query := "SELECT " + orderColumns + " FROM orders"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY order_date DESC, id DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (s *orderService) ReviseOrder(ctx context.Context, orderID int, in ReviseOrderInput) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := ApplyRevision(o, in); err != nil {
		return nil, err
	}
	if err := saveOrderTx(ctx, tx, o); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order revision: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM orders WHERE id = $1", orderID)
	if err != nil {
		return fmt.Errorf("failed to delete order %d: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("order", orderID)
	}
	return nil
}

// ── Transaction helpers ──────────────────────────────────────────────────────

// lockOrderTx reads the order and holds its row lock until tx ends.
func lockOrderTx(ctx context.Context, tx pgx.Tx, orderID int) (*Order, error) {
	o, err := scanOrder(tx.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("order", orderID)
		}
		return nil, fmt.Errorf("failed to lock order %d: %w", orderID, err)
	}
	return o, nil
}

// saveOrderTx writes the editable columns and the amount. Status is not written.
func saveOrderTx(ctx context.Context, tx pgx.Tx, o *Order) error {
	args := []any{o.ID, o.StyleID, o.Customer, o.Quantity}
	args = append(args, sizeArgs(o)...)
	args = append(args, o.Rate, o.Amount)
	_, err := tx.Exec(ctx, `
		UPDATE orders
		SET style_id = $2, customer = $3, quantity = $4, has_sizes = $5,
			size_xs = $6, size_s = $7, size_m = $8, size_l = $9, size_xl = $10, size_2xl = $11,
			size_3xl = $12, size_4xl = $13, size_5xl = $14, size_6xl = $15, size_7xl = $16,
			rate = $17, amount = $18, updated_at = NOW()
		WHERE id = $1
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to update order %d: %w", o.ID, err)
	}
	return nil
}

// advanceStatusTx is the persisted form of Order.AdvanceStatus. It reports
// whether the row moved; a second call with the same from is a no-op.
func advanceStatusTx(ctx context.Context, tx pgx.Tx, orderID int, from, to Status) (bool, error) {
	if !from.Before(to) {
		return false, nil
	}
	tag, err := tx.Exec(ctx,
		"UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2",
		orderID, string(from), string(to),
	)
	if err != nil {
		return false, fmt.Errorf("failed to advance order %d to %s: %w", orderID, to, err)
	}
	return tag.RowsAffected() == 1, nil
}
