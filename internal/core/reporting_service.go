package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// StatusCount is the number of orders sitting at one status.
type StatusCount struct {
	Status   Status `json:"status"`
	Position int    `json:"position"`
	Count    int    `json:"count"`
}

// StatusSummary counts orders per status (every status present, in pipeline
// order) and folds them into the three dashboard buckets.
type StatusSummary struct {
	ByStatus   []StatusCount `json:"by_status"`
	Pending    int           `json:"pending"`
	InProgress int           `json:"in_progress"`
	Dispatched int           `json:"dispatched"`
	Total      int           `json:"total"`
}

// DyerBacklogLine is the fabric still out with one dyer/printer.
type DyerBacklogLine struct {
	DyerPrinterName string          `json:"dyer_printer_name"`
	OpenDispatches  int             `json:"open_dispatches"`
	IssuedQuantity  int             `json:"issued_quantity"`
	Amount          decimal.Decimal `json:"amount"`
	OldestIssued    Date            `json:"oldest_issued"`
}

// MonthlyRevenueLine is the order value booked in one calendar month.
type MonthlyRevenueLine struct {
	Month    int             `json:"month"`
	Orders   int             `json:"orders"`
	Quantity int             `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

// CustomerTotal is one row of the top-customers report.
type CustomerTotal struct {
	Customer string          `json:"customer"`
	Orders   int             `json:"orders"`
	Quantity int             `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

// DefaultTopCustomers is the list length used when the caller passes no limit.
const DefaultTopCustomers = 5

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only views over orders and stage records.
// Reads are not serialized against writers and may observe a status that is
// about to change.
type ReportingService interface {
	// GetOrderSheet returns one order with all of its stage records.
	GetOrderSheet(ctx context.Context, orderID int) (*OrderSheet, error)

	// ListOrderSheets returns sheets for orders dated within [from, to].
	// Zero bounds are open.
	ListOrderSheets(ctx context.Context, from, to Date) ([]OrderSheet, error)

	// OrderSheetsAfter returns up to limit sheets with id > afterID, ordered by id.
	// Used to page through every order without holding them all in memory.
	OrderSheetsAfter(ctx context.Context, afterID, limit int) ([]OrderSheet, error)

	StatusSummary(ctx context.Context) (*StatusSummary, error)

	// DyerBacklog groups dyeing dispatches that have not been received by dyer.
	DyerBacklog(ctx context.Context) ([]DyerBacklogLine, error)

	// MonthlyRevenue sums order amounts by order month for one year. All twelve
	// months are returned.
	MonthlyRevenue(ctx context.Context, year int) ([]MonthlyRevenueLine, error)

	// TopCustomers ranks customers by total ordered quantity.
	TopCustomers(ctx context.Context, limit int) ([]CustomerTotal, error)
}

// ── Implementation ────────────────────────────────────────────────────────────

type reportingService struct {
	pool *pgxpool.Pool
}

// NewReportingService constructs a ReportingService backed by the given pool.
func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) GetOrderSheet(ctx context.Context, orderID int) (*OrderSheet, error) {
	return loadOrderSheet(ctx, s.pool, orderID)
}

func (s *reportingService) ListOrderSheets(ctx context.Context, from, to Date) ([]OrderSheet, error) {
	orders, err := listOrders(ctx, s.pool, OrderFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	return attachStages(ctx, s.pool, orders)
}

func (s *reportingService) OrderSheetsAfter(ctx context.Context, afterID, limit int) ([]OrderSheet, error) {
	if limit <= 0 {
		return nil, NewValidationError("limit", "must be greater than 0")
	}
	rows, err := s.pool.Query(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id > $1 ORDER BY id LIMIT $2", afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query order batch: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order batch: %w", err)
	}
	return attachStages(ctx, s.pool, orders)
}

// ── StatusSummary ─────────────────────────────────────────────────────────────

func (s *reportingService) StatusSummary(ctx context.Context) (*StatusSummary, error) {
	rows, err := s.pool.Query(ctx, "SELECT status, COUNT(*) FROM orders GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status counts: %w", err)
	}
	summary := SummarizeStatuses(counts)
	return &summary, nil
}

// SummarizeStatuses builds a StatusSummary from raw per-status counts.
// Unknown statuses are ignored.
func SummarizeStatuses(counts map[Status]int) StatusSummary {
	var sum StatusSummary
	for _, st := range pipeline {
		n := counts[st]
		sum.ByStatus = append(sum.ByStatus, StatusCount{Status: st, Position: st.Position(), Count: n})
		switch {
		case st == StatusPending:
			sum.Pending += n
		case st == StatusDispatched:
			sum.Dispatched += n
		default:
			sum.InProgress += n
		}
		sum.Total += n
	}
	return sum
}

// ── DyerBacklog ───────────────────────────────────────────────────────────────

func (s *reportingService) DyerBacklog(ctx context.Context) ([]DyerBacklogLine, error) {
	const q = `
		SELECT dyer_printer_name,
		       COUNT(*),
		       COALESCE(SUM(issued_challan_quantity), 0),
		       COALESCE(SUM(amount), 0),
		       MIN(issued_challan_date)
		FROM dyeing_sent
		WHERE NOT received
		GROUP BY dyer_printer_name
		ORDER BY SUM(issued_challan_quantity) DESC, dyer_printer_name`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query dyer backlog: %w", err)
	}
	defer rows.Close()

	var lines []DyerBacklogLine
	for rows.Next() {
		var l DyerBacklogLine
		if err := rows.Scan(&l.DyerPrinterName, &l.OpenDispatches, &l.IssuedQuantity, &l.Amount, &l.OldestIssued); err != nil {
			return nil, fmt.Errorf("failed to scan dyer backlog row: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ── Dashboard ─────────────────────────────────────────────────────────────────

func (s *reportingService) MonthlyRevenue(ctx context.Context, year int) ([]MonthlyRevenueLine, error) {
	if year < 1 {
		return nil, NewValidationError("year", "must be a calendar year")
	}
	const q = `
		SELECT EXTRACT(MONTH FROM order_date)::int AS month,
		       COUNT(*),
		       COALESCE(SUM(quantity), 0),
		       COALESCE(SUM(amount), 0)
		FROM orders
		WHERE EXTRACT(YEAR FROM order_date)::int = $1
		GROUP BY month`

	rows, err := s.pool.Query(ctx, q, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly revenue: %w", err)
	}
	defer rows.Close()

	var found []MonthlyRevenueLine
	for rows.Next() {
		var l MonthlyRevenueLine
		if err := rows.Scan(&l.Month, &l.Orders, &l.Quantity, &l.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly revenue row: %w", err)
		}
		found = append(found, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read monthly revenue: %w", err)
	}
	return fillMonths(found), nil
}

// fillMonths returns twelve lines, January first, with zero rows for months
// that had no orders.
func fillMonths(found []MonthlyRevenueLine) []MonthlyRevenueLine {
	out := make([]MonthlyRevenueLine, 12)
	for i := range out {
		out[i] = MonthlyRevenueLine{Month: i + 1, Amount: decimal.Zero}
	}
	for _, l := range found {
		if l.Month >= 1 && l.Month <= 12 {
			out[l.Month-1] = l
		}
	}
	return out
}

func (s *reportingService) TopCustomers(ctx context.Context, limit int) ([]CustomerTotal, error) {
	if limit <= 0 {
		limit = DefaultTopCustomers
	}
	const q = `
		SELECT customer, COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(amount), 0)
		FROM orders
		GROUP BY customer
		ORDER BY SUM(quantity) DESC, customer
		LIMIT $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top customers: %w", err)
	}
	defer rows.Close()

	var out []CustomerTotal
	for rows.Next() {
		var c CustomerTotal
		if err := rows.Scan(&c.Customer, &c.Orders, &c.Quantity, &c.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan customer total: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
