package app

import (
	"context"
	"encoding/json"
	"io"

	"garment-tracker/internal/core"
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// CreateOrder books a new order in Pending.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error)

	// GetOrder returns one order and the stages that may be recorded next.
	GetOrder(ctx context.Context, orderID int) (*OrderResult, error)

	// ListOrders returns orders, newest first, optionally filtered by status and
	// order date range.
	ListOrders(ctx context.Context, req ListOrdersRequest) (*OrderListResult, error)

	// ReviseOrder applies a back-office correction to quantity, sizes, rate,
	// customer or style. Status is never changed.
	ReviseOrder(ctx context.Context, orderID int, in core.ReviseOrderInput) (*OrderResult, error)

	// DeleteOrder removes an order and all of its stage records.
	DeleteOrder(ctx context.Context, orderID int) error

	// Stage recording. Each call is one transaction and fails with a
	// *core.SequenceError when the order is not at a status that permits it.
	RecordFabricPurchase(ctx context.Context, orderID int, in core.FabricPurchaseInput, actingUser string) (*StageResult, error)
	RecordDyeingSent(ctx context.Context, orderID int, in core.DyeingSentInput, actingUser string) (*StageResult, error)
	RecordDyeingReceived(ctx context.Context, orderID int, in core.DyeingReceivedInput, actingUser string) (*StageResult, error)
	RecordClothCutting(ctx context.Context, orderID int, in core.ClothCuttingInput, actingUser string) (*StageResult, error)
	RecordStitching(ctx context.Context, orderID int, in core.StitchingInput, actingUser string) (*StageResult, error)
	RecordExtraWork(ctx context.Context, orderID int, in core.ExtraWorkInput, actingUser string) (*StageResult, error)
	RecordFinishingAndPacking(ctx context.Context, orderID int, in core.FinishingAndPackingInput, actingUser string) (*StageResult, error)
	RecordDispatch(ctx context.Context, orderID int, in core.DispatchInput, actingUser string) (*StageResult, error)

	// RecordStage decodes a JSON form for the named stage kind and records it.
	// Adapters that receive forms as JSON use this instead of the typed methods.
	RecordStage(ctx context.Context, req RecordStageRequest) (*StageResult, error)

	// GetOrderSheet returns an order with every stage record that exists for it.
	GetOrderSheet(ctx context.Context, orderID int) (*core.OrderSheet, error)

	// Reports.
	StatusSummary(ctx context.Context) (*core.StatusSummary, error)
	DyerBacklog(ctx context.Context) ([]core.DyerBacklogLine, error)
	MonthlyRevenue(ctx context.Context, year int) ([]core.MonthlyRevenueLine, error)
	TopCustomers(ctx context.Context, limit int) ([]core.CustomerTotal, error)

	// ExportOrders writes the order workbook to w and returns how many orders it holds.
	ExportOrders(ctx context.Context, w io.Writer) (int, error)
}

// RecordStageRequest carries an undecoded stage form.
type RecordStageRequest struct {
	OrderID    int
	Stage      string
	Payload    json.RawMessage
	ActingUser string
}
