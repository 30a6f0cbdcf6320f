package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garment-tracker/internal/core"
	"garment-tracker/internal/export"
)

// fakeOrders keeps orders in memory.
type fakeOrders struct {
	core.OrderService
	orders map[int]*core.Order
}

func (f *fakeOrders) GetOrder(_ context.Context, id int) (*core.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) CreateOrder(_ context.Context, in core.NewOrderInput, actingUser string) (*core.Order, error) {
	o, err := core.BuildOrder(in, actingUser, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}
	o.ID = len(f.orders) + 1
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrders) ListOrders(_ context.Context, filter core.OrderFilter) ([]core.Order, error) {
	var out []core.Order
	for _, o := range f.orders {
		if filter.Status == "" || o.Status == filter.Status {
			out = append(out, *o)
		}
	}
	return out, nil
}

// fakeStages records which typed method the facade dispatched to and
// advances the fake order the way the real service would.
type fakeStages struct {
	core.StageService
	orders  *fakeOrders
	called  core.StageKind
	gotUser string
	err     error
}

func (f *fakeStages) advance(orderID int, stage core.StageKind) error {
	if f.err != nil {
		return f.err
	}
	o := f.orders.orders[orderID]
	if err := core.CheckSequence(stage, o.Status); err != nil {
		return err
	}
	t, _ := core.TransitionFor(stage)
	o.AdvanceStatus(t.From, t.To)
	f.called = stage
	return nil
}

func (f *fakeStages) RecordFabricPurchase(_ context.Context, orderID int, in core.FabricPurchaseInput, user string) (*core.FabricPurchase, error) {
	f.gotUser = user
	if err := f.advance(orderID, core.StageFabricPurchase); err != nil {
		return nil, err
	}
	rec := core.DeriveFabricPurchase(in)
	return &rec, nil
}

func (f *fakeStages) RecordDyeingReceived(_ context.Context, orderID int, in core.DyeingReceivedInput, user string) (*core.DyeingReceived, error) {
	f.gotUser = user
	if err := f.advance(orderID, core.StageDyeingReceived); err != nil {
		return nil, err
	}
	return &core.DyeingReceived{DyeingReceivedInput: in}, nil
}

func newTestApp(t *testing.T) (ApplicationService, *fakeOrders, *fakeStages) {
	t.Helper()
	orders := &fakeOrders{orders: map[int]*core.Order{
		1: {ID: 1, Status: core.StatusPending, Quantity: 100, Rate: decimal.NewFromInt(10)},
	}}
	stages := &fakeStages{orders: orders}
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewAppService(orders, stages, nil, export.NewExporter(nil, 10, log), log)
	return svc, orders, stages
}

func TestRecordStage_DispatchesByKind(t *testing.T) {
	svc, _, stages := newTestApp(t)

	res, err := svc.RecordStage(context.Background(), RecordStageRequest{
		OrderID:    1,
		Stage:      "fabric-purchase",
		Payload:    json.RawMessage(`{"purchased_from":"Mill A","quantity":100,"rate":"12.5","purchase_date":"2026-03-01","issued_challan_quantity":90}`),
		ActingUser: "priya",
	})
	require.NoError(t, err)
	assert.Equal(t, core.StageFabricPurchase, stages.called)
	assert.Equal(t, "priya", stages.gotUser)
	assert.Equal(t, core.StatusFabricPurchased, res.Order.Order.Status)
	assert.Equal(t, []core.StageKind{core.StageDyeingSent}, res.Order.NextStages)

	rec, ok := res.Record.(*core.FabricPurchase)
	require.True(t, ok)
	assert.True(t, rec.Amount.Equal(decimal.NewFromInt(1250)))
	assert.Equal(t, -10, rec.Balance)
	assert.Equal(t, "2026-03-01", rec.PurchaseDate.String())
}

func TestRecordStage_RejectsBadForms(t *testing.T) {
	svc, _, stages := newTestApp(t)
	tests := []struct {
		name, stage, payload, field string
	}{
		{"unknown stage", "ironing", `{}`, "stage"},
		{"empty payload", "fabric-purchase", ``, "payload"},
		{"unknown field", "fabric-purchase", `{"colour":"red"}`, "payload"},
		{"wrong type", "fabric-purchase", `{"quantity":"lots"}`, "quantity"},
		{"bad date", "fabric-purchase", `{"purchase_date":"01/03/2026"}`, "payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordStage(context.Background(), RecordStageRequest{
				OrderID: 1, Stage: tt.stage, Payload: json.RawMessage(tt.payload), ActingUser: "priya",
			})
			require.ErrorIs(t, err, core.ErrValidation)
			var ve *core.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Fields[0].Field)
		})
	}
	assert.Empty(t, stages.called)
}

func TestRecordStage_SequenceViolationPassesThrough(t *testing.T) {
	svc, orders, _ := newTestApp(t)

	_, err := svc.RecordStage(context.Background(), RecordStageRequest{
		OrderID:    1,
		Stage:      "dyeing-received",
		Payload:    json.RawMessage(`{"dyeing_sent_id":4,"shrinkage_in_percentage":5}`),
		ActingUser: "priya",
	})
	require.ErrorIs(t, err, core.ErrStageSequence)
	assert.Equal(t, core.StatusPending, orders.orders[1].Status)
}

func TestRecordStage_UnexpectedErrorReturned(t *testing.T) {
	svc, _, stages := newTestApp(t)
	stages.err = errors.New("connection reset")

	_, err := svc.RecordFabricPurchase(context.Background(), 1, core.FabricPurchaseInput{}, "priya")
	require.EqualError(t, err, "connection reset")
}

func TestCreateOrder_UsesBreakdownTotal(t *testing.T) {
	svc, _, _ := newTestApp(t)

	res, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		NewOrderInput: core.NewOrderInput{
			StyleID:  "ST-9",
			Customer: "Acme",
			Quantity: 5,
			Sizes:    &core.SizeBreakdown{S: 10, M: 20, XL7: 2},
			Rate:     decimal.NewFromInt(3),
		},
		ActingUser: "priya",
	})
	require.NoError(t, err)
	assert.Equal(t, 32, res.Order.Quantity)
	assert.True(t, res.Order.Amount.Equal(decimal.NewFromInt(96)))
	assert.Equal(t, core.StatusPending, res.Order.Status)
	assert.Equal(t, []core.StageKind{core.StageFabricPurchase}, res.NextStages)
}

func TestListOrders_ValidatesFilter(t *testing.T) {
	svc, _, _ := newTestApp(t)
	ctx := context.Background()

	_, err := svc.ListOrders(ctx, ListOrdersRequest{Status: "Shipped"})
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.ListOrders(ctx, ListOrdersRequest{From: "2026-04-01", To: "2026-03-01"})
	require.ErrorIs(t, err, core.ErrValidation)

	res, err := svc.ListOrders(ctx, ListOrdersRequest{Status: string(core.StatusDispatched)})
	require.NoError(t, err)
	assert.NotNil(t, res.Orders)
	assert.Empty(t, res.Orders)
}
