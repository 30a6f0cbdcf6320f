package core_test

import (
	"errors"
	"testing"

	"garment-tracker/internal/core"
)

func TestOrderService_CreateAndGet(t *testing.T) {
	_, svc, ctx := setupServices(t)

	date, _ := core.ParseDate("2026-02-14")
	created, err := svc.orders.CreateOrder(ctx, core.NewOrderInput{
		OrderDate: date,
		StyleID:   "ST-7",
		Customer:  "Acme",
		Sizes:     &core.SizeBreakdown{S: 10, M: 20, XL7: 5},
		Rate:      d("99.99"),
	}, tester)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	got, err := svc.orders.GetOrder(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Quantity != 35 || got.Sizes == nil || got.Sizes.XL7 != 5 {
		t.Errorf("quantity=%d sizes=%+v, want 35 with 7XL=5", got.Quantity, got.Sizes)
	}
	if !got.Amount.Equal(d("3499.65")) {
		t.Errorf("amount = %s, want 3499.65", got.Amount)
	}
	if got.OrderDate != date {
		t.Errorf("order date = %s, want %s", got.OrderDate, date)
	}
	if got.CreatedBy != tester || got.Status != core.StatusPending {
		t.Errorf("created_by=%q status=%q", got.CreatedBy, got.Status)
	}

	if _, err := svc.orders.GetOrder(ctx, created.ID+1000); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing order: err = %v, want ErrNotFound", err)
	}
}

func TestOrderService_ListFilters(t *testing.T) {
	_, svc, ctx := setupServices(t)

	for _, day := range []string{"2026-01-05", "2026-02-05", "2026-03-05"} {
		date, _ := core.ParseDate(day)
		if _, err := svc.orders.CreateOrder(ctx, core.NewOrderInput{OrderDate: date, StyleID: "ST", Customer: "Acme", Quantity: 1, Rate: d("1")}, tester); err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
	}
	last, _ := svc.orders.ListOrders(ctx, core.OrderFilter{})
	advanceTo(t, ctx, svc, last[0].ID, core.StatusFabricPurchased)

	all, err := svc.orders.ListOrders(ctx, core.OrderFilter{})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(all) != 3 || all[0].OrderDate.String() != "2026-03-05" {
		t.Fatalf("want 3 orders newest first, got %+v", all)
	}

	from, _ := core.ParseDate("2026-02-01")
	ranged, _ := svc.orders.ListOrders(ctx, core.OrderFilter{From: from})
	if len(ranged) != 2 {
		t.Errorf("from filter: got %d orders, want 2", len(ranged))
	}

	purchased, _ := svc.orders.ListOrders(ctx, core.OrderFilter{Status: core.StatusFabricPurchased})
	if len(purchased) != 1 {
		t.Errorf("status filter: got %d orders, want 1", len(purchased))
	}

	if _, err := svc.orders.ListOrders(ctx, core.OrderFilter{Status: "Shipped"}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("bad status: err = %v, want ErrValidation", err)
	}
}

func TestOrderService_ReviseKeepsStatus(t *testing.T) {
	_, svc, ctx := setupServices(t)
	order := createOrder(t, ctx, svc, "Acme", 100)
	advanceTo(t, ctx, svc, order.ID, core.StatusClothCutting)

	qty := 120
	rate := d("55")
	revised, err := svc.orders.ReviseOrder(ctx, order.ID, core.ReviseOrderInput{Quantity: &qty, Rate: &rate})
	if err != nil {
		t.Fatalf("ReviseOrder: %v", err)
	}
	if revised.Status != core.StatusClothCutting {
		t.Errorf("status = %q, want Cloth Cutting", revised.Status)
	}
	if revised.Quantity != 120 || !revised.Amount.Equal(d("6600")) {
		t.Errorf("quantity=%d amount=%s, want 120 / 6600", revised.Quantity, revised.Amount)
	}

	if _, err := svc.orders.ReviseOrder(ctx, 999999, core.ReviseOrderInput{Quantity: &qty}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing order: err = %v, want ErrNotFound", err)
	}
}

func TestOrderService_DeleteCascades(t *testing.T) {
	pool, svc, ctx := setupServices(t)
	order := createOrder(t, ctx, svc, "Acme", 10)
	advanceTo(t, ctx, svc, order.ID, core.StatusExtraWork)

	if err := svc.orders.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	for _, tr := range core.Transitions() {
		if n := countRows(t, ctx, pool, tr.Table, order.ID); n != 0 {
			t.Errorf("%s rows after delete = %d, want 0", tr.Table, n)
		}
	}
	if err := svc.orders.DeleteOrder(ctx, order.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}
