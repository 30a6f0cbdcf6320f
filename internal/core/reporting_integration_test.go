package core_test

import (
	"testing"

	"garment-tracker/internal/core"
)

func TestReporting_StatusSummaryAndBacklog(t *testing.T) {
	_, svc, ctx := setupServices(t)

	a := createOrder(t, ctx, svc, "Acme", 10)
	b := createOrder(t, ctx, svc, "Beta", 20)
	createOrder(t, ctx, svc, "Gamma", 30)
	advanceTo(t, ctx, svc, a.ID, core.StatusDyeingSent)
	advanceTo(t, ctx, svc, b.ID, core.StatusDispatched)

	sum, err := svc.reporting.StatusSummary(ctx)
	if err != nil {
		t.Fatalf("StatusSummary: %v", err)
	}
	if sum.Pending != 1 || sum.InProgress != 1 || sum.Dispatched != 1 || sum.Total != 3 {
		t.Errorf("summary = %+v", sum)
	}

	backlog, err := svc.reporting.DyerBacklog(ctx)
	if err != nil {
		t.Fatalf("DyerBacklog: %v", err)
	}
	if len(backlog) != 1 {
		t.Fatalf("backlog lines = %d, want 1 (only order %d is still out)", len(backlog), a.ID)
	}
	if backlog[0].DyerPrinterName != "Colour House" || backlog[0].OpenDispatches != 1 || backlog[0].IssuedQuantity != 1000 {
		t.Errorf("backlog = %+v", backlog[0])
	}
}

func TestReporting_OrderSheetsAfterPages(t *testing.T) {
	_, svc, ctx := setupServices(t)
	var ids []int
	for i := 0; i < 5; i++ {
		ids = append(ids, createOrder(t, ctx, svc, "Acme", 1).ID)
	}
	advanceTo(t, ctx, svc, ids[1], core.StatusStitching)

	var seen []int
	after := 0
	for {
		batch, err := svc.reporting.OrderSheetsAfter(ctx, after, 2)
		if err != nil {
			t.Fatalf("OrderSheetsAfter: %v", err)
		}
		if len(batch) == 0 {
			break
		}
		for _, s := range batch {
			seen = append(seen, s.Order.ID)
			if s.ExtraWork == nil {
				t.Errorf("order %d: ExtraWork should be empty, not nil", s.Order.ID)
			}
			if s.Order.ID == ids[1] && s.Stitching == nil {
				t.Errorf("order %d: stitching record missing", s.Order.ID)
			}
		}
		after = batch[len(batch)-1].Order.ID
	}
	if len(seen) != len(ids) {
		t.Fatalf("paged %v, want %v", seen, ids)
	}
	for i := range ids {
		if seen[i] != ids[i] {
			t.Errorf("page order %v, want %v", seen, ids)
			break
		}
	}
}

func TestReporting_RevenueAndCustomers(t *testing.T) {
	_, svc, ctx := setupServices(t)
	for _, o := range []struct {
		day, customer string
		qty           int
	}{
		{"2026-01-10", "Acme", 100},
		{"2026-01-20", "Beta", 300},
		{"2026-06-01", "Acme", 250},
		{"2025-12-31", "Gamma", 999},
	} {
		date, _ := core.ParseDate(o.day)
		if _, err := svc.orders.CreateOrder(ctx, core.NewOrderInput{OrderDate: date, StyleID: "ST", Customer: o.customer, Quantity: o.qty, Rate: d("2")}, tester); err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
	}

	months, err := svc.reporting.MonthlyRevenue(ctx, 2026)
	if err != nil {
		t.Fatalf("MonthlyRevenue: %v", err)
	}
	if len(months) != 12 {
		t.Fatalf("months = %d, want 12", len(months))
	}
	if months[0].Orders != 2 || months[0].Quantity != 400 || !months[0].Amount.Equal(d("800")) {
		t.Errorf("january = %+v", months[0])
	}
	if months[5].Quantity != 250 || months[1].Orders != 0 {
		t.Errorf("june = %+v, february = %+v", months[5], months[1])
	}

	top, err := svc.reporting.TopCustomers(ctx, 2)
	if err != nil {
		t.Fatalf("TopCustomers: %v", err)
	}
	if len(top) != 2 || top[0].Customer != "Gamma" || top[1].Customer != "Acme" || top[1].Quantity != 350 {
		t.Errorf("top customers = %+v", top)
	}
}

func TestReporting_ListOrderSheetsByDate(t *testing.T) {
	_, svc, ctx := setupServices(t)
	for _, day := range []string{"2026-03-01", "2026-04-01"} {
		date, _ := core.ParseDate(day)
		if _, err := svc.orders.CreateOrder(ctx, core.NewOrderInput{OrderDate: date, StyleID: "ST", Customer: "Acme", Quantity: 1, Rate: d("1")}, tester); err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
	}
	to, _ := core.ParseDate("2026-03-31")
	sheets, err := svc.reporting.ListOrderSheets(ctx, core.Date{}, to)
	if err != nil {
		t.Fatalf("ListOrderSheets: %v", err)
	}
	if len(sheets) != 1 || sheets[0].Order.OrderDate.String() != "2026-03-01" {
		t.Errorf("sheets = %+v", sheets)
	}
}
