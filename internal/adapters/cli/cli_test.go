package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garment-tracker/internal/app"
	"garment-tracker/internal/core"
)

type fakeApp struct {
	app.ApplicationService

	created  app.CreateOrderRequest
	recorded app.RecordStageRequest
	listed   app.ListOrdersRequest
}

func (f *fakeApp) CreateOrder(_ context.Context, req app.CreateOrderRequest) (*app.OrderResult, error) {
	f.created = req
	o := &core.Order{ID: 12, StyleID: req.StyleID, Customer: req.Customer, Status: core.StatusPending, Amount: decimal.NewFromInt(1234567)}
	return &app.OrderResult{Order: o, NextStages: core.NextStages(o.Status)}, nil
}

func (f *fakeApp) ListOrders(_ context.Context, req app.ListOrdersRequest) (*app.OrderListResult, error) {
	f.listed = req
	return &app.OrderListResult{Orders: []core.Order{
		{ID: 3, StyleID: "ST-3", Customer: "Acme", Quantity: 1500, Amount: decimal.NewFromInt(150000), Status: core.StatusStitching},
	}}, nil
}

func (f *fakeApp) RecordStage(_ context.Context, req app.RecordStageRequest) (*app.StageResult, error) {
	f.recorded = req
	if req.Stage == "dispatch" {
		return nil, &core.SequenceError{Stage: core.StageDispatch, Current: core.StatusPending, Required: []core.Status{core.StatusFinishingPacking}}
	}
	o := &core.Order{ID: req.OrderID, Status: core.StatusFabricPurchased}
	return &app.StageResult{Stage: core.StageKind(req.Stage), Order: &app.OrderResult{Order: o}}, nil
}

func (f *fakeApp) StatusSummary(context.Context) (*core.StatusSummary, error) {
	s := core.SummarizeStatuses(map[core.Status]int{core.StatusPending: 2, core.StatusStitching: 1})
	return &s, nil
}

func (f *fakeApp) ExportOrders(_ context.Context, w io.Writer) (int, error) {
	_, err := w.Write([]byte("PK"))
	return 4, err
}

func run(t *testing.T, svc app.ApplicationService, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(svc)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestIndianGrouping(t *testing.T) {
	tests := map[int64]string{
		0:         "0",
		999:       "999",
		1000:      "1,000",
		100000:    "1,00,000",
		1234567:   "12,34,567",
		10000000:  "1,00,00,000",
		-1234567:  "-12,34,567",
		123456789: "12,34,56,789",
	}
	for in, want := range tests {
		assert.Equal(t, want, indianGrouping(in), "indianGrouping(%d)", in)
	}
	assert.Equal(t, "1,234", formatAmount(decimal.RequireFromString("1234.99")))
}

func TestParseSizes(t *testing.T) {
	b, err := parseSizes("s=10, M=20,2xl=5")
	require.NoError(t, err)
	assert.Equal(t, core.SizeBreakdown{S: 10, M: 20, XXL: 5}, *b)
	assert.Equal(t, 35, b.Total())

	b, err = parseSizes("")
	require.NoError(t, err)
	assert.Nil(t, b)

	for _, bad := range []string{"S10", "XXS=1", "M=ten"} {
		_, err := parseSizes(bad)
		assert.ErrorIs(t, err, core.ErrValidation, bad)
	}
}

func TestOrdersCreate(t *testing.T) {
	fake := &fakeApp{}
	out, err := run(t, fake, "", "orders", "create", "--user", "meera",
		"--style", "ST-12", "--customer", "Acme", "--rate", "12.50", "--date", "2026-02-03", "--sizes", "M=4,L=6")
	require.NoError(t, err)

	assert.Equal(t, "meera", fake.created.ActingUser)
	assert.Equal(t, "2026-02-03", fake.created.OrderDate.String())
	assert.True(t, fake.created.Rate.Equal(decimal.RequireFromString("12.5")))
	require.NotNil(t, fake.created.Sizes)
	assert.Equal(t, 10, fake.created.Sizes.Total())
	assert.Contains(t, out, "12,34,567")
	assert.Contains(t, out, "fabric-purchase")
}

func TestOrdersCreate_ActingUserFromEnv(t *testing.T) {
	t.Setenv(ActingUserEnv, "ravi")
	fake := &fakeApp{}
	_, err := run(t, fake, "", "orders", "create", "--style", "ST-1", "--customer", "Acme")
	require.NoError(t, err)
	assert.Equal(t, "ravi", fake.created.ActingUser)
}

func TestOrdersCreate_BadRate(t *testing.T) {
	_, err := run(t, &fakeApp{}, "", "orders", "create", "--rate", "abc")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestOrdersList(t *testing.T) {
	fake := &fakeApp{}
	out, err := run(t, fake, "", "orders", "list", "--status", "Stitching", "--from", "2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, app.ListOrdersRequest{Status: "Stitching", From: "2026-01-01"}, fake.listed)
	assert.Contains(t, out, "1,500")
	assert.Contains(t, out, "1,50,000")
}

func TestStageRecord_FromStdin(t *testing.T) {
	fake := &fakeApp{}
	form := `{"purchased_from":"Mill A","quantity":100,"rate":"12.5"}`
	out, err := run(t, fake, form, "stage", "record", "fabric-purchase", "--order", "5", "--json", "-", "--user", "meera")
	require.NoError(t, err)

	assert.Equal(t, 5, fake.recorded.OrderID)
	assert.Equal(t, "fabric-purchase", fake.recorded.Stage)
	assert.JSONEq(t, form, string(fake.recorded.Payload))
	assert.Contains(t, out, `Status is now "Fabric Purchased"`)
}

func TestStageRecord_SequenceError(t *testing.T) {
	_, err := run(t, &fakeApp{}, "", "stage", "record", "dispatch", "--order", "5", "--json", `{"dispatched_to":"Acme"}`)
	assert.ErrorIs(t, err, core.ErrStageSequence)
}

func TestStageRecord_RequiresOrderFlag(t *testing.T) {
	_, err := run(t, &fakeApp{}, "", "stage", "record", "stitching", "--json", `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order")
}

func TestReportStatus(t *testing.T) {
	out, err := run(t, &fakeApp{}, "", "report", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Pending 2, in progress 1, dispatched 0, total 3")
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	out, err := run(t, &fakeApp{}, "", "export", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 4 orders")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data))
}

func TestStageKindsListed(t *testing.T) {
	kinds := stageKinds()
	assert.True(t, strings.HasPrefix(kinds, "fabric-purchase, dyeing-sent"))
	assert.True(t, strings.HasSuffix(kinds, "dispatch"))
}
