package core_test

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"garment-tracker/internal/core"
	"garment-tracker/migrations"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	if _, err := migrations.Apply(ctx, pool, log); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	if _, err := pool.Exec(ctx, "TRUNCATE TABLE orders RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}
	return pool
}

type services struct {
	orders    core.OrderService
	stages    core.StageService
	reporting core.ReportingService
}

func setupServices(t *testing.T) (*pgxpool.Pool, services, context.Context) {
	t.Helper()
	pool := setupTestDB(t)
	return pool, services{
		orders:    core.NewOrderService(pool),
		stages:    core.NewStageService(pool),
		reporting: core.NewReportingService(pool),
	}, context.Background()
}

const tester = "integration-test"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func createOrder(t *testing.T, ctx context.Context, svc services, customer string, qty int) *core.Order {
	t.Helper()
	o, err := svc.orders.CreateOrder(ctx, core.NewOrderInput{
		StyleID:  "ST-100",
		Customer: customer,
		Quantity: qty,
		Rate:     d("50"),
	}, tester)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return o
}

// advanceTo records sample stage forms until the order reaches target.
// It returns the id of the dyeing dispatch when one was recorded.
func advanceTo(t *testing.T, ctx context.Context, svc services, orderID int, target core.Status) (dyeingSentID int) {
	t.Helper()
	job := core.JobWork{JobWorkerName: "Ravi Job Works", IssuedChallanQuantity: 100, ReceivedQuantity: 98, Rate: d("4")}
	for _, tr := range core.Transitions() {
		o, err := svc.orders.GetOrder(ctx, orderID)
		if err != nil {
			t.Fatalf("GetOrder: %v", err)
		}
		if o.Status == target || !o.Status.Before(target) {
			return dyeingSentID
		}
		if !tr.Permits(o.Status) {
			continue
		}
		switch tr.Stage {
		case core.StageFabricPurchase:
			_, err = svc.stages.RecordFabricPurchase(ctx, orderID, core.FabricPurchaseInput{
				PurchasedFrom: "Shree Mills", Quantity: 100, Rate: d("80"), IssuedChallanQuantity: 100,
			}, tester)
		case core.StageDyeingSent:
			var sent *core.DyeingSent
			sent, err = svc.stages.RecordDyeingSent(ctx, orderID, core.DyeingSentInput{
				DyerPrinterName: "Colour House", IssuedChallanQuantity: 1000, Rate: d("6"),
			}, tester)
			if err == nil {
				dyeingSentID = sent.ID
			}
		case core.StageDyeingReceived:
			_, err = svc.stages.RecordDyeingReceived(ctx, orderID, core.DyeingReceivedInput{
				DyeingSentID: dyeingSentID, ShrinkagePercent: d("5"),
			}, tester)
		case core.StageClothCutting:
			_, err = svc.stages.RecordClothCutting(ctx, orderID, core.ClothCuttingInput{JobWork: job}, tester)
		case core.StageStitching:
			_, err = svc.stages.RecordStitching(ctx, orderID, core.StitchingInput{JobWork: job}, tester)
		case core.StageExtraWork:
			_, err = svc.stages.RecordExtraWork(ctx, orderID, core.ExtraWorkInput{JobWork: job, ExtraWorkName: "Embroidery"}, tester)
		case core.StageFinishingAndPacking:
			_, err = svc.stages.RecordFinishingAndPacking(ctx, orderID, core.FinishingAndPackingInput{
				JobWorkerName: "Pack Co", IssuedChallanQuantity: 98, PackedQuantity: 97, Rate: d("1"),
			}, tester)
		case core.StageDispatch:
			_, err = svc.stages.RecordDispatch(ctx, orderID, core.DispatchInput{DispatchedTo: "Acme", Quantity: 97}, tester)
		}
		if err != nil {
			t.Fatalf("record %s: %v", tr.Stage, err)
		}
	}
	return dyeingSentID
}

func countRows(t *testing.T, ctx context.Context, pool *pgxpool.Pool, table string, orderID int) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table+" WHERE order_id = $1", orderID).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
