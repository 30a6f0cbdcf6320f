package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StageService records production stages against an order. Each Record call
// is one transaction: the stage row, the order status and (for a dyeing
// receipt) the dyeing dispatch flag are written together or not at all.
type StageService interface {
	RecordFabricPurchase(ctx context.Context, orderID int, in FabricPurchaseInput, actingUser string) (*FabricPurchase, error)
	RecordDyeingSent(ctx context.Context, orderID int, in DyeingSentInput, actingUser string) (*DyeingSent, error)
	RecordDyeingReceived(ctx context.Context, orderID int, in DyeingReceivedInput, actingUser string) (*DyeingReceived, error)
	RecordClothCutting(ctx context.Context, orderID int, in ClothCuttingInput, actingUser string) (*ClothCutting, error)
	RecordStitching(ctx context.Context, orderID int, in StitchingInput, actingUser string) (*Stitching, error)
	RecordExtraWork(ctx context.Context, orderID int, in ExtraWorkInput, actingUser string) (*ExtraWork, error)
	RecordFinishingAndPacking(ctx context.Context, orderID int, in FinishingAndPackingInput, actingUser string) (*FinishingAndPacking, error)
	RecordDispatch(ctx context.Context, orderID int, in DispatchInput, actingUser string) (*Dispatch, error)

	// ListStageRecords returns the order with every stage record that exists for it.
	ListStageRecords(ctx context.Context, orderID int) (*OrderSheet, error)
}

type stageService struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewStageService(pool *pgxpool.Pool) StageService {
	return &stageService{pool: pool, now: time.Now}
}

// stageWrite describes one Record call for the shared transaction in record.
type stageWrite struct {
	stage StageKind
	input interface{ Validate() error }
	// resolve runs after the order lock and before the sequence check.
	resolve func(ctx context.Context, tx pgx.Tx, o *Order) error
	insert  func(ctx context.Context, tx pgx.Tx, o *Order, meta *StageMeta) error
}

// record validates, locks the order, checks the transition table, inserts
// the stage row, advances the status and saves the recomputed amount.
func (s *stageService) record(ctx context.Context, orderID int, actingUser string, w stageWrite) error {
	if err := withActingUser(w.input.Validate(), actingUser); err != nil {
		return err
	}
	t, ok := TransitionFor(w.stage)
	if !ok {
		return NewValidationError("stage", "unknown stage kind %q", string(w.stage))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if w.resolve != nil {
		if err := w.resolve(ctx, tx, o); err != nil {
			return err
		}
	}
	if !t.Permits(o.Status) {
		return &SequenceError{OrderID: orderID, Stage: w.stage, Current: o.Status, Required: t.Allowed}
	}

	meta := &StageMeta{OrderID: orderID, CreatedBy: actingUser}
	if err := w.insert(ctx, tx, o, meta); err != nil {
		return err
	}

	if o.Status == t.From {
		moved, err := advanceStatusTx(ctx, tx, orderID, t.From, t.To)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("order %d: status changed while recording %s", orderID, w.stage)
		}
		o.AdvanceStatus(t.From, t.To)
	}

	o.RecomputeAmount()
	if err := saveOrderTx(ctx, tx, o); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s for order %d: %w", w.stage, orderID, err)
	}
	return nil
}

// ── Fabric and dyeing ────────────────────────────────────────────────────────

func (s *stageService) RecordFabricPurchase(ctx context.Context, orderID int, in FabricPurchaseInput, actingUser string) (*FabricPurchase, error) {
	var rec FabricPurchase
	err := s.record(ctx, orderID, actingUser, stageWrite{
		stage: StageFabricPurchase,
		input: in,
		insert: func(ctx context.Context, tx pgx.Tx, _ *Order, meta *StageMeta) error {
			in.PurchaseDate = defaultDate(in.PurchaseDate, s.now())
			in.IssuedChallanDate = defaultDate(in.IssuedChallanDate, s.now())
			rec = DeriveFabricPurchase(in)
			rec.StageMeta = *meta
			return tx.QueryRow(ctx, `
				INSERT INTO fabric_purchases (order_id, purchase_date, purchased_from, quantity, rate, amount,
					invoice_number, fabric_detail, fabric_length, fabric_dyer, challan_number,
					issued_challan_date, issued_challan_quantity, balance_fabric, created_by)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
				RETURNING id, created_at
			`, orderID, in.PurchaseDate, in.PurchasedFrom, in.Quantity, in.Rate, rec.Amount,
				in.InvoiceNumber, in.FabricDetail, in.FabricLength, in.FabricDyer, in.ChallanNumber,
				in.IssuedChallanDate, in.IssuedChallanQuantity, rec.Balance, meta.CreatedBy,
			).Scan(&rec.ID, &rec.CreatedAt)
		},
	})
	if err != nil {
		return nil, wrapInsert(err, StageFabricPurchase)
	}
	return &rec, nil
}

func (s *stageService) RecordDyeingSent(ctx context.Context, orderID int, in DyeingSentInput, actingUser string) (*DyeingSent, error) {
	var rec DyeingSent
	err := s.record(ctx, orderID, actingUser, stageWrite{
		stage: StageDyeingSent,
		input: in,
		insert: func(ctx context.Context, tx pgx.Tx, _ *Order, meta *StageMeta) error {
			in.IssuedChallanDate = defaultDate(in.IssuedChallanDate, s.now())
			rec = DeriveDyeingSent(in)
			rec.StageMeta = *meta
			return tx.QueryRow(ctx, `
				INSERT INTO dyeing_sent (order_id, issued_challan_date, dyer_printer_name, fabric_detail,
					fabric_length, issued_challan_quantity, rate, amount, received, created_by)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, $9)
				RETURNING id, created_at
			`, orderID, in.IssuedChallanDate, in.DyerPrinterName, in.FabricDetail,
				in.FabricLength, in.IssuedChallanQuantity, in.Rate, rec.Amount, meta.CreatedBy,
			).Scan(&rec.ID, &rec.CreatedAt)
		},
	})
	if err != nil {
		return nil, wrapInsert(err, StageDyeingSent)
	}
	return &rec, nil
}

// RecordDyeingReceived resolves a dyeing dispatch. A dispatch that has
// already been received yields ErrAlreadyProcessed regardless of the order
// status; one that belongs to another order is reported as not found.
func (s *stageService) RecordDyeingReceived(ctx context.Context, orderID int, in DyeingReceivedInput, actingUser string) (*DyeingReceived, error) {
	var sent *DyeingSent
	var rec DyeingReceived
	err := s.record(ctx, orderID, actingUser, stageWrite{
		stage: StageDyeingReceived,
		input: in,
		resolve: func(ctx context.Context, tx pgx.Tx, o *Order) error {
			var err error
			sent, err = lockDyeingSentTx(ctx, tx, in.DyeingSentID)
			if err != nil {
				return err
			}
			if sent.OrderID != o.ID {
				return notFound("dyeing dispatch", in.DyeingSentID)
			}
			if sent.Received {
				return fmt.Errorf("dyeing dispatch %d already received: %w", sent.ID, ErrAlreadyProcessed)
			}
			return nil
		},
		insert: func(ctx context.Context, tx pgx.Tx, _ *Order, meta *StageMeta) error {
			in.ReceivedDate = defaultDate(in.ReceivedDate, s.now())
			rec = DeriveDyeingReceived(in, *sent)
			rec.StageMeta = *meta
			err := tx.QueryRow(ctx, `
				INSERT INTO dyeing_received (order_id, dyeing_sent_id, shrinkage_in_percentage, received_date,
					received_challan_number, issued_quantity, received_quantity, balance_quantity, created_by)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id, created_at
			`, orderID, sent.ID, in.ShrinkagePercent, in.ReceivedDate,
				in.ReceivedChallanNumber, rec.IssuedQuantity, rec.ReceivedQuantity, rec.BalanceQuantity, meta.CreatedBy,
			).Scan(&rec.ID, &rec.CreatedAt)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, "UPDATE dyeing_sent SET received = true WHERE id = $1 AND NOT received", sent.ID)
			if err != nil {
				return fmt.Errorf("failed to mark dyeing dispatch %d received: %w", sent.ID, err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, wrapInsert(err, StageDyeingReceived)
	}
	return &rec, nil
}

// ── Job-work stages ──────────────────────────────────────────────────────────

func (s *stageService) RecordClothCutting(ctx context.Context, orderID int, in ClothCuttingInput, actingUser string) (*ClothCutting, error) {
	var rec ClothCutting
	err := s.record(ctx, orderID, actingUser, stageWrite{
		stage: StageClothCutting,
		input: in,
		insert: func(ctx context.Context, tx pgx.Tx, _ *Order, meta *StageMeta) error {
			in.JobWork = s.datedJobWork(in.JobWork)
			rec = ClothCutting{StageMeta: *meta, ClothCuttingInput: in, JobWorkTotals: in.Totals()}
			return tx.QueryRow(ctx, `
				INSERT INTO cloth_cuttings (order_id, issued_challan_date, issued_challan_number, job_worker_name,
					fabric_detail, fabric_length, issued_challan_quantity, received_quantity, received_date,
					received_challan_number, rate, balance_quantity, amount, created_by)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
				RETURNING id, created_at
			`, orderID, in.IssuedChallanDate, in.IssuedChallanNumber, in.JobWorkerName,
				in.FabricDetail, in.FabricLength, in.IssuedChallanQuantity, in.ReceivedQuantity, in.ReceivedDate,
				in.ReceivedChallanNumber, in.Rate, rec.BalanceQuantity, rec.Amount, meta.CreatedBy,
			).Scan(&rec.ID, &rec.CreatedAt)
		},
	})
	if err != nil {
		return nil, wrapInsert(err, StageClothCutting)
	}
	return &rec, nil
}

func (s *stageService) RecordStitching(ctx context.Context, orderID int, in StitchingInput, actingUser string) (*Stitching, error) {
	var rec Stitching
	err := s.record(ctx, orderID, actingUser, stageWrite{
		stage: StageStitching,
		input: in,
		insert: func(ctx context.Context, tx pgx.Tx, _ *Order, meta *StageMeta) error {
			in.JobWork = s.datedJobWork(in.JobWork)
			rec = Stitching{StageMeta: *meta, StitchingInput: in, JobWorkTotals: in.Totals()}
			return tx.QueryRow(ctx, `
				INSERT INTO stitchings (order_id, issued_challan_date, issued_challan_number, job_worker_name,
					issued_challan_quantity, received_quantity, received_date, rate, balance_quantity, amount, created_by)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				RETURNING id, created_at
			`, orderID, in.IssuedChallanDate, in.IssuedChallanNumber, in.JobWorkerName,
				in.IssuedChallanQuantity, in.ReceivedQuantity, in.ReceivedDate, in.Rate,
				rec.BalanceQuantity, rec.Amount, meta.CreatedBy,
			).Scan(&rec.ID, &rec.CreatedAt)
		},
	})
	if err != nil {
		return nil, wrapInsert(err, StageStitching)
	}
	return &rec, nil
}

// RecordExtraWork adds one extra process. The first one moves the order
// from Stitching to Extra Work; later ones leave the status alone.
func (s *stageService) RecordExtraWork(ctx context.Context, orderID int, in ExtraWorkInput, actingUser string) (*ExtraWork, error) {
	var rec ExtraWork
	err := s.record(ctx, orderID, actingUser, stageWrite{
		stage: StageExtraWork,
		input: in,
		insert: func(ctx context.Context, tx pgx.Tx, _ *Order, meta *StageMeta) error {
			in.JobWork = s.datedJobWork(in.JobWork)
			rec = ExtraWork{StageMeta: *meta, ExtraWorkInput: in, JobWorkTotals: in.Totals()}
			return tx.QueryRow(ctx, `
				INSERT INTO extra_works (order_id, extra_work_name, issued_challan_date, issued_challan_number,
					job_worker_name, issued_challan_quantity, received_quantity, received_date, rate,
					balance_quantity, amount, created_by)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				RETURNING id, created_at
			`, orderID, in.ExtraWorkName, in.IssuedChallanDate, in.IssuedChallanNumber,
				in.JobWorkerName, in.IssuedChallanQuantity, in.ReceivedQuantity, in.ReceivedDate, in.Rate,
				rec.BalanceQuantity, rec.Amount, meta.CreatedBy,
			).Scan(&rec.ID, &rec.CreatedAt)
		},
	})
	if err != nil {
		return nil, wrapInsert(err, StageExtraWork)
	}
	return &rec, nil
}

func (s *stageService) datedJobWork(j JobWork) JobWork {
	j.IssuedChallanDate = defaultDate(j.IssuedChallanDate, s.now())
	j.ReceivedDate = defaultDate(j.ReceivedDate, s.now())
	return j
}

// ── Finishing and dispatch ───────────────────────────────────────────────────

func (s *stageService) RecordFinishingAndPacking(ctx context.Context, orderID int, in FinishingAndPackingInput, actingUser string) (*FinishingAndPacking, error) {
	var rec FinishingAndPacking
	err := s.record(ctx, orderID, actingUser, stageWrite{
		stage: StageFinishingAndPacking,
		input: in,
		insert: func(ctx context.Context, tx pgx.Tx, _ *Order, meta *StageMeta) error {
			in.IssuedChallanDate = defaultDate(in.IssuedChallanDate, s.now())
			rec = DeriveFinishingAndPacking(in)
			rec.StageMeta = *meta
			return tx.QueryRow(ctx, `
				INSERT INTO finishing_packings (order_id, issued_challan_date, issued_challan_number, job_worker_name,
					issued_challan_quantity, packed_quantity, rejected, rate, amount, created_by)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				RETURNING id, created_at
			`, orderID, in.IssuedChallanDate, in.IssuedChallanNumber, in.JobWorkerName,
				in.IssuedChallanQuantity, in.PackedQuantity, rec.Rejected, in.Rate, rec.Amount, meta.CreatedBy,
			).Scan(&rec.ID, &rec.CreatedAt)
		},
	})
	if err != nil {
		return nil, wrapInsert(err, StageFinishingAndPacking)
	}
	return &rec, nil
}

func (s *stageService) RecordDispatch(ctx context.Context, orderID int, in DispatchInput, actingUser string) (*Dispatch, error) {
	var rec Dispatch
	err := s.record(ctx, orderID, actingUser, stageWrite{
		stage: StageDispatch,
		input: in,
		insert: func(ctx context.Context, tx pgx.Tx, _ *Order, meta *StageMeta) error {
			in.DispatchDate = defaultDate(in.DispatchDate, s.now())
			rec = Dispatch{StageMeta: *meta, DispatchInput: in}
			return tx.QueryRow(ctx, `
				INSERT INTO dispatches (order_id, dispatch_date, dispatched_to, quantity, delivery_note,
					invoice_number, box_details, created_by)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING id, created_at
			`, orderID, in.DispatchDate, in.DispatchedTo, in.Quantity, in.DeliveryNote,
				in.InvoiceNumber, in.BoxDetails, meta.CreatedBy,
			).Scan(&rec.ID, &rec.CreatedAt)
		},
	})
	if err != nil {
		return nil, wrapInsert(err, StageDispatch)
	}
	return &rec, nil
}

// wrapInsert adds the stage name to unclassified failures. Typed domain
// errors pass through unchanged.
func wrapInsert(err error, stage StageKind) error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrStageSequence),
		errors.Is(err, ErrAlreadyProcessed), errors.Is(err, ErrNotFound):
		return err
	}
	return fmt.Errorf("failed to record %s: %w", stage, err)
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *stageService) ListStageRecords(ctx context.Context, orderID int) (*OrderSheet, error) {
	return loadOrderSheet(ctx, s.pool, orderID)
}

func lockDyeingSentTx(ctx context.Context, tx pgx.Tx, id int) (*DyeingSent, error) {
	d, err := scanDyeingSent(tx.QueryRow(ctx, "SELECT "+dyeingSentColumns+" FROM dyeing_sent WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("dyeing dispatch", id)
		}
		return nil, fmt.Errorf("failed to lock dyeing dispatch %d: %w", id, err)
	}
	return d, nil
}
