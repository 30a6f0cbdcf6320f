package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Column lists and row scanners for the stage tables. Scan order matches the list.

const fabricPurchaseColumns = `id, order_id, purchase_date, purchased_from, quantity, rate, amount,
	invoice_number, fabric_detail, fabric_length, fabric_dyer, challan_number,
	issued_challan_date, issued_challan_quantity, balance_fabric, created_by, created_at`

func scanFabricPurchase(row pgx.Row) (*FabricPurchase, error) {
	var r FabricPurchase
	err := row.Scan(&r.ID, &r.OrderID, &r.PurchaseDate, &r.PurchasedFrom, &r.Quantity, &r.Rate, &r.Amount,
		&r.InvoiceNumber, &r.FabricDetail, &r.FabricLength, &r.FabricDyer, &r.ChallanNumber,
		&r.IssuedChallanDate, &r.IssuedChallanQuantity, &r.Balance, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const dyeingSentColumns = `id, order_id, issued_challan_date, dyer_printer_name, fabric_detail,
	fabric_length, issued_challan_quantity, rate, amount, received, created_by, created_at`

func scanDyeingSent(row pgx.Row) (*DyeingSent, error) {
	var r DyeingSent
	err := row.Scan(&r.ID, &r.OrderID, &r.IssuedChallanDate, &r.DyerPrinterName, &r.FabricDetail,
		&r.FabricLength, &r.IssuedChallanQuantity, &r.Rate, &r.Amount, &r.Received, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const dyeingReceivedColumns = `id, order_id, dyeing_sent_id, shrinkage_in_percentage, received_date,
	received_challan_number, issued_quantity, received_quantity, balance_quantity, created_by, created_at`

func scanDyeingReceived(row pgx.Row) (*DyeingReceived, error) {
	var r DyeingReceived
	err := row.Scan(&r.ID, &r.OrderID, &r.DyeingSentID, &r.ShrinkagePercent, &r.ReceivedDate,
		&r.ReceivedChallanNumber, &r.IssuedQuantity, &r.ReceivedQuantity, &r.BalanceQuantity, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const clothCuttingColumns = `id, order_id, issued_challan_date, issued_challan_number, job_worker_name,
	fabric_detail, fabric_length, issued_challan_quantity, received_quantity, received_date,
	received_challan_number, rate, balance_quantity, amount, created_by, created_at`

func scanClothCutting(row pgx.Row) (*ClothCutting, error) {
	var r ClothCutting
	err := row.Scan(&r.ID, &r.OrderID, &r.IssuedChallanDate, &r.IssuedChallanNumber, &r.JobWorkerName,
		&r.FabricDetail, &r.FabricLength, &r.IssuedChallanQuantity, &r.ReceivedQuantity, &r.ReceivedDate,
		&r.ReceivedChallanNumber, &r.Rate, &r.BalanceQuantity, &r.Amount, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const stitchingColumns = `id, order_id, issued_challan_date, issued_challan_number, job_worker_name,
	issued_challan_quantity, received_quantity, received_date, rate, balance_quantity, amount, created_by, created_at`

func scanStitching(row pgx.Row) (*Stitching, error) {
	var r Stitching
	err := row.Scan(&r.ID, &r.OrderID, &r.IssuedChallanDate, &r.IssuedChallanNumber, &r.JobWorkerName,
		&r.IssuedChallanQuantity, &r.ReceivedQuantity, &r.ReceivedDate, &r.Rate, &r.BalanceQuantity, &r.Amount,
		&r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const extraWorkColumns = `id, order_id, extra_work_name, issued_challan_date, issued_challan_number,
	job_worker_name, issued_challan_quantity, received_quantity, received_date, rate,
	balance_quantity, amount, created_by, created_at`

func scanExtraWork(row pgx.Row) (*ExtraWork, error) {
	var r ExtraWork
	err := row.Scan(&r.ID, &r.OrderID, &r.ExtraWorkName, &r.IssuedChallanDate, &r.IssuedChallanNumber,
		&r.JobWorkerName, &r.IssuedChallanQuantity, &r.ReceivedQuantity, &r.ReceivedDate, &r.Rate,
		&r.BalanceQuantity, &r.Amount, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const finishingColumns = `id, order_id, issued_challan_date, issued_challan_number, job_worker_name,
	issued_challan_quantity, packed_quantity, rejected, rate, amount, created_by, created_at`

func scanFinishing(row pgx.Row) (*FinishingAndPacking, error) {
	var r FinishingAndPacking
	err := row.Scan(&r.ID, &r.OrderID, &r.IssuedChallanDate, &r.IssuedChallanNumber, &r.JobWorkerName,
		&r.IssuedChallanQuantity, &r.PackedQuantity, &r.Rejected, &r.Rate, &r.Amount, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const dispatchColumns = `id, order_id, dispatch_date, dispatched_to, quantity, delivery_note,
	invoice_number, box_details, created_by, created_at`

func scanDispatch(row pgx.Row) (*Dispatch, error) {
	var r Dispatch
	err := row.Scan(&r.ID, &r.OrderID, &r.DispatchDate, &r.DispatchedTo, &r.Quantity, &r.DeliveryNote,
		&r.InvoiceNumber, &r.BoxDetails, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ── Sheet assembly ───────────────────────────────────────────────────────────

func loadOrderSheet(ctx context.Context, q pgxQuerier, orderID int) (*OrderSheet, error) {
	o, err := getOrder(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	sheets, err := attachStages(ctx, q, []Order{*o})
	if err != nil {
		return nil, err
	}
	return &sheets[0], nil
}

// attachStages loads every stage row for the given orders with one query per
// table and returns one sheet per order, in input order.
func attachStages(ctx context.Context, q pgxQuerier, orders []Order) ([]OrderSheet, error) {
	sheets := make([]OrderSheet, len(orders))
	index := make(map[int]*OrderSheet, len(orders))
	ids := make([]int32, len(orders))
	for i, o := range orders {
		sheets[i] = OrderSheet{Order: o, ExtraWork: []ExtraWork{}}
		index[o.ID] = &sheets[i]
		ids[i] = int32(o.ID)
	}
	if len(orders) == 0 {
		return sheets, nil
	}

	loaders := []struct {
		table   string
		columns string
		attach  func(pgx.Row) error
	}{
		{"fabric_purchases", fabricPurchaseColumns, func(row pgx.Row) error {
			r, err := scanFabricPurchase(row)
			if err == nil {
				index[r.OrderID].FabricPurchase = r
			}
			return err
		}},
		{"dyeing_sent", dyeingSentColumns, func(row pgx.Row) error {
			r, err := scanDyeingSent(row)
			if err == nil {
				index[r.OrderID].DyeingSent = r
			}
			return err
		}},
		{"dyeing_received", dyeingReceivedColumns, func(row pgx.Row) error {
			r, err := scanDyeingReceived(row)
			if err == nil {
				index[r.OrderID].DyeingReceived = r
			}
			return err
		}},
		{"cloth_cuttings", clothCuttingColumns, func(row pgx.Row) error {
			r, err := scanClothCutting(row)
			if err == nil {
				index[r.OrderID].ClothCutting = r
			}
			return err
		}},
		{"stitchings", stitchingColumns, func(row pgx.Row) error {
			r, err := scanStitching(row)
			if err == nil {
				index[r.OrderID].Stitching = r
			}
			return err
		}},
		{"extra_works", extraWorkColumns, func(row pgx.Row) error {
			r, err := scanExtraWork(row)
			if err == nil {
				sheet := index[r.OrderID]
				sheet.ExtraWork = append(sheet.ExtraWork, *r)
			}
			return err
		}},
		{"finishing_packings", finishingColumns, func(row pgx.Row) error {
			r, err := scanFinishing(row)
			if err == nil {
				index[r.OrderID].FinishingAndPacking = r
			}
			return err
		}},
		{"dispatches", dispatchColumns, func(row pgx.Row) error {
			r, err := scanDispatch(row)
			if err == nil {
				index[r.OrderID].Dispatch = r
			}
			return err
		}},
	}

	for _, l := range loaders {
		rows, err := q.Query(ctx,
			fmt.Sprintf("SELECT %s FROM %s WHERE order_id = ANY($1) ORDER BY id", l.columns, l.table), ids)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", l.table, err)
		}
		for rows.Next() {
			if err := l.attach(rows); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan %s: %w", l.table, err)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", l.table, err)
		}
	}
	return sheets, nil
}
