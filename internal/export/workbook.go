// Package export writes every order and its stage records to an .xlsx workbook.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"garment-tracker/internal/core"
)

// SheetName is the single worksheet in the workbook.
const SheetName = "Orders"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetSource pages through order sheets in id order.
type SheetSource interface {
	OrderSheetsAfter(ctx context.Context, afterID, limit int) ([]core.OrderSheet, error)
}

// Exporter streams order sheets into a workbook one batch at a time.
type Exporter struct {
	src   SheetSource
	batch int
	log   logrus.FieldLogger
}

func NewExporter(src SheetSource, batchSize int, log logrus.FieldLogger) *Exporter {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Exporter{src: src, batch: batchSize, log: log}
}

// Write builds the workbook and writes it to w. It returns the number of
// orders exported.
func (e *Exporter) Write(ctx context.Context, w io.Writer) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return 0, fmt.Errorf("failed to name worksheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return 0, fmt.Errorf("failed to open stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, len(columns), 16); err != nil {
		return 0, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, err
	}
	if err := sw.SetPanes(&excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return 0, err
	}
	if err := sw.SetRow("A1", Headers(), excelize.RowOpts{StyleID: bold}); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	rowNo, afterID, total := 2, 0, 0
	for {
		sheets, err := e.src.OrderSheetsAfter(ctx, afterID, e.batch)
		if err != nil {
			return total, fmt.Errorf("failed to load orders after %d: %w", afterID, err)
		}
		for _, sheet := range sheets {
			cell, err := excelize.CoordinatesToCellName(1, rowNo)
			if err != nil {
				return total, err
			}
			if err := sw.SetRow(cell, Row(sheet)); err != nil {
				return total, fmt.Errorf("failed to write order %d: %w", sheet.Order.ID, err)
			}
			rowNo++
			afterID = sheet.Order.ID
		}
		total += len(sheets)
		e.log.WithFields(logrus.Fields{"processed": total, "last_id": afterID}).Debug("export batch written")
		if len(sheets) < e.batch {
			break
		}
	}

	if err := sw.Flush(); err != nil {
		return total, fmt.Errorf("failed to flush worksheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return total, fmt.Errorf("failed to write workbook: %w", err)
	}
	e.log.WithField("orders", total).Info("order workbook exported")
	return total, nil
}

// ── Columns ──────────────────────────────────────────────────────────────────

type column struct {
	header string
	value  func(core.OrderSheet) any
}

// Headers returns the header row.
func Headers() []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = c.header
	}
	return out
}

// Row returns the cell values for one order. Absent stages give blank cells.
func Row(sheet core.OrderSheet) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = c.value(sheet)
	}
	return out
}

func date(d core.Date) any {
	return d.String()
}

func money(d decimal.Decimal) any {
	return d.InexactFloat64()
}

// stage wraps an accessor so it yields a blank cell when the stage is absent.
func stage[T any](get func(core.OrderSheet) *T, val func(*T) any) func(core.OrderSheet) any {
	return func(s core.OrderSheet) any {
		if rec := get(s); rec != nil {
			return val(rec)
		}
		return ""
	}
}

func fabric(s core.OrderSheet) *core.FabricPurchase { return s.FabricPurchase }
func dyeSent(s core.OrderSheet) *core.DyeingSent { return s.DyeingSent }
func dyeRecv(s core.OrderSheet) *core.DyeingReceived { return s.DyeingReceived }
func cutting(s core.OrderSheet) *core.ClothCutting { return s.ClothCutting }
func stitching(s core.OrderSheet) *core.Stitching { return s.Stitching }
func finishing(s core.OrderSheet) *core.FinishingAndPacking { return s.FinishingAndPacking }
func dispatch(s core.OrderSheet) *core.Dispatch { return s.Dispatch }

func sizeColumn(i int) column {
	return column{
		header: "size_" + strings.ToLower(core.SizeLabels[i]),
		value: func(s core.OrderSheet) any {
			if s.Order.Sizes == nil {
				return ""
			}
			return s.Order.Sizes.Buckets()[i]
		},
	}
}

var columns = buildColumns()

func buildColumns() []column {
	cols := []column{
		{"order_id", func(s core.OrderSheet) any { return s.Order.ID }},
		{"order_date", func(s core.OrderSheet) any { return date(s.Order.OrderDate) }},
		{"style_id", func(s core.OrderSheet) any { return s.Order.StyleID }},
		{"customer", func(s core.OrderSheet) any { return s.Order.Customer }},
		{"quantity", func(s core.OrderSheet) any { return s.Order.Quantity }},
	}
	for i := range core.SizeLabels {
		cols = append(cols, sizeColumn(i))
	}
	cols = append(cols,
		column{"rate", func(s core.OrderSheet) any { return money(s.Order.Rate) }},
		column{"status", func(s core.OrderSheet) any { return string(s.Order.Status) }},
		column{"amount", func(s core.OrderSheet) any { return money(s.Order.Amount) }},

		column{"fabric_purchase_date", stage(fabric, func(r *core.FabricPurchase) any { return date(r.PurchaseDate) })},
		column{"fabric_purchased_from", stage(fabric, func(r *core.FabricPurchase) any { return r.PurchasedFrom })},
		column{"fabric_quantity", stage(fabric, func(r *core.FabricPurchase) any { return r.Quantity })},
		column{"fabric_rate", stage(fabric, func(r *core.FabricPurchase) any { return money(r.Rate) })},
		column{"fabric_amount", stage(fabric, func(r *core.FabricPurchase) any { return money(r.Amount) })},
		column{"fabric_invoice_number", stage(fabric, func(r *core.FabricPurchase) any { return r.InvoiceNumber })},
		column{"fabric_detail", stage(fabric, func(r *core.FabricPurchase) any { return r.FabricDetail })},
		column{"fabric_dyer", stage(fabric, func(r *core.FabricPurchase) any { return r.FabricDyer })},
		column{"fabric_issued_quantity", stage(fabric, func(r *core.FabricPurchase) any { return r.IssuedChallanQuantity })},
		column{"fabric_balance", stage(fabric, func(r *core.FabricPurchase) any { return r.Balance })},

		column{"dyeing_dyer_printer", stage(dyeSent, func(r *core.DyeingSent) any { return r.DyerPrinterName })},
		column{"dyeing_issued_date", stage(dyeSent, func(r *core.DyeingSent) any { return date(r.IssuedChallanDate) })},
		column{"dyeing_issued_quantity", stage(dyeSent, func(r *core.DyeingSent) any { return r.IssuedChallanQuantity })},
		column{"dyeing_rate", stage(dyeSent, func(r *core.DyeingSent) any { return money(r.Rate) })},
		column{"dyeing_amount", stage(dyeSent, func(r *core.DyeingSent) any { return money(r.Amount) })},
		column{"dyeing_shrinkage_percent", stage(dyeRecv, func(r *core.DyeingReceived) any { return money(r.ShrinkagePercent) })},
		column{"dyeing_received_date", stage(dyeRecv, func(r *core.DyeingReceived) any { return date(r.ReceivedDate) })},
		column{"dyeing_received_quantity", stage(dyeRecv, func(r *core.DyeingReceived) any { return r.ReceivedQuantity })},
		column{"dyeing_balance", stage(dyeRecv, func(r *core.DyeingReceived) any { return r.BalanceQuantity })},

		column{"cut_job_worker", stage(cutting, func(r *core.ClothCutting) any { return r.JobWorkerName })},
		column{"cut_issued_quantity", stage(cutting, func(r *core.ClothCutting) any { return r.IssuedChallanQuantity })},
		column{"cut_received_quantity", stage(cutting, func(r *core.ClothCutting) any { return r.ReceivedQuantity })},
		column{"cut_balance", stage(cutting, func(r *core.ClothCutting) any { return r.BalanceQuantity })},
		column{"cut_amount", stage(cutting, func(r *core.ClothCutting) any { return money(r.Amount) })},

		column{"stitch_job_worker", stage(stitching, func(r *core.Stitching) any { return r.JobWorkerName })},
		column{"stitch_issued_quantity", stage(stitching, func(r *core.Stitching) any { return r.IssuedChallanQuantity })},
		column{"stitch_received_quantity", stage(stitching, func(r *core.Stitching) any { return r.ReceivedQuantity })},
		column{"stitch_balance", stage(stitching, func(r *core.Stitching) any { return r.BalanceQuantity })},
		column{"stitch_amount", stage(stitching, func(r *core.Stitching) any { return money(r.Amount) })},

		column{"extra_work", extraNames},
		column{"extra_received_quantity", extraReceived},
		column{"extra_amount", extraAmount},

		column{"finish_job_worker", stage(finishing, func(r *core.FinishingAndPacking) any { return r.JobWorkerName })},
		column{"finish_issued_quantity", stage(finishing, func(r *core.FinishingAndPacking) any { return r.IssuedChallanQuantity })},
		column{"finish_packed_quantity", stage(finishing, func(r *core.FinishingAndPacking) any { return r.PackedQuantity })},
		column{"finish_rejected", stage(finishing, func(r *core.FinishingAndPacking) any { return r.Rejected })},
		column{"finish_amount", stage(finishing, func(r *core.FinishingAndPacking) any { return money(r.Amount) })},

		column{"dispatch_date", stage(dispatch, func(r *core.Dispatch) any { return date(r.DispatchDate) })},
		column{"dispatch_to", stage(dispatch, func(r *core.Dispatch) any { return r.DispatchedTo })},
		column{"dispatch_quantity", stage(dispatch, func(r *core.Dispatch) any { return r.Quantity })},
		column{"dispatch_invoice_number", stage(dispatch, func(r *core.Dispatch) any { return r.InvoiceNumber })},
		column{"dispatch_delivery_note", stage(dispatch, func(r *core.Dispatch) any { return r.DeliveryNote })},
		column{"dispatch_box_details", stage(dispatch, func(r *core.Dispatch) any { return r.BoxDetails })},
	)
	return cols
}

// Extra work is multi-valued; the workbook shows the names joined and the totals summed.

func extraNames(s core.OrderSheet) any {
	if len(s.ExtraWork) == 0 {
		return ""
	}
	names := make([]string, len(s.ExtraWork))
	for i, w := range s.ExtraWork {
		names[i] = w.ExtraWorkName
	}
	return strings.Join(names, "; ")
}

func extraReceived(s core.OrderSheet) any {
	if len(s.ExtraWork) == 0 {
		return ""
	}
	total := 0
	for _, w := range s.ExtraWork {
		total += w.ReceivedQuantity
	}
	return total
}

func extraAmount(s core.OrderSheet) any {
	if len(s.ExtraWork) == 0 {
		return ""
	}
	total := decimal.Zero
	for _, w := range s.ExtraWork {
		total = total.Add(w.Amount)
	}
	return money(total)
}
