package core

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// StageMeta is shared by every stage record.
type StageMeta struct {
	ID        int       `json:"id"`
	OrderID   int       `json:"order_id"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ── Fabric purchase ──────────────────────────────────────────────────────────

// FabricPurchaseInput records the fabric bought for an order and the challan
// under which it was issued onward to the dyer.
type FabricPurchaseInput struct {
	PurchaseDate          Date            `json:"purchase_date"`
	PurchasedFrom         string          `json:"purchased_from" validate:"required,max=100"`
	Quantity              int             `json:"quantity" validate:"gte=0"`
	Rate                  decimal.Decimal `json:"rate"`
	InvoiceNumber         string          `json:"invoice_number" validate:"max=50"`
	FabricDetail          string          `json:"fabric_detail" validate:"max=100"`
	FabricLength          string          `json:"fabric_length" validate:"max=20"`
	FabricDyer            string          `json:"fabric_dyer" validate:"max=100"`
	ChallanNumber         string          `json:"challan_number" validate:"max=50"`
	IssuedChallanDate     Date            `json:"issued_challan_date"`
	IssuedChallanQuantity int             `json:"issued_challan_quantity" validate:"gte=0"`
}

// FabricPurchase is a persisted fabric purchase.
// Balance may be negative when less fabric was issued than purchased.
type FabricPurchase struct {
	StageMeta
	FabricPurchaseInput
	Amount  decimal.Decimal `json:"amount"`
	Balance int             `json:"balance_fabric"`
}

// DeriveFabricPurchase computes amount = quantity × rate and
// balance = issued challan quantity − quantity.
func DeriveFabricPurchase(in FabricPurchaseInput) FabricPurchase {
	return FabricPurchase{
		FabricPurchaseInput: in,
		Amount:              decimal.NewFromInt(int64(in.Quantity)).Mul(in.Rate),
		Balance:             in.IssuedChallanQuantity - in.Quantity,
	}
}

// ── Printing and dyeing ──────────────────────────────────────────────────────

// DyeingSentInput records fabric issued to a dyer/printer.
type DyeingSentInput struct {
	IssuedChallanDate     Date            `json:"issued_challan_date"`
	DyerPrinterName       string          `json:"dyer_printer_name" validate:"required,max=100"`
	FabricDetail          string          `json:"fabric_detail" validate:"max=100"`
	FabricLength          string          `json:"fabric_length" validate:"max=20"`
	IssuedChallanQuantity int             `json:"issued_challan_quantity" validate:"gte=0"`
	Rate                  decimal.Decimal `json:"rate"`
}

// DyeingSent is a persisted dyeing dispatch. Received flips to true once a
// DyeingReceived record resolves it.
type DyeingSent struct {
	StageMeta
	DyeingSentInput
	Amount   decimal.Decimal `json:"amount"`
	Received bool            `json:"received"`
}

// DeriveDyeingSent computes amount = rate × issued quantity.
func DeriveDyeingSent(in DyeingSentInput) DyeingSent {
	return DyeingSent{
		DyeingSentInput: in,
		Amount:          in.Rate.Mul(decimal.NewFromInt(int64(in.IssuedChallanQuantity))),
	}
}

// DyeingReceivedInput resolves a DyeingSent record. The received quantity is
// not entered; it follows from the sent quantity and the shrinkage.
type DyeingReceivedInput struct {
	DyeingSentID          int             `json:"dyeing_sent_id" validate:"required,gt=0"`
	ShrinkagePercent      decimal.Decimal `json:"shrinkage_in_percentage"`
	ReceivedDate          Date            `json:"received_date"`
	ReceivedChallanNumber string          `json:"received_challan_number" validate:"max=50"`
}

// DyeingReceived is a persisted dyeing receipt.
type DyeingReceived struct {
	StageMeta
	DyeingReceivedInput
	IssuedQuantity   int `json:"issued_quantity"`
	ReceivedQuantity int `json:"received_quantity"`
	BalanceQuantity  int `json:"balance_quantity"`
}

// DeriveDyeingReceived computes received = issued × (1 − shrinkage/100),
// truncated to whole units, and balance = issued − received.
func DeriveDyeingReceived(in DyeingReceivedInput, sent DyeingSent) DyeingReceived {
	issued := sent.IssuedChallanQuantity
	keep := decimal.NewFromInt(1).Sub(in.ShrinkagePercent.Div(hundred))
	received := int(decimal.NewFromInt(int64(issued)).Mul(keep).IntPart())
	return DyeingReceived{
		DyeingReceivedInput: in,
		IssuedQuantity:      issued,
		ReceivedQuantity:    received,
		BalanceQuantity:     issued - received,
	}
}

// ── Job-work stages (cutting, stitching, extra work) ─────────────────────────

// JobWork is the issued/received shape shared by the job-work stages.
type JobWork struct {
	IssuedChallanDate     Date            `json:"issued_challan_date"`
	IssuedChallanNumber   string          `json:"issued_challan_number" validate:"max=50"`
	JobWorkerName         string          `json:"job_worker_name" validate:"required,max=100"`
	IssuedChallanQuantity int             `json:"issued_challan_quantity" validate:"gte=0"`
	ReceivedQuantity      int             `json:"received_quantity" validate:"gte=0"`
	ReceivedDate          Date            `json:"received_date"`
	Rate                  decimal.Decimal `json:"rate"`
}

// JobWorkTotals holds the derived fields of a job-work stage.
type JobWorkTotals struct {
	BalanceQuantity int             `json:"balance_quantity"`
	Amount          decimal.Decimal `json:"amount"`
}

// Totals computes balance = issued − received and amount = received × rate.
func (j JobWork) Totals() JobWorkTotals {
	return JobWorkTotals{
		BalanceQuantity: j.IssuedChallanQuantity - j.ReceivedQuantity,
		Amount:          decimal.NewFromInt(int64(j.ReceivedQuantity)).Mul(j.Rate),
	}
}

// ClothCuttingInput records fabric sent for cutting and the cut pieces received.
type ClothCuttingInput struct {
	JobWork
	FabricDetail          string `json:"fabric_detail" validate:"max=100"`
	FabricLength          string `json:"fabric_length" validate:"max=20"`
	ReceivedChallanNumber string `json:"received_challan_number" validate:"max=50"`
}

// ClothCutting is a persisted cutting record.
type ClothCutting struct {
	StageMeta
	ClothCuttingInput
	JobWorkTotals
}

// StitchingInput records cut pieces sent for stitching.
type StitchingInput struct {
	JobWork
}

// Stitching is a persisted stitching record.
type Stitching struct {
	StageMeta
	StitchingInput
	JobWorkTotals
}

// ExtraWorkInput records one extra process (embroidery, print, wash …).
// An order may carry several.
type ExtraWorkInput struct {
	JobWork
	ExtraWorkName string `json:"extra_work_name" validate:"required,max=100"`
}

// ExtraWork is a persisted extra work record.
type ExtraWork struct {
	StageMeta
	ExtraWorkInput
	JobWorkTotals
}

// ── Finishing and dispatch ───────────────────────────────────────────────────

// FinishingAndPackingInput records garments sent for finishing and how many came back packed.
type FinishingAndPackingInput struct {
	IssuedChallanDate     Date            `json:"issued_challan_date"`
	IssuedChallanNumber   string          `json:"issued_challan_number" validate:"max=50"`
	JobWorkerName         string          `json:"job_worker_name" validate:"required,max=100"`
	IssuedChallanQuantity int             `json:"issued_challan_quantity" validate:"gte=0"`
	PackedQuantity        int             `json:"packed_quantity" validate:"gte=0"`
	Rate                  decimal.Decimal `json:"rate"`
}

// FinishingAndPacking is a persisted finishing record.
type FinishingAndPacking struct {
	StageMeta
	FinishingAndPackingInput
	Rejected int             `json:"rejected"`
	Amount   decimal.Decimal `json:"amount"`
}

// DeriveFinishingAndPacking computes rejected = issued − packed and amount = packed × rate.
func DeriveFinishingAndPacking(in FinishingAndPackingInput) FinishingAndPacking {
	return FinishingAndPacking{
		FinishingAndPackingInput: in,
		Rejected:                 in.IssuedChallanQuantity - in.PackedQuantity,
		Amount:                   decimal.NewFromInt(int64(in.PackedQuantity)).Mul(in.Rate),
	}
}

// DispatchInput records the shipment to the customer. Quantity is carried as entered.
type DispatchInput struct {
	DispatchDate  Date   `json:"dispatch_date"`
	DispatchedTo  string `json:"dispatched_to" validate:"required,max=100"`
	Quantity      int    `json:"quantity" validate:"gte=0"`
	DeliveryNote  string `json:"delivery_note" validate:"max=100"`
	InvoiceNumber string `json:"invoice_number" validate:"max=50"`
	BoxDetails    string `json:"box_details"`
}

// Dispatch is a persisted dispatch record.
type Dispatch struct {
	StageMeta
	DispatchInput
}

// OrderSheet is an order together with every stage record that exists for it.
// Stages the order has not reached are nil (or empty for ExtraWork).
type OrderSheet struct {
	Order               Order                `json:"order"`
	FabricPurchase      *FabricPurchase      `json:"fabric_purchase,omitempty"`
	DyeingSent          *DyeingSent          `json:"dyeing_sent,omitempty"`
	DyeingReceived      *DyeingReceived      `json:"dyeing_received,omitempty"`
	ClothCutting        *ClothCutting        `json:"cloth_cutting,omitempty"`
	Stitching           *Stitching           `json:"stitching,omitempty"`
	ExtraWork           []ExtraWork          `json:"extra_work"`
	FinishingAndPacking *FinishingAndPacking `json:"finishing_and_packing,omitempty"`
	Dispatch            *Dispatch            `json:"dispatch,omitempty"`
}

// defaultDate returns d, or today when d is zero. Stage dates default to the
// day the record is entered.
func defaultDate(d Date, today time.Time) Date {
	if d.IsZero() {
		return DateOf(today)
	}
	return d
}
