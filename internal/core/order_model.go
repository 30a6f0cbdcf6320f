package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// SizeBreakdown splits an order quantity across the eleven garment sizes.
type SizeBreakdown struct {
	XS   int `json:"xs" validate:"gte=0"`
	S    int `json:"s" validate:"gte=0"`
	M    int `json:"m" validate:"gte=0"`
	L    int `json:"l" validate:"gte=0"`
	XL   int `json:"xl" validate:"gte=0"`
	XXL  int `json:"2xl" validate:"gte=0"`
	XXXL int `json:"3xl" validate:"gte=0"`
	XL4  int `json:"4xl" validate:"gte=0"`
	XL5  int `json:"5xl" validate:"gte=0"`
	XL6  int `json:"6xl" validate:"gte=0"`
	XL7  int `json:"7xl" validate:"gte=0"`
}

// Buckets returns the bucket values in size order (XS first, 7XL last).
func (b SizeBreakdown) Buckets() []int {
	return []int{b.XS, b.S, b.M, b.L, b.XL, b.XXL, b.XXXL, b.XL4, b.XL5, b.XL6, b.XL7}
}

// SizeLabels names the buckets in the order returned by Buckets.
var SizeLabels = []string{"XS", "S", "M", "L", "XL", "2XL", "3XL", "4XL", "5XL", "6XL", "7XL"}

// Total is the effective order quantity for a breakdown.
func (b SizeBreakdown) Total() int {
	total := 0
	for _, q := range b.Buckets() {
		total += q
	}
	return total
}

// Order is the aggregate root for one manufacturing order.
type Order struct {
	ID        int             `json:"id"`
	OrderDate Date            `json:"order_date"`
	StyleID   string          `json:"style_id"`
	Customer  string          `json:"customer"`
	Quantity  int             `json:"quantity"`
	Sizes     *SizeBreakdown  `json:"sizes,omitempty"`
	Rate      decimal.Decimal `json:"rate"`
	Status    Status          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RecomputeAmount re-derives quantity from the size breakdown (if any) and
// sets amount = quantity × rate.
func (o *Order) RecomputeAmount() {
	if o.Sizes != nil {
		o.Quantity = o.Sizes.Total()
	}
	o.Amount = decimal.NewFromInt(int64(o.Quantity)).Mul(o.Rate)
}

// AdvanceStatus moves the order from one status to a later one. It returns
// false, leaving the order untouched, when the order is not at from or when
// to would not move it forward. A repeated call after success is a no-op.
func (o *Order) AdvanceStatus(from, to Status) bool {
	if o.Status != from || !from.Before(to) {
		return false
	}
	o.Status = to
	return true
}

// NewOrderInput is the intake form for a new order. When Sizes is set the
// effective quantity is the breakdown total and Quantity is ignored.
type NewOrderInput struct {
	OrderDate Date            `json:"order_date"`
	StyleID   string          `json:"style_id" validate:"required,max=20"`
	Customer  string          `json:"customer" validate:"required,max=100"`
	Quantity  int             `json:"quantity" validate:"gte=0"`
	Sizes     *SizeBreakdown  `json:"sizes,omitempty"`
	Rate      decimal.Decimal `json:"rate"`
}

// ReviseOrderInput carries back-office corrections. Nil fields are left unchanged.
// Status is never revisable.
type ReviseOrderInput struct {
	StyleID  *string          `json:"style_id,omitempty" validate:"omitempty,min=1,max=20"`
	Customer *string          `json:"customer,omitempty" validate:"omitempty,min=1,max=100"`
	Quantity *int             `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Sizes    *SizeBreakdown   `json:"sizes,omitempty"`
	Rate     *decimal.Decimal `json:"rate,omitempty"`
}

// OrderFilter narrows ListOrders. Zero values mean "no bound".
type OrderFilter struct {
	Status Status
	From   Date
	To     Date
}

// BuildOrder validates the intake form and produces the unsaved order:
// status Pending, quantity resolved, amount computed.
func BuildOrder(in NewOrderInput, actingUser string, today time.Time) (*Order, error) {
	if err := validateNewOrder(in, actingUser); err != nil {
		return nil, err
	}
	o := &Order{
		OrderDate: defaultDate(in.OrderDate, today),
		StyleID:   in.StyleID,
		Customer:  in.Customer,
		Quantity:  in.Quantity,
		Rate:      in.Rate,
		Status:    StatusPending,
		CreatedBy: actingUser,
	}
	if in.Sizes != nil {
		sizes := *in.Sizes
		o.Sizes = &sizes
	}
	o.RecomputeAmount()
	return o, nil
}

// ApplyRevision applies a correction in place and recomputes the amount.
func ApplyRevision(o *Order, in ReviseOrderInput) error {
	if err := validateRevision(in); err != nil {
		return err
	}
	if in.StyleID != nil {
		o.StyleID = *in.StyleID
	}
	if in.Customer != nil {
		o.Customer = *in.Customer
	}
	if in.Sizes != nil {
		sizes := *in.Sizes
		o.Sizes = &sizes
	} else if in.Quantity != nil {
		o.Sizes = nil
		o.Quantity = *in.Quantity
	}
	if in.Rate != nil {
		o.Rate = *in.Rate
	}
	o.RecomputeAmount()
	return nil
}
