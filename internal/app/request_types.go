package app

import "garment-tracker/internal/core"

// CreateOrderRequest is the input to CreateOrder.
type CreateOrderRequest struct {
	core.NewOrderInput
	// ActingUser is stored as created_by. It is attribution only.
	ActingUser string `json:"-"`
}

// ListOrdersRequest filters ListOrders. Empty fields mean no filter.
// Dates are YYYY-MM-DD.
type ListOrdersRequest struct {
	Status string
	From   string
	To     string
}

// toFilter parses the request into a core filter.
func (r ListOrdersRequest) toFilter() (core.OrderFilter, error) {
	var f core.OrderFilter
	if r.Status != "" {
		f.Status = core.Status(r.Status)
		if !f.Status.IsValid() {
			return f, core.NewValidationError("status", "unknown status %q", r.Status)
		}
	}
	from, err := core.ParseDate(r.From)
	if err != nil {
		return f, core.NewValidationError("from", "%v", err)
	}
	to, err := core.ParseDate(r.To)
	if err != nil {
		return f, core.NewValidationError("to", "%v", err)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from.Time) {
		return f, core.NewValidationError("to", "must not be before from")
	}
	f.From, f.To = from, to
	return f, nil
}
