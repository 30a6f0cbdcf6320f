package app

import "garment-tracker/internal/core"

// OrderResult is returned by order operations.
type OrderResult struct {
	Order      *core.Order      `json:"order"`
	NextStages []core.StageKind `json:"next_stages"`
}

// OrderListResult is returned by ListOrders.
type OrderListResult struct {
	Orders []core.Order `json:"orders"`
}

// StageResult is returned by every Record call. Record holds the concrete
// stage type (*core.FabricPurchase, *core.Stitching, ...). Order is re-read
// after commit and shows the advanced status.
type StageResult struct {
	Stage  core.StageKind `json:"stage"`
	Record any            `json:"record"`
	Order  *OrderResult   `json:"order"`
}
