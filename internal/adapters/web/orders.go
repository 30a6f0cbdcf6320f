package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"garment-tracker/internal/app"
	"garment-tracker/internal/core"
)

// listOrders handles GET /api/orders?status=&from=&to=.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.ListOrders(r.Context(), app.ListOrdersRequest{
		Status: q.Get("status"),
		From:   q.Get("from"),
		To:     q.Get("to"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createOrder handles POST /api/orders.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in core.NewOrderInput
	if !decodeJSON(w, r, &in) {
		return
	}
	result, err := h.svc.CreateOrder(r.Context(), app.CreateOrderRequest{
		NewOrderInput: in,
		ActingUser:    actingUserFromContext(r.Context()),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// getOrder handles GET /api/orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// getOrderSheet handles GET /api/orders/{id}/sheet.
func (h *Handler) getOrderSheet(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	sheet, err := h.svc.GetOrderSheet(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sheet)
}

// reviseOrder handles PATCH /api/orders/{id}.
func (h *Handler) reviseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var in core.ReviseOrderInput
	if !decodeJSON(w, r, &in) {
		return
	}
	result, err := h.svc.ReviseOrder(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// deleteOrder handles DELETE /api/orders/{id}.
func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteOrder(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recordStage handles POST /api/orders/{id}/stages/{kind}. The body is the
// stage form; decoding and validation happen in the application layer.
func (h *Handler) recordStage(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, r, "failed to read request body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.RecordStage(r.Context(), app.RecordStageRequest{
		OrderID:    id,
		Stage:      chi.URLParam(r, "kind"),
		Payload:    json.RawMessage(body),
		ActingUser: actingUserFromContext(r.Context()),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}
