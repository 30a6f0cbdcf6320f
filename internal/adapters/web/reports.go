package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"garment-tracker/internal/export"
)

// statusSummary handles GET /api/reports/status-summary.
func (h *Handler) statusSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.StatusSummary(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// dyerBacklog handles GET /api/reports/dyer-backlog.
func (h *Handler) dyerBacklog(w http.ResponseWriter, r *http.Request) {
	lines, err := h.svc.DyerBacklog(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, lines)
}

// monthlyRevenue handles GET /api/reports/monthly-revenue?year=.
func (h *Handler) monthlyRevenue(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	lines, err := h.svc.MonthlyRevenue(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, lines)
}

// topCustomers handles GET /api/reports/top-customers?limit=.
func (h *Handler) topCustomers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.svc.TopCustomers(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, out)
}

// exportOrders handles GET /api/export.xlsx. The workbook is buffered before
// any header is written.
func (h *Handler) exportOrders(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	n, err := h.svc.ExportOrders(r.Context(), &buf)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	name := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Order-Count", strconv.Itoa(n))
	_, _ = buf.WriteTo(w)
}
