package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"garment-tracker/internal/app"
	"garment-tracker/internal/core"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	log       logrus.FieldLogger
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
// When jwtSecret is empty the acting user is read from the X-Acting-User header.
func NewHandler(svc app.ApplicationService, log logrus.FieldLogger, allowedOrigins []string, jwtSecret string) http.Handler {
	h := &Handler{svc: svc, log: log, jwtSecret: jwtSecret}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// ── Reads ─────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Get("/orders/{id}/sheet", h.getOrderSheet)

		r.Get("/reports/status-summary", h.statusSummary)
		r.Get("/reports/dyer-backlog", h.dyerBacklog)
		r.Get("/reports/monthly-revenue", h.monthlyRevenue)
		r.Get("/reports/top-customers", h.topCustomers)

		r.Get("/export.xlsx", h.exportOrders)

		// ── Writes (acting user required, 1 MB body limit) ──────────────────
		r.Group(func(r chi.Router) {
			r.Use(h.RequireActingUser)
			r.Use(RequestBodyLimit(1 << 20))

			r.Post("/orders", h.createOrder)
			r.Patch("/orders/{id}", h.reviseOrder)
			r.Delete("/orders/{id}", h.deleteOrder)
			r.Post("/orders/{id}/stages/{kind}", h.recordStage)
		})
	})

	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// orderID parses the {id} URL parameter. It writes a 400 and returns false on failure.
func orderID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "order id must be a positive integer", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter. Missing means 0.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.NewValidationError(name, "must be an integer")
	}
	return n, nil
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
