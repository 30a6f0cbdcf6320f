package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"garment-tracker/internal/core"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Fields    []core.FieldError `json:"fields,omitempty"`
	Current   core.Status       `json:"current_status,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, errorResponse{Error: message, Code: code}, status)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, resp errorResponse, status int) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps an ApplicationService error onto a status code.
// Anything not recognised is a 500 with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	var se *core.SequenceError
	switch {
	case errors.As(err, &ve):
		writeErrorResponse(w, r, errorResponse{
			Error:  "validation failed",
			Code:   "VALIDATION_FAILED",
			Fields: ve.Fields,
		}, http.StatusUnprocessableEntity)
	case errors.As(err, &se):
		writeErrorResponse(w, r, errorResponse{
			Error:   "this step isn't available yet",
			Code:    "STAGE_NOT_AVAILABLE",
			Current: se.Current,
		}, http.StatusConflict)
	case errors.Is(err, core.ErrStageSequence):
		writeError(w, r, "this step isn't available yet", "STAGE_NOT_AVAILABLE", http.StatusConflict)
	case errors.Is(err, core.ErrAlreadyProcessed):
		writeError(w, r, err.Error(), "ALREADY_PROCESSED", http.StatusConflict)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
