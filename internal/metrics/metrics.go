// Package metrics exposes Prometheus counters for order and stage writes.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"garment-tracker/internal/core"
)

var (
	// StageRecords counts Record calls by stage kind and outcome.
	StageRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "garment_stage_records_total",
		Help: "Stage record attempts by stage and outcome",
	}, []string{"stage", "outcome"})

	// OrderWrites counts order create/revise/delete calls by outcome.
	OrderWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "garment_order_writes_total",
		Help: "Order writes by operation and outcome",
	}, []string{"operation", "outcome"})

	// ExportDuration tracks workbook export latency.
	ExportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "garment_export_duration_seconds",
		Help:    "Order workbook export duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})
)

// Outcome labels an error for the counters above.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrValidation):
		return "validation"
	case errors.Is(err, core.ErrStageSequence):
		return "sequence"
	case errors.Is(err, core.ErrAlreadyProcessed):
		return "already_processed"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	}
	return "error"
}

// ObserveStage records one stage write.
func ObserveStage(stage core.StageKind, err error) {
	StageRecords.WithLabelValues(string(stage), Outcome(err)).Inc()
}

// ObserveOrder records one order write.
func ObserveOrder(operation string, err error) {
	OrderWrites.WithLabelValues(operation, Outcome(err)).Inc()
}

// ObserveExport records how long an export took since start.
func ObserveExport(start time.Time) {
	ExportDuration.Observe(time.Since(start).Seconds())
}
