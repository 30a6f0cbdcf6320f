package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"garment-tracker/internal/core"
	"garment-tracker/internal/export"
)

// NewFromPool builds the Postgres-backed services and the facade over them.
func NewFromPool(pool *pgxpool.Pool, exportBatchSize int, log logrus.FieldLogger) ApplicationService {
	reporting := core.NewReportingService(pool)
	return NewAppService(
		core.NewOrderService(pool),
		core.NewStageService(pool),
		reporting,
		export.NewExporter(reporting, exportBatchSize, log.WithField("module", "export")),
		log.WithField("module", moduleName),
	)
}
