// migrate applies the embedded SQL migrations to DATABASE_URL.
//
// Usage: go run ./cmd/migrate
package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"garment-tracker/internal/config"
	"garment-tracker/internal/db"
	"garment-tracker/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := config.NewLogger(cfg)

	ctx := context.Background()
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := db.NewPool(connCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}
	defer pool.Close()

	applied, err := migrations.Apply(ctx, pool, log)
	if err != nil {
		log.Fatalf("[MIGRATE] %v", err)
	}
	log.WithField("applied", len(applied)).Info("[DONE] all migrations processed")
}
