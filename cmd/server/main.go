package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	webAdapter "garment-tracker/internal/adapters/web"
	"garment-tracker/internal/app"
	"garment-tracker/internal/config"
	"garment-tracker/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	svc := app.NewFromPool(pool, cfg.ExportBatchSize, log)
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set, acting user is taken from the X-Acting-User header")
	}
	handler := webAdapter.NewHandler(svc, log.WithField("module", "web"), cfg.AllowedOrigins, cfg.JWTSecret)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("server shutdown")
		}
	}()

	log.WithField("port", cfg.ServerPort).Info("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
	log.Info("server stopped")
}
