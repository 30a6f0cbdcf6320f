// Package config gathers process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL     string   `validate:"required"`
	ServerPort      string   `validate:"required,numeric"`
	AllowedOrigins  []string `validate:"dive,required"`
	JWTSecret       string   `validate:"omitempty,min=32"`
	LogLevel        string   `validate:"oneof=trace debug info warn error fatal panic"`
	LogFormat       string   `validate:"oneof=json text"`
	ExportBatchSize int      `validate:"gt=0,lte=10000"`
}

const defaultOrigins = "http://localhost:3000,http://localhost:8080"

// Load reads .env (if present) and the environment. A missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	batch, err := strconv.Atoi(getEnv("EXPORT_BATCH_SIZE", "200"))
	if err != nil {
		return nil, fmt.Errorf("EXPORT_BATCH_SIZE: %w", err)
	}

	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", defaultOrigins)),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "json")),
		ExportBatchSize: batch,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags and reports every bad setting by env var name.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", envName(fe.StructField()), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func envName(field string) string {
	switch {
	case strings.HasPrefix(field, "AllowedOrigins"):
		return "ALLOWED_ORIGINS"
	}
	switch field {
	case "DatabaseURL":
		return "DATABASE_URL"
	case "ServerPort":
		return "SERVER_PORT"
	case "JWTSecret":
		return "JWT_SECRET"
	case "LogLevel":
		return "LOG_LEVEL"
	case "LogFormat":
		return "LOG_FORMAT"
	case "ExportBatchSize":
		return "EXPORT_BATCH_SIZE"
	}
	return field
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
