package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"garment-tracker/internal/adapters/cli"
	webAdapter "garment-tracker/internal/adapters/web"
	"garment-tracker/internal/app"
	"garment-tracker/internal/config"
	"garment-tracker/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg)
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "database:", err)
		os.Exit(1)
	}
	defer pool.Close()

	root := cli.NewRootCommand(app.NewFromPool(pool, cfg.ExportBatchSize, log))
	root.AddCommand(tokenCommand(cfg.JWTSecret))

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		pool.Close()
		os.Exit(1)
	}
}

// tokenCommand signs an acting-user token for the HTTP API with JWT_SECRET.
func tokenCommand(secret string) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <acting-user>",
		Short: "Sign an HTTP API token for an acting user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			token, err := webAdapter.IssueToken(secret, args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
