// WildScan - wildlife discovery demo server
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ashureev/wildscan/internal/config"
	"github.com/ashureev/wildscan/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wildscan",
	Short: "WildScan wildlife discovery server",
	Long: `WildScan serves the wildlife discovery app: per-device app state,
chat history and photo scans, persisted in SQLite or Redis.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			slog.Info("No .env file found, using environment variables")
		}
	},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// openBackend opens the configured store and checks it is reachable.
func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	var (
		backend store.Backend
		err     error
	)
	switch cfg.Store.Backend {
	case config.BackendRedis:
		backend = store.NewRedis(store.RedisOptions{
			Addr:      cfg.Store.RedisAddr,
			Password:  cfg.Store.RedisPassword,
			DB:        cfg.Store.RedisDB,
			Namespace: cfg.Store.RedisNamespace,
		})
	default:
		backend, err = store.NewSQLite(cfg.Store.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout.HealthCheck)
	defer cancel()
	if err := backend.Ping(pingCtx); err != nil {
		if closeErr := backend.Close(); closeErr != nil {
			slog.Error("Failed to close store", "error", closeErr)
		}
		return nil, fmt.Errorf("store health check failed: %w", err)
	}

	slog.Info("Store connected", "backend", cfg.Store.Backend)
	return backend, nil
}
