// migrate applies pending SQL migrations and reports how many ran.
//
// Usage: go run ./cmd/migrate
package main

import (
	"context"
	"os"

	"taller/internal/config"
	"taller/internal/db"
	"taller/internal/logging"
	"taller/migrations"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.Must(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect", zap.Error(err))
	}
	defer pool.Close()

	n, err := migrations.Apply(ctx, pool, logger)
	if err != nil {
		logger.Error("migrations failed", zap.Error(err))
		pool.Close()
		os.Exit(1)
	}
	if n == 0 {
		logger.Info("schema is up to date")
		return
	}
	logger.Info("migrations applied", zap.Int("count", n))
}
