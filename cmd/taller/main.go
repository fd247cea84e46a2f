package main

import (
	"context"
	"fmt"
	"os"
	_ "time/tzdata"

	"taller/internal/adapters/cli"
	"taller/internal/app"
	"taller/internal/config"
	"taller/internal/db"
	"taller/internal/logging"
	"taller/internal/notify"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	open := func(ctx context.Context) (app.ApplicationService, func(), error) {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.WithMaxConns(2))
		if err != nil {
			return nil, nil, err
		}
		logger := logging.Must(cfg.LogLevel, cfg.LogFormat)
		if cfg.LocationErr != nil {
			logger.Warn("shop timezone unavailable, using UTC", zap.Error(cfg.LocationErr))
		}
		deps := app.NewServices(pool, cfg.TallerNombre, cfg.Location).Deps()
		if cfg.WhatsAppEnabled() {
			deps.Sender = notify.NewClient(cfg.Uazapi.BaseURL, cfg.Uazapi.Token, cfg.Uazapi.Timeout, logger)
		}
		release := func() {
			pool.Close()
			_ = logger.Sync()
		}
		return app.NewAppService(deps), release, nil
	}

	if err := cli.NewRootCommand(open).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
