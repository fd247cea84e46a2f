// seed loads the default WhatsApp templates and ensures an admin user exists.
// Estados are seeded by the migrations.
//
// Usage: ADMIN_USERNAME=admin ADMIN_PASSWORD=... go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"os"
	_ "time/tzdata"

	"taller/internal/app"
	"taller/internal/config"
	"taller/internal/core"
	"taller/internal/db"
	"taller/internal/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.Must(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = logger.Sync() }()

	if cfg.LocationErr != nil {
		logger.Warn("shop timezone unavailable, using UTC", zap.Error(cfg.LocationErr))
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect", zap.Error(err))
	}
	defer pool.Close()

	services := app.NewServices(pool, cfg.TallerNombre, cfg.Location)

	logger.Info("seeding plantillas")
	n, err := services.WhatsApp.SeedDefaults(ctx)
	if err != nil {
		logger.Fatal("failed to seed plantillas", zap.Error(err))
	}
	logger.Info("plantillas seeded", zap.Int("count", n))

	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		logger.Info("ADMIN_USERNAME/ADMIN_PASSWORD not set, skipping admin user")
		return
	}

	if _, err := services.Users.GetByUsername(ctx, username); err == nil {
		logger.Info("admin user already exists", zap.String("username", username))
		return
	} else if !errors.Is(err, core.ErrNotFound) {
		logger.Fatal("failed to look up admin user", zap.Error(err))
	}

	u, err := services.Users.CreateUser(ctx, username, "Administrador", password, core.RolAdmin)
	if err != nil {
		logger.Fatal("failed to create admin user", zap.Error(err))
	}
	logger.Info("admin user created", zap.String("username", u.Username), zap.Int("id", u.ID))
}
