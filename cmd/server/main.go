package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"taller/internal/adapters/web"
	"taller/internal/app"
	"taller/internal/config"
	"taller/internal/core"
	"taller/internal/db"
	"taller/internal/logging"
	"taller/internal/notify"
	"taller/migrations"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := logging.Must(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = logger.Sync() }()

	if cfg.LocationErr != nil {
		logger.Warn("shop timezone unavailable, using UTC", zap.Error(cfg.LocationErr))
	}

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL,
		db.WithMaxConns(cfg.DBMaxConns),
		db.WithLogger(logger, cfg.SlowQuery))
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		n, err := migrations.Apply(ctx, pool, logger)
		if err != nil {
			logger.Fatal("migrations", zap.Error(err))
		}
		logger.Info("migrations applied", zap.Int("count", n))
	}

	services := app.NewServices(pool, cfg.TallerNombre, cfg.Location)
	if n, err := services.WhatsApp.SeedDefaults(ctx); err != nil {
		logger.Warn("plantillas seed failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("plantillas seeded", zap.Int("count", n))
	}

	cache := core.NewOrderCache(services.Orders.Kanban, cfg.CacheRefresh, logger)
	hub := web.NewHub(cfg.AllowedOrigins, logger)

	deps := services.Deps()
	deps.Cache = cache
	deps.Events = hub
	if cfg.WhatsAppEnabled() {
		deps.Sender = notify.NewClient(cfg.Uazapi.BaseURL, cfg.Uazapi.Token, cfg.Uazapi.Timeout, logger)
	} else {
		logger.Warn("uazapi is not configured, WhatsApp sending disabled")
	}
	svc := app.NewAppService(deps)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.NewHandler(svc, hub, logger, cfg.AllowedOrigins, cfg.JWTSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return cache.Run(gctx) })
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
