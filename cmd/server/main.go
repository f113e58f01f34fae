package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tripledger/internal/api"
	"tripledger/internal/auth"
	"tripledger/internal/config"
	"tripledger/internal/metrics"
	"tripledger/internal/service"
	"tripledger/internal/storage/sqlite"
	"tripledger/pkg/logging"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logging.Setup("info").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	jwt := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	m := metrics.New()

	server := api.New(
		cfg,
		service.NewUserService(store, jwt, logger),
		service.NewLedgerService(store, logger),
		service.NewBillItemService(store, logger),
		jwt,
		m,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down", "timeout", cfg.GracefulShutdownTimeout)
		if err := server.App.ShutdownWithTimeout(cfg.GracefulShutdownTimeout); err != nil {
			logger.Error("shutdown did not complete cleanly", "error", err)
		}
	}()

	logger.Info("server listening", "addr", cfg.HTTP.Addr)
	if err := server.App.Listen(cfg.HTTP.Addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
