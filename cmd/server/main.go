package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"clientDirectory/internal/app"
	"clientDirectory/internal/config"
	grpcserver "clientDirectory/internal/grpc"
	"clientDirectory/internal/httpapi"
	"clientDirectory/internal/logging"
)

// @title						Client Directory API
// @version					1.0
// @description				CRUD for users, companies and clients with JWT role authentication.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @description				JWT bearer token from /auth/login. Format: 'Bearer <token>'
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("configuration loaded", zap.Stringer("config", cfg))

	store, err := app.OpenStore(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close db", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.BootstrapAdmin(ctx, store.Users, cfg.Admin, logger); err != nil {
		return err
	}

	pub, err := app.NewPublisher(cfg.Events, logger)
	if err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}
	defer func() { _ = pub.Close() }()

	router := httpapi.NewRouter(httpapi.Deps{
		Users:     store.Users,
		Companies: store.Companies,
		Clients:   store.Clients,
		Links:     store.Links,
		DB:        store.DB,
		Publisher: pub,
		Logger:    logger,
		Auth:      cfg.Auth,
		HTTP:      cfg.HTTP,
	})
	httpSrv := httpapi.NewServer(cfg.HTTP, router, logger)

	grpcSrv, hs := grpcserver.NewServer(grpcserver.Deps{
		Users:     store.Users,
		Companies: store.Companies,
		Clients:   store.Clients,
		Secret:    cfg.Auth.JWTSecret,
		Logger:    logger,
	})
	go grpcserver.WatchDatabase(ctx, hs, store.DB, 10*time.Second, logger)
	stopGRPC, err := grpcserver.Start(cfg.GRPC.Address, grpcSrv, logger)
	if err != nil {
		return fmt.Errorf("start grpc: %w", err)
	}

	httpErr := make(chan error, 1)
	go func() { httpErr <- httpSrv.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-httpErr:
		if err != nil {
			logger.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return errors.Join(err, httpSrv.Shutdown(shutdownCtx), stopGRPC(shutdownCtx))
}

// loadConfig requires JWT_SECRET in production and falls back to a development
// secret elsewhere.
func loadConfig() (*config.Config, error) {
	if os.Getenv("APP_ENV") == "production" {
		return config.Load()
	}
	return config.LoadWithDefaults()
}
