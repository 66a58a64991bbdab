package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/worldpeas/pkg/config"
	"github.com/example/worldpeas/pkg/discovery"
	"github.com/example/worldpeas/pkg/identity"
	"github.com/example/worldpeas/pkg/kv"
	"github.com/example/worldpeas/server"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting storefront API",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port),
		zap.String("store", cfg.Server.Store))

	store, err := openStore(cfg)
	if err != nil {
		logger.Fatal("Failed to open kv store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		logger.Warn("KV store ping failed", zap.Error(err))
	} else {
		logger.Info("KV store connected")
	}

	idp := identity.NewClient(&cfg.Identity, logger.Named("identity"))

	audit, err := server.NewAuditLog(&cfg.MongoDB, logger.Named("audit"))
	if err != nil {
		logger.Warn("Audit log unavailable, continuing without it", zap.Error(err))
		audit = nil
	}

	orders, err := server.NewOrderProcessor(logger)
	if err != nil {
		logger.Fatal("Failed to start order actors", zap.Error(err))
	}
	defer orders.Shutdown()

	srv := server.NewServer(cfg, store, idp, audit, orders, logger)
	srv.SetupRoutes()

	// Registration is optional: a missing etcd only disables discovery.
	registry, err := discovery.NewRegistry(&cfg.Etcd, logger.Named("discovery"))
	if err != nil {
		logger.Warn("Failed to connect to etcd, continuing without registration", zap.Error(err))
		registry = nil
	}
	instance := &discovery.Instance{
		Name: cfg.Server.Name,
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}
	if registry != nil {
		if err := registry.Register(ctx, instance); err != nil {
			logger.Warn("Failed to register instance", zap.Error(err))
		}
	}

	srvErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			srvErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-srvErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	if registry != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := registry.Deregister(shutdownCtx, instance); err != nil {
			logger.Error("Failed to deregister instance", zap.Error(err))
		}
		cancel()
		registry.Close()
	}
	if audit != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := audit.Close(shutdownCtx); err != nil {
			logger.Error("Failed to close audit log", zap.Error(err))
		}
		cancel()
	}

	logger.Info("Storefront API stopped")
}

func configPath() string {
	if path := os.Getenv("WORLDPEAS_CONFIG"); path != "" {
		return path
	}
	return "config/config.yaml"
}

func openStore(cfg *config.Config) (kv.Store, error) {
	switch cfg.Server.Store {
	case "redis", "":
		return kv.NewRedisStore(&cfg.Redis), nil
	case "mysql":
		return kv.NewMySQLStore(&cfg.MySQL)
	case "memory":
		return kv.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Server.Store)
	}
}
