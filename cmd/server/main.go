package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/danghamo/warpgate/internal/api"
	"github.com/danghamo/warpgate/pkg/config"
	"github.com/danghamo/warpgate/pkg/redisx"
)

func main() {
	// Initialize configuration and logger
	cfg, log, err := config.Initialize()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// Ensure logger is flushed on exit
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting warpgate",
		zap.String("version", api.Version),
		zap.String("environment", cfg.Server.Environment),
	)

	// Redis is only needed by the redis storage and event drivers
	var redisClient *redisx.Client
	if cfg.Storage.Driver == "redis" || cfg.Events.Driver == "redis" {
		redisClient, err = redisx.NewClient(cfg.Redis.URL, log)
		if err != nil {
			log.Fatal("Failed to initialize Redis client", zap.Error(err))
		}
		defer redisClient.Close()
	}

	apiServer, err := api.Build(cfg, log, redisClient)
	if err != nil {
		log.Fatal("Failed to build server", zap.Error(err))
	}

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := apiServer.Start(ctx); err != nil {
		log.Error("Server error", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Server gracefully stopped")
}
