package config

import (
	"fmt"

	"github.com/danghamo/warpgate/pkg/logger"
)

// Initialize loads configuration and sets up global logger
func Initialize() (*Config, *logger.Logger, error) {
	cfg, err := Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Log.Level),
		Environment: cfg.Log.Environment,
		Encoding:    cfg.Log.Encoding,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.SetGlobalLogger(appLogger)

	fields := map[string]interface{}{
		"environment":    cfg.Server.Environment,
		"server_port":    cfg.Server.Port,
		"storage_driver": cfg.Storage.Driver,
		"storage_root":   cfg.Storage.Root,
		"events_driver":  cfg.Events.Driver,
		"namespace":      cfg.Warp.Namespace,
		"log_level":      cfg.Log.Level,
	}
	appLogger.WithFields(fields).Info("Configuration and logger initialized successfully")

	return cfg, appLogger, nil
}
