package api

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/danghamo/warpgate/internal/api/handlers"
	"github.com/danghamo/warpgate/internal/app/console"
	"github.com/danghamo/warpgate/internal/app/handler"
	"github.com/danghamo/warpgate/internal/app/service"
	"github.com/danghamo/warpgate/internal/cqrs"
	cqrshandlers "github.com/danghamo/warpgate/internal/cqrs/handlers"
	"github.com/danghamo/warpgate/internal/domain/actor"
	"github.com/danghamo/warpgate/internal/domain/warp"
	"github.com/danghamo/warpgate/internal/domain/world"
	"github.com/danghamo/warpgate/pkg/config"
	"github.com/danghamo/warpgate/pkg/logger"
	"github.com/danghamo/warpgate/pkg/redisx"
	"github.com/danghamo/warpgate/pkg/sse"
)

// Version is reported by server.Info
const Version = "0.1.0"

// Build assembles the warp service described by cfg. redisClient is required
// only when a redis driver is configured.
func Build(cfg *config.Config, log *logger.Logger, redisClient *redisx.Client) (*Server, error) {
	var rdb *redis.Client
	if redisClient != nil {
		rdb = redisClient.Client
	}

	repo, err := newRepository(cfg, rdb)
	if err != nil {
		return nil, err
	}

	catalog := world.NewLoadedSet()
	registry := warp.NewRegistry(repo, catalog, log)
	resolver := warp.NewResolver(registry, catalog, cfg.Warp.Namespace)
	tracker := actor.NewTracker()
	privilege := actor.NewTagChecker(cfg.Warp.PrivilegedTag)
	jwtService := actor.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.JWTExpiration)

	if cfg.Events.Driver == cqrs.DriverRedis && rdb == nil {
		return nil, fmt.Errorf("redis events driver needs a redis client")
	}
	bus, err := cqrs.NewBus(cqrs.BusConfig{
		Driver:        cfg.Events.Driver,
		ConsumerGroup: cfg.Events.ConsumerGroup,
		CloseTimeout:  cfg.Events.CloseTimeout,
	}, rdb, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}

	broadcaster := sse.NewBroadcaster(log)
	eventHandlers := append(
		cqrshandlers.NewAuditEventHandler(log).EventHandlers(),
		cqrshandlers.NewStreamEventHandler(broadcaster, log).EventHandlers()...,
	)
	if err := bus.AddHandlers(eventHandlers...); err != nil {
		return nil, fmt.Errorf("failed to register event handlers: %w", err)
	}

	registry.Observe(cqrs.NewChangePublisher(bus, log).OnChange)

	commands := handler.NewWarpCommandHandler(registry, resolver, tracker, privilege, tracker, bus, log)
	queries := handler.NewWarpQueryHandler(registry, tracker)
	worlds := service.NewWorldService(catalog, registry, bus, log)
	dispatcher := console.NewDispatcher(commands, queries, log)

	info := handlers.NewServerHandler(handlers.ServerInfo{
		Name:          "warpgate",
		Version:       Version,
		Environment:   cfg.Server.Environment,
		Namespace:     cfg.Warp.Namespace,
		StorageDriver: cfg.Storage.Driver,
		EventsDriver:  cfg.Events.Driver,
	}, handlers.ServerStatus{
		Worlds:        worlds.LoadedWorlds,
		OnlineActors:  tracker.Count,
		StreamClients: broadcaster.ClientCount,
	})

	return NewServer(ServerConfig{
		Port:         cfg.Server.Port,
		Host:         cfg.Server.Host,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, RateLimitConfig{
		Enabled:           cfg.RateLimit.Enabled,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}, log, Components{
		Warps:       handlers.NewWarpHandler(log, commands, queries, tracker),
		Commands:    handlers.NewCommandHandler(log, dispatcher, tracker),
		Worlds:      worlds,
		Info:        info,
		JWT:         jwtService,
		Bus:         bus,
		Broadcaster: broadcaster,
		Redis:       redisClient,
	})
}

func newRepository(cfg *config.Config, rdb *redis.Client) (warp.Repository, error) {
	switch cfg.Storage.Driver {
	case "file":
		return warp.NewFileRepository(warp.Layout{
			Root:     cfg.Storage.Root,
			DirName:  cfg.Storage.DirName,
			FileName: cfg.Storage.FileName,
		}), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis storage driver needs a redis client")
		}
		return warp.NewRedisRepository(rdb, cfg.Redis.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}
