package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/danghamo/warpgate/internal/api/handlers"
	"github.com/danghamo/warpgate/internal/api/middleware"
	"github.com/danghamo/warpgate/internal/app/service"
	"github.com/danghamo/warpgate/internal/cqrs"
	"github.com/danghamo/warpgate/internal/domain/actor"
	"github.com/danghamo/warpgate/internal/domain/world"
	"github.com/danghamo/warpgate/pkg/autorouter"
	"github.com/danghamo/warpgate/pkg/logger"
	"github.com/danghamo/warpgate/pkg/redisx"
	"github.com/danghamo/warpgate/pkg/sse"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int           `json:"port"`
	Host         string        `json:"host"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// RateLimitConfig limits requests per client address when Enabled
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	logger      *logger.Logger
	redisClient *redisx.Client
	mux         *http.ServeMux

	warpHandler    *handlers.WarpHandler
	commandHandler *handlers.CommandHandler
	worldHandler   *handlers.WorldHandler
	serverHandler  *handlers.ServerHandler
	streamHandler  *handlers.StreamHandler
	authMiddleware *middleware.AuthMiddleware

	worlds      *service.WorldService
	bus         *cqrs.Bus
	broadcaster *sse.Broadcaster

	// scopes background middleware work to the server's lifetime
	ctx    context.Context
	cancel context.CancelFunc
}

// Components are the collaborators the server routes requests to
type Components struct {
	Warps       *handlers.WarpHandler
	Commands    *handlers.CommandHandler
	Worlds      *service.WorldService
	Info        *handlers.ServerHandler
	JWT         *actor.JWTService
	Bus         *cqrs.Bus
	Broadcaster *sse.Broadcaster
	Redis       *redisx.Client // optional, reported by /health
}

// NewServer creates a new HTTP server
func NewServer(config ServerConfig, rateLimit RateLimitConfig, logger *logger.Logger, c Components) (*Server, error) {
	mux := http.NewServeMux()
	apiLogger := logger.WithComponent("api")
	ctx, cancel := context.WithCancel(context.Background())

	server := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			Handler:      mux,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger:         apiLogger,
		redisClient:    c.Redis,
		mux:            mux,
		warpHandler:    c.Warps,
		commandHandler: c.Commands,
		worldHandler:   handlers.NewWorldHandler(apiLogger, c.Worlds),
		serverHandler:  c.Info,
		streamHandler:  handlers.NewStreamHandler(apiLogger, c.Broadcaster),
		authMiddleware: middleware.NewAuthMiddleware(c.JWT, apiLogger),
		worlds:         c.Worlds,
		bus:            c.Bus,
		broadcaster:    c.Broadcaster,
		ctx:            ctx,
		cancel:         cancel,
	}

	if err := server.setupRoutes(); err != nil {
		cancel()
		return nil, err
	}
	server.setupMiddleware(rateLimit)

	return server, nil
}

// setupRoutes configures the server routes
func (s *Server) setupRoutes() error {
	// Health check endpoint (pure REST)
	s.mux.HandleFunc("GET /health", s.healthCheckHandler)

	router := autorouter.NewAutoRouter(s.mux, autorouter.RegistrationOptions{
		Prefix:     "/api/v1/",
		HTTPMethod: http.MethodPost,
		Logger:     s.logger,
	})
	authed := router.With(s.authMiddleware.RequireAuth)

	groups := []struct {
		router  *autorouter.AutoRouter
		prefix  string
		handler any
	}{
		{router, "server.", s.serverHandler},
		{authed, "warp.", s.warpHandler},
		{authed, "command.", s.commandHandler},
		{authed, "world.", s.worldHandler},
	}

	for _, g := range groups {
		r := g.router.WithMethodPrefix(g.prefix)
		routes, err := r.RegisterHandlers(g.handler)
		if err != nil {
			return fmt.Errorf("failed to register %s routes: %w", g.prefix, err)
		}
		s.logger.Debug("Registered JSON-RPC methods",
			zap.String("group", g.prefix),
			zap.Int("count", len(routes)),
		)
	}

	// SSE endpoint for warp changes (token may be passed as a query param)
	s.mux.Handle("GET /api/v1/stream/warps",
		s.authMiddleware.RequireStreamAuth(http.HandlerFunc(s.streamHandler.HandleWarps)))

	return nil
}

// setupMiddleware applies middleware to all routes
func (s *Server) setupMiddleware(rateLimit RateLimitConfig) {
	chain := []middleware.Middleware{
		middleware.Recovery(s.logger),
		middleware.ErrorAdapter(s.logger),
		middleware.CORS(),
		middleware.Logging(s.logger),
	}
	if rateLimit.Enabled {
		chain = append(chain, middleware.RateLimit(s.ctx, rateLimit.RequestsPerSecond, rateLimit.Burst, s.logger))
	}

	s.httpServer.Handler = middleware.Chain(chain...)(s.mux)
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the event bus, loads the built-in worlds and serves HTTP until
// ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	if err := s.StartEvents(ctx); err != nil {
		return err
	}

	s.logger.Info("Starting HTTP server",
		zap.String("address", s.httpServer.Addr))

	serveErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err, ok := <-serveErr:
		if !ok {
			// stopped by an explicit Shutdown
			return nil
		}
		s.logger.Error("HTTP server error", zap.Error(err))
		_ = s.Shutdown()
		return err
	}
}

// StartEvents runs the event router in the background and, once it is
// running, loads the built-in worlds
func (s *Server) StartEvents(ctx context.Context) error {
	go func() {
		if err := s.bus.Run(ctx); err != nil {
			s.logger.Error("Event router error", zap.Error(err))
		}
	}()

	select {
	case <-s.bus.Running():
	case <-ctx.Done():
		return ctx.Err()
	}

	results, err := s.worlds.LoadAll(ctx, world.Overworld, world.Nether, world.End)
	if err != nil {
		return fmt.Errorf("failed to load built-in worlds: %w", err)
	}
	for _, res := range results {
		if res.Warning != "" {
			s.logger.WithWorld(res.World.String()).Warn("Built-in world loaded without stored warps",
				zap.String("warning", res.Warning))
		}
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down HTTP server")
	defer s.cancel()

	// Close stream clients first so their handlers return
	if s.broadcaster != nil {
		s.broadcaster.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server shutdown error", zap.Error(err))
		errs = append(errs, err)
	}

	if s.bus != nil {
		s.logger.Info("Closing event bus")
		if err := s.bus.Close(); err != nil {
			s.logger.Error("Event bus shutdown error", zap.Error(err))
			errs = append(errs, err)
		}
	}

	s.logger.Info("HTTP server stopped")
	return errors.Join(errs...)
}

// GetAddr returns the server address
func (s *Server) GetAddr() string {
	return s.httpServer.Addr
}

type healthCheck struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]healthCheck `json:"checks"`
}

// healthCheckHandler handles health check requests
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := healthResponse{Status: "healthy", Checks: map[string]healthCheck{}}
	status := http.StatusOK

	if s.redisClient != nil {
		if err := s.redisClient.HealthCheck(r.Context()); err != nil {
			response.Status = "unhealthy"
			response.Checks["redis"] = healthCheck{Status: "down", Error: err.Error()}
			status = http.StatusServiceUnavailable
		} else {
			response.Checks["redis"] = healthCheck{Status: "up"}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
