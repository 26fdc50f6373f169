package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/danghamo/warpgate/internal/api/jsonrpcx"
	"github.com/danghamo/warpgate/internal/api/middleware"
	"github.com/danghamo/warpgate/internal/app/service"
	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/world"
	"github.com/danghamo/warpgate/pkg/logger"
)

// WorldLifecycle follows worlds coming up and going down on the host
type WorldLifecycle interface {
	Load(ctx context.Context, worldID world.ID) (service.LoadResult, error)
	Unload(ctx context.Context, worldID world.ID) (bool, error)
	LoadedWorlds() []world.ID
}

// WorldHandler receives world lifecycle notifications from the host
type WorldHandler struct {
	worlds WorldLifecycle
	logger *logger.Logger
}

// NewWorldHandler creates a new world handler
func NewWorldHandler(logger *logger.Logger, worlds WorldLifecycle) *WorldHandler {
	return &WorldHandler{
		worlds: worlds,
		logger: logger.WithComponent("world-handler"),
	}
}

type WorldParams struct {
	World world.ID `json:"world"`
}

type UnloadResult struct {
	World    world.ID `json:"world"`
	Unloaded bool     `json:"unloaded"`
}

type LoadedWorldsResult struct {
	Worlds []world.ID `json:"worlds"`
}

func requireHost(ctx context.Context) error {
	claims, ok := middleware.GetClaims(ctx)
	if !ok || !claims.IsHost() {
		return shared.ErrPermissionDenied("manage worlds")
	}
	return nil
}

// Load handles POST /api/v1/world.Load
func (h *WorldHandler) Load(w http.ResponseWriter, r *http.Request) {
	var params WorldParams
	req, ok := parseRequest(w, r, &params)
	if !ok {
		return
	}

	if err := requireHost(r.Context()); err != nil {
		jsonrpcx.WithDomainError(w, r, req.ID, err)
		return
	}

	result, err := h.worlds.Load(r.Context(), params.World)
	if err != nil {
		jsonrpcx.WithDomainError(w, r, req.ID, err)
		return
	}

	if result.Warning != "" {
		h.logger.WithWorld(params.World.String()).Warn("World loaded without stored warps",
			zap.String("warning", result.Warning))
	}

	jsonrpcx.Success(w, req.ID, result)
}

// Unload handles POST /api/v1/world.Unload
func (h *WorldHandler) Unload(w http.ResponseWriter, r *http.Request) {
	var params WorldParams
	req, ok := parseRequest(w, r, &params)
	if !ok {
		return
	}

	if err := requireHost(r.Context()); err != nil {
		jsonrpcx.WithDomainError(w, r, req.ID, err)
		return
	}

	unloaded, err := h.worlds.Unload(r.Context(), params.World)
	if err != nil {
		jsonrpcx.WithDomainError(w, r, req.ID, err)
		return
	}

	jsonrpcx.Success(w, req.ID, UnloadResult{World: params.World, Unloaded: unloaded})
}

// List handles POST /api/v1/world.List
func (h *WorldHandler) List(w http.ResponseWriter, r *http.Request) {
	req, ok := parseRequest(w, r, nil)
	if !ok {
		return
	}

	worlds := h.worlds.LoadedWorlds()
	if worlds == nil {
		worlds = []world.ID{}
	}
	jsonrpcx.Success(w, req.ID, LoadedWorldsResult{Worlds: worlds})
}
