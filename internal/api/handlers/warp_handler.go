package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/danghamo/warpgate/internal/api/jsonrpcx"
	"github.com/danghamo/warpgate/internal/app/command"
	"github.com/danghamo/warpgate/internal/app/query"
	"github.com/danghamo/warpgate/internal/domain/world"
	"github.com/danghamo/warpgate/pkg/logger"
)

// WarpHandler exposes the warp commands and queries as JSON-RPC methods
type WarpHandler struct {
	commands command.CommandHandler
	queries  query.QueryHandler
	tracker  ActorTracker
	logger   *logger.Logger
}

// NewWarpHandler creates a new warp handler
func NewWarpHandler(logger *logger.Logger, commands command.CommandHandler, queries query.QueryHandler, tracker ActorTracker) *WarpHandler {
	return &WarpHandler{
		commands: commands,
		queries:  queries,
		tracker:  tracker,
		logger:   logger.WithComponent("warp-handler"),
	}
}

// Request parameter structures
type TeleportParams struct {
	Actor       *ActorParams `json:"actor"`
	Destination string       `json:"destination"`
}

type ListWarpsParams struct {
	Actor *ActorParams `json:"actor"`
}

type SuggestWarpsParams struct {
	Actor  *ActorParams `json:"actor"`
	For    string       `json:"for"`
	Prefix string       `json:"prefix"`
}

type WarpNameParams struct {
	Actor *ActorParams `json:"actor"`
	Name  string       `json:"name"`
}

type GetWarpParams struct {
	World world.ID `json:"world"`
	Name  string   `json:"name"`
}

// Teleport handles POST /api/v1/warp.Teleport
func (h *WarpHandler) Teleport(w http.ResponseWriter, r *http.Request) {
	var params TeleportParams
	req, ok := parseRequest(w, r, &params)
	if !ok {
		return
	}

	a, err := bindActor(r.Context(), h.tracker, params.Actor)
	if err != nil {
		jsonrpcx.WithDomainError(w, r, req.ID, err)
		return
	}

	h.dispatchCommand(w, r, req, command.NewTeleportCommand(a.ID, params.Destination))
}

// List handles POST /api/v1/warp.List
func (h *WarpHandler) List(w http.ResponseWriter, r *http.Request) {
	var params ListWarpsParams
	req, ok := parseRequest(w, r, &params)
	if !ok {
		return
	}

	a, err := bindActor(r.Context(), h.tracker, params.Actor)
	if err != nil {
		jsonrpcx.WithDomainError(w, r, req.ID, err)
		return
	}

	h.dispatchQuery(w, r, req, query.NewListWarpsQuery(a.ID))
}

// Suggest handles POST /api/v1/warp.Suggest
func (h *WarpHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var params SuggestWarpsParams
	req, ok := parseRequest(w, r, &params)
	if !ok {
		return
	}

	a, err := bindActor(r.Context(), h.tracker, params.Actor)
	if err != nil {
		jsonrpcx.WithDomainError(w, r, req.ID, err)
		return
	}

	h.dispatchQuery(w, r, req, query.NewSuggestWarpsQuery(a.ID, params.For, params.Prefix))
}

// Set handles POST /api/v1/warp.Set
func (h *WarpHandler) Set(w http.ResponseWriter, r *http.Request) {
	var params WarpNameParams
	req, ok := parseRequest(w, r, &params)
	if !ok {
		return
	}

	a, err := bindActor(r.Context(), h.tracker, params.Actor)
	if err != nil {
		jsonrpcx.WithDomainError(w, r, req.ID, err)
		return
	}

	h.dispatchCommand(w, r, req, command.NewSetWarpCommand(a.ID, params.Name))
}

// Remove handles POST /api/v1/warp.Remove
func (h *WarpHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var params WarpNameParams
	req, ok := parseRequest(w, r, &params)
	if !ok {
		return
	}

	a, err := bindActor(r.Context(), h.tracker, params.Actor)
	if err != nil {
		jsonrpcx.WithDomainError(w, r, req.ID, err)
		return
	}

	h.dispatchCommand(w, r, req, command.NewRemoveWarpCommand(a.ID, params.Name))
}

// Get handles POST /api/v1/warp.Get
func (h *WarpHandler) Get(w http.ResponseWriter, r *http.Request) {
	var params GetWarpParams
	req, ok := parseRequest(w, r, &params)
	if !ok {
		return
	}

	if err := params.World.Validate(); err != nil {
		jsonrpcx.WithDomainError(w, r, req.ID, err)
		return
	}

	h.dispatchQuery(w, r, req, query.NewGetWarpQuery(params.World, params.Name))
}

func (h *WarpHandler) dispatchCommand(w http.ResponseWriter, r *http.Request, req *jsonrpcx.JSONRPCRequest, cmd command.Command) {
	result, err := h.commands.Handle(r.Context(), cmd)
	if err != nil {
		h.logger.WithActor(cmd.ActorID()).Debug("Command rejected",
			zap.String("command", cmd.CommandType()),
			zap.Error(err),
		)
		jsonrpcx.WithDomainError(w, r, req.ID, err)
		return
	}
	jsonrpcx.Success(w, req.ID, result)
}

func (h *WarpHandler) dispatchQuery(w http.ResponseWriter, r *http.Request, req *jsonrpcx.JSONRPCRequest, q query.Query) {
	result, err := h.queries.Handle(r.Context(), q)
	if err != nil {
		h.logger.Debug("Query rejected",
			zap.String("query", q.QueryType()),
			zap.Error(err),
		)
		jsonrpcx.WithDomainError(w, r, req.ID, err)
		return
	}
	jsonrpcx.Success(w, req.ID, result)
}
