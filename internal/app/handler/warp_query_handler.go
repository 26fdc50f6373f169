package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/danghamo/warpgate/internal/app/query"
	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/warp"
	"github.com/danghamo/warpgate/internal/domain/world"
)

// WarpQueryHandler handles read-only warp queries
type WarpQueryHandler struct {
	registry *warp.Registry
	locator  world.Locator
}

// NewWarpQueryHandler creates a new warp query handler
func NewWarpQueryHandler(registry *warp.Registry, locator world.Locator) *WarpQueryHandler {
	return &WarpQueryHandler{
		registry: registry,
		locator:  locator,
	}
}

// Handle handles warp queries
func (h *WarpQueryHandler) Handle(ctx context.Context, q query.Query) (interface{}, error) {
	switch qu := q.(type) {
	case query.ListWarpsQuery:
		return h.handleListWarps(ctx, qu)
	case query.SuggestWarpsQuery:
		return h.handleSuggestWarps(ctx, qu)
	case query.GetWarpQuery:
		return h.handleGetWarp(ctx, qu)
	default:
		return nil, fmt.Errorf("unknown query type: %T", q)
	}
}

func (h *WarpQueryHandler) currentWorld(actorID string) (world.ID, error) {
	current, ok := h.locator.CurrentWorldOf(actorID)
	if !ok {
		return "", shared.ErrActorNotFound(actorID)
	}
	return current, nil
}

func (h *WarpQueryHandler) handleListWarps(_ context.Context, q query.ListWarpsQuery) (query.ListWarpsResult, error) {
	current, err := h.currentWorld(q.ActorID)
	if err != nil {
		return query.ListWarpsResult{}, err
	}
	return query.ListWarpsResult{
		World: current,
		Names: h.registry.ListNames(current),
	}, nil
}

func (h *WarpQueryHandler) handleSuggestWarps(_ context.Context, q query.SuggestWarpsQuery) (query.SuggestWarpsResult, error) {
	current, err := h.currentWorld(q.ActorID)
	if err != nil {
		return query.SuggestWarpsResult{}, err
	}

	prefix := world.Lower(strings.TrimSpace(q.Prefix))
	suggestions := []string{}
	keep := func(name string) {
		if strings.HasPrefix(world.Lower(name), prefix) {
			suggestions = append(suggestions, name)
		}
	}

	switch q.For {
	case query.SuggestForRemove:
		for _, name := range h.registry.Names(current) {
			keep(name)
		}
	case query.SuggestForWarp, "":
		for name := range h.registry.Suggest(current) {
			keep(name)
		}
	default:
		return query.SuggestWarpsResult{}, shared.ErrInvalidInput(fmt.Sprintf("unknown suggestion target %q", q.For))
	}

	return query.SuggestWarpsResult{World: current, Suggestions: suggestions}, nil
}

func (h *WarpQueryHandler) handleGetWarp(_ context.Context, q query.GetWarpQuery) (query.GetWarpResult, error) {
	name := warp.NormalizeName(q.Name)
	p, ok := h.registry.Get(q.World, name)
	if !ok {
		return query.GetWarpResult{}, shared.ErrNotFound(fmt.Sprintf("warp '%s'", name))
	}
	return query.GetWarpResult{World: q.World, Name: name, Point: p}, nil
}
