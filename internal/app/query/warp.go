package query

import (
	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/world"
)

// Query types
const (
	TypeListWarps    = "warp.List"
	TypeSuggestWarps = "warp.Suggest"
	TypeGetWarp      = "warp.Get"
)

// Suggestion targets
const (
	SuggestForWarp   = "warp"
	SuggestForRemove = "removewarp"
)

// ListWarpsQuery lists what the actor can warp to from its world
type ListWarpsQuery struct {
	BaseQuery
	ActorID string `json:"actor_id"`
}

// NewListWarpsQuery creates a new list warps query
func NewListWarpsQuery(actorID string) ListWarpsQuery {
	return ListWarpsQuery{
		BaseQuery: NewBaseQuery(TypeListWarps),
		ActorID:   actorID,
	}
}

// SuggestWarpsQuery asks for completions of a partially typed argument.
// For is SuggestForWarp (warps and worlds) or SuggestForRemove (warps only).
type SuggestWarpsQuery struct {
	BaseQuery
	ActorID string `json:"actor_id"`
	For     string `json:"for"`
	Prefix  string `json:"prefix"`
}

// NewSuggestWarpsQuery creates a new suggest warps query
func NewSuggestWarpsQuery(actorID, target, prefix string) SuggestWarpsQuery {
	return SuggestWarpsQuery{
		BaseQuery: NewBaseQuery(TypeSuggestWarps),
		ActorID:   actorID,
		For:       target,
		Prefix:    prefix,
	}
}

// GetWarpQuery looks up one warp in a world
type GetWarpQuery struct {
	BaseQuery
	World world.ID `json:"world"`
	Name  string   `json:"name"`
}

// NewGetWarpQuery creates a new get warp query
func NewGetWarpQuery(worldID world.ID, name string) GetWarpQuery {
	return GetWarpQuery{
		BaseQuery: NewBaseQuery(TypeGetWarp),
		World:     worldID,
		Name:      name,
	}
}

// ListWarpsResult is the listing shown by the bare warp command
type ListWarpsResult struct {
	World world.ID `json:"world"`
	Names []string `json:"names"`
}

// SuggestWarpsResult holds completion candidates in display order
type SuggestWarpsResult struct {
	World       world.ID `json:"world"`
	Suggestions []string `json:"suggestions"`
}

// GetWarpResult is a single warp
type GetWarpResult struct {
	World world.ID        `json:"world"`
	Name  string          `json:"name"`
	Point shared.BlockPos `json:"point"`
}
