package cqrs

import (
	"encoding/json"
	"time"

	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/world"
)

// WarpSetEvent is published after a warp is created or moved
type WarpSetEvent struct {
	World     world.ID        `json:"world"`
	Name      string          `json:"name"`
	Point     shared.BlockPos `json:"point"`
	Seq       uint64          `json:"seq"` // per-world mutation order
	Persisted bool            `json:"persisted"`
	Changes   json.RawMessage `json:"changes,omitempty"` // JSON merge patch of the world's document
	Timestamp time.Time       `json:"timestamp"`
	EventID   string          `json:"event_id"`
}

// WarpRemovedEvent is published after a warp is removed
type WarpRemovedEvent struct {
	World     world.ID        `json:"world"`
	Name      string          `json:"name"`
	Point     shared.BlockPos `json:"point"`
	Seq       uint64          `json:"seq"` // per-world mutation order
	Persisted bool            `json:"persisted"`
	Changes   json.RawMessage `json:"changes,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	EventID   string          `json:"event_id"`
}

// ActorWarpedEvent is published after an actor is sent to a destination
type ActorWarpedEvent struct {
	ActorID     string           `json:"actor_id"`
	Kind        string           `json:"kind"`
	Destination string           `json:"destination"`
	From        world.ID         `json:"from"`
	World       world.ID         `json:"world"`
	Point       *shared.BlockPos `json:"point,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
	RequestID   string           `json:"request_id"`
}

// WorldLoadedEvent is published when a world's warps were read at load time
type WorldLoadedEvent struct {
	World     world.ID  `json:"world"`
	WarpCount int       `json:"warp_count"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WorldUnloadedEvent is published when a world leaves the catalog
type WorldUnloadedEvent struct {
	World     world.ID  `json:"world"`
	Timestamp time.Time `json:"timestamp"`
}
