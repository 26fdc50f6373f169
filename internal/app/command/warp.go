package command

import (
	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/warp"
)

// Command types
const (
	TypeTeleport   = "warp.Teleport"
	TypeSetWarp    = "warp.Set"
	TypeRemoveWarp = "warp.Remove"
)

// TeleportCommand moves an actor to a warp or a loaded world
type TeleportCommand struct {
	BaseCommand
	Destination string `json:"destination"`
}

// NewTeleportCommand creates a new teleport command
func NewTeleportCommand(actorID, destination string) TeleportCommand {
	return TeleportCommand{
		BaseCommand: NewBaseCommand(TypeTeleport, actorID),
		Destination: destination,
	}
}

// SetWarpCommand stores the actor's position as a warp in its world
type SetWarpCommand struct {
	BaseCommand
	Name string `json:"name"`
}

// NewSetWarpCommand creates a new set warp command
func NewSetWarpCommand(actorID, name string) SetWarpCommand {
	return SetWarpCommand{
		BaseCommand: NewBaseCommand(TypeSetWarp, actorID),
		Name:        name,
	}
}

// RemoveWarpCommand deletes a warp from the actor's world
type RemoveWarpCommand struct {
	BaseCommand
	Name string `json:"name"`
}

// NewRemoveWarpCommand creates a new remove warp command
func NewRemoveWarpCommand(actorID, name string) RemoveWarpCommand {
	return RemoveWarpCommand{
		BaseCommand: NewBaseCommand(TypeRemoveWarp, actorID),
		Name:        name,
	}
}

// TeleportResult is returned by a successful teleport
type TeleportResult struct {
	warp.Resolution
	Moved bool `json:"moved"`
}

// SetWarpResult is returned by a set. Warning is filled when the warp was
// stored in memory but could not be persisted.
type SetWarpResult struct {
	Name    string          `json:"name"`
	Point   shared.BlockPos `json:"point"`
	Warning string          `json:"warning,omitempty"`
}

// RemoveWarpResult is returned by a remove
type RemoveWarpResult struct {
	Name    string `json:"name"`
	Warning string `json:"warning,omitempty"`
}
