package handler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danghamo/warpgate/internal/app/command"
	"github.com/danghamo/warpgate/internal/cqrs"
	"github.com/danghamo/warpgate/internal/domain/actor"
	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/warp"
	"github.com/danghamo/warpgate/pkg/logger"
)

// ActorDirectory returns the latest snapshot of an online actor
type ActorDirectory interface {
	Get(actorID string) (actor.Actor, bool)
}

// WarpCommandHandler handles teleport, set and remove commands
type WarpCommandHandler struct {
	registry  *warp.Registry
	resolver  *warp.Resolver
	actors    ActorDirectory
	privilege actor.PrivilegeChecker
	mover     actor.Mover
	events    cqrs.EventPublisher
	logger    *logger.Logger
}

// NewWarpCommandHandler creates a new warp command handler. mover and events may be nil.
func NewWarpCommandHandler(
	registry *warp.Registry,
	resolver *warp.Resolver,
	actors ActorDirectory,
	privilege actor.PrivilegeChecker,
	mover actor.Mover,
	events cqrs.EventPublisher,
	log *logger.Logger,
) *WarpCommandHandler {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &WarpCommandHandler{
		registry:  registry,
		resolver:  resolver,
		actors:    actors,
		privilege: privilege,
		mover:     mover,
		events:    events,
		logger:    log.WithComponent("warp-command-handler"),
	}
}

// Handle handles warp commands
func (h *WarpCommandHandler) Handle(ctx context.Context, cmd command.Command) (interface{}, error) {
	switch c := cmd.(type) {
	case command.TeleportCommand:
		return h.handleTeleport(ctx, c)
	case command.SetWarpCommand:
		return h.handleSetWarp(ctx, c)
	case command.RemoveWarpCommand:
		return h.handleRemoveWarp(ctx, c)
	default:
		return nil, fmt.Errorf("unknown command type: %T", cmd)
	}
}

func (h *WarpCommandHandler) actor(actorID string) (actor.Actor, error) {
	a, ok := h.actors.Get(actorID)
	if !ok {
		return actor.Actor{}, shared.ErrActorNotFound(actorID)
	}
	return a, nil
}

func (h *WarpCommandHandler) handleTeleport(ctx context.Context, cmd command.TeleportCommand) (command.TeleportResult, error) {
	a, err := h.actor(cmd.ActorID())
	if err != nil {
		return command.TeleportResult{}, err
	}

	res, err := h.resolver.Resolve(a.World, cmd.Destination)
	if err != nil {
		return command.TeleportResult{}, err
	}

	// dimension hops keep the actor's coordinates
	var point *shared.BlockPos
	if res.Kind == warp.KindWarp {
		p := res.Point
		point = &p
	}

	result := command.TeleportResult{Resolution: res}
	if h.mover != nil {
		if err := h.mover.Move(ctx, a.ID, res.World, point); err != nil {
			return command.TeleportResult{}, err
		}
		result.Moved = true
	}

	h.logger.WithActor(a.ID).Info("Actor warped",
		zap.String("kind", string(res.Kind)),
		zap.String("destination", res.Destination),
		zap.String("from", a.World.String()),
		zap.String("to", res.World.String()),
	)

	h.publish(ctx, &cqrs.ActorWarpedEvent{
		ActorID:     a.ID,
		Kind:        string(res.Kind),
		Destination: res.Destination,
		From:        a.World,
		World:       res.World,
		Point:       point,
		Timestamp:   time.Now(),
		RequestID:   cmd.CommandID(),
	})

	return result, nil
}

func (h *WarpCommandHandler) handleSetWarp(ctx context.Context, cmd command.SetWarpCommand) (command.SetWarpResult, error) {
	a, err := h.actor(cmd.ActorID())
	if err != nil {
		return command.SetWarpResult{}, err
	}

	point, err := h.registry.Set(ctx, a.World, cmd.Name, a.Position, h.privilege.IsPrivileged(a))
	result := command.SetWarpResult{Name: warp.NormalizeName(cmd.Name), Point: point}
	if err != nil {
		if !shared.HasCode(err, shared.ErrCodeIO) {
			return command.SetWarpResult{}, err
		}
		result.Warning = err.Error()
	}
	return result, nil
}

func (h *WarpCommandHandler) handleRemoveWarp(ctx context.Context, cmd command.RemoveWarpCommand) (command.RemoveWarpResult, error) {
	a, err := h.actor(cmd.ActorID())
	if err != nil {
		return command.RemoveWarpResult{}, err
	}

	err = h.registry.Remove(ctx, a.World, cmd.Name, h.privilege.IsPrivileged(a))
	result := command.RemoveWarpResult{Name: warp.NormalizeName(cmd.Name)}
	if err != nil {
		if !shared.HasCode(err, shared.ErrCodeIO) {
			return command.RemoveWarpResult{}, err
		}
		result.Warning = err.Error()
	}
	return result, nil
}

func (h *WarpCommandHandler) publish(ctx context.Context, event interface{}) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(ctx, event); err != nil {
		h.logger.Warn("Failed to publish event",
			zap.String("event", fmt.Sprintf("%T", event)),
			zap.Error(err),
		)
	}
}
