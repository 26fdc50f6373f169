package handlers

import (
	"context"

	wcqrs "github.com/ThreeDotsLabs/watermill/components/cqrs"
	"go.uber.org/zap"

	cqrsevents "github.com/danghamo/warpgate/internal/cqrs"
	"github.com/danghamo/warpgate/pkg/logger"
)

// AuditEventHandler writes every warp event to the log
type AuditEventHandler struct {
	logger *logger.Logger
}

// NewAuditEventHandler creates a new audit event handler
func NewAuditEventHandler(log *logger.Logger) *AuditEventHandler {
	return &AuditEventHandler{logger: log.WithComponent("audit")}
}

// EventHandlers returns the handlers to register on the bus
func (h *AuditEventHandler) EventHandlers() []wcqrs.EventHandler {
	return []wcqrs.EventHandler{
		wcqrs.NewEventHandler("AuditWarpSet", h.HandleWarpSetEvent),
		wcqrs.NewEventHandler("AuditWarpRemoved", h.HandleWarpRemovedEvent),
		wcqrs.NewEventHandler("AuditActorWarped", h.HandleActorWarpedEvent),
		wcqrs.NewEventHandler("AuditWorldLoaded", h.HandleWorldLoadedEvent),
		wcqrs.NewEventHandler("AuditWorldUnloaded", h.HandleWorldUnloadedEvent),
	}
}

func (h *AuditEventHandler) HandleWarpSetEvent(_ context.Context, event *cqrsevents.WarpSetEvent) error {
	h.logger.WithWorld(event.World.String()).Info("Warp set",
		zap.String("warp", event.Name),
		zap.Stringer("point", event.Point),
		zap.Bool("persisted", event.Persisted),
		zap.ByteString("changes", event.Changes),
		zap.String("eventId", event.EventID))
	return nil
}

func (h *AuditEventHandler) HandleWarpRemovedEvent(_ context.Context, event *cqrsevents.WarpRemovedEvent) error {
	h.logger.WithWorld(event.World.String()).Info("Warp removed",
		zap.String("warp", event.Name),
		zap.Stringer("point", event.Point),
		zap.Bool("persisted", event.Persisted),
		zap.ByteString("changes", event.Changes),
		zap.String("eventId", event.EventID))
	return nil
}

func (h *AuditEventHandler) HandleActorWarpedEvent(_ context.Context, event *cqrsevents.ActorWarpedEvent) error {
	h.logger.WithActor(event.ActorID).Info("Actor warped",
		zap.String("kind", event.Kind),
		zap.String("destination", event.Destination),
		zap.String("from", event.From.String()),
		zap.String("to", event.World.String()),
		zap.String("requestId", event.RequestID))
	return nil
}

func (h *AuditEventHandler) HandleWorldLoadedEvent(_ context.Context, event *cqrsevents.WorldLoadedEvent) error {
	log := h.logger.WithWorld(event.World.String())
	if event.Error != "" {
		log.Warn("World loaded without stored warps",
			zap.Int("warpCount", event.WarpCount),
			zap.String("error", event.Error))
		return nil
	}
	log.Info("World loaded", zap.Int("warpCount", event.WarpCount))
	return nil
}

func (h *AuditEventHandler) HandleWorldUnloadedEvent(_ context.Context, event *cqrsevents.WorldUnloadedEvent) error {
	h.logger.WithWorld(event.World.String()).Info("World unloaded")
	return nil
}
