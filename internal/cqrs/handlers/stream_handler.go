package handlers

import (
	"context"
	"time"

	wcqrs "github.com/ThreeDotsLabs/watermill/components/cqrs"
	"go.uber.org/zap"

	"github.com/danghamo/warpgate/internal/api/jsonrpcx"
	cqrsevents "github.com/danghamo/warpgate/internal/cqrs"
	"github.com/danghamo/warpgate/pkg/logger"
)

// Stream notification methods
const (
	MethodWarpSet       = "warp.set"
	MethodWarpRemoved   = "warp.removed"
	MethodActorWarped   = "actor.warped"
	MethodWorldLoaded   = "world.loaded"
	MethodWorldUnloaded = "world.unloaded"
)

// StreamBroadcaster pushes a payload to the stream clients watching topic
type StreamBroadcaster interface {
	Publish(topic string, payload any)
}

// StreamEventHandler forwards events to stream clients as JSON-RPC
// notifications. The topic is the world the event concerns.
type StreamEventHandler struct {
	broadcaster StreamBroadcaster
	logger      *logger.Logger
}

// NewStreamEventHandler creates a new stream event handler
func NewStreamEventHandler(broadcaster StreamBroadcaster, log *logger.Logger) *StreamEventHandler {
	return &StreamEventHandler{
		broadcaster: broadcaster,
		logger:      log.WithComponent("stream-event-handler"),
	}
}

// EventHandlers returns the handlers to register on the bus
func (h *StreamEventHandler) EventHandlers() []wcqrs.EventHandler {
	return []wcqrs.EventHandler{
		wcqrs.NewEventHandler("StreamWarpSet", h.HandleWarpSetEvent),
		wcqrs.NewEventHandler("StreamWarpRemoved", h.HandleWarpRemovedEvent),
		wcqrs.NewEventHandler("StreamActorWarped", h.HandleActorWarpedEvent),
		wcqrs.NewEventHandler("StreamWorldLoaded", h.HandleWorldLoadedEvent),
		wcqrs.NewEventHandler("StreamWorldUnloaded", h.HandleWorldUnloadedEvent),
	}
}

func (h *StreamEventHandler) HandleWarpSetEvent(_ context.Context, event *cqrsevents.WarpSetEvent) error {
	h.broadcaster.Publish(event.World.String(), jsonrpcx.NewNotification(MethodWarpSet, map[string]interface{}{
		"world":     event.World,
		"name":      event.Name,
		"point":     event.Point,
		"persisted": event.Persisted,
		"changes":   event.Changes,
		"timestamp": event.Timestamp.Format(time.RFC3339),
	}))
	return nil
}

func (h *StreamEventHandler) HandleWarpRemovedEvent(_ context.Context, event *cqrsevents.WarpRemovedEvent) error {
	h.broadcaster.Publish(event.World.String(), jsonrpcx.NewNotification(MethodWarpRemoved, map[string]interface{}{
		"world":     event.World,
		"name":      event.Name,
		"persisted": event.Persisted,
		"changes":   event.Changes,
		"timestamp": event.Timestamp.Format(time.RFC3339),
	}))
	return nil
}

func (h *StreamEventHandler) HandleActorWarpedEvent(_ context.Context, event *cqrsevents.ActorWarpedEvent) error {
	notification := jsonrpcx.NewNotification(MethodActorWarped, map[string]interface{}{
		"actor_id":    event.ActorID,
		"kind":        event.Kind,
		"destination": event.Destination,
		"from":        event.From,
		"world":       event.World,
		"point":       event.Point,
		"timestamp":   event.Timestamp.Format(time.RFC3339),
	})

	// watchers of both the old and the new world see the hop
	h.broadcaster.Publish(event.World.String(), notification)
	if event.From != event.World {
		h.broadcaster.Publish(event.From.String(), notification)
	}

	h.logger.Debug("Actor warp streamed",
		zap.String("actorId", event.ActorID),
		zap.String("requestId", event.RequestID))
	return nil
}

func (h *StreamEventHandler) HandleWorldLoadedEvent(_ context.Context, event *cqrsevents.WorldLoadedEvent) error {
	h.broadcaster.Publish(event.World.String(), jsonrpcx.NewNotification(MethodWorldLoaded, map[string]interface{}{
		"world":      event.World,
		"warp_count": event.WarpCount,
		"timestamp":  event.Timestamp.Format(time.RFC3339),
	}))
	return nil
}

func (h *StreamEventHandler) HandleWorldUnloadedEvent(_ context.Context, event *cqrsevents.WorldUnloadedEvent) error {
	h.broadcaster.Publish(event.World.String(), jsonrpcx.NewNotification(MethodWorldUnloaded, map[string]interface{}{
		"world":     event.World,
		"timestamp": event.Timestamp.Format(time.RFC3339),
	}))
	return nil
}
