package cqrs

import (
	"context"
	"encoding/json"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"go.uber.org/zap"

	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/warp"
	"github.com/danghamo/warpgate/pkg/logger"
)

// EventPublisher interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, event interface{}) error
}

// ChangePublisher turns registry changes into warp events
type ChangePublisher struct {
	events EventPublisher
	logger *logger.Logger
}

// NewChangePublisher creates a new change publisher
func NewChangePublisher(events EventPublisher, log *logger.Logger) *ChangePublisher {
	return &ChangePublisher{
		events: events,
		logger: log.WithComponent("change-publisher"),
	}
}

// OnChange is a warp.Observer
func (p *ChangePublisher) OnChange(ctx context.Context, change warp.Change) {
	patch, err := MergePatch(change.Before, change.After)
	if err != nil {
		p.logger.WithWorld(change.World.String()).Warn("Failed to build change set", zap.Error(err))
	}

	var event interface{}
	switch change.Kind {
	case warp.ChangeSet:
		event = &WarpSetEvent{
			World:     change.World,
			Name:      change.Name,
			Point:     change.Point,
			Seq:       change.Seq,
			Persisted: change.Persisted,
			Changes:   patch,
			Timestamp: time.Now(),
			EventID:   shared.NewID().String(),
		}
	case warp.ChangeRemove:
		event = &WarpRemovedEvent{
			World:     change.World,
			Name:      change.Name,
			Point:     change.Point,
			Seq:       change.Seq,
			Persisted: change.Persisted,
			Changes:   patch,
			Timestamp: time.Now(),
			EventID:   shared.NewID().String(),
		}
	default:
		return
	}

	if err := p.events.Publish(ctx, event); err != nil {
		p.logger.WithWorld(change.World.String()).Warn("Failed to publish warp event",
			zap.String("warp", change.Name),
			zap.Error(err))
	}
}

// MergePatch returns the JSON merge patch taking the before document to the after document
func MergePatch(before, after warp.Dictionary) (json.RawMessage, error) {
	original, err := warp.Encode(before)
	if err != nil {
		return nil, err
	}
	modified, err := warp.Encode(after)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(original, modified)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(patch), nil
}
