package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/danghamo/warpgate/internal/cqrs"
	"github.com/danghamo/warpgate/internal/domain/warp"
	"github.com/danghamo/warpgate/internal/domain/world"
	"github.com/danghamo/warpgate/pkg/logger"
)

// LoadResult reports what a world load found in storage
type LoadResult struct {
	World     world.ID `json:"world"`
	WarpCount int      `json:"warp_count"`
	Loaded    bool     `json:"loaded"`
	Warning   string   `json:"warning,omitempty"`
}

// WorldService follows the host's world lifecycle: it keeps the catalog of
// loaded worlds and reads each world's warps when the world comes up.
type WorldService struct {
	catalog  *world.LoadedSet
	registry *warp.Registry
	events   cqrs.EventPublisher
	logger   *logger.Logger
}

// NewWorldService creates a new world service. events may be nil.
func NewWorldService(catalog *world.LoadedSet, registry *warp.Registry, events cqrs.EventPublisher, log *logger.Logger) *WorldService {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &WorldService{
		catalog:  catalog,
		registry: registry,
		events:   events,
		logger:   log.WithComponent("world-service"),
	}
}

// Load marks the world as loaded and merges its stored warps. Unreadable or
// malformed storage does not fail the load; the world comes up without its
// stored warps and the problem is reported as a warning.
func (s *WorldService) Load(ctx context.Context, worldID world.ID) (LoadResult, error) {
	if err := worldID.Validate(); err != nil {
		return LoadResult{}, err
	}

	result := LoadResult{World: worldID}
	if !s.catalog.Add(worldID) {
		s.logger.WithWorld(worldID.String()).Debug("World already loaded, reloading warps")
	}
	result.Loaded = true

	if err := s.registry.LoadWorld(ctx, worldID); err != nil {
		result.Warning = err.Error()
	}
	result.WarpCount = len(s.registry.Names(worldID))

	s.publish(ctx, &cqrs.WorldLoadedEvent{
		World:     worldID,
		WarpCount: result.WarpCount,
		Error:     result.Warning,
		Timestamp: time.Now(),
	})
	return result, nil
}

// LoadAll loads every world in order, stopping only on invalid ids
func (s *WorldService) LoadAll(ctx context.Context, ids ...world.ID) ([]LoadResult, error) {
	results := make([]LoadResult, 0, len(ids))
	for _, id := range ids {
		res, err := s.Load(ctx, id)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Unload removes the world from the catalog. Its warps stay in memory and
// on disk so a later load finds them again.
func (s *WorldService) Unload(ctx context.Context, worldID world.ID) (bool, error) {
	if err := worldID.Validate(); err != nil {
		return false, err
	}

	removed := s.catalog.Remove(worldID)
	if removed {
		s.logger.WithWorld(worldID.String()).Info("World unloaded")
		s.publish(ctx, &cqrs.WorldUnloadedEvent{World: worldID, Timestamp: time.Now()})
	}
	return removed, nil
}

// LoadedWorlds returns the catalog contents
func (s *WorldService) LoadedWorlds() []world.ID {
	return s.catalog.LoadedWorlds()
}

func (s *WorldService) publish(ctx context.Context, event interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish world event", zap.Error(err))
	}
}
