package actor

import (
	"context"
	"slices"
	"sync"

	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/world"
)

// Mover carries an actor to a world. A nil point keeps the actor's
// coordinates and only changes its world.
type Mover interface {
	Move(ctx context.Context, actorID string, worldID world.ID, point *shared.BlockPos) error
}

// Tracker is the presence table of online actors. It answers which world
// an actor is in and doubles as the Mover when no host callback is wired.
type Tracker struct {
	mu     sync.RWMutex
	actors map[string]Actor
}

// NewTracker creates an empty presence table
func NewTracker() *Tracker {
	return &Tracker{actors: make(map[string]Actor)}
}

// Update records the latest snapshot of an actor
func (t *Tracker) Update(a Actor) error {
	if a.ID == "" {
		return shared.ErrInvalidInput("actor id cannot be empty")
	}

	a.Tags = slices.Clone(a.Tags)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.actors[a.ID] = a
	return nil
}

// Forget drops an actor that went offline
func (t *Tracker) Forget(actorID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.actors, actorID)
}

// Get returns the actor's last snapshot
func (t *Tracker) Get(actorID string) (Actor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.actors[actorID]
	if ok {
		a.Tags = slices.Clone(a.Tags)
	}
	return a, ok
}

// CurrentWorldOf implements world.Locator
func (t *Tracker) CurrentWorldOf(actorID string) (world.ID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.actors[actorID]
	return a.World, ok
}

// Move implements Mover by updating the tracked snapshot
func (t *Tracker) Move(_ context.Context, actorID string, worldID world.ID, point *shared.BlockPos) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.actors[actorID]
	if !ok {
		return shared.ErrActorNotFound(actorID)
	}
	a.World = worldID
	if point != nil {
		a.Position = *point
	}
	t.actors[actorID] = a
	return nil
}

// Count returns how many actors are tracked
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.actors)
}
