package world

import (
	"slices"
	"sync"
)

// Catalog enumerates the worlds the host currently has loaded
type Catalog interface {
	LoadedWorlds() []ID
}

// Locator answers which world an actor is standing in
type Locator interface {
	CurrentWorldOf(actorID string) (ID, bool)
}

// LoadedSet is an in-memory Catalog fed by world load and unload notifications.
// Worlds are reported in the order they were loaded.
type LoadedSet struct {
	mu     sync.RWMutex
	worlds []ID
}

// NewLoadedSet creates a catalog holding the given worlds
func NewLoadedSet(ids ...ID) *LoadedSet {
	s := &LoadedSet{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add marks a world as loaded. It reports false if it already was.
func (s *LoadedSet) Add(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.worlds, id) {
		return false
	}
	s.worlds = append(s.worlds, id)
	return true
}

// Remove marks a world as unloaded. It reports false if it was not loaded.
func (s *LoadedSet) Remove(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.Index(s.worlds, id)
	if i < 0 {
		return false
	}
	s.worlds = slices.Delete(s.worlds, i, i+1)
	return true
}

// IsLoaded reports whether the world is currently loaded
func (s *LoadedSet) IsLoaded(id ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.worlds, id)
}

// LoadedWorlds returns a copy of the loaded world ids
func (s *LoadedSet) LoadedWorlds() []ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.worlds)
}
