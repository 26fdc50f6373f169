package warp

import (
	"context"
	"iter"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/world"
	"github.com/danghamo/warpgate/pkg/logger"
)

// ChangeKind tells set and remove changes apart
type ChangeKind string

const (
	ChangeSet    ChangeKind = "set"
	ChangeRemove ChangeKind = "remove"
)

// Change describes one committed mutation of a world's dictionary. Seq
// increases by one with every mutation of the same world.
type Change struct {
	Kind      ChangeKind
	Seq       uint64
	World     world.ID
	Name      string
	Point     Point
	Before    Dictionary
	After     Dictionary
	Persisted bool
}

// Observer is notified after a mutation without the world's lock held.
// Changes to one world reach observers in commit order.
type Observer func(ctx context.Context, change Change)

// worldWarps is one world's dictionary and the lock serializing its mutations.
// notifyMu is taken before mu is released so observers run in commit order.
type worldWarps struct {
	mu       sync.RWMutex
	notifyMu sync.Mutex
	warps    Dictionary
	seq      uint64
}

// Registry owns every world's warps and keeps them in step with the Repository.
// Mutations of one world are serialized and persisted before they return;
// reads only ever see a dictionary before or after a mutation.
type Registry struct {
	repo    Repository
	catalog world.Catalog
	logger  *logger.Logger

	mu     sync.RWMutex
	worlds map[world.ID]*worldWarps

	observersMu sync.RWMutex
	observers   []Observer
}

// NewRegistry creates a registry backed by repo. The catalog feeds world aliases to listings.
func NewRegistry(repo Repository, catalog world.Catalog, log *logger.Logger) *Registry {
	if catalog == nil {
		catalog = world.NewLoadedSet()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Registry{
		repo:    repo,
		catalog: catalog,
		logger:  log.WithComponent("warp-registry"),
		worlds:  make(map[world.ID]*worldWarps),
	}
}

// Observe registers fn to be called after every set and remove
func (r *Registry) Observe(fn Observer) {
	r.observersMu.Lock()
	defer r.observersMu.Unlock()
	r.observers = append(r.observers, fn)
}

func (r *Registry) notify(ctx context.Context, change Change) {
	r.observersMu.RLock()
	observers := slices.Clone(r.observers)
	r.observersMu.RUnlock()

	for _, fn := range observers {
		fn(ctx, change)
	}
}

// table returns the world's entry, creating it when create is set
func (r *Registry) table(worldID world.ID, create bool) *worldWarps {
	r.mu.RLock()
	t, ok := r.worlds[worldID]
	r.mu.RUnlock()
	if ok || !create {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok = r.worlds[worldID]; ok {
		return t
	}
	t = &worldWarps{warps: Dictionary{}}
	r.worlds[worldID] = t
	return t
}

// Get looks a warp up by its lowercased name
func (r *Registry) Get(worldID world.ID, name string) (Point, bool) {
	t := r.table(worldID, false)
	if t == nil {
		return Point{}, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.warps[NormalizeName(name)]
	return p, ok
}

// Snapshot returns a copy of the world's dictionary
func (r *Registry) Snapshot(worldID world.ID) Dictionary {
	t := r.table(worldID, false)
	if t == nil {
		return Dictionary{}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.warps.Clone()
}

// Names returns the world's warp names, sorted
func (r *Registry) Names(worldID world.ID) []string {
	t := r.table(worldID, false)
	if t == nil {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.warps.Names()
}

// Set stores point under name in the world and persists the world's dictionary.
// A persistence failure is logged and returned with the IO_ERROR code; the
// in-memory change stands either way.
func (r *Registry) Set(ctx context.Context, worldID world.ID, name string, point Point, privileged bool) (Point, error) {
	if !privileged {
		return Point{}, shared.ErrPermissionDenied("set warp")
	}
	if err := ValidateName(name); err != nil {
		return Point{}, err
	}
	key := NormalizeName(name)

	t := r.table(worldID, true)
	t.mu.Lock()
	before := t.warps.Clone()
	t.warps[key] = point
	after := t.warps.Clone()
	err := r.persist(ctx, worldID, after)
	t.seq++
	seq := t.seq
	t.notifyMu.Lock()
	t.mu.Unlock()

	r.notify(ctx, Change{
		Kind:      ChangeSet,
		Seq:       seq,
		World:     worldID,
		Name:      key,
		Point:     point,
		Before:    before,
		After:     after,
		Persisted: err == nil,
	})
	t.notifyMu.Unlock()

	return point, err
}

// Remove deletes name from the world and persists the result
func (r *Registry) Remove(ctx context.Context, worldID world.ID, name string, privileged bool) error {
	if !privileged {
		return shared.ErrPermissionDenied("remove warp")
	}
	key := NormalizeName(name)

	t := r.table(worldID, false)
	if t == nil {
		return shared.ErrNotFound("warp '" + key + "'")
	}

	t.mu.Lock()
	point, ok := t.warps[key]
	if !ok {
		t.mu.Unlock()
		return shared.ErrNotFound("warp '" + key + "'")
	}
	before := t.warps.Clone()
	delete(t.warps, key)
	after := t.warps.Clone()
	err := r.persist(ctx, worldID, after)
	t.seq++
	seq := t.seq
	t.notifyMu.Lock()
	t.mu.Unlock()

	r.notify(ctx, Change{
		Kind:      ChangeRemove,
		Seq:       seq,
		World:     worldID,
		Name:      key,
		Point:     point,
		Before:    before,
		After:     after,
		Persisted: err == nil,
	})
	t.notifyMu.Unlock()

	return err
}

// persist runs with the world's write lock held
func (r *Registry) persist(ctx context.Context, worldID world.ID, snapshot Dictionary) error {
	if err := r.repo.Save(ctx, worldID, snapshot); err != nil {
		r.logger.WithWorld(worldID.String()).Error("Failed to persist warps, keeping in-memory state",
			zap.Int("warp_count", len(snapshot)),
			zap.Error(err),
		)
		if shared.HasCode(err, shared.ErrCodeIO) {
			return err
		}
		return shared.ErrIO("persist warps", err)
	}
	return nil
}

// LoadWorld merges the stored dictionary into memory. Calling it again is
// safe: stored entries overwrite in-memory ones with the same name. A
// malformed document leaves the world's warps untouched and is returned.
func (r *Registry) LoadWorld(ctx context.Context, worldID world.ID) error {
	log := r.logger.WithWorld(worldID.String())

	stored, err := r.repo.Load(ctx, worldID)
	if err != nil {
		log.Warn("Discarding stored warps for this session", zap.Error(err))
		return err
	}

	t := r.table(worldID, true)
	t.mu.Lock()
	for name, p := range stored {
		t.warps[NormalizeName(name)] = p
	}
	count := len(t.warps)
	t.mu.Unlock()

	log.Info("Loaded warps",
		zap.Int("stored", len(stored)),
		zap.Int("total", count),
	)
	return nil
}

// ListNames returns what the bare warp command shows: the built-in aliases,
// then aliases of other loaded worlds that no warp already stands for, then
// this world's warp names.
func (r *Registry) ListNames(worldID world.ID) []string {
	warpNames := r.Names(worldID)

	relaxedWarps := make(map[string]struct{}, len(warpNames))
	for _, name := range warpNames {
		relaxedWarps[world.RelaxedKey(name)] = struct{}{}
	}

	names := world.BuiltinAliases()
	seen := make(map[string]struct{}, len(names)+len(warpNames))
	for _, name := range names {
		seen[name] = struct{}{}
	}
	add := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	for _, id := range r.catalog.LoadedWorlds() {
		if id.IsBuiltin() {
			continue
		}
		alias := id.ShortAlias()
		if _, taken := relaxedWarps[world.RelaxedKey(alias)]; taken {
			continue
		}
		add(alias)
	}

	for _, name := range warpNames {
		add(name)
	}
	return names
}

// Suggest yields completion candidates for a destination: warp names first,
// then loaded world aliases, one entry per relaxed name. Each iteration takes
// a fresh snapshot.
func (r *Registry) Suggest(worldID world.ID) iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]struct{})
		emit := func(name string) bool {
			key := world.RelaxedKey(name)
			if _, dup := seen[key]; dup {
				return true
			}
			seen[key] = struct{}{}
			return yield(name)
		}

		for _, name := range r.Names(worldID) {
			if !emit(name) {
				return
			}
		}
		for _, id := range r.catalog.LoadedWorlds() {
			if !emit(id.ShortAlias()) {
				return
			}
		}
	}
}
