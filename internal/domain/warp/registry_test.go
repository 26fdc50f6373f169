package warp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/world"
	"github.com/danghamo/warpgate/pkg/logger"
)

// memoryRepository records saves and can be told to fail
type memoryRepository struct {
	mu      sync.Mutex
	stored  map[world.ID]Dictionary
	saves   int
	saveErr error
	loadErr error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{stored: make(map[world.ID]Dictionary)}
}

func (m *memoryRepository) Load(_ context.Context, worldID world.ID) (Dictionary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.stored[worldID].Clone(), nil
}

func (m *memoryRepository) Save(_ context.Context, worldID world.ID, warps Dictionary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	if len(warps) == 0 {
		delete(m.stored, worldID)
		return nil
	}
	m.stored[worldID] = warps.Clone()
	return nil
}

func (m *memoryRepository) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func newTestRegistry(repo Repository, worlds ...world.ID) (*Registry, *world.LoadedSet) {
	catalog := world.NewLoadedSet(worlds...)
	return NewRegistry(repo, catalog, logger.NewNop()), catalog
}

func TestRegistry_SetThenGet(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	registry, _ := newTestRegistry(repo)

	points := map[string]Point{
		"spawn":   shared.NewBlockPos(0, 64, 0),
		"Market":  shared.NewBlockPos(-10, 70, 15),
		"DEEP_IN": shared.NewBlockPos(1, -59, 1),
	}

	for name, p := range points {
		stored, err := registry.Set(ctx, world.Overworld, name, p, true)
		require.NoError(t, err)
		assert.Equal(t, p, stored)

		got, ok := registry.Get(world.Overworld, NormalizeName(name))
		require.True(t, ok, "warp %q", name)
		assert.Equal(t, p, got)
	}

	assert.Equal(t, len(points), repo.saveCount())
	assert.Equal(t, registry.Snapshot(world.Overworld), repo.stored[world.Overworld])
}

func TestRegistry_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	registry, _ := newTestRegistry(newMemoryRepository())

	_, err := registry.Set(ctx, world.Overworld, "spawn", shared.NewBlockPos(0, 64, 0), true)
	require.NoError(t, err)
	_, err = registry.Set(ctx, world.Overworld, "SPAWN", shared.NewBlockPos(5, 65, 5), true)
	require.NoError(t, err)

	got, ok := registry.Get(world.Overworld, "spawn")
	require.True(t, ok)
	assert.Equal(t, shared.NewBlockPos(5, 65, 5), got)
	assert.Equal(t, []string{"spawn"}, registry.Names(world.Overworld))
}

func TestRegistry_WarpsAreWorldScoped(t *testing.T) {
	ctx := context.Background()
	registry, _ := newTestRegistry(newMemoryRepository())

	_, err := registry.Set(ctx, world.Overworld, "spawn", shared.NewBlockPos(0, 64, 0), true)
	require.NoError(t, err)

	_, ok := registry.Get(world.Nether, "spawn")
	assert.False(t, ok)
}

func TestRegistry_SetRemoveGet(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	registry, _ := newTestRegistry(repo)

	_, err := registry.Set(ctx, world.Overworld, "spawn", shared.NewBlockPos(0, 64, 0), true)
	require.NoError(t, err)

	require.NoError(t, registry.Remove(ctx, world.Overworld, "Spawn", true))

	_, ok := registry.Get(world.Overworld, "spawn")
	assert.False(t, ok)
	assert.NotContains(t, repo.stored, world.Overworld)
	assert.Equal(t, 2, repo.saveCount())
}

func TestRegistry_RemoveUnknown(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	registry, _ := newTestRegistry(repo)

	_, err := registry.Set(ctx, world.Overworld, "spawn", shared.NewBlockPos(0, 64, 0), true)
	require.NoError(t, err)
	before := registry.Snapshot(world.Overworld)

	err = registry.Remove(ctx, world.Overworld, "atlantis", true)
	require.Error(t, err)
	assert.True(t, shared.HasCode(err, shared.ErrCodeNotFound))
	assert.Equal(t, before, registry.Snapshot(world.Overworld))

	err = registry.Remove(ctx, world.End, "atlantis", true)
	assert.True(t, shared.HasCode(err, shared.ErrCodeNotFound))
	assert.Equal(t, 1, repo.saveCount())
}

func TestRegistry_UnprivilegedMutations(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	registry, _ := newTestRegistry(repo)

	_, err := registry.Set(ctx, world.Overworld, "spawn", shared.NewBlockPos(0, 64, 0), true)
	require.NoError(t, err)
	saves := repo.saveCount()
	before := registry.Snapshot(world.Overworld)

	_, err = registry.Set(ctx, world.Overworld, "base", shared.NewBlockPos(1, 1, 1), false)
	require.Error(t, err)
	assert.True(t, shared.HasCode(err, shared.ErrCodePermissionDenied))

	err = registry.Remove(ctx, world.Overworld, "spawn", false)
	require.Error(t, err)
	assert.True(t, shared.HasCode(err, shared.ErrCodePermissionDenied))

	assert.Equal(t, before, registry.Snapshot(world.Overworld))
	assert.Equal(t, saves, repo.saveCount())
}

func TestRegistry_SetRejectsEmptyName(t *testing.T) {
	registry, _ := newTestRegistry(newMemoryRepository())

	_, err := registry.Set(context.Background(), world.Overworld, "   ", shared.NewBlockPos(0, 0, 0), true)
	require.Error(t, err)
	assert.True(t, shared.HasCode(err, shared.ErrCodeInvalidInput))
}

func TestRegistry_PersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	repo.saveErr = errors.New("disk full")
	registry, _ := newTestRegistry(repo)

	stored, err := registry.Set(ctx, world.Overworld, "spawn", shared.NewBlockPos(0, 64, 0), true)
	require.Error(t, err)
	assert.True(t, shared.HasCode(err, shared.ErrCodeIO))
	assert.Equal(t, shared.NewBlockPos(0, 64, 0), stored)

	got, ok := registry.Get(world.Overworld, "spawn")
	require.True(t, ok)
	assert.Equal(t, stored, got)
}

func TestRegistry_LoadWorld(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	repo.stored[world.Overworld] = Dictionary{
		"spawn":  shared.NewBlockPos(0, 64, 0),
		"market": shared.NewBlockPos(3, 70, 3),
	}
	registry, _ := newTestRegistry(repo)

	_, err := registry.Set(ctx, world.Overworld, "spawn", shared.NewBlockPos(9, 9, 9), true)
	require.NoError(t, err)
	_, err = registry.Set(ctx, world.Overworld, "camp", shared.NewBlockPos(1, 1, 1), true)
	require.NoError(t, err)

	// the set above persisted {spawn(9,9,9), camp}, so put the old document back
	repo.stored[world.Overworld] = Dictionary{
		"spawn":  shared.NewBlockPos(0, 64, 0),
		"market": shared.NewBlockPos(3, 70, 3),
	}

	require.NoError(t, registry.LoadWorld(ctx, world.Overworld))
	require.NoError(t, registry.LoadWorld(ctx, world.Overworld))

	assert.Equal(t, Dictionary{
		"spawn":  shared.NewBlockPos(0, 64, 0),
		"market": shared.NewBlockPos(3, 70, 3),
		"camp":   shared.NewBlockPos(1, 1, 1),
	}, registry.Snapshot(world.Overworld))
}

func TestRegistry_LoadWorldMalformed(t *testing.T) {
	repo := newMemoryRepository()
	repo.loadErr = shared.ErrMalformedData("warps.json", nil)
	registry, _ := newTestRegistry(repo)

	err := registry.LoadWorld(context.Background(), world.Overworld)
	require.Error(t, err)
	assert.True(t, shared.HasCode(err, shared.ErrCodeMalformedData))
	assert.Empty(t, registry.Snapshot(world.Overworld))
}

func TestRegistry_LoadWorldFromDisk(t *testing.T) {
	ctx := context.Background()
	layout := DefaultLayout(t.TempDir())

	first, _ := newTestRegistry(NewFileRepository(layout))
	_, err := first.Set(ctx, world.Nether, "Fortress", shared.NewBlockPos(100, 70, -40), true)
	require.NoError(t, err)

	restarted, _ := newTestRegistry(NewFileRepository(layout))
	require.NoError(t, restarted.LoadWorld(ctx, world.Nether))

	got, ok := restarted.Get(world.Nether, "fortress")
	require.True(t, ok)
	assert.Equal(t, shared.NewBlockPos(100, 70, -40), got)
}

func TestRegistry_ListNames(t *testing.T) {
	ctx := context.Background()

	t.Run("built-ins first with nothing loaded", func(t *testing.T) {
		registry, _ := newTestRegistry(newMemoryRepository())
		assert.Equal(t, []string{"overworld", "nether", "end"}, registry.ListNames(world.Overworld))
	})

	t.Run("loaded worlds then warps", func(t *testing.T) {
		registry, _ := newTestRegistry(newMemoryRepository(),
			world.Overworld, world.Nether, world.End,
			"cultivatormod:spirit_realm",
			"cultivatormod:Jade_Palace",
			"other:spirit_realm",
		)
		for _, name := range []string{"spawn", "jadepalace", "nether"} {
			_, err := registry.Set(ctx, world.Overworld, name, shared.NewBlockPos(0, 64, 0), true)
			require.NoError(t, err)
		}

		assert.Equal(t,
			[]string{"overworld", "nether", "end", "spirit_realm", "jadepalace", "spawn"},
			registry.ListNames(world.Overworld),
		)
	})
}

func TestRegistry_Suggest(t *testing.T) {
	ctx := context.Background()
	registry, catalog := newTestRegistry(newMemoryRepository(), world.Overworld, world.Nether, "cultivatormod:spirit_realm")

	for _, name := range []string{"spawn", "spirit_realm", "SpiritRealm", "nether"} {
		_, err := registry.Set(ctx, world.Overworld, name, shared.NewBlockPos(0, 64, 0), true)
		require.NoError(t, err)
	}

	suggestions := slices.Collect(registry.Suggest(world.Overworld))
	assert.Equal(t, []string{"nether", "spawn", "spirit_realm", "overworld"}, suggestions)

	// restartable and observes later changes
	catalog.Add(world.End)
	assert.Equal(t, []string{"nether", "spawn", "spirit_realm", "overworld", "end"}, slices.Collect(registry.Suggest(world.Overworld)))

	// stops early without panicking
	var first []string
	for s := range registry.Suggest(world.Overworld) {
		first = append(first, s)
		break
	}
	assert.Equal(t, []string{"nether"}, first)
}

func TestRegistry_Observe(t *testing.T) {
	ctx := context.Background()
	registry, _ := newTestRegistry(newMemoryRepository())

	var changes []Change
	registry.Observe(func(_ context.Context, c Change) {
		changes = append(changes, c)
	})

	_, err := registry.Set(ctx, world.Overworld, "Spawn", shared.NewBlockPos(0, 64, 0), true)
	require.NoError(t, err)
	require.NoError(t, registry.Remove(ctx, world.Overworld, "spawn", true))
	_, err = registry.Set(ctx, world.Overworld, "x", shared.NewBlockPos(0, 0, 0), false)
	require.Error(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, ChangeSet, changes[0].Kind)
	assert.Equal(t, "spawn", changes[0].Name)
	assert.Empty(t, changes[0].Before)
	assert.Equal(t, Dictionary{"spawn": shared.NewBlockPos(0, 64, 0)}, changes[0].After)
	assert.True(t, changes[0].Persisted)
	assert.Equal(t, uint64(1), changes[0].Seq)

	assert.Equal(t, ChangeRemove, changes[1].Kind)
	assert.Equal(t, uint64(2), changes[1].Seq)
	assert.Equal(t, shared.NewBlockPos(0, 64, 0), changes[1].Point)
	assert.Empty(t, changes[1].After)
}

func TestRegistry_ConcurrentSets(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	registry, _ := newTestRegistry(repo)

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := registry.Set(ctx, world.Overworld, fmt.Sprintf("warp_%d", i), shared.NewBlockPos(i, i, i), true)
			assert.NoError(t, err)
			_ = registry.ListNames(world.Overworld)
		}(i)
	}
	wg.Wait()

	assert.Len(t, registry.Names(world.Overworld), writers)
	assert.Len(t, repo.stored[world.Overworld], writers, "last persisted snapshot holds every warp")
}

func TestRegistry_ObserversSeeCommitOrder(t *testing.T) {
	ctx := context.Background()
	registry, _ := newTestRegistry(newMemoryRepository())

	var (
		mu      sync.Mutex
		changes []Change
	)
	registry.Observe(func(_ context.Context, c Change) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, c)
	})

	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := registry.Set(ctx, world.Nether, "spawn", shared.NewBlockPos(i, 64, 0), true)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.Len(t, changes, writers)
	for i, c := range changes {
		assert.Equal(t, uint64(i+1), c.Seq)
		if i > 0 {
			assert.Equal(t, changes[i-1].After, c.Before, "change %d does not follow its predecessor", i)
		}
	}
	assert.Equal(t, registry.Snapshot(world.Nether), changes[writers-1].After)
}
