package actor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/world"
)

func TestTagChecker(t *testing.T) {
	checker := NewTagChecker("staff")

	assert.True(t, checker.IsPrivileged(Actor{Tags: []string{"builder", "staff"}}))
	assert.True(t, checker.IsPrivileged(Actor{Tags: []string{"STAFF"}}))
	assert.False(t, checker.IsPrivileged(Actor{Tags: []string{"builder"}}))
	assert.False(t, checker.IsPrivileged(Actor{}))
	assert.False(t, TagChecker{}.IsPrivileged(Actor{Tags: []string{""}}))
}

func TestTracker_UpdateAndLocate(t *testing.T) {
	tracker := NewTracker()

	require.Error(t, tracker.Update(Actor{}))

	tags := []string{"staff"}
	require.NoError(t, tracker.Update(Actor{ID: "steve", World: world.Overworld, Tags: tags}))
	tags[0] = "changed"

	got, ok := tracker.Get("steve")
	require.True(t, ok)
	assert.Equal(t, []string{"staff"}, got.Tags)

	current, ok := tracker.CurrentWorldOf("steve")
	require.True(t, ok)
	assert.Equal(t, world.Overworld, current)

	_, ok = tracker.CurrentWorldOf("alex")
	assert.False(t, ok)

	tracker.Forget("steve")
	assert.Zero(t, tracker.Count())
}

func TestTracker_Move(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker()
	spawn := shared.NewBlockPos(0, 64, 0)
	require.NoError(t, tracker.Update(Actor{ID: "steve", World: world.Overworld, Position: spawn}))

	require.NoError(t, tracker.Move(ctx, "steve", world.Nether, nil))
	got, _ := tracker.Get("steve")
	assert.Equal(t, world.Nether, got.World)
	assert.Equal(t, spawn, got.Position)

	dest := shared.NewBlockPos(10, 70, -3)
	require.NoError(t, tracker.Move(ctx, "steve", world.Overworld, &dest))
	got, _ = tracker.Get("steve")
	assert.Equal(t, world.Overworld, got.World)
	assert.Equal(t, dest, got.Position)

	err := tracker.Move(ctx, "alex", world.End, nil)
	assert.True(t, shared.HasCode(err, shared.ErrCodeActorNotFound))
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%8))
			_ = tracker.Update(Actor{ID: id, World: world.Overworld})
			_, _ = tracker.CurrentWorldOf(id)
			_ = tracker.Move(context.Background(), id, world.End, nil)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, tracker.Count())
}

func TestJWTService(t *testing.T) {
	svc := NewJWTService("test-secret-key", "warpgate", time.Hour)

	token, err := svc.GenerateToken(Actor{ID: "steve", Name: "Steve", Tags: []string{"staff"}})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "steve", claims.ActorID)
	assert.Equal(t, "Steve", claims.Name)
	assert.Equal(t, []string{"staff"}, claims.Tags)
	assert.Equal(t, "steve", claims.Subject)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService("another-secret", "warpgate", time.Hour)
		_, err := other.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService("test-secret-key", "someone-else", time.Hour)
		_, err := other.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTService("test-secret-key", "warpgate", -time.Minute)
		token, err := expired.GenerateToken(Actor{ID: "steve"})
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})
}

func TestJWTClaims_IsHost(t *testing.T) {
	assert.True(t, (&JWTClaims{Tags: []string{"Host"}}).IsHost())
	assert.False(t, (&JWTClaims{Tags: []string{"staff"}}).IsHost())
	assert.False(t, (&JWTClaims{}).IsHost())
}
