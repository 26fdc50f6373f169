package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danghamo/warpgate/internal/api/middleware"
	"github.com/danghamo/warpgate/internal/domain/actor"
	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/world"
)

func claimsContext(id string, tags ...string) context.Context {
	return middleware.WithClaims(context.Background(), &actor.JWTClaims{ActorID: id, Name: "token-" + id, Tags: tags})
}

func TestBindActor_Host(t *testing.T) {
	tracker := actor.NewTracker()
	ctx := claimsContext("host", actor.HostTag)
	pos := shared.NewBlockPos(4, 5, 6)

	a, err := bindActor(ctx, tracker, &ActorParams{
		ID:       "alice",
		Name:     "Alice",
		World:    world.Overworld,
		Position: &pos,
		Tags:     []string{"staff"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", a.ID)
	assert.Equal(t, []string{"staff"}, a.Tags)

	stored, ok := tracker.Get("alice")
	require.True(t, ok)
	assert.Equal(t, pos, stored.Position)

	t.Run("position kept within the same world", func(t *testing.T) {
		a, err := bindActor(ctx, tracker, &ActorParams{ID: "alice", World: world.Overworld})
		require.NoError(t, err)
		assert.Equal(t, pos, a.Position)
	})

	t.Run("position reset in another world", func(t *testing.T) {
		a, err := bindActor(ctx, tracker, &ActorParams{ID: "alice", World: world.Nether})
		require.NoError(t, err)
		assert.Equal(t, shared.BlockPos{}, a.Position)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := bindActor(ctx, tracker, &ActorParams{World: world.Overworld})
		assert.True(t, shared.HasCode(err, shared.ErrCodeInvalidInput))
	})

	t.Run("invalid world", func(t *testing.T) {
		_, err := bindActor(ctx, tracker, &ActorParams{ID: "alice", World: "nowhere"})
		assert.True(t, shared.HasCode(err, shared.ErrCodeInvalidInput))
	})

	t.Run("unknown actor without snapshot", func(t *testing.T) {
		_, err := bindActor(ctx, tracker, &ActorParams{ID: "ghost"})
		assert.True(t, shared.HasCode(err, shared.ErrCodeActorNotFound))
	})
}

func TestBindActor_PlayerToken(t *testing.T) {
	tracker := actor.NewTracker()
	ctx := claimsContext("bob", "member")

	a, err := bindActor(ctx, tracker, &ActorParams{World: world.Overworld, Tags: []string{"staff"}})
	require.NoError(t, err)
	assert.Equal(t, "bob", a.ID)
	assert.Equal(t, "token-bob", a.Name)
	assert.Equal(t, []string{"member"}, a.Tags, "tags are taken from the token")

	_, err = bindActor(ctx, tracker, &ActorParams{ID: "alice", World: world.Overworld})
	assert.True(t, shared.HasCode(err, shared.ErrCodePermissionDenied))
}

func TestBindActor_NoClaims(t *testing.T) {
	_, err := bindActor(context.Background(), actor.NewTracker(), &ActorParams{ID: "alice"})
	assert.True(t, shared.HasCode(err, shared.ErrCodePermissionDenied))
}
