package warp

import (
	"context"

	"github.com/danghamo/warpgate/internal/domain/world"
)

// Repository persists one world's warp dictionary at a time.
// Implementations never keep references to the dictionaries they are given.
type Repository interface {
	// Load returns the stored dictionary, or an empty one when nothing is stored
	Load(ctx context.Context, worldID world.ID) (Dictionary, error)

	// Save replaces the stored dictionary. An empty dictionary removes the stored document.
	Save(ctx context.Context, worldID world.ID, warps Dictionary) error
}
