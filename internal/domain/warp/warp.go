package warp

import (
	"maps"
	"slices"
	"strings"

	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/world"
)

// Point is a stored warp coordinate, always read in the world it was set in
type Point = shared.BlockPos

// Dictionary maps lowercased warp names to points for one world
type Dictionary map[string]Point

// Clone returns an independent copy, never nil
func (d Dictionary) Clone() Dictionary {
	if d == nil {
		return Dictionary{}
	}
	return maps.Clone(d)
}

// Names returns the warp names in sorted order
func (d Dictionary) Names() []string {
	return slices.Sorted(maps.Keys(d))
}

// NormalizeName returns the storage key for a warp name
func NormalizeName(name string) string {
	return world.Lower(strings.TrimSpace(name))
}

// ValidateName rejects names that cannot be stored
func ValidateName(name string) error {
	if NormalizeName(name) == "" {
		return shared.ErrInvalidInput("warp name cannot be empty")
	}
	return nil
}
