package actor

import (
	"slices"
	"strings"

	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/world"
)

// Actor is the host's view of a player at the time of a command
type Actor struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	World    world.ID        `json:"world"`
	Position shared.BlockPos `json:"position"`
	Tags     []string        `json:"tags,omitempty"`
}

// HasTag reports whether the actor carries tag, ignoring case
func (a Actor) HasTag(tag string) bool {
	return slices.ContainsFunc(a.Tags, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}

// PrivilegeChecker decides whether an actor may change warps
type PrivilegeChecker interface {
	IsPrivileged(a Actor) bool
}

// TagChecker grants privilege to actors carrying Tag
type TagChecker struct {
	Tag string
}

// NewTagChecker creates a checker for tag
func NewTagChecker(tag string) TagChecker {
	return TagChecker{Tag: tag}
}

// IsPrivileged implements PrivilegeChecker
func (c TagChecker) IsPrivileged(a Actor) bool {
	if c.Tag == "" {
		return false
	}
	return a.HasTag(c.Tag)
}
