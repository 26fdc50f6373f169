package warp

import (
	"strings"

	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/world"
)

// Kind says what a destination resolved to
type Kind string

const (
	KindWarp      Kind = "warp"
	KindDimension Kind = "dimension"
)

// Resolution is a resolved destination. For a warp the point is in World,
// the actor's own world; for a dimension only World is meaningful.
type Resolution struct {
	Kind        Kind     `json:"kind"`
	Destination string   `json:"destination"`
	World       world.ID `json:"world"`
	Point       Point    `json:"point"`
}

// Label is the name used in messages: the warp name, or the dimension path
func (r Resolution) Label() string {
	if r.Kind == KindDimension {
		if _, path, found := strings.Cut(r.Destination, world.Separator); found {
			return path
		}
	}
	return r.Destination
}

// Resolver turns free-form destinations into warps or loaded worlds
type Resolver struct {
	registry  *Registry
	catalog   world.Catalog
	namespace string
}

// NewResolver creates a resolver. Bare world names are looked up in namespace.
func NewResolver(registry *Registry, catalog world.Catalog, namespace string) *Resolver {
	if catalog == nil {
		catalog = world.NewLoadedSet()
	}
	return &Resolver{
		registry:  registry,
		catalog:   catalog,
		namespace: namespace,
	}
}

// Resolve checks the actor's world warps first, then loaded worlds.
// A warp always wins over a dimension of the same name.
func (r *Resolver) Resolve(current world.ID, destination string) (Resolution, error) {
	dest := world.Lower(strings.TrimSpace(destination))
	if dest == "" {
		return Resolution{}, shared.ErrInvalidInput("destination cannot be empty")
	}

	if p, ok := r.registry.Get(current, dest); ok {
		return Resolution{
			Kind:        KindWarp,
			Destination: dest,
			World:       current,
			Point:       p,
		}, nil
	}

	candidate := world.Candidate(dest, r.namespace)
	for _, id := range r.catalog.LoadedWorlds() {
		if id.EqualFold(candidate) {
			return Resolution{
				Kind:        KindDimension,
				Destination: dest,
				World:       id,
			}, nil
		}
	}

	return Resolution{}, shared.ErrDestinationNotFound(dest)
}
