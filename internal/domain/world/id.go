package world

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/danghamo/warpgate/internal/domain/shared"
)

// Separator splits a world id into namespace and path
const Separator = ":"

// CoreNamespace owns the three built-in worlds
const CoreNamespace = "core"

// ID identifies a loaded world in namespace:path form
type ID string

// Built-in worlds
const (
	Overworld ID = "core:overworld"
	Nether    ID = "core:the_nether"
	End       ID = "core:the_end"
)

// builtins lists the built-in worlds with their short aliases, in display order
var builtins = []struct {
	id    ID
	alias string
}{
	{Overworld, "overworld"},
	{Nether, "nether"},
	{End, "end"},
}

// String returns string representation
func (id ID) String() string {
	return string(id)
}

// Namespace returns the text before the separator, or "" when there is none
func (id ID) Namespace() string {
	ns, _, found := strings.Cut(string(id), Separator)
	if !found {
		return ""
	}
	return ns
}

// Path returns the text after the separator, or the whole id when there is none
func (id ID) Path() string {
	_, path, found := strings.Cut(string(id), Separator)
	if !found {
		return string(id)
	}
	return path
}

// IsBuiltin reports whether id is one of overworld, nether or end
func (id ID) IsBuiltin() bool {
	for _, b := range builtins {
		if b.id == id {
			return true
		}
	}
	return false
}

// ShortAlias returns the name players type to reach this world
func (id ID) ShortAlias() string {
	for _, b := range builtins {
		if b.id == id {
			return b.alias
		}
	}
	return Lower(id.Path())
}

// Validate checks that id has both a namespace and a path
func (id ID) Validate() error {
	ns, path, found := strings.Cut(string(id), Separator)
	if !found || strings.TrimSpace(ns) == "" || strings.TrimSpace(path) == "" {
		return shared.ErrInvalidInput(fmt.Sprintf("world id %q must be namespace:path", string(id)))
	}
	return nil
}

// EqualFold compares two ids case-insensitively
func (id ID) EqualFold(other ID) bool {
	return strings.EqualFold(string(id), string(other))
}

// BuiltinAliases returns the built-in short aliases in display order
func BuiltinAliases() []string {
	aliases := make([]string, 0, len(builtins))
	for _, b := range builtins {
		aliases = append(aliases, b.alias)
	}
	return aliases
}

// Candidate turns a typed destination into the world id it would name.
// Built-in aliases map to core worlds, namespaced input is kept and anything
// else is assumed to live in the given namespace.
func Candidate(destination, namespace string) ID {
	dest := Lower(strings.TrimSpace(destination))
	for _, b := range builtins {
		if dest == b.alias {
			return b.id
		}
	}
	if strings.Contains(dest, Separator) {
		return ID(dest)
	}
	return ID(Lower(namespace) + Separator + dest)
}

// Lower lowercases player input without depending on the host locale
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// RelaxedKey folds a name for suggestion dedup: underscores dropped, lowercased.
// It is never used as a storage key.
func RelaxedKey(name string) string {
	return Lower(strings.ReplaceAll(name, "_", ""))
}
