package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestID_ShortAlias(t *testing.T) {
	tests := []struct {
		id   ID
		want string
	}{
		{Overworld, "overworld"},
		{Nether, "nether"},
		{End, "end"},
		{"cultivatormod:Spirit_Realm", "spirit_realm"},
		{"other:deep_dark", "deep_dark"},
		{"bare", "bare"},
	}

	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.ShortAlias())
		})
	}
}

func TestID_Parts(t *testing.T) {
	id := ID("cultivatormod:spirit_realm")
	assert.Equal(t, "cultivatormod", id.Namespace())
	assert.Equal(t, "spirit_realm", id.Path())

	bare := ID("lobby")
	assert.Equal(t, "", bare.Namespace())
	assert.Equal(t, "lobby", bare.Path())
}

func TestCandidate(t *testing.T) {
	tests := []struct {
		name        string
		destination string
		want        ID
	}{
		{"overworld alias", "overworld", Overworld},
		{"nether mixed case", "Nether", Nether},
		{"end upper case", "END", End},
		{"namespaced kept", "Other:Deep_Dark", "other:deep_dark"},
		{"bare name gets mod namespace", "Spirit_Realm", "cultivatormod:spirit_realm"},
		{"full built-in id", "core:the_nether", Nether},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Candidate(tt.destination, "cultivatormod"))
		})
	}
}

func TestRelaxedKey(t *testing.T) {
	assert.Equal(t, "spiritrealm", RelaxedKey("Spirit_Realm"))
	assert.Equal(t, RelaxedKey("spirit_realm"), RelaxedKey("SPIRITREALM"))
	assert.NotEqual(t, RelaxedKey("spirit-realm"), RelaxedKey("spiritrealm"))
}

func TestBuiltinAliases(t *testing.T) {
	assert.Equal(t, []string{"overworld", "nether", "end"}, BuiltinAliases())
	assert.True(t, Nether.IsBuiltin())
	assert.False(t, ID("cultivatormod:nether").IsBuiltin())
}

func TestIDValidate(t *testing.T) {
	assert.NoError(t, Overworld.Validate())
	assert.NoError(t, ID("cultivatormod:spirit_realm").Validate())

	for _, bad := range []ID{"", "overworld", ":path", "ns:", " : "} {
		assert.Error(t, bad.Validate(), "id %q", bad)
	}
}
