package buildmode_test

import (
	"testing"

	"github.com/arthur-debert/isobundle/pkg/buildmode"
	"github.com/arthur-debert/isobundle/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		signal string
		want   types.BuildMode
	}{
		{"production", types.ModeProduction},
		{"development", types.ModeDevelopment},
		{"", types.ModeDevelopment},
		{"Production", types.ModeDevelopment},
		{" production", types.ModeDevelopment},
		{"prod", types.ModeDevelopment},
		{"test", types.ModeDevelopment},
	}

	for _, tt := range tests {
		t.Run(tt.signal, func(t *testing.T) {
			assert.Equal(t, tt.want, buildmode.Resolve(tt.signal))
		})
	}
}

func TestFromLookup(t *testing.T) {
	env := map[string]string{"NODE_ENV": "production"}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	assert.Equal(t, types.ModeProduction, buildmode.FromLookup(lookup))

	delete(env, "NODE_ENV")
	assert.Equal(t, types.ModeDevelopment, buildmode.FromLookup(lookup))

	assert.Equal(t, types.ModeDevelopment, buildmode.FromLookup(nil))
}
