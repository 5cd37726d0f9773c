// Test Type: Unit Test
// Description: Tests for package name extraction, the node_modules policy and the target filter

package externals_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/externals"
	"github.com/arthur-debert/isobundle/pkg/filesystem"
	"github.com/arthur-debert/isobundle/pkg/types"
)

func TestPackageName(t *testing.T) {
	tests := []struct {
		request string
		name    string
		ok      bool
	}{
		{"react", "react", true},
		{"react-dom/server", "react-dom", true},
		{"@babel/runtime/helpers/extends", "@babel/runtime", true},
		{"@scope", "", false},
		{"./App", "", false},
		{"../lib/util.js", "", false},
		{"/abs/path.js", "", false},
		{"https://cdn.example.com/x.js", "", false},
		{"data:text/javascript,1", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			name, ok := externals.PackageName(tt.request)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestIsNodeBuiltin(t *testing.T) {
	assert.True(t, externals.IsNodeBuiltin("fs"))
	assert.True(t, externals.IsNodeBuiltin("node:fs"))
	assert.True(t, externals.IsNodeBuiltin("fs/promises"))
	assert.True(t, externals.IsNodeBuiltin("node:test"))
	assert.False(t, externals.IsNodeBuiltin("express"))
	assert.False(t, externals.IsNodeBuiltin("fsevents"))
}

func setupModules(t *testing.T) (types.FS, string) {
	t.Helper()
	fs := filesystem.NewMemory()
	dir := "/project/node_modules"
	for _, pkg := range []string{"react", "express", "lodash-es", "@babel/runtime", "@scope/ui", ".bin"} {
		require.NoError(t, fs.MkdirAll(filepath.Join(dir, pkg), 0755))
	}
	require.NoError(t, fs.WriteFile(filepath.Join(dir, ".yarn-integrity"), []byte("{}"), 0644))
	return fs, dir
}

func TestNodeModulesPolicy(t *testing.T) {
	fs, dir := setupModules(t)
	policy, err := externals.LoadNodeModules(fs, dir, []string{"lodash-es", "@scope/**", "**/*.css"})
	require.NoError(t, err)

	assert.Equal(t, []string{"@babel/runtime", "@scope/ui", "express", "lodash-es", "react"}, policy.Packages())

	tests := []struct {
		request string
		want    bool
	}{
		{"react", true},
		{"react/jsx-runtime", true},
		{"express", true},
		{"@babel/runtime/helpers/extends", true},
		{"path", true},
		{"node:url", true},
		{"lodash-es", false},
		{"@scope/ui/button", false},
		{"react/styles/reset.css", false},
		{"not-installed", false},
		{"./App", false},
	}
	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Externalize(tt.request))
		})
	}
}

func TestLoadNodeModules(t *testing.T) {
	t.Run("missing_dir", func(t *testing.T) {
		policy, err := externals.LoadNodeModules(filesystem.NewMemory(), "/nowhere/node_modules", nil)
		require.NoError(t, err)
		assert.Empty(t, policy.Packages())
		assert.True(t, policy.Externalize("fs"))
		assert.False(t, policy.Externalize("react"))
	})

	t.Run("invalid_allowlist", func(t *testing.T) {
		fs, dir := setupModules(t)
		_, err := externals.LoadNodeModules(fs, dir, []string{"[oops"})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
	})
}

func TestFilter(t *testing.T) {
	fs, dir := setupModules(t)
	policy, err := externals.LoadNodeModules(fs, dir, nil)
	require.NoError(t, err)

	t.Run("client_bundles_everything", func(t *testing.T) {
		f := externals.NewFilter(types.TargetClient, policy)
		assert.Equal(t, externals.Internal, f.Decide("react"))
		assert.Equal(t, externals.Internal, f.Decide("fs"))
		assert.Empty(t, f.Externals())
	})

	t.Run("server_externalizes_packages", func(t *testing.T) {
		f := externals.NewFilter(types.TargetServer, policy)
		assert.Equal(t, externals.External, f.Decide("react"))
		assert.Equal(t, externals.External, f.Decide("react"))
		assert.Equal(t, externals.External, f.Decide("fs"))
		assert.Equal(t, externals.Internal, f.Decide("./App"))
		assert.Equal(t, []string{"fs", "react"}, f.Externals())
		assert.Equal(t, "external", externals.External.String())
	})

	t.Run("nil_policy", func(t *testing.T) {
		f := externals.NewFilter(types.TargetServer, nil)
		assert.Equal(t, externals.Internal, f.Decide("react"))
	})
}
