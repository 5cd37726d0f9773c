// Test Type: Unit Test
// Description: Tests for rendering configuration back to TOML

package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/isobundle/pkg/config"
	"github.com/arthur-debert/isobundle/pkg/types"
)

func TestMarshalRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg, err := config.Load(root, types.TargetServer, map[string]interface{}{
		"assets.inline_limit": 512,
	})
	require.NoError(t, err)

	out, err := config.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "inline_limit = 512")

	// the rendered document is a valid project file for the same target
	writeProjectFile(t, root, "isobundle.toml", string(out))
	reloaded, err := config.Load(root, types.TargetServer, nil)
	require.NoError(t, err)
	assert.Equal(t, 512, reloaded.Assets.InlineLimit)
	assert.Equal(t, len(cfg.Rules), len(reloaded.Rules))
}

func TestGenerateConfigContent(t *testing.T) {
	content := config.GenerateConfigContent(types.TargetServer)

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		assert.True(t, strings.HasPrefix(trimmed, "#"), "line not commented: %q", line)
	}
	assert.Contains(t, content, "# [server]")
	assert.Contains(t, content, "# [server.assets]")
	assert.Contains(t, content, "[[server.rules.one_of]]")
}

func TestGeneratedInlineLimitComment(t *testing.T) {
	// the inliner keeps modules whose size equals the limit
	for _, target := range types.AllTargets {
		content := config.GenerateConfigContent(target)
		assert.Contains(t, content, "# Images of at most this many bytes are inlined", target)
		assert.NotContains(t, content, "strictly smaller", target)
	}
}
