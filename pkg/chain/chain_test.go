// Test Type: Unit Test
// Description: Tests for chain construction, step options and scopes

package chain

import (
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/isobundle/pkg/config"
	"github.com/arthur-debert/isobundle/pkg/errors"
)

func steps(kinds ...string) []config.StepConfig {
	out := make([]config.StepConfig, len(kinds))
	for i, k := range kinds {
		out[i] = config.StepConfig{Step: k}
	}
	return out
}

func TestNewChain(t *testing.T) {
	t.Run("source_steps_compose", func(t *testing.T) {
		c, err := New("rules[0]", steps("transpile", "strip"), Scope{})
		require.NoError(t, err)
		assert.Equal(t, []Kind{KindTranspile, KindStrip}, c.Kinds())
		_, isDirective := c.Directive()
		assert.False(t, isDirective)
	})

	t.Run("directive_alone", func(t *testing.T) {
		c, err := New("rules[1]", steps("url"), Scope{})
		require.NoError(t, err)
		step, ok := c.Directive()
		require.True(t, ok)
		assert.Equal(t, KindURL, step.Kind)
	})

	t.Run("directive_with_other_steps", func(t *testing.T) {
		_, err := New("rules[2]", steps("transpile", "ignore"), Scope{})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrRuleInvalid))
		details := errors.GetErrorDetails(err)
		assert.Equal(t, "rules[2]", details[errors.DetailRule])
		assert.Equal(t, "ignore", details[errors.DetailStep])
	})

	t.Run("empty", func(t *testing.T) {
		_, err := New("rules[3]", nil, Scope{})
		assert.True(t, errors.IsErrorCode(err, errors.ErrRuleInvalid))
	})

	t.Run("unknown_step", func(t *testing.T) {
		_, err := New("rules[4]", steps("minify"), Scope{})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrRuleInvalid))
		assert.Equal(t, "minify", errors.GetErrorDetails(err)[errors.DetailStep])
	})
}

func TestStepOptions(t *testing.T) {
	tests := []struct {
		name    string
		step    config.StepConfig
		wantErr bool
		check   func(t *testing.T, s Step)
	}{
		{
			name: "transpile_defaults",
			step: config.StepConfig{Step: "transpile"},
			check: func(t *testing.T, s Step) {
				assert.Equal(t, api.JSXTransform, s.transpile.jsx)
				assert.False(t, s.transpile.objectRestSpread)
			},
		},
		{
			name: "transpile_full",
			step: config.StepConfig{Step: "transpile", Options: map[string]interface{}{
				"jsx": "automatic", "object_rest_spread": true, "node": "16", "browsers": []interface{}{"safari12"},
			}},
			check: func(t *testing.T, s Step) {
				assert.Equal(t, api.JSXAutomatic, s.transpile.jsx)
				assert.True(t, s.transpile.objectRestSpread)
				assert.Equal(t, "16", s.transpile.node)
				assert.Equal(t, []string{"safari12"}, s.transpile.browsers)
			},
		},
		{
			name:    "transpile_bad_jsx",
			step:    config.StepConfig{Step: "transpile", Options: map[string]interface{}{"jsx": "vue"}},
			wantErr: true,
		},
		{
			name:    "transpile_bad_browser",
			step:    config.StepConfig{Step: "transpile", Options: map[string]interface{}{"browsers": "netscape4"}},
			wantErr: true,
		},
		{
			name:    "unknown_option",
			step:    config.StepConfig{Step: "html", Options: map[string]interface{}{"minimize": true}},
			wantErr: true,
		},
		{
			name: "strip_defaults_drop_both",
			step: config.StepConfig{Step: "strip"},
			check: func(t *testing.T, s Step) {
				assert.Equal(t, api.DropConsole|api.DropDebugger, s.drop)
			},
		},
		{
			name: "strip_debugger_only",
			step: config.StepConfig{Step: "strip", Options: map[string]interface{}{"console": false}},
			check: func(t *testing.T, s Step) {
				assert.Equal(t, api.DropDebugger, s.drop)
			},
		},
		{
			name:    "define_requires_values",
			step:    config.StepConfig{Step: "define"},
			wantErr: true,
		},
		{
			name: "url_override",
			step: config.StepConfig{Step: "url", Options: map[string]interface{}{"limit": int64(2048), "name": "[name].[ext]"}},
			check: func(t *testing.T, s Step) {
				require.NotNil(t, s.AssetOverride().Limit)
				assert.Equal(t, 2048, *s.AssetOverride().Limit)
				assert.Equal(t, "[name].[ext]", s.AssetOverride().Name)
			},
		},
		{
			name:    "url_negative_limit",
			step:    config.StepConfig{Step: "url", Options: map[string]interface{}{"limit": -1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := newStep(tt.step)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, errors.ErrRuleInvalid))
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestScope(t *testing.T) {
	scope, err := NewScope("/project", []string{"app"}, []string{"**/node_modules/**"})
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"/project/app/client/index.js", true},
		{"/project/app/node_modules/pkg/index.js", false},
		{"/project/node_modules/react/index.js", false},
		{"/project/application/index.js", false},
		{"/project/lib/util.js", false},
		{"/elsewhere/app/index.js", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, scope.Contains(tt.path))
		})
	}

	t.Run("empty_scope_admits_all", func(t *testing.T) {
		assert.True(t, Scope{}.Contains("/anything.js"))
	})

	t.Run("exclude_only", func(t *testing.T) {
		s, err := NewScope("/project", nil, []string{"./vendor/"})
		require.NoError(t, err)
		assert.False(t, s.Contains("/project/vendor/x.js"))
		assert.True(t, s.Contains("/project/app/x.js"))
		assert.True(t, s.Contains("/other/vendor/x.js"))
	})

	t.Run("invalid_pattern", func(t *testing.T) {
		_, err := NewScope("/project", []string{"app/[a-"}, nil)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrRuleInvalid))
	})
}

func TestParseBrowser(t *testing.T) {
	engine, err := parseBrowser("Chrome58")
	require.NoError(t, err)
	assert.Equal(t, api.EngineChrome, engine.Name)
	assert.Equal(t, "58", engine.Version)

	_, err = parseBrowser("58")
	assert.Error(t, err)
}

func TestParseEngines(t *testing.T) {
	tests := []struct {
		name     string
		node     string
		browsers []string
		wantErr  string
	}{
		{name: "client_defaults", browsers: []string{"chrome58", "edge18", "firefox57", "safari11"}},
		{name: "node_dotted", node: "v6.5"},
		{name: "node_full", node: "18.17.0"},
		{name: "edge_without_destructuring", browsers: []string{"chrome58", "edge16"}, wantErr: "edge16 is below edge18"},
		{name: "old_node", node: "4", wantErr: "node4 is below node6.5"},
		{name: "old_safari", browsers: []string{"safari9"}, wantErr: "safari9 is below safari11"},
		{name: "non_numeric", browsers: []string{"chrome58beta"}, wantErr: "must be numeric"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engines, err := ParseEngines(tt.node, tt.browsers)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			n := len(tt.browsers)
			if tt.node != "" {
				n++
			}
			assert.Len(t, engines, n)
		})
	}
}

func TestStepRejectsUnlowerableRuntime(t *testing.T) {
	_, err := newStep(config.StepConfig{Step: "transpile", Options: map[string]interface{}{"browsers": []interface{}{"edge16"}}})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRuleInvalid))
}
