// Test Type: Integration Test
// Description: End-to-end builds of both targets against a project tree on disk

package bundler_test

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/isobundle/pkg/bundler"
	"github.com/arthur-debert/isobundle/pkg/config"
	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/metrics"
	"github.com/arthur-debert/isobundle/pkg/output"
	"github.com/arthur-debert/isobundle/pkg/testutil"
	"github.com/arthur-debert/isobundle/pkg/types"
)

var projectFiles = map[string]string{
	"app/client/index.js": `import "./style.css";
import React from "react";
import logo from "./logo.png";
import background from "./background.png";
import { LogoView } from "./logo-view";

document.title = [React.name, logo, background].join(" ");
export const view = LogoView({ src: logo, alt: "logo", className: "client-view-marker" });
if (process.env.NODE_ENV !== "production") {
  console.log("dev-only-marker");
}
`,
	"app/client/logo-view.js": `import React from "react";

export const LogoView = ({ src, ...rest }) => <img src={src} {...rest} />;

const { alt, ...defaults } = { alt: "", width: 32, height: 32 };
export const defaultSize = [alt, defaults.width, defaults.height];
`,
	"app/client/style.css": `body { background: url(./background.png); }
.logo { background-image: url("./logo.png"); }
`,
	"app/client/index.html": `<!DOCTYPE html>
<html><head><title>Isomorphic demo</title></head><body><div id="root"></div></body></html>
`,
	"app/server/index.js": `import React from "react";
import fs from "fs";
import page from "../../build/index.html";
import "../client/style.css";
import logo from "../client/logo.png";
import background from "../client/background.png";
import { render } from "./render";

export const html = render(React, page, logo, background);
export const exists = fs.existsSync;
`,
	"app/server/render.js": `export const render = (React, page, logo, background) => {
  const { title, ...rest } = { title: "server-render-marker", logo, background };
  return <main data-page={page.length} {...rest}>{title}</main>;
};
`,
}

// newProject writes the demo project
func newProject(t *testing.T) *testutil.TestProject {
	t.Helper()
	p := testutil.SetupTestProject(t)
	for name, content := range projectFiles {
		p.AddFile(t, name, content)
	}
	p.AddSizedFile(t, "app/client/logo.png", 1500, 0x01)
	p.AddSizedFile(t, "app/client/background.png", 4000, 0x02)
	p.AddPackage(t, "react", `module.exports = { name: "react-stub-marker", createElement: function () { return arguments; } };`)
	return p
}

func build(t *testing.T, p *testutil.TestProject, target types.BuildTarget, mode types.BuildMode) *bundler.Result {
	t.Helper()
	result, err := bundler.Build(context.Background(), bundler.Options{Root: p.Root, Target: target, Mode: mode})
	require.NoError(t, err)
	return result
}

func TestBuildClient(t *testing.T) {
	p := newProject(t)
	result := build(t, p, types.TargetClient, types.ModeDevelopment)

	bundle, ok := result.Artifact(output.KindBundle)
	require.True(t, ok)
	assert.Regexp(t, `^generated/js/main\.[0-9a-f]{8}\.js$`, bundle.Path)
	js := p.ReadFile(t, "build/"+bundle.Path)

	// both images are below the client threshold
	assert.Equal(t, 2, strings.Count(js, "data:image/png;base64,"))
	_, emitted := result.Artifact(output.KindAsset)
	assert.False(t, emitted)
	require.Len(t, result.Assets, 2)
	for _, a := range result.Assets {
		assert.True(t, a.Inline, a.Module)
	}

	// the client bundles its dependencies
	assert.Contains(t, js, "react-stub-marker")
	assert.Empty(t, result.Externals)
	assert.Contains(t, js, "dev-only-marker")

	// JSX and object rest are lowered for the default browser list
	assert.Contains(t, js, `.createElement("img"`)
	assert.Contains(t, js, "__objRest")
	assert.Contains(t, js, "client-view-marker")
	assert.NotContains(t, js, "<img")

	style, ok := result.Artifact(output.KindStyle)
	require.True(t, ok, "client style sheets are emitted")
	assert.Regexp(t, `^generated/css/main\.[0-9a-f]{8}\.css$`, style.Path)
	css := p.ReadFile(t, "build/"+style.Path)
	assert.Contains(t, css, "data:image/png;base64,")

	page := p.ReadFile(t, "build/index.html")
	assert.Contains(t, page, "<title>Isomorphic demo</title>")
	assert.Contains(t, page, `href="/`+style.Path+`"`)
	assert.Contains(t, page, `src="/`+bundle.Path+`"`)

	manifest, err := bundler.ReadManifest([]byte(p.ReadFile(t, "build/client-manifest.yaml")))
	require.NoError(t, err)
	assert.Equal(t, result.BuildID, manifest.BuildID)
	assert.Equal(t, "client", manifest.Target)
	assert.Equal(t, "development", manifest.Mode)
}

func TestBuildServer(t *testing.T) {
	p := newProject(t)
	// the server imports the page produced by the client build
	build(t, p, types.TargetClient, types.ModeDevelopment)

	result := build(t, p, types.TargetServer, types.ModeDevelopment)

	bundle, ok := result.Artifact(output.KindBundle)
	require.True(t, ok)
	assert.Equal(t, "server.js", bundle.Path)
	js := p.ReadFile(t, "build/server.js")

	t.Run("logo_inlined_background_emitted", func(t *testing.T) {
		assert.Equal(t, 1, strings.Count(js, "data:image/png;base64,"))

		asset, ok := result.Artifact(output.KindAsset)
		require.True(t, ok)
		assert.Regexp(t, `^generated/media/background\.[0-9a-f]{8}\.png$`, asset.Path)
		assert.Contains(t, js, `"/`+asset.Path+`"`)

		content, err := os.ReadFile(p.Path("build/" + asset.Path))
		require.NoError(t, err)
		assert.Len(t, content, 4000)
	})

	t.Run("externals_not_bundled", func(t *testing.T) {
		assert.Contains(t, js, `require("react")`)
		assert.Contains(t, js, `require("fs")`)
		assert.NotContains(t, js, "react-stub-marker")
		assert.Equal(t, []string{"fs", "react"}, result.Externals)
	})

	t.Run("application_modules_bundled", func(t *testing.T) {
		assert.Contains(t, js, "server-render-marker")
		assert.Contains(t, js, `.createElement("main"`)
		assert.Contains(t, js, "__objRest")
		assert.Contains(t, js, "Isomorphic demo", "the markup page is embedded as a string")
	})

	t.Run("style_sheets_ignored", func(t *testing.T) {
		_, ok := result.Artifact(output.KindStyle)
		assert.False(t, ok)
		assert.NotContains(t, js, "background-image")
	})
}

func TestBuildNamesAreContentDerived(t *testing.T) {
	p := newProject(t)
	run := func() string {
		result, err := bundler.Build(context.Background(), bundler.Options{
			Root: p.Root, Target: types.TargetClient, Mode: types.ModeProduction, DryRun: true,
		})
		require.NoError(t, err)
		bundle, ok := result.Artifact(output.KindBundle)
		require.True(t, ok)
		return bundle.Path
	}

	first := run()
	assert.Equal(t, first, run(), "same inputs give the same name")

	logo := bytes.Repeat([]byte{0x01}, 1500)
	logo[0] = 0x09
	p.AddBytes(t, "app/client/logo.png", logo)
	assert.NotEqual(t, first, run(), "a changed input byte changes the name")

	assert.False(t, p.Exists("build"), "dry runs write nothing")
}

func TestBuildDryRunStagesArtifacts(t *testing.T) {
	p := newProject(t)

	client, err := bundler.Build(context.Background(), bundler.Options{
		Root: p.Root, Target: types.TargetClient, DryRun: true,
	})
	require.NoError(t, err)
	assert.False(t, p.Exists("build"))

	staged := client.Staged()
	require.Len(t, staged, len(client.Artifacts))
	page, ok := staged[p.Path("build/index.html")]
	require.True(t, ok, "the markup page is staged under the output directory")
	assert.Contains(t, string(page), "Isomorphic demo")

	// the server reads the staged page in place of the missing file
	server, err := bundler.Build(context.Background(), bundler.Options{
		Root: p.Root, Target: types.TargetServer, DryRun: true, Staged: staged,
	})
	require.NoError(t, err)
	assert.False(t, p.Exists("build"))

	bundle, ok := server.Artifact(output.KindBundle)
	require.True(t, ok)
	js, ok := server.Staged()[p.Path("build/"+bundle.Path)]
	require.True(t, ok)
	assert.Contains(t, string(js), "Isomorphic demo")

	written := build(t, p, types.TargetClient, types.ModeDevelopment)
	assert.Empty(t, written.Staged())
}

func TestBuildProductionMode(t *testing.T) {
	p := newProject(t)
	result := build(t, p, types.TargetClient, types.ModeProduction)

	bundle, _ := result.Artifact(output.KindBundle)
	js := p.ReadFile(t, "build/"+bundle.Path)
	assert.NotContains(t, js, "dev-only-marker", "production defines NODE_ENV and drops dead code")
	assert.NotContains(t, js, "sourceMappingURL")
}

func TestBuildErrors(t *testing.T) {
	t.Run("syntax_error", func(t *testing.T) {
		p := newProject(t)
		build(t, p, types.TargetClient, types.ModeDevelopment)
		p.AddFile(t, "app/server/render.js", "export const render = (;\n")

		_, err := bundler.Build(context.Background(), bundler.Options{Root: p.Root, Target: types.TargetServer})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrTransform), "got %v", err)
		details := errors.GetErrorDetails(err)
		assert.Equal(t, p.Path("app/server/render.js"), details[errors.DetailModule])
		assert.Equal(t, "scripts (rules[2].one_of[1])", details[errors.DetailRule])
		assert.Equal(t, "transpile", details[errors.DetailStep])
		assert.Equal(t, 1, details[errors.DetailLine])

		assert.False(t, p.Exists("build/server.js"), "failed builds write nothing")
	})

	t.Run("missing_import", func(t *testing.T) {
		p := newProject(t)
		p.AddFile(t, "app/client/index.js", `import "./missing";`)

		_, err := bundler.Build(context.Background(), bundler.Options{Root: p.Root, Target: types.TargetClient})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrResolve), "got %v", err)
		details := errors.GetErrorDetails(err)
		assert.Equal(t, "./missing", details[errors.DetailModule])
		assert.Equal(t, p.Path("app/client/index.js"), details[errors.DetailImporter])
	})

	t.Run("server_before_client", func(t *testing.T) {
		p := newProject(t)
		_, err := bundler.Build(context.Background(), bundler.Options{Root: p.Root, Target: types.TargetServer})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrResolve))
		assert.Contains(t, errors.GetErrorDetails(err)[errors.DetailModule], "index.html")
	})

	t.Run("missing_entry", func(t *testing.T) {
		_, err := bundler.Build(context.Background(), bundler.Options{Root: t.TempDir(), Target: types.TargetClient})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrResolve))
	})

	t.Run("unmatched_binary_module", func(t *testing.T) {
		p := newProject(t)
		p.AddFile(t, "app/client/font.woff2", "wOF2")
		p.AddFile(t, "app/client/index.js", `import font from "./font.woff2"; console.log(font);`)

		_, err := bundler.Build(context.Background(), bundler.Options{Root: p.Root, Target: types.TargetClient})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid), "got %v", err)
	})

	t.Run("unlowerable_browsers", func(t *testing.T) {
		p := newProject(t)

		_, err := bundler.Build(context.Background(), bundler.Options{
			Root:      p.Root,
			Target:    types.TargetClient,
			Overrides: map[string]interface{}{"transpile.browsers": "chrome58,edge16"},
		})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid), "got %v", err)
		assert.Contains(t, err.Error(), "edge16 is below edge18")
		assert.False(t, p.Exists("build"))
	})

	t.Run("strict_rules", func(t *testing.T) {
		p := newProject(t)
		cfg, err := config.Load(p.Root, types.TargetClient, nil)
		require.NoError(t, err)
		cfg.StrictRules = true
		cfg.Rules = append([]config.RuleConfig{
			{Name: "everything-image", Types: []string{"image"}, Chain: []config.StepConfig{{Step: "ignore"}}},
		}, cfg.Rules...)

		_, err = bundler.Build(context.Background(), bundler.Options{Config: cfg, Target: types.TargetClient})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrRuleAmbiguous))
		assert.Equal(t, "client", errors.GetErrorDetails(err)[errors.DetailTarget])
	})

	t.Run("cancelled", func(t *testing.T) {
		p := newProject(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := bundler.Build(ctx, bundler.Options{Root: p.Root, Target: types.TargetClient})
		require.Error(t, err)
		assert.False(t, p.Exists("build"))
	})
}

func TestBuildMetrics(t *testing.T) {
	p := newProject(t)
	m := metrics.New()

	_, err := bundler.Build(context.Background(), bundler.Options{
		Root: p.Root, Target: types.TargetClient, Mode: types.ModeDevelopment, Metrics: m, DryRun: true,
	})
	require.NoError(t, err)

	count, err := promtest.GatherAndCount(m.Registry(), "isobundle_assets_total", "isobundle_build_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
