package bundler

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/arthur-debert/isobundle/pkg/assets"
	"github.com/arthur-debert/isobundle/pkg/chain"
	"github.com/arthur-debert/isobundle/pkg/config"
	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/externals"
	"github.com/arthur-debert/isobundle/pkg/filesystem"
	"github.com/arthur-debert/isobundle/pkg/logging"
	"github.com/arthur-debert/isobundle/pkg/markup"
	"github.com/arthur-debert/isobundle/pkg/output"
	"github.com/arthur-debert/isobundle/pkg/rules"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// Build runs a complete build of one target
func Build(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	logger := logging.GetLogger("bundler").With().Str("target", string(opts.Target)).Logger()
	done := logging.LogOperationStart(logger, "build")
	defer done()

	result, err := build(ctx, opts)
	if opts.Metrics != nil {
		opts.Metrics.ObserveBuild(opts.Target, time.Since(start), err == nil)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Build failed")
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

func build(ctx context.Context, opts Options) (*Result, error) {
	if opts.Mode == "" {
		opts.Mode = types.ModeDevelopment
	}

	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(opts.Root, opts.Target, opts.Overrides); err != nil {
			return nil, err
		}
	}
	if opts.Target == "" {
		opts.Target = cfg.BuildTarget()
	}

	src := sourceFS(opts.Staged)

	s, warnings, err := newSession(cfg, opts, src)
	if err != nil {
		return nil, err
	}

	if _, err := src.Stat(cfg.EntryPath()); err != nil {
		return nil, errors.Wrapf(err, errors.ErrResolve, "entry %s not found", cfg.Entry).
			WithDetail(errors.DetailModule, cfg.EntryPath()).
			WithDetail(errors.DetailTarget, cfg.Target)
	}

	buildOpts, err := esbuildOptions(cfg, opts.Mode)
	if err != nil {
		return nil, err
	}
	buildOpts.Plugins = []api.Plugin{s.plugin()}

	bundle, err := runBuild(ctx, buildOpts)
	if err != nil {
		return nil, err
	}
	if err := s.err(); err != nil {
		return nil, err
	}
	if len(bundle.Errors) > 0 {
		return nil, translate(bundle.Errors[0], cfg.Root).WithDetail(errors.DetailTarget, cfg.Target)
	}
	for _, w := range bundle.Warnings {
		s.logger.Warn().Str("warning", describe(w)).Msg("Bundler warning")
		warnings = append(warnings, describe(w))
	}

	assembler := s.assembler
	if err := registerOutputs(assembler, cfg, bundle.OutputFiles); err != nil {
		return nil, err
	}
	if err := registerMarkup(assembler, cfg, src); err != nil {
		return nil, err
	}

	result := &Result{
		BuildID:   uuid.NewString(),
		Target:    opts.Target,
		Mode:      opts.Mode,
		OutDir:    cfg.OutputDir(),
		Externals: s.filter.Externals(),
		Assets:    s.assetRecords(),
		Warnings:  warnings,
	}

	if cfg.Output.Manifest != "" {
		manifest := &Manifest{
			BuildID:   result.BuildID,
			Target:    string(result.Target),
			Mode:      string(result.Mode),
			Entry:     cfg.Entry,
			Artifacts: assembler.Artifacts(),
			Externals: result.Externals,
			Assets:    result.Assets,
		}
		content, err := manifest.encode()
		if err != nil {
			return nil, err
		}
		if _, err := assembler.Register(output.KindManifest, cfg.Output.Manifest, cfg.Output.Manifest, content); err != nil {
			return nil, err
		}
	}

	result.Artifacts = assembler.Artifacts()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "build cancelled")
	}
	if opts.DryRun {
		result.staged = make(map[string][]byte, len(result.Artifacts))
		for _, a := range result.Artifacts {
			_, content, _ := assembler.Lookup(a.Path)
			result.staged[filepath.Join(result.OutDir, filepath.FromSlash(a.Path))] = content
		}
	} else if err := assembler.Flush(); err != nil {
		return nil, err
	}

	if opts.Metrics != nil {
		for _, a := range result.Artifacts {
			opts.Metrics.ObserveArtifact(result.Target, string(a.Kind), a.Size)
		}
	}

	s.logger.Info().
		Str("mode", string(result.Mode)).
		Int("artifacts", len(result.Artifacts)).
		Int("externals", len(result.Externals)).
		Int("assets", len(result.Assets)).
		Msg("Build complete")

	return result, nil
}

// newSession wires the pipeline components of one build
func newSession(cfg *config.TargetConfig, opts Options, src types.FS) (*session, []string, error) {
	target := cfg.BuildTarget()

	compiled, err := rules.Compile(target, cfg.Root, cfg.Rules)
	if err != nil {
		return nil, nil, err
	}
	overlaps, err := rules.Validate(compiled, cfg.StrictRules)
	if err != nil {
		if be, ok := errors.As(err); ok {
			return nil, nil, be.WithDetail(errors.DetailTarget, string(target))
		}
		return nil, nil, err
	}
	var warnings []string
	for _, o := range overlaps {
		warnings = append(warnings, o.String())
	}

	outFS := opts.OutputFS
	if outFS == nil {
		outFS = filesystem.NewOS()
	}
	assembler := output.New(output.Options{OutDir: cfg.OutputDir(), PublicPath: cfg.Output.PublicPath, FS: outFS})

	inliner, err := assets.NewInliner(cfg.Assets.InlineLimit, cfg.Assets.Name, assembler)
	if err != nil {
		return nil, nil, err
	}

	var policy externals.Policy
	if cfg.Externals.Enabled {
		nodeModules, err := externals.LoadNodeModules(src, cfg.ModulesDir(), cfg.Externals.Allowlist)
		if err != nil {
			return nil, nil, err
		}
		policy = nodeModules
	}

	staged := make(map[string]bool, len(opts.Staged))
	for path := range opts.Staged {
		staged[filepath.Clean(path)] = true
	}

	s := &session{
		cfg:       cfg,
		target:    target,
		matcher:   rules.NewMatcher(compiled),
		inliner:   inliner,
		assembler: assembler,
		filter:    externals.NewFilter(target, policy),
		metrics:   opts.Metrics,
		src:       src,
		logger:    logging.GetLogger("bundler").With().Str("target", string(target)).Logger(),
		assets:    make(map[string]AssetRecord),
		staged:    staged,
	}

	s.executor, err = chain.NewExecutor(chain.Options{Target: target, Transpile: cfg.Transpile, Inliner: s})
	if err != nil {
		return nil, nil, err
	}
	return s, warnings, nil
}

func (s *session) assetRecords() []AssetRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AssetRecord, 0, len(s.assets))
	for _, r := range s.assets {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}

// sourceFS reads the project from disk, with staged artifacts layered on top
func sourceFS(staged map[string][]byte) types.FS {
	if len(staged) == 0 {
		return filesystem.NewOS()
	}
	layer := afero.NewMemMapFs()
	for path, content := range staged {
		// a MemMapFs write cannot fail short of a bad path, which then reads as missing
		_ = afero.WriteFile(layer, filepath.Clean(path), content, 0644)
	}
	return filesystem.NewAferoFS(afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(afero.NewOsFs()), layer))
}

// esbuildOptions maps the target configuration and mode to esbuild
func esbuildOptions(cfg *config.TargetConfig, mode types.BuildMode) (api.BuildOptions, error) {
	engines, err := chain.ParseEngines(cfg.Transpile.Node, cfg.Transpile.Browsers)
	if err != nil {
		return api.BuildOptions{}, errors.Wrap(err, errors.ErrConfigValid, "invalid transpile runtime").
			WithDetail(errors.DetailTarget, cfg.Target)
	}

	opts := api.BuildOptions{
		EntryPoints:   []string{cfg.EntryPath()},
		AbsWorkingDir: cfg.Root,
		Outdir:        cfg.OutputDir(),
		EntryNames:    cfg.Output.Name,
		Bundle:        true,
		Write:         false,
		Engines:       engines,
		LogLevel:      api.LogLevelSilent,
		Define: map[string]string{
			"process.env.NODE_ENV": `"` + string(mode) + `"`,
		},
	}

	if cfg.BuildTarget().IsServer() {
		opts.Platform = api.PlatformNode
		opts.Format = api.FormatCommonJS
	} else {
		opts.Platform = api.PlatformBrowser
		opts.Format = api.FormatIIFE
	}

	if mode.IsProduction() {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	} else {
		opts.Sourcemap = api.SourceMapInline
	}

	return opts, nil
}

// runBuild runs esbuild, cancelling it when ctx is done
func runBuild(ctx context.Context, opts api.BuildOptions) (api.BuildResult, error) {
	bctx, cerr := api.Context(opts)
	if cerr != nil {
		if len(cerr.Errors) > 0 {
			return api.BuildResult{}, errors.New(errors.ErrConfigValid, cerr.Errors[0].Text)
		}
		return api.BuildResult{}, errors.Wrap(cerr, errors.ErrConfigValid, "invalid bundler options")
	}
	defer bctx.Dispose()

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
			bctx.Cancel()
		case <-finished:
		}
	}()

	result := bctx.Rebuild()
	if err := ctx.Err(); err != nil {
		return api.BuildResult{}, errors.Wrap(err, errors.ErrInternal, "build cancelled")
	}
	return result, nil
}

// registerOutputs renames the esbuild outputs with the configured templates
func registerOutputs(assembler *output.Assembler, cfg *config.TargetConfig, files []api.OutputFile) error {
	for _, f := range files {
		base := filepath.Base(f.Path)
		switch filepath.Ext(base) {
		case ".js":
			if _, err := assembler.Register(output.KindBundle, cfg.Output.Filename, base, f.Contents); err != nil {
				return err
			}
		case ".css":
			template := cfg.Styles.Filename
			if template == "" {
				template = "[name].[ext]"
			}
			if _, err := assembler.Register(output.KindStyle, template, base, f.Contents); err != nil {
				return err
			}
		default:
			rel, err := filepath.Rel(cfg.OutputDir(), f.Path)
			if err != nil {
				rel = base
			}
			if _, err := assembler.Register(output.KindAsset, filepath.ToSlash(rel), base, f.Contents); err != nil {
				return err
			}
		}
	}
	return nil
}

// registerMarkup renders the markup page linking the bundle and style sheet
func registerMarkup(assembler *output.Assembler, cfg *config.TargetConfig, src types.FS) error {
	if cfg.Markup.Filename == "" {
		return nil
	}

	template := []byte(markup.DefaultTemplate)
	source := cfg.Markup.Filename
	if cfg.Markup.Template != "" {
		path := cfg.Abs(cfg.Markup.Template)
		content, err := src.ReadFile(path)
		switch {
		case err == nil:
			template, source = content, path
		case os.IsNotExist(err):
			logger := logging.GetLogger("bundler")
			logger.Info().Str("template", path).Msg("No markup template, using the default page")
		default:
			return errors.Wrapf(err, errors.ErrAssetRead, "cannot read markup template %s", path).
				WithDetail(errors.DetailModule, path)
		}
	}

	var styles, scripts []string
	for _, a := range assembler.Artifacts() {
		switch a.Kind {
		case output.KindStyle:
			styles = append(styles, a.URL)
		case output.KindBundle:
			scripts = append(scripts, a.URL)
		}
	}

	page, err := markup.Inject(template, styles, scripts)
	if err != nil {
		if be, ok := errors.As(err); ok {
			return be.WithDetail(errors.DetailModule, source)
		}
		return err
	}
	_, err = assembler.Register(output.KindMarkup, cfg.Markup.Filename, source, page)
	return err
}
