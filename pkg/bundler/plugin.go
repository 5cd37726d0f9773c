package bundler

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/isobundle/pkg/assets"
	"github.com/arthur-debert/isobundle/pkg/chain"
	"github.com/arthur-debert/isobundle/pkg/config"
	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/externals"
	"github.com/arthur-debert/isobundle/pkg/metrics"
	"github.com/arthur-debert/isobundle/pkg/output"
	"github.com/arthur-debert/isobundle/pkg/rules"
	"github.com/arthur-debert/isobundle/pkg/types"
)

const pluginName = "isobundle"

// session holds the state of one build. esbuild runs plugin callbacks
// concurrently, so everything mutable is guarded by mu.
type session struct {
	cfg       *config.TargetConfig
	target    types.BuildTarget
	matcher   *rules.Matcher
	executor  *chain.Executor
	inliner   *assets.Inliner
	assembler *output.Assembler
	filter    *externals.Filter
	metrics   *metrics.Metrics
	src       types.FS
	logger    zerolog.Logger

	// staged paths exist only in src, esbuild cannot find them on disk
	staged map[string]bool

	mu       sync.Mutex
	firstErr error
	assets   map[string]AssetRecord
}

// fail records the first error of the build and returns err
func (s *session) fail(err error) error {
	s.mu.Lock()
	if s.firstErr == nil {
		s.firstErr = err
	}
	s.mu.Unlock()
	return err
}

func (s *session) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstErr
}

// Inline implements chain.Inliner, recording every decision
func (s *session) Inline(ref types.ModuleRef, content []byte, override assets.Override) (assets.Decision, error) {
	decision, err := s.inliner.Inline(ref, content, override)
	if err != nil {
		return decision, err
	}

	record := AssetRecord{Module: s.relative(ref.Path), Size: len(content), Inline: decision.Inline}
	if !decision.Inline {
		record.Artifact = decision.Artifact.Path
	}
	s.mu.Lock()
	s.assets[record.Module] = record
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveAsset(s.target, decision.Inline, len(content))
	}
	return decision, nil
}

func (s *session) relative(path string) string {
	if rel, err := filepath.Rel(s.cfg.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func (s *session) observeModule(rule *rules.Rule, outcome string) {
	if s.metrics == nil {
		return
	}
	name := ""
	if rule != nil {
		name = rule.Name
		if name == "" {
			name = rule.Path
		}
	}
	s.metrics.ObserveModule(s.target, name, outcome)
}

func (s *session) plugin() api.Plugin {
	return api.Plugin{
		Name: pluginName,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, s.onResolve)
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: "file"}, s.onLoad)
		},
	}
}

func (s *session) onResolve(args api.OnResolveArgs) (api.OnResolveResult, error) {
	switch args.Kind {
	case api.ResolveEntryPoint:
		return api.OnResolveResult{}, nil
	case api.ResolveCSSURLToken:
		return s.resolveStyleURL(args)
	}

	if s.filter.Decide(args.Path) == externals.External {
		if s.metrics != nil {
			s.metrics.ObserveExternal(s.target)
		}
		return api.OnResolveResult{Path: args.Path, External: true}, nil
	}
	if path, ok := s.stagedPath(args); ok {
		return api.OnResolveResult{Path: path}, nil
	}
	return api.OnResolveResult{}, nil
}

// stagedPath resolves a relative or absolute request to a staged artifact
func (s *session) stagedPath(args api.OnResolveArgs) (string, bool) {
	if len(s.staged) == 0 {
		return "", false
	}
	path := filepath.FromSlash(args.Path)
	switch {
	case filepath.IsAbs(path):
		path = filepath.Clean(path)
	case strings.HasPrefix(args.Path, "."):
		path = filepath.Join(args.ResolveDir, path)
	default:
		return "", false
	}
	return path, s.staged[path]
}

// resolveStyleURL sends images referenced by url() in style sheets
// through the asset inliner and rewrites the reference
func (s *session) resolveStyleURL(args api.OnResolveArgs) (api.OnResolveResult, error) {
	request := args.Path
	if i := strings.IndexAny(request, "?#"); i >= 0 {
		request = request[:i]
	}
	if request == "" || strings.HasPrefix(request, "/") || strings.HasPrefix(request, "data:") || strings.Contains(request, "://") {
		return api.OnResolveResult{Path: args.Path, External: true}, nil
	}

	path := filepath.Join(args.ResolveDir, filepath.FromSlash(request))
	ref := types.NewModuleRef(path)

	rule, ok := s.matcher.Match(ref)
	if !ok {
		return api.OnResolveResult{}, nil
	}
	step, isDirective := rule.Chain.Directive()
	if !isDirective || step.Kind != chain.KindURL || !rule.Chain.Scope.Contains(path) {
		return api.OnResolveResult{}, nil
	}

	content, err := s.src.ReadFile(path)
	if err != nil {
		code := errors.ErrAssetRead
		if os.IsNotExist(err) {
			code = errors.ErrResolve
		}
		return api.OnResolveResult{}, s.fail(errors.Wrapf(err, code, "cannot read %s", request).
			WithDetail(errors.DetailModule, path).
			WithDetail(errors.DetailImporter, args.Importer).
			WithDetail(errors.DetailRule, rule.Label()))
	}

	decision, err := s.executor.Asset(ref, content, step)
	if err != nil {
		return api.OnResolveResult{}, s.fail(withRule(err, rule))
	}
	s.observeModule(rule, metrics.OutcomeTransformed)

	return api.OnResolveResult{Path: decision.URL(), External: true}, nil
}

func (s *session) onLoad(args api.OnLoadArgs) (api.OnLoadResult, error) {
	ref := types.NewModuleRef(args.Path)

	rule, ok := s.matcher.Match(ref)
	if !ok {
		s.observeModule(nil, metrics.OutcomePassThrough)
		if !s.staged[args.Path] {
			return api.OnLoadResult{}, nil
		}
		content, err := s.src.ReadFile(args.Path)
		if err != nil {
			return api.OnLoadResult{}, s.fail(errors.Wrapf(err, errors.ErrAssetRead, "cannot read %s", args.Path).
				WithDetail(errors.DetailModule, args.Path))
		}
		contents := string(content)
		return api.OnLoadResult{Contents: &contents, ResolveDir: filepath.Dir(args.Path)}, nil
	}

	content, err := s.src.ReadFile(args.Path)
	if err != nil {
		return api.OnLoadResult{}, s.fail(errors.Wrapf(err, errors.ErrAssetRead, "cannot read %s", args.Path).
			WithDetail(errors.DetailModule, args.Path).
			WithDetail(errors.DetailRule, rule.Label()))
	}

	result, err := s.executor.Run(ref, content, rule.Chain)
	if err != nil {
		return api.OnLoadResult{}, s.fail(withRule(err, rule))
	}

	if result.Bypassed {
		s.observeModule(rule, metrics.OutcomeBypassed)
		return api.OnLoadResult{}, nil
	}
	s.observeModule(rule, metrics.OutcomeTransformed)

	contents := string(result.Contents)
	return api.OnLoadResult{
		Contents:   &contents,
		Loader:     result.Loader,
		ResolveDir: filepath.Dir(args.Path),
	}, nil
}

func withRule(err error, rule *rules.Rule) error {
	if be, ok := errors.As(err); ok {
		if _, set := be.Details[errors.DetailRule]; !set {
			return be.WithDetail(errors.DetailRule, rule.Label())
		}
		return be
	}
	return errors.Wrap(err, errors.ErrInternal, "unexpected failure").
		WithDetail(errors.DetailRule, rule.Label())
}
