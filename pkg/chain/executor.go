package chain

import (
	"encoding/json"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/isobundle/pkg/assets"
	"github.com/arthur-debert/isobundle/pkg/config"
	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/logging"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// Inliner handles modules reaching a url step
type Inliner interface {
	Inline(ref types.ModuleRef, content []byte, override assets.Override) (assets.Decision, error)
}

// Options contains configuration for the executor
type Options struct {
	Target types.BuildTarget
	// Transpile holds the target's default runtime for transpile steps
	Transpile config.Transpile
	Inliner   Inliner
}

// Result is the representation of a module after its chain ran
type Result struct {
	Contents []byte
	// Loader tells the bundler how to parse Contents
	Loader api.Loader
	// Bypassed is set when the module was outside the chain's scope;
	// Contents is then the original content
	Bypassed bool
	// Asset is set for modules handled by a url step
	Asset *assets.Decision
	// Applied lists the steps that ran
	Applied []Kind
}

// Executor runs chains for one build target
type Executor struct {
	target   types.BuildTarget
	defaults []api.Engine
	inliner  Inliner
	logger   zerolog.Logger
}

// NewExecutor validates the target runtime defaults
func NewExecutor(opts Options) (*Executor, error) {
	engines, err := ParseEngines(opts.Transpile.Node, opts.Transpile.Browsers)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigValid, "invalid transpile runtime").
			WithDetail(errors.DetailTarget, string(opts.Target))
	}
	return &Executor{
		target:   opts.Target,
		defaults: engines,
		inliner:  opts.Inliner,
		logger:   logging.GetLogger("chain"),
	}, nil
}

// Run applies c to a module. Source steps run in order, each one consuming
// the previous step's output. A module outside the chain's scope comes back
// unchanged.
func (e *Executor) Run(ref types.ModuleRef, content []byte, c *Chain) (Result, error) {
	if !c.Scope.Contains(ref.Path) {
		e.logger.Trace().
			Str("module", ref.ID).
			Str("rule", c.Name).
			Msg("Module outside chain scope")
		return Result{Contents: content, Loader: api.LoaderDefault, Bypassed: true}, nil
	}

	if step, ok := c.Directive(); ok {
		return e.runDirective(ref, content, c, step)
	}

	result := Result{Contents: content, Loader: sourceLoader(ref.Ext)}
	for _, step := range c.Steps {
		out, loader, err := e.runSource(ref, result.Contents, result.Loader, step)
		if err != nil {
			return Result{}, err.
				WithDetail(errors.DetailModule, ref.ID).
				WithDetail(errors.DetailRule, c.Name).
				WithDetail(errors.DetailStep, string(step.Kind))
		}
		result.Contents = out
		result.Loader = loader
		result.Applied = append(result.Applied, step.Kind)
	}

	e.logger.Trace().
		Str("module", ref.ID).
		Str("rule", c.Name).
		Interface("steps", result.Applied).
		Msg("Chain applied")

	return result, nil
}

// Asset runs the url step of c against an asset referenced outside the
// script graph, such as a style sheet url()
func (e *Executor) Asset(ref types.ModuleRef, content []byte, step Step) (assets.Decision, error) {
	if e.inliner == nil {
		return assets.Decision{}, errors.New(errors.ErrInternal, "no asset inliner configured").
			WithDetail(errors.DetailModule, ref.ID)
	}
	decision, err := e.inliner.Inline(ref, content, step.AssetOverride())
	if err != nil {
		if be, ok := errors.As(err); ok {
			return assets.Decision{}, be.WithDetail(errors.DetailModule, ref.ID).WithDetail(errors.DetailStep, string(KindURL))
		}
		return assets.Decision{}, err
	}
	return decision, nil
}

func (e *Executor) runDirective(ref types.ModuleRef, content []byte, c *Chain, step Step) (Result, error) {
	result := Result{Applied: []Kind{step.Kind}}

	switch step.Kind {
	case KindURL:
		decision, err := e.Asset(ref, content, step)
		if err != nil {
			if be, ok := errors.As(err); ok {
				return Result{}, be.WithDetail(errors.DetailRule, c.Name)
			}
			return Result{}, err
		}
		result.Asset = &decision
		result.Contents = exportDefaultString(decision.URL())
		result.Loader = api.LoaderJS

	case KindHTML:
		result.Contents = exportDefaultString(string(content))
		result.Loader = api.LoaderJS

	case KindStyle:
		result.Contents = content
		result.Loader = api.LoaderCSS

	case KindIgnore:
		result.Contents = nil
		result.Loader = api.LoaderEmpty
	}

	e.logger.Trace().
		Str("module", ref.ID).
		Str("rule", c.Name).
		Str("step", string(step.Kind)).
		Msg("Directive applied")

	return result, nil
}

func (e *Executor) runSource(ref types.ModuleRef, content []byte, loader api.Loader, step Step) ([]byte, api.Loader, *errors.BundleError) {
	opts := api.TransformOptions{
		Sourcefile: ref.ID,
		Loader:     loader,
		Format:     api.FormatDefault,
		JSX:        api.JSXPreserve,
		LogLevel:   api.LogLevelSilent,
	}
	next := strippedLoader(loader)

	switch step.Kind {
	case KindTranspile:
		settings := step.transpile
		opts.JSX = settings.jsx
		if settings.node != "" || len(settings.browsers) > 0 {
			// already validated when the step was built
			opts.Engines, _ = ParseEngines(settings.node, settings.browsers)
		} else {
			opts.Engines = e.defaults
		}
		if settings.objectRestSpread {
			opts.Supported = map[string]bool{"object-rest-spread": false}
		}
		if !settings.preserveJSX {
			next = api.LoaderJS
		}

	case KindDefine:
		opts.Define = step.define

	case KindStrip:
		opts.Drop = step.drop
	}

	result := api.Transform(string(content), opts)
	if len(result.Errors) > 0 {
		return nil, loader, transformError(result.Errors[0])
	}

	return result.Code, next, nil
}

func transformError(msg api.Message) *errors.BundleError {
	err := errors.New(errors.ErrTransform, msg.Text)
	if msg.Location != nil {
		err = err.
			WithDetail(errors.DetailLine, msg.Location.Line).
			WithDetail(errors.DetailColumn, msg.Location.Column)
	}
	return err
}

// sourceLoader picks the parser for a source module. Plain .js files may
// carry JSX.
func sourceLoader(ext string) api.Loader {
	switch strings.ToLower(ext) {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".mjs", ".cjs":
		return api.LoaderJS
	default:
		return api.LoaderJSX
	}
}

// strippedLoader is the loader of a module after a pass that kept JSX.
// Type annotations never survive a pass.
func strippedLoader(loader api.Loader) api.Loader {
	switch loader {
	case api.LoaderTS, api.LoaderJS:
		return api.LoaderJS
	default:
		return api.LoaderJSX
	}
}

func exportDefaultString(s string) []byte {
	encoded, _ := json.Marshal(s)
	return append([]byte("export default "), append(encoded, ';', '\n')...)
}
