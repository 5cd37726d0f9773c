package chain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/arthur-debert/isobundle/pkg/assets"
	"github.com/arthur-debert/isobundle/pkg/config"
	"github.com/arthur-debert/isobundle/pkg/errors"
)

// Kind names a step
type Kind string

const (
	KindTranspile Kind = "transpile"
	KindDefine    Kind = "define"
	KindStrip     Kind = "strip"
	KindURL       Kind = "url"
	KindHTML      Kind = "html"
	KindStyle     Kind = "style"
	KindIgnore    Kind = "ignore"
)

// Kinds lists every step kind in documentation order
var Kinds = []Kind{KindTranspile, KindDefine, KindStrip, KindURL, KindHTML, KindStyle, KindIgnore}

// allowed option keys per kind
var stepOptions = map[Kind][]string{
	KindTranspile: {"jsx", "object_rest_spread", "node", "browsers"},
	KindDefine:    {"values"},
	KindStrip:     {"console", "debugger"},
	KindURL:       {"limit", "name"},
	KindHTML:      nil,
	KindStyle:     nil,
	KindIgnore:    nil,
}

// ParseKind validates a step name
func ParseKind(name string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := stepOptions[kind]; !ok {
		return "", fmt.Errorf("unknown step %q", name)
	}
	return kind, nil
}

// IsDirective reports whether the step decides the module representation
// instead of rewriting its text
func (k Kind) IsDirective() bool {
	switch k {
	case KindURL, KindHTML, KindStyle, KindIgnore:
		return true
	}
	return false
}

// transpileSettings are the decoded options of a transpile step
type transpileSettings struct {
	jsx              api.JSX
	preserveJSX      bool
	objectRestSpread bool
	node             string
	browsers         []string
}

// Step is one configured transformation
type Step struct {
	Kind    Kind
	Options map[string]interface{}

	transpile transpileSettings
	define    map[string]string
	drop      api.Drop
	asset     assets.Override
}

// AssetOverride returns the per-rule inliner settings of a url step
func (s Step) AssetOverride() assets.Override {
	return s.asset
}

// newStep decodes and validates a configured step
func newStep(cfg config.StepConfig) (Step, error) {
	kind, err := ParseKind(cfg.Step)
	if err != nil {
		return Step{}, errors.Wrap(err, errors.ErrRuleInvalid, "invalid step").
			WithDetail(errors.DetailStep, cfg.Step)
	}

	step := Step{Kind: kind, Options: cfg.Options}
	if err := checkOptionKeys(kind, cfg.Options); err != nil {
		return Step{}, err
	}

	opts := options(cfg.Options)
	switch kind {
	case KindTranspile:
		jsx := opts.String("jsx", "react")
		switch jsx {
		case "react":
			step.transpile.jsx = api.JSXTransform
		case "automatic":
			step.transpile.jsx = api.JSXAutomatic
		case "preserve":
			step.transpile.jsx = api.JSXPreserve
			step.transpile.preserveJSX = true
		default:
			return Step{}, stepError(kind, "jsx must be one of react, automatic, preserve, got %q", jsx)
		}
		if step.transpile.objectRestSpread, err = opts.Bool("object_rest_spread"); err != nil {
			return Step{}, stepError(kind, "%v", err)
		}
		step.transpile.node = opts.String("node", "")
		if step.transpile.browsers, err = opts.Strings("browsers"); err != nil {
			return Step{}, stepError(kind, "%v", err)
		}
		if _, err := ParseEngines(step.transpile.node, step.transpile.browsers); err != nil {
			return Step{}, stepError(kind, "%v", err)
		}

	case KindDefine:
		if step.define, err = opts.StringMap("values"); err != nil {
			return Step{}, stepError(kind, "%v", err)
		}
		if len(step.define) == 0 {
			return Step{}, stepError(kind, "values must name at least one identifier")
		}

	case KindStrip:
		dropConsole, err := opts.Bool("console")
		if err != nil {
			return Step{}, stepError(kind, "%v", err)
		}
		dropDebugger, err := opts.Bool("debugger")
		if err != nil {
			return Step{}, stepError(kind, "%v", err)
		}
		if _, set := opts["console"]; !set {
			dropConsole = true
		}
		if _, set := opts["debugger"]; !set {
			dropDebugger = true
		}
		if dropConsole {
			step.drop |= api.DropConsole
		}
		if dropDebugger {
			step.drop |= api.DropDebugger
		}

	case KindURL:
		if _, set := opts["limit"]; set {
			limit, err := opts.Int("limit")
			if err != nil {
				return Step{}, stepError(kind, "%v", err)
			}
			if limit < 0 {
				return Step{}, stepError(kind, "limit must not be negative, got %d", limit)
			}
			step.asset.Limit = &limit
		}
		step.asset.Name = opts.String("name", "")
	}

	return step, nil
}

func checkOptionKeys(kind Kind, opts map[string]interface{}) error {
	allowed := stepOptions[kind]
	var unknown []string
	for key := range opts {
		found := false
		for _, a := range allowed {
			if a == key {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return stepError(kind, "unknown options %s", strings.Join(unknown, ", "))
}

func stepError(kind Kind, format string, args ...interface{}) *errors.BundleError {
	return errors.Newf(errors.ErrRuleInvalid, format, args...).
		WithDetail(errors.DetailStep, string(kind))
}

// options reads loosely typed values decoded from TOML, YAML or env
type options map[string]interface{}

func (o options) String(key, fallback string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return fallback
	}
	return fmt.Sprint(v)
}

func (o options) Bool(key string) (bool, error) {
	switch v := o[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%s must be a boolean, got %T", key, v)
	}
}

func (o options) Int(key string) (int, error) {
	switch v := o[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be an integer, got %T", key, v)
	}
}

func (o options) Strings(key string) ([]string, error) {
	switch v := o[key].(type) {
	case nil:
		return nil, nil
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a list of strings, got %T", key, v)
	}
}

func (o options) StringMap(key string) (map[string]string, error) {
	switch v := o[key].(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		out := make(map[string]string, len(v))
		for k, item := range v {
			out[k] = fmt.Sprint(item)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a table, got %T", key, v)
	}
}
