package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/logging"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// EnvPrefix prefixes every configuration environment variable
const EnvPrefix = "ISOBUNDLE_"

// ProjectFiles are the project configuration file names, in lookup order.
// The first one found is used.
var ProjectFiles = []string{"isobundle.toml", ".isobundle.toml", "isobundle.yaml", "isobundle.yml"}

// Load builds the configuration of target for the project at root.
// Overrides, when given, are applied last as flattened koanf keys
// (for example "assets.inline_limit").
func Load(root string, target types.BuildTarget, overrides map[string]interface{}) (*TargetConfig, error) {
	logger := logging.GetLogger("config")

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot resolve project root %s", root)
	}

	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: DefaultsContent(target)}, toml.Parser()); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load %s defaults", target)
	}

	// 2. Project file, the target's table only
	if path := FindProjectFile(absRoot); path != "" {
		tempK := koanf.New(".")
		if err := tempK.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load project config from %s", path).
				WithDetail(errors.DetailPath, path)
		}
		if sub := tempK.Cut(string(target)); len(sub.Keys()) > 0 {
			if err := k.Merge(sub); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to merge project config from %s", path)
			}
			logger.Debug().Str("file", path).Str("target", string(target)).Msg("Merged project config")
		}
	}

	// 3. Environment
	prefix := EnvPrefix + strings.ToUpper(string(target)) + "__"
	if err := k.Load(env.Provider(prefix, ".", envKey(prefix)), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Explicit overrides
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	// 5. Unmarshal
	var cfg TargetConfig
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to unmarshal %s configuration", target)
	}

	cfg.Root = absRoot
	cfg.Target = string(target)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("target", cfg.Target).
		Str("entry", cfg.Entry).
		Int("rules", len(cfg.Rules)).
		Msg("Configuration loaded")

	return &cfg, nil
}

// FindProjectFile returns the project configuration file under root, or ""
func FindProjectFile(root string) string {
	for _, name := range ProjectFiles {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

// envKey maps ISOBUNDLE_SERVER__ASSETS__INLINE_LIMIT to assets.inline_limit
func envKey(prefix string) func(string) string {
	return func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, prefix)), "__", ".")
	}
}

// Validate checks the values every build relies on. Rule structure is
// validated when rules are compiled.
func (c *TargetConfig) Validate() error {
	if _, err := types.ParseTarget(c.Target); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "invalid target")
	}
	if strings.TrimSpace(c.Entry) == "" {
		return errors.New(errors.ErrConfigValid, "entry must not be empty").
			WithDetail(errors.DetailTarget, c.Target)
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		return errors.New(errors.ErrConfigValid, "output.path must not be empty").
			WithDetail(errors.DetailTarget, c.Target)
	}
	if strings.TrimSpace(c.Output.Filename) == "" {
		return errors.New(errors.ErrConfigValid, "output.filename must not be empty").
			WithDetail(errors.DetailTarget, c.Target)
	}
	if c.Assets.InlineLimit < 0 {
		return errors.Newf(errors.ErrConfigValid, "assets.inline_limit must not be negative, got %d", c.Assets.InlineLimit).
			WithDetail(errors.DetailTarget, c.Target)
	}
	if strings.TrimSpace(c.Assets.Name) == "" {
		return errors.New(errors.ErrConfigValid, "assets.name must not be empty").
			WithDetail(errors.DetailTarget, c.Target)
	}
	if c.Externals.Enabled && strings.TrimSpace(c.Externals.ModulesDir) == "" {
		return errors.New(errors.ErrConfigValid, "externals.modules_dir must be set when externals are enabled").
			WithDetail(errors.DetailTarget, c.Target)
	}
	return nil
}
