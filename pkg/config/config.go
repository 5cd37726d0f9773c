package config

import (
	"path/filepath"

	"github.com/arthur-debert/isobundle/pkg/output"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// StepConfig configures one step of a transformation chain
type StepConfig struct {
	Step    string                 `koanf:"step" toml:"step" yaml:"step"`
	Options map[string]interface{} `koanf:"options" toml:"options,omitempty" yaml:"options,omitempty"`
}

// RuleConfig is the declarative form of a match rule. A leaf rule carries a
// predicate (extensions or types) and a chain; a group carries one_of.
type RuleConfig struct {
	Name       string       `koanf:"name" toml:"name,omitempty" yaml:"name,omitempty"`
	Extensions []string     `koanf:"extensions" toml:"extensions,omitempty" yaml:"extensions,omitempty"`
	Types      []string     `koanf:"types" toml:"types,omitempty" yaml:"types,omitempty"`
	Include    []string     `koanf:"include" toml:"include,omitempty" yaml:"include,omitempty"`
	Exclude    []string     `koanf:"exclude" toml:"exclude,omitempty" yaml:"exclude,omitempty"`
	Chain      []StepConfig `koanf:"chain" toml:"chain,omitempty" yaml:"chain,omitempty"`
	OneOf      []RuleConfig `koanf:"one_of" toml:"one_of,omitempty" yaml:"one_of,omitempty"`
}

// IsGroup reports whether the rule is a first-match-wins group
func (r RuleConfig) IsGroup() bool {
	return len(r.OneOf) > 0
}

// Output holds bundle naming and placement
type Output struct {
	// Path is the output directory, relative to the project root
	Path string `koanf:"path" toml:"path" yaml:"path"`
	// Name is the value of the [name] token for the bundle and style sheet
	Name string `koanf:"name" toml:"name" yaml:"name"`
	// Filename is the name template of the script bundle
	Filename string `koanf:"filename" toml:"filename" yaml:"filename"`
	// PublicPath prefixes every artifact URL referenced from bundle content
	PublicPath string `koanf:"public_path" toml:"public_path" yaml:"public_path"`
	// Manifest is the build manifest file name, empty to disable
	Manifest string `koanf:"manifest" toml:"manifest" yaml:"manifest"`
}

// Assets configures the asset inliner
type Assets struct {
	InlineLimit int    `koanf:"inline_limit" toml:"inline_limit" yaml:"inline_limit"`
	Name        string `koanf:"name" toml:"name" yaml:"name"`
}

// Styles configures the collected style sheet artifact
type Styles struct {
	Filename string `koanf:"filename" toml:"filename" yaml:"filename"`
}

// Markup configures the client markup artifact
type Markup struct {
	Template string `koanf:"template" toml:"template,omitempty" yaml:"template,omitempty"`
	Filename string `koanf:"filename" toml:"filename,omitempty" yaml:"filename,omitempty"`
}

// Externals configures the server externals policy
type Externals struct {
	Enabled    bool     `koanf:"enabled" toml:"enabled" yaml:"enabled"`
	ModulesDir string   `koanf:"modules_dir" toml:"modules_dir" yaml:"modules_dir"`
	Allowlist  []string `koanf:"allowlist" toml:"allowlist" yaml:"allowlist"`
}

// Transpile holds the target runtime defaults for transpile steps
type Transpile struct {
	Node     string   `koanf:"node" toml:"node,omitempty" yaml:"node,omitempty"`
	Browsers []string `koanf:"browsers" toml:"browsers,omitempty" yaml:"browsers,omitempty"`
}

// TargetConfig is the complete configuration of one build target
type TargetConfig struct {
	Target      string       `koanf:"target" toml:"target" yaml:"target"`
	Entry       string       `koanf:"entry" toml:"entry" yaml:"entry"`
	StrictRules bool         `koanf:"strict_rules" toml:"strict_rules" yaml:"strict_rules"`
	Output      Output       `koanf:"output" toml:"output" yaml:"output"`
	Assets      Assets       `koanf:"assets" toml:"assets" yaml:"assets"`
	Styles      Styles       `koanf:"styles" toml:"styles" yaml:"styles"`
	Markup      Markup       `koanf:"markup" toml:"markup" yaml:"markup"`
	Externals   Externals    `koanf:"externals" toml:"externals" yaml:"externals"`
	Transpile   Transpile    `koanf:"transpile" toml:"transpile" yaml:"transpile"`
	Rules       []RuleConfig `koanf:"rules" toml:"rules" yaml:"rules"`

	// Root is the project root all relative paths are resolved against
	Root string `koanf:"-" toml:"-" yaml:"-"`
}

// BuildTarget returns the typed target
func (c *TargetConfig) BuildTarget() types.BuildTarget {
	return types.BuildTarget(c.Target)
}

// Abs resolves a configured path against the project root
func (c *TargetConfig) Abs(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Root, filepath.FromSlash(path))
}

// EntryPath returns the absolute entry module path
func (c *TargetConfig) EntryPath() string {
	return c.Abs(c.Entry)
}

// OutputDir returns the absolute output directory
func (c *TargetConfig) OutputDir() string {
	return c.Abs(c.Output.Path)
}

// ModulesDir returns the absolute dependency directory
func (c *TargetConfig) ModulesDir() string {
	return c.Abs(c.Externals.ModulesDir)
}

// PublicURL joins the public path and an artifact path
func (c *TargetConfig) PublicURL(artifactPath string) string {
	return output.JoinURL(c.Output.PublicPath, artifactPath)
}
