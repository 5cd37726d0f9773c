package bundler

import (
	"time"

	"github.com/arthur-debert/isobundle/pkg/config"
	"github.com/arthur-debert/isobundle/pkg/metrics"
	"github.com/arthur-debert/isobundle/pkg/output"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// Options contains configuration for a build
type Options struct {
	// Root is the project root, used when Config is nil
	Root   string
	Target types.BuildTarget
	Mode   types.BuildMode

	// Overrides are flattened config keys applied over every other layer
	Overrides map[string]interface{}
	// Config skips loading when set
	Config *config.TargetConfig

	// OutputFS receives artifacts, the OS filesystem by default
	OutputFS types.FS
	// Metrics is optional
	Metrics *metrics.Metrics
	// DryRun builds without writing anything
	DryRun bool
	// Staged holds artifacts of earlier dry runs by absolute path. They are
	// read in place of files missing from disk.
	Staged map[string][]byte
}

// AssetRecord describes one inliner decision
type AssetRecord struct {
	Module   string `yaml:"module" json:"module"`
	Size     int    `yaml:"size" json:"size"`
	Inline   bool   `yaml:"inline" json:"inline"`
	Artifact string `yaml:"artifact,omitempty" json:"artifact,omitempty"`
}

// Result describes a finished build
type Result struct {
	BuildID   string
	Target    types.BuildTarget
	Mode      types.BuildMode
	OutDir    string
	Artifacts []output.Artifact
	Externals []string
	Assets    []AssetRecord
	Warnings  []string
	Duration  time.Duration

	staged map[string][]byte
}

// Staged returns the unwritten artifacts of a dry run by absolute path.
// It is empty when the build wrote its output.
func (r *Result) Staged() map[string][]byte {
	return r.staged
}

// Artifact returns the first artifact of kind
func (r *Result) Artifact(kind output.Kind) (output.Artifact, bool) {
	for _, a := range r.Artifacts {
		if a.Kind == kind {
			return a, true
		}
	}
	return output.Artifact{}, false
}
