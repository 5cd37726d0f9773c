package bundler

import (
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/output"
)

// Manifest is written next to the artifacts of a build
type Manifest struct {
	BuildID   string            `yaml:"build_id"`
	Target    string            `yaml:"target"`
	Mode      string            `yaml:"mode"`
	Entry     string            `yaml:"entry"`
	Artifacts []output.Artifact `yaml:"artifacts"`
	Externals []string          `yaml:"externals,omitempty"`
	Assets    []AssetRecord     `yaml:"assets,omitempty"`
}

func (m *Manifest) encode() ([]byte, error) {
	out, err := yaml.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot encode build manifest")
	}
	return out, nil
}

// ReadManifest decodes a manifest written by a previous build
func ReadManifest(content []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "cannot decode build manifest")
	}
	return &m, nil
}
