package output

// Kind classifies an artifact
type Kind string

const (
	KindBundle   Kind = "bundle"
	KindStyle    Kind = "style"
	KindAsset    Kind = "asset"
	KindMarkup   Kind = "markup"
	KindManifest Kind = "manifest"
)

// Artifact is a named build output
type Artifact struct {
	Kind Kind `yaml:"kind" json:"kind"`

	// Path is slash separated and relative to the output directory
	Path string `yaml:"path" json:"path"`

	// URL is Path prefixed with the public path
	URL string `yaml:"url" json:"url"`

	// Source is the module or file the artifact was produced from
	Source string `yaml:"source,omitempty" json:"source,omitempty"`

	Size   int    `yaml:"size" json:"size"`
	Digest string `yaml:"digest" json:"digest"`
}
