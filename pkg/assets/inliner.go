// Package assets decides whether image-like modules are embedded as data
// URLs or emitted as separate artifacts.
package assets

import (
	"encoding/base64"
	"mime"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/logging"
	"github.com/arthur-debert/isobundle/pkg/output"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// DefaultMIME is used when the extension has no registered type
const DefaultMIME = "application/octet-stream"

// Registrar receives emitted assets
type Registrar interface {
	Register(kind output.Kind, template, source string, content []byte) (output.Artifact, error)
}

// Override carries per-rule settings that replace the target defaults
type Override struct {
	Limit *int
	Name  string
}

// Decision is the outcome for one asset: either Inline with a data URL or
// External with an emitted artifact
type Decision struct {
	Inline   bool
	DataURL  string
	MIME     string
	Artifact output.Artifact
}

// URL returns the reference a bundle should use for the asset
func (d Decision) URL() string {
	if d.Inline {
		return d.DataURL
	}
	return d.Artifact.URL
}

// Inliner applies the inline threshold of one target
type Inliner struct {
	Threshold    int
	NameTemplate string

	registrar Registrar
	logger    zerolog.Logger
}

// NewInliner validates the threshold and name template
func NewInliner(threshold int, nameTemplate string, registrar Registrar) (*Inliner, error) {
	if threshold < 0 {
		return nil, errors.Newf(errors.ErrConfigValid, "inline threshold must not be negative, got %d", threshold)
	}
	if err := output.ValidateTemplate(nameTemplate); err != nil {
		return nil, err
	}
	return &Inliner{
		Threshold:    threshold,
		NameTemplate: nameTemplate,
		registrar:    registrar,
		logger:       logging.GetLogger("assets"),
	}, nil
}

// Inline embeds content when its size is at most the threshold and emits
// it as an artifact otherwise
func (i *Inliner) Inline(ref types.ModuleRef, content []byte, override Override) (Decision, error) {
	threshold := i.Threshold
	if override.Limit != nil {
		threshold = *override.Limit
	}
	template := i.NameTemplate
	if override.Name != "" {
		template = override.Name
	}

	mimeType := MIMEType(ref.Ext)

	if len(content) <= threshold {
		i.logger.Debug().
			Str("module", ref.ID).
			Int("size", len(content)).
			Int("threshold", threshold).
			Msg("Inlining asset")
		return Decision{
			Inline:  true,
			DataURL: DataURL(mimeType, content),
			MIME:    mimeType,
		}, nil
	}

	artifact, err := i.registrar.Register(output.KindAsset, template, ref.Path, content)
	if err != nil {
		return Decision{}, err
	}

	i.logger.Debug().
		Str("module", ref.ID).
		Int("size", len(content)).
		Int("threshold", threshold).
		Str("artifact", artifact.Path).
		Msg("Emitting asset")

	return Decision{MIME: mimeType, Artifact: artifact}, nil
}

// image types missing from the builtin table, or mapped inconsistently by
// system mime.types files
var imageTypes = map[string]string{
	".bmp": "image/bmp",
	".ico": "image/x-icon",
}

// MIMEType returns the media type of an extension without parameters
func MIMEType(ext string) string {
	ext = types.NormalizeExtension(ext)
	if t, ok := imageTypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return DefaultMIME
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// DataURL encodes content as a base64 data URL
func DataURL(mimeType string, content []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(content)
}
