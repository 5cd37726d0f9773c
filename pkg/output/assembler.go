package output

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/filesystem"
	"github.com/arthur-debert/isobundle/pkg/internal/hashutil"
	"github.com/arthur-debert/isobundle/pkg/logging"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// Options contains configuration for an Assembler
type Options struct {
	// OutDir is the directory artifacts are written under
	OutDir string
	// PublicPath prefixes artifact URLs
	PublicPath string
	// FS defaults to the OS filesystem
	FS types.FS
}

type entry struct {
	artifact Artifact
	content  []byte
}

// Assembler collects artifacts of one build. It is safe for concurrent use.
type Assembler struct {
	outDir     string
	publicPath string
	fs         types.FS
	logger     zerolog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty assembler
func New(opts Options) *Assembler {
	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}
	return &Assembler{
		outDir:     opts.OutDir,
		publicPath: opts.PublicPath,
		fs:         fs,
		logger:     logging.GetLogger("output"),
		entries:    make(map[string]*entry),
	}
}

// Register names content with template and records it. Registering the
// same path twice is fine when the content is identical; different content
// under one path is a conflict.
func (a *Assembler) Register(kind Kind, template, source string, content []byte) (Artifact, error) {
	name, ext := NameParts(source)
	path, err := Render(template, name, ext, content)
	if err != nil {
		if be, ok := errors.As(err); ok {
			return Artifact{}, be.WithDetail(errors.DetailModule, source)
		}
		return Artifact{}, err
	}
	if path == "" || path == "." || strings.HasPrefix(path, "../") {
		return Artifact{}, errors.Newf(errors.ErrConfigValid, "template %q yields invalid artifact path %q", template, path).
			WithDetail(errors.DetailModule, source)
	}

	digest := hashutil.ContentDigest(content)

	a.mu.Lock()
	defer a.mu.Unlock()

	if existing, ok := a.entries[path]; ok {
		if existing.artifact.Digest == digest {
			return existing.artifact, nil
		}
		return Artifact{}, errors.Newf(errors.ErrOutputConflict, "artifact %s registered twice with different content", path).
			WithDetail(errors.DetailPath, path).
			WithDetail(errors.DetailModule, source).
			WithDetail("previous", existing.artifact.Source)
	}

	artifact := Artifact{
		Kind:   kind,
		Path:   path,
		URL:    JoinURL(a.publicPath, path),
		Source: source,
		Size:   len(content),
		Digest: digest,
	}
	a.entries[path] = &entry{artifact: artifact, content: append([]byte(nil), content...)}

	a.logger.Debug().
		Str("kind", string(kind)).
		Str("path", path).
		Int("size", len(content)).
		Msg("Registered artifact")

	return artifact, nil
}

// Lookup returns a registered artifact and its content
func (a *Assembler) Lookup(path string) (Artifact, []byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entries[path]
	if !ok {
		return Artifact{}, nil, false
	}
	return e.artifact, e.content, true
}

// Artifacts lists every registered artifact sorted by path
func (a *Assembler) Artifacts() []Artifact {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Artifact, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.artifact)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Flush writes every artifact under the output directory
func (a *Assembler) Flush() error {
	artifacts := a.Artifacts()
	for _, artifact := range artifacts {
		_, content, _ := a.Lookup(artifact.Path)
		target := filepath.Join(a.outDir, filepath.FromSlash(artifact.Path))

		if err := a.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrOutputWrite, "cannot create directory for %s", artifact.Path).
				WithDetail(errors.DetailPath, target)
		}
		if err := a.fs.WriteFile(target, content, 0644); err != nil {
			return errors.Wrapf(err, errors.ErrOutputWrite, "cannot write %s", artifact.Path).
				WithDetail(errors.DetailPath, target)
		}
	}

	a.logger.Info().
		Str("dir", a.outDir).
		Int("artifacts", len(artifacts)).
		Msg("Artifacts written")
	return nil
}

// JoinURL prefixes an artifact path with a public path
func JoinURL(publicPath, path string) string {
	if publicPath == "" {
		return path
	}
	return strings.TrimSuffix(publicPath, "/") + "/" + strings.TrimPrefix(path, "/")
}
