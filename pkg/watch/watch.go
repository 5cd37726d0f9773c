// Package watch rebuilds targets when project sources change.
//
// Directory events are collected for a debounce window, and files whose
// content checksum did not change are dropped before a rebuild starts.
// Targets always rebuild in the order given, so a server build sees the
// markup page the client build just wrote.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/isobundle/pkg/bundler"
	"github.com/arthur-debert/isobundle/pkg/config"
	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/internal/hashutil"
	"github.com/arthur-debert/isobundle/pkg/logging"
	"github.com/arthur-debert/isobundle/pkg/metrics"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// DefaultDebounce is used when Options.Debounce is zero
const DefaultDebounce = 150 * time.Millisecond

// Options configures a Watcher
type Options struct {
	Root    string
	Targets []types.BuildTarget
	Mode    types.BuildMode
	Metrics *metrics.Metrics
	// Overrides holds flattened config keys per target
	Overrides map[types.BuildTarget]map[string]interface{}

	// Debounce is how long to wait for more changes before rebuilding
	Debounce time.Duration
	// Ignore lists directories that are never watched, relative to Root
	// or bare base names. Output directories are always ignored.
	Ignore []string

	// OnBuild receives every build outcome, including failures
	OnBuild func(target types.BuildTarget, result *bundler.Result, err error)
}

// Watcher runs builds whenever watched sources change
type Watcher struct {
	opts    Options
	logger  zerolog.Logger
	watcher *fsnotify.Watcher
	ignored map[string]bool

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.Mutex
	hashes map[string]string
}

// New creates a watcher for opts.Root
func New(opts Options) (*Watcher, error) {
	if len(opts.Targets) == 0 {
		opts.Targets = types.AllTargets
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid project root")
	}
	opts.Root = root

	ignored := map[string]bool{"node_modules": true}
	for _, name := range opts.Ignore {
		ignored[filepath.Clean(name)] = true
	}
	for _, target := range opts.Targets {
		cfg, err := config.Load(root, target, opts.Overrides[target])
		if err != nil {
			return nil, err
		}
		if rel, err := filepath.Rel(root, cfg.OutputDir()); err == nil && !strings.HasPrefix(rel, "..") {
			ignored[rel] = true
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot start file watcher")
	}

	return &Watcher{
		opts:    opts,
		logger:  logging.GetLogger("watch"),
		watcher: fsw,
		ignored: ignored,
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
	}, nil
}

// Run builds every target once and then again after each batch of changes.
// It returns when ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	if err := w.addRecursive(w.opts.Root); err != nil {
		return err
	}
	w.logger.Info().Str("root", w.opts.Root).Dur("debounce", w.opts.Debounce).Msg("Watching for changes")

	w.rebuild(ctx)
	w.seed()

	ticker := time.NewTicker(w.opts.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-ticker.C:
			if changed := w.flush(); len(changed) > 0 {
				w.logger.Info().Strs("changed", changed).Msg("Sources changed, rebuilding")
				w.rebuild(ctx)
			}
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context) {
	for _, target := range w.opts.Targets {
		if ctx.Err() != nil {
			return
		}
		result, err := bundler.Build(ctx, bundler.Options{
			Root:      w.opts.Root,
			Target:    target,
			Mode:      w.opts.Mode,
			Overrides: w.opts.Overrides[target],
			Metrics:   w.opts.Metrics,
		})
		if w.opts.OnBuild != nil {
			w.opts.OnBuild(target, result, err)
		}
		// the server depends on client output, stop at the first failure
		if err != nil {
			return
		}
	}
}

// skip reports whether a directory is never watched
func (w *Watcher) skip(dir string) bool {
	if dir == w.opts.Root {
		return false
	}
	base := filepath.Base(dir)
	if strings.HasPrefix(base, ".") || w.ignored[base] {
		return true
	}
	rel, err := filepath.Rel(w.opts.Root, dir)
	if err != nil {
		return true
	}
	return w.ignored[rel]
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.skip(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn().Err(err).Str("path", path).Msg("Failed to watch directory")
			return nil
		}
		w.logger.Trace().Str("path", path).Msg("Watching directory")
		return nil
	})
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skip(event.Name) {
				if err := w.addRecursive(event.Name); err != nil {
					w.logger.Warn().Err(err).Str("path", event.Name).Msg("Failed to watch new directory")
				}
			}
			return
		}
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Change detected")
}

// flush drains pending events and returns the files that really changed
func (w *Watcher) flush() []string {
	w.pendingMu.Lock()
	pending := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	var changed []string
	for path := range pending {
		if w.changed(path) {
			rel, err := filepath.Rel(w.opts.Root, path)
			if err != nil {
				rel = path
			}
			changed = append(changed, filepath.ToSlash(rel))
		}
	}
	return changed
}

// changed compares the file checksum with the last one seen.
// A removed file counts as changed once.
func (w *Watcher) changed(path string) bool {
	sum, err := hashutil.CalculateFileChecksum(path)

	w.hashMu.Lock()
	defer w.hashMu.Unlock()

	old, seen := w.hashes[path]
	if err != nil {
		delete(w.hashes, path)
		return seen || !os.IsNotExist(err)
	}
	w.hashes[path] = sum
	return !seen || old != sum
}

// seed records checksums of every watched file so that the first
// touch without an edit does not trigger a rebuild
func (w *Watcher) seed() {
	_ = filepath.WalkDir(w.opts.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if w.skip(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if sum, err := hashutil.CalculateFileChecksum(path); err == nil {
			w.hashMu.Lock()
			w.hashes[path] = sum
			w.hashMu.Unlock()
		}
		return nil
	})
}
