// Test Type: Integration Test
// Description: Debounced rebuilds driven by file system events

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/isobundle/pkg/bundler"
	"github.com/arthur-debert/isobundle/pkg/testutil"
	"github.com/arthur-debert/isobundle/pkg/types"
)

func TestChanged(t *testing.T) {
	p := testutil.SetupTestProject(t)
	w, err := New(Options{Root: p.Root, Targets: []types.BuildTarget{types.TargetClient}})
	require.NoError(t, err)
	defer func() { _ = w.watcher.Close() }()

	path := p.AddFile(t, "app/client/index.js", "console.log(1)")
	w.seed()

	assert.False(t, w.changed(path), "seeded file with the same content")

	p.AddFile(t, "app/client/index.js", "console.log(1)")
	assert.False(t, w.changed(path), "rewrite with identical bytes")

	p.AddFile(t, "app/client/index.js", "console.log(2)")
	assert.True(t, w.changed(path))
	assert.False(t, w.changed(path))

	require.NoError(t, os.Remove(path))
	assert.True(t, w.changed(path), "removal counts once")
	assert.False(t, w.changed(path))
}

func TestSkip(t *testing.T) {
	root := t.TempDir()
	w, err := New(Options{Root: root, Ignore: []string{"tmp/cache"}})
	require.NoError(t, err)
	defer func() { _ = w.watcher.Close() }()

	tests := []struct {
		dir  string
		skip bool
	}{
		{"", false},
		{"app", false},
		{"app/client", false},
		{"build", true},
		{"node_modules", true},
		{"app/node_modules", true},
		{".git", true},
		{"tmp/cache", true},
		{"tmp", false},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			assert.Equal(t, tt.skip, w.skip(filepath.Join(root, filepath.FromSlash(tt.dir))))
		})
	}
}

func TestRunRebuildsOnChange(t *testing.T) {
	if testing.Short() {
		t.Skip("watches a real directory")
	}

	p := testutil.SetupTestProject(t)
	entry := p.AddFile(t, "app/client/index.js", `console.log("first-version");`)

	var mu sync.Mutex
	var builds []*bundler.Result
	w, err := New(Options{
		Root:     p.Root,
		Targets:  []types.BuildTarget{types.TargetClient},
		Debounce: 20 * time.Millisecond,
		OnBuild: func(target types.BuildTarget, result *bundler.Result, err error) {
			assert.Equal(t, types.TargetClient, target)
			assert.NoError(t, err)
			mu.Lock()
			builds = append(builds, result)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(builds)
	}
	require.Eventually(t, func() bool { return count() == 1 }, 10*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(entry, []byte(`console.log("second-version");`), 0644))
	require.Eventually(t, func() bool { return count() == 2 }, 10*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.NotEqual(t, builds[0].Artifacts, builds[1].Artifacts, "new content, new names")
}
