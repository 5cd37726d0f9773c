package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestProject is a project root on the real filesystem
type TestProject struct {
	Root string
}

// SetupTestProject creates an empty project
func SetupTestProject(t *testing.T) *TestProject {
	t.Helper()
	return &TestProject{Root: t.TempDir()}
}

// Path returns the absolute path of a slash separated project path
func (tp *TestProject) Path(name string) string {
	return filepath.Join(tp.Root, filepath.FromSlash(name))
}

// AddFile writes a file, creating parent directories
func (tp *TestProject) AddFile(t *testing.T, name, content string) string {
	t.Helper()
	return tp.AddBytes(t, name, []byte(content))
}

// AddBytes writes binary content
func (tp *TestProject) AddBytes(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := tp.Path(name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

// AddSizedFile writes size bytes of fill, for inline limit boundaries
func (tp *TestProject) AddSizedFile(t *testing.T, name string, size int, fill byte) string {
	t.Helper()
	return tp.AddBytes(t, name, bytes.Repeat([]byte{fill}, size))
}

// AddPackage installs a CommonJS package under node_modules
func (tp *TestProject) AddPackage(t *testing.T, name, main string) {
	t.Helper()

	tp.AddFile(t, "node_modules/"+name+"/package.json", `{"name": "`+name+`", "main": "index.js"}`)
	tp.AddFile(t, "node_modules/"+name+"/index.js", main)
}

// AddConfig writes isobundle.toml
func (tp *TestProject) AddConfig(t *testing.T, content string) {
	t.Helper()
	tp.AddFile(t, "isobundle.toml", content)
}

// ReadFile returns a project file as a string
func (tp *TestProject) ReadFile(t *testing.T, name string) string {
	t.Helper()

	content, err := os.ReadFile(tp.Path(name))
	require.NoError(t, err)
	return string(content)
}

// Exists reports whether a project path exists
func (tp *TestProject) Exists(name string) bool {
	_, err := os.Stat(tp.Path(name))
	return err == nil
}
