// Package types holds the shared vocabulary of isobundle: build targets and
// modes, module references and their type tags, and the filesystem interface
// used by every component that reads sources or writes artifacts.
package types
