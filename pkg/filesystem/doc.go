// Package filesystem provides filesystem implementations for isobundle.
//
// This package contains implementations of the types.FS interface: the
// standard OS filesystem used for real builds and an afero-backed
// filesystem used for in-memory tests and dry runs.
package filesystem
