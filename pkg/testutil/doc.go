// Package testutil builds throwaway project trees for tests that run real
// builds. Every project lives in t.TempDir() and is removed with the test.
package testutil
