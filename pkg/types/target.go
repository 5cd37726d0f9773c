package types

import "fmt"

// BuildTarget selects which rule set, inline threshold and externals policy
// a build uses. It is fixed for the duration of one build invocation.
type BuildTarget string

const (
	// TargetClient produces a self-contained bundle for browser runtimes
	TargetClient BuildTarget = "client"

	// TargetServer produces a bundle for the Node runtime
	TargetServer BuildTarget = "server"
)

// AllTargets lists the targets in the order they must be built. The server
// bundle consumes the client's markup artifact, so client comes first.
var AllTargets = []BuildTarget{TargetClient, TargetServer}

// ParseTarget converts a user supplied name into a BuildTarget
func ParseTarget(name string) (BuildTarget, error) {
	switch BuildTarget(name) {
	case TargetClient, TargetServer:
		return BuildTarget(name), nil
	default:
		return "", fmt.Errorf("unknown build target %q (expected %q or %q)", name, TargetClient, TargetServer)
	}
}

// IsServer reports whether the target runs on the server runtime
func (t BuildTarget) IsServer() bool {
	return t == TargetServer
}

// BuildMode toggles optimization and environment defines
type BuildMode string

const (
	// ModeProduction minifies output and defines NODE_ENV as production
	ModeProduction BuildMode = "production"

	// ModeDevelopment keeps output readable and emits inline source maps
	ModeDevelopment BuildMode = "development"
)

// IsProduction reports whether optimizations should be applied
func (m BuildMode) IsProduction() bool {
	return m == ModeProduction
}
