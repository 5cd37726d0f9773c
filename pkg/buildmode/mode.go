// Package buildmode derives the production/development build mode from the
// single external NODE_ENV signal.
package buildmode

import "github.com/arthur-debert/isobundle/pkg/types"

const (
	// SignalName is the environment variable carrying the mode signal
	SignalName = "NODE_ENV"

	// ProductionMarker is the only signal value that selects production
	ProductionMarker = "production"
)

// Resolve maps a signal value to a build mode. Only an exact match on the
// production marker selects production; anything else, including an empty
// value, selects development.
func Resolve(signal string) types.BuildMode {
	if signal == ProductionMarker {
		return types.ModeProduction
	}
	return types.ModeDevelopment
}

// FromLookup reads the signal through lookup (typically os.LookupEnv) and
// resolves it. An absent variable is a valid input and yields development.
func FromLookup(lookup func(string) (string, bool)) types.BuildMode {
	if lookup == nil {
		return types.ModeDevelopment
	}
	signal, _ := lookup(SignalName)
	return Resolve(signal)
}
