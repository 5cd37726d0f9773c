package externals

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/isobundle/pkg/logging"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// Decision is the outcome of filtering one import
type Decision int

const (
	// Internal imports are resolved and bundled
	Internal Decision = iota
	// External imports are left for the runtime to load
	External
)

// String implements fmt.Stringer
func (d Decision) String() string {
	if d == External {
		return "external"
	}
	return "internal"
}

// Filter applies the externals policy of one target and remembers which
// requests it externalized. It is safe for concurrent use.
type Filter struct {
	target types.BuildTarget
	policy Policy
	logger zerolog.Logger

	mu        sync.Mutex
	externals map[string]bool
}

// NewFilter creates a filter. A nil policy externalizes nothing.
func NewFilter(target types.BuildTarget, policy Policy) *Filter {
	return &Filter{
		target:    target,
		policy:    policy,
		logger:    logging.GetLogger("externals"),
		externals: make(map[string]bool),
	}
}

// Decide classifies an import request. The client target always bundles.
func (f *Filter) Decide(request string) Decision {
	if !f.target.IsServer() || f.policy == nil {
		return Internal
	}
	if !f.policy.Externalize(request) {
		return Internal
	}

	f.mu.Lock()
	if !f.externals[request] {
		f.externals[request] = true
		f.logger.Debug().Str("request", request).Msg("Externalized import")
	}
	f.mu.Unlock()

	return External
}

// Externals lists the externalized requests, sorted
func (f *Filter) Externals() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.externals))
	for r := range f.externals {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
