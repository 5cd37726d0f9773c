package externals

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/logging"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// Policy decides whether a bare request is left to the runtime
type Policy interface {
	Externalize(request string) bool
}

// NodeModules externalizes every package installed in a node_modules
// directory, and Node core modules, except requests on the allowlist
type NodeModules struct {
	dir       string
	packages  map[string]bool
	allowlist []string
}

// LoadNodeModules lists the packages installed in dir. A missing
// directory yields a policy that only externalizes Node core modules.
func LoadNodeModules(fs types.FS, dir string, allowlist []string) (*NodeModules, error) {
	logger := logging.GetLogger("externals")

	for _, pattern := range allowlist {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Newf(errors.ErrConfigValid, "invalid allowlist pattern %q", pattern).
				WithDetail(errors.DetailPath, dir)
		}
	}

	policy := &NodeModules{dir: dir, packages: make(map[string]bool), allowlist: allowlist}

	entries, err := fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("dir", dir).Msg("No dependency directory, only core modules are external")
			return policy, nil
		}
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot list %s", dir).
			WithDetail(errors.DetailPath, dir)
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !isDirLike(entry.Type()) {
			continue
		}
		if !strings.HasPrefix(name, "@") {
			policy.packages[name] = true
			continue
		}

		scoped, err := fs.ReadDir(filepath.Join(dir, name))
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot list %s/%s", dir, name).
				WithDetail(errors.DetailPath, dir)
		}
		for _, s := range scoped {
			if !strings.HasPrefix(s.Name(), ".") && isDirLike(s.Type()) {
				policy.packages[name+"/"+s.Name()] = true
			}
		}
	}

	logger.Debug().
		Str("dir", dir).
		Int("packages", len(policy.packages)).
		Msg("Loaded dependency listing")

	return policy, nil
}

func isDirLike(mode os.FileMode) bool {
	return mode.IsDir() || mode&os.ModeSymlink != 0
}

// Externalize implements Policy
func (n *NodeModules) Externalize(request string) bool {
	if IsNodeBuiltin(request) {
		return true
	}
	name, ok := PackageName(request)
	if !ok || !n.packages[name] {
		return false
	}
	return !n.allowed(request)
}

func (n *NodeModules) allowed(request string) bool {
	for _, pattern := range n.allowlist {
		if pattern == request {
			return true
		}
		if ok, _ := doublestar.Match(pattern, request); ok {
			return true
		}
	}
	return false
}

// Packages lists the installed package names
func (n *NodeModules) Packages() []string {
	out := make([]string, 0, len(n.packages))
	for name := range n.packages {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
