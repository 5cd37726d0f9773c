package chain

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/evanw/esbuild/pkg/api"
	"golang.org/x/mod/semver"
)

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ios":     api.EngineIOS,
	"node":    api.EngineNode,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// minimumEngines is the oldest version of each engine that natively runs
// the ES2015 syntax esbuild cannot lower: destructuring, const and let,
// arrows, classes, generators and for-of
var minimumEngines = map[api.EngineName]string{
	api.EngineChrome:  "51",
	api.EngineEdge:    "18",
	api.EngineFirefox: "53",
	api.EngineIOS:     "11",
	api.EngineNode:    "6.5",
	api.EngineOpera:   "38",
	api.EngineSafari:  "11",
}

// ParseEngines turns a node version and browser list ("chrome58") into
// esbuild engines. Both empty means no lowering beyond esnext.
func ParseEngines(node string, browsers []string) ([]api.Engine, error) {
	var engines []api.Engine
	if node = strings.TrimSpace(node); node != "" {
		engine := api.Engine{Name: api.EngineNode, Version: strings.TrimPrefix(node, "v")}
		if err := checkMinimum("node", engine); err != nil {
			return nil, err
		}
		engines = append(engines, engine)
	}
	for _, b := range browsers {
		engine, err := parseBrowser(b)
		if err != nil {
			return nil, err
		}
		engines = append(engines, engine)
	}
	return engines, nil
}

func parseBrowser(spec string) (api.Engine, error) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	i := strings.IndexFunc(spec, unicode.IsDigit)
	if i <= 0 {
		return api.Engine{}, fmt.Errorf("browser %q must be a name followed by a version, like chrome58", spec)
	}
	name, ok := engineNames[spec[:i]]
	if !ok {
		return api.Engine{}, fmt.Errorf("unknown browser %q", spec[:i])
	}
	engine := api.Engine{Name: name, Version: spec[i:]}
	if err := checkMinimum(spec[:i], engine); err != nil {
		return api.Engine{}, err
	}
	return engine, nil
}

// checkMinimum rejects versions esbuild cannot produce code for
func checkMinimum(label string, engine api.Engine) error {
	version := "v" + engine.Version
	if !semver.IsValid(version) {
		return fmt.Errorf("%s version %q must be numeric, like 58 or 6.5", label, engine.Version)
	}
	minimum, ok := minimumEngines[engine.Name]
	if !ok {
		return nil
	}
	if semver.Compare(version, "v"+minimum) < 0 {
		return fmt.Errorf("%s%s is below %s%s, the oldest version output can be lowered to", label, engine.Version, label, minimum)
	}
	return nil
}
