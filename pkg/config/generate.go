package config

import (
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// Marshal renders the effective configuration as a project file fragment,
// nested under the target's table so it can be pasted into isobundle.toml
func Marshal(cfg *TargetConfig) ([]byte, error) {
	doc := map[string]*TargetConfig{cfg.Target: cfg}
	out, err := toml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to render configuration")
	}
	return out, nil
}

// GenerateConfigContent returns the embedded defaults of a target rewritten
// as a commented-out project file section
func GenerateConfigContent(target types.BuildTarget) string {
	return commentOutConfigValues(nestUnderTarget(string(DefaultsContent(target)), string(target)))
}

// nestUnderTarget moves a defaults document under the target's table
func nestUnderTarget(content, target string) string {
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines)+2)
	opened := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]

		switch {
		case strings.HasPrefix(trimmed, "[["):
			result = append(result, indent+"[["+target+"."+strings.TrimPrefix(trimmed, "[["))
			opened = true
		case strings.HasPrefix(trimmed, "["):
			result = append(result, indent+"["+target+"."+strings.TrimPrefix(trimmed, "["))
			opened = true
		case !opened && trimmed != "" && !strings.HasPrefix(trimmed, "#"):
			result = append(result, "["+target+"]", line)
			opened = true
		default:
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// commentOutConfigValues takes the TOML content and comments out all non-comment, non-blank lines
func commentOutConfigValues(content string) string {
	lines := strings.Split(content, "\n")
	var result []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Keep blank lines and comments as-is
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			result = append(result, line)
			continue
		}

		result = append(result, "# "+line)
	}

	return strings.Join(result, "\n")
}
