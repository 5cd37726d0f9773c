package output

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/internal/hashutil"
)

var tokenPattern = regexp.MustCompile(`\[([a-z]+)(?::(\d+))?\]`)

// ValidateTemplate checks that a name template only uses known tokens
func ValidateTemplate(template string) error {
	if strings.TrimSpace(template) == "" {
		return errors.New(errors.ErrConfigValid, "name template must not be empty")
	}
	for _, m := range tokenPattern.FindAllStringSubmatch(template, -1) {
		switch m[1] {
		case "name", "ext":
			if m[2] != "" {
				return errors.Newf(errors.ErrConfigValid, "token [%s] takes no length in %q", m[1], template)
			}
		case "hash", "contenthash":
		default:
			return errors.Newf(errors.ErrConfigValid, "unknown token [%s] in %q", m[1], template)
		}
	}
	return nil
}

// Render expands a name template. [ext] is the extension without its dot,
// [hash] and [contenthash] are hex content digests, 20 characters long
// unless a length is given ([hash:8]).
func Render(template, name, ext string, content []byte) (string, error) {
	if err := ValidateTemplate(template); err != nil {
		return "", err
	}

	ext = strings.TrimPrefix(ext, ".")
	out := tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		m := tokenPattern.FindStringSubmatch(token)
		switch m[1] {
		case "name":
			return name
		case "ext":
			return ext
		default:
			n := 0
			if m[2] != "" {
				n, _ = strconv.Atoi(m[2])
			}
			return hashutil.Fragment(content, n)
		}
	})

	return cleanPath(out), nil
}

// NameParts splits a source path into the [name] and [ext] values
func NameParts(source string) (string, string) {
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext), strings.TrimPrefix(ext, ".")
}

func cleanPath(p string) string {
	p = filepath.ToSlash(filepath.Clean(filepath.FromSlash(p)))
	return strings.TrimPrefix(p, "/")
}
