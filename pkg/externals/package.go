package externals

import (
	"path/filepath"
	"strings"
)

// PackageName extracts the package a bare request belongs to: "react" for
// "react/jsx-runtime", "@babel/core" for "@babel/core/lib/x". Relative,
// absolute and URL requests are not packages.
func PackageName(request string) (string, bool) {
	switch {
	case request == "",
		strings.HasPrefix(request, "."),
		strings.HasPrefix(request, "/"),
		filepath.IsAbs(request),
		strings.Contains(request, "://"),
		strings.HasPrefix(request, "data:"),
		strings.HasPrefix(request, "#"):
		return "", false
	}

	parts := strings.SplitN(request, "/", 3)
	if strings.HasPrefix(request, "@") {
		if len(parts) < 2 || parts[0] == "@" || parts[1] == "" {
			return "", false
		}
		return parts[0] + "/" + parts[1], true
	}
	return parts[0], true
}
