package bundler

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/arthur-debert/isobundle/pkg/errors"
)

// translate maps an esbuild message to a coded error
func translate(msg api.Message, root string) *errors.BundleError {
	var err *errors.BundleError
	file := ""
	if msg.Location != nil && msg.Location.File != "" {
		file = msg.Location.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(root, filepath.FromSlash(file))
		}
	}

	switch {
	case strings.HasPrefix(msg.Text, "Could not resolve"):
		err = errors.New(errors.ErrResolve, msg.Text)
		if request := quoted(msg.Text); request != "" {
			err = err.WithDetail(errors.DetailModule, request)
		}
		if file != "" {
			err = err.WithDetail(errors.DetailImporter, file)
		}
	case strings.HasPrefix(msg.Text, "No loader is configured"):
		err = errors.New(errors.ErrConfigValid, msg.Text+" (no rule matches this module)")
		if request := quoted(msg.Text); request != "" {
			err = err.WithDetail(errors.DetailModule, request)
		}
		if file != "" {
			err = err.WithDetail(errors.DetailImporter, file)
		}
	default:
		err = errors.New(errors.ErrTransform, msg.Text).
			WithDetail(errors.DetailStep, "bundle")
		if file != "" {
			err = err.WithDetail(errors.DetailModule, file)
		}
	}

	if msg.Location != nil {
		err = err.
			WithDetail(errors.DetailLine, msg.Location.Line).
			WithDetail(errors.DetailColumn, msg.Location.Column)
	}
	return err
}

// quoted returns the first double quoted string in text
func quoted(text string) string {
	start := strings.IndexByte(text, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(text[start+1:], '"')
	if end < 0 {
		return ""
	}
	return text[start+1 : start+1+end]
}

// describe renders a warning for logs and results
func describe(msg api.Message) string {
	if msg.Location == nil {
		return msg.Text
	}
	return fmt.Sprintf("%s:%d: %s", msg.Location.File, msg.Location.Line, msg.Text)
}
