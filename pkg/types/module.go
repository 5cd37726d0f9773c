package types

import (
	"path/filepath"
	"strings"
)

// TypeTag is the declared kind of a module, derived from its extension
type TypeTag string

const (
	TypeSource   TypeTag = "source"
	TypeStyle    TypeTag = "style"
	TypeImage    TypeTag = "image"
	TypeTemplate TypeTag = "template"
	TypeData     TypeTag = "data"
	TypeOther    TypeTag = "other"
)

// KnownTypeTags lists every tag a predicate may name
var KnownTypeTags = []TypeTag{TypeSource, TypeStyle, TypeImage, TypeTemplate, TypeData, TypeOther}

var extensionTypes = map[string]TypeTag{
	".js":   TypeSource,
	".jsx":  TypeSource,
	".mjs":  TypeSource,
	".cjs":  TypeSource,
	".ts":   TypeSource,
	".tsx":  TypeSource,
	".css":  TypeStyle,
	".bmp":  TypeImage,
	".gif":  TypeImage,
	".jpg":  TypeImage,
	".jpeg": TypeImage,
	".png":  TypeImage,
	".svg":  TypeImage,
	".webp": TypeImage,
	".ico":  TypeImage,
	".avif": TypeImage,
	".html": TypeTemplate,
	".htm":  TypeTemplate,
	".json": TypeData,
}

// TypeTagFor derives the type tag of a path from its extension
func TypeTagFor(path string) TypeTag {
	if tag, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return tag
	}
	return TypeOther
}

// TypeTagForExtension returns the tag an extension maps to. The extension
// may be given with or without its leading dot.
func TypeTagForExtension(ext string) TypeTag {
	return TypeTagFor("x" + NormalizeExtension(ext))
}

// IsKnownTypeTag reports whether tag belongs to the closed set of type tags
func IsKnownTypeTag(tag TypeTag) bool {
	for _, known := range KnownTypeTags {
		if known == tag {
			return true
		}
	}
	return false
}

// NormalizeExtension lowercases ext and makes sure it starts with a dot
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ModuleRef identifies a module met during resolution
type ModuleRef struct {
	// ID is the absolute path for filesystem modules or the package request
	// for bare imports
	ID string

	// Path is the absolute filesystem location, empty for package requests
	Path string

	// Ext is the lowercased extension including the leading dot
	Ext string

	// Type is the tag derived from Ext
	Type TypeTag
}

// NewModuleRef builds a reference for a filesystem module
func NewModuleRef(path string) ModuleRef {
	ext := strings.ToLower(filepath.Ext(path))
	return ModuleRef{
		ID:   path,
		Path: path,
		Ext:  ext,
		Type: TypeTagFor(path),
	}
}

// NewPackageRef builds a reference for a bare package request
func NewPackageRef(request string) ModuleRef {
	ext := strings.ToLower(filepath.Ext(request))
	return ModuleRef{
		ID:   request,
		Ext:  ext,
		Type: TypeTagFor(request),
	}
}

// Base returns the file name of the module without its extension
func (m ModuleRef) Base() string {
	name := filepath.Base(m.ID)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// String implements fmt.Stringer
func (m ModuleRef) String() string {
	return m.ID
}
