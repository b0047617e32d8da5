// Package ufo walks a UFO package and normalizes every file in it.
package ufo

import "fmt"

// ErrorKind represents the type of fatal package-level error. Everything
// listed here aborts the run; per-element data problems inside individual
// files are handled by dropping the offending data instead.
type ErrorKind string

const (
	// MissingMetaInfo indicates the required metainfo.plist is absent.
	MissingMetaInfo ErrorKind = "MISSING_METAINFO"
	// MissingFormatVersion indicates metainfo.plist has no formatVersion.
	MissingFormatVersion ErrorKind = "MISSING_FORMAT_VERSION"
	// InvalidFormatVersion indicates a formatVersion that is not an integer.
	InvalidFormatVersion ErrorKind = "INVALID_FORMAT_VERSION"
	// UnsupportedFormatVersion indicates a format this tool does not handle.
	UnsupportedFormatVersion ErrorKind = "UNSUPPORTED_FORMAT_VERSION"
	// InvalidLayerContents indicates a layercontents.plist whose structure
	// is not a list of (layer name, directory) pairs.
	InvalidLayerContents ErrorKind = "INVALID_LAYER_CONTENTS"
)

// Error represents a fatal error for the whole normalization run.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *Error) Unwrap() error {
	return e.Err
}
