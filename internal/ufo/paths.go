// Package ufo walks a UFO package and normalizes every file in it.
package ufo

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"ufonorm/internal/plist"
)

// Standard file and directory names inside a UFO package.
const (
	metaInfoFile      = "metainfo.plist"
	fontInfoFile      = "fontinfo.plist"
	groupsFile        = "groups.plist"
	kerningFile       = "kerning.plist"
	layerContentsFile = "layercontents.plist"
	libFile           = "lib.plist"
	layerInfoFile     = "layerinfo.plist"
	contentsFile      = "contents.plist"
	defaultLayerDir   = "glyphs"
	glifSuffix        = ".glif"
)

// subpath joins path parts below the UFO root.
func subpath(ufoPath string, parts ...string) string {
	return filepath.Join(append([]string{ufoPath}, parts...)...)
}

// exists reports whether a path exists below the UFO root.
func exists(ufoPath string, parts ...string) bool {
	_, err := os.Lstat(subpath(ufoPath, parts...))
	return err == nil
}

// readFile reads the contents of a file below the UFO root.
func readFile(ufoPath string, parts ...string) ([]byte, error) {
	return os.ReadFile(subpath(ufoPath, parts...))
}

// writeFileIfChanged writes data to a file below the UFO root, but only
// when the file does not already hold exactly those bytes. Skipping
// identical writes avoids mtime churn, which matters because mtimes drive
// the incremental cache.
func writeFileIfChanged(data []byte, ufoPath string, parts ...string) error {
	path := subpath(ufoPath, parts...)
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return nil
	}
	return os.WriteFile(path, data, 0644)
}

// readPlist reads and decodes a property list below the UFO root.
func readPlist(ufoPath string, parts ...string) (plist.Value, error) {
	data, err := readFile(ufoPath, parts...)
	if err != nil {
		return nil, err
	}
	return plist.Decode(data)
}

// readPlistDict reads a property list that is expected to hold a dict.
// Any other content yields an empty dict.
func readPlistDict(ufoPath string, parts ...string) (plist.Dict, error) {
	value, err := readPlist(ufoPath, parts...)
	if err != nil {
		return nil, err
	}
	if dict, ok := value.(plist.Dict); ok {
		return dict, nil
	}
	return plist.Dict{}, nil
}

// writePlistIfChanged writes a value as a plain (uncanonicalized) property
// list below the UFO root, but only when the file does not already decode
// to an equal value.
func writePlistIfChanged(value plist.Value, ufoPath string, parts ...string) error {
	if existing, err := readPlist(ufoPath, parts...); err == nil {
		if reflect.DeepEqual(existing, value) {
			return nil
		}
	}
	return os.WriteFile(subpath(ufoPath, parts...), plist.EncodeRaw(value), 0644)
}

// removeFile removes a file below the UFO root if it exists.
func removeFile(ufoPath string, parts ...string) error {
	err := os.Remove(subpath(ufoPath, parts...))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// modTime returns the modification time of a file below the UFO root.
func modTime(ufoPath string, parts ...string) (time.Time, error) {
	info, err := os.Stat(subpath(ufoPath, parts...))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// CopyTree duplicates an entire directory tree, replacing any existing
// destination. Used when normalizing to a separate output path.
func CopyTree(srcPath, dstPath string) error {
	if err := os.RemoveAll(dstPath); err != nil {
		return err
	}
	return filepath.WalkDir(srcPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcPath, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dstPath, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode().Perm())
	})
}
