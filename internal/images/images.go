// Package images tracks which external image files the glyphs of each layer
// reference, so that images no other glyph points at can be garbage
// collected after a full normalization pass. The per-layer reference table
// is stored in the layer lib under a reserved key.
package images

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ufonorm/internal/plist"
)

// LibKey is the lib entry the reference table lives under.
const LibKey = "org.unifiedfontobject.normalizer.imageReferences"

// imagesDirectory is the UFO images directory name.
const imagesDirectory = "images"

// References maps a glyph file name to the image file it references.
type References map[string]string

// Read loads the reference table from a layer lib. ok is false when no
// table is stored, in which case nothing is known about the layer's image
// use and every glyph must be checked.
func Read(lib plist.Dict) (refs References, ok bool) {
	stored, present := lib[LibKey].(plist.Dict)
	if !present {
		return nil, false
	}
	refs = References{}
	for glyphFileName, value := range stored {
		if imageFileName, isString := value.(plist.String); isString {
			refs[glyphFileName] = string(imageFileName)
		}
	}
	return refs, true
}

// Store writes the reference table into a layer lib.
func Store(lib plist.Dict, refs References) {
	stored := plist.Dict{}
	for glyphFileName, imageFileName := range refs {
		stored[glyphFileName] = plist.String(imageFileName)
	}
	lib[LibKey] = stored
}

// FileNames returns the set of image files the table references.
func (r References) FileNames() map[string]bool {
	fileNames := make(map[string]bool, len(r))
	for _, imageFileName := range r {
		fileNames[imageFileName] = true
	}
	return fileNames
}

// ListDirectory returns the PNG files present in the UFO images directory.
// A missing directory yields an empty set.
func ListDirectory(ufoPath string) (map[string]bool, error) {
	entries, err := os.ReadDir(filepath.Join(ufoPath, imagesDirectory))
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, err
	}
	onDisk := map[string]bool{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			onDisk[entry.Name()] = true
		}
	}
	return onDisk, nil
}

// Orphaned returns the on-disk images no layer references, sorted so the
// purge order is deterministic.
func Orphaned(onDisk, referenced map[string]bool) []string {
	var orphaned []string
	for fileName := range onDisk {
		if !referenced[fileName] {
			orphaned = append(orphaned, fileName)
		}
	}
	sort.Strings(orphaned)
	return orphaned
}

// Purge deletes the named images from the images directory. Files already
// gone are skipped.
func Purge(ufoPath string, toPurge []string) error {
	for _, fileName := range toPurge {
		path := filepath.Join(ufoPath, imagesDirectory, fileName)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
