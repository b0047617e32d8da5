// Package ufo walks a UFO package and normalizes every file in it.
package ufo

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"ufonorm/internal/glif"
	"ufonorm/internal/modtimes"
	"ufonorm/internal/plist"
	"ufonorm/internal/xmlwriter"
)

// preprocessor adjusts a decoded plist dict before canonical serialization.
// File-specific rules (fontinfo guidelines, layerinfo color) live here so
// the writer itself stays generic.
type preprocessor func(dict plist.Dict, w *xmlwriter.Writer)

// normalizeTopLevelFiles canonicalizes the plist files at the UFO root.
// metainfo.plist and layercontents.plist are kept even when empty; the
// optional files are removed when their content decodes to nothing.
func (r *run) normalizeTopLevelFiles(fontModTimes modtimes.Cache) error {
	if err := r.normalizePlistFile(fontModTimes, nil, false, metaInfoFile); err != nil {
		return err
	}
	if exists(r.ufoPath, fontInfoFile) {
		if err := r.normalizePlistFile(fontModTimes, normalizeFontInfoGuidelines, true, fontInfoFile); err != nil {
			return err
		}
	}
	if exists(r.ufoPath, groupsFile) {
		if err := r.normalizePlistFile(fontModTimes, nil, true, groupsFile); err != nil {
			return err
		}
	}
	if exists(r.ufoPath, kerningFile) {
		if err := r.normalizePlistFile(fontModTimes, nil, true, kerningFile); err != nil {
			return err
		}
	}
	if exists(r.ufoPath, layerContentsFile) {
		if err := r.normalizePlistFile(fontModTimes, nil, false, layerContentsFile); err != nil {
			return err
		}
	}
	return nil
}

// normalizePlistFile canonicalizes one property-list file, gated by the
// mod-time cache. Empty content removes the file when removeEmpty is set;
// otherwise the file is left untouched.
func (r *run) normalizePlistFile(cache modtimes.Cache, pre preprocessor, removeEmpty bool, parts ...string) error {
	location := path.Join(parts...)
	fileKey := parts[len(parts)-1]
	current, err := modTime(r.ufoPath, parts...)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", location, err)
	}
	if !cache.NeedsRefresh(fileKey, current) {
		return nil
	}
	value, err := readPlist(r.ufoPath, parts...)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", location, err)
	}
	if plist.IsEmpty(value) {
		if removeEmpty {
			r.log.Verbose("Removing empty %q.", location)
			if err := removeFile(r.ufoPath, parts...); err != nil {
				return fmt.Errorf("failed to remove %s: %w", location, err)
			}
			cache.Delete(fileKey)
		}
		return nil
	}
	r.log.Verbose("Normalizing %q.", location)
	text := normalizePropertyList(value, r.precision, pre)
	if err := writeFileIfChanged(text, r.ufoPath, parts...); err != nil {
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	updated, err := modTime(r.ufoPath, parts...)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", location, err)
	}
	cache.Set(fileKey, updated)
	return nil
}

// normalizePropertyList serializes a property-list value in canonical form.
func normalizePropertyList(value plist.Value, precision int, pre preprocessor) []byte {
	w := xmlwriter.NewPropertyList(precision)
	if pre != nil {
		if dict, ok := value.(plist.Dict); ok {
			pre(dict, w)
		}
	}
	w.BeginElement("plist", xmlwriter.Attr{Name: "version", Value: "1.0"})
	w.PropertyList(value)
	w.EndElement("plist")
	w.Raw("")
	return w.Bytes()
}

// normalizeFontInfoGuidelines applies the guideline validation rules to the
// guidelines array of fontinfo.plist. Entries that fail validation are
// dropped; surviving entries keep only the recognized guideline fields.
func normalizeFontInfoGuidelines(dict plist.Dict, w *xmlwriter.Writer) {
	stored, ok := dict["guidelines"].(plist.Array)
	if !ok || len(stored) == 0 {
		return
	}
	normalized := plist.Array{}
	for _, item := range stored {
		entry, ok := item.(plist.Dict)
		if !ok {
			continue
		}
		g, valid := guidelineFromDict(entry)
		if !valid {
			continue
		}
		result := glif.NormalizeGuideline(g, w)
		if result == nil {
			continue
		}
		out := plist.Dict{}
		if result.X != nil {
			out["x"] = plist.Real(*result.X)
		}
		if result.Y != nil {
			out["y"] = plist.Real(*result.Y)
		}
		if result.Angle != nil {
			out["angle"] = plist.Real(*result.Angle)
		}
		if result.Name != nil {
			out["name"] = plist.String(*result.Name)
		}
		if result.Color != nil {
			out["color"] = plist.String(*result.Color)
		}
		if result.Identifier != nil {
			out["identifier"] = plist.String(*result.Identifier)
		}
		normalized = append(normalized, out)
	}
	dict["guidelines"] = normalized
}

// guidelineFromDict extracts guideline fields from their dict form. A
// coordinate that is neither a number nor a numeric string invalidates the
// whole guideline.
func guidelineFromDict(entry plist.Dict) (glif.Guideline, bool) {
	var g glif.Guideline
	for _, key := range []string{"x", "y", "angle"} {
		value, present := entry[key]
		if !present {
			continue
		}
		number, ok := numberValue(value)
		if !ok {
			return g, false
		}
		switch key {
		case "x":
			g.X = &number
		case "y":
			g.Y = &number
		case "angle":
			g.Angle = &number
		}
	}
	for _, key := range []string{"name", "color", "identifier"} {
		value, present := entry[key]
		if !present {
			continue
		}
		text, ok := value.(plist.String)
		if !ok {
			continue
		}
		s := string(text)
		switch key {
		case "name":
			g.Name = &s
		case "color":
			g.Color = &s
		case "identifier":
			g.Identifier = &s
		}
	}
	return g, true
}

// numberValue converts a plist value to a float: integers and reals
// directly, strings when they parse.
func numberValue(value plist.Value) (float64, bool) {
	switch t := value.(type) {
	case plist.Integer:
		return float64(t), true
	case plist.Real:
		return float64(t), true
	case plist.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// normalizeLayerInfoColor canonicalizes the color entry of
// layerinfo.plist, removing it when invalid.
func normalizeLayerInfoColor(dict plist.Dict, w *xmlwriter.Writer) {
	value, present := dict["color"]
	if !present {
		return
	}
	delete(dict, "color")
	text, ok := value.(plist.String)
	if !ok {
		return
	}
	if color, valid := glif.NormalizeColorString(string(text), w); valid {
		dict["color"] = plist.String(color)
	}
}
