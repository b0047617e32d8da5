// Package ufo walks a UFO package and normalizes every file in it: glyph
// layer directories and GLIF file names follow the user name to file name
// convention, every XML file is rewritten in canonical form, and unchanged
// files are skipped via per-file modification time bookkeeping. The package
// implements the fatal/silent-drop error split: structural problems abort
// the run, invalid data inside a file is dropped during canonicalization.
package ufo

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"ufonorm/internal/glif"
	"ufonorm/internal/images"
	"ufonorm/internal/modtimes"
	"ufonorm/internal/names"
	"ufonorm/internal/output"
	"ufonorm/internal/plist"
	"ufonorm/internal/rename"
	"ufonorm/internal/xmlwriter"
)

// Version tags the mod-time cache. Bumping it invalidates every stored
// cache and forces a full re-normalization on the next run.
const Version = "1.0.0"

// layerDirPrefix is the prefix for non-default layer directory names.
const layerDirPrefix = "glyphs."

// defaultLayerName is the reserved name of the default layer. It must map
// to the literal "glyphs" directory.
const defaultLayerName = "public.default"

// Options controls a normalization run.
type Options struct {
	// OutputPath, when set, duplicates the package there and normalizes
	// the copy instead of the input.
	OutputPath string
	// OnlyModified skips files whose modification time matches the stored
	// cache.
	OnlyModified bool
	// FloatPrecision is the number of decimal digits for floats, or
	// xmlwriter.NoRounding.
	FloatPrecision int
	// WriteModTimes persists the mod-time bookkeeping for the next run.
	WriteModTimes bool
	// Log receives run output. Nil suppresses all non-error output.
	Log *output.Output
}

// DefaultOptions returns the options an argument-less invocation uses.
func DefaultOptions() Options {
	return Options{
		OnlyModified:   true,
		FloatPrecision: xmlwriter.DefaultPrecision,
		WriteModTimes:  true,
	}
}

// run carries the state of one normalization pass.
type run struct {
	ufoPath   string
	opts      Options
	log       *output.Output
	precision int
}

// Normalize normalizes the UFO package at ufoPath according to opts.
func Normalize(ufoPath string, opts Options) error {
	log := opts.Log
	if log == nil {
		log = output.New(output.Config{Quiet: true})
	}
	if opts.OutputPath != "" && opts.OutputPath != ufoPath {
		if err := CopyTree(ufoPath, opts.OutputPath); err != nil {
			return fmt.Errorf("failed to duplicate %s: %w", ufoPath, err)
		}
		ufoPath = opts.OutputPath
	}
	r := &run{ufoPath: ufoPath, opts: opts, log: log, precision: opts.FloatPrecision}
	return r.normalize()
}

func (r *run) normalize() error {
	formatVersion, err := r.readFormatVersion()
	if err != nil {
		return err
	}
	fontLib := plist.Dict{}
	if exists(r.ufoPath, libFile) {
		fontLib, err = readPlistDict(r.ufoPath, libFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", libFile, err)
		}
	}
	fontModTimes := modtimes.Cache{}
	if r.opts.OnlyModified {
		fontModTimes = modtimes.Read(fontLib, Version)
	}

	if formatVersion < 3 {
		if exists(r.ufoPath, defaultLayerDir) {
			if err := r.normalizeGlyphsDirectoryV2(fontModTimes); err != nil {
				return err
			}
		}
	} else {
		availableImages, err := images.ListDirectory(r.ufoPath)
		if err != nil {
			return fmt.Errorf("failed to list images directory: %w", err)
		}
		referencedImages := map[string]bool{}
		if err := r.normalizeLayerDirectoryNames(); err != nil {
			return err
		}
		layers, err := r.readLayerContents()
		if err != nil {
			return err
		}
		for _, layer := range layers {
			layerReferenced, err := r.normalizeGlyphsDirectory(layer.directory)
			if err != nil {
				return err
			}
			for imageFileName := range layerReferenced {
				referencedImages[imageFileName] = true
			}
		}
		orphaned := images.Orphaned(availableImages, referencedImages)
		for _, imageFileName := range orphaned {
			r.log.Verbose("Purging unreferenced image %q.", imageFileName)
		}
		if err := images.Purge(r.ufoPath, orphaned); err != nil {
			return fmt.Errorf("failed to purge images: %w", err)
		}
	}

	if err := r.normalizeTopLevelFiles(fontModTimes); err != nil {
		return err
	}
	if r.opts.WriteModTimes {
		modtimes.Store(fontLib, fontModTimes, Version)
		if err := writePlistIfChanged(fontLib, r.ufoPath, libFile); err != nil {
			return fmt.Errorf("failed to write %s: %w", libFile, err)
		}
	}
	if exists(r.ufoPath, libFile) {
		if err := r.normalizePlistFile(modtimes.Cache{}, nil, true, libFile); err != nil {
			return err
		}
	}
	return nil
}

// readFormatVersion validates metainfo.plist and returns the UFO format
// version. Every failure here is fatal.
func (r *run) readFormatVersion() (int, error) {
	if !exists(r.ufoPath, metaInfoFile) {
		return 0, &Error{Kind: MissingMetaInfo, Path: r.ufoPath}
	}
	metaInfo, err := readPlistDict(r.ufoPath, metaInfoFile)
	if err != nil {
		return 0, &Error{Kind: InvalidFormatVersion, Path: r.ufoPath, Err: err}
	}
	value, ok := metaInfo["formatVersion"]
	if !ok {
		return 0, &Error{Kind: MissingFormatVersion, Path: r.ufoPath}
	}
	formatVersion := 0
	switch t := value.(type) {
	case plist.Integer:
		formatVersion = int(t)
	case plist.Real:
		formatVersion = int(t)
	case plist.String:
		formatVersion, err = strconv.Atoi(strings.TrimSpace(string(t)))
		if err != nil {
			return 0, &Error{Kind: InvalidFormatVersion, Path: r.ufoPath, Err: err}
		}
	default:
		return 0, &Error{Kind: InvalidFormatVersion, Path: r.ufoPath}
	}
	if formatVersion > 3 {
		return 0, &Error{Kind: UnsupportedFormatVersion, Path: r.ufoPath,
			Err: fmt.Errorf("format version %d", formatVersion)}
	}
	return formatVersion, nil
}

// layerEntry is one (layer name, directory) pair from layercontents.plist,
// in declaration order.
type layerEntry struct {
	name      string
	directory string
}

// readLayerContents loads layercontents.plist as ordered pairs. A missing
// file yields no layers; a structurally invalid one is fatal.
func (r *run) readLayerContents() ([]layerEntry, error) {
	if !exists(r.ufoPath, layerContentsFile) {
		return nil, nil
	}
	value, err := readPlist(r.ufoPath, layerContentsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", layerContentsFile, err)
	}
	array, ok := value.(plist.Array)
	if !ok {
		return nil, &Error{Kind: InvalidLayerContents, Path: r.ufoPath}
	}
	layers := make([]layerEntry, 0, len(array))
	for _, item := range array {
		pair, ok := item.(plist.Array)
		if !ok || len(pair) != 2 {
			return nil, &Error{Kind: InvalidLayerContents, Path: r.ufoPath}
		}
		name, nameOK := pair[0].(plist.String)
		directory, dirOK := pair[1].(plist.String)
		if !nameOK || !dirOK {
			return nil, &Error{Kind: InvalidLayerContents, Path: r.ufoPath}
		}
		layers = append(layers, layerEntry{name: string(name), directory: string(directory)})
	}
	return layers, nil
}

// normalizeLayerDirectoryNames renames layer directories to follow the
// user name to file name convention. The layer named public.default keeps
// the literal "glyphs" directory; a non-default layer may keep "glyphs"
// only when no default layer is declared.
func (r *run) normalizeLayerDirectoryNames() error {
	layers, err := r.readLayerContents()
	if err != nil {
		return err
	}
	if len(layers) == 0 {
		return nil
	}
	if _, err := rename.Recover(r.ufoPath); err != nil {
		return fmt.Errorf("failed to recover interrupted rename: %w", err)
	}
	defaultDeclared := false
	for _, layer := range layers {
		if layer.name == defaultLayerName {
			defaultDeclared = true
		}
	}
	newDirectories := map[string]bool{}
	if defaultDeclared {
		newDirectories[defaultLayerDir] = true
	}
	renames := map[string]string{}
	normalized := make([]layerEntry, len(layers))
	for i, layer := range layers {
		var newDirectory string
		switch {
		case layer.name == defaultLayerName:
			newDirectory = defaultLayerDir
		case layer.directory == defaultLayerDir && !defaultDeclared:
			newDirectory = defaultLayerDir
		default:
			newDirectory, err = names.UserNameToFileName(layer.name, newDirectories, layerDirPrefix, "")
			if err != nil {
				return err
			}
		}
		newDirectories[strings.ToLower(newDirectory)] = true
		normalized[i] = layerEntry{name: layer.name, directory: newDirectory}
		if newDirectory != layer.directory {
			r.log.Verbose("Normalizing %q layer directory name to %q.", layer.name, newDirectory)
			renames[layer.directory] = newDirectory
		}
	}
	if err := rename.Execute(r.ufoPath, renames); err != nil {
		return fmt.Errorf("failed to rename layer directories: %w", err)
	}
	contents := make(plist.Array, len(normalized))
	for i, layer := range normalized {
		contents[i] = plist.Array{plist.String(layer.name), plist.String(layer.directory)}
	}
	if err := writePlistIfChanged(contents, r.ufoPath, layerContentsFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", layerContentsFile, err)
	}
	return nil
}

// normalizeGlyphsDirectoryV2 handles the single glyphs directory of UFO 1
// and 2 packages. Mod times for these glyphs live in the font lib, keyed by
// the slash-joined relative location.
func (r *run) normalizeGlyphsDirectoryV2(fontModTimes modtimes.Cache) error {
	glyphMapping, err := r.normalizeGlyphNames(defaultLayerDir)
	if err != nil {
		return err
	}
	fileNames := sortedValues(glyphMapping)
	for _, fileName := range fileNames {
		location := path.Join(defaultLayerDir, fileName)
		current, err := modTime(r.ufoPath, defaultLayerDir, fileName)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", location, err)
		}
		if !fontModTimes.NeedsRefresh(location, current) {
			continue
		}
		r.log.Verbose("Normalizing %q.", location)
		if _, err := r.normalizeGLIF(defaultLayerDir, fileName); err != nil {
			return err
		}
		updated, err := modTime(r.ufoPath, defaultLayerDir, fileName)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", location, err)
		}
		fontModTimes.Set(location, updated)
	}
	return nil
}

// normalizeGlyphsDirectory handles one UFO 3 layer directory: glyph file
// names, each changed GLIF, and the layer's own bookkeeping (mod times and
// image references in the layer lib).
func (r *run) normalizeGlyphsDirectory(layerDirectory string) (map[string]bool, error) {
	layerInfo := plist.Dict{}
	if exists(r.ufoPath, layerDirectory, layerInfoFile) {
		var err error
		layerInfo, err = readPlistDict(r.ufoPath, layerDirectory, layerInfoFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s/%s: %w", layerDirectory, layerInfoFile, err)
		}
	}
	layerLib, ok := layerInfo["lib"].(plist.Dict)
	if !ok {
		layerLib = plist.Dict{}
	}

	onlyModified := r.opts.OnlyModified
	imageReferences := images.References{}
	if onlyModified {
		stored, known := images.Read(layerLib)
		if known {
			imageReferences = stored
		} else {
			// Without a stored reference table nothing is known about the
			// layer's image use, so every glyph must be checked.
			onlyModified = false
		}
	}
	layerModTimes := modtimes.Cache{}
	if onlyModified {
		layerModTimes = modtimes.Read(layerLib, Version)
	}

	glyphMapping, err := r.normalizeGlyphNames(layerDirectory)
	if err != nil {
		return nil, err
	}
	fileNames := sortedValues(glyphMapping)
	r.log.StartProgress(len(fileNames))
	for i, fileName := range fileNames {
		r.log.UpdateProgress(i + 1)
		current, err := modTime(r.ufoPath, layerDirectory, fileName)
		if err != nil {
			r.log.EndProgress()
			return nil, fmt.Errorf("failed to stat %s/%s: %w", layerDirectory, fileName, err)
		}
		if !layerModTimes.NeedsRefresh(fileName, current) {
			continue
		}
		r.log.Verbose("Normalizing %q.", path.Join(layerDirectory, fileName))
		imageFileName, err := r.normalizeGLIF(layerDirectory, fileName)
		if err != nil {
			r.log.EndProgress()
			return nil, err
		}
		if imageFileName != "" {
			imageReferences[fileName] = imageFileName
		} else {
			delete(imageReferences, fileName)
		}
		updated, err := modTime(r.ufoPath, layerDirectory, fileName)
		if err != nil {
			r.log.EndProgress()
			return nil, fmt.Errorf("failed to stat %s/%s: %w", layerDirectory, fileName, err)
		}
		layerModTimes.Set(fileName, updated)
	}
	r.log.EndProgress()

	if r.opts.WriteModTimes {
		modtimes.Store(layerLib, layerModTimes, Version)
	}
	if len(imageReferences) > 0 {
		images.Store(layerLib, imageReferences)
	}
	if len(layerLib) > 0 {
		layerInfo["lib"] = layerLib
	}
	if len(layerInfo) > 0 {
		if err := writePlistIfChanged(layerInfo, r.ufoPath, layerDirectory, layerInfoFile); err != nil {
			return nil, fmt.Errorf("failed to write %s/%s: %w", layerDirectory, layerInfoFile, err)
		}
	}
	if exists(r.ufoPath, layerDirectory, layerInfoFile) {
		err := r.normalizePlistFile(modtimes.Cache{}, normalizeLayerInfoColor, true,
			layerDirectory, layerInfoFile)
		if err != nil {
			return nil, err
		}
	}
	return imageReferences.FileNames(), nil
}

// normalizeGlyphNames renames the GLIF files of a layer to follow the user
// name to file name convention and rewrites contents.plist accordingly.
// Returns the glyph name to file name mapping.
func (r *run) normalizeGlyphNames(layerDirectory string) (map[string]string, error) {
	if !exists(r.ufoPath, layerDirectory, contentsFile) {
		return map[string]string{}, nil
	}
	oldMapping, err := readPlistDict(r.ufoPath, layerDirectory, contentsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", layerDirectory, contentsFile, err)
	}
	if _, err := rename.Recover(subpath(r.ufoPath, layerDirectory)); err != nil {
		return nil, fmt.Errorf("failed to recover interrupted rename: %w", err)
	}
	glyphNames := make([]string, 0, len(oldMapping))
	for glyphName := range oldMapping {
		glyphNames = append(glyphNames, glyphName)
	}
	sort.Strings(glyphNames)
	newMapping := map[string]string{}
	newFileNames := map[string]bool{}
	renames := map[string]string{}
	for _, glyphName := range glyphNames {
		oldFileName, ok := oldMapping[glyphName].(plist.String)
		if !ok {
			return nil, fmt.Errorf("%s/%s: entry for glyph %q is not a file name",
				layerDirectory, contentsFile, glyphName)
		}
		newFileName, err := names.UserNameToFileName(glyphName, newFileNames, "", glifSuffix)
		if err != nil {
			return nil, err
		}
		newFileNames[strings.ToLower(newFileName)] = true
		newMapping[glyphName] = newFileName
		if newFileName != string(oldFileName) {
			renames[string(oldFileName)] = newFileName
		}
	}
	if err := rename.Execute(subpath(r.ufoPath, layerDirectory), renames); err != nil {
		return nil, fmt.Errorf("failed to rename glyph files: %w", err)
	}
	contents := plist.Dict{}
	for glyphName, fileName := range newMapping {
		contents[glyphName] = plist.String(fileName)
	}
	if err := writePlistIfChanged(contents, r.ufoPath, layerDirectory, contentsFile); err != nil {
		return nil, fmt.Errorf("failed to write %s/%s: %w", layerDirectory, contentsFile, err)
	}
	err = r.normalizePlistFile(modtimes.Cache{}, nil, false, layerDirectory, contentsFile)
	if err != nil {
		return nil, err
	}
	return newMapping, nil
}

// normalizeGLIF rewrites one glyph file in canonical form and returns the
// image file it references, if any.
func (r *run) normalizeGLIF(layerDirectory, fileName string) (string, error) {
	data, err := readFile(r.ufoPath, layerDirectory, fileName)
	if err != nil {
		return "", fmt.Errorf("failed to read %s/%s: %w", layerDirectory, fileName, err)
	}
	normalized, imageFileName, err := glif.Normalize(data, r.precision)
	if err != nil {
		return "", fmt.Errorf("%s/%s: %w", layerDirectory, fileName, err)
	}
	if err := writeFileIfChanged(normalized, r.ufoPath, layerDirectory, fileName); err != nil {
		return "", fmt.Errorf("failed to write %s/%s: %w", layerDirectory, fileName, err)
	}
	return imageFileName, nil
}

// sortedValues returns the values of a string map in sorted order, so file
// processing order is deterministic.
func sortedValues(mapping map[string]string) []string {
	values := make([]string, 0, len(mapping))
	for _, value := range mapping {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}
