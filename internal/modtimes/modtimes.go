// Package modtimes keeps per-file last-normalized timestamps so that
// incremental runs only reprocess files that changed on disk. The cache is
// stored as one text blob under a reserved key inside a lib property-list
// mapping, tagged with the tool version; a version mismatch invalidates the
// whole cache and forces full reprocessing.
package modtimes

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"ufonorm/internal/plist"
)

// LibKey is the lib entry the serialized cache lives under.
const LibKey = "org.unifiedfontobject.normalizer.modTimes"

// Cache maps a relative file name to its last-normalized modification time
// in seconds, held at the 0.1 second precision the serialization uses.
type Cache map[string]float64

// round clips a timestamp to the serialized precision. Comparing at any
// finer precision would re-refresh every file on every run.
func round(seconds float64) float64 {
	return math.Round(seconds*10) / 10
}

// Set records the modification time for a file.
func (c Cache) Set(fileName string, modTime time.Time) {
	c[fileName] = round(float64(modTime.UnixNano()) / 1e9)
}

// Delete removes a file from the cache.
func (c Cache) Delete(fileName string) {
	delete(c, fileName)
}

// NeedsRefresh reports whether a file must be reprocessed: true when no
// time is stored for it or when the stored time differs from the current
// on-disk time. The comparison is exact inequality, not "older than", so a
// file restored to an earlier state is also picked up.
func (c Cache) NeedsRefresh(fileName string, modTime time.Time) bool {
	stored, ok := c[fileName]
	if !ok {
		return true
	}
	return stored != round(float64(modTime.UnixNano())/1e9)
}

// Store serializes the cache into lib under LibKey, as a version line
// followed by one "<mtime> <fileName>" line per entry in file name order.
func Store(lib plist.Dict, c Cache, version string) {
	lines := []string{fmt.Sprintf("version: %s", version)}
	fileNames := make([]string, 0, len(c))
	for fileName := range c {
		fileNames = append(fileNames, fileName)
	}
	sort.Strings(fileNames)
	for _, fileName := range fileNames {
		lines = append(lines, fmt.Sprintf("%.1f %s", c[fileName], fileName))
	}
	lib[LibKey] = plist.String(strings.Join(lines, "\n"))
}

// Read loads the cache from lib. An absent entry, a version tag other than
// version, or a malformed version line yields an empty cache. Malformed
// entry lines are skipped, which simply re-normalizes those files.
func Read(lib plist.Dict, version string) Cache {
	cache := Cache{}
	text, ok := lib[LibKey].(plist.String)
	if !ok || text == "" {
		return cache
	}
	lines := strings.Split(string(text), "\n")
	header := lines[0]
	colon := strings.LastIndex(header, ":")
	if colon < 0 || strings.TrimSpace(header[colon+1:]) != version {
		return cache
	}
	for _, line := range lines[1:] {
		space := strings.Index(line, " ")
		if space < 0 {
			continue
		}
		modTime, err := strconv.ParseFloat(line[:space], 64)
		if err != nil {
			continue
		}
		cache[line[space+1:]] = modTime
	}
	return cache
}
