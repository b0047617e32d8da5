// Package plist provides the XML property-list primitives for the normalizer.
package plist

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	xmlHeader    = `<?xml version="1.0" encoding="UTF-8"?>`
	plistDoctype = `<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">`
)

// EncodeRaw serializes a value as a plain property-list document.
//
// THIS DOES NOT PRODUCE NORMALIZED OUTPUT. It exists for bookkeeping writes
// (contents.plist, layercontents.plist, lib updates) that are canonicalized
// by a separate normalization pass. Output is still deterministic: dict keys
// are written in sorted order.
func EncodeRaw(v Value) []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteByte('\n')
	b.WriteString(plistDoctype)
	b.WriteByte('\n')
	b.WriteString(`<plist version="1.0">`)
	b.WriteByte('\n')
	encodeValue(&b, v, 0)
	b.WriteString("</plist>\n")
	return []byte(b.String())
}

func encodeValue(b *strings.Builder, v Value, depth int) {
	indent := strings.Repeat("\t", depth)
	switch t := v.(type) {
	case String:
		fmt.Fprintf(b, "%s<string>%s</string>\n", indent, escapeText(string(t)))
	case Integer:
		fmt.Fprintf(b, "%s<integer>%d</integer>\n", indent, int64(t))
	case Real:
		fmt.Fprintf(b, "%s<real>%s</real>\n", indent, strconv.FormatFloat(float64(t), 'g', -1, 64))
	case Boolean:
		if t {
			fmt.Fprintf(b, "%s<true/>\n", indent)
		} else {
			fmt.Fprintf(b, "%s<false/>\n", indent)
		}
	case Array:
		if len(t) == 0 {
			fmt.Fprintf(b, "%s<array/>\n", indent)
			return
		}
		fmt.Fprintf(b, "%s<array>\n", indent)
		for _, item := range t {
			encodeValue(b, item, depth+1)
		}
		fmt.Fprintf(b, "%s</array>\n", indent)
	case Dict:
		if len(t) == 0 {
			fmt.Fprintf(b, "%s<dict/>\n", indent)
			return
		}
		keys := make([]string, 0, len(t))
		for key := range t {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		fmt.Fprintf(b, "%s<dict>\n", indent)
		for _, key := range keys {
			fmt.Fprintf(b, "%s\t<key>%s</key>\n", indent, escapeText(key))
			encodeValue(b, t[key], depth+1)
		}
		fmt.Fprintf(b, "%s</dict>\n", indent)
	case Data:
		fmt.Fprintf(b, "%s<data>%s</data>\n", indent, base64.StdEncoding.EncodeToString(t))
	case Date:
		fmt.Fprintf(b, "%s<date>%s</date>\n", indent, time.Time(t).Format("2006-01-02T15:04:05Z"))
	}
}

func escapeText(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}
