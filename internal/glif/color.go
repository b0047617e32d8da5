// Package glif rewrites GLIF files into their canonical form.
package glif

import (
	"strconv"
	"strings"

	"ufonorm/internal/xmlwriter"
)

// NormalizeColorString canonicalizes a color attribute value: exactly four
// comma-separated channels, each a number within [0, 1], reformatted with
// the writer's float rules. Any violation drops the color (ok is false); a
// bad color is never an error.
func NormalizeColorString(value string, w *xmlwriter.Writer) (color string, ok bool) {
	if strings.Count(value, ",") != 3 {
		return "", false
	}
	parts := strings.Split(value, ",")
	channels := make([]string, 4)
	for i, part := range parts {
		channel, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return "", false
		}
		if channel < 0 || channel > 1 {
			return "", false
		}
		channels[i] = w.FormatFloat(channel)
	}
	return strings.Join(channels, ","), true
}
