// Package glif rewrites GLIF files into their canonical form.
package glif

import (
	"strconv"

	"ufonorm/internal/plist"
	"ufonorm/internal/xmlwriter"
)

// Guideline holds the optional fields of a guideline before validation.
// Nil pointers mark absent fields. The same rules apply to <guideline>
// elements in GLIFs and to guideline dicts in fontinfo.plist.
type Guideline struct {
	X          *float64
	Y          *float64
	Angle      *float64
	Name       *string
	Color      *string
	Identifier *string
}

// NormalizeGuideline validates a guideline and returns the normalized form,
// or nil when the guideline must be dropped. The rules:
//
//   - at least one of x and y must be present
//   - if angle is present, both x and y must be present
//   - if both x and y are present, angle must be present
//
// When angle is absent and exactly one of x/y is zero while the other is
// nonzero, the zero value is treated as unset: a vertical guide needs only
// x and a horizontal guide needs only y. The underlying format is ambiguous
// about whether 0 means "unset" or "at position zero"; the zero-means-unset
// reading keeps more data.
//
// The color is canonicalized and dropped when invalid.
func NormalizeGuideline(g Guideline, w *xmlwriter.Writer) *Guideline {
	x, y, angle := g.X, g.Y, g.Angle
	if angle == nil {
		if x != nil && *x == 0 && y != nil {
			x = nil
		}
		if y != nil && *y == 0 && x != nil {
			y = nil
		}
	}
	if x == nil && y == nil {
		return nil
	}
	if (x == nil || y == nil) && angle != nil {
		return nil
	}
	if x != nil && y != nil && angle == nil {
		return nil
	}
	normalized := &Guideline{
		X:          x,
		Y:          y,
		Angle:      angle,
		Name:       g.Name,
		Identifier: g.Identifier,
	}
	if g.Color != nil {
		if color, ok := NormalizeColorString(*g.Color, w); ok {
			normalized.Color = &color
		}
	}
	return normalized
}

// normalizeGuidelineElement applies the guideline rules to a <guideline>
// element and emits the surviving form. Unparseable x, y or angle values
// drop the guideline entirely.
func normalizeGuidelineElement(element *plist.Element, w *xmlwriter.Writer) {
	var g Guideline
	for _, name := range []string{"x", "y", "angle"} {
		if !element.Has(name) {
			continue
		}
		value, err := strconv.ParseFloat(element.Get(name), 64)
		if err != nil {
			return
		}
		switch name {
		case "x":
			g.X = &value
		case "y":
			g.Y = &value
		case "angle":
			g.Angle = &value
		}
	}
	for _, name := range []string{"name", "color", "identifier"} {
		if !element.Has(name) {
			continue
		}
		value := element.Get(name)
		switch name {
		case "name":
			g.Name = &value
		case "color":
			g.Color = &value
		case "identifier":
			g.Identifier = &value
		}
	}
	normalized := NormalizeGuideline(g, w)
	if normalized == nil {
		return
	}
	var attrs []xmlwriter.Attr
	if normalized.X != nil {
		attrs = append(attrs, xmlwriter.Attr{Name: "x", Value: w.FormatFloat(*normalized.X)})
	}
	if normalized.Y != nil {
		attrs = append(attrs, xmlwriter.Attr{Name: "y", Value: w.FormatFloat(*normalized.Y)})
	}
	if normalized.Angle != nil {
		attrs = append(attrs, xmlwriter.Attr{Name: "angle", Value: w.FormatFloat(*normalized.Angle)})
	}
	if normalized.Name != nil {
		attrs = append(attrs, xmlwriter.Attr{Name: "name", Value: *normalized.Name})
	}
	if normalized.Color != nil {
		attrs = append(attrs, xmlwriter.Attr{Name: "color", Value: *normalized.Color})
	}
	if normalized.Identifier != nil {
		attrs = append(attrs, xmlwriter.Attr{Name: "identifier", Value: *normalized.Identifier})
	}
	w.SimpleElement("guideline", attrs...)
}
