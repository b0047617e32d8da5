// Package glif rewrites GLIF files into their canonical form.
package glif

import (
	"strconv"

	"ufonorm/internal/plist"
	"ufonorm/internal/xmlwriter"
)

// pointTypes are the recognized point type values. Anything else
// invalidates the point and, with it, the containing contour.
var pointTypes = map[string]bool{
	"move":     true,
	"line":     true,
	"curve":    true,
	"qcurve":   true,
	"offcurve": true,
}

// transformDefaults is the identity transform. Values equal to their
// default are omitted from output; a value that fails to parse is treated
// as its default rather than invalidating the element.
var transformOrder = []string{"xScale", "xyScale", "yxScale", "yScale", "xOffset", "yOffset"}

var transformDefaults = map[string]float64{
	"xScale":  1,
	"xyScale": 0,
	"yxScale": 0,
	"yScale":  1,
	"xOffset": 0,
	"yOffset": 0,
}

// contour is a validated contour ready for emission.
type contour struct {
	attrs  []xmlwriter.Attr
	points [][]xmlwriter.Attr
}

// outlineItem is one validated child of an outline: a contour or a
// component.
type outlineItem struct {
	contour   *contour
	component []xmlwriter.Attr
}

// normalizeOutlineFormat1 validates and re-emits a format 1 outline. A
// contour of exactly one "move" point denotes an implied anchor; implied
// anchors are emitted after all true contours and components, preserving
// their relative order among themselves. The element is omitted when
// nothing valid remains.
func normalizeOutlineFormat1(element *plist.Element, w *xmlwriter.Writer) {
	if len(element.Children) == 0 {
		return
	}
	var items []outlineItem
	var anchors [][]xmlwriter.Attr
	for _, child := range element.Children {
		switch child.Tag {
		case "contour":
			points, ok := normalizeContourPoints(child, w, false)
			if !ok || len(points) == 0 {
				continue
			}
			if len(points) == 1 && attrValue(points[0], "type") == "move" {
				anchors = append(anchors, points[0])
				continue
			}
			items = append(items, outlineItem{contour: &contour{points: points}})
		case "component":
			if component := normalizeComponent(child, w, false); component != nil {
				items = append(items, outlineItem{component: component})
			}
		}
	}
	if len(items) == 0 && len(anchors) == 0 {
		return
	}
	w.BeginElement("outline")
	emitOutlineItems(items, w)
	for _, anchor := range anchors {
		w.BeginElement("contour")
		attrs := []xmlwriter.Attr{
			{Name: "type", Value: "move"},
			{Name: "x", Value: attrValue(anchor, "x")},
			{Name: "y", Value: attrValue(anchor, "y")},
		}
		if name, ok := lookupAttr(anchor, "name"); ok {
			attrs = append(attrs, xmlwriter.Attr{Name: "name", Value: name})
		}
		w.SimpleElement("point", attrs...)
		w.EndElement("contour")
	}
	w.EndElement("outline")
}

// normalizeOutlineFormat2 validates and re-emits a format 2 outline.
// Contours and components keep strict document order; there is no anchor
// hoisting. The element is omitted when nothing valid remains.
func normalizeOutlineFormat2(element *plist.Element, w *xmlwriter.Writer) {
	var items []outlineItem
	for _, child := range element.Children {
		switch child.Tag {
		case "contour":
			points, ok := normalizeContourPoints(child, w, true)
			if !ok || len(points) == 0 {
				continue
			}
			c := &contour{points: points}
			if child.Has("identifier") {
				c.attrs = append(c.attrs, xmlwriter.Attr{Name: "identifier", Value: child.Get("identifier")})
			}
			items = append(items, outlineItem{contour: c})
		case "component":
			if component := normalizeComponent(child, w, true); component != nil {
				items = append(items, outlineItem{component: component})
			}
		}
	}
	if len(items) == 0 {
		return
	}
	w.BeginElement("outline")
	emitOutlineItems(items, w)
	w.EndElement("outline")
}

func emitOutlineItems(items []outlineItem, w *xmlwriter.Writer) {
	for _, item := range items {
		if item.contour != nil {
			w.BeginElement("contour", item.contour.attrs...)
			for _, point := range item.contour.points {
				w.SimpleElement("point", point...)
			}
			w.EndElement("contour")
			continue
		}
		w.SimpleElement("component", item.component...)
	}
}

// normalizeContourPoints validates a contour's points. Child elements that
// are not points are dropped; a single invalid point invalidates the whole
// contour (ok is false). The returned point attributes carry the values
// already formatted for emission.
func normalizeContourPoints(element *plist.Element, w *xmlwriter.Writer, withIdentifier bool) (points [][]xmlwriter.Attr, ok bool) {
	for _, child := range element.Children {
		if child.Tag != "point" {
			continue
		}
		attrs, valid := normalizePoint(child, w, withIdentifier)
		if !valid {
			return nil, false
		}
		points = append(points, attrs)
	}
	return points, true
}

// normalizePoint validates one point: x and y must be present and parse,
// the type must be recognized and is omitted when "offcurve" (the
// default), smooth survives only as exactly "yes" on an on-curve point.
func normalizePoint(element *plist.Element, w *xmlwriter.Writer, withIdentifier bool) ([]xmlwriter.Attr, bool) {
	xText := element.Get("x")
	yText := element.Get("y")
	if xText == "" || yText == "" {
		return nil, false
	}
	x, err := strconv.ParseFloat(xText, 64)
	if err != nil {
		return nil, false
	}
	y, err := strconv.ParseFloat(yText, 64)
	if err != nil {
		return nil, false
	}
	pointType := element.Get("type")
	if !element.Has("type") {
		pointType = "offcurve"
	}
	if !pointTypes[pointType] {
		return nil, false
	}
	attrs := []xmlwriter.Attr{
		{Name: "x", Value: w.FormatFloat(x)},
		{Name: "y", Value: w.FormatFloat(y)},
	}
	if pointType != "offcurve" {
		attrs = append(attrs, xmlwriter.Attr{Name: "type", Value: pointType})
		if element.Get("smooth") == "yes" {
			attrs = append(attrs, xmlwriter.Attr{Name: "smooth", Value: "yes"})
		}
	}
	if element.Has("name") {
		attrs = append(attrs, xmlwriter.Attr{Name: "name", Value: element.Get("name")})
	}
	if withIdentifier && element.Has("identifier") {
		attrs = append(attrs, xmlwriter.Attr{Name: "identifier", Value: element.Get("identifier")})
	}
	return attrs, true
}

// normalizeComponent validates a component: base must be present and
// non-empty, the transform is reduced to its non-identity values. Returns
// nil when the component is dropped.
func normalizeComponent(element *plist.Element, w *xmlwriter.Writer, withIdentifier bool) []xmlwriter.Attr {
	base := element.Get("base")
	if base == "" {
		return nil
	}
	attrs := []xmlwriter.Attr{{Name: "base", Value: base}}
	attrs = append(attrs, normalizeTransformation(element, w)...)
	if withIdentifier && element.Has("identifier") {
		attrs = append(attrs, xmlwriter.Attr{Name: "identifier", Value: element.Get("identifier")})
	}
	return attrs
}

// normalizeTransformation returns the transform attributes that differ from
// the identity transform. An unparseable value counts as its default for
// that axis alone.
func normalizeTransformation(element *plist.Element, w *xmlwriter.Writer) []xmlwriter.Attr {
	var attrs []xmlwriter.Attr
	for _, name := range transformOrder {
		def := transformDefaults[name]
		if !element.Has(name) {
			continue
		}
		value, err := strconv.ParseFloat(element.Get(name), 64)
		if err != nil {
			continue
		}
		if value != def {
			attrs = append(attrs, xmlwriter.Attr{Name: name, Value: w.FormatFloat(value)})
		}
	}
	return attrs
}

func lookupAttr(attrs []xmlwriter.Attr, name string) (string, bool) {
	for _, attr := range attrs {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

func attrValue(attrs []xmlwriter.Attr, name string) string {
	value, _ := lookupAttr(attrs, name)
	return value
}
