// Package xmlwriter builds canonical XML documents. It owns every formatting
// decision that makes normalized output byte-reproducible: attribute
// ordering, float canonicalization, escaping, indentation and the property
// list serialization rules.
package xmlwriter

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"ufonorm/internal/plist"
)

const (
	xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`
	plistDoctype   = `<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">`

	// textMaxLineLength is the wrap column for base64 <data> content.
	textMaxLineLength = 70

	indent    = "\t"
	lineBreak = "\n"
)

// NoRounding disables float rounding; floats are written with the shortest
// decimal representation that round-trips exactly.
const NoRounding = -1

// DefaultPrecision is the default number of decimal digits for floats.
const DefaultPrecision = 10

// attributeOrder is the fixed priority of known attributes. Attributes not
// listed here sort alphabetically after all listed ones.
var attributeOrder = map[string]int{
	"name":       0,
	"base":       1,
	"format":     2,
	"fileName":   3,
	"x":          4,
	"y":          5,
	"angle":      6,
	"xScale":     7,
	"xyScale":    8,
	"yxScale":    9,
	"yScale":     10,
	"xOffset":    11,
	"yOffset":    12,
	"type":       13,
	"smooth":     14,
	"color":      15,
	"identifier": 16,
}

// unknownAttributeRank sorts unlisted attributes after every known one.
const unknownAttributeRank = 100

// Attr is one attribute of an element. Values are already formatted;
// numeric attributes go through Writer.FormatFloat first.
type Attr struct {
	Name  string
	Value string
}

// Writer accumulates an indented XML document line by line. Begin/End calls
// must balance; Bytes panics on an unclosed element.
type Writer struct {
	lines       []string
	indentLevel int
	stack       []string
	precision   int
}

// New returns a Writer for a plain XML document (GLIF). precision is the
// number of decimal digits for floats, or NoRounding.
func New(precision int) *Writer {
	return &Writer{
		lines:     []string{xmlDeclaration},
		precision: precision,
	}
}

// NewPropertyList returns a Writer for a property-list document, with the
// plist doctype in place.
func NewPropertyList(precision int) *Writer {
	w := New(precision)
	w.lines = append(w.lines, plistDoctype)
	return w
}

// Bytes returns the accumulated document.
func (w *Writer) Bytes() []byte {
	if len(w.stack) > 0 {
		panic("xmlwriter: unclosed element " + w.stack[len(w.stack)-1])
	}
	return []byte(strings.Join(w.lines, lineBreak))
}

// String returns the accumulated document as a string.
func (w *Writer) String() string {
	return string(w.Bytes())
}

// Raw appends one line at the current indentation.
func (w *Writer) Raw(line string) {
	if w.indentLevel > 0 {
		line = strings.Repeat(indent, w.indentLevel) + line
	}
	w.lines = append(w.lines, line)
}

// SimpleElement writes a self-closing element.
func (w *Writer) SimpleElement(tag string, attrs ...Attr) {
	if len(attrs) > 0 {
		w.Raw(fmt.Sprintf("<%s %s/>", tag, w.attributesToString(attrs)))
		return
	}
	w.Raw(fmt.Sprintf("<%s/>", tag))
}

// TextElement writes an element with text content on a single line. The
// value is written verbatim; callers escape it first.
func (w *Writer) TextElement(tag string, value string, attrs ...Attr) {
	if len(attrs) > 0 {
		w.Raw(fmt.Sprintf("<%s %s>%s</%s>", tag, w.attributesToString(attrs), value, tag))
		return
	}
	w.Raw(fmt.Sprintf("<%s>%s</%s>", tag, value, tag))
}

// BeginElement opens an element and increases the indentation.
func (w *Writer) BeginElement(tag string, attrs ...Attr) {
	if len(attrs) > 0 {
		w.Raw(fmt.Sprintf("<%s %s>", tag, w.attributesToString(attrs)))
	} else {
		w.Raw(fmt.Sprintf("<%s>", tag))
	}
	w.stack = append(w.stack, tag)
	w.indentLevel++
}

// EndElement closes the most recently opened element, which must be tag.
func (w *Writer) EndElement(tag string) {
	if len(w.stack) == 0 || w.stack[len(w.stack)-1] != tag {
		panic("xmlwriter: unbalanced end element " + tag)
	}
	w.stack = w.stack[:len(w.stack)-1]
	w.indentLevel--
	w.Raw(fmt.Sprintf("</%s>", tag))
}

// attributesToString formats attributes as space separated name="value"
// pairs, known attributes first in priority order, unknown attributes after
// them in alphabetical order.
func (w *Writer) attributesToString(attrs []Attr) string {
	sorted := make([]Attr, len(attrs))
	copy(sorted, attrs)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := attributeRank(sorted[i].Name), attributeRank(sorted[j].Name)
		if ri != rj {
			return ri < rj
		}
		return sorted[i].Name < sorted[j].Name
	})
	pairs := make([]string, len(sorted))
	for i, attr := range sorted {
		pairs[i] = fmt.Sprintf(`%s="%s"`, EscapeAttribute(attr.Name), EscapeAttribute(attr.Value))
	}
	return strings.Join(pairs, " ")
}

func attributeRank(name string) int {
	if rank, ok := attributeOrder[name]; ok {
		return rank
	}
	return unknownAttributeRank
}

// EscapeText escapes text content: ampersand, less-than, greater-than.
func EscapeText(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}

// EscapeAttribute escapes an attribute value: text escapes plus the double
// quote.
func EscapeAttribute(text string) string {
	text = EscapeText(text)
	text = strings.ReplaceAll(text, `"`, "&quot;")
	return text
}

// FormatFloat renders a float with the writer's precision, trailing zeros
// stripped. A value that is mathematically integral renders without a
// decimal point, and negative zero renders as "0".
func (w *Writer) FormatFloat(value float64) string {
	return FormatFloat(value, w.precision)
}

// FormatFloat renders a float with the given precision (or NoRounding),
// avoiding scientific notation.
func FormatFloat(value float64, precision int) string {
	var s string
	if precision == NoRounding {
		s = strconv.FormatFloat(value, 'g', -1, 64)
		if strings.ContainsAny(s, "eE") {
			s = strconv.FormatFloat(value, 'f', 16, 64)
		}
	} else {
		s = strconv.FormatFloat(value, 'f', precision, 64)
	}
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// PropertyList serializes a typed property-list value in canonical form:
// dict keys sorted, integral reals written as integers, data wrapped at the
// fixed column width. A nil value writes nothing.
func (w *Writer) PropertyList(v plist.Value) {
	switch t := v.(type) {
	case nil:
		return
	case plist.Array:
		w.BeginElement("array")
		for _, item := range t {
			w.PropertyList(item)
		}
		w.EndElement("array")
	case plist.Dict:
		keys := make([]string, 0, len(t))
		for key := range t {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		w.BeginElement("dict")
		for _, key := range keys {
			w.TextElement("key", EscapeText(key))
			w.PropertyList(t[key])
		}
		w.EndElement("dict")
	case plist.String:
		w.TextElement("string", EscapeText(string(t)))
	case plist.Boolean:
		if t {
			w.SimpleElement("true")
		} else {
			w.SimpleElement("false")
		}
	case plist.Integer:
		w.TextElement("integer", strconv.FormatInt(int64(t), 10))
	case plist.Real:
		formatted := w.FormatFloat(float64(t))
		if !strings.Contains(formatted, ".") {
			// Integral reals are written with the integer leaf type, matching
			// what legacy plist tooling produces.
			w.TextElement("integer", formatted)
		} else {
			w.TextElement("real", formatted)
		}
	case plist.Data:
		w.writeData(t)
	case plist.Date:
		d := time.Time(t)
		w.TextElement("date", fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ",
			d.Year(), int(d.Month()), d.Day(), d.Hour(), d.Minute(), d.Second()))
	}
}

// writeData writes a <data> element with base64 content wrapped so that no
// line exceeds the maximum text line length.
func (w *Writer) writeData(data []byte) {
	if len(data) == 0 {
		w.TextElement("data", "")
		return
	}
	// Whole base64 quads per line: the largest input chunk whose encoding
	// stays within the wrap column.
	chunkSize := textMaxLineLength / 4 * 3
	w.BeginElement("data")
	for offset := 0; offset < len(data); offset += chunkSize {
		end := offset + chunkSize
		if end > len(data) {
			end = len(data)
		}
		w.Raw(base64.StdEncoding.EncodeToString(data[offset:end]))
	}
	w.EndElement("data")
}
