// Package glif rewrites glyph interchange format (GLIF) files into their
// canonical form. Each element is validated against the rules of the file's
// format version (1 or 2); invalid elements and attributes are silently
// dropped rather than reported, so that a clean canonical file is produced
// even from slightly malformed historical data. Only a missing or
// unreadable format version is fatal.
package glif

import (
	"fmt"
	"strconv"

	"ufonorm/internal/plist"
	"ufonorm/internal/xmlwriter"
)

// ErrorKind classifies fatal GLIF errors.
type ErrorKind string

const (
	// MissingFormatVersion means the root element has no format attribute.
	MissingFormatVersion ErrorKind = "MISSING_FORMAT_VERSION"
	// UnsupportedData means the file cannot be interpreted at all, for
	// example an unparseable format version or malformed XML.
	UnsupportedData ErrorKind = "UNSUPPORTED_DATA"
)

// Error is a fatal GLIF normalization error.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Normalize parses a GLIF document and returns its canonical serialization,
// along with the image file the glyph references ("" when it references
// none). floats are formatted with the given precision
// (xmlwriter.NoRounding disables rounding).
func Normalize(data []byte, precision int) (normalized []byte, imageFileName string, err error) {
	tree, err := plist.Parse(data)
	if err != nil {
		return nil, "", &Error{Kind: UnsupportedData, Err: err}
	}
	return NormalizeTree(tree, precision)
}

// NormalizeTree normalizes an already parsed GLIF element tree.
func NormalizeTree(tree *plist.Element, precision int) (normalized []byte, imageFileName string, err error) {
	if !tree.Has("format") {
		return nil, "", &Error{Kind: MissingFormatVersion}
	}
	formatVersion, parseErr := strconv.Atoi(tree.Get("format"))
	if parseErr != nil {
		return nil, "", &Error{Kind: UnsupportedData,
			Err: fmt.Errorf("format version %q is not an integer", tree.Get("format"))}
	}

	var advance, image, outline, lib, note *plist.Element
	var unicodes, guidelines, anchors []*plist.Element
	for _, element := range tree.Children {
		switch element.Tag {
		case "advance":
			advance = element
		case "unicode":
			unicodes = append(unicodes, element)
		case "note":
			note = element
		case "image":
			image = element
		case "guideline":
			guidelines = append(guidelines, element)
		case "anchor":
			anchors = append(anchors, element)
		case "outline":
			outline = element
		case "lib":
			lib = element
		}
	}

	w := xmlwriter.New(precision)
	w.BeginElement("glyph",
		xmlwriter.Attr{Name: "name", Value: tree.Get("name")},
		xmlwriter.Attr{Name: "format", Value: strconv.Itoa(formatVersion)})
	for _, unicode := range unicodes {
		normalizeUnicode(unicode, w)
	}
	if advance != nil {
		normalizeAdvance(advance, w)
	}
	if formatVersion >= 2 && image != nil {
		imageFileName = normalizeImage(image, w)
	}
	if outline != nil {
		if formatVersion == 1 {
			normalizeOutlineFormat1(outline, w)
		} else {
			normalizeOutlineFormat2(outline, w)
		}
	}
	if formatVersion >= 2 {
		for _, anchor := range anchors {
			normalizeAnchor(anchor, w)
		}
		for _, guideline := range guidelines {
			normalizeGuidelineElement(guideline, w)
		}
	}
	if lib != nil {
		normalizeLib(lib, w)
	}
	if note != nil {
		normalizeNote(note, w)
	}
	w.EndElement("glyph")
	w.Raw("")
	return w.Bytes(), imageFileName, nil
}

// normalizeUnicode drops the element unless the hex attribute parses as a
// hexadecimal integer, and writes the value zero padded, uppercase, at
// least four digits wide.
func normalizeUnicode(element *plist.Element, w *xmlwriter.Writer) {
	v := element.Get("hex")
	if v == "" {
		return
	}
	codePoint, err := strconv.ParseUint(v, 16, 64)
	if err != nil {
		return
	}
	w.SimpleElement("unicode", xmlwriter.Attr{Name: "hex", Value: fmt.Sprintf("%04X", codePoint)})
}

// normalizeAdvance drops default (zero) values and drops the whole element
// when nothing remains or either value fails to parse.
func normalizeAdvance(element *plist.Element, w *xmlwriter.Writer) {
	widthText := element.Get("width")
	if !element.Has("width") {
		widthText = "0"
	}
	heightText := element.Get("height")
	if !element.Has("height") {
		heightText = "0"
	}
	width, err := strconv.ParseFloat(widthText, 64)
	if err != nil {
		return
	}
	height, err := strconv.ParseFloat(heightText, 64)
	if err != nil {
		return
	}
	var attrs []xmlwriter.Attr
	if width != 0 {
		attrs = append(attrs, xmlwriter.Attr{Name: "width", Value: w.FormatFloat(width)})
	}
	if height != 0 {
		attrs = append(attrs, xmlwriter.Attr{Name: "height", Value: w.FormatFloat(height)})
	}
	if len(attrs) == 0 {
		return
	}
	w.SimpleElement("advance", attrs...)
}

// normalizeImage drops the element when fileName is empty, writes only the
// non-identity transform values, and canonicalizes the color. Returns the
// referenced image file name, or "" when the element was dropped.
func normalizeImage(element *plist.Element, w *xmlwriter.Writer) string {
	fileName := element.Get("fileName")
	if fileName == "" {
		return ""
	}
	attrs := []xmlwriter.Attr{{Name: "fileName", Value: fileName}}
	attrs = append(attrs, normalizeTransformation(element, w)...)
	if element.Has("color") {
		if color, ok := NormalizeColorString(element.Get("color"), w); ok {
			attrs = append(attrs, xmlwriter.Attr{Name: "color", Value: color})
		}
	}
	w.SimpleElement("image", attrs...)
	return fileName
}

// normalizeAnchor drops the element unless both x and y are present and
// parse; name, color and identifier pass through, color canonicalized.
func normalizeAnchor(element *plist.Element, w *xmlwriter.Writer) {
	xText := element.Get("x")
	yText := element.Get("y")
	if xText == "" || yText == "" {
		return
	}
	x, err := strconv.ParseFloat(xText, 64)
	if err != nil {
		return
	}
	y, err := strconv.ParseFloat(yText, 64)
	if err != nil {
		return
	}
	attrs := []xmlwriter.Attr{
		{Name: "x", Value: w.FormatFloat(x)},
		{Name: "y", Value: w.FormatFloat(y)},
	}
	if element.Has("name") {
		attrs = append(attrs, xmlwriter.Attr{Name: "name", Value: element.Get("name")})
	}
	if element.Has("color") {
		if color, ok := NormalizeColorString(element.Get("color"), w); ok {
			attrs = append(attrs, xmlwriter.Attr{Name: "color", Value: color})
		}
	}
	if element.Has("identifier") {
		attrs = append(attrs, xmlwriter.Attr{Name: "identifier", Value: element.Get("identifier")})
	}
	w.SimpleElement("anchor", attrs...)
}

// normalizeLib decodes the lib's plist content, drops it when empty,
// canonicalizes a public.markColor entry when present, and re-emits the
// value canonically.
func normalizeLib(element *plist.Element, w *xmlwriter.Writer) {
	if len(element.Children) == 0 {
		return
	}
	value := plist.DecodeElement(element.Children[0])
	if plist.IsEmpty(value) {
		return
	}
	if dict, ok := value.(plist.Dict); ok {
		NormalizeMarkColor(dict, w)
	}
	w.BeginElement("lib")
	w.PropertyList(value)
	w.EndElement("lib")
}

// NormalizeMarkColor rewrites the public.markColor entry of a lib dict:
// the color string is canonicalized in place, or removed when invalid.
func NormalizeMarkColor(dict plist.Dict, w *xmlwriter.Writer) {
	raw, ok := dict["public.markColor"].(plist.String)
	if !ok {
		return
	}
	delete(dict, "public.markColor")
	if color, valid := NormalizeColorString(string(raw), w); valid {
		dict["public.markColor"] = plist.String(color)
	}
}

// normalizeNote emits the note text verbatim, dropping the element when the
// trimmed content is empty.
func normalizeNote(element *plist.Element, w *xmlwriter.Writer) {
	value := element.Text
	if value == "" || !containsNonSpace(value) {
		return
	}
	w.TextElement("note", xmlwriter.EscapeText(value))
}

func containsNonSpace(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
		default:
			return true
		}
	}
	return false
}
