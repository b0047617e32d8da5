// Package plist provides the XML property-list primitives for the normalizer.
package plist

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Element is one node of a parsed XML document: a tag, its attributes, its
// child elements in document order, and the character data found directly
// inside it. Unknown attributes and elements are carried as-is; the
// normalization layers decide what survives.
type Element struct {
	Tag      string
	Attr     map[string]string
	Children []*Element
	Text     string
}

// Get returns the named attribute, or "" if it is absent.
func (e *Element) Get(name string) string {
	return e.Attr[name]
}

// Has reports whether the named attribute is present, even when empty.
func (e *Element) Has(name string) bool {
	_, ok := e.Attr[name]
	return ok
}

// Parse reads an XML document into an Element tree. Comments, processing
// instructions and the doctype are discarded. CDATA sections contribute to
// the surrounding element's text.
func Parse(data []byte) (*Element, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	// Property lists and GLIFs declare UTF-8; pass other declared charsets
	// through unchanged rather than failing on the declaration.
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "utf-8") || charset == "" {
			return input, nil
		}
		return input, nil
	}

	var root *Element
	var stack []*Element
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed XML: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			element := &Element{Tag: t.Name.Local}
			if len(t.Attr) > 0 {
				element.Attr = make(map[string]string, len(t.Attr))
				for _, attr := range t.Attr {
					// Namespace declarations are not part of the formats
					// being normalized.
					if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
						continue
					}
					element.Attr[attr.Name.Local] = attr.Value
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("malformed XML: multiple root elements")
				}
				root = element
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, element)
			}
			stack = append(stack, element)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("malformed XML: no root element")
	}
	return root, nil
}
