// Package plist provides the XML property-list primitives for the normalizer.
package plist

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the accepted <date> forms, longest first. The plist date
// grammar allows truncation after any component.
var dateLayouts = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04Z",
	"2006-01-02T15Z",
	"2006-01-02Z",
	"2006-01Z",
	"2006Z",
}

// DecodeElement converts a parsed plist element into a typed Value.
// Elements with unknown tags and leaf values that fail to parse decode to
// nil rather than erroring; the caller decides whether nil content is
// acceptable.
func DecodeElement(element *Element) Value {
	switch element.Tag {
	case "array":
		array := Array{}
		for _, child := range element.Children {
			array = append(array, DecodeElement(child))
		}
		return array
	case "dict":
		dict := Dict{}
		key := ""
		for _, child := range element.Children {
			if child.Tag == "key" {
				key = child.Text
				continue
			}
			dict[key] = DecodeElement(child)
		}
		return dict
	case "string":
		return String(element.Text)
	case "integer":
		n, err := strconv.ParseInt(strings.TrimSpace(element.Text), 10, 64)
		if err != nil {
			return nil
		}
		return Integer(n)
	case "real":
		f, err := strconv.ParseFloat(strings.TrimSpace(element.Text), 64)
		if err != nil {
			return nil
		}
		return Real(f)
	case "true":
		return Boolean(true)
	case "false":
		return Boolean(false)
	case "data":
		raw := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
				return -1
			}
			return r
		}, element.Text)
		if raw == "" {
			return Data{}
		}
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil
		}
		return Data(decoded)
	case "date":
		text := strings.TrimSpace(element.Text)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return Date(t)
			}
		}
		return nil
	}
	return nil
}

// Decode parses a property-list document and returns its value. The
// document root must be a <plist> element with at most one child; an empty
// <plist> decodes to nil.
func Decode(data []byte) (Value, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if root.Tag != "plist" {
		return nil, fmt.Errorf("not a property list: root element is <%s>", root.Tag)
	}
	if len(root.Children) == 0 {
		return nil, nil
	}
	return DecodeElement(root.Children[0]), nil
}
