// Package plist provides the XML property-list primitives the normalizer is
// built on: a generic parsed-element tree, a typed property-list value, and
// conversions between the two. The canonical serialization of these values
// lives in the xmlwriter package; the encoder here produces plain,
// uncanonicalized output for bookkeeping writes.
package plist

import "time"

// Value is a typed property-list value. Exactly the plist leaf and container
// kinds are implemented: String, Integer, Real, Boolean, Array, Dict, Data
// and Date.
type Value interface {
	isValue()
}

// String is a plist <string> value.
type String string

// Integer is a plist <integer> value.
type Integer int64

// Real is a plist <real> value.
type Real float64

// Boolean is a plist <true/> or <false/> value.
type Boolean bool

// Array is a plist <array> value. Element order is preserved.
type Array []Value

// Dict is a plist <dict> value. Key order is not preserved; canonical
// serialization sorts keys lexicographically.
type Dict map[string]Value

// Data is a plist <data> value holding raw bytes.
type Data []byte

// Date is a plist <date> value.
type Date time.Time

func (String) isValue()  {}
func (Integer) isValue() {}
func (Real) isValue()    {}
func (Boolean) isValue() {}
func (Array) isValue()   {}
func (Dict) isValue()    {}
func (Data) isValue()    {}
func (Date) isValue()    {}

// IsEmpty reports whether v carries no content: a nil value, an empty
// container, or an empty string/data blob. Scalar numbers, booleans and
// dates are never empty.
func IsEmpty(v Value) bool {
	switch t := v.(type) {
	case nil:
		return true
	case String:
		return t == ""
	case Array:
		return len(t) == 0
	case Dict:
		return len(t) == 0
	case Data:
		return len(t) == 0
	}
	return false
}
