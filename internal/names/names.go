// Package names maps user-visible glyph and layer names to filesystem-safe
// file names, following the UFO 3 user name to file name convention. The
// mapping is pure and deterministic: for a fixed input name and existing-set
// snapshot it always produces the same output, and outputs are unique under
// case-insensitive comparison.
package names

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// maxFileNameLength is the longest allowed file name, prefix and suffix
// included.
const maxFileNameLength = 255

// counterDigits is the zero-padded width of the first-tier clash counter.
const counterDigits = 15

// ErrNameExhausted is returned when every candidate name is taken. With a
// 15-digit counter space this is unreachable in practice.
var ErrNameExhausted = errors.New("no unique file name could be found")

// reservedFileNames are device names that are not usable as file name parts
// on some filesystems. Compared case-insensitively.
var reservedFileNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "clock$": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true,
	"lpt1": true, "lpt2": true, "lpt3": true,
}

// isIllegal reports whether a rune may not appear in a file name.
func isIllegal(r rune) bool {
	switch r {
	case '"', '*', '+', '/', ':', '<', '>', '?', '[', '\\', ']', '|':
		return true
	}
	return r == 0 || (r >= 0x01 && r <= 0x1F) || r == 0x7F
}

// UserNameToFileName converts a user name to a file name that is safe on
// case-insensitive filesystems. existing must hold the lowercase forms of
// all file names already taken; the caller adds the returned name (lowered)
// before mapping the next one.
//
// Illegal characters become "_", characters with a distinct lowercase form
// get a trailing "_" marker, reserved device names are prefixed with "_",
// and the result is clipped so prefix + name + suffix fits the maximum
// length. On a case-insensitive clash a zero-padded counter is appended; if
// that space is exhausted the user name is discarded for a bare counter.
func UserNameToFileName(userName string, existing map[string]bool, prefix, suffix string) (string, error) {
	prefixLength := len([]rune(prefix))
	suffixLength := len([]rune(suffix))
	// An initial period would create a hidden file when there is no prefix
	// to absorb it.
	if prefix == "" && strings.HasPrefix(userName, ".") {
		userName = "_" + userName[1:]
	}
	var filtered []rune
	for _, r := range userName {
		switch {
		case isIllegal(r):
			filtered = append(filtered, '_')
		case unicode.ToLower(r) != r:
			// Preserve case information that a case-insensitive filesystem
			// would discard.
			filtered = append(filtered, r, '_')
		default:
			filtered = append(filtered, r)
		}
	}
	sliceLength := maxFileNameLength - prefixLength - suffixLength
	if len(filtered) > sliceLength {
		filtered = filtered[:sliceLength]
	}
	parts := strings.Split(string(filtered), ".")
	for i, part := range parts {
		if reservedFileNames[strings.ToLower(part)] {
			parts[i] = "_" + part
		}
	}
	name := strings.Join(parts, ".")
	fullName := prefix + name + suffix
	if !existing[strings.ToLower(fullName)] {
		return fullName, nil
	}
	return handleClash1(name, existing, prefix, suffix)
}

// handleClash1 appends an incrementing zero-padded counter to the name,
// trimming the name first if the counter would push past the maximum
// length.
func handleClash1(userName string, existing map[string]bool, prefix, suffix string) (string, error) {
	prefixLength := len([]rune(prefix))
	suffixLength := len([]rune(suffix))
	runes := []rune(userName)
	length := prefixLength + len(runes) + suffixLength + counterDigits
	if length > maxFileNameLength {
		overflow := length - maxFileNameLength
		if overflow >= len(runes) {
			runes = nil
		} else {
			runes = runes[:len(runes)-overflow]
		}
	}
	base := string(runes)
	for counter := int64(1); counter < 999999999999999; counter++ {
		fullName := fmt.Sprintf("%s%s%015d%s", prefix, base, counter, suffix)
		if !existing[strings.ToLower(fullName)] {
			return fullName, nil
		}
	}
	return handleClash2(existing, prefix, suffix)
}

// handleClash2 discards the user name entirely and tries bare counters
// until one fits or the remaining length budget is exhausted.
func handleClash2(existing map[string]bool, prefix, suffix string) (string, error) {
	maxLength := maxFileNameLength - len([]rune(prefix)) - len([]rune(suffix))
	for counter := int64(1); ; counter++ {
		digits := fmt.Sprintf("%d", counter)
		if len(digits) > maxLength {
			break
		}
		fullName := prefix + digits + suffix
		if !existing[strings.ToLower(fullName)] {
			return fullName, nil
		}
		if counter == math.MaxInt64 {
			break
		}
	}
	return "", ErrNameExhausted
}
