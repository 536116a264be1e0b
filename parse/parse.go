// Package parse extracts structured fields from raw AT responses.
//
// Every parser is a pure, total function over the response text: it never
// panics, and a marker that is missing or truncated yields Unknown instead of
// an error.
package parse

import "strings"

// Unknown is the value of a field whose marker was not found.
const Unknown = "UNKNOWN"

// Field is one labelled value extracted from a response.
type Field struct {
	Label string
	Value string
}

// Value extracts the text between "KEY(" and the next ")" on the same line
// and trims it. Occurrences without a closing parenthesis on their line are
// skipped.
func Value(text, key string) string {
	if key == "" {
		return Unknown
	}
	open := key + "("
	rest := text
	for {
		i := strings.Index(rest, open)
		if i < 0 {
			return Unknown
		}
		rest = rest[i+len(open):]

		line := rest
		if j := strings.IndexByte(line, '\n'); j >= 0 {
			line = line[:j]
		}
		if v, _, ok := strings.Cut(line, ")"); ok {
			return strings.TrimSpace(v)
		}
	}
}

// FirstSegment is Value restricted to the part before the first '/'.
func FirstSegment(text, key string) string {
	v := Value(text, key)
	if v == Unknown {
		return Unknown
	}
	first, _, _ := strings.Cut(v, "/")
	return strings.TrimSpace(first)
}

// Nth returns the n-th (0-based) comma separated field following marker. The
// fields end at the end of the marker's line. The marker anchors the layout,
// so it should include everything up to the first wanted field.
func Nth(text, marker string, n int) string {
	if marker == "" || n < 0 {
		return Unknown
	}
	_, rest, ok := strings.Cut(text, marker)
	if !ok {
		return Unknown
	}
	if i := strings.IndexAny(rest, "\r\n"); i >= 0 {
		rest = rest[:i]
	}
	fields := strings.Split(rest, ",")
	if n >= len(fields) {
		return Unknown
	}
	v := strings.TrimSpace(fields[n])
	if v == "" {
		return Unknown
	}
	return v
}

// Digits is Nth restricted to the field's leading decimal digits.
func Digits(text, marker string, n int) string {
	v := Nth(text, marker, n)
	if v == Unknown {
		return Unknown
	}
	end := 0
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	if end == 0 {
		return Unknown
	}
	return v[:end]
}
