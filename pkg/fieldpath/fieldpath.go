// Package fieldpath reads logical fields out of JSON payloads whose shape
// varies between provider versions. Each field is an ordered list of gjson
// paths; the first path that yields a usable value wins.
package fieldpath

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Accessor extracts a candidate value from a document. ok is false when the
// candidate is missing or unusable.
type Accessor func(doc gjson.Result) (gjson.Result, bool)

// Path returns an Accessor for a gjson path. Only non-empty strings and
// numbers count as present.
func Path(path string) Accessor {
	return func(doc gjson.Result) (gjson.Result, bool) {
		r := doc.Get(path)
		switch r.Type {
		case gjson.String:
			return r, strings.TrimSpace(r.Str) != ""
		case gjson.Number:
			return r, true
		default:
			return r, false
		}
	}
}

// KeyContaining returns an Accessor matching the first top-level key whose
// name contains substr (case-insensitive) and holds a non-empty string.
func KeyContaining(substr string) Accessor {
	substr = strings.ToLower(substr)
	return func(doc gjson.Result) (gjson.Result, bool) {
		var found gjson.Result
		ok := false
		doc.ForEach(func(key, value gjson.Result) bool {
			if value.Type == gjson.String && value.Str != "" && strings.Contains(strings.ToLower(key.Str), substr) {
				found, ok = value, true
				return false
			}
			return true
		})
		return found, ok
	}
}

// Field is an ordered list of accessors for one logical value.
type Field []Accessor

// Paths builds a Field from gjson paths.
func Paths(paths ...string) Field {
	f := make(Field, 0, len(paths))
	for _, p := range paths {
		f = append(f, Path(p))
	}
	return f
}

// Or appends more accessors and returns the extended field.
func (f Field) Or(more ...Accessor) Field {
	out := make(Field, 0, len(f)+len(more))
	out = append(out, f...)
	return append(out, more...)
}

// Lookup returns the first usable candidate.
func (f Field) Lookup(doc gjson.Result) (gjson.Result, bool) {
	for _, acc := range f {
		if r, ok := acc(doc); ok {
			return r, true
		}
	}
	return gjson.Result{}, false
}

// String returns the first usable candidate as a trimmed string, or "".
func (f Field) String(doc gjson.Result) string {
	r, ok := f.Lookup(doc)
	if !ok {
		return ""
	}
	return strings.TrimSpace(r.String())
}

// Int returns the first numeric candidate, or nil when none is present.
// Numeric strings are accepted.
func (f Field) Int(doc gjson.Result) *int64 {
	for _, acc := range f {
		r, ok := acc(doc)
		if !ok {
			continue
		}
		if r.Type == gjson.Number {
			v := r.Int()
			return &v
		}
		if r.Type == gjson.String && isDigits(r.Str) {
			v := r.Int()
			return &v
		}
	}
	return nil
}

// Parse parses raw JSON into a document. Invalid input yields an empty
// document.
func Parse(raw []byte) gjson.Result {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}
	}
	return gjson.ParseBytes(raw)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
