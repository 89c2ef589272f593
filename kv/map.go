// Package kv holds the flat path -> value mapping produced by a conversion run
// and the array index encoding shared with the configuration store.
package kv

import "strings"

// Separator joins path segments
const Separator = "/"

// Value is either a scalar string or an ordered list of strings
type Value struct {
	Scalar string
	Items  []string
	IsList bool
}

// ScalarValue returns a scalar Value
func ScalarValue(s string) Value {
	return Value{Scalar: s}
}

// ListValue returns a list Value holding a copy of items
func ListValue(items ...string) Value {
	return Value{Items: append([]string{}, items...), IsList: true}
}

// Placeholders returns a list of n empty strings. The store only reads the
// length of such a list, which is how array sizes are recorded.
func Placeholders(n int) Value {
	return Value{Items: make([]string, n), IsList: true}
}

// Map is a flat mapping from slash separated paths to values that remembers
// the order in which paths were first set
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty Map
func NewMap() *Map {
	return &Map{values: map[string]Value{}}
}

// Join joins path segments with Separator
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Set stores v at path. An existing path keeps its position and loses its old value.
func (m *Map) Set(path string, v Value) {
	if _, ok := m.values[path]; !ok {
		m.keys = append(m.keys, path)
	}
	m.values[path] = v
}

// SetScalar stores a scalar at path, last write wins
func (m *Map) SetScalar(path, s string) {
	m.Set(path, ScalarValue(s))
}

// SetList stores a list at path
func (m *Map) SetList(path string, items ...string) {
	m.Set(path, ListValue(items...))
}

// Append adds item to the list at path, creating the list if needed.
// A scalar already stored at path becomes the first element.
func (m *Map) Append(path string, item string) {
	v, ok := m.values[path]
	switch {
	case !ok:
		v = ListValue()
	case !v.IsList:
		v = ListValue(v.Scalar)
	}
	v.Items = append(v.Items, item)
	m.Set(path, v)
}

// Get returns the value stored at path
func (m *Map) Get(path string) (Value, bool) {
	v, ok := m.values[path]
	return v, ok
}

// Keys returns the paths in first-set order
func (m *Map) Keys() []string {
	return append([]string{}, m.keys...)
}

// Len returns the number of paths
func (m *Map) Len() int {
	return len(m.keys)
}

// Merge copies every path of other into m, values of other win
func (m *Map) Merge(other *Map) {
	for _, k := range other.keys {
		m.Set(k, other.values[k])
	}
}
