package models

import (
	"bytes"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// OrderedMap is a string-keyed map that remembers insertion order.
// Its JSON form is a plain object with keys in insertion order, so a
// document written by one process reads back in the same order.
// The zero value is an empty map ready to use; a map emptied by Delete
// is equal to the zero value again.
type OrderedMap[V any] struct {
	om *orderedmap.OrderedMap[string, V]
}

// Set stores v under key. A new key goes to the end; an existing key keeps its place.
func (m *OrderedMap[V]) Set(key string, v V) {
	if m.om == nil {
		m.om = orderedmap.New[string, V]()
	}
	m.om.Set(key, v)
}

// Get returns the value for key and whether it was present.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	if m.om == nil {
		var zero V
		return zero, false
	}
	return m.om.Get(key)
}

// Has reports whether key is present.
func (m *OrderedMap[V]) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key. Returns false if it was absent.
func (m *OrderedMap[V]) Delete(key string) bool {
	if m.om == nil {
		return false
	}
	if _, ok := m.om.Delete(key); !ok {
		return false
	}
	if m.om.Len() == 0 {
		m.om = nil
	}
	return true
}

// Len returns the number of entries.
func (m *OrderedMap[V]) Len() int {
	if m.om == nil {
		return 0
	}
	return m.om.Len()
}

// All iterates entries in insertion order.
func (m *OrderedMap[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		if m.om == nil {
			return
		}
		for p := m.om.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	keys := make([]string, 0, m.Len())
	for k := range m.All() {
		keys = append(keys, k)
	}
	return keys
}

// Values returns the values in insertion order.
func (m *OrderedMap[V]) Values() []V {
	out := make([]V, 0, m.Len())
	for _, v := range m.All() {
		out = append(out, v)
	}
	return out
}

// Index returns the insertion position of key, or -1.
func (m *OrderedMap[V]) Index(key string) int {
	i := 0
	for k := range m.All() {
		if k == key {
			return i
		}
		i++
	}
	return -1
}

// MarshalJSON writes the entries as an object in insertion order.
func (m OrderedMap[V]) MarshalJSON() ([]byte, error) {
	if m.om == nil {
		return []byte("{}"), nil
	}
	return m.om.MarshalJSON()
}

// UnmarshalJSON reads an object, keeping the order its keys appear in.
// A JSON null or an empty object leaves the map empty.
func (m *OrderedMap[V]) UnmarshalJSON(data []byte) error {
	m.om = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	om := orderedmap.New[string, V]()
	if err := om.UnmarshalJSON(data); err != nil {
		return err
	}
	if om.Len() > 0 {
		m.om = om
	}
	return nil
}
