package graphqljit

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// ResultMap is an insertion-ordered string-keyed map. Response objects use it
// so that key order mirrors selection-set order all the way through JSON
// serialization.
type ResultMap struct {
	keys   []string
	values map[string]any
}

func newResultMap(capacity int) *ResultMap {
	return &ResultMap{
		keys:   make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

// set writes a key. The first write fixes the key's position; later writes
// replace the value in place.
func (m *ResultMap) set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *ResultMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of keys.
func (m *ResultMap) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order. The slice is shared; do not
// mutate it.
func (m *ResultMap) Keys() []string { return m.keys }

// ToMap converts to a plain nested map, losing order. Intended for callers
// that post-process results and for tests.
func (m *ResultMap) ToMap() map[string]any {
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = plainValue(m.values[k])
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case *ResultMap:
		if t == nil {
			return nil
		}
		return t.ToMap()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}

func (m *ResultMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
