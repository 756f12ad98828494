package mmdbval

// Value is one node of a decoded record tree. Concrete types:
//
//   - Null
//   - Bool
//   - Uint16, Uint32, Uint64, Int32
//   - Double
//   - String
//   - Array
//   - *Map
//
// The interface is sealed; a type switch over these variants is exhaustive.
type Value interface {
	valueNode()
}

// Null is the absence of a value. No entry tag produces it; it exists so
// that consumers (renderers, codecs) have a well-defined "no value" node.
type Null struct{}

// Bool is a boolean scalar.
type Bool bool

// Uint16 is an unsigned 16-bit scalar.
type Uint16 uint16

// Uint32 is an unsigned 32-bit scalar.
type Uint32 uint32

// Int32 is a signed 32-bit scalar.
type Int32 int32

// Uint64 is an unsigned 64-bit scalar.
type Uint64 uint64

// Double is an IEEE-754 64-bit float scalar.
type Double float64

// String is a UTF-8 string scalar.
type String string

// Array is an ordered sequence of values.
type Array []Value

// Map is an ordered collection of key/value pairs with unique string keys.
// Keys keep the order in which they were first inserted; inserting an
// existing key replaces its value in place.
type Map struct {
	Keys   []string
	Values []Value
}

func (Null) valueNode()   {}
func (Bool) valueNode()   {}
func (Uint16) valueNode() {}
func (Uint32) valueNode() {}
func (Int32) valueNode()  {}
func (Uint64) valueNode() {}
func (Double) valueNode() {}
func (String) valueNode() {}
func (Array) valueNode()  {}
func (*Map) valueNode()   {}

// NewMap returns an empty map with capacity for n pairs.
func NewMap(n int) *Map {
	return &Map{
		Keys:   make([]string, 0, n),
		Values: make([]Value, 0, n),
	}
}

func (m *Map) Len() int {
	return len(m.Keys)
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	for i, k := range m.Keys {
		if k == key {
			return m.Values[i], true
		}
	}
	return nil, false
}

// Set inserts or replaces the value stored under key. A replaced key keeps
// its original position.
func (m *Map) Set(key string, v Value) {
	for i, k := range m.Keys {
		if k == key {
			m.Values[i] = v
			return
		}
	}
	m.Keys = append(m.Keys, key)
	m.Values = append(m.Values, v)
}

// GetMap returns the nested map stored under key, or nil if the key is
// missing or holds a different variant.
func (m *Map) GetMap(key string) *Map {
	if v, ok := m.Get(key); ok {
		if sub, ok := v.(*Map); ok {
			return sub
		}
	}
	return nil
}

// GetString returns the string stored under key, or "" if the key is
// missing or holds a different variant.
func (m *Map) GetString(key string) string {
	if v, ok := m.Get(key); ok {
		if s, ok := v.(String); ok {
			return string(s)
		}
	}
	return ""
}

// GetUint returns the value stored under key widened to uint64, covering
// all three unsigned variants. Returns 0 for missing keys and other
// variants.
func (m *Map) GetUint(key string) uint64 {
	v, ok := m.Get(key)
	if !ok {
		return 0
	}
	switch v := v.(type) {
	case Uint16:
		return uint64(v)
	case Uint32:
		return uint64(v)
	case Uint64:
		return uint64(v)
	default:
		return 0
	}
}
