package document

import (
	"math"
	"strconv"
)

// Kind identifies the primitive type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindBool
	KindInt
	KindFloat
	KindSequence
	KindMapping
)

var kindNames = map[Kind]string{
	KindNull:     "null",
	KindString:   "string",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindSequence: "sequence",
	KindMapping:  "mapping",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is an immutable node of a loaded document.
// Scalars keep the text they were written with so checks can compare
// against the literal source (python-version: 3.11 is a float to YAML but
// "3.11" to a human).
type Value struct {
	kind  Kind
	raw   string
	str   string
	b     bool
	i     int64
	f     float64
	items []Value
	m     *Mapping
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull, raw: "null"} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, raw: s, str: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, raw: strconv.FormatBool(b), b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, raw: strconv.FormatInt(i, 10), i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, raw: formatFloat(f), f: f} }

// Sequence returns an ordered sequence of values.
func Sequence(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindSequence, items: cp}
}

// Map wraps a mapping as a value. The mapping must not be modified afterwards.
func Map(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, m: m}
}

// Kind returns the type of the value. The zero Value is null.
func (v Value) Kind() Kind { return v.kind }

// Raw returns the scalar text as written in the source file.
func (v Value) Raw() string { return v.raw }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string content and whether the value is a string.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsBool returns the boolean content and whether the value is a boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer content and whether the value is an integer.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float content and whether the value is a float.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// Items returns a copy of the elements of a sequence, or nil for other kinds.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	out := make([]Value, len(v.items))
	copy(out, v.items)
	return out
}

// Mapping returns a copy of the mapping of a mapping value, or nil for
// other kinds. Changing the copy leaves v untouched.
func (v Value) Mapping() *Mapping {
	if v.kind != KindMapping {
		return nil
	}
	return v.m.clone()
}

// Text renders a scalar the way a user would type it. Collections have no text.
func (v Value) Text() string {
	switch v.kind {
	case KindSequence, KindMapping:
		return ""
	case KindString:
		return v.str
	default:
		return v.raw
	}
}

// Get looks up a key in a mapping value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping || v.m == nil {
		return Value{}, false
	}
	return v.m.Get(key)
}

// Equal reports whether two values hold the same data. Source text is ignored.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		if math.IsNaN(v.f) {
			return math.IsNaN(o.f)
		}
		return v.f == o.f
	case KindSequence:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		return v.m.Equal(o.m)
	}
	return false
}

// Interface converts the value into plain Go data (map[string]any, []any,
// string, bool, int64, float64 or nil).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindSequence:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]any, v.m.Len())
		for _, k := range v.m.Keys() {
			item, _ := v.m.Get(k)
			out[k] = item.Interface()
		}
		return out
	}
	return nil
}

// formatFloat renders f so that YAML resolves it back to a float.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' {
			return s
		}
	}
	return s + ".0"
}

// Mapping is an insertion-ordered string-keyed map.
type Mapping struct {
	keys   []string
	values map[string]Value
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Value)}
}

// Set stores a value. Re-setting a key keeps its original position.
func (m *Mapping) Set(key string, v Value) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *Mapping) clone() *Mapping {
	out := &Mapping{keys: make([]string, len(m.keys)), values: make(map[string]Value, len(m.values))}
	copy(out.keys, m.keys)
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Equal compares two mappings including key order.
func (m *Mapping) Equal(o *Mapping) bool {
	if m.Len() != o.Len() {
		return false
	}
	for i, k := range m.keys {
		if o.keys[i] != k {
			return false
		}
		if !m.values[k].Equal(o.values[k]) {
			return false
		}
	}
	return true
}
