// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package idl

import (
	"fmt"
	"strconv"
)

// ValueKind enumerates the closed set of shapes an attribute tree node can
// take. The set mirrors JSON so that every tree has a lossless JSON form.
type ValueKind uint8

const (
	ValueKindNull ValueKind = iota
	ValueKindBool
	ValueKindNumber
	ValueKindString
	ValueKindList
	ValueKindMap
)

func (k ValueKind) String() string {
	switch k {
	case ValueKindNull:
		return "null"
	case ValueKindBool:
		return "bool"
	case ValueKindNumber:
		return "number"
	case ValueKindString:
		return "string"
	case ValueKindList:
		return "list"
	case ValueKindMap:
		return "map"
	default:
		return fmt.Sprintf("unknown-%d", k)
	}
}

// Value is a node of the schema attribute tree. The zero value is null.
//
// Numbers keep the literal text they were decoded from so that 64-bit
// integers survive a round trip. Lists and maps share their backing storage
// when a Value is copied.
type Value struct {
	kind ValueKind
	b    bool
	text string
	list []Value
	m    *Map
}

func Null() Value            { return Value{} }
func Bool(b bool) Value      { return Value{kind: ValueKindBool, b: b} }
func String(s string) Value  { return Value{kind: ValueKindString, text: s} }
func Int(n int64) Value      { return Value{kind: ValueKindNumber, text: strconv.FormatInt(n, 10)} }
func List(vs ...Value) Value { return Value{kind: ValueKindList, list: vs} }

// NumberLiteral wraps the text of a JSON number. The text is not validated.
func NumberLiteral(s string) Value {
	return Value{kind: ValueKindNumber, text: s}
}

// MapValue wraps m. A nil map is stored as an empty one.
func MapValue(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: ValueKindMap, m: m}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == ValueKindNull }
func (v Value) IsString() bool  { return v.kind == ValueKindString }
func (v Value) IsList() bool    { return v.kind == ValueKindList }
func (v Value) IsMap() bool     { return v.kind == ValueKindMap }
func (v Value) BoolValue() bool { return v.b }

// Text returns the content of a string or the literal of a number.
func (v Value) Text() string { return v.text }

// Items returns the elements of a list value.
func (v Value) Items() []Value { return v.list }

// Map returns the mapping of a map value, nil for other kinds.
func (v Value) Map() *Map { return v.m }

// Int64 parses a number literal as a signed integer.
func (v Value) Int64() (int64, error) {
	if v.kind != ValueKindNumber {
		return 0, fmt.Errorf("%s is not a number", v.kind)
	}
	return strconv.ParseInt(v.text, 10, 64)
}

func (v Value) Float64() (float64, error) {
	if v.kind != ValueKindNumber {
		return 0, fmt.Errorf("%s is not a number", v.kind)
	}
	return strconv.ParseFloat(v.text, 64)
}

// String renders the value as compact JSON.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(b)
}

// Equal reports whether a and b have the same shape and content, including
// map key order.
func Equal(a Value, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case ValueKindNull:
		return true
	case ValueKindBool:
		return a.b == b.b
	case ValueKindNumber, ValueKindString:
		return a.text == b.text
	case ValueKindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for x := range a.list {
			if !Equal(a.list[x], b.list[x]) {
				return false
			}
		}
		return true
	case ValueKindMap:
		if a.m.Len() != b.m.Len() {
			return false
		}
		for x, k := range a.m.keys {
			if b.m.keys[x] != k {
				return false
			}
			if !Equal(a.m.entries[k], b.m.entries[k]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Map is a string keyed mapping that iterates in insertion order.
type Map struct {
	keys    []string
	entries map[string]Value
}

func NewMap() *Map {
	return &Map{entries: make(map[string]Value)}
}

// Set adds or replaces the value at key. Replacing keeps the original
// position of the key.
func (m *Map) Set(key string, v Value) {
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = v
}

func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.entries[key]
	return v, ok
}

func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

func (m *Map) String() string {
	return MapValue(m).String()
}
