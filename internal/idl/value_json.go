// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package idl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	_ json.Marshaler   = Value{}
	_ json.Unmarshaler = (*Value)(nil)
	_ json.Marshaler   = (*Map)(nil)
)

// DecodeJSON decodes a single JSON document. Object key order is preserved
// and numbers keep their literal text. Anything but whitespace after the
// document is an error.
func DecodeJSON(text string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected content after JSON value")
		}
		return Value{}, err
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return NumberLiteral(t.String()), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return List(items...), nil
		case '{':
			m := NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("invalid object key %v", keyTok)
				}
				item, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				m.Set(key, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return MapValue(m), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	decoded, err := DecodeJSON(string(b))
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	if err := v.writeJSON(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (m *Map) MarshalJSON() ([]byte, error) {
	return MapValue(m).MarshalJSON()
}

func (v Value) writeJSON(b *bytes.Buffer) error {
	switch v.kind {
	case ValueKindNull:
		b.WriteString("null")
	case ValueKindBool:
		if v.b {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case ValueKindNumber:
		if !json.Valid([]byte(v.text)) {
			return fmt.Errorf("invalid number literal %q", v.text)
		}
		b.WriteString(v.text)
	case ValueKindString:
		return writeJSONString(b, v.text)
	case ValueKindList:
		b.WriteByte('[')
		for x, item := range v.list {
			if x > 0 {
				b.WriteByte(',')
			}
			if err := item.writeJSON(b); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case ValueKindMap:
		b.WriteByte('{')
		for x, key := range v.m.keys {
			if x > 0 {
				b.WriteByte(',')
			}
			if err := writeJSONString(b, key); err != nil {
				return err
			}
			b.WriteByte(':')
			if err := v.m.entries[key].writeJSON(b); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("unknown value kind %s", v.kind)
	}
	return nil
}

func writeJSONString(b *bytes.Buffer, s string) error {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	b.Write(bytes.TrimSuffix(out.Bytes(), []byte("\n")))
	return nil
}
