// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package idl

import (
	"fmt"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

var _ msgpack.CustomEncoder = Value{}

// EncodeMsgpack writes the value as MessagePack. Maps are written in key
// insertion order. Number literals are written as integers when they fit in
// 64 bits and as doubles otherwise.
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch v.kind {
	case ValueKindNull:
		return enc.EncodeNil()
	case ValueKindBool:
		return enc.EncodeBool(v.b)
	case ValueKindNumber:
		if n, err := v.Int64(); err == nil {
			return enc.EncodeInt(n)
		}
		if n, err := strconv.ParseUint(v.text, 10, 64); err == nil {
			return enc.EncodeUint(n)
		}
		f, err := v.Float64()
		if err != nil {
			return fmt.Errorf("invalid number literal %q: %w", v.text, err)
		}
		return enc.EncodeFloat64(f)
	case ValueKindString:
		return enc.EncodeString(v.text)
	case ValueKindList:
		if err := enc.EncodeArrayLen(len(v.list)); err != nil {
			return err
		}
		for _, item := range v.list {
			if err := item.EncodeMsgpack(enc); err != nil {
				return err
			}
		}
		return nil
	case ValueKindMap:
		if err := enc.EncodeMapLen(v.m.Len()); err != nil {
			return err
		}
		for _, key := range v.m.keys {
			if err := enc.EncodeString(key); err != nil {
				return err
			}
			if err := v.m.entries[key].EncodeMsgpack(enc); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown value kind %s", v.kind)
	}
}
