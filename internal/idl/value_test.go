// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package idl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		kind     ValueKind
		expected string
	}{
		{name: "key order", input: `{"z":1,"a":2,"m":{"y":true,"b":false}}`, kind: ValueKindMap, expected: `{"z":1,"a":2,"m":{"y":true,"b":false}}`},
		{name: "large integer", input: `18446744073709551616`, kind: ValueKindNumber, expected: `18446744073709551616`},
		{name: "number literal text", input: ` 1.50e3 `, kind: ValueKindNumber, expected: `1.50e3`},
		{name: "null", input: `null`, kind: ValueKindNull, expected: `null`},
		{name: "empty list", input: `[]`, kind: ValueKindList, expected: `[]`},
		{name: "html is not escaped", input: `"<a&b>"`, kind: ValueKindString, expected: `"<a&b>"`},
		{name: "unicode escapes", input: `"é\n"`, kind: ValueKindString, expected: `"é\n"`},
		{name: "duplicate keys keep the first position", input: `{"a":1,"b":2,"a":3}`, kind: ValueKindMap, expected: `{"a":3,"b":2}`},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			v, err := DecodeJSON(testCase.input)
			require.NoError(t, err)
			require.Equal(t, testCase.kind, v.Kind())
			require.Equal(t, testCase.expected, v.String())
		})
	}
}

func TestDecodeJSONErrors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{``, `{`, `[1,]`, `{"a" 1}`, `1 2`, `{} x`, `tru`} {
		_, err := DecodeJSON(input)
		require.Error(t, err, input)
	}
}

func TestValueJSONInterfaces(t *testing.T) {
	t.Parallel()

	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"b":[1,"x"],"a":null}`), &v))
	require.True(t, v.IsMap())
	require.Equal(t, []string{"b", "a"}, v.Map().Keys())

	wrapped := struct {
		Attrs *Map  `json:"attrs"`
		Value Value `json:"value"`
	}{Attrs: v.Map(), Value: String("s")}
	b, err := json.Marshal(wrapped)
	require.NoError(t, err)
	require.Equal(t, `{"attrs":{"b":[1,"x"],"a":null},"value":"s"}`, string(b))

	_, err = json.Marshal(NumberLiteral("1x"))
	require.Error(t, err)
	require.Equal(t, "<number: invalid number literal \"1x\">", NumberLiteral("1x").String())
}

func TestNumbers(t *testing.T) {
	t.Parallel()

	n, err := Int(-42).Int64()
	require.NoError(t, err)
	require.Equal(t, int64(-42), n)

	f, err := NumberLiteral("2.5e1").Float64()
	require.NoError(t, err)
	require.Equal(t, 25.0, f)

	_, err = NumberLiteral("2.5").Int64()
	require.Error(t, err)
	_, err = String("1").Int64()
	require.Error(t, err)
	_, err = Bool(true).Float64()
	require.Error(t, err)
}

func TestMap(t *testing.T) {
	t.Parallel()

	m := NewMap()
	require.False(t, m.Has("a"))
	m.Set("a", Int(1))
	m.Set("b", Bool(true))
	m.Set("a", String("replaced"))
	require.Equal(t, 2, m.Len())
	require.Equal(t, []string{"a", "b"}, m.Keys())
	require.Equal(t, `{"a":"replaced","b":true}`, m.String())

	keys := m.Keys()
	keys[0] = "mutated"
	require.Equal(t, []string{"a", "b"}, m.Keys())

	var nilMap *Map
	require.Equal(t, 0, nilMap.Len())
	require.Nil(t, nilMap.Keys())
	require.False(t, nilMap.Has("a"))
	require.Equal(t, "{}", MapValue(nil).String())
}

func TestEqual(t *testing.T) {
	t.Parallel()

	decode := func(s string) Value {
		v, err := DecodeJSON(s)
		require.NoError(t, err)
		return v
	}
	testCases := []struct {
		a     string
		b     string
		equal bool
	}{
		{a: `{"a":[1,2],"b":null}`, b: `{"a":[1,2],"b":null}`, equal: true},
		{a: `{"a":1,"b":2}`, b: `{"b":2,"a":1}`, equal: false},
		{a: `1`, b: `1.0`, equal: false},
		{a: `[1]`, b: `[1,2]`, equal: false},
		{a: `"1"`, b: `1`, equal: false},
		{a: `true`, b: `false`, equal: false},
		{a: `null`, b: `null`, equal: true},
	}
	for _, testCase := range testCases {
		require.Equal(t, testCase.equal, Equal(decode(testCase.a), decode(testCase.b)), "%s == %s", testCase.a, testCase.b)
	}
}

func TestEncodeMsgpack(t *testing.T) {
	t.Parallel()

	v, err := DecodeJSON(`{"name":"x","size":16,"neg":-1,"ratio":0.5,"tags":["a"],"none":null,"ok":true}`)
	require.NoError(t, err)
	b, err := msgpack.Marshal(v)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(b, &out))
	require.Equal(t, "x", out["name"])
	require.EqualValues(t, 16, out["size"])
	require.EqualValues(t, -1, out["neg"])
	require.Equal(t, 0.5, out["ratio"])
	require.Equal(t, []interface{}{"a"}, out["tags"])
	require.Nil(t, out["none"])
	require.Equal(t, true, out["ok"])

	_, err = msgpack.Marshal(NumberLiteral("NaN?"))
	require.Error(t, err)
}
