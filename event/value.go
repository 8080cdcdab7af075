// Package event defines the canonical in-memory log record shared by every
// decoder, encoder, and the bounded queue between them.
package event

import "fmt"

// Kind tags the native type carried by a Value. Unlike the teacher's
// EnumeratedData (which serializes to a byte blob up front because entries
// cross a wire boundary), events here never leave memory before an encoder
// consumes them, so Value just holds a Go-native union directly.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt64
	KindUint64
	KindFloat64
	KindString
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt64:
		return "i64"
	case KindUint64:
		return "u64"
	case KindFloat64:
		return "f64"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	}
	return "unknown"
}

// Value is a tagged sum over the structured-data value types of spec §3.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	bs   []byte
}

func BoolValue(v bool) Value       { return Value{kind: KindBool, b: v} }
func Int64Value(v int64) Value     { return Value{kind: KindInt64, i: v} }
func Uint64Value(v uint64) Value   { return Value{kind: KindUint64, u: v} }
func Float64Value(v float64) Value { return Value{kind: KindFloat64, f: v} }
func StringValue(v string) Value   { return Value{kind: KindString, s: v} }
func BytesValue(v []byte) Value    { return Value{kind: KindBytes, bs: v} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Bool() bool {
	v.mustBe(KindBool)
	return v.b
}

func (v Value) Int64() int64 {
	v.mustBe(KindInt64)
	return v.i
}

func (v Value) Uint64() uint64 {
	v.mustBe(KindUint64)
	return v.u
}

func (v Value) Float64() float64 {
	v.mustBe(KindFloat64)
	return v.f
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindBytes:
		return string(v.bs)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt64:
		return fmt.Sprintf("%d", v.i)
	case KindUint64:
		return fmt.Sprintf("%d", v.u)
	case KindFloat64:
		return fmt.Sprintf("%g", v.f)
	}
	return ""
}

func (v Value) Bytes() []byte {
	v.mustBe(KindBytes)
	return v.bs
}

func (v Value) mustBe(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("event: Value is %s, not %s", v.kind, k))
	}
}

// Equal reports semantic equality, used by round-trip tests.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt64:
		return v.i == o.i
	case KindUint64:
		return v.u == o.u
	case KindFloat64:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindBytes:
		return string(v.bs) == string(o.bs)
	}
	return false
}
