package event

import (
	"fmt"
	"strconv"
)

// FieldType is a declared type in a Schema Registry entry, per spec §3.
type FieldType uint8

const (
	FieldBool FieldType = iota
	FieldF64
	FieldI8
	FieldI16
	FieldI32
	FieldI64
	FieldU8
	FieldU16
	FieldU32
	FieldU64
	FieldString
)

// Schema is a pure mapping from field name to declared type, consulted by
// decoders (LTSV in particular) to coerce string tokens into typed Values.
type Schema map[string]FieldType

// Coerce converts token to the Value implied by field's declared type. If
// field is not present in the schema, ok is false and the caller should
// fall back to storing token as a string.
func (s Schema) Coerce(field, token string) (v Value, ok bool, err error) {
	ft, present := s[field]
	if !present {
		return Value{}, false, nil
	}
	ok = true
	switch ft {
	case FieldBool:
		var b bool
		if b, err = strconv.ParseBool(token); err == nil {
			v = BoolValue(b)
		}
	case FieldF64:
		var f float64
		if f, err = strconv.ParseFloat(token, 64); err == nil {
			v = Float64Value(f)
		}
	case FieldI8:
		var i int64
		if i, err = strconv.ParseInt(token, 10, 8); err == nil {
			v = Int64Value(i)
		}
	case FieldI16:
		var i int64
		if i, err = strconv.ParseInt(token, 10, 16); err == nil {
			v = Int64Value(i)
		}
	case FieldI32:
		var i int64
		if i, err = strconv.ParseInt(token, 10, 32); err == nil {
			v = Int64Value(i)
		}
	case FieldI64:
		var i int64
		if i, err = strconv.ParseInt(token, 10, 64); err == nil {
			v = Int64Value(i)
		}
	case FieldU8:
		var u uint64
		if u, err = strconv.ParseUint(token, 10, 8); err == nil {
			v = Uint64Value(u)
		}
	case FieldU16:
		var u uint64
		if u, err = strconv.ParseUint(token, 10, 16); err == nil {
			v = Uint64Value(u)
		}
	case FieldU32:
		var u uint64
		if u, err = strconv.ParseUint(token, 10, 32); err == nil {
			v = Uint64Value(u)
		}
	case FieldU64:
		var u uint64
		if u, err = strconv.ParseUint(token, 10, 64); err == nil {
			v = Uint64Value(u)
		}
	case FieldString:
		v = StringValue(token)
	default:
		err = fmt.Errorf("event: unknown field type %d for %q", ft, field)
	}
	if err != nil {
		err = fmt.Errorf("event: schema coercion of field %q value %q: %w", field, token, err)
	}
	return
}
