package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// ValueType tags the representation of a parameter value on the wire.
type ValueType uint8

const (
	TypeBool ValueType = iota
	TypeFloat
	TypeInt
	TypeEnum
)

// String returns the lowercase name of the value type.
func (t ValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeFloat:
		return "float"
	case TypeInt:
		return "int"
	case TypeEnum:
		return "enum"
	default:
		return "type(" + strconv.Itoa(int(t)) + ")"
	}
}

// Valid reports whether t is one of the defined value types.
func (t ValueType) Valid() bool {
	return t <= TypeEnum
}

// PayloadSize returns the number of payload bytes a value of type t occupies.
func (t ValueType) PayloadSize() int {
	switch t {
	case TypeBool, TypeEnum:
		return 1
	case TypeFloat, TypeInt:
		return 4
	default:
		return 0
	}
}

// Value is a typed scalar. The zero Value is bool false.
//
// Values are comparable with ==; two floats compare equal only when their
// bit patterns match, which is what the bus sees.
type Value struct {
	typ ValueType
	raw uint32
}

// Bool returns a bool value.
func Bool(b bool) Value {
	if b {
		return Value{typ: TypeBool, raw: 1}
	}
	return Value{typ: TypeBool}
}

// Float returns a float value (IEEE-754 binary32).
func Float(f float32) Value {
	return Value{typ: TypeFloat, raw: math.Float32bits(f)}
}

// Int returns a 32-bit signed integer value.
func Int(i int32) Value {
	return Value{typ: TypeInt, raw: uint32(i)}
}

// Enum returns an enumerated value.
func Enum(e uint8) Value {
	return Value{typ: TypeEnum, raw: uint32(e)}
}

// Type returns the value's type tag.
func (v Value) Type() ValueType { return v.typ }

// Bool returns the value as a bool. Non-bool values report whether they are non-zero.
func (v Value) Bool() bool { return v.raw != 0 }

// Float returns the value as float32. Int and enum values are converted.
func (v Value) Float() float32 {
	switch v.typ {
	case TypeFloat:
		return math.Float32frombits(v.raw)
	case TypeInt:
		return float32(int32(v.raw))
	default:
		return float32(v.raw)
	}
}

// Int returns the value as int32. Float values are truncated.
func (v Value) Int() int32 {
	if v.typ == TypeFloat {
		return int32(math.Float32frombits(v.raw))
	}
	return int32(v.raw)
}

// Enum returns the value as an enum index.
func (v Value) Enum() uint8 { return uint8(v.raw) }

// IsFinite reports whether a float value is neither NaN nor infinite.
// Non-float values are always finite.
func (v Value) IsFinite() bool {
	if v.typ != TypeFloat {
		return true
	}
	f := float64(math.Float32frombits(v.raw))
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// String formats the value for debug output.
func (v Value) String() string {
	switch v.typ {
	case TypeBool:
		return strconv.FormatBool(v.Bool())
	case TypeFloat:
		return strconv.FormatFloat(float64(v.Float()), 'f', 2, 32)
	case TypeInt:
		return strconv.FormatInt(int64(v.Int()), 10)
	case TypeEnum:
		return strconv.Itoa(int(v.Enum()))
	default:
		return "?"
	}
}

// AppendPayload appends the value's in-memory representation in host byte order.
func (v Value) AppendPayload(dst []byte) []byte {
	switch v.typ {
	case TypeBool, TypeEnum:
		return append(dst, byte(v.raw))
	default:
		return binary.NativeEndian.AppendUint32(dst, v.raw)
	}
}

// ParseValue reconstructs a value of type t from payload bytes.
func ParseValue(t ValueType, payload []byte) (Value, error) {
	if !t.Valid() {
		return Value{}, fmt.Errorf("%w: unknown value type %d", ErrBadPayload, t)
	}

	if len(payload) != t.PayloadSize() {
		return Value{}, fmt.Errorf("%w: %s payload needs %d bytes, got %d",
			ErrBadPayload, t, t.PayloadSize(), len(payload))
	}

	switch t {
	case TypeBool:
		if payload[0] > 1 {
			return Value{}, fmt.Errorf("%w: bool payload %#x", ErrBadPayload, payload[0])
		}
		return Value{typ: t, raw: uint32(payload[0])}, nil
	case TypeEnum:
		return Value{typ: t, raw: uint32(payload[0])}, nil
	default:
		return Value{typ: t, raw: binary.NativeEndian.Uint32(payload)}, nil
	}
}
