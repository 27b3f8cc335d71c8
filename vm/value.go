package vm

import (
	"fmt"
	"strconv"
)

// Kind tags a Value.
type Kind uint8

const (
	// KindUnset is the zero Value: a local slot never written.
	KindUnset Kind = iota
	KindNull
	KindInt
	KindChar
	KindBool
	KindArray
	KindObject
	// KindAssertionPending marks an AssertionError under construction. It is
	// never duplicated and turns a throw into an assertion-error verdict.
	KindAssertionPending
)

var kindNames = [...]string{"unset", "null", "int", "char", "boolean", "array", "object", "assertion"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Value is a typed operand-stack or local-variable entry.
// Int holds the payload of ints, chars (0..65535) and booleans (0/1).
type Value struct {
	Kind   Kind
	Int    int32
	Array  *Array
	Object *Object
}

// Object is an opaque instance. Only its class is tracked.
type Object struct {
	Class string
	Text  string // string constants only
}

// IntValue creates an int Value.
func IntValue(v int32) Value {
	return Value{Kind: KindInt, Int: v}
}

// CharValue creates a char Value.
func CharValue(v uint16) Value {
	return Value{Kind: KindChar, Int: int32(v)}
}

// BoolValue creates a boolean Value.
func BoolValue(v bool) Value {
	if v {
		return Value{Kind: KindBool, Int: 1}
	}
	return Value{Kind: KindBool}
}

// NullValue creates a null reference.
func NullValue() Value {
	return Value{Kind: KindNull}
}

// ArrayValue creates a reference to arr. A nil arr yields null.
func ArrayValue(arr *Array) Value {
	if arr == nil {
		return NullValue()
	}
	return Value{Kind: KindArray, Array: arr}
}

// ObjectValue creates a reference to an opaque instance of class.
func ObjectValue(class string) Value {
	return Value{Kind: KindObject, Object: &Object{Class: class}}
}

// StringValue creates a reference to a string constant.
func StringValue(s string) Value {
	return Value{Kind: KindObject, Object: &Object{Class: "java/lang/String", Text: s}}
}

var assertionPending = Value{Kind: KindAssertionPending}

// IsNumeric reports whether v unwraps to a native integer.
func (v Value) IsNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindChar || v.Kind == KindBool
}

// IsReference reports whether v is a reference (including null).
func (v Value) IsReference() bool {
	switch v.Kind {
	case KindNull, KindArray, KindObject, KindAssertionPending:
		return true
	}
	return false
}

// IsNull reports whether v is the null reference.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// sameRef reports reference identity. Null equals null.
func sameRef(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull, KindAssertionPending:
		return true
	case KindArray:
		return a.Array == b.Array
	case KindObject:
		return a.Object == b.Object
	}
	return false
}

// String renders v for logs and verdict details.
func (v Value) String() string {
	switch v.Kind {
	case KindUnset:
		return "_"
	case KindNull:
		return "null"
	case KindInt:
		return strconv.Itoa(int(v.Int))
	case KindChar:
		return strconv.QuoteRune(rune(v.Int))
	case KindBool:
		return strconv.FormatBool(v.Int != 0)
	case KindArray:
		return v.Array.String()
	case KindObject:
		if v.Object.Text != "" {
			return strconv.Quote(v.Object.Text)
		}
		return "new " + v.Object.Class + "()"
	case KindAssertionPending:
		return "new java/lang/AssertionError()"
	}
	return v.Kind.String()
}

// Equal reports whether v and other have the same kind and observable content.
// Arrays compare element-wise.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindInt, KindChar, KindBool:
		return v.Int == other.Int
	case KindArray:
		if v.Array == other.Array {
			return true
		}
		if v.Array.Elem != other.Array.Elem || len(v.Array.Elements) != len(other.Array.Elements) {
			return false
		}
		for i := range v.Array.Elements {
			if !v.Array.Elements[i].Equal(other.Array.Elements[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.Object.Class == other.Object.Class && v.Object.Text == other.Object.Text
	}
	return true
}

// ToShort wraps n to 16-bit two's complement.
func ToShort(n int32) int32 {
	return int32(int16(n))
}

// ToByte wraps n to 8-bit two's complement.
func ToByte(n int32) int32 {
	return int32(int8(n))
}

// ToChar wraps n to 16-bit unsigned.
func ToChar(n int32) uint16 {
	return uint16(n)
}
