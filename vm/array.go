package vm

import (
	"strings"

	"github.com/chazu/jpamb-oracle/pkg/bytecode"
)

// MaxArrayLength bounds a single allocation. Larger requests end the run as
// an OutOfMemoryError instead of exhausting the host.
const MaxArrayLength = 1 << 20

// Array is a mutable, bounds-checked sequence of Values.
type Array struct {
	Elem     bytecode.Type
	Elements []Value
}

// NewArray allocates an array of n zero-valued elements of type elem.
func NewArray(elem bytecode.Type, n int) *Array {
	arr := &Array{Elem: elem, Elements: make([]Value, n)}
	zero := ZeroValue(elem)
	for i := range arr.Elements {
		arr.Elements[i] = zero
	}
	return arr
}

// ArrayOf wraps existing values.
func ArrayOf(elem bytecode.Type, values ...Value) *Array {
	return &Array{Elem: elem, Elements: values}
}

// IntArray builds an int[] from native values.
func IntArray(values ...int32) *Array {
	arr := &Array{Elem: bytecode.Int, Elements: make([]Value, len(values))}
	for i, v := range values {
		arr.Elements[i] = IntValue(v)
	}
	return arr
}

// CharArray builds a char[] from a string.
func CharArray(s string) *Array {
	var elems []Value
	for _, r := range s {
		elems = append(elems, CharValue(uint16(r)))
	}
	return &Array{Elem: bytecode.Char, Elements: elems}
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.Elements)
}

// InBounds reports whether index addresses an element.
func (a *Array) InBounds(index int32) bool {
	return index >= 0 && int(index) < len(a.Elements)
}

func (a *Array) String() string {
	var sb strings.Builder
	sb.WriteString(a.Elem.String())
	sb.WriteByte('[')
	for i, e := range a.Elements {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// ZeroValue returns the default element for an array of t.
func ZeroValue(t bytecode.Type) Value {
	switch t {
	case bytecode.Int, bytecode.Short, bytecode.Byte:
		return IntValue(0)
	case bytecode.Char:
		return CharValue(0)
	case bytecode.Boolean:
		return BoolValue(false)
	}
	return NullValue()
}

// coerceElement re-tags v to fit an array of elem, truncating the way the
// JVM's typed array stores do.
func coerceElement(elem bytecode.Type, v Value) Value {
	if !v.IsNumeric() {
		return v
	}
	switch elem {
	case bytecode.Char:
		return CharValue(ToChar(v.Int))
	case bytecode.Boolean:
		return BoolValue(v.Int&1 != 0)
	case bytecode.Byte:
		return IntValue(ToByte(v.Int))
	case bytecode.Short:
		return IntValue(ToShort(v.Int))
	case bytecode.Int:
		return IntValue(v.Int)
	}
	return v
}

// buildArray allocates a len(sizes)-dimensional array whose innermost
// elements have type leaf.
func buildArray(leaf bytecode.Type, sizes []int32) *Array {
	elem := leaf
	for i := 1; i < len(sizes); i++ {
		elem = bytecode.ArrayOf(elem)
	}
	if len(sizes) == 1 {
		return NewArray(elem, int(sizes[0]))
	}
	arr := &Array{Elem: elem, Elements: make([]Value, sizes[0])}
	for i := range arr.Elements {
		arr.Elements[i] = ArrayValue(buildArray(leaf, sizes[1:]))
	}
	return arr
}
