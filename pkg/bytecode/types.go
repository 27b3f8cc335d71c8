package bytecode

import "strings"

// Type is a JVM field descriptor: "I" for int, "[C" for char[],
// "Ljava/lang/String;" for a class reference. Void is "V".
type Type string

const (
	Void    Type = "V"
	Int     Type = "I"
	Boolean Type = "Z"
	Char    Type = "C"
	Byte    Type = "B"
	Short   Type = "S"
	Long    Type = "J"
	Float   Type = "F"
	Double  Type = "D"
)

var typeNames = map[string]Type{
	"void":    Void,
	"int":     Int,
	"boolean": Boolean,
	"char":    Char,
	"byte":    Byte,
	"short":   Short,
	"long":    Long,
	"float":   Float,
	"double":  Double,
}

var typeCodes = map[Type]string{
	Void:    "void",
	Int:     "int",
	Boolean: "boolean",
	Char:    "char",
	Byte:    "byte",
	Short:   "short",
	Long:    "long",
	Float:   "float",
	Double:  "double",
}

// TypeFromName maps a Java source-level primitive name ("int", "char") to its
// descriptor. Unknown names are treated as class names in slash form.
func TypeFromName(name string) Type {
	if t, ok := typeNames[name]; ok {
		return t
	}
	if strings.HasSuffix(name, "[]") {
		return ArrayOf(TypeFromName(strings.TrimSuffix(name, "[]")))
	}
	return ClassType(name)
}

// ArrayOf returns the array type with elements of t.
func ArrayOf(t Type) Type {
	return "[" + t
}

// ClassType returns the reference type for a class in slash form
// ("java/lang/String").
func ClassType(class string) Type {
	return Type("L" + class + ";")
}

// IsVoid reports whether t is the void return type. The empty type also
// counts as void.
func (t Type) IsVoid() bool {
	return t == "" || t == Void
}

// IsArray reports whether t is an array type.
func (t Type) IsArray() bool {
	return strings.HasPrefix(string(t), "[")
}

// IsReference reports whether values of t are references.
func (t Type) IsReference() bool {
	return t.IsArray() || strings.HasPrefix(string(t), "L")
}

// Elem returns the element type of an array type, or "" if t is not an array.
func (t Type) Elem() Type {
	if !t.IsArray() {
		return ""
	}
	return t[1:]
}

// ClassName returns the slash-form class of a reference type, or "".
func (t Type) ClassName() string {
	s := string(t)
	if strings.HasPrefix(s, "L") && strings.HasSuffix(s, ";") {
		return s[1 : len(s)-1]
	}
	return ""
}

// Valid reports whether t is a well-formed descriptor.
func (t Type) Valid() bool {
	switch {
	case t == "":
		return false
	case t.IsArray():
		return t.Elem().Valid() && t.Elem() != Void
	case t.ClassName() != "":
		return true
	default:
		_, ok := typeCodes[t]
		return ok
	}
}

// String returns the Java source spelling: "int", "char[]", "java/lang/String".
func (t Type) String() string {
	if name, ok := typeCodes[t]; ok {
		return name
	}
	if t.IsArray() {
		return t.Elem().String() + "[]"
	}
	if c := t.ClassName(); c != "" {
		return c
	}
	return string(t)
}

// ParseDescriptors splits a concatenated parameter descriptor list such as
// "I[CZ" into its types.
func ParseDescriptors(s string) ([]Type, bool) {
	var out []Type
	for len(s) > 0 {
		n := descriptorLen(s)
		if n == 0 {
			return nil, false
		}
		out = append(out, Type(s[:n]))
		s = s[n:]
	}
	return out, true
}

func descriptorLen(s string) int {
	i := 0
	for i < len(s) && s[i] == '[' {
		i++
	}
	if i >= len(s) {
		return 0
	}
	switch s[i] {
	case 'L':
		end := strings.IndexByte(s[i:], ';')
		if end < 0 {
			return 0
		}
		return i + end + 1
	case 'I', 'Z', 'C', 'B', 'S', 'J', 'F', 'D':
		return i + 1
	case 'V':
		if i > 0 {
			return 0
		}
		return 1
	}
	return 0
}
