package bytecode

import (
	"fmt"
	"strings"
)

// ConstKind tags the constant carried by a push instruction.
type ConstKind uint8

const (
	ConstUnsupported ConstKind = iota
	ConstInteger
	ConstBoolean
	ConstChar
	ConstString
)

// Constant is the operand of a push instruction. A nil *Constant pushes null.
type Constant struct {
	Kind ConstKind
	Int  int32  // integer, boolean (0/1) and char payloads
	Text string // string payload, or the raw type name when unsupported
}

func (c *Constant) String() string {
	if c == nil {
		return "null"
	}
	switch c.Kind {
	case ConstInteger:
		return fmt.Sprintf("%d", c.Int)
	case ConstBoolean:
		return fmt.Sprintf("%t", c.Int != 0)
	case ConstChar:
		return fmt.Sprintf("'%c'", rune(c.Int))
	case ConstString:
		return fmt.Sprintf("%q", c.Text)
	}
	return "<" + c.Text + ">"
}

// FieldRef names a field read by get.
type FieldRef struct {
	Class string // slash form
	Name  string
	Type  Type
}

// MethodRef is the callee named by an invoke instruction.
type MethodRef struct {
	Class   string // slash form, e.g. "jpamb/cases/Calls"
	Name    string
	Params  []Type
	Returns Type // Void when the method returns nothing
}

func (m MethodRef) String() string {
	var sb strings.Builder
	sb.WriteString(m.Class)
	sb.WriteByte('.')
	sb.WriteString(m.Name)
	sb.WriteByte('(')
	for _, p := range m.Params {
		sb.WriteString(string(p))
	}
	sb.WriteByte(')')
	if m.Returns.IsVoid() {
		sb.WriteString("V")
	} else {
		sb.WriteString(string(m.Returns))
	}
	return sb.String()
}

// Instruction is one decoded bytecode entry. Only the operands relevant to
// Op are populated.
type Instruction struct {
	Op Opcode

	// Raw holds the name of whatever the decoder did not recognise: the
	// operation itself for OpUnknown, or an unknown condition, operator or
	// cast target.
	Raw string

	Value *Constant // push

	// Type is the operand type: return type (Void for a void return), the
	// load/store slot type, the binary/array element type, or the newarray
	// element type.
	Type Type

	Target int       // goto, if, ifz
	Cond   Condition // if, ifz

	Index  int   // load, store, incr
	Amount int32 // incr

	Class string   // new
	Field FieldRef // get
	Static bool    // get, invoke

	Dim int // newarray

	Operator BinaryOp // binary

	From, To Type // cast

	Access string    // invoke: "static", "virtual", "special", "interface", "dynamic"
	Method MethodRef // invoke
}

// Name returns the operation name, including the raw name of unknown
// operations.
func (ins *Instruction) Name() string {
	if ins.Op == OpUnknown {
		return ins.Raw
	}
	return ins.Op.String()
}

// String renders the instruction with its operands.
func (ins *Instruction) String() string {
	switch ins.Op {
	case OpPush:
		return fmt.Sprintf("push %s", ins.Value)
	case OpReturn:
		return fmt.Sprintf("return %s", ins.Type)
	case OpGet:
		return fmt.Sprintf("get %s.%s", ins.Field.Class, ins.Field.Name)
	case OpGoto:
		return fmt.Sprintf("goto %d", ins.Target)
	case OpIf, OpIfz:
		cond := ins.Cond.String()
		if ins.Cond == CondUnknown {
			cond = ins.Raw
		}
		return fmt.Sprintf("%s %s %d", ins.Op, cond, ins.Target)
	case OpLoad, OpStore:
		return fmt.Sprintf("%s %s %d", ins.Op, ins.Type, ins.Index)
	case OpIncr:
		return fmt.Sprintf("incr %d %+d", ins.Index, ins.Amount)
	case OpNew:
		return fmt.Sprintf("new %s", ins.Class)
	case OpNewArray:
		return fmt.Sprintf("newarray %s %d", ins.Type, ins.Dim)
	case OpArrayLoad, OpArrayStore:
		return fmt.Sprintf("%s %s", ins.Op, ins.Type)
	case OpBinary:
		op := ins.Operator.String()
		if ins.Operator == BinUnknown {
			op = ins.Raw
		}
		return fmt.Sprintf("binary %s %s", ins.Type, op)
	case OpCast:
		return fmt.Sprintf("cast %s %s", ins.From, ins.To)
	case OpInvoke:
		return fmt.Sprintf("invoke %s %s", ins.Access, ins.Method)
	case OpUnknown:
		return ins.Raw + " ?"
	}
	return ins.Op.String()
}

// Method is a decoded method body together with its declared signature.
type Method struct {
	Class     string // slash form
	Name      string
	Params    []Type
	Returns   Type
	Static    bool
	MaxLocals int
	Code      []Instruction
}

// Ref returns the MethodRef naming m.
func (m *Method) Ref() MethodRef {
	return MethodRef{Class: m.Class, Name: m.Name, Params: m.Params, Returns: m.Returns}
}

// Arity is the number of local slots filled by arguments, including the
// receiver for instance methods.
func (m *Method) Arity() int {
	if m.Static {
		return len(m.Params)
	}
	return len(m.Params) + 1
}

// Class is a decoded class document: its slash-form name and methods.
type Class struct {
	Name    string
	Methods []*Method
}

// FindMethod returns the first method with the given name and parameter
// types, or nil.
func (c *Class) FindMethod(name string, params []Type) *Method {
	for _, m := range c.Methods {
		if m.Name != name || len(m.Params) != len(params) {
			continue
		}
		match := true
		for i := range params {
			if m.Params[i] != params[i] {
				match = false
				break
			}
		}
		if match {
			return m
		}
	}
	return nil
}
