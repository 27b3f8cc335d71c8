package bytecode

// Constructors for hand-assembled method bodies. They mirror the decoder's
// output so tests and embedders can build programs without JSON.

// AssertionErrorClass is the class whose construction and throw the
// interpreter treats as a failed assertion.
const AssertionErrorClass = "java/lang/AssertionError"

// AssertionsDisabledField is the synthetic static field javac emits for
// assert statements.
const AssertionsDisabledField = "$assertionsDisabled"

func PushInt(v int32) Instruction {
	return Instruction{Op: OpPush, Value: &Constant{Kind: ConstInteger, Int: v}}
}

func PushBool(v bool) Instruction {
	c := &Constant{Kind: ConstBoolean}
	if v {
		c.Int = 1
	}
	return Instruction{Op: OpPush, Value: c}
}

func PushNull() Instruction {
	return Instruction{Op: OpPush}
}

func Return(t Type) Instruction {
	if t == "" {
		t = Void
	}
	return Instruction{Op: OpReturn, Type: t}
}

func GetAssertionsDisabled(class string) Instruction {
	return Instruction{Op: OpGet, Static: true, Field: FieldRef{Class: class, Name: AssertionsDisabledField, Type: Boolean}}
}

func Goto(target int) Instruction {
	return Instruction{Op: OpGoto, Target: target}
}

func If(cond Condition, target int) Instruction {
	return Instruction{Op: OpIf, Cond: cond, Target: target}
}

func Ifz(cond Condition, target int) Instruction {
	return Instruction{Op: OpIfz, Cond: cond, Target: target}
}

func Dup() Instruction {
	return Instruction{Op: OpDup}
}

func Load(t Type, index int) Instruction {
	return Instruction{Op: OpLoad, Type: t, Index: index}
}

func Store(t Type, index int) Instruction {
	return Instruction{Op: OpStore, Type: t, Index: index}
}

func Incr(index int, amount int32) Instruction {
	return Instruction{Op: OpIncr, Index: index, Amount: amount}
}

func New(class string) Instruction {
	return Instruction{Op: OpNew, Class: class}
}

func Throw() Instruction {
	return Instruction{Op: OpThrow}
}

func NewArray(elem Type, dim int) Instruction {
	return Instruction{Op: OpNewArray, Type: elem, Dim: dim}
}

func ArrayLoad(elem Type) Instruction {
	return Instruction{Op: OpArrayLoad, Type: elem}
}

func ArrayStore(elem Type) Instruction {
	return Instruction{Op: OpArrayStore, Type: elem}
}

func ArrayLength() Instruction {
	return Instruction{Op: OpArrayLength}
}

func Binary(t Type, op BinaryOp) Instruction {
	return Instruction{Op: OpBinary, Type: t, Operator: op}
}

func Cast(from, to Type) Instruction {
	return Instruction{Op: OpCast, From: from, To: to}
}

func InvokeStatic(ref MethodRef) Instruction {
	return Instruction{Op: OpInvoke, Access: "static", Static: true, Method: ref}
}

// InvokeAssertionInit is the constructor call following new AssertionError.
func InvokeAssertionInit() Instruction {
	return Instruction{Op: OpInvoke, Access: "special", Method: MethodRef{Class: AssertionErrorClass, Name: "<init>", Returns: Void}}
}

func Unknown(name string) Instruction {
	return Instruction{Op: OpUnknown, Raw: name}
}
