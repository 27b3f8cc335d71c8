package vm

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/jpamb-oracle/pkg/bytecode"
)

var log = commonlog.GetLogger("oracle.vm")

// Resolver supplies the body of an invoked method. A miss is fatal to the
// run and is returned from Step and Run as an error.
type Resolver interface {
	Resolve(ref bytecode.MethodRef) (*bytecode.Method, error)
}

// ErrNoResolver is returned when a method invokes another and the machine
// was built without a Resolver.
var ErrNoResolver = errors.New("vm: no resolver for invoke")

// ---------------------------------------------------------------------------
// Machine: frame stack and shared budget
// ---------------------------------------------------------------------------

// Machine runs one top-level method. Calls push frames onto an explicit
// stack instead of recursing, and every frame charges the same Budget.
type Machine struct {
	resolver Resolver
	opts     Options

	budget *Budget
	frames []*Frame
	root   *Frame
}

// New creates a machine. resolver may be nil for methods that never invoke.
func New(resolver Resolver, opts Options) *Machine {
	return &Machine{resolver: resolver, opts: opts.withDefaults()}
}

// Run executes method with args as its initial locals and returns the
// verdict of the top frame.
func (m *Machine) Run(method *bytecode.Method, args []Value) (Verdict, error) {
	if err := m.Start(method, args); err != nil {
		return Verdict{}, err
	}
	for !m.Done() {
		if err := m.Step(); err != nil {
			return Verdict{}, err
		}
	}
	v := m.Verdict()
	log.Debugf("%s: %s after %d steps", method.Ref(), v, m.budget.Used())
	return v, nil
}

// Start prepares a run without executing anything.
func (m *Machine) Start(method *bytecode.Method, args []Value) error {
	if method == nil {
		return errors.New("vm: nil method")
	}
	if len(args) != method.Arity() {
		return fmt.Errorf("vm: %s expects %d arguments, got %d", method.Ref(), method.Arity(), len(args))
	}
	m.budget = NewBudget(m.opts.Budget)
	m.root = m.newFrame(method, args)
	m.frames = append(m.frames[:0], m.root)
	if len(method.Code) == 0 {
		m.root.unhandled("method %s without code", method.Ref())
	}
	return nil
}

// Done reports whether the top-level frame has a verdict.
func (m *Machine) Done() bool {
	return m.root == nil || m.root.Halted()
}

// Verdict returns the top-level verdict, or the zero Verdict while running.
func (m *Machine) Verdict() Verdict {
	if m.root == nil {
		return Verdict{}
	}
	return m.root.Verdict
}

// Budget returns the budget of the current run.
func (m *Machine) Budget() *Budget {
	return m.budget
}

// Depth returns the number of live frames.
func (m *Machine) Depth() int {
	return len(m.frames)
}

// Frame returns the innermost live frame, or nil.
func (m *Machine) Frame() *Frame {
	if len(m.frames) == 0 {
		return nil
	}
	return m.frames[len(m.frames)-1]
}

func (m *Machine) newFrame(method *bytecode.Method, args []Value) *Frame {
	d := NewDetector(m.opts.GroupSize, m.opts.MinExtraIterations, m.budget.Remaining(), m.opts.Checkpoints)
	return newFrame(method, args, d)
}

// Step executes one instruction of the innermost frame, charging the shared
// budget. When the budget is gone the innermost frame ends out of time and
// the verdict propagates outwards.
func (m *Machine) Step() error {
	f := m.Frame()
	if f == nil || m.Done() {
		return nil
	}
	if !m.budget.Charge() {
		f.halt(Verdict{Kind: OutOfTime})
		m.unwind()
		return nil
	}

	pc := f.PC
	ins := &f.Method.Code[pc]
	callee, args, err := m.execute(f, ins, pc)
	if err != nil {
		return err
	}
	if callee != nil {
		f.calling, f.callPC = ins, pc
		child := m.newFrame(callee, args)
		m.frames = append(m.frames, child)
		log.Debugf("enter %s depth %d", callee.Ref(), len(m.frames))
		if len(callee.Code) == 0 {
			child.unhandled("method %s without code", callee.Ref())
			m.unwind()
		}
		return nil
	}
	m.finish(f, ins, pc)
	m.unwind()
	return nil
}

// execute runs exec and converts a stack underflow into a verdict.
func (m *Machine) execute(f *Frame, ins *bytecode.Instruction, pc int) (callee *bytecode.Method, args []Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			u, ok := r.(stackUnderflow)
			if !ok {
				panic(r)
			}
			callee, args, err = nil, nil, nil
			f.unhandled("stack underflow in %s", u.op)
		}
	}()
	return m.exec(f, ins, pc)
}

// finish does the per-step bookkeeping of f after ins, which was at pc,
// has completed: trace, pc range check, snapshot and cycle detection.
func (m *Machine) finish(f *Frame, ins *bytecode.Instruction, pc int) {
	step := f.steps
	f.steps++
	if log.AllowLevel(commonlog.Debug) {
		locals, stack := f.describe()
		log.Debugf("STEP %d PC %d %s LOCALS %s STACK %s", step, pc, ins, locals, stack)
	}
	if f.Halted() {
		return
	}
	if f.PC < 0 || f.PC >= len(f.Method.Code) {
		f.unhandled("pc %d outside %s", f.PC, f.Method.Ref())
		return
	}
	f.detector.Record(f.detector.Snapshot(pc, ins.Name(), f.Locals, f.Stack))
	if ins.Op == bytecode.OpGoto && ins.Target != pc {
		f.detector.CloseIteration()
	}
	if f.detector.IsCheckpoint(step) && f.detector.Repeating() {
		log.Debugf("%s repeats after %d iterations", f.Method.Ref(), f.detector.Iterations())
		f.halt(Verdict{Kind: InfiniteLoop})
	}
}

// unwind pops halted frames. A non-ok verdict halts the caller with the same
// verdict; an ok verdict hands the result back and completes the caller's
// pending invoke.
func (m *Machine) unwind() {
	for len(m.frames) > 1 {
		child := m.Frame()
		if !child.Halted() {
			return
		}
		m.frames = m.frames[:len(m.frames)-1]
		parent := m.Frame()
		ins, pc := parent.calling, parent.callPC
		parent.calling = nil
		log.Debugf("leave %s: %s", child.Method.Ref(), child.Verdict)

		if child.Verdict.Kind != Ok {
			parent.halt(child.Verdict)
		} else {
			if child.Result.Kind != KindUnset {
				parent.push(child.Result)
			}
			parent.PC = pc + 1
		}
		m.finish(parent, ins, pc)
	}
}

// ---------------------------------------------------------------------------
// Instruction dispatch
// ---------------------------------------------------------------------------

// exec applies ins to f. It returns a callee when ins is an invoke that
// needs a new frame; the arguments have already been popped.
func (m *Machine) exec(f *Frame, ins *bytecode.Instruction, pc int) (*bytecode.Method, []Value, error) {
	name := ins.Name()
	switch ins.Op {
	case bytecode.OpPush:
		v, ok := constantValue(ins.Value)
		if !ok {
			f.unhandled("push %s", ins.Value)
			return nil, nil, nil
		}
		f.push(v)

	case bytecode.OpDup:
		v := f.peek(name)
		if v.Kind != KindAssertionPending {
			f.push(v)
		}

	case bytecode.OpLoad:
		v, ok := f.load(ins.Index)
		if !ok {
			f.unhandled("load of unset local %d", ins.Index)
			return nil, nil, nil
		}
		f.push(v)

	case bytecode.OpStore:
		if ins.Index < 0 {
			f.unhandled("store to local %d", ins.Index)
			return nil, nil, nil
		}
		f.store(ins.Index, f.pop(name))

	case bytecode.OpIncr:
		v, ok := f.load(ins.Index)
		if !ok || !v.IsNumeric() {
			f.unhandled("incr of local %d", ins.Index)
			return nil, nil, nil
		}
		v.Int += ins.Amount
		if v.Kind == KindChar {
			v.Int = int32(ToChar(v.Int))
		}
		f.Locals[ins.Index] = v

	case bytecode.OpBinary:
		m.binary(f, ins)
		if f.Halted() {
			return nil, nil, nil
		}

	case bytecode.OpCast:
		v := f.pop(name)
		r, ok := cast(v, ins.To)
		if !ok {
			f.unhandled("cast %s %s", ins.From, ins.To)
			return nil, nil, nil
		}
		f.push(r)

	case bytecode.OpGoto:
		if ins.Target == pc {
			f.halt(Verdict{Kind: InfiniteLoop})
			return nil, nil, nil
		}
		f.PC = ins.Target
		return nil, nil, nil

	case bytecode.OpIf, bytecode.OpIfz:
		taken, ok := m.compare(f, ins)
		if !ok {
			return nil, nil, nil
		}
		if taken {
			f.PC = ins.Target
			return nil, nil, nil
		}

	case bytecode.OpReturn:
		if !ins.Type.IsVoid() {
			f.Result = f.pop(name)
		}
		f.halt(Verdict{Kind: Ok})
		return nil, nil, nil

	case bytecode.OpThrow:
		v := f.pop(name)
		switch v.Kind {
		case KindAssertionPending:
			f.halt(Verdict{Kind: AssertionError})
		case KindNull:
			f.halt(Verdict{Kind: NullPointer})
		case KindObject:
			f.halt(Verdict{Kind: Thrown, Detail: v.Object.Class})
		default:
			f.halt(Verdict{Kind: Thrown, Detail: v.String()})
		}
		return nil, nil, nil

	case bytecode.OpGet:
		if !ins.Static || ins.Field.Name != bytecode.AssertionsDisabledField {
			f.unhandled("get %s.%s", ins.Field.Class, ins.Field.Name)
			return nil, nil, nil
		}
		f.push(BoolValue(false))

	case bytecode.OpNew:
		if ins.Class == bytecode.AssertionErrorClass {
			f.push(assertionPending)
		} else {
			f.push(ObjectValue(ins.Class))
		}

	case bytecode.OpNewArray:
		m.newArray(f, ins)
		if f.Halted() {
			return nil, nil, nil
		}

	case bytecode.OpArrayLoad:
		index := f.pop(name)
		arr, ok := arrayOperand(f, f.pop(name), index)
		if !ok {
			return nil, nil, nil
		}
		f.push(arr.Elements[index.Int])

	case bytecode.OpArrayStore:
		v := f.pop(name)
		index := f.pop(name)
		arr, ok := arrayOperand(f, f.pop(name), index)
		if !ok {
			return nil, nil, nil
		}
		arr.Elements[index.Int] = coerceElement(arr.Elem, v)

	case bytecode.OpArrayLength:
		ref := f.pop(name)
		switch ref.Kind {
		case KindNull:
			f.halt(Verdict{Kind: NullPointer})
			return nil, nil, nil
		case KindArray:
			f.push(IntValue(int32(ref.Array.Len())))
		default:
			f.unhandled("arraylength of %s", ref.Kind)
			return nil, nil, nil
		}

	case bytecode.OpInvoke:
		return m.invoke(f, ins)

	default:
		f.unhandled("'%s'", name)
		return nil, nil, nil
	}
	f.PC = pc + 1
	return nil, nil, nil
}

func constantValue(c *bytecode.Constant) (Value, bool) {
	if c == nil {
		return NullValue(), true
	}
	switch c.Kind {
	case bytecode.ConstInteger:
		return IntValue(c.Int), true
	case bytecode.ConstBoolean:
		return BoolValue(c.Int != 0), true
	case bytecode.ConstChar:
		return CharValue(ToChar(c.Int)), true
	case bytecode.ConstString:
		return StringValue(c.Text), true
	}
	return Value{}, false
}

// intLike reports whether arithmetic in t happens on int32.
func intLike(t bytecode.Type) bool {
	switch t {
	case bytecode.Int, bytecode.Short, bytecode.Byte, bytecode.Char, bytecode.Boolean:
		return true
	}
	return false
}

func (m *Machine) binary(f *Frame, ins *bytecode.Instruction) {
	name := ins.Name()
	right := f.pop(name)
	left := f.pop(name)
	if !intLike(ins.Type) || ins.Operator == bytecode.BinUnknown {
		op := ins.Operator.String()
		if ins.Operator == bytecode.BinUnknown {
			op = ins.Raw
		}
		f.unhandled("binary %s %s", ins.Type, op)
		return
	}
	if !left.IsNumeric() || !right.IsNumeric() {
		f.unhandled("binary %s on %s and %s", ins.Operator, left.Kind, right.Kind)
		return
	}
	a, b := left.Int, right.Int
	var r int32
	switch ins.Operator {
	case bytecode.BinAdd:
		r = a + b
	case bytecode.BinSub:
		r = a - b
	case bytecode.BinMul:
		r = a * b
	case bytecode.BinDiv, bytecode.BinRem:
		if b == 0 {
			f.halt(Verdict{Kind: DivideByZero})
			return
		}
		if ins.Operator == bytecode.BinDiv {
			r = a / b
		} else {
			r = a % b
		}
	}
	f.push(IntValue(r))
}

func cast(v Value, to bytecode.Type) (Value, bool) {
	if !v.IsNumeric() {
		return Value{}, false
	}
	switch to {
	case bytecode.Short:
		return IntValue(ToShort(v.Int)), true
	case bytecode.Byte:
		return IntValue(ToByte(v.Int)), true
	case bytecode.Char:
		return CharValue(ToChar(v.Int)), true
	case bytecode.Int:
		return IntValue(v.Int), true
	}
	return Value{}, false
}

// compare evaluates an if or ifz. ok is false when f has halted.
func (m *Machine) compare(f *Frame, ins *bytecode.Instruction) (taken, ok bool) {
	name := ins.Name()
	if ins.Cond == bytecode.CondUnknown {
		f.unhandled("%s %s", ins.Op, ins.Raw)
		return false, false
	}
	var left, right Value
	if ins.Op == bytecode.OpIfz {
		left = f.pop(name)
		if left.IsReference() {
			right = NullValue()
		} else {
			right = IntValue(0)
		}
	} else {
		right = f.pop(name)
		left = f.pop(name)
	}

	switch {
	case left.IsNumeric() && right.IsNumeric():
		return ins.Cond.Holds(left.Int, right.Int), true
	case left.IsReference() && right.IsReference():
		switch ins.Cond {
		case bytecode.CondEq:
			return sameRef(left, right), true
		case bytecode.CondNe:
			return !sameRef(left, right), true
		}
	}
	f.unhandled("%s %s on %s and %s", ins.Op, ins.Cond, left.Kind, right.Kind)
	return false, false
}

func (m *Machine) newArray(f *Frame, ins *bytecode.Instruction) {
	dim := ins.Dim
	if dim < 1 {
		dim = 1
	}
	sizes := f.popN(dim, ins.Name())
	counts := make([]int32, dim)
	total := int64(1)
	for i, s := range sizes {
		if !s.IsNumeric() {
			f.unhandled("newarray size of kind %s", s.Kind)
			return
		}
		if s.Int < 0 {
			f.halt(Verdict{Kind: Thrown, Detail: "java/lang/NegativeArraySizeException"})
			return
		}
		counts[i] = s.Int
		total *= max(int64(s.Int), 1)
		if total > MaxArrayLength {
			f.halt(Verdict{Kind: Thrown, Detail: "java/lang/OutOfMemoryError"})
			return
		}
	}
	f.push(ArrayValue(buildArray(ins.Type, counts)))
}

// arrayOperand checks an array access in the order the JVM does: null
// reference first, then the index bounds.
func arrayOperand(f *Frame, ref, index Value) (*Array, bool) {
	switch ref.Kind {
	case KindNull:
		f.halt(Verdict{Kind: NullPointer})
		return nil, false
	case KindArray:
	default:
		f.unhandled("array access on %s", ref.Kind)
		return nil, false
	}
	if !index.IsNumeric() {
		f.unhandled("array index of kind %s", index.Kind)
		return nil, false
	}
	if !ref.Array.InBounds(index.Int) {
		f.halt(Verdict{Kind: OutOfBounds})
		return nil, false
	}
	return ref.Array, true
}

func (m *Machine) invoke(f *Frame, ins *bytecode.Instruction) (*bytecode.Method, []Value, error) {
	ref := ins.Method
	if ref.Class == bytecode.AssertionErrorClass && ref.Name == "<init>" {
		f.popN(len(ref.Params), ins.Name())
		if len(f.Stack) == 0 || f.peek(ins.Name()).Kind != KindAssertionPending {
			f.push(assertionPending)
		}
		f.PC++
		return nil, nil, nil
	}
	if m.resolver == nil {
		return nil, nil, fmt.Errorf("%w %s", ErrNoResolver, ref)
	}
	callee, err := m.resolver.Resolve(ref)
	if err != nil {
		return nil, nil, err
	}
	if len(m.frames) >= m.opts.MaxDepth {
		f.halt(Verdict{Kind: Thrown, Detail: "java/lang/StackOverflowError"})
		return nil, nil, nil
	}
	args := f.popN(callee.Arity(), ins.Name())
	if !callee.Static && args[0].IsNull() {
		f.halt(Verdict{Kind: NullPointer})
		return nil, nil, nil
	}
	return callee, args, nil
}
