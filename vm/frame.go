package vm

import (
	"fmt"
	"strings"

	"github.com/chazu/jpamb-oracle/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// Frame: one method activation
// ---------------------------------------------------------------------------

// Frame is the interpreter state of one method activation.
type Frame struct {
	Method  *bytecode.Method
	PC      int
	Stack   []Value
	Locals  []Value
	Verdict Verdict

	// Result is the value popped by a non-void return.
	Result Value

	steps    int
	detector *Detector

	// The invoke this frame is blocked on, if any.
	calling *bytecode.Instruction
	callPC  int
}

// stackUnderflow is panicked by pop and recovered at the step boundary.
type stackUnderflow struct {
	op string
}

func newFrame(method *bytecode.Method, args []Value, detector *Detector) *Frame {
	n := method.MaxLocals
	if n < len(args) {
		n = len(args)
	}
	locals := make([]Value, n)
	copy(locals, args)
	return &Frame{
		Method:   method,
		Locals:   locals,
		Stack:    make([]Value, 0, 8),
		detector: detector,
	}
}

// Steps returns the number of instructions this frame has completed.
func (f *Frame) Steps() int {
	return f.steps
}

// Halted reports whether the frame has a verdict.
func (f *Frame) Halted() bool {
	return f.Verdict.Done()
}

// halt sets the verdict unless one is already set.
func (f *Frame) halt(v Verdict) {
	if !f.Verdict.Done() {
		f.Verdict = v
	}
}

func (f *Frame) unhandled(format string, args ...any) {
	f.halt(Verdict{Kind: Unhandled, Detail: fmt.Sprintf(format, args...)})
}

// ---------------------------------------------------------------------------
// Stack operations
// ---------------------------------------------------------------------------

func (f *Frame) push(v Value) {
	f.Stack = append(f.Stack, v)
}

func (f *Frame) pop(op string) Value {
	n := len(f.Stack)
	if n == 0 {
		panic(stackUnderflow{op: op})
	}
	v := f.Stack[n-1]
	f.Stack = f.Stack[:n-1]
	return v
}

func (f *Frame) peek(op string) Value {
	if len(f.Stack) == 0 {
		panic(stackUnderflow{op: op})
	}
	return f.Stack[len(f.Stack)-1]
}

// popN pops n values and returns them in push order.
func (f *Frame) popN(n int, op string) []Value {
	if n > len(f.Stack) {
		panic(stackUnderflow{op: op})
	}
	out := make([]Value, n)
	copy(out, f.Stack[len(f.Stack)-n:])
	f.Stack = f.Stack[:len(f.Stack)-n]
	return out
}

// ---------------------------------------------------------------------------
// Locals
// ---------------------------------------------------------------------------

func (f *Frame) load(index int) (Value, bool) {
	if index < 0 || index >= len(f.Locals) || f.Locals[index].Kind == KindUnset {
		return Value{}, false
	}
	return f.Locals[index], true
}

// store overwrites slot index, growing the locals when needed.
func (f *Frame) store(index int, v Value) {
	if index >= len(f.Locals) {
		grown := make([]Value, index+1)
		copy(grown, f.Locals)
		f.Locals = grown
	}
	f.Locals[index] = v
}

// describe renders the frame state for trace logs.
func (f *Frame) describe() (locals, stack string) {
	return joinValues(f.Locals), joinValues(f.Stack)
}

func joinValues(vs []Value) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
