package vm

import "strings"

// VerdictKind is the terminal classification of a frame.
type VerdictKind uint8

const (
	// Running is the zero kind: no verdict yet.
	Running VerdictKind = iota
	Ok
	AssertionError
	DivideByZero
	NullPointer
	OutOfBounds
	InfiniteLoop
	OutOfTime
	// Unhandled is a coverage gap in the interpreter, never a program fault.
	Unhandled
	// Thrown is a non-assertion throwable; Detail carries its description.
	Thrown
)

var verdictLabels = [...]string{
	Running:        "",
	Ok:             "ok",
	AssertionError: "assertion error",
	DivideByZero:   "divide by zero",
	NullPointer:    "null pointer",
	OutOfBounds:    "out of bounds",
	InfiniteLoop:   "*",
	OutOfTime:      "out of time",
	Unhandled:      "can't handle",
	Thrown:         "",
}

// BenchmarkLabels are the outcome labels the benchmark scores, in report
// order.
var BenchmarkLabels = []string{"ok", "assertion error", "divide by zero", "out of bounds", "null pointer", "*"}

// Verdict is the outcome of a frame. The zero Verdict means still running.
type Verdict struct {
	Kind   VerdictKind
	Detail string
}

// Done reports whether a verdict has been set.
func (v Verdict) Done() bool {
	return v.Kind != Running
}

// IsFault reports whether v is one of the modeled program faults.
func (v Verdict) IsFault() bool {
	switch v.Kind {
	case AssertionError, DivideByZero, NullPointer, OutOfBounds, Thrown:
		return true
	}
	return false
}

// Label returns the benchmark spelling of the verdict: "ok",
// "divide by zero", "*" for an infinite loop, "can't handle 'x'" for
// coverage gaps and the thrown description for other throwables.
func (v Verdict) Label() string {
	switch v.Kind {
	case Unhandled:
		return "can't handle " + v.Detail
	case Thrown:
		return v.Detail
	}
	if int(v.Kind) < len(verdictLabels) {
		return verdictLabels[v.Kind]
	}
	return ""
}

// String is like Label but spells out the infinite loop.
func (v Verdict) String() string {
	switch v.Kind {
	case Running:
		return "running"
	case InfiniteLoop:
		return "infinite loop"
	}
	return v.Label()
}

// ParseLabel maps a benchmark label back to a Verdict. "infinite loop" is
// accepted as a synonym for "*".
func ParseLabel(s string) (Verdict, bool) {
	s = strings.TrimSpace(s)
	if s == "infinite loop" {
		return Verdict{Kind: InfiniteLoop}, true
	}
	if rest, ok := strings.CutPrefix(s, "can't handle "); ok {
		return Verdict{Kind: Unhandled, Detail: rest}, true
	}
	for k := Ok; k <= OutOfTime; k++ {
		if verdictLabels[k] == s {
			return Verdict{Kind: k}, true
		}
	}
	return Verdict{}, false
}
