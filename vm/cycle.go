package vm

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

// Snapshot is the observable state of a frame after one step: the executed
// pc and operation, followed by a 128-bit xxh3 digest of the resulting
// locals and stack. Only the digest is kept, so a snapshot costs the same
// whatever the size of the arrays it covers.
type Snapshot struct {
	PC   int
	Op   string
	Hash xxh3.Uint128
}

func takeSnapshot(pc int, op string, locals, stack []Value) Snapshot {
	return snapshotWith(xxh3.New(), pc, op, locals, stack)
}

func snapshotWith(h *xxh3.Hasher, pc int, op string, locals, stack []Value) Snapshot {
	h.Reset()
	w := stateWriter{h: h}
	w.section('L', len(locals))
	for _, v := range locals {
		w.value(v)
	}
	w.section('S', len(stack))
	for _, v := range stack {
		w.value(v)
	}
	return Snapshot{PC: pc, Op: op, Hash: h.Sum128()}
}

// stateWriter streams a canonical encoding of values into a hasher.
type stateWriter struct {
	h   *xxh3.Hasher
	buf [5]byte
}

func (w *stateWriter) section(tag byte, n int) {
	w.buf[0] = tag
	binary.LittleEndian.PutUint32(w.buf[1:], uint32(n))
	w.h.Write(w.buf[:])
}

func (w *stateWriter) text(s string) {
	binary.LittleEndian.PutUint32(w.buf[1:], uint32(len(s)))
	w.h.Write(w.buf[1:])
	w.h.WriteString(s)
}

// value writes v's observable state. Arrays are written by content so
// that mutations show up in the cycle detector.
func (w *stateWriter) value(v Value) {
	w.buf[0] = byte(v.Kind)
	switch v.Kind {
	case KindInt, KindChar, KindBool:
		binary.LittleEndian.PutUint32(w.buf[1:], uint32(v.Int))
		w.h.Write(w.buf[:])
	case KindArray:
		w.h.Write(w.buf[:1])
		w.text(string(v.Array.Elem))
		w.section('{', len(v.Array.Elements))
		for _, e := range v.Array.Elements {
			w.value(e)
		}
	case KindObject:
		w.h.Write(w.buf[:1])
		w.text(v.Object.Class)
		w.text(v.Object.Text)
	default:
		w.h.Write(w.buf[:1])
	}
}

// Equal reports whether two snapshots describe identical state.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Hash == o.Hash && s.PC == o.PC && s.Op == o.Op
}

// Iteration is the run of snapshots between two back-edges.
type Iteration []Snapshot

// Equal reports whether both iterations executed the same step sequence.
func (it Iteration) Equal(o Iteration) bool {
	if len(it) != len(o) {
		return false
	}
	for i := range it {
		if !it[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Detector
// ---------------------------------------------------------------------------

// Detector classifies a frame's trace as periodic. Iterations close on every
// goto whose target differs from its own pc; at each checkpoint the newest
// group of iterations is compared with every earlier group, walking back to
// the start of the trace. If all of them match, the frame is looping.
//
// A loop whose state drifts (a counter, a growing array) never matches, so
// the detector can miss loops but never flags a trace whose windows differ.
type Detector struct {
	groupSize   int
	minExtra    int
	checkpoints map[int]bool

	hasher     *xxh3.Hasher
	iterations []Iteration
	current    Iteration
}

// NewDetector creates a detector whose checkpoints are the given fractions
// of remaining, truncated to step indices.
func NewDetector(groupSize, minExtra int, remaining int64, fractions []float64) *Detector {
	d := &Detector{
		groupSize:   groupSize,
		minExtra:    minExtra,
		checkpoints: make(map[int]bool, len(fractions)),
		hasher:      xxh3.New(),
	}
	for _, f := range fractions {
		d.checkpoints[int(float64(remaining)*f)] = true
	}
	return d
}

// Snapshot fingerprints the state after a step, reusing the detector's
// hasher.
func (d *Detector) Snapshot(pc int, op string, locals, stack []Value) Snapshot {
	return snapshotWith(d.hasher, pc, op, locals, stack)
}

// Record appends a snapshot to the open iteration.
func (d *Detector) Record(s Snapshot) {
	d.current = append(d.current, s)
}

// CloseIteration ends the open iteration at a back-edge.
func (d *Detector) CloseIteration() {
	d.iterations = append(d.iterations, d.current)
	d.current = nil
}

// Iterations returns the number of closed iterations.
func (d *Detector) Iterations() int {
	return len(d.iterations)
}

// IsCheckpoint reports whether the detector should run after step.
func (d *Detector) IsCheckpoint(step int) bool {
	return d.checkpoints[step]
}

// Repeating reports whether the newest group of iterations equals every
// earlier group.
func (d *Detector) Repeating() bool {
	g := d.groupSize
	total := len(d.iterations)
	if g <= 0 || total < g+d.minExtra {
		return false
	}
	newest := d.iterations[total-g:]
	compared := 0
	for i := total - g; i >= g; i -= g {
		if !sameGroup(d.iterations[i-g:i], newest) {
			return false
		}
		compared++
	}
	return compared > 0
}

func sameGroup(a, b []Iteration) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
