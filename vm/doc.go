// Package vm implements the oracle's bytecode interpreter.
//
// This package contains:
//   - the tagged Value model (int, char, boolean, array and object references)
//   - call frames and the opcode transition function
//   - the Machine, which owns an explicit frame stack and the shared step budget
//   - the cycle detector that classifies repeating loop iterations
//   - verdicts, the closed set of terminal outcomes of a run
//
// A run never returns a Go error for a fault in the program under analysis.
// Divide by zero, null dereference, failed assertions and the like end the
// run with a Verdict. Go errors are reserved for failures of the run itself,
// such as a callee that cannot be resolved.
package vm
