// Package bytecode models the instruction subset of decompiled JVM methods
// that the oracle interprets.
//
// Methods arrive as jvm2json class documents: one JSON object per class with
// a list of methods, each carrying an ordered bytecode list whose branch
// targets are list indices. Decoding turns every entry into an immutable
// Instruction tagged with a closed Opcode.
//
// # Architecture Overview
//
//   - Opcodes: the closed set of operations the interpreter understands.
//     Anything else decodes to OpUnknown and keeps its raw name so the
//     interpreter can report it as a coverage gap.
//
//   - Types: JVM field descriptors ("I", "Z", "[I", "Ljava/lang/String;")
//     used for parameters, return types and typed operands.
//
//   - Instruction and Method: the decoded program. A Method is addressed by
//     integer program counter.
//
//   - Disassembly: a readable listing of a decoded method for debugging.
//
// Decoding never fails on an unsupported instruction. Malformed JSON and
// structurally impossible documents are errors; semantic gaps are left for
// the interpreter to classify.
package bytecode
