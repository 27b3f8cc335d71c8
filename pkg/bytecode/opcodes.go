package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// The set is closed: the interpreter dispatches exhaustively over it and
// anything the decoder does not recognise becomes OpUnknown.
type Opcode byte

const (
	OpUnknown Opcode = iota

	// ========================================================================
	// Stack and locals
	// ========================================================================

	OpPush  // Push constant or null: push <value>
	OpDup   // Duplicate top of stack
	OpLoad  // Push local: load <index>
	OpStore // Pop into local: store <index>
	OpIncr  // Add constant to local in place: incr <index> <amount>

	// ========================================================================
	// Arithmetic and conversion
	// ========================================================================

	OpBinary // Pop right, left; push left <op> right: binary <type> <op>
	OpCast   // Pop, truncate, push: cast <from> <to>

	// ========================================================================
	// Control flow
	// ========================================================================

	OpGoto   // Unconditional jump: goto <target>
	OpIf     // Pop two, compare, jump: if <cond> <target>
	OpIfz    // Pop one, compare with zero, jump: ifz <cond> <target>
	OpReturn // Halt the frame with verdict ok: return <type|void>
	OpThrow  // Pop and raise

	// ========================================================================
	// Objects, fields and calls
	// ========================================================================

	OpGet    // Read a static field: get <class>.<name>
	OpNew    // Allocate an instance: new <class>
	OpInvoke // Call a method: invoke <access> <class>.<name>(<args>)<ret>

	// ========================================================================
	// Arrays
	// ========================================================================

	OpNewArray    // Pop dim sizes, allocate: newarray <type> <dim>
	OpArrayLoad   // Pop index, array; push element
	OpArrayStore  // Pop value, index, array; store element
	OpArrayLength // Pop array; push length
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name      string // jvm2json "opr" spelling
	StackPop  int    // values popped (-1 = depends on operands)
	StackPush int    // values pushed (-1 = depends on operands)
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpPush:  {"push", 0, 1},
	OpDup:   {"dup", 1, 2},
	OpLoad:  {"load", 0, 1},
	OpStore: {"store", 1, 0},
	OpIncr:  {"incr", 0, 0},

	OpBinary: {"binary", 2, 1},
	OpCast:   {"cast", 1, 1},

	OpGoto:   {"goto", 0, 0},
	OpIf:     {"if", 2, 0},
	OpIfz:    {"ifz", 1, 0},
	OpReturn: {"return", -1, 0},
	OpThrow:  {"throw", 1, 0},

	OpGet:    {"get", 0, 1},
	OpNew:    {"new", 0, 1},
	OpInvoke: {"invoke", -1, -1},

	OpNewArray:    {"newarray", -1, 1},
	OpArrayLoad:   {"array_load", 2, 1},
	OpArrayStore:  {"array_store", 3, 0},
	OpArrayLength: {"arraylength", 1, 1},
}

var opcodeByName map[string]Opcode

func init() {
	opcodeByName = make(map[string]Opcode, len(opcodeInfoTable))
	for op, info := range opcodeInfoTable {
		opcodeByName[info.Name] = op
	}
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(%d)", byte(op))}
}

// LookupOpcode maps a jvm2json operation name to its opcode.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opcodeByName[name]
	return op, ok
}

// String returns the operation name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// IsJump returns true if this opcode may transfer control to a target.
func (op Opcode) IsJump() bool {
	return op == OpGoto || op == OpIf || op == OpIfz
}

// IsArrayOp returns true if this opcode dereferences an array.
func (op Opcode) IsArrayOp() bool {
	return op >= OpArrayLoad && op <= OpArrayLength
}

// AllOpcodes returns a slice of all defined opcodes.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}

// Condition is the comparison used by if and ifz.
type Condition uint8

const (
	CondUnknown Condition = iota
	CondEq
	CondNe
	CondLt
	CondLe
	CondGt
	CondGe
)

var conditionNames = [...]string{"?", "eq", "ne", "lt", "le", "gt", "ge"}

// ParseCondition maps "eq", "ne", ... to a Condition.
func ParseCondition(s string) Condition {
	for i, name := range conditionNames {
		if i > 0 && name == s {
			return Condition(i)
		}
	}
	return CondUnknown
}

func (c Condition) String() string {
	if int(c) < len(conditionNames) {
		return conditionNames[c]
	}
	return "?"
}

// Holds evaluates the condition on two already-unwrapped operands.
func (c Condition) Holds(left, right int32) bool {
	switch c {
	case CondEq:
		return left == right
	case CondNe:
		return left != right
	case CondLt:
		return left < right
	case CondLe:
		return left <= right
	case CondGt:
		return left > right
	case CondGe:
		return left >= right
	}
	return false
}

// BinaryOp is the arithmetic operator of a binary instruction.
type BinaryOp uint8

const (
	BinUnknown BinaryOp = iota
	BinAdd
	BinSub
	BinMul
	BinDiv
	BinRem
)

var binaryOpNames = [...]string{"?", "add", "sub", "mul", "div", "rem"}

// ParseBinaryOp maps "add", "sub", ... to a BinaryOp.
func ParseBinaryOp(s string) BinaryOp {
	for i, name := range binaryOpNames {
		if i > 0 && name == s {
			return BinaryOp(i)
		}
	}
	return BinUnknown
}

func (b BinaryOp) String() string {
	if int(b) < len(binaryOpNames) {
		return binaryOpNames[b]
	}
	return "?"
}
