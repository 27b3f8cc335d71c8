package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing for the method.
func (m *Method) Disassemble() string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("; === %s ===\n", m.Ref()))
	if m.Static {
		sb.WriteString("; static\n")
	}
	if len(m.Params) > 0 {
		sb.WriteString(fmt.Sprintf("; Parameters (%d): ", len(m.Params)))
		for i, p := range m.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.String())
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("; Returns: %s\n", m.Returns))
	if m.MaxLocals > 0 {
		sb.WriteString(fmt.Sprintf("; Locals: %d slots\n", m.MaxLocals))
	}
	sb.WriteString("\n")

	targets := m.jumpTargets()
	for pc := range m.Code {
		sb.WriteString(m.DisassembleInstruction(pc, targets[pc]))
	}
	return sb.String()
}

// DisassembleInstruction formats the instruction at pc. A leading '>' marks
// a jump target.
func (m *Method) DisassembleInstruction(pc int, isTarget bool) string {
	marker := " "
	if isTarget {
		marker = ">"
	}
	ins := &m.Code[pc]
	line := fmt.Sprintf("%s%04d  %s", marker, pc, ins)
	if ins.Op.IsJump() && (ins.Target < 0 || ins.Target >= len(m.Code)) {
		line += "  ; target out of range"
	}
	if ins.Op == OpGoto && ins.Target == pc {
		line += "  ; self loop"
	}
	return line + "\n"
}

func (m *Method) jumpTargets() map[int]bool {
	targets := make(map[int]bool)
	for _, ins := range m.Code {
		if ins.Op.IsJump() {
			targets[ins.Target] = true
		}
	}
	return targets
}
