// Package inputs turns benchmark input literals and random samples into
// typed interpreter values.
//
// The literal syntax is the one the benchmark uses for test cases:
//
//	(1, true, 'a', null, [I:1,2,3], [C:'h','i'], [Z:])
package inputs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/jpamb-oracle/pkg/bytecode"
	"github.com/chazu/jpamb-oracle/vm"
)

// SyntaxError reports a malformed input literal.
type SyntaxError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("inputs: %s at offset %d in %q", e.Msg, e.Offset, e.Input)
}

// Parse reads a parenthesised, comma separated list of literals.
func Parse(s string) ([]vm.Value, error) {
	p := &parser{src: s}
	p.skipSpace()
	if !p.consume('(') {
		return nil, p.errorf("expected '('")
	}
	var out []vm.Value
	p.skipSpace()
	if p.consume(')') {
		return out, p.end()
	}
	for {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		p.skipSpace()
		if p.consume(')') {
			return out, p.end()
		}
		if !p.consume(',') {
			return nil, p.errorf("expected ',' or ')'")
		}
	}
}

// Check reports whether values fit the declared parameter types.
func Check(params []bytecode.Type, values []vm.Value) error {
	if len(params) != len(values) {
		return fmt.Errorf("inputs: %d values for %d parameters", len(values), len(params))
	}
	for i, t := range params {
		if !fits(t, values[i]) {
			return fmt.Errorf("inputs: argument %d: %s does not fit %s", i, values[i], t)
		}
	}
	return nil
}

func fits(t bytecode.Type, v vm.Value) bool {
	switch {
	case v.IsNull():
		return t.IsReference()
	case t == bytecode.Boolean:
		return v.Kind == vm.KindBool
	case t == bytecode.Char:
		return v.Kind == vm.KindChar
	case t == bytecode.Int || t == bytecode.Short || t == bytecode.Byte:
		return v.Kind == vm.KindInt || v.Kind == vm.KindChar
	case t.IsArray():
		return v.Kind == vm.KindArray && v.Array.Elem == t.Elem()
	}
	return v.Kind == vm.KindObject
}

// Format renders values in the literal syntax accepted by Parse.
func Format(values []vm.Value) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, v := range values {
		if i > 0 {
			sb.WriteString(", ")
		}
		formatValue(&sb, v)
	}
	sb.WriteByte(')')
	return sb.String()
}

func formatValue(sb *strings.Builder, v vm.Value) {
	if v.Kind != vm.KindArray {
		sb.WriteString(v.String())
		return
	}
	sb.WriteByte('[')
	sb.WriteString(string(v.Array.Elem))
	sb.WriteByte(':')
	for i, e := range v.Array.Elements {
		if i > 0 {
			sb.WriteByte(',')
		}
		formatValue(sb, e)
	}
	sb.WriteByte(']')
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Input: p.src, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && strings.ContainsRune(" \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) consume(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) end() error {
	p.skipSpace()
	if p.pos != len(p.src) {
		return p.errorf("trailing input")
	}
	return nil
}

func (p *parser) value() (vm.Value, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '[':
		return p.array()
	case c == '\'':
		return p.char()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.int()
	case c >= 'a' && c <= 'z':
		word := p.word()
		switch word {
		case "true":
			return vm.BoolValue(true), nil
		case "false":
			return vm.BoolValue(false), nil
		case "null":
			return vm.NullValue(), nil
		}
		return vm.Value{}, p.errorf("unknown literal %q", word)
	}
	return vm.Value{}, p.errorf("expected a value")
}

func (p *parser) word() string {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= 'a' && p.src[p.pos] <= 'z' {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) int() (vm.Value, error) {
	start := p.pos
	p.consume('-')
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	text := p.src[start:p.pos]
	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		p.pos = start
		return vm.Value{}, p.errorf("bad integer %q", text)
	}
	return vm.IntValue(int32(n)), nil
}

func (p *parser) char() (vm.Value, error) {
	start := p.pos
	end := -1
	for i := start + 1; i < len(p.src); i++ {
		if p.src[i] == '\\' {
			i++
		} else if p.src[i] == '\'' {
			end = i
			break
		}
	}
	if end < 0 {
		return vm.Value{}, p.errorf("unterminated char")
	}
	lit := p.src[start : end+1]
	r, _, tail, err := strconv.UnquoteChar(lit[1:len(lit)-1], '\'')
	if err != nil || tail != "" || r > 0xFFFF {
		return vm.Value{}, p.errorf("bad char %s", lit)
	}
	p.pos = start + len(lit)
	return vm.CharValue(uint16(r)), nil
}

func (p *parser) array() (vm.Value, error) {
	p.consume('[')
	p.skipSpace()
	var elem bytecode.Type
	switch p.peek() {
	case 'I':
		elem = bytecode.Int
	case 'C':
		elem = bytecode.Char
	case 'Z':
		elem = bytecode.Boolean
	default:
		return vm.Value{}, p.errorf("unsupported array type")
	}
	p.pos++
	p.skipSpace()
	if !p.consume(':') {
		return vm.Value{}, p.errorf("expected ':' after array type")
	}

	arr := vm.ArrayOf(elem)
	p.skipSpace()
	if p.consume(']') {
		return vm.ArrayValue(arr), nil
	}
	for {
		start := p.pos
		v, err := p.value()
		if err != nil {
			return vm.Value{}, err
		}
		if !fits(elem, v) || v.IsNull() {
			p.pos = start
			return vm.Value{}, p.errorf("%s in %s array", v, elem)
		}
		if elem == bytecode.Int {
			v = vm.IntValue(v.Int)
		}
		arr.Elements = append(arr.Elements, v)
		p.skipSpace()
		if p.consume(']') {
			return vm.ArrayValue(arr), nil
		}
		if !p.consume(',') {
			return vm.Value{}, p.errorf("expected ',' or ']'")
		}
	}
}
