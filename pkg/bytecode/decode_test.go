package bytecode

import (
	"os"
	"strings"
	"testing"
)

func loadSimple(t *testing.T) *Class {
	t.Helper()
	f, err := os.Open("testdata/Simple.json")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cls, err := DecodeClass(f)
	if err != nil {
		t.Fatalf("DecodeClass: %v", err)
	}
	return cls
}

func TestDecodeClass(t *testing.T) {
	cls := loadSimple(t)
	if cls.Name != "jpamb/cases/Simple" {
		t.Errorf("name = %q", cls.Name)
	}
	if len(cls.Methods) != 8 {
		t.Fatalf("methods = %d, want 8", len(cls.Methods))
	}

	m := cls.FindMethod("divideByN", []Type{Int})
	if m == nil {
		t.Fatal("divideByN(I) not found")
	}
	if !m.Static || m.Returns != Int || m.MaxLocals != 1 || len(m.Code) != 4 {
		t.Errorf("divideByN = %+v", m)
	}
	if m.Arity() != 1 {
		t.Errorf("arity = %d, want 1", m.Arity())
	}
	if cls.FindMethod("divideByN", []Type{Char}) != nil {
		t.Error("parameter types must match")
	}

	ctor := cls.FindMethod("<init>", nil)
	if ctor == nil || ctor.Static || ctor.Arity() != 1 {
		t.Errorf("constructor = %+v", ctor)
	}
}

func TestDecodeInstructions(t *testing.T) {
	cls := loadSimple(t)

	assert := cls.FindMethod("assertPositive", []Type{Int})
	if assert == nil {
		t.Fatal("assertPositive not found")
	}
	tests := []struct {
		pc   int
		want string
	}{
		{0, "get jpamb/cases/Simple.$assertionsDisabled"},
		{1, "ifz ne 8"},
		{2, "load int 0"},
		{4, "new java/lang/AssertionError"},
		{6, "invoke special java/lang/AssertionError.<init>()V"},
		{8, "return void"},
	}
	for _, tt := range tests {
		if got := assert.Code[tt.pc].String(); got != tt.want {
			t.Errorf("pc %d = %q, want %q", tt.pc, got, tt.want)
		}
	}
	if assert.Returns != Void {
		t.Errorf("returns = %q, want V", assert.Returns)
	}
	get := assert.Code[0]
	if !get.Static || get.Field.Name != AssertionsDisabledField || get.Field.Type != Boolean {
		t.Errorf("get = %+v", get)
	}

	first := cls.FindMethod("first", []Type{ArrayOf(Int)})
	if first == nil {
		t.Fatal("first([I) not found")
	}

	twice := cls.FindMethod("twice", []Type{Int})
	call := twice.Code[1]
	if call.Op != OpInvoke || !call.Static || call.Method.Class != "jpamb/cases/Simple" || call.Method.Returns != Int {
		t.Errorf("invoke = %+v", call)
	}
	if len(call.Method.Params) != 1 || call.Method.Params[0] != Int {
		t.Errorf("invoke params = %v", call.Method.Params)
	}
	if mul := twice.Code[3]; mul.Operator != BinMul || mul.Type != Int {
		t.Errorf("binary = %+v", mul)
	}

	cast := cls.FindMethod("shortOf", []Type{Int}).Code[1]
	if cast.From != Int || cast.To != Short {
		t.Errorf("cast = %+v", cast)
	}

	push := cls.FindMethod("divideByN", []Type{Int}).Code[0]
	if push.Value == nil || push.Value.Kind != ConstInteger || push.Value.Int != 1 {
		t.Errorf("push = %+v", push.Value)
	}
}

func TestDecodeUnknownOperation(t *testing.T) {
	cls := loadSimple(t)
	locked := cls.FindMethod("locked", nil)
	if locked.Code[0].Op != OpUnknown || locked.Code[0].Name() != "monitorenter" {
		t.Errorf("unknown op = %+v", locked.Code[0])
	}
}

func TestDecodeConstants(t *testing.T) {
	code, err := DecodeInstructions([]byte(`[
		{"opr": "push", "value": null},
		{"opr": "push", "value": {"type": "boolean", "value": true}},
		{"opr": "push", "value": {"type": "char", "value": 97}},
		{"opr": "push", "value": {"type": "string", "value": "hi"}},
		{"opr": "push", "value": {"type": "float", "value": 1.5}},
		{"opr": "binary", "type": "int", "operant": "shl"},
		{"opr": "newarray", "type": "char"}
	]`))
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	if code[0].Value != nil {
		t.Errorf("null push = %v", code[0].Value)
	}
	if c := code[1].Value; c.Kind != ConstBoolean || c.Int != 1 {
		t.Errorf("boolean = %+v", c)
	}
	if c := code[2].Value; c.Kind != ConstChar || c.Int != 'a' {
		t.Errorf("char = %+v", c)
	}
	if c := code[3].Value; c.Kind != ConstString || c.Text != "hi" {
		t.Errorf("string = %+v", c)
	}
	if c := code[4].Value; c.Kind != ConstUnsupported {
		t.Errorf("float = %+v", c)
	}
	if b := code[5]; b.Operator != BinUnknown || b.Raw != "shl" {
		t.Errorf("shl = %+v", b)
	}
	if a := code[6]; a.Dim != 1 || a.Type != Char {
		t.Errorf("newarray = %+v", a)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := DecodeClass(strings.NewReader("{")); err == nil {
		t.Error("truncated document should fail")
	}
	if _, err := DecodeInstructions([]byte(`[{"opr": "invoke", "access": "static"}]`)); err == nil {
		t.Error("invoke without method should fail")
	}
}
