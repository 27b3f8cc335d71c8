package bytecode

import (
	"bytes"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// jvm2json document shapes. Only the fields the interpreter needs are
// declared; everything else in the document is ignored.

type rawClass struct {
	Name    string      `json:"name"`
	Methods []rawMethod `json:"methods"`
}

type rawMethod struct {
	Name    string     `json:"name"`
	Access  []string   `json:"access"`
	Params  []rawParam `json:"params"`
	Returns rawParam   `json:"returns"`
	Code    *rawCode   `json:"code"`
}

type rawParam struct {
	Type rawType `json:"type"`
}

type rawCode struct {
	MaxLocals int              `json:"max_locals"`
	Bytecode  []rawInstruction `json:"bytecode"`
}

type rawInstruction struct {
	Opr       string          `json:"opr"`
	Value     json.RawMessage `json:"value"`
	Type      rawType         `json:"type"`
	Target    int             `json:"target"`
	Condition string          `json:"condition"`
	Index     int             `json:"index"`
	Amount    int32           `json:"amount"`
	Class     string          `json:"class"`
	Field     *rawField       `json:"field"`
	Static    bool            `json:"static"`
	Dim       int             `json:"dim"`
	Operant   string          `json:"operant"`
	From      rawType         `json:"from"`
	To        rawType         `json:"to"`
	Access    string          `json:"access"`
	Method    *rawMethodRef   `json:"method"`
}

type rawField struct {
	Class string  `json:"class"`
	Name  string  `json:"name"`
	Type  rawType `json:"type"`
}

type rawMethodRef struct {
	Ref     rawClassRef `json:"ref"`
	Name    string      `json:"name"`
	Args    []rawType   `json:"args"`
	Returns rawType     `json:"returns"`
}

type rawClassRef struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

type rawValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// rawType accepts every spelling jvm2json uses for a type: null, a primitive
// name ("int"), {"base": "int"}, {"kind": "array", "type": ...},
// {"kind": "class", "name": ...} and the {"type": ...} wrapper.
type rawType struct {
	T Type
}

func (r *rawType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		r.T = ""
		return nil
	}
	if data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		r.T = TypeFromName(name)
		return nil
	}

	var obj struct {
		Base *string  `json:"base"`
		Kind string   `json:"kind"`
		Name string   `json:"name"`
		Type *rawType `json:"type"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	switch {
	case obj.Base != nil:
		r.T = TypeFromName(*obj.Base)
	case obj.Kind == "array":
		if obj.Type == nil || obj.Type.T == "" {
			return fmt.Errorf("array type without element type")
		}
		r.T = ArrayOf(obj.Type.T)
	case obj.Kind == "class":
		r.T = ClassType(obj.Name)
	case obj.Type != nil:
		r.T = obj.Type.T
	default:
		r.T = ""
	}
	return nil
}

// DecodeClass reads one jvm2json class document.
func DecodeClass(r io.Reader) (*Class, error) {
	var raw rawClass
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("bytecode: decode class: %w", err)
	}
	cls := &Class{Name: raw.Name}
	for i := range raw.Methods {
		m, err := decodeMethod(raw.Name, &raw.Methods[i])
		if err != nil {
			return nil, err
		}
		cls.Methods = append(cls.Methods, m)
	}
	return cls, nil
}

// DecodeInstructions decodes a bare jvm2json bytecode list.
func DecodeInstructions(data []byte) ([]Instruction, error) {
	var raw []rawInstruction
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("bytecode: decode instructions: %w", err)
	}
	return decodeInstructions(raw)
}

func decodeMethod(class string, raw *rawMethod) (*Method, error) {
	m := &Method{
		Class:   class,
		Name:    raw.Name,
		Returns: raw.Returns.Type.T,
	}
	if m.Returns == "" {
		m.Returns = Void
	}
	for _, a := range raw.Access {
		if a == "static" {
			m.Static = true
		}
	}
	for _, p := range raw.Params {
		m.Params = append(m.Params, p.Type.T)
	}
	if raw.Code == nil {
		return m, nil
	}
	m.MaxLocals = raw.Code.MaxLocals
	code, err := decodeInstructions(raw.Code.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("bytecode: method %s.%s: %w", class, raw.Name, err)
	}
	m.Code = code
	return m, nil
}

func decodeInstructions(raw []rawInstruction) ([]Instruction, error) {
	code := make([]Instruction, len(raw))
	for i := range raw {
		ins, err := decodeInstruction(&raw[i])
		if err != nil {
			return nil, fmt.Errorf("instruction %d (%s): %w", i, raw[i].Opr, err)
		}
		code[i] = ins
	}
	return code, nil
}

func decodeInstruction(raw *rawInstruction) (Instruction, error) {
	op, ok := LookupOpcode(raw.Opr)
	if !ok {
		return Instruction{Op: OpUnknown, Raw: raw.Opr}, nil
	}
	ins := Instruction{Op: op, Type: raw.Type.T}

	switch op {
	case OpPush:
		c, err := decodeConstant(raw.Value)
		if err != nil {
			return ins, err
		}
		ins.Value = c

	case OpReturn:
		if ins.Type == "" {
			ins.Type = Void
		}

	case OpGet:
		ins.Static = raw.Static
		if raw.Field != nil {
			ins.Field = FieldRef{Class: raw.Field.Class, Name: raw.Field.Name, Type: raw.Field.Type.T}
		}

	case OpGoto:
		ins.Target = raw.Target

	case OpIf, OpIfz:
		ins.Target = raw.Target
		ins.Cond = ParseCondition(raw.Condition)
		if ins.Cond == CondUnknown {
			ins.Raw = raw.Condition
		}

	case OpLoad, OpStore:
		ins.Index = raw.Index

	case OpIncr:
		ins.Index = raw.Index
		ins.Amount = raw.Amount

	case OpNew:
		ins.Class = raw.Class

	case OpNewArray:
		ins.Dim = raw.Dim
		if ins.Dim == 0 {
			ins.Dim = 1
		}

	case OpBinary:
		ins.Operator = ParseBinaryOp(raw.Operant)
		if ins.Operator == BinUnknown {
			ins.Raw = raw.Operant
		}

	case OpCast:
		ins.From = raw.From.T
		ins.To = raw.To.T

	case OpInvoke:
		ins.Access = raw.Access
		ins.Static = raw.Access == "static"
		if raw.Method == nil {
			return ins, fmt.Errorf("invoke without method")
		}
		ins.Method = MethodRef{
			Class:   raw.Method.Ref.Name,
			Name:    raw.Method.Name,
			Returns: raw.Method.Returns.T,
		}
		if ins.Method.Returns == "" {
			ins.Method.Returns = Void
		}
		for _, a := range raw.Method.Args {
			ins.Method.Params = append(ins.Method.Params, a.T)
		}
	}
	return ins, nil
}

func decodeConstant(data json.RawMessage) (*Constant, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var v rawValue
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	switch v.Type {
	case "integer", "int", "short", "byte":
		var n int32
		if err := json.Unmarshal(v.Value, &n); err != nil {
			return nil, fmt.Errorf("integer constant: %w", err)
		}
		return &Constant{Kind: ConstInteger, Int: n}, nil
	case "boolean":
		var b bool
		if err := json.Unmarshal(v.Value, &b); err != nil {
			return nil, fmt.Errorf("boolean constant: %w", err)
		}
		c := &Constant{Kind: ConstBoolean}
		if b {
			c.Int = 1
		}
		return c, nil
	case "char":
		// either a one-character string or its code point
		var s string
		if err := json.Unmarshal(v.Value, &s); err == nil && len([]rune(s)) == 1 {
			return &Constant{Kind: ConstChar, Int: int32([]rune(s)[0])}, nil
		}
		var n int32
		if err := json.Unmarshal(v.Value, &n); err != nil {
			return nil, fmt.Errorf("char constant: %s", v.Value)
		}
		return &Constant{Kind: ConstChar, Int: n}, nil
	case "string":
		var s string
		if err := json.Unmarshal(v.Value, &s); err != nil {
			return nil, fmt.Errorf("string constant: %w", err)
		}
		return &Constant{Kind: ConstString, Text: s}, nil
	}
	return &Constant{Kind: ConstUnsupported, Text: v.Type}, nil
}
