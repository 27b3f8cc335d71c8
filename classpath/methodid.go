// Package classpath resolves methods to decoded bytecode. It parses the
// benchmark's method identifiers, loads jvm2json class documents from a
// decompiled directory and caches the decoded classes as CBOR.
package classpath

import (
	"fmt"
	"strings"

	"github.com/chazu/jpamb-oracle/pkg/bytecode"
)

// MethodID names a method the way the benchmark does:
//
//	jpamb.cases.Simple.divideByN:(I)I
//
// Class is kept in slash form. Returns is empty when the identifier omits
// the return type.
type MethodID struct {
	Class   string
	Name    string
	Params  []bytecode.Type
	Returns bytecode.Type
}

// ParseMethodID parses "<class>.<method>:(<params>)<return>".
func ParseMethodID(s string) (MethodID, error) {
	s = strings.TrimSpace(s)
	colon := strings.LastIndexByte(s, ':')
	if colon < 0 {
		return MethodID{}, fmt.Errorf("classpath: method id %q: missing ':'", s)
	}
	qualified, sig := s[:colon], s[colon+1:]

	dot := strings.LastIndexByte(qualified, '.')
	if dot <= 0 || dot == len(qualified)-1 {
		return MethodID{}, fmt.Errorf("classpath: method id %q: expected <class>.<method>", s)
	}
	id := MethodID{
		Class: strings.ReplaceAll(qualified[:dot], ".", "/"),
		Name:  qualified[dot+1:],
	}

	if !strings.HasPrefix(sig, "(") {
		return MethodID{}, fmt.Errorf("classpath: method id %q: expected '(' after ':'", s)
	}
	end := strings.IndexByte(sig, ')')
	if end < 0 {
		return MethodID{}, fmt.Errorf("classpath: method id %q: missing ')'", s)
	}
	params, ok := bytecode.ParseDescriptors(sig[1:end])
	if !ok {
		return MethodID{}, fmt.Errorf("classpath: method id %q: bad parameter types %q", s, sig[1:end])
	}
	id.Params = params

	if ret := sig[end+1:]; ret != "" {
		types, ok := bytecode.ParseDescriptors(ret)
		if !ok || len(types) != 1 {
			return MethodID{}, fmt.Errorf("classpath: method id %q: bad return type %q", s, ret)
		}
		id.Returns = types[0]
	}
	return id, nil
}

// MustParseMethodID is like ParseMethodID but panics on error.
func MustParseMethodID(s string) MethodID {
	id, err := ParseMethodID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Ref converts the identifier to a MethodRef. A missing return type becomes
// Void.
func (id MethodID) Ref() bytecode.MethodRef {
	ret := id.Returns
	if ret == "" {
		ret = bytecode.Void
	}
	return bytecode.MethodRef{Class: id.Class, Name: id.Name, Params: id.Params, Returns: ret}
}

// ClassName returns the class in dotted form.
func (id MethodID) ClassName() string {
	return strings.ReplaceAll(id.Class, "/", ".")
}

func (id MethodID) String() string {
	var sb strings.Builder
	sb.WriteString(id.ClassName())
	sb.WriteByte('.')
	sb.WriteString(id.Name)
	sb.WriteString(":(")
	for _, p := range id.Params {
		sb.WriteString(string(p))
	}
	sb.WriteByte(')')
	sb.WriteString(string(id.Returns))
	return sb.String()
}
