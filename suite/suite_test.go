package suite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/jpamb-oracle/classpath"
	"github.com/chazu/jpamb-oracle/pkg/bytecode"
	"github.com/chazu/jpamb-oracle/vm"
)

const class = "jpamb/cases/Simple"

func simpleTable() *classpath.Static {
	t := classpath.NewStatic()
	t.AddMethod(&bytecode.Method{
		Class: class, Name: "divideByN", Params: []bytecode.Type{bytecode.Int}, Returns: bytecode.Int, Static: true,
		Code: []bytecode.Instruction{
			bytecode.PushInt(1),
			bytecode.Load(bytecode.Int, 0),
			bytecode.Binary(bytecode.Int, bytecode.BinDiv),
			bytecode.Return(bytecode.Int),
		},
	})
	t.AddMethod(&bytecode.Method{
		Class: class, Name: "assertPositive", Params: []bytecode.Type{bytecode.Int}, Returns: bytecode.Void, Static: true,
		Code: []bytecode.Instruction{
			bytecode.GetAssertionsDisabled(class),
			bytecode.Ifz(bytecode.CondNe, 8),
			bytecode.Load(bytecode.Int, 0),
			bytecode.Ifz(bytecode.CondGt, 8),
			bytecode.New(bytecode.AssertionErrorClass),
			bytecode.Dup(),
			bytecode.InvokeAssertionInit(),
			bytecode.Throw(),
			bytecode.Return(bytecode.Void),
		},
	})
	t.AddMethod(&bytecode.Method{
		Class: class, Name: "spin", Returns: bytecode.Void, Static: true,
		Code: []bytecode.Instruction{bytecode.Goto(0)},
	})
	return t
}

// ============ Load ============

func TestLoad(t *testing.T) {
	s, err := Load("testdata/simple.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "simple" || len(s.Cases) != 5 {
		t.Fatalf("suite = %+v", s)
	}
	in, expect, err := s.Cases[1].Split()
	if err != nil || in != "(5)" || expect != "ok" {
		t.Errorf("Split = %q, %q, %v", in, expect, err)
	}
	if !filepath.IsAbs(s.Path) {
		t.Errorf("Path = %q", s.Path)
	}
}

func TestLoadRejects(t *testing.T) {
	for _, name := range []string{"unknown_field.yaml", "bad_label.yaml", "missing.yaml"} {
		if _, err := Load(filepath.Join("testdata", name)); err == nil {
			t.Errorf("Load(%s) should fail", name)
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		c   Case
		ok  bool
		in  string
		out string
	}{
		{Case{Method: "m", Inputs: "(1)", Expect: "ok"}, true, "(1)", "ok"},
		{Case{Method: "m", Case: "(1, 2) -> out of bounds"}, true, "(1, 2)", "out of bounds"},
		{Case{Method: "m", Case: "(1)"}, false, "", ""},
		{Case{Method: "m", Inputs: "(1)"}, false, "", ""},
		{Case{Method: "m", Case: "(1) -> ok", Expect: "ok"}, false, "", ""},
	}
	for _, tt := range tests {
		in, out, err := tt.c.Split()
		if (err == nil) != tt.ok || in != tt.in || out != tt.out {
			t.Errorf("Split(%+v) = %q, %q, %v", tt.c, in, out, err)
		}
	}
}

// ============ Run ============

func TestRunSuite(t *testing.T) {
	s, err := Load("testdata/simple.yaml")
	if err != nil {
		t.Fatal(err)
	}
	results, err := Run(context.Background(), simpleTable(), s, vm.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, r := range results {
		if !r.Pass() {
			t.Errorf("%s", r)
		}
	}
	if sum := Summarize(results); !sum.OK() || sum.Passed != 5 {
		t.Errorf("Summary = %+v", sum)
	}
}

func TestRunReportsFailuresAndErrors(t *testing.T) {
	s := &Suite{Cases: []Case{
		{Method: "jpamb.cases.Simple.divideByN:(I)I", Case: "(0) -> ok"},
		{Method: "jpamb.cases.Simple.gone:()V", Case: "() -> ok"},
		{Method: "jpamb.cases.Simple.divideByN:(I)I", Case: "(true) -> ok"},
		{Method: "jpamb.cases.Simple.divideByN:(I)I", Case: "(1 -> ok"},
	}}
	results, err := Run(context.Background(), simpleTable(), s, vm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	sum := Summarize(results)
	if sum.Failed != 1 || sum.Errors != 3 || sum.OK() {
		t.Errorf("Summary = %+v", sum)
	}
	if got := results[0].String(); !strings.HasPrefix(got, "FAIL") || !strings.Contains(got, "divide by zero") {
		t.Errorf("String() = %q", got)
	}
	if !strings.HasPrefix(results[1].String(), "ERROR") {
		t.Errorf("String() = %q", results[1].String())
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Suite{Cases: []Case{{Method: "jpamb.cases.Simple.spin:()V", Case: "() -> *"}}}
	results, err := Run(ctx, simpleTable(), s, vm.Options{})
	if err == nil || len(results) != 0 {
		t.Errorf("Run = %v, %v", results, err)
	}
}

func TestUpdateAndWrite(t *testing.T) {
	s := &Suite{Cases: []Case{
		{Method: "jpamb.cases.Simple.divideByN:(I)I", Case: "(0) -> ok"},
		{Method: "jpamb.cases.Simple.divideByN:(I)I", Inputs: "(2)", Expect: "divide by zero"},
	}}
	results, err := Run(context.Background(), simpleTable(), s, vm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	Update(s, results)
	if s.Cases[0].Case != "(0) -> divide by zero" || s.Cases[1].Expect != "ok" {
		t.Fatalf("updated = %+v", s.Cases)
	}

	path := filepath.Join(t.TempDir(), "updated.yaml")
	if err := s.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(back.Cases) != 2 || back.Cases[0] != s.Cases[0] || back.Cases[1] != s.Cases[1] {
		t.Errorf("reloaded = %+v", back.Cases)
	}
}

func TestPassComparesUnhandledDetail(t *testing.T) {
	r := Result{Expect: "can't handle 'monitorenter'", Got: vm.Verdict{Kind: vm.Unhandled, Detail: "'monitorenter'"}}
	if !r.Pass() {
		t.Error("same unhandled detail should pass")
	}
	r.Got.Detail = "'monitorexit'"
	if r.Pass() {
		t.Error("different unhandled detail should fail")
	}
	r = Result{Expect: "java/lang/StackOverflowError", Got: vm.Verdict{Kind: vm.Thrown, Detail: "java/lang/StackOverflowError"}}
	if !r.Pass() {
		t.Error("thrown descriptions compare by label")
	}
}
