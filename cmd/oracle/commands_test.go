package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/jpamb-oracle/classpath"
	"github.com/chazu/jpamb-oracle/manifest"
)

func testEnv(t *testing.T) (*env, *bytes.Buffer) {
	t.Helper()
	m := manifest.Default()
	m.Dir = t.TempDir()
	m.Classpath.Decompiled = mustAbs(t, "testdata/decompiled")
	m.Results.Database = "results.db"
	m.Sampling.Samples = 5
	m.Sampling.Seed = 1

	var out bytes.Buffer
	old := stdout
	stdout = &out
	t.Cleanup(func() { stdout = old })

	return &env{
		manifest: m,
		loader:   classpath.NewLoader(m.DecompiledPath(), classpath.NewCache(m.CachePath())),
		opts:     m.VMOptions(),
	}, &out
}

func mustAbs(t *testing.T, p string) string {
	t.Helper()
	abs, err := filepath.Abs(p)
	if err != nil {
		t.Fatal(err)
	}
	return abs
}

func isUsage(err error) bool {
	var ue *usageError
	return errors.As(err, &ue)
}

// ============ run ============

func TestRunCommand(t *testing.T) {
	tests := []struct {
		method string
		input  string
		want   string
	}{
		{"jpamb.cases.Simple.divideByN:(I)I", "(0)", "divide by zero"},
		{"jpamb.cases.Simple.divideByN:(I)I", "(3)", "ok"},
		{"jpamb.cases.Simple.assertPositive:(I)V", "(0)", "assertion error"},
		{"jpamb.cases.Simple.first:([I)I", "([I:])", "out of bounds"},
		{"jpamb.cases.Simple.first:([I)I", "(null)", "null pointer"},
		{"jpamb.cases.Simple.spin:()V", "()", "*"},
		{"jpamb.cases.Simple.locked:()V", "()", "can't handle 'monitorenter'"},
	}
	for _, tt := range tests {
		e, out := testEnv(t)
		if err := handleRunCommand(e, []string{tt.method, tt.input}); err != nil {
			t.Errorf("run %s %s: %v", tt.method, tt.input, err)
			continue
		}
		if got := strings.TrimSpace(out.String()); got != tt.want {
			t.Errorf("run %s %s = %q, want %q", tt.method, tt.input, got, tt.want)
		}
	}
}

func TestRunCommandErrors(t *testing.T) {
	e, _ := testEnv(t)
	if err := handleRunCommand(e, []string{"only-one"}); !isUsage(err) {
		t.Errorf("missing inputs: %v", err)
	}
	if err := handleRunCommand(e, []string{"bad id", "()"}); !isUsage(err) {
		t.Errorf("bad method id: %v", err)
	}
	if err := handleRunCommand(e, []string{"jpamb.cases.Simple.spin:()V", "(("}); !isUsage(err) {
		t.Errorf("bad inputs: %v", err)
	}
	err := handleRunCommand(e, []string{"jpamb.cases.Simple.gone:()V", "()"})
	if err == nil || isUsage(err) || !errors.Is(err, classpath.ErrNotFound) {
		t.Errorf("missing method: %v", err)
	}
}

// ============ analyze ============

func TestAnalyzeCommand(t *testing.T) {
	e, out := testEnv(t)
	if err := handleAnalyzeCommand(context.Background(), e, []string{"-n", "4", "jpamb.cases.Simple.spin:()V"}); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 6 || lines[5] != "*;100%" || lines[0] != "ok;0%" {
		t.Errorf("analyze output = %q", lines)
	}
	if _, err := os.Stat(e.manifest.DatabasePath()); err != nil {
		t.Errorf("ledger not written: %v", err)
	}
}

func TestAnalyzeCommandNoRecord(t *testing.T) {
	e, _ := testEnv(t)
	if err := handleAnalyzeCommand(context.Background(), e, []string{"-no-record", "jpamb.cases.Simple.divideByN:(I)I"}); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if _, err := os.Stat(e.manifest.DatabasePath()); !os.IsNotExist(err) {
		t.Errorf("ledger should not exist: %v", err)
	}
	if err := handleAnalyzeCommand(context.Background(), e, []string{"-bogus"}); !isUsage(err) {
		t.Errorf("unknown flag: %v", err)
	}
}

// ============ suite ============

func TestSuiteCommand(t *testing.T) {
	e, out := testEnv(t)
	path := filepath.Join(t.TempDir(), "cases.yaml")
	content := `cases:
  - method: jpamb.cases.Simple.divideByN:(I)I
    case: "(0) -> divide by zero"
  - method: jpamb.cases.Simple.shortOf:(I)S
    case: "(70000) -> ok"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := handleSuiteCommand(context.Background(), e, []string{path}); err != nil {
		t.Fatalf("suite: %v", err)
	}
	if !strings.Contains(out.String(), "2 passed, 0 failed, 0 errors") {
		t.Errorf("suite output = %q", out.String())
	}
}

func TestSuiteCommandUpdate(t *testing.T) {
	e, _ := testEnv(t)
	path := filepath.Join(t.TempDir(), "cases.yaml")
	content := `cases:
  - method: jpamb.cases.Simple.divideByN:(I)I
    case: "(0) -> ok"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := handleSuiteCommand(context.Background(), e, []string{path}); err == nil {
		t.Fatal("a failing suite should return an error")
	}
	if err := handleSuiteCommand(context.Background(), e, []string{"-update", path}); err != nil {
		t.Fatalf("suite -update: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "(0) -> divide by zero") {
		t.Errorf("updated file = %s", data)
	}
}

// ============ dis ============

func TestDisCommand(t *testing.T) {
	e, out := testEnv(t)
	if err := handleDisCommand(e, []string{"jpamb.cases.Simple.divideByN:(I)I"}); err != nil {
		t.Fatalf("dis: %v", err)
	}
	if !strings.Contains(out.String(), "binary int div") {
		t.Errorf("dis output = %q", out.String())
	}
	if err := handleDisCommand(e, nil); !isUsage(err) {
		t.Errorf("missing id: %v", err)
	}
}
