// Package suite reads YAML case files that pair a method and its inputs
// with the verdict label the oracle is expected to produce, and runs them.
//
//	cases:
//	  - method: jpamb.cases.Simple.divideByN:(I)I
//	    inputs: "(0)"
//	    expect: divide by zero
//	  - method: jpamb.cases.Simple.divideByN:(I)I
//	    case: "(5) -> ok"
package suite

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chazu/jpamb-oracle/classpath"
	"github.com/chazu/jpamb-oracle/vm"
)

// Suite is a decoded case file.
type Suite struct {
	Path  string `yaml:"-"`
	Name  string `yaml:"name,omitempty"`
	Cases []Case `yaml:"cases"`
}

// Case is one expectation. Either Inputs and Expect are set, or Case holds
// both in the benchmark's "(inputs) -> label" form.
type Case struct {
	Method string `yaml:"method"`
	Inputs string `yaml:"inputs,omitempty"`
	Expect string `yaml:"expect,omitempty"`
	Case   string `yaml:"case,omitempty"`
}

// Split returns the inputs literal and expected label of c.
func (c Case) Split() (inputs, expect string, err error) {
	if c.Case == "" {
		if c.Inputs == "" || c.Expect == "" {
			return "", "", fmt.Errorf("suite: %s: need inputs and expect, or case", c.Method)
		}
		return c.Inputs, c.Expect, nil
	}
	if c.Inputs != "" || c.Expect != "" {
		return "", "", fmt.Errorf("suite: %s: case excludes inputs and expect", c.Method)
	}
	in, out, ok := strings.Cut(c.Case, "->")
	if !ok {
		return "", "", fmt.Errorf("suite: %s: case %q lacks '->'", c.Method, c.Case)
	}
	return strings.TrimSpace(in), strings.TrimSpace(out), nil
}

// Load parses the case file at path.
func Load(path string) (*Suite, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("suite: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("suite: %w", err)
	}
	defer file.Close()

	var s Suite
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("suite: parse %s: %w", abs, err)
	}
	s.Path = abs
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Suite) validate() error {
	for i, c := range s.Cases {
		if _, err := classpath.ParseMethodID(c.Method); err != nil {
			return fmt.Errorf("suite: %s: case %d: %w", s.Path, i, err)
		}
		_, expect, err := c.Split()
		if err != nil {
			return fmt.Errorf("suite: %s: case %d: %w", s.Path, i, err)
		}
		if _, ok := vm.ParseLabel(expect); !ok && !strings.Contains(expect, "/") {
			return fmt.Errorf("suite: %s: case %d: unknown label %q", s.Path, i, expect)
		}
	}
	return nil
}

// Write serialises s to path, or to s.Path when path is empty.
func (s *Suite) Write(path string) error {
	if path == "" {
		path = s.Path
	}
	if path == "" {
		return fmt.Errorf("suite: missing path")
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("suite: marshal %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("suite: encoder close: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("suite: write %s: %w", path, err)
	}
	return nil
}
