package suite

import (
	"context"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/jpamb-oracle/classpath"
	"github.com/chazu/jpamb-oracle/harness"
	"github.com/chazu/jpamb-oracle/inputs"
	"github.com/chazu/jpamb-oracle/vm"
)

var log = commonlog.GetLogger("oracle.suite")

// Result is the outcome of one case. Err is set when the case could not be
// run at all (unknown method, malformed inputs).
type Result struct {
	Case   Case
	Expect string
	Got    vm.Verdict
	Steps  int64
	Err    error
}

// Pass reports whether the case ran and produced the expected label.
func (r Result) Pass() bool {
	if r.Err != nil {
		return false
	}
	want, ok := vm.ParseLabel(r.Expect)
	if !ok {
		return r.Got.Label() == r.Expect
	}
	return r.Got.Kind == want.Kind && (want.Kind != vm.Unhandled || r.Got.Detail == want.Detail)
}

func (r Result) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("ERROR %s: %v", r.Case.Method, r.Err)
	case r.Pass():
		return fmt.Sprintf("PASS  %s %s -> %s", r.Case.Method, r.inputs(), r.Expect)
	}
	return fmt.Sprintf("FAIL  %s %s -> %s, want %s", r.Case.Method, r.inputs(), r.Got.Label(), r.Expect)
}

func (r Result) inputs() string {
	in, _, _ := r.Case.Split()
	return in
}

// Summary counts results.
type Summary struct {
	Passed, Failed, Errors int
}

// OK reports whether every case passed.
func (s Summary) OK() bool { return s.Failed == 0 && s.Errors == 0 }

// Summarize tallies results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Errors++
		case r.Pass():
			s.Passed++
		default:
			s.Failed++
		}
	}
	return s
}

// Run executes every case of s against table. Cancellation stops the run
// between cases and is returned with the results gathered so far.
func Run(ctx context.Context, table classpath.Table, s *Suite, opts vm.Options) ([]Result, error) {
	results := make([]Result, 0, len(s.Cases))
	for _, c := range s.Cases {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("suite: %w", err)
		}
		r := runCase(table, c, opts)
		if !r.Pass() {
			log.Infof("%s", r)
		}
		results = append(results, r)
	}
	return results, nil
}

func runCase(table classpath.Table, c Case, opts vm.Options) Result {
	in, expect, err := c.Split()
	r := Result{Case: c, Expect: expect}
	if err != nil {
		r.Err = err
		return r
	}
	id, err := classpath.ParseMethodID(c.Method)
	if err != nil {
		r.Err = err
		return r
	}
	method, err := classpath.Lookup(table, id)
	if err != nil {
		r.Err = err
		return r
	}
	values, err := inputs.Parse(in)
	if err != nil {
		r.Err = err
		return r
	}
	out, err := harness.Execute(table, method, values, opts)
	if err != nil {
		r.Err = err
		return r
	}
	r.Got, r.Steps = out.Verdict, out.Steps
	return r
}

// Update rewrites the expectation of every runnable case to the observed
// label.
func Update(s *Suite, results []Result) {
	for i, r := range results {
		if r.Err != nil || i >= len(s.Cases) {
			continue
		}
		c := &s.Cases[i]
		if c.Case != "" {
			c.Case = r.inputs() + " -> " + r.Got.Label()
		} else {
			c.Expect = r.Got.Label()
		}
	}
}
