// Package harness runs a method many times on sampled inputs and turns the
// verdicts into the benchmark's "<label>;<confidence>%" prediction lines.
package harness

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/jpamb-oracle/classpath"
	"github.com/chazu/jpamb-oracle/inputs"
	"github.com/chazu/jpamb-oracle/pkg/bytecode"
	"github.com/chazu/jpamb-oracle/results"
	"github.com/chazu/jpamb-oracle/vm"
)

var log = commonlog.GetLogger("oracle.harness")

// DefaultSamples is the number of runs Analyze makes when unset.
const DefaultSamples = 25

// Options configure Analyze.
type Options struct {
	Samples int
	Seed    uint64 // 0 seeds from the clock
	Limits  inputs.Limits
	VM      vm.Options
	Store   *results.Store // optional ledger
}

// Outcome is a single interpreted input.
type Outcome struct {
	Inputs  []vm.Value
	Verdict vm.Verdict
	Steps   int64
}

// Execute runs method once on values. Instance methods get an opaque
// receiver in slot 0.
func Execute(table classpath.Table, method *bytecode.Method, values []vm.Value, opts vm.Options) (Outcome, error) {
	if err := inputs.Check(method.Params, values); err != nil {
		return Outcome{}, err
	}
	args := values
	if !method.Static {
		args = append([]vm.Value{vm.ObjectValue(method.Class)}, values...)
	}
	var resolver vm.Resolver
	if table != nil {
		resolver = table
	}
	m := vm.New(resolver, opts)
	v, err := m.Run(method, args)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Inputs: values, Verdict: v, Steps: m.Budget().Used()}, nil
}

// Report aggregates the outcomes of one Analyze call.
type Report struct {
	Method  string
	Session uuid.UUID
	Samples int
	Counts  map[string]int    // verdict label -> runs
	Witness map[string]string // verdict label -> first input producing it
}

// Percent is the share of runs whose label counts toward label, rounded.
// Exhausting the budget counts toward "*".
func (r *Report) Percent(label string) int {
	if r.Samples == 0 {
		return 0
	}
	n := r.Counts[label]
	if label == "*" {
		n += r.Counts[vm.Verdict{Kind: vm.OutOfTime}.Label()]
	}
	return int(math.Round(float64(n) * 100 / float64(r.Samples)))
}

// Lines renders one "<label>;<n>%" line per benchmark label.
func (r *Report) Lines() []string {
	out := make([]string, len(vm.BenchmarkLabels))
	for i, label := range vm.BenchmarkLabels {
		out[i] = fmt.Sprintf("%s;%d%%", label, r.Percent(label))
	}
	return out
}

// Other lists observed labels outside the benchmark vocabulary, sorted.
func (r *Report) Other() []string {
	var out []string
	for label := range r.Counts {
		if label == "out of time" || slices.Contains(vm.BenchmarkLabels, label) {
			continue
		}
		out = append(out, label)
	}
	slices.Sort(out)
	return out
}

// Analyze samples inputs for id, runs each on a fresh machine and tallies
// the verdicts. Cancellation is checked between runs.
func Analyze(ctx context.Context, table classpath.Table, id classpath.MethodID, opts Options) (*Report, error) {
	method, err := classpath.Lookup(table, id)
	if err != nil {
		return nil, err
	}
	if opts.Samples <= 0 {
		opts.Samples = DefaultSamples
	}
	if opts.Limits == (inputs.Limits{}) {
		opts.Limits = inputs.DefaultLimits
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := inputs.NewRand(seed)

	report := &Report{
		Method:  id.String(),
		Session: uuid.New(),
		Counts:  make(map[string]int),
		Witness: make(map[string]string),
	}
	log.Infof("analyze %s: session %s, %d samples, seed %d", report.Method, report.Session, opts.Samples, seed)

	for i := 0; i < opts.Samples; i++ {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("harness: %s after %d runs: %w", report.Method, i, err)
		}
		values, err := inputs.Sample(method.Params, rng, opts.Limits)
		if err != nil {
			return nil, fmt.Errorf("harness: %s: %w", report.Method, err)
		}
		out, err := Execute(table, method, values, opts.VM)
		if err != nil {
			return nil, fmt.Errorf("harness: %s: %w", report.Method, err)
		}
		report.add(out)

		if opts.Store != nil {
			_, err := opts.Store.Record(ctx, results.Run{
				Session: report.Session,
				Method:  report.Method,
				Inputs:  inputs.Format(out.Inputs),
				Label:   out.Verdict.Label(),
				Steps:   out.Steps,
			})
			if err != nil {
				log.Warningf("%s", err)
			}
		}
	}
	return report, nil
}

func (r *Report) add(out Outcome) {
	label := out.Verdict.Label()
	r.Samples++
	r.Counts[label]++
	if _, ok := r.Witness[label]; !ok {
		r.Witness[label] = inputs.Format(out.Inputs)
	}
	log.Debugf("%s %s -> %s in %d steps", r.Method, inputs.Format(out.Inputs), label, out.Steps)
}
