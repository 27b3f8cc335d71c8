package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/jpamb-oracle/classpath"
	"github.com/chazu/jpamb-oracle/harness"
	"github.com/chazu/jpamb-oracle/inputs"
	"github.com/chazu/jpamb-oracle/results"
	"github.com/chazu/jpamb-oracle/suite"
)

var stdout io.Writer = os.Stdout

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usagef("%s: %v", fs.Name(), err)
	}
	return nil
}

// oracle run <method-id> <inputs>
func handleRunCommand(e *env, args []string) error {
	if len(args) != 2 {
		return usagef("run needs <method-id> <inputs>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	values, err := inputs.Parse(args[1])
	if err != nil {
		return usagef("%v", err)
	}
	method, err := classpath.Lookup(e.loader, id)
	if err != nil {
		return err
	}
	out, err := harness.Execute(e.loader, method, values, e.opts)
	if err != nil {
		return err
	}
	log.Infof("%s %s -> %s after %d steps", id, inputs.Format(values), out.Verdict, out.Steps)
	fmt.Fprintln(stdout, out.Verdict.Label())
	return nil
}

// oracle analyze [-n samples] [-seed n] [-no-record] <method-id>
func handleAnalyzeCommand(ctx context.Context, e *env, args []string) error {
	m := e.manifest
	fs := newFlagSet("analyze")
	samples := fs.Int("n", m.Sampling.Samples, "number of sampled runs")
	seed := fs.Uint64("seed", m.Sampling.Seed, "sampler seed (0 seeds from the clock)")
	noRecord := fs.Bool("no-record", false, "do not write runs to the results ledger")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("analyze needs <method-id>")
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}

	opts := harness.Options{
		Samples: *samples,
		Seed:    *seed,
		Limits:  m.Limits(),
		VM:      e.opts,
	}
	if db := m.DatabasePath(); db != "" && !*noRecord {
		store, err := results.Open(ctx, db)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Store = store
	}

	report, err := harness.Analyze(ctx, e.loader, id, opts)
	if err != nil {
		return err
	}
	for _, line := range report.Lines() {
		fmt.Fprintln(stdout, line)
	}
	for _, label := range report.Other() {
		log.Warningf("%s: %d runs ended with %q, first on %s", report.Method, report.Counts[label], label, report.Witness[label])
	}
	return nil
}

// oracle suite [-update] <file.yaml>
func handleSuiteCommand(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("suite")
	update := fs.Bool("update", false, "rewrite expectations to the observed labels")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("suite needs <file.yaml>")
	}
	s, err := suite.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	res, err := suite.Run(ctx, e.loader, s, e.opts)
	if err != nil {
		return err
	}
	for _, r := range res {
		fmt.Fprintln(stdout, r)
	}
	sum := suite.Summarize(res)
	fmt.Fprintf(stdout, "%d passed, %d failed, %d errors\n", sum.Passed, sum.Failed, sum.Errors)

	if *update {
		suite.Update(s, res)
		return s.Write("")
	}
	if !sum.OK() {
		return fmt.Errorf("suite %s: %d of %d cases did not pass", s.Path, sum.Failed+sum.Errors, len(res))
	}
	return nil
}

// oracle dis <method-id>
func handleDisCommand(e *env, args []string) error {
	if len(args) != 1 {
		return usagef("dis needs <method-id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	method, err := classpath.Lookup(e.loader, id)
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, method.Disassemble())
	return nil
}
