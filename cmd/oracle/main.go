// Oracle CLI - runs decompiled JVM methods and classifies their outcome
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/jpamb-oracle/classpath"
	"github.com/chazu/jpamb-oracle/manifest"
	"github.com/chazu/jpamb-oracle/vm"
)

var log = commonlog.GetLogger("oracle.cli")

// usageError marks bad command lines; main exits 2 for them.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// env is what every subcommand needs.
type env struct {
	manifest *manifest.Manifest
	loader   *classpath.Loader
	opts     vm.Options
}

func main() {
	configDir := flag.String("config", "", "Directory holding oracle.toml (default: search upwards from cwd)")
	verbosity := flag.Int("v", -1, "Log verbosity (0 quiet, 1 info, 2 debug); overrides oracle.toml")
	budget := flag.Int64("budget", 0, "Step budget per run; overrides oracle.toml")
	decompiled := flag.String("classpath", "", "Decompiled class directory; overrides oracle.toml")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: oracle [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run <method-id> <inputs>   Print the verdict label for one input\n")
		fmt.Fprintf(os.Stderr, "  analyze <method-id>        Sample inputs and print <label>;<n>%% predictions\n")
		fmt.Fprintf(os.Stderr, "  suite <file.yaml>          Run a YAML case suite\n")
		fmt.Fprintf(os.Stderr, "  dis <method-id>            Disassemble a decoded method\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  oracle run 'jpamb.cases.Simple.divideByN:(I)I' '(0)'\n")
		fmt.Fprintf(os.Stderr, "  oracle analyze -n 100 'jpamb.cases.Loops.forever:()V'\n")
		fmt.Fprintf(os.Stderr, "  oracle suite -update cases.yaml\n")
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	m, err := loadManifest(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *verbosity >= 0 {
		m.Log.Verbosity = *verbosity
	}
	if *budget > 0 {
		m.Interpreter.Budget = *budget
	}
	if *decompiled != "" {
		m.Classpath.Decompiled = *decompiled
	}
	configureLogging(m)

	e := &env{
		manifest: m,
		loader:   classpath.NewLoader(m.DecompiledPath(), classpath.NewCache(m.CachePath())),
		opts:     m.VMOptions(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "run":
		err = handleRunCommand(e, args)
	case "analyze":
		err = handleAnalyzeCommand(ctx, e, args)
	case "suite":
		err = handleSuiteCommand(ctx, e, args)
	case "dis":
		err = handleDisCommand(e, args)
	default:
		err = usagef("unknown command %q", cmd)
	}

	var ue *usageError
	switch {
	case errors.As(err, &ue):
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		os.Exit(2)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadManifest(dir string) (*manifest.Manifest, error) {
	if dir != "" {
		return manifest.Load(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, err := manifest.FindAndLoad(cwd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
		m.Dir = cwd
	}
	return m, nil
}

func configureLogging(m *manifest.Manifest) {
	var path *string
	if p := m.LogPath(); p != "" {
		path = &p
	}
	commonlog.Configure(m.Log.Verbosity, path)
	log.Debugf("config dir %s, classpath %s", m.Dir, m.DecompiledPath())
}

// parseID parses a method id, reporting bad ids as usage errors.
func parseID(s string) (classpath.MethodID, error) {
	id, err := classpath.ParseMethodID(s)
	if err != nil {
		return classpath.MethodID{}, usagef("%v", err)
	}
	return id, nil
}
