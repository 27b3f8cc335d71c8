// Package manifest handles oracle.toml configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/jpamb-oracle/inputs"
	"github.com/chazu/jpamb-oracle/vm"
)

// FileName is the configuration file searched for by FindAndLoad.
const FileName = "oracle.toml"

// Manifest represents an oracle.toml configuration.
type Manifest struct {
	Interpreter Interpreter `toml:"interpreter"`
	Classpath   Classpath   `toml:"classpath"`
	Sampling    Sampling    `toml:"sampling"`
	Results     Results     `toml:"results"`
	Log         Log         `toml:"log"`

	// Dir is the directory containing the oracle.toml file (set at load time).
	Dir string `toml:"-"`
}

// Interpreter configures the machine and its loop detector.
type Interpreter struct {
	Budget             int64     `toml:"budget"`
	MaxDepth           int       `toml:"max-depth"`
	GroupSize          int       `toml:"group-size"`
	MinExtraIterations int       `toml:"min-extra-iterations"`
	Checkpoints        []float64 `toml:"checkpoints"`
}

// Classpath locates decompiled classes and the decode cache.
type Classpath struct {
	Decompiled string `toml:"decompiled"`
	Cache      string `toml:"cache"`
}

// Sampling configures analyze.
type Sampling struct {
	Samples  int    `toml:"samples"`
	Seed     uint64 `toml:"seed"`
	MaxInt   int32  `toml:"max-int"`
	MaxArray int    `toml:"max-array"`
}

// Results configures the run ledger.
type Results struct {
	Database string `toml:"database"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no oracle.toml exists.
func Default() *Manifest {
	return &Manifest{
		Interpreter: Interpreter{
			Budget:             vm.DefaultBudget,
			MaxDepth:           vm.DefaultMaxDepth,
			GroupSize:          vm.DefaultGroupSize,
			MinExtraIterations: vm.DefaultMinExtraIterations,
			Checkpoints:        slices.Clone(vm.DefaultCheckpoints),
		},
		Classpath: Classpath{
			Decompiled: filepath.Join("target", "decompiled"),
			Cache:      filepath.Join(".oracle", "cache"),
		},
		Sampling: Sampling{
			Samples:  25,
			MaxInt:   inputs.DefaultLimits.MaxInt,
			MaxArray: inputs.DefaultLimits.MaxArray,
		},
		Results: Results{Database: filepath.Join(".oracle", "results.db")},
	}
}

// Load parses an oracle.toml file from the given directory. Keys absent
// from the file keep their defaults; unknown keys are an error.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	md, err := toml.Decode(string(data), m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find an oracle.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Validate rejects values the interpreter cannot use.
func (m *Manifest) Validate() error {
	in := m.Interpreter
	switch {
	case in.Budget < 0:
		return fmt.Errorf("interpreter.budget must not be negative")
	case in.MaxDepth < 0:
		return fmt.Errorf("interpreter.max-depth must not be negative")
	case in.GroupSize < 0:
		return fmt.Errorf("interpreter.group-size must not be negative")
	case in.MinExtraIterations < 0:
		return fmt.Errorf("interpreter.min-extra-iterations must not be negative")
	}
	for _, f := range in.Checkpoints {
		if f <= 0 || f > 1 {
			return fmt.Errorf("interpreter.checkpoints: %v is not in (0, 1]", f)
		}
	}
	if m.Sampling.Samples < 0 || m.Sampling.MaxInt < 0 || m.Sampling.MaxArray < 0 {
		return fmt.Errorf("sampling values must not be negative")
	}
	return nil
}

// VMOptions converts the interpreter section. The manifest starts from the
// defaults, so an explicit min-extra-iterations of 0 really means none.
func (m *Manifest) VMOptions() vm.Options {
	in := m.Interpreter
	extra := in.MinExtraIterations
	if extra == 0 {
		extra = vm.NoExtraIterations
	}
	return vm.Options{
		Budget:             in.Budget,
		MaxDepth:           in.MaxDepth,
		GroupSize:          in.GroupSize,
		MinExtraIterations: extra,
		Checkpoints:        slices.Clone(in.Checkpoints),
	}
}

// Limits converts the sampling section.
func (m *Manifest) Limits() inputs.Limits {
	return inputs.Limits{MaxInt: m.Sampling.MaxInt, MaxArray: m.Sampling.MaxArray}
}

// DecompiledPath returns the absolute decompiled class directory.
func (m *Manifest) DecompiledPath() string {
	return m.resolve(m.Classpath.Decompiled)
}

// CachePath returns the absolute cache directory, or "" when disabled.
func (m *Manifest) CachePath() string {
	return m.resolve(m.Classpath.Cache)
}

// DatabasePath returns the absolute ledger path, or "" when disabled.
func (m *Manifest) DatabasePath() string {
	return m.resolve(m.Results.Database)
}

// LogPath returns the absolute log file, or "" for stderr.
func (m *Manifest) LogPath() string {
	return m.resolve(m.Log.File)
}

func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}
