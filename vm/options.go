package vm

// Options tune a Machine. The zero value of any field selects its default.
type Options struct {
	// Budget is the number of steps shared by every frame of one run.
	Budget int64

	// MaxDepth bounds the frame stack. Deeper calls throw
	// java/lang/StackOverflowError.
	MaxDepth int

	// GroupSize is the number of iterations compared as one group by the
	// cycle detector.
	GroupSize int

	// MinExtraIterations is how many closed iterations beyond GroupSize a
	// frame needs before the detector compares anything. Zero selects the
	// default; use NoExtraIterations to ask for none.
	MinExtraIterations int

	// Checkpoints are fractions of the budget remaining when a frame starts.
	// The detector runs when the frame's step index reaches one of them.
	Checkpoints []float64
}

const (
	DefaultMaxDepth           = 256
	DefaultGroupSize          = 5
	DefaultMinExtraIterations = 5

	// NoExtraIterations lets the detector compare as soon as one group of
	// iterations has closed. Any negative value means the same.
	NoExtraIterations = -1
)

// DefaultCheckpoints are the detector checkpoints used when none are given.
var DefaultCheckpoints = []float64{0.33, 0.66, 0.99}

// DefaultOptions returns the options used by the benchmark.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.Budget <= 0 {
		o.Budget = DefaultBudget
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.GroupSize <= 0 {
		o.GroupSize = DefaultGroupSize
	}
	if o.MinExtraIterations < 0 {
		o.MinExtraIterations = 0
	} else if o.MinExtraIterations == 0 {
		o.MinExtraIterations = DefaultMinExtraIterations
	}
	if len(o.Checkpoints) == 0 {
		o.Checkpoints = DefaultCheckpoints
	}
	return o
}
