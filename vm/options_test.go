package vm

import (
	"testing"

	"github.com/chazu/jpamb-oracle/pkg/bytecode"
)

func TestOptionsDefaults(t *testing.T) {
	tests := []struct {
		name  string
		in    Options
		extra int
	}{
		{"zero value", Options{}, DefaultMinExtraIterations},
		{"explicit", Options{MinExtraIterations: 2}, 2},
		{"none", Options{MinExtraIterations: NoExtraIterations}, 0},
		{"any negative", Options{MinExtraIterations: -7}, 0},
	}
	for _, tt := range tests {
		o := tt.in.withDefaults()
		if o.MinExtraIterations != tt.extra {
			t.Errorf("%s: MinExtraIterations = %d, want %d", tt.name, o.MinExtraIterations, tt.extra)
		}
		if o.Budget != DefaultBudget || o.GroupSize != DefaultGroupSize || len(o.Checkpoints) != len(DefaultCheckpoints) {
			t.Errorf("%s: defaults = %+v", tt.name, o)
		}
	}
}

func TestNoExtraIterationsDetectsSooner(t *testing.T) {
	// while (x != 0) {}: five iterations have closed by the only checkpoint
	code := []bytecode.Instruction{
		bytecode.Load(bytecode.Int, 0),
		bytecode.Ifz(bytecode.CondEq, 3),
		bytecode.Goto(0),
		bytecode.Return(bytecode.Void),
	}
	method := staticMethod("spin", intParams(1), bytecode.Void, code...)
	for _, tc := range []struct {
		extra int
		want  VerdictKind
	}{
		{0, OutOfTime},
		{NoExtraIterations, InfiniteLoop},
	} {
		m := New(nil, Options{Budget: 30, GroupSize: 2, MinExtraIterations: tc.extra, Checkpoints: []float64{0.5}})
		v, err := m.Run(method, ints(1))
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if v.Kind != tc.want {
			t.Errorf("extra %d: verdict = %q, want %q", tc.extra, v, Verdict{Kind: tc.want})
		}
	}
}
