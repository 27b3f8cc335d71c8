package inputs

import (
	"fmt"
	"math/rand/v2"

	"github.com/chazu/jpamb-oracle/pkg/bytecode"
	"github.com/chazu/jpamb-oracle/vm"
)

// Limits bound sampled values.
type Limits struct {
	MaxInt   int32 // ints are drawn from [0, MaxInt]
	MaxArray int   // arrays have fewer than MaxArray elements
}

// DefaultLimits match the benchmark's own sampler.
var DefaultLimits = Limits{MaxInt: 100, MaxArray: 10}

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewRand returns a deterministic source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sample draws one value per parameter type.
func Sample(params []bytecode.Type, rng *rand.Rand, lim Limits) ([]vm.Value, error) {
	if lim.MaxInt < 0 {
		lim.MaxInt = 0
	}
	if lim.MaxArray < 1 {
		lim.MaxArray = 1
	}
	out := make([]vm.Value, len(params))
	for i, t := range params {
		v, err := sampleOne(t, rng, lim)
		if err != nil {
			return nil, fmt.Errorf("inputs: parameter %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func sampleOne(t bytecode.Type, rng *rand.Rand, lim Limits) (vm.Value, error) {
	switch {
	case t == bytecode.Int || t == bytecode.Short || t == bytecode.Byte:
		return vm.IntValue(int32(rng.Int64N(int64(lim.MaxInt) + 1))), nil
	case t == bytecode.Boolean:
		return vm.BoolValue(rng.IntN(2) == 1), nil
	case t == bytecode.Char:
		return vm.CharValue(uint16(letters[rng.IntN(len(letters))])), nil
	case t.IsArray() && !t.Elem().IsReference():
		n := rng.IntN(lim.MaxArray)
		arr := vm.NewArray(t.Elem(), n)
		for i := range arr.Elements {
			e, err := sampleOne(t.Elem(), rng, lim)
			if err != nil {
				return vm.Value{}, err
			}
			arr.Elements[i] = e
		}
		return vm.ArrayValue(arr), nil
	}
	return vm.Value{}, fmt.Errorf("cannot sample %s", t)
}
