package builtin

import (
	"github.com/noahfreelove/flow/internal/types"
	"github.com/noahfreelove/flow/internal/values"
)

// registerRandom installs seed/reseed (SPEC_FULL §12): a call surface for
// the engine's process-wide seeded PRNG (spec §5 "a seeded random-number
// generator used by `??` forms").
func registerRandom(root *values.Frame, env Env) {
	def(root, "seed", []*types.Type{types.Int}, func(args []values.Value) (values.Value, error) {
		if env.RNG != nil {
			env.RNG.Seed(toInt(args[0]))
		}
		return values.Void, nil
	})

	// reseed draws a fresh seed from the current generator state, reseeds
	// with it, and returns it so a caller can log or replay the run.
	def(root, "reseed", nil, func(args []values.Value) (values.Value, error) {
		if env.RNG == nil {
			return values.NewInt(0), nil
		}
		next := env.RNG.Int63()
		env.RNG.Seed(next)
		return values.NewInt(next), nil
	})
}
