// Package builtin implements Flow's standard procedure registry (spec §9
// "the stdlib registry populated at engine construction"): the host
// overloads every program gets for free, without an explicit `use`.
//
// Each builtin is a values.Overload whose Host field closes over whatever
// capability it needs (the synth registry, the audio backend, the PRNG, a
// callback into the interpreter for map/filter/reduce/each). Registration
// happens once, at engine construction, into the root frame — after that
// the registry is immutable, matching spec §9's "Global state" note.
package builtin

import (
	"math/rand"

	"github.com/noahfreelove/flow/internal/audio"
	"github.com/noahfreelove/flow/internal/diag"
	"github.com/noahfreelove/flow/internal/render"
	"github.com/noahfreelove/flow/internal/types"
	"github.com/noahfreelove/flow/internal/values"
)

// CallFunc invokes an already-resolved Function value's overload, routing
// to either a host implementation or the interpreter's user-function
// execution path (spec §9: "internally routes to either a host
// implementation or execute-user-function-with-captures"). The engine
// supplies this as *Interp.CallOverload without exposing interpreter
// internals to this package.
type CallFunc func(ov *values.Overload, args []values.Value) values.Value

// Env bundles every capability a builtin may need. Render.Synth carries the
// synth registry; Audio is safe to leave nil in tests that only register
// the pure-logic builtins, since every audio builtin checks before using it.
type Env struct {
	Bag    *diag.Bag
	RNG    *rand.Rand
	Call   CallFunc
	Audio  audio.Capability
	Render render.Options
}

// Register installs every builtin overload into root. Safe to call once
// per engine; re-registering would just replace overloads with equal
// signatures (values.Frame.DeclareFunc's documented behavior).
func Register(root *values.Frame, env Env) {
	registerArithmetic(root, env)
	registerStrings(root, env)
	registerCollections(root, env)
	registerMusic(root, env)
	registerAudio(root, env)
	registerRandom(root, env)
}

// def is a small constructor helper: builds a host Overload with the given
// name, fixed parameter types and Host implementation, and declares it.
func def(root *values.Frame, name string, params []*types.Type, host values.HostFunc) {
	root.DeclareFunc(name, &values.Overload{
		Sig:  types.Signature{Name: name, Params: params},
		Host: host,
	})
}

// defVariadic is def but marks the signature variadic, for a trailing
// Array<Void>-typed parameter (spec §4.3's varargs special case).
func defVariadic(root *values.Frame, name string, params []*types.Type, host values.HostFunc) {
	root.DeclareFunc(name, &values.Overload{
		Sig:  types.Signature{Name: name, Params: params, Variadic: true},
		Host: host,
	})
}

// ---- argument unwrapping helpers ----
// Builtins are reached only after overload resolution already matched
// argument types against the declared signature, so these never need to
// report a type diagnostic of their own — a wrong Go type assertion here
// would indicate a registry bug, not a Flow-program error.

func toFloat(v values.Value) float64 {
	switch v.Type.Kind {
	case types.KindInt, types.KindLong:
		return float64(v.Payload.(int64))
	case types.KindFloat:
		return float64(v.Payload.(float32))
	case types.KindDouble, types.KindNumber:
		return v.Payload.(float64)
	default:
		return 0
	}
}

func toInt(v values.Value) int64 {
	switch v.Type.Kind {
	case types.KindInt, types.KindLong:
		return v.Payload.(int64)
	case types.KindFloat:
		return int64(v.Payload.(float32))
	case types.KindDouble, types.KindNumber:
		return int64(v.Payload.(float64))
	default:
		return 0
	}
}

func toString(v values.Value) string { return v.Payload.(string) }
func toBool(v values.Value) bool     { return v.Payload.(bool) }

func toArray(v values.Value) *values.Array { return v.Payload.(*values.Array) }

func toFunction(v values.Value) *values.Overload { return v.Payload.(*values.Overload) }

// widenNumeric picks the result type for a two-argument numeric builtin per
// the numeric ladder (spec §3): whichever operand's Kind sits at the higher
// rung wins; Number beats Double beats Long/Float beats Int.
func widenNumeric(a, b *types.Type) *types.Type {
	rank := func(t *types.Type) int {
		switch t.Kind {
		case types.KindNumber:
			return 3
		case types.KindDouble:
			return 2
		case types.KindLong, types.KindFloat:
			return 1
		default:
			return 0
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

// defaultDitherRNG backs WAV export when an engine was constructed without
// a seeded PRNG (e.g. a test harness exercising exportwav in isolation).
func defaultDitherRNG() *rand.Rand { return rand.New(rand.NewSource(1)) }

func numericValue(t *types.Type, f float64) values.Value {
	switch t.Kind {
	case types.KindInt:
		return values.NewInt(int64(f))
	case types.KindLong:
		return values.NewLong(int64(f))
	case types.KindFloat:
		return values.NewFloat(float32(f))
	case types.KindDouble:
		return values.NewDouble(f)
	default:
		return values.NewNumber(f)
	}
}
