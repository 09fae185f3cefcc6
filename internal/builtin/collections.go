package builtin

import (
	"github.com/noahfreelove/flow/internal/types"
	"github.com/noahfreelove/flow/internal/values"
)

// registerCollections installs Array stdlib functions, including the
// higher-order map/filter/reduce/each callbacks spec §9's design note
// describes: the registry closes over env.Call rather than reaching into
// the interpreter directly.
//
// Every Array-accepting parameter here is typed Array<Void>, the universal
// element placeholder (spec §4.3): a concrete Array<Int> argument scores as
// "compatible" against it rather than exact, which is enough to resolve
// uniquely since no other overload of these names takes an Array (the only
// other one, len(String), is registered in strings.go).
func registerCollections(root *values.Frame, env Env) {
	defVariadic(root, "list", []*types.Type{types.VoidArray}, func(args []values.Value) (values.Value, error) {
		if len(args) == 1 && args[0].Type.Kind == types.KindArray {
			return args[0], nil
		}
		return values.NewArray(types.Void, args), nil
	})

	def(root, "len", []*types.Type{types.VoidArray}, func(args []values.Value) (values.Value, error) {
		return values.NewInt(int64(len(toArray(args[0]).Items))), nil
	})

	// push appends its surplus arguments (packed into an array by
	// coerceArgs, or passed through if already an array) onto a copy of
	// arr, so `push(xs, 1, 2, 3)` appends three elements in one call.
	defVariadic(root, "push", []*types.Type{types.VoidArray, types.VoidArray}, func(args []values.Value) (values.Value, error) {
		arr := toArray(args[0])
		extra := toArray(args[1])
		items := append(append([]values.Value{}, arr.Items...), extra.Items...)
		return values.NewArray(inferElem(items, arr.Elem), items), nil
	})

	def(root, "map", []*types.Type{types.VoidArray, types.Function}, func(args []values.Value) (values.Value, error) {
		arr := toArray(args[0])
		fn := toFunction(args[1])
		out := make([]values.Value, len(arr.Items))
		for i, item := range arr.Items {
			out[i] = env.Call(fn, []values.Value{item})
		}
		return values.NewArray(inferElem(out, types.Void), out), nil
	})

	def(root, "filter", []*types.Type{types.VoidArray, types.Function}, func(args []values.Value) (values.Value, error) {
		arr := toArray(args[0])
		fn := toFunction(args[1])
		var out []values.Value
		for _, item := range arr.Items {
			if truthy(env.Call(fn, []values.Value{item})) {
				out = append(out, item)
			}
		}
		return values.NewArray(arr.Elem, out), nil
	})

	def(root, "each", []*types.Type{types.VoidArray, types.Function}, func(args []values.Value) (values.Value, error) {
		arr := toArray(args[0])
		fn := toFunction(args[1])
		for _, item := range arr.Items {
			env.Call(fn, []values.Value{item})
		}
		return values.Void, nil
	})

	// reduce's accumulator seed rides the same variadic-universal-acceptor
	// slot as push's items: exactly one initial value is expected, packed
	// into a one-element Array<Void> by coerceArgs.
	defVariadic(root, "reduce", []*types.Type{types.VoidArray, types.Function, types.VoidArray}, func(args []values.Value) (values.Value, error) {
		arr := toArray(args[0])
		fn := toFunction(args[1])
		seed := toArray(args[2])
		acc := values.Void
		if len(seed.Items) > 0 {
			acc = seed.Items[0]
		}
		for _, item := range arr.Items {
			acc = env.Call(fn, []values.Value{acc, item})
		}
		return acc, nil
	})
}

// inferElem mirrors the array-literal element-type inference rule (spec
// §4.5: "infer element type from the first element; mixed elements fall
// back to Void").
func inferElem(items []values.Value, fallback *types.Type) *types.Type {
	if len(items) == 0 {
		return fallback
	}
	elem := items[0].Type
	for _, it := range items[1:] {
		if !it.Type.Equals(elem) {
			return types.Void
		}
	}
	return elem
}

// truthy treats anything other than an honest `true` Bool payload as false,
// rather than panicking on a non-Bool callback result (spec §7: the core
// never lets a Host builtin's type mismatch escape as an aborting panic).
func truthy(v values.Value) bool {
	b, ok := v.Payload.(bool)
	return ok && b
}
