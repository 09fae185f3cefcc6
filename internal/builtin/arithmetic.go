package builtin

import (
	"fmt"
	"strconv"

	"github.com/noahfreelove/flow/internal/types"
	"github.com/noahfreelove/flow/internal/values"
)

// numericTypes is every rung of the numeric ladder (spec §3), used to
// register one overload per argument-type combination so `add(3, 4.0)`
// resolves exactly like the interpreter's own `+` operator does.
var numericTypes = []*types.Type{types.Int, types.Long, types.Float, types.Double, types.Number}

// registerArithmetic installs the numeric stdlib functions (spec §9 design
// note example `add`; the closure-snapshot end-to-end scenario calls it
// directly) plus str/print conversions.
func registerArithmetic(root *values.Frame, env Env) {
	for _, a := range numericTypes {
		for _, b := range numericTypes {
			a, b := a, b
			result := widenNumeric(a, b)
			def(root, "add", []*types.Type{a, b}, func(args []values.Value) (values.Value, error) {
				return numericValue(result, toFloat(args[0])+toFloat(args[1])), nil
			})
			def(root, "sub", []*types.Type{a, b}, func(args []values.Value) (values.Value, error) {
				return numericValue(result, toFloat(args[0])-toFloat(args[1])), nil
			})
			def(root, "mul", []*types.Type{a, b}, func(args []values.Value) (values.Value, error) {
				return numericValue(result, toFloat(args[0])*toFloat(args[1])), nil
			})
			def(root, "div", []*types.Type{a, b}, func(args []values.Value) (values.Value, error) {
				denom := toFloat(args[1])
				if denom == 0 {
					return values.Void, fmt.Errorf("division by zero")
				}
				return numericValue(result, toFloat(args[0])/denom), nil
			})
			def(root, "mod", []*types.Type{a, b}, func(args []values.Value) (values.Value, error) {
				denom := toFloat(args[1])
				if denom == 0 {
					return values.Void, fmt.Errorf("modulo by zero")
				}
				x, y := toFloat(args[0]), denom
				rem := x - y*float64(int64(x/y))
				return numericValue(result, rem), nil
			})
		}
	}

	for _, t := range numericTypes {
		t := t
		def(root, "str", []*types.Type{t}, func(args []values.Value) (values.Value, error) {
			return values.NewString(formatNumber(t, args[0])), nil
		})
	}
	def(root, "str", []*types.Type{types.String}, func(args []values.Value) (values.Value, error) {
		return values.NewString(toString(args[0])), nil
	})
	def(root, "str", []*types.Type{types.Bool}, func(args []values.Value) (values.Value, error) {
		return values.NewString(strconv.FormatBool(toBool(args[0]))), nil
	})

	def(root, "print", []*types.Type{types.String}, func(args []values.Value) (values.Value, error) {
		fmt.Println(toString(args[0]))
		return values.Void, nil
	})
}

// formatNumber renders a numeric Value the way the teacher's own
// diagnostic formatting favors: integral rungs print without a decimal
// point, fractional rungs trim to the shortest round-tripping form.
func formatNumber(t *types.Type, v values.Value) string {
	switch t.Kind {
	case types.KindInt, types.KindLong:
		return strconv.FormatInt(toInt(v), 10)
	default:
		return strconv.FormatFloat(toFloat(v), 'g', -1, 64)
	}
}
