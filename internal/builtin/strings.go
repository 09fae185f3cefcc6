package builtin

import (
	"strings"

	"github.com/noahfreelove/flow/internal/types"
	"github.com/noahfreelove/flow/internal/values"
)

// registerStrings installs the String stdlib functions.
func registerStrings(root *values.Frame, env Env) {
	def(root, "concat", []*types.Type{types.String, types.String}, func(args []values.Value) (values.Value, error) {
		return values.NewString(toString(args[0]) + toString(args[1])), nil
	})
	def(root, "upper", []*types.Type{types.String}, func(args []values.Value) (values.Value, error) {
		return values.NewString(strings.ToUpper(toString(args[0]))), nil
	})
	def(root, "lower", []*types.Type{types.String}, func(args []values.Value) (values.Value, error) {
		return values.NewString(strings.ToLower(toString(args[0]))), nil
	})
	def(root, "len", []*types.Type{types.String}, func(args []values.Value) (values.Value, error) {
		return values.NewInt(int64(len(toString(args[0])))), nil
	})
}
