package values

import (
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/noahfreelove/flow/internal/ast"
	"github.com/noahfreelove/flow/internal/types"
)

// Evaluator is the minimal capability a Thunk needs to force itself: the
// interpreter hands over a closure rather than the Thunk importing the
// interpreter package (spec §9 "Higher-order calls via host" applies the
// same inversion to laziness — values never reach back into internal/interp).
type Evaluator func(expr ast.Expr, frame *Frame) Value

// Thunk is a single-shot memoized deferred expression: the `lazy` mechanism
// (spec §3 "Thunk", §5 "Thunks", §9 "model as state = Pending(...) | Done(...)").
//
// First-force is guarded by a singleflight.Group so that concurrent callers
// (e.g. a host audio scheduler calling back into the interpreter from
// multiple threads during playback, per spec §5) all observe the same
// memoized value and the deferred expression evaluates at most once.
type Thunk struct {
	group singleflight.Group
	done  atomic.Bool

	// Released after first force (spec §3 "after first force, the captured
	// expression and evaluator are released").
	expr ast.Expr
	env  *Frame
	eval Evaluator

	value Value
	elem  *types.Type
}

// NewThunk captures a deferred expression and the environment/evaluator
// needed to force it later. elemType is the static element type the lazy
// expression is declared to produce (for Lazy<T> typing before forcing).
func NewThunk(expr ast.Expr, env *Frame, eval Evaluator, elemType *types.Type) *Thunk {
	return &Thunk{expr: expr, env: env, eval: eval, elem: elemType}
}

// ElemType is the thunk's static Lazy<T> element type.
func (t *Thunk) ElemType() *types.Type { return t.elem }

// Force evaluates the captured expression on first call and memoizes the
// result; subsequent calls (even concurrent ones) return the same Value
// without re-evaluating (spec §3 "Forcing is idempotent and memoizes").
func (t *Thunk) Force() Value {
	if t.done.Load() {
		return t.value
	}
	v, _, _ := t.group.Do("force", func() (any, error) {
		if t.done.Load() {
			return t.value, nil
		}
		result := t.eval(t.expr, t.env)
		t.value = result
		t.done.Store(true)
		// Release captured evaluation context now that forcing is done.
		t.expr = nil
		t.env = nil
		t.eval = nil
		return result, nil
	})
	return v.(Value)
}

// Forced reports whether this thunk has already been forced, without
// triggering evaluation.
func (t *Thunk) Forced() bool { return t.done.Load() }
