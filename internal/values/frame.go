package values

import (
	"fmt"

	"github.com/noahfreelove/flow/internal/ast"
	"github.com/noahfreelove/flow/internal/musicctx"
	"github.com/noahfreelove/flow/internal/types"
)

// HostFunc is a host-provided callable implementation (spec §3 "Function
// overload": "...or a host-provided callable"). Errors are reported by the
// caller into the diagnostic bag; HostFunc itself just computes.
type HostFunc func(args []Value) (Value, error)

// Overload is either a user-defined procedure declaration (optionally with
// a closure's captured-variable snapshot) or a host-provided callable
// (spec §3 "Function overload").
type Overload struct {
	Sig types.Signature

	// User-defined:
	Decl *ast.ProcDecl

	// Captured is a lambda's closure snapshot (Frame.Snapshot at the point
	// the lambda literal was evaluated); nil for a plain `proc` declaration.
	Captured *Frame

	// DeclFrame is a plain procedure's lexical parent — the frame it was
	// declared into, walked fresh (not snapshotted) on every call so that
	// later sibling declarations in the same scope remain visible to it
	// (spec §3: a proc, unlike a lambda, is not a closure over a frozen
	// environment). Nil for lambdas, which use Captured instead.
	DeclFrame *Frame

	// Host-provided:
	Host HostFunc
}

// Signature satisfies overload.Candidate.
func (o *Overload) Signature() types.Signature { return o.Sig }

// IsHost reports whether this overload is a host builtin rather than a
// user-defined procedure body.
func (o *Overload) IsHost() bool { return o.Host != nil }

// Frame is one stack frame: a name→value map, a name→overload-list map, and
// an optional musical-context snapshot, chained by parent reference (spec §3
// "Stack frames").
type Frame struct {
	parent *Frame

	vars  map[string]Value
	funcs map[string][]*Overload
	ctx   *musicctx.Context

	depth int // distance from the root frame, for the call-depth guard
}

// NewRoot creates the top-level frame for an engine.
func NewRoot() *Frame {
	return &Frame{vars: map[string]Value{}, funcs: map[string][]*Overload{}}
}

// NewChild creates a frame nested under parent (spec §5 "entering any block
// pushes; any exit path pops" — callers are responsible for the push/pop
// discipline; NewChild is the "push").
func (f *Frame) NewChild() *Frame {
	return &Frame{parent: f, vars: map[string]Value{}, funcs: map[string][]*Overload{}, depth: f.depth + 1}
}

// Parent returns the enclosing frame, or nil at the root.
func (f *Frame) Parent() *Frame { return f.parent }

// Depth is this frame's distance from the root, used by the interpreter's
// recursion guard (spec §3 "a maximum depth (≥ 1000) guards against
// unbounded recursion").
func (f *Frame) Depth() int { return f.depth }

// Declare binds name to val in this frame only (spec §3 "Declarations are
// frame-local"). It errors if the name already names a variable or function
// anywhere in the reachable chain (spec §3 "must not collide... at
// declaration time").
func (f *Frame) Declare(name string, val Value) error {
	if f.resolvesAnywhere(name) {
		return fmt.Errorf("%q is already declared in this scope chain", name)
	}
	f.vars[name] = val
	return nil
}

// DeclareFunc registers a procedure overload in this frame. An existing
// overload with an identical signature is replaced in place (spec §3 "REPL
// redefinition"; §8 "Re-declaring a procedure overload with an equal
// signature replaces the prior overload").
func (f *Frame) DeclareFunc(name string, ov *Overload) {
	list := f.funcs[name]
	for i, existing := range list {
		if existing.Sig.Equals(ov.Sig) {
			list[i] = ov
			f.funcs[name] = list
			return
		}
	}
	f.funcs[name] = append(list, ov)
}

// resolvesAnywhere reports whether name already names a variable or
// function overload set anywhere in the reachable chain.
func (f *Frame) resolvesAnywhere(name string) bool {
	for fr := f; fr != nil; fr = fr.parent {
		if _, ok := fr.vars[name]; ok {
			return true
		}
		if _, ok := fr.funcs[name]; ok {
			return true
		}
	}
	return false
}

// Lookup resolves a variable by walking parents (spec §3 "Lookup walks
// parents").
func (f *Frame) Lookup(name string) (Value, bool) {
	for fr := f; fr != nil; fr = fr.parent {
		if v, ok := fr.vars[name]; ok {
			return v, true
		}
	}
	return Void, false
}

// Assign walks parents until name is found and updates it there (spec §3
// "assignments walk parents until the name is found, else error").
func (f *Frame) Assign(name string, val Value) error {
	for fr := f; fr != nil; fr = fr.parent {
		if _, ok := fr.vars[name]; ok {
			fr.vars[name] = val
			return nil
		}
	}
	return fmt.Errorf("%q not found", name)
}

// LookupFuncs collects all overloads visible for name up the frame chain
// (spec §4.4 step 1). Frames nearer the call site come first.
func (f *Frame) LookupFuncs(name string) []*Overload {
	var all []*Overload
	for fr := f; fr != nil; fr = fr.parent {
		all = append(all, fr.funcs[name]...)
	}
	return all
}

// SetContext installs this frame's musical-context snapshot.
func (f *Frame) SetContext(c *musicctx.Context) { f.ctx = c }

// Context returns this frame's own context snapshot (nil if it set none).
func (f *Frame) Context() *musicctx.Context { return f.ctx }

// ContextStack walks from this frame to the root, collecting every
// non-nil context snapshot in inner-to-outer order, ready for
// musicctx.Resolve.
func (f *Frame) ContextStack() []*musicctx.Context {
	var stack []*musicctx.Context
	for fr := f; fr != nil; fr = fr.parent {
		if fr.ctx != nil {
			stack = append(stack, fr.ctx)
		}
	}
	return stack
}

// Snapshot returns a shallow copy of every variable currently visible from
// f, used to capture a lambda's closure environment (spec §4.5 "Lambdas
// synthesize... a captured snapshot of the currently-visible variables
// (local-shadows-outer preserved)").
func (f *Frame) Snapshot() *Frame {
	snap := NewRoot()
	// Walk from root to f so that inner declarations overwrite outer ones,
	// preserving "local-shadows-outer" in the flattened snapshot.
	var chain []*Frame
	for fr := f; fr != nil; fr = fr.parent {
		chain = append(chain, fr)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].vars {
			snap.vars[k] = v
		}
		for k, v := range chain[i].funcs {
			snap.funcs[k] = append([]*Overload{}, v...)
		}
	}
	return snap
}
