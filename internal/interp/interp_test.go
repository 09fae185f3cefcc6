package interp

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/noahfreelove/flow/internal/ast"
	"github.com/noahfreelove/flow/internal/diag"
	"github.com/noahfreelove/flow/internal/lexer"
	"github.com/noahfreelove/flow/internal/modules"
	"github.com/noahfreelove/flow/internal/music"
	"github.com/noahfreelove/flow/internal/musicctx"
	"github.com/noahfreelove/flow/internal/parser"
	"github.com/noahfreelove/flow/internal/types"
	"github.com/noahfreelove/flow/internal/values"
)

func run(t *testing.T, src string) (*Interp, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	toks := lexer.Tokenize(src, "<test>", bag)
	prog := parser.Parse(toks, bag)
	if !bag.Empty() {
		t.Fatalf("unexpected parse diagnostics: %v", bag.Items())
	}
	loader := modules.NewLoader(t.TempDir(), t.TempDir())
	in := New(bag, loader, rand.New(rand.NewSource(1)), "<test>")
	in.Run(prog)
	return in, bag
}

func TestVarDeclExactTypeKeepsValue(t *testing.T) {
	in, bag := run(t, `Int x = 3`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("x")
	if !ok || v.Payload.(int64) != 3 {
		t.Fatalf("expected x=3, got %+v ok=%v", v, ok)
	}
}

func TestVarDeclConvertsWideningNumericType(t *testing.T) {
	in, bag := run(t, `Double x = 3`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("x")
	if !ok || v.Type.Kind != types.KindDouble || v.Payload.(float64) != 3 {
		t.Fatalf("expected Double x=3, got %+v ok=%v", v, ok)
	}
}

func TestVarDeclIncompatibleTypeReportsAndZeroes(t *testing.T) {
	in, bag := run(t, `Bool x = 3`)
	if bag.Empty() {
		t.Fatal("expected a Type diagnostic for Bool x = 3")
	}
	v, ok := in.Root.Lookup("x")
	if !ok || v.Type.Kind != types.KindBool || v.Payload.(bool) != false {
		t.Fatalf("expected zero-valued Bool x, got %+v ok=%v", v, ok)
	}
}

func TestVarDeclNoInitializerUsesZeroValue(t *testing.T) {
	in, bag := run(t, `Int x`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("x")
	if !ok || v.Payload.(int64) != 0 {
		t.Fatalf("expected zero-valued Int x, got %+v ok=%v", v, ok)
	}
}

func TestAssignWalksParentsToExistingVariable(t *testing.T) {
	in, bag := run(t, `Int x = 1
x = 2`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, _ := in.Root.Lookup("x")
	if v.Payload.(int64) != 2 {
		t.Fatalf("expected x=2 after assignment, got %+v", v)
	}
}

func TestAssignToUndeclaredNameReportsResolutionDiagnostic(t *testing.T) {
	_, bag := run(t, `x = 2`)
	if bag.Empty() {
		t.Fatal("expected a Resolution diagnostic for assigning an undeclared name")
	}
	if bag.Items()[0].Kind != diag.Resolution {
		t.Fatalf("expected Resolution kind, got %v", bag.Items()[0].Kind)
	}
}

func TestBinaryArithmeticWidensToDouble(t *testing.T) {
	in, bag := run(t, `Double x = 3 + 4 * 2`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, _ := in.Root.Lookup("x")
	if v.Payload.(float64) != 11 {
		t.Fatalf("expected x=11, got %+v", v)
	}
}

func TestBinaryDivisionByZeroReportsRuntimeDiagnosticAndVoid(t *testing.T) {
	bag := diag.NewBag()
	toks := lexer.Tokenize(`Int x = 1 / 0`, "<test>", bag)
	prog := parser.Parse(toks, bag)
	loader := modules.NewLoader(t.TempDir(), t.TempDir())
	in := New(bag, loader, rand.New(rand.NewSource(1)), "<test>")
	in.Run(prog)
	found := false
	for _, d := range bag.Items() {
		if d.Kind == diag.Runtime {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a Runtime diagnostic for division by zero, got %v", bag.Items())
	}
}

// proc declarations without an explicit return accumulate each
// expression-statement's value; a single accumulated value becomes the
// call's result directly.
func TestProcImplicitReturnSingleValue(t *testing.T) {
	in, bag := run(t, `
proc double(Int n)
  n * 2
end
Int y = double(5)
`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("y")
	if !ok || v.Payload.(int64) != 10 {
		t.Fatalf("expected y=10, got %+v ok=%v", v, ok)
	}
}

// Multiple accumulated expression-statements of the same type become an
// array of them (the implicit-return aggregation rule).
func TestProcImplicitReturnAggregatesSameTypeIntoArray(t *testing.T) {
	in, bag := run(t, `
proc pair()
  1
  2
end
Int first = pair() @ 0
`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("first")
	if !ok || v.Payload.(int64) != 1 {
		t.Fatalf("expected first=1, got %+v ok=%v", v, ok)
	}
}

// Mixed-type accumulated statements fall back to Array<Void> (documented
// Open Question decision).
func TestCallStateFinalValueMixedTypesFallsBackToArrayVoid(t *testing.T) {
	cs := &callState{accum: []values.Value{values.NewInt(1), values.NewString("x")}}
	v := cs.finalValue()
	if v.Type.Kind != types.KindArray || v.Type.Elem.Kind != types.KindVoid {
		t.Fatalf("expected Array<Void>, got %s", v.Type)
	}
}

// An explicit return short-circuits remaining statements and wins over any
// accumulated values.
func TestExplicitReturnShortCircuitsAccumulation(t *testing.T) {
	in, bag := run(t, `
proc f()
  1
  return 99
  2
end
Int y = f()
`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("y")
	if !ok || v.Payload.(int64) != 99 {
		t.Fatalf("expected y=99, got %+v ok=%v", v, ok)
	}
}

// Closure snapshot: a lambda bound to a variable captures the frame visible
// at the point it was evaluated, so a later outer reassignment of a
// captured variable does not change what the closure sees.
func TestLambdaCapturesSnapshotNotLiveFrame(t *testing.T) {
	in, bag := run(t, `
proc addTo(Int a, Int b)
  a + b
end
Int x = 10
Function f = fn Int n => addTo(n, x)
x = 999
Int y = f(5)
`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("y")
	if !ok || v.Payload.(int64) != 15 {
		t.Fatalf("expected y=15 (closure snapshot of x=10), got %+v ok=%v", v, ok)
	}
}

// A variable bound to a Function value is itself callable by name, not just
// a declared proc overload (spec's own closure example calls `f` directly).
func TestVariableBoundFunctionIsCallableByName(t *testing.T) {
	in, bag := run(t, `
Function f = fn Int n => n * 3
Int y = f(4)
`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("y")
	if !ok || v.Payload.(int64) != 12 {
		t.Fatalf("expected y=12, got %+v ok=%v", v, ok)
	}
}

// A plain proc's lexical parent is walked live (DeclFrame), not snapshotted:
// a sibling declared after it in the same scope must still be visible to it
// on a later call.
func TestProcDeclFrameIsLiveNotSnapshotted(t *testing.T) {
	in, bag := run(t, `
proc useLater()
  later()
end
proc later()
  return 7
end
Int y = useLater()
`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("y")
	if !ok || v.Payload.(int64) != 7 {
		t.Fatalf("expected y=7, got %+v ok=%v", v, ok)
	}
}

// Unbounded recursion trips the call-depth guard rather than overflowing
// the Go call stack.
func TestRecursionTripsCallDepthGuard(t *testing.T) {
	_, bag := run(t, `
proc loopForever(Int n)
  loopForever(n + 1)
end
Int y = loopForever(0)
`)
	found := false
	for _, d := range bag.Items() {
		if d.Kind == diag.Runtime {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a Runtime diagnostic for exceeding the call-depth guard, got %v", bag.Items())
	}
}

func TestArrayIndexNegativeWrapAndOutOfBoundsFallsBackToVoid(t *testing.T) {
	in, bag := run(t, `
Int last = [1, 2, 3] @ -1
Int oob = [1, 2, 3] @ 99
`)
	lastDiag := len(bag.Items())
	if lastDiag == 0 {
		t.Fatalf("expected a Runtime diagnostic for the out-of-bounds index")
	}
	v, ok := in.Root.Lookup("last")
	if !ok || v.Payload.(int64) != 3 {
		t.Fatalf("expected last=3 (negative wrap), got %+v ok=%v", v, ok)
	}
	// evalIndex reports a Runtime diagnostic and yields Void on the
	// out-of-bounds read; declaring it into an Int then hits the
	// incompatible-type conversion path too, zeroing it to Int(0).
	oob, ok := in.Root.Lookup("oob")
	if !ok || oob.Type.Kind != types.KindInt || oob.Payload.(int64) != 0 {
		t.Fatalf("expected oob to fall back to Int(0) after a Void out-of-bounds read, got %+v", oob)
	}
}

func TestArrayLiteralMixedTypesInferArrayVoid(t *testing.T) {
	in, bag := run(t, `Voids xs = [1, "a"]`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("xs")
	if !ok || v.Type.Elem.Kind != types.KindVoid {
		t.Fatalf("expected Array<Void>, got %+v ok=%v", v, ok)
	}
}

func TestContextBlockBodyIsScopedToItsChildFrame(t *testing.T) {
	in, bag := run(t, `
timesig 3/4 {
  Int insideNum = 1
}
`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if _, ok := in.Root.Lookup("insideNum"); ok {
		t.Fatal("expected the context block's body variable to stay scoped to its child frame")
	}
}

func TestContextBlockInvalidTimeSigReportsMusicalDiagnostic(t *testing.T) {
	_, bag := run(t, `
timesig 3/5 {
}
`)
	found := false
	for _, d := range bag.Items() {
		if d.Kind == diag.Musical {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a Musical diagnostic for a non-power-of-two denominator, got %v", bag.Items())
	}
}

func TestDynamicsContextStampsVelocityOnCompiledNotes(t *testing.T) {
	bag := diag.NewBag()
	toks := lexer.Tokenize(`Sequence s = | C4q |`, "<test>", bag)
	prog := parser.Parse(toks, bag)
	if !bag.Empty() || len(prog.Statements) != 1 {
		t.Fatalf("unexpected parse result: diagnostics=%v stmts=%+v", bag.Items(), prog.Statements)
	}
	vd := prog.Statements[0].(*ast.VarDecl)
	noteStream := vd.Init.(*ast.NoteStreamExpr)

	loader := modules.NewLoader(t.TempDir(), t.TempDir())
	in := New(bag, loader, rand.New(rand.NewSource(1)), "<test>")
	child := in.Root.NewChild()
	name := "ff"
	child.SetContext(&musicctx.Context{Dynamics: &name})

	v := in.evaluate(noteStream, child)
	seq, ok := v.Payload.(*music.Sequence)
	if !ok || len(seq.Bars) != 1 || len(seq.Bars[0].Notes) != 1 {
		t.Fatalf("expected a 1-bar 1-note sequence, got %+v", v)
	}
	note := seq.Bars[0].Notes[0]
	want := musicctx.DynamicsVelocity("ff")
	if note.Velocity == nil || *note.Velocity != want {
		t.Fatalf("expected velocity %d from the ff dynamics context, got %+v", want, note.Velocity)
	}
}

func TestSectionDeclCollectsSequenceValuesByName(t *testing.T) {
	in, bag := run(t, `
section verse {
  Sequence main = | C4q D4q E4q F4q |
}
`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("verse")
	if !ok || v.Type.Kind != types.KindSection {
		t.Fatalf("expected a declared Section value named verse, got %+v ok=%v", v, ok)
	}
	sec, ok := v.Payload.(*music.Section)
	if !ok {
		t.Fatalf("expected *music.Section payload, got %T", v.Payload)
	}
	if _, ok := sec.Sequences["main"]; !ok {
		t.Fatalf("expected section to collect its 'main' sequence, got %+v", sec.Sequences)
	}
}

func TestNoteStreamExprCompilesUnderDefaultContext(t *testing.T) {
	in, bag := run(t, `Sequence s = | C4q D4q E4q F4q |`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("s")
	if !ok || v.Type.Kind != types.KindSequence {
		t.Fatalf("expected a Sequence value, got %+v ok=%v", v, ok)
	}
	seq, ok := v.Payload.(*music.Sequence)
	if !ok || len(seq.Bars) != 1 || len(seq.Bars[0].Notes) != 4 {
		t.Fatalf("expected 1 bar of 4 notes, got %+v", seq)
	}
}

func TestUseDelegatesToLoaderAndExecutesIntoCallerFrame(t *testing.T) {
	dir := t.TempDir()
	bag := diag.NewBag()
	helperPath := filepath.Join(dir, "helper.flow")
	if err := os.WriteFile(helperPath, []byte("Int fromModule = 42"), 0o644); err != nil {
		t.Fatal(err)
	}
	mainPath := filepath.Join(dir, "main.flow")

	toks := lexer.Tokenize(`use "helper.flow"`, mainPath, bag)
	prog := parser.Parse(toks, bag)
	if !bag.Empty() {
		t.Fatalf("unexpected parse diagnostics: %v", bag.Items())
	}
	loader := modules.NewLoader(t.TempDir(), dir)
	in := New(bag, loader, rand.New(rand.NewSource(1)), mainPath)
	in.Run(prog)
	if !bag.Empty() {
		t.Fatalf("unexpected run diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("fromModule")
	if !ok || v.Payload.(int64) != 42 {
		t.Fatalf("expected fromModule=42 executed into the caller's root frame, got %+v ok=%v", v, ok)
	}
}

// The parser rewrites `x -> name` into a CallExpr whenever the right-hand
// side starts with a bare identifier, so FlowExpr only survives for a
// right-hand side that starts with something else, e.g. a parenthesized
// lambda. evalFlow must evaluate that to a Function value and splice the
// left value in as its sole argument.
func TestFlowOperatorCallsParenthesizedLambda(t *testing.T) {
	in, bag := run(t, `
Int y = 5 -> (fn Int n => n * 2)
`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("y")
	if !ok || v.Payload.(int64) != 10 {
		t.Fatalf("expected y=10, got %+v ok=%v", v, ok)
	}
}

// `x -> name` itself is still worth covering end-to-end even though the
// parser resolves it to a CallExpr rather than a FlowExpr.
func TestFlowOperatorBareNameRewritesToCall(t *testing.T) {
	in, bag := run(t, `
Function double = fn Int n => n * 2
Int y = 5 -> double
`)
	if !bag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	v, ok := in.Root.Lookup("y")
	if !ok || v.Payload.(int64) != 10 {
		t.Fatalf("expected y=10, got %+v ok=%v", v, ok)
	}
}
