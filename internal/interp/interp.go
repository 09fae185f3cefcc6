// Package interp implements Flow's tree-walking evaluator (spec §4.5):
// statement and expression semantics over the parsed ast.Program, driven by
// the overload resolver, the note-stream compiler and the module loader.
package interp

import (
	"math/rand"
	"strings"

	"github.com/noahfreelove/flow/internal/ast"
	"github.com/noahfreelove/flow/internal/diag"
	"github.com/noahfreelove/flow/internal/modules"
	"github.com/noahfreelove/flow/internal/music"
	"github.com/noahfreelove/flow/internal/musicctx"
	"github.com/noahfreelove/flow/internal/notestream"
	"github.com/noahfreelove/flow/internal/overload"
	"github.com/noahfreelove/flow/internal/types"
	"github.com/noahfreelove/flow/internal/values"
)

// maxCallDepth guards against unbounded recursion (spec §3: "a maximum
// depth (≥ 1000) guards against unbounded recursion").
const maxCallDepth = 1000

// Interp runs one Flow program: a root frame, a diagnostic bag, a module
// loader and a seeded PRNG for note-stream random choices (spec §5).
type Interp struct {
	Root   *values.Frame
	Bag    *diag.Bag
	Loader *modules.Loader
	RNG    *rand.Rand

	// EntryFile is the path of the program being run (used to resolve
	// relative `use` paths when no module is currently loading); fileStack
	// tracks nested `use` so relative paths inside a loaded module resolve
	// against that module's own directory.
	EntryFile string
	fileStack []string

	// callDepth counts live user-function invocations (spec §3: "a maximum
	// depth (≥ 1000) guards against unbounded recursion"). A lexical
	// Frame.Depth() would not work here: a recursive proc's DeclFrame is
	// the same fixed declaration-site frame on every call, so its depth
	// never grows across recursive calls — this counter tracks the actual
	// call stack instead.
	callDepth int
}

// New constructs an Interp with a fresh root frame.
func New(bag *diag.Bag, loader *modules.Loader, rng *rand.Rand, entryFile string) *Interp {
	return &Interp{Root: values.NewRoot(), Bag: bag, Loader: loader, RNG: rng, EntryFile: entryFile}
}

// Run executes a parsed program in the root frame (spec §4.5 "execute(program)").
// The entry file is bracketed with the same begin/end-loading calls a
// `use`d module gets (see execUse) so a cycle that loops back to the entry
// file itself is caught rather than silently re-executed (spec §8 item 5).
func (in *Interp) Run(prog *ast.Program) {
	canonical := in.Loader.ResolvePath(in.EntryFile, "")
	in.Loader.BeginLoading(canonical)
	cs := &callState{}
	in.execStmts(prog.Statements, in.Root, cs)
	in.Loader.EndLoading(canonical, prog)
}

func (in *Interp) currentFile() string {
	if len(in.fileStack) == 0 {
		return in.EntryFile
	}
	return in.fileStack[len(in.fileStack)-1]
}

// ---- implicit-return accumulation (spec §4.5 "Implicit return") ----

// callState threads return short-circuiting and implicit-return value
// accumulation through one proc/lambda invocation's statement execution,
// including through any musical-context blocks nested in its body.
type callState struct {
	returned  bool
	hasResult bool
	result    values.Value
	accum     []values.Value
}

// finalValue implements spec §4.5's "implicit return" rule: an explicit
// `return` wins outright; otherwise zero accumulated expression-statement
// values is Void, one is that value, and more than one of the same type is
// an array of them. Mixed types fall back to an Array<Void> holding them
// (spec §9 Open Questions, decided explicitly: see DESIGN.md).
func (cs *callState) finalValue() values.Value {
	if cs.hasResult {
		return cs.result
	}
	switch len(cs.accum) {
	case 0:
		return values.Void
	case 1:
		return cs.accum[0]
	default:
		first := cs.accum[0]
		for _, v := range cs.accum[1:] {
			if !v.Type.Equals(first.Type) {
				return values.NewArray(types.Void, cs.accum)
			}
		}
		return values.NewArray(first.Type, cs.accum)
	}
}

// ---- statement execution ----

func (in *Interp) execStmts(stmts []ast.Stmt, frame *values.Frame, cs *callState) {
	for _, s := range stmts {
		if cs.returned {
			return
		}
		in.execStmt(s, frame, cs)
	}
}

func (in *Interp) execStmt(s ast.Stmt, frame *values.Frame, cs *callState) {
	switch st := s.(type) {
	case *ast.ProcDecl:
		sig := signatureForParams(st.Name, st.Params)
		frame.DeclareFunc(st.Name, &values.Overload{Sig: sig, Decl: st, DeclFrame: frame})

	case *ast.VarDecl:
		in.execVarDecl(st, frame)

	case *ast.Assign:
		val := in.evaluate(st.Value, frame)
		if err := frame.Assign(st.Name, val); err != nil {
			in.Bag.Resolutionf(st.Loc, "%v", err)
		}

	case *ast.ReturnStmt:
		v := values.Void
		if st.Value != nil {
			v = in.evaluate(st.Value, frame)
		}
		cs.hasResult = true
		cs.result = v
		cs.returned = true

	case *ast.UseStmt:
		in.execUse(st, frame)

	case *ast.ContextBlock:
		in.execContextBlock(st, frame, cs)

	case *ast.SectionDecl:
		in.execSectionDecl(st, frame)

	case *ast.ExprStmt:
		v := in.evaluate(st.Value, frame)
		cs.accum = append(cs.accum, v)

	default:
		in.Bag.Runtimef(diag.Location{}, "unhandled statement type %T", s)
	}
}

func (in *Interp) execVarDecl(st *ast.VarDecl, frame *values.Frame) {
	declType := resolveTypeRef(st.Type)
	var val values.Value
	if st.Init != nil {
		raw := in.evaluate(st.Init, frame)
		val = in.convert(raw, declType, st.Loc)
	} else {
		val = values.ZeroValue(declType)
	}
	if err := frame.Declare(st.Name, val); err != nil {
		in.Bag.Resolutionf(st.Loc, "%v", err)
	}
}

// execUse resolves and, unless already loaded or mid-load, executes a
// module's statements into the caller's frame. The canonical path stays
// marked "loading" in the Loader for the full duration of execStmts below —
// not just the parse inside Load — so a nested `use` anywhere in that
// module's body (including one that loops back to this very path) sees it
// as in-progress and reports a cycle instead of re-entering it (spec §8
// item 5).
func (in *Interp) execUse(st *ast.UseStmt, frame *values.Frame) {
	importingFile := in.currentFile()
	prog, already := in.Loader.Load(st, importingFile, in.Bag)
	if prog == nil || already {
		return
	}
	canonical := in.Loader.ResolvePath(st.Path, importingFile)
	in.fileStack = append(in.fileStack, canonical)
	cs := &callState{}
	in.execStmts(prog.Statements, frame, cs)
	in.fileStack = in.fileStack[:len(in.fileStack)-1]
	in.Loader.EndLoading(canonical, prog)
}

// execContextBlock pushes a child frame carrying the block's musical-context
// snapshot, executes its body, then lets the child go out of scope (spec
// §4.5 "musical-context statements push frame+populate context
// snapshot+execute body+pop" — "pop" here is simply not using the child
// frame again once execStmts returns).
func (in *Interp) execContextBlock(st *ast.ContextBlock, frame *values.Frame, cs *callState) {
	child := frame.NewChild()
	ctx := &musicctx.Context{}
	switch st.Kind {
	case ast.CtxTimeSig:
		if err := musicctx.ValidateTimeSig(st.Num, st.Den); err != nil {
			in.Bag.Musicalf(st.Loc, "%v", err)
		} else {
			num, den := st.Num, st.Den
			ctx.TimeSigNum, ctx.TimeSigDen = &num, &den
		}
	case ast.CtxTempo:
		bpm := numericAsFloat64(in.evaluate(st.Value, frame))
		if err := musicctx.ValidateTempo(bpm); err != nil {
			in.Bag.Musicalf(st.Loc, "%v", err)
		} else {
			ctx.TempoBPM = &bpm
		}
	case ast.CtxSwing:
		swing := numericAsFloat64(in.evaluate(st.Value, frame))
		if err := musicctx.ValidateSwing(swing); err != nil {
			in.Bag.Musicalf(st.Loc, "%v", err)
		} else {
			ctx.Swing = &swing
		}
	case ast.CtxKey:
		canon, ok := musicctx.CanonicalKey(st.Name)
		if !ok {
			in.Bag.Musicalf(st.Loc, "unknown key %q", st.Name)
		} else {
			ctx.Key = &canon
		}
	case ast.CtxDynamics:
		if err := musicctx.ValidateDynamics(st.Name); err != nil {
			in.Bag.Musicalf(st.Loc, "%v", err)
		} else {
			name := st.Name
			ctx.Dynamics = &name
		}
	}
	child.SetContext(ctx)
	in.execStmts(st.Body, child, cs)
}

// execSectionDecl runs a section's body in a child frame and collects every
// Sequence value bound there into the Section's named-sequence map (spec §3
// Section, ast.SectionDecl's doc comment).
func (in *Interp) execSectionDecl(st *ast.SectionDecl, frame *values.Frame) {
	child := frame.NewChild()
	cs := &callState{}
	in.execStmts(st.Body, child, cs)

	sequences := map[string]*music.Sequence{}
	for _, bodyStmt := range st.Body {
		vd, ok := bodyStmt.(*ast.VarDecl)
		if !ok {
			continue
		}
		v, ok := child.Lookup(vd.Name)
		if !ok || v.Type.Kind != types.KindSequence {
			continue
		}
		if seq, ok := v.Payload.(*music.Sequence); ok {
			sequences[vd.Name] = seq
		}
	}
	section := &music.Section{Name: st.Name, Sequences: sequences}
	if err := frame.Declare(st.Name, values.NewSection(section)); err != nil {
		in.Bag.Resolutionf(st.Loc, "%v", err)
	}
}

// ---- expression evaluation ----

func (in *Interp) evaluate(e ast.Expr, frame *values.Frame) values.Value {
	switch ex := e.(type) {
	case *ast.IntLit:
		return values.NewInt(ex.Value)
	case *ast.FloatLit:
		return values.NewDouble(ex.Value)
	case *ast.StringLit:
		return values.NewString(ex.Value)
	case *ast.BoolLit:
		return values.NewBool(ex.Value)
	case *ast.SemitoneLit:
		return values.NewSemitone(ex.Value)
	case *ast.CentLit:
		return values.NewCent(ex.Value)
	case *ast.MillisecondLit:
		return values.NewMillisecond(ex.Value)
	case *ast.SecondLit:
		return values.NewSecond(ex.Value)
	case *ast.DecibelLit:
		return values.NewDecibel(ex.Value)
	case *ast.NoteLit:
		return values.NewNote(values.NotePitch{
			Letter: ex.Letter, Accidental: ex.Accidental, Octave: ex.Octave, HasOctave: ex.HasOctave,
		})
	case *ast.Ident:
		return in.evalIdent(ex, frame)
	case *ast.ParenExpr:
		return in.evaluate(ex.Inner, frame)
	case *ast.CallExpr:
		return in.evalCall(ex, frame)
	case *ast.FlowExpr:
		return in.evalFlow(ex, frame)
	case *ast.BinaryExpr:
		return in.evalBinary(ex, frame)
	case *ast.UnaryExpr:
		return in.evalUnary(ex, frame)
	case *ast.IndexExpr:
		return in.evalIndex(ex, frame)
	case *ast.MemberExpr:
		return in.evalMember(ex, frame)
	case *ast.LambdaExpr:
		return in.evalLambda(ex, frame)
	case *ast.LazyExpr:
		return in.evalLazy(ex, frame)
	case *ast.ArrayLit:
		return in.evalArrayLit(ex, frame)
	case *ast.NoteStreamExpr:
		eff := musicctx.Resolve(frame.ContextStack())
		seq := notestream.Compile(ex, eff, in.RNG, in.Bag)
		return values.NewSequence(seq)
	default:
		in.Bag.Runtimef(e.Location(), "unhandled expression type %T", e)
		return values.Void
	}
}

// evalIdent implements spec §4.5's "variable-or-zero-arg-call fallback": a
// bare identifier resolves to a variable if one is visible, else to a
// zero-argument call if an overload with that arity exists, else a
// Resolution diagnostic and Void.
func (in *Interp) evalIdent(ex *ast.Ident, frame *values.Frame) values.Value {
	if v, ok := frame.Lookup(ex.Name); ok {
		return v
	}
	overloads := frame.LookupFuncs(ex.Name)
	if len(overloads) > 0 {
		candidates := toCandidates(overloads)
		if res, ok := overload.TryResolve(candidates, nil); ok {
			return in.callOverload(overloads[res.Index], nil, ex.Loc)
		}
	}
	in.Bag.Resolutionf(ex.Loc, "%q not found", ex.Name)
	return values.Void
}

// callableOverloads collects every overload visible for a call by name:
// declared proc overloads plus, when a variable of that name is currently
// bound to a Function value, that value's own overload (spec §4.5: a
// CallExpr's Callee may name either a declared procedure or a variable
// holding a closure, e.g. `Function f = fn … => …; (f 5)`).
func (in *Interp) callableOverloads(name string, frame *values.Frame) []*values.Overload {
	overloads := frame.LookupFuncs(name)
	if v, ok := frame.Lookup(name); ok && v.Type.Kind == types.KindFunction {
		if ov, ok := v.Payload.(*values.Overload); ok {
			overloads = append(append([]*values.Overload{}, overloads...), ov)
		}
	}
	return overloads
}

func (in *Interp) evalCall(ex *ast.CallExpr, frame *values.Frame) values.Value {
	args := make([]values.Value, len(ex.Args))
	argTypes := make([]*types.Type, len(ex.Args))
	for i, a := range ex.Args {
		args[i] = in.evaluate(a, frame)
		argTypes[i] = args[i].Type
	}
	overloads := in.callableOverloads(ex.Callee, frame)
	if len(overloads) == 0 {
		in.Bag.Resolutionf(ex.Loc, "%q not found", ex.Callee)
		return values.Void
	}
	candidates := toCandidates(overloads)
	res, err := overload.Resolve(ex.Callee, candidates, argTypes)
	if err != nil {
		in.Bag.Resolutionf(ex.Loc, "%v", err)
		return values.Void
	}
	return in.callOverload(overloads[res.Index], coerceArgs(overloads[res.Index].Sig, args), ex.Loc)
}

// coerceArgs packs variadic surplus arguments into a trailing array, per the
// signature's arity, so callOverload always binds exactly len(Decl.Params)
// values. The single-Array-passthrough special case (a lone surplus
// argument that is already the right kind of array) is passed through
// as-is rather than re-wrapped (spec §4.4).
func coerceArgs(sig types.Signature, args []values.Value) []values.Value {
	if !sig.Variadic {
		return args
	}
	fixed := len(sig.Params) - 1
	if fixed < 0 {
		fixed = 0
	}
	if len(args) < fixed {
		return args
	}
	surplus := args[fixed:]
	elem := sig.Params[len(sig.Params)-1].Elem
	if len(surplus) == 1 && surplus[0].Type.Kind == types.KindArray {
		return append(append([]values.Value{}, args[:fixed]...), surplus[0])
	}
	packed := values.NewArray(elem, surplus)
	return append(append([]values.Value{}, args[:fixed]...), packed)
}

// CallOverload invokes an already-resolved overload directly, bypassing
// name resolution. Host builtins that need to call back into user code
// (spec §9 "Higher-order calls via host": map/filter/reduce/each) are
// constructed with this as their callback capability at engine
// construction time, rather than reaching into interpreter internals.
func (in *Interp) CallOverload(ov *values.Overload, args []values.Value) values.Value {
	return in.callOverload(ov, args, diag.Location{})
}

// callOverload dispatches a resolved overload: a host builtin computes
// directly; a user proc/lambda runs in a fresh child frame rooted at its
// lexical parent (DeclFrame for a plain proc, Captured for a lambda),
// guarded by the call-depth limit (spec §3, §7 "stack overflow").
func (in *Interp) callOverload(ov *values.Overload, args []values.Value, loc diag.Location) values.Value {
	if ov.IsHost() {
		v, err := ov.Host(args)
		if err != nil {
			in.Bag.Runtimef(loc, "%v", err)
			return values.Void
		}
		return v
	}

	if in.callDepth >= maxCallDepth {
		in.Bag.Runtimef(loc, "stack overflow: call depth exceeded %d", maxCallDepth)
		return values.Void
	}

	parent := ov.Captured
	if parent == nil {
		parent = ov.DeclFrame
	}
	if parent == nil {
		parent = in.Root
	}

	callFrame := parent.NewChild()
	bindParams(callFrame, ov.Decl.Params, args)

	in.callDepth++
	cs := &callState{}
	in.execStmts(ov.Decl.Body, callFrame, cs)
	in.callDepth--
	return cs.finalValue()
}

// bindParams declares each parameter in callFrame. A variadic trailing
// parameter receives whatever coerceArgs already packed (a single array
// value), so this just declares args[i] under Params[i].Name positionally.
func bindParams(frame *values.Frame, params []ast.Param, args []values.Value) {
	for i, p := range params {
		var v values.Value
		if i < len(args) {
			v = args[i]
		} else {
			v = values.ZeroValue(resolveTypeRef(p.Type))
		}
		_ = frame.Declare(p.Name, v)
	}
}

func toCandidates(overloads []*values.Overload) []overload.Candidate {
	out := make([]overload.Candidate, len(overloads))
	for i, o := range overloads {
		out[i] = o
	}
	return out
}

// evalFlow implements the fallback half of the `->` transform (spec §4.2):
// the parser already rewrites a bare-callable-name right-hand side into a
// CallExpr, so only a general expression survives as FlowExpr. Its Right
// must evaluate to a Function value, called with Left spliced in first.
func (in *Interp) evalFlow(ex *ast.FlowExpr, frame *values.Frame) values.Value {
	left := in.evaluate(ex.Left, frame)
	right := in.evaluate(ex.Right, frame)
	if right.Type.Kind != types.KindFunction {
		in.Bag.Typef(ex.Loc, "'->' right-hand side is not callable (got %s)", right.Type)
		return values.Void
	}
	ov, _ := right.Payload.(*values.Overload)
	if ov == nil {
		return values.Void
	}
	return in.callOverload(ov, []values.Value{left}, ex.Loc)
}

// evalBinary dispatches `+ - * /` on the numeric widening ladder (spec
// §4.5: "Binary arithmetic dispatches on the numeric ladder"). The result
// type is the wider of the two operand types.
func (in *Interp) evalBinary(ex *ast.BinaryExpr, frame *values.Frame) values.Value {
	l := in.evaluate(ex.Left, frame)
	r := in.evaluate(ex.Right, frame)
	if !l.Type.IsCompatibleWith(r.Type) {
		in.Bag.Typef(ex.Loc, "incompatible operand types %s and %s for %q", l.Type, r.Type, ex.Op)
		return values.Void
	}
	result := wideningResultType(l.Type, r.Type)
	lf, rf := numericAsFloat64(l), numericAsFloat64(r)
	var out float64
	switch ex.Op {
	case "+":
		out = lf + rf
	case "-":
		out = lf - rf
	case "*":
		out = lf * rf
	case "/":
		if rf == 0 {
			in.Bag.Runtimef(ex.Loc, "division by zero")
			return values.Void
		}
		out = lf / rf
	default:
		in.Bag.Runtimef(ex.Loc, "unknown binary operator %q", ex.Op)
		return values.Void
	}
	return numericValueOf(result, out)
}

func (in *Interp) evalUnary(ex *ast.UnaryExpr, frame *values.Frame) values.Value {
	v := in.evaluate(ex.Operand, frame)
	if ex.Op == "+" {
		return v
	}
	f := numericAsFloat64(v)
	return numericValueOf(v.Type, -f)
}

// evalIndex implements postfix `@` array indexing with negative wrap and a
// soft Void fallback on out-of-bounds access (spec §3 invariant (ii), §4.5).
func (in *Interp) evalIndex(ex *ast.IndexExpr, frame *values.Frame) values.Value {
	target := in.evaluate(ex.Target, frame)
	idxVal := in.evaluate(ex.Index, frame)
	arr, ok := target.Payload.(*values.Array)
	if !ok {
		in.Bag.Runtimef(ex.Loc, "'@' target is not an array (got %s)", target.Type)
		return values.Void
	}
	v, ok := arr.Index(numericAsInt64(idxVal))
	if !ok {
		in.Bag.Runtimef(ex.Loc, "array index out of bounds")
		return values.Void
	}
	return v
}

// evalMember is postfix `.` access on aggregate payloads (spec §3).
// Supported fields are the ones spec §3's per-aggregate field lists name.
func (in *Interp) evalMember(ex *ast.MemberExpr, frame *values.Frame) values.Value {
	target := in.evaluate(ex.Target, frame)
	v, ok := memberOf(target, ex.Name)
	if !ok {
		in.Bag.Resolutionf(ex.Loc, "no member %q on %s", ex.Name, target.Type)
		return values.Void
	}
	return v
}

// evalLambda synthesizes a single-statement procedure declaration from the
// lambda's expression body and a frozen snapshot of the currently-visible
// frame chain (spec §4.5 "Lambdas synthesize... a captured snapshot").
func (in *Interp) evalLambda(ex *ast.LambdaExpr, frame *values.Frame) values.Value {
	decl := &ast.ProcDecl{
		Name:   "<lambda>",
		Params: ex.Params,
		Body:   []ast.Stmt{&ast.ReturnStmt{Value: ex.Body, Loc: ex.Loc}},
		Loc:    ex.Loc,
	}
	sig := signatureForParams("<lambda>", ex.Params)
	ov := &values.Overload{Sig: sig, Decl: decl, Captured: frame.Snapshot()}
	return values.NewFunction(ov)
}

func (in *Interp) evalLazy(ex *ast.LazyExpr, frame *values.Frame) values.Value {
	elemType := inferExprType(ex.Inner, frame)
	thunk := values.NewThunk(ex.Inner, frame, in.evaluate, elemType)
	return values.NewLazy(thunk)
}

// evalArrayLit infers the element type from its elements (spec §4.5 "array
// literal element-type inference"): all elements sharing a type produce
// Array<T>; any mismatch falls back to Array<Void>; zero elements also
// produce Array<Void> (the universal empty-array placeholder).
func (in *Interp) evalArrayLit(ex *ast.ArrayLit, frame *values.Frame) values.Value {
	items := make([]values.Value, len(ex.Elements))
	for i, e := range ex.Elements {
		items[i] = in.evaluate(e, frame)
	}
	if len(items) == 0 {
		return values.NewArray(types.Void, nil)
	}
	elem := items[0].Type
	for _, it := range items[1:] {
		if !it.Type.Equals(elem) {
			elem = types.Void
			break
		}
	}
	return values.NewArray(elem, items)
}

// inferExprType performs a best-effort static type inference for a lazy
// expression's element type without evaluating it, by walking literal and
// identifier forms directly. Anything dynamic (a call whose overload isn't
// yet known without evaluating arguments) falls back to Void — the lazy
// value is still usable; only Lazy<T>'s declared element type is imprecise
// until forced once.
func inferExprType(e ast.Expr, frame *values.Frame) *types.Type {
	switch ex := e.(type) {
	case *ast.IntLit:
		return types.Int
	case *ast.FloatLit:
		return types.Double
	case *ast.StringLit:
		return types.String
	case *ast.BoolLit:
		return types.Bool
	case *ast.SemitoneLit:
		return types.Semitone
	case *ast.CentLit:
		return types.Cent
	case *ast.MillisecondLit:
		return types.Millisecond
	case *ast.SecondLit:
		return types.Second
	case *ast.DecibelLit:
		return types.Decibel
	case *ast.NoteLit:
		return types.Note
	case *ast.Ident:
		if v, ok := frame.Lookup(ex.Name); ok {
			return v.Type
		}
		return types.Void
	case *ast.ParenExpr:
		return inferExprType(ex.Inner, frame)
	default:
		return types.Void
	}
}

// ---- type resolution & conversion ----

var typeByName = map[string]*types.Type{
	"Int": types.Int, "Long": types.Long, "Float": types.Float, "Double": types.Double,
	"String": types.String, "Bool": types.Bool, "Number": types.Number, "Void": types.Void,
	"Note": types.Note, "Semitone": types.Semitone, "Cent": types.Cent,
	"Millisecond": types.Millisecond, "Second": types.Second, "Decibel": types.Decibel, "Beat": types.Beat,
	"MusicalNote": types.MusicalNote, "Bar": types.Bar, "Sequence": types.Sequence, "Chord": types.Chord,
	"Section": types.Section, "Song": types.Song, "TimeSignature": types.TimeSignature, "NoteValue": types.NoteValue,
	"Buffer": types.Buffer, "OscillatorState": types.OscillatorState, "Envelope": types.Envelope,
	"Voice": types.Voice, "Track": types.Track, "Function": types.Function, "Buf": types.Buf,
}

// resolveTypeRef maps a parsed type annotation (with the parser's
// plural-sugar already expanded into Array/Lazy form) to a runtime *types.Type.
func resolveTypeRef(tref ast.TypeRef) *types.Type {
	if tref.IsArray {
		return types.ArrayOf(resolveTypeRef(*tref.Elem))
	}
	if tref.Name == "Lazy" && tref.Elem != nil {
		return types.LazyOf(resolveTypeRef(*tref.Elem))
	}
	if t, ok := typeByName[tref.Name]; ok {
		return t
	}
	return types.Void
}

func signatureForParams(name string, params []ast.Param) types.Signature {
	sig := types.Signature{Name: name, Variadic: len(params) > 0 && params[len(params)-1].Variadic}
	for _, p := range params {
		sig.Params = append(sig.Params, resolveTypeRef(p.Type))
	}
	return sig
}

// convert implements spec §4.5's variable-declaration conversion rule:
// exact type keeps the value; a convertible type is converted; anything
// else is a Type diagnostic and the declared type's zero value.
func (in *Interp) convert(v values.Value, target *types.Type, loc diag.Location) values.Value {
	if v.Type.Equals(target) {
		return v
	}
	if v.Type.CanConvertTo(target) {
		return convertValue(v, target)
	}
	in.Bag.Typef(loc, "cannot assign %s to declared type %s", v.Type, target)
	return values.ZeroValue(target)
}

func convertValue(v values.Value, target *types.Type) values.Value {
	switch target.Kind {
	case types.KindLong:
		return values.NewLong(numericAsInt64(v))
	case types.KindFloat:
		return values.NewFloat(float32(numericAsFloat64(v)))
	case types.KindDouble:
		return values.NewDouble(numericAsFloat64(v))
	case types.KindNumber:
		return values.NewNumber(numericAsFloat64(v))
	case types.KindSecond:
		if v.Type.Kind == types.KindMillisecond {
			return values.NewSecond(numericAsFloat64(v) / 1000.0)
		}
	case types.KindMillisecond:
		if v.Type.Kind == types.KindSecond {
			return values.NewMillisecond(numericAsFloat64(v) * 1000.0)
		}
	case types.KindArray:
		if arr, ok := v.Payload.(*values.Array); ok {
			return values.NewArray(target.Elem, arr.Items)
		}
	}
	return v
}

// wideningResultType picks the wider numeric type of two compatible numeric
// operand types, per the ladder Int(0) < Long/Float(1) < Double(2) < Number(3).
func wideningResultType(a, b *types.Type) *types.Type {
	rank := func(t *types.Type) int {
		switch t.Kind {
		case types.KindInt:
			return 0
		case types.KindLong, types.KindFloat:
			return 1
		case types.KindDouble:
			return 2
		case types.KindNumber:
			return 3
		default:
			return -1
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

func numericValueOf(t *types.Type, f float64) values.Value {
	switch t.Kind {
	case types.KindInt:
		return values.NewInt(int64(f))
	case types.KindLong:
		return values.NewLong(int64(f))
	case types.KindFloat:
		return values.NewFloat(float32(f))
	case types.KindDouble:
		return values.NewDouble(f)
	case types.KindNumber:
		return values.NewNumber(f)
	default:
		return values.NewDouble(f)
	}
}

func numericAsFloat64(v values.Value) float64 {
	switch p := v.Payload.(type) {
	case int64:
		return float64(p)
	case float32:
		return float64(p)
	case float64:
		return p
	default:
		return 0
	}
}

func numericAsInt64(v values.Value) int64 {
	switch p := v.Payload.(type) {
	case int64:
		return p
	case float32:
		return int64(p)
	case float64:
		return int64(p)
	default:
		return 0
	}
}

// memberOf implements the small set of `.name` accessors spec §3's
// aggregate field lists document.
func memberOf(v values.Value, name string) (values.Value, bool) {
	switch p := v.Payload.(type) {
	case *music.MusicalNote:
		switch strings.ToLower(name) {
		case "isrest":
			return values.NewBool(p.IsRest), true
		case "tied":
			return values.NewBool(p.Tied), true
		case "octave":
			return values.NewInt(int64(p.Octave)), true
		}
	case *music.TimeSignature:
		switch strings.ToLower(name) {
		case "num", "numerator":
			return values.NewInt(int64(p.Num)), true
		case "den", "denominator":
			return values.NewInt(int64(p.Den)), true
		}
	case *music.Voice:
		switch strings.ToLower(name) {
		case "gain":
			return values.NewDouble(p.Gain), true
		case "pan":
			return values.NewDouble(p.Pan), true
		case "beatoffset":
			return values.NewDouble(p.BeatOffset), true
		}
	case *music.Track:
		switch strings.ToLower(name) {
		case "gain":
			return values.NewDouble(p.Gain), true
		}
	case *music.Section:
		if strings.ToLower(name) == "name" {
			return values.NewString(p.Name), true
		}
	}
	return values.Void, false
}
