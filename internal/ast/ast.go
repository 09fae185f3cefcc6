// Package ast defines Flow's abstract syntax tree (spec §4.2). Node
// variants are plain structs behind small marker interfaces — a closed set,
// per spec §9 Design Notes, rather than a class hierarchy.
package ast

import "github.com/noahfreelove/flow/internal/diag"

// Program is the root of a parsed file.
type Program struct {
	Statements []Stmt
}

// Stmt is implemented by every statement node.
type Stmt interface{ stmtNode() }

// Expr is implemented by every expression node.
type Expr interface {
	exprNode()
	Location() diag.Location
}

// TypeRef is a parsed type annotation: a base name plus an "is this really
// an array" flag set either explicitly (`Ints x`) or by the plural-sugar
// disambiguation the parser performs (spec §4.2).
type TypeRef struct {
	Name    string // e.g. "Int", "Sequence", "Array" (Elem holds element then)
	IsArray bool
	Elem    *TypeRef // element type ref when IsArray
	Loc     diag.Location
}

// Param is one procedure/lambda parameter.
type Param struct {
	Name     string
	Type     TypeRef
	Variadic bool
}

// ---- Statements ----

type ProcDecl struct {
	Internal bool
	Name     string
	Params   []Param
	Body     []Stmt
	Loc      diag.Location
}

func (*ProcDecl) stmtNode() {}

type VarDecl struct {
	Type TypeRef
	Name string
	Init Expr // nil if no initializer was given
	Loc  diag.Location
}

func (*VarDecl) stmtNode() {}

type Assign struct {
	Name  string
	Value Expr
	Loc   diag.Location
}

func (*Assign) stmtNode() {}

type ReturnStmt struct {
	Value Expr // nil for bare `return`
	Loc   diag.Location
}

func (*ReturnStmt) stmtNode() {}

type UseStmt struct {
	Path string
	Loc  diag.Location
}

func (*UseStmt) stmtNode() {}

// ContextKind distinguishes the five musical-context block forms.
type ContextKind int

const (
	CtxTimeSig ContextKind = iota
	CtxTempo
	CtxSwing
	CtxKey
	CtxDynamics
)

// ContextBlock models `timesig N/D { … }`, `tempo expr { … }`,
// `swing expr { … }`, `key ident { … }`, `dynamics ident { … }` (spec §4.2).
type ContextBlock struct {
	Kind ContextKind
	// For CtxTimeSig: Num/Den are literal integers from `N/D`.
	Num, Den int
	// For CtxTempo/CtxSwing: Value is the expression.
	Value Expr
	// For CtxKey/CtxDynamics: Name is the bare identifier.
	Name string
	Body []Stmt
	Loc  diag.Location
}

func (*ContextBlock) stmtNode() {}

// SectionDecl models `section name { … }` (spec §3 Section). The body is
// interpreted like any other block; the interpreter collects the Sequence
// values bound by VarDecls in it into the Section's named-sequence map.
type SectionDecl struct {
	Name string
	Body []Stmt
	Loc  diag.Location
}

func (*SectionDecl) stmtNode() {}

type ExprStmt struct {
	Value Expr
	Loc   diag.Location
}

func (*ExprStmt) stmtNode() {}

// ---- Expressions ----

type ExprBase struct{ Loc diag.Location }

func (b ExprBase) Location() diag.Location { return b.Loc }

// BaseExprAt constructs an ExprBase for a given source location; parser code
// outside this package uses it rather than naming the embedded field
// directly in every literal construction.
func BaseExprAt(loc diag.Location) ExprBase { return ExprBase{Loc: loc} }

type IntLit struct {
	ExprBase
	Value int64
}

func (*IntLit) exprNode() {}

type FloatLit struct {
	ExprBase
	Value float64
}

func (*FloatLit) exprNode() {}

type StringLit struct {
	ExprBase
	Value string
}

func (*StringLit) exprNode() {}

type BoolLit struct {
	ExprBase
	Value bool
}

func (*BoolLit) exprNode() {}

type SemitoneLit struct {
	ExprBase
	Value int64
}

func (*SemitoneLit) exprNode() {}

type CentLit struct {
	ExprBase
	Value float64
}

func (*CentLit) exprNode() {}

type MillisecondLit struct {
	ExprBase
	Value float64
}

func (*MillisecondLit) exprNode() {}

type SecondLit struct {
	ExprBase
	Value float64
}

func (*SecondLit) exprNode() {}

type DecibelLit struct {
	ExprBase
	Value float64
}

func (*DecibelLit) exprNode() {}

// NoteLit is a bare pitch literal used outside note-stream notation, e.g.
// `Note n = C4`.
type NoteLit struct {
	ExprBase
	Letter     byte // 'A'..'G'
	Accidental byte // 0, 's', or 'f'
	HasOctave  bool
	Octave     int
}

func (*NoteLit) exprNode() {}

type Ident struct {
	ExprBase
	Name string
}

func (*Ident) exprNode() {}

type ParenExpr struct {
	ExprBase
	Inner Expr
}

func (*ParenExpr) exprNode() {}

// CallExpr covers both `(name args...)` and bare-identifier call forms, and
// is also what `->` rewrites into when the right-hand side names a callable
// directly (spec §4.2 "Flow operator transform").
type CallExpr struct {
	ExprBase
	Callee string
	Args   []Expr
}

func (*CallExpr) exprNode() {}

// FlowExpr is the fallback the parser builds when `->`'s right-hand side is
// not a plain callable-name form (e.g. a parenthesized expression producing
// a Function value). The interpreter evaluates it by calling the resulting
// value with Left spliced as the first argument.
type FlowExpr struct {
	ExprBase
	Left  Expr
	Right Expr
}

func (*FlowExpr) exprNode() {}

type BinaryExpr struct {
	ExprBase
	Op    string
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

type UnaryExpr struct {
	ExprBase
	Op      string
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// IndexExpr is postfix `@` indexing.
type IndexExpr struct {
	ExprBase
	Target Expr
	Index  Expr
}

func (*IndexExpr) exprNode() {}

// MemberExpr is postfix `.` member access.
type MemberExpr struct {
	ExprBase
	Target Expr
	Name   string
}

func (*MemberExpr) exprNode() {}

// LambdaExpr is `fn params => body`.
type LambdaExpr struct {
	ExprBase
	Params []Param
	Body   Expr
}

func (*LambdaExpr) exprNode() {}

// LazyExpr is `lazy (expr)`.
type LazyExpr struct {
	ExprBase
	Inner Expr
}

func (*LazyExpr) exprNode() {}

type ArrayLit struct {
	ExprBase
	Elements []Expr
}

func (*ArrayLit) exprNode() {}

// ---- Note-stream notation (spec §4.2 "Note-stream parsing") ----

// NoteStreamExpr is the `| … | … |` form bounded by pipes.
type NoteStreamExpr struct {
	ExprBase
	Bars []BarNode
}

func (*NoteStreamExpr) exprNode() {}

// BarNode is the token run between two `|` markers.
type BarNode struct {
	Elements []BarElement
	Loc      diag.Location
}

// BarElement is implemented by every note-stream element variant.
type BarElement interface{ barElementNode() }

// DurationSuffix holds the optional explicit duration letter/dot/tie shared
// by pitched notes, rests and bracketed chords.
type DurationSuffix struct {
	Letter byte // one of 'w','h','s','q','e','t' (whsqet), 0 if absent
	Dotted bool
	Tied   bool
}

type PitchedNoteElement struct {
	Letter     byte
	Accidental byte // 0, 's', 'f'
	Octave     int
	HasOctave  bool
	Duration   DurationSuffix
	CentOffset *float64
	Loc        diag.Location
}

func (*PitchedNoteElement) barElementNode() {}

type RestElement struct {
	Duration DurationSuffix
	Loc      diag.Location
}

func (*RestElement) barElementNode() {}

// ChordBracketElement is `[n1 n2 …]` with one shared duration.
type ChordBracketElement struct {
	Notes    []PitchedNoteElement
	Duration DurationSuffix
	Loc      diag.Location
}

func (*ChordBracketElement) barElementNode() {}

// ChordSymbolElement is e.g. `Cmaj7`.
type ChordSymbolElement struct {
	Symbol   string
	Duration DurationSuffix
	Loc      diag.Location
}

func (*ChordSymbolElement) barElementNode() {}

// RomanNumeralElement is a scale-degree chord symbol (`I` … `vii`, optional `7`).
type RomanNumeralElement struct {
	Numeral  string
	Seventh  bool
	Duration DurationSuffix
	Loc      diag.Location
}

func (*RomanNumeralElement) barElementNode() {}

// RandomChoiceElement is `(? n1 n2 …)` or `(?? n1:w1 n2:w2 …)`.
type RandomChoiceElement struct {
	Weighted bool
	Choices  []BarElement
	Weights  []float64 // parallel to Choices; 1.0 when unweighted
	Loc      diag.Location
}

func (*RandomChoiceElement) barElementNode() {}
