package lexer

import "github.com/noahfreelove/flow/internal/diag"

// TokenKind is the closed set of lexical token categories (spec §4.1).
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokComment

	// Keywords
	TokProc
	TokEnd
	TokReturn
	TokUse
	TokInternal
	TokLazy
	TokFn
	TokTimeSig
	TokTempo
	TokSwing
	TokKey
	TokSection
	TokDynamics
	TokTypeKeyword // type identifiers: Int, Long, Float, Double, String, Bool, ...

	// Literals
	TokIntLit
	TokFloatLit
	TokStringLit
	TokBoolLit
	TokSemitoneLit
	TokCentLit
	TokMillisecondLit
	TokSecondLit
	TokDecibelLit
	TokNoteLit

	// Operators
	TokArrow   // ->
	TokFatArrow // =>
	TokAt      // @
	TokAssign  // =
	TokColon   // :
	TokPlus
	TokMinus
	TokStar
	TokSlash
	TokLt
	TokGt

	// Delimiters
	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokLBrace
	TokRBrace
	TokPipe
	TokUnderscore
	TokTilde
	TokComma
	TokSemicolon
	TokEllipsis // ...
	TokQuestion // ?
	TokDoubleQuestion // ??
	TokDot     // .
)

var keywords = map[string]TokenKind{
	"proc":     TokProc,
	"end":      TokEnd,
	"return":   TokReturn,
	"use":      TokUse,
	"internal": TokInternal,
	"lazy":     TokLazy,
	"fn":       TokFn,
	"timesig":  TokTimeSig,
	"tempo":    TokTempo,
	"swing":    TokSwing,
	"key":      TokKey,
	"section":  TokSection,
	"dynamics": TokDynamics,
	"true":     TokBoolLit,
	"false":    TokBoolLit,
}

// TypeNames is the set of built-in type-identifier names recognized by
// the parser as type annotations (spec §3). The lexer still emits them as
// TokIdent; the parser matches against this set (and its plural form, spec
// §4.2 "Plural type sugar") when parsing declarations.
var TypeNames = map[string]bool{
	"Int": true, "Long": true, "Float": true, "Double": true, "String": true,
	"Bool": true, "Number": true, "Void": true,
	"Note": true, "Semitone": true, "Cent": true, "Millisecond": true,
	"Second": true, "Decibel": true, "Beat": true,
	"MusicalNote": true, "Bar": true, "Sequence": true, "Chord": true,
	"Section": true, "Song": true, "TimeSignature": true, "NoteValue": true,
	"Buffer": true, "OscillatorState": true, "Envelope": true, "Voice": true, "Track": true,
	"Function": true, "Buf": true, "Lazy": true, "Array": true,
}

// Token is one lexical unit with its source location and raw text.
type Token struct {
	Kind TokenKind
	Text string
	Loc  diag.Location

	// Literal payloads. Only the field matching Kind is meaningful.
	IntVal   int64
	FloatVal float64
	BoolVal  bool

	// SpaceBefore reports whether whitespace or a comment separated this
	// token from the previous one. The parser uses this for the tempo/swing
	// "ask the lexer for a sign" rule (spec §4.1): a TokMinus/TokPlus
	// immediately (no space) followed by a numeric literal may be folded
	// into a single signed literal in that context.
	SpaceBefore bool
}
