// Package types implements Flow's closed value-type system: the primitive,
// musical-scalar, musical-aggregate, audio-aggregate and parametric type
// kinds from spec §3, plus the equality/subtype/convertibility relations and
// specificity scores overload resolution (internal/overload) depends on.
//
// Source models these as a class hierarchy; here they are a closed tagged
// union (spec §9 Design Notes: "implement as closed tagged unions").
package types

import "fmt"

// Kind is the closed set of type tags.
type Kind int

const (
	// Primitives
	KindInt Kind = iota
	KindLong
	KindFloat
	KindDouble
	KindString
	KindBool
	KindNumber
	KindVoid

	// Musical scalars
	KindNote
	KindSemitone
	KindCent
	KindMillisecond
	KindSecond
	KindDecibel
	KindBeat

	// Musical aggregates
	KindMusicalNote
	KindBar
	KindSequence
	KindChord
	KindSection
	KindSong
	KindTimeSignature
	KindNoteValue

	// Audio aggregates
	KindBuffer
	KindOscillatorState
	KindEnvelope
	KindVoice
	KindTrack

	// Parametric
	KindArray
	KindLazy
	KindFunction

	// Abstract placeholder usable anywhere a Buf capability is accepted.
	KindBuf
)

var kindNames = map[Kind]string{
	KindInt: "Int", KindLong: "Long", KindFloat: "Float", KindDouble: "Double",
	KindString: "String", KindBool: "Bool", KindNumber: "Number", KindVoid: "Void",
	KindNote: "Note", KindSemitone: "Semitone", KindCent: "Cent",
	KindMillisecond: "Millisecond", KindSecond: "Second", KindDecibel: "Decibel", KindBeat: "Beat",
	KindMusicalNote: "MusicalNote", KindBar: "Bar", KindSequence: "Sequence",
	KindChord: "Chord", KindSection: "Section", KindSong: "Song",
	KindTimeSignature: "TimeSignature", KindNoteValue: "NoteValue",
	KindBuffer: "Buffer", KindOscillatorState: "OscillatorState", KindEnvelope: "Envelope",
	KindVoice: "Voice", KindTrack: "Track",
	KindArray: "Array", KindLazy: "Lazy", KindFunction: "Function", KindBuf: "Buf",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Type is a singleton type descriptor. Array and Lazy carry an Elem; every
// other kind leaves Elem nil.
type Type struct {
	Kind Kind
	Elem *Type // element type for Array<T> / Lazy<T>
}

// Concrete singleton descriptors for every non-parametric kind, so callers
// can compare/return `types.Int` etc. without constructing one.
var (
	Int             = &Type{Kind: KindInt}
	Long            = &Type{Kind: KindLong}
	Float           = &Type{Kind: KindFloat}
	Double          = &Type{Kind: KindDouble}
	String          = &Type{Kind: KindString}
	Bool            = &Type{Kind: KindBool}
	Number          = &Type{Kind: KindNumber}
	Void            = &Type{Kind: KindVoid}
	Note            = &Type{Kind: KindNote}
	Semitone        = &Type{Kind: KindSemitone}
	Cent            = &Type{Kind: KindCent}
	Millisecond     = &Type{Kind: KindMillisecond}
	Second          = &Type{Kind: KindSecond}
	Decibel         = &Type{Kind: KindDecibel}
	Beat            = &Type{Kind: KindBeat}
	MusicalNote     = &Type{Kind: KindMusicalNote}
	Bar             = &Type{Kind: KindBar}
	Sequence        = &Type{Kind: KindSequence}
	Chord           = &Type{Kind: KindChord}
	Section         = &Type{Kind: KindSection}
	Song            = &Type{Kind: KindSong}
	TimeSignature   = &Type{Kind: KindTimeSignature}
	NoteValue       = &Type{Kind: KindNoteValue}
	Buffer          = &Type{Kind: KindBuffer}
	OscillatorState = &Type{Kind: KindOscillatorState}
	Envelope        = &Type{Kind: KindEnvelope}
	Voice           = &Type{Kind: KindVoice}
	Track           = &Type{Kind: KindTrack}
	Buf             = &Type{Kind: KindBuf}
)

// VoidArray is the universal array placeholder used for empty literals and
// for the varargs `list(…)` builtin (spec §4.3).
var VoidArray = ArrayOf(Void)

// Function has no type-parameter payload at the Type level; individual
// Function values carry their own Signature (internal/overload).
var Function = &Type{Kind: KindFunction}

// ArrayOf returns a new Array<elem> descriptor; each call allocates one.
func ArrayOf(elem *Type) *Type { return &Type{Kind: KindArray, Elem: elem} }

// LazyOf returns a Lazy<elem> descriptor.
func LazyOf(elem *Type) *Type { return &Type{Kind: KindLazy, Elem: elem} }

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindArray:
		return fmt.Sprintf("Array<%s>", t.Elem)
	case KindLazy:
		return fmt.Sprintf("Lazy<%s>", t.Elem)
	default:
		return t.Kind.String()
	}
}

// Equals is structural equality: same Kind, and for Array/Lazy, equal Elem.
// This is the strict relation (spec §3); signature comparison additionally
// special-cases Array<Void>, see SignatureElemMatch.
func (t *Type) Equals(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind == KindArray || t.Kind == KindLazy {
		return t.Elem.Equals(other.Elem)
	}
	return true
}

// category groups types for IsCompatibleWith: two types are compatible iff
// they share a category. Numeric primitives share one category; the
// symmetric Millisecond/Second pair share one category (spec §4.7 "Time
// conversions are symmetric"); every other kind is its own category.
type category int

const (
	catNumeric category = iota
	catTime
	catOther
)

func (t *Type) categoryOf() (category, Kind) {
	switch t.Kind {
	case KindInt, KindLong, KindFloat, KindDouble, KindNumber:
		return catNumeric, 0
	case KindMillisecond, KindSecond:
		return catTime, 0
	default:
		return catOther, t.Kind
	}
}

// IsCompatibleWith reports whether t and other occupy the same effective
// category (spec §4.3), independent of exact equality — e.g. Int and Double
// are compatible (both numeric) even though Equals would be false.
func (t *Type) IsCompatibleWith(other *Type) bool {
	if t == nil || other == nil {
		return false
	}
	ct, kt := t.categoryOf()
	co, ko := other.categoryOf()
	if ct != co {
		return false
	}
	if ct == catOther {
		if kt != ko {
			return false
		}
		if t.Kind == KindArray || t.Kind == KindLazy {
			return t.Elem.IsCompatibleWith(other.Elem) || t.Elem.Kind == KindVoid || other.Elem.Kind == KindVoid
		}
	}
	return true
}

// numericRung orders the numeric widening ladder Int(0) → Long/Float(1) →
// Double(2) → Number(3). Long and Float sit at the same rung and are not
// convertible to one another, only upward.
func numericRung(k Kind) (int, bool) {
	switch k {
	case KindInt:
		return 0, true
	case KindLong, KindFloat:
		return 1, true
	case KindDouble:
		return 2, true
	case KindNumber:
		return 3, true
	default:
		return 0, false
	}
}

// CanConvertTo implements spec §3's `can-convert-to`: identity is always
// convertible; numeric types convert strictly upward along the ladder; the
// Millisecond/Second pair converts symmetrically; an empty Array<Void>
// converts to any concrete-element array.
func (t *Type) CanConvertTo(other *Type) bool {
	if t == nil || other == nil {
		return false
	}
	if t.Equals(other) {
		return true
	}
	if rt, ok := numericRung(t.Kind); ok {
		if ro, ok2 := numericRung(other.Kind); ok2 {
			return ro > rt
		}
		return false
	}
	if (t.Kind == KindMillisecond && other.Kind == KindSecond) ||
		(t.Kind == KindSecond && other.Kind == KindMillisecond) {
		return true
	}
	if t.Kind == KindArray && other.Kind == KindArray {
		if t.Elem.Kind == KindVoid {
			return true
		}
		return t.Elem.CanConvertTo(other.Elem)
	}
	return false
}

// Specificity is the integer tie-break used by overload resolution (spec
// §4.4, §9): more specific (concrete) types score higher than catch-all
// types like Number, Void or Buf.
func (t *Type) Specificity() int {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case KindVoid, KindBuf:
		return 0
	case KindNumber:
		return 1
	case KindDouble:
		return 2
	case KindLong, KindFloat:
		return 3
	case KindInt, KindString, KindBool:
		return 5
	case KindArray:
		return 3 + t.Elem.Specificity()/2
	case KindLazy:
		return 3 + t.Elem.Specificity()/2
	case KindFunction:
		return 2
	default:
		// Concrete musical/audio scalars and aggregates are maximally specific.
		return 6
	}
}

// Signature is a callable's (name, ordered parameter types, varargs flag)
// identity (spec §3 "Function overload", §4.3 "Signature equality").
type Signature struct {
	Name     string
	Params   []*Type
	Variadic bool
}

// Equals implements spec §4.3's signature equality: name, arity (ignoring
// trailing varargs expansion), pairwise parameter type equality, and the
// varargs flag — with the special rule that a varargs Void matches any
// single-argument call passing an Array<Void> (enabling `list(…)`).
func (s Signature) Equals(other Signature) bool {
	if s.Name != other.Name || s.Variadic != other.Variadic {
		return false
	}
	if len(s.Params) != len(other.Params) {
		return false
	}
	for i := range s.Params {
		if !signatureParamEquals(s.Params[i], other.Params[i]) {
			return false
		}
	}
	return true
}

func signatureParamEquals(a, b *Type) bool {
	if a.Equals(b) {
		return true
	}
	// Array<Void> matches any Array<T> in signature comparisons (spec §4.3).
	if a.Kind == KindArray && b.Kind == KindArray {
		return a.Elem.Kind == KindVoid || b.Elem.Kind == KindVoid
	}
	return false
}

// DefaultValue-identity marker kinds: zero-value sentinel used when a
// variable declaration has no initializer (spec §8 "v.type.equals(v.type.defaults-identity)").
// The actual zero Value lives in internal/values to avoid an import cycle;
// this just documents which kinds have a meaningful numeric/string zero vs.
// which fall back to Void.
func (t *Type) HasScalarZero() bool {
	switch t.Kind {
	case KindInt, KindLong, KindFloat, KindDouble, KindNumber, KindString, KindBool:
		return true
	default:
		return false
	}
}
