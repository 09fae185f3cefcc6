// Package values implements Flow's runtime Value representation and stack
// frames (spec §3 "Value", "Stack frames").
package values

import (
	"fmt"
	"reflect"

	"github.com/noahfreelove/flow/internal/music"
	"github.com/noahfreelove/flow/internal/types"
)

// NotePitch is the payload of a scalar Note value: a spelled pitch class
// with an optional octave (spec §3 musical scalars).
type NotePitch struct {
	Letter     byte // 'A'..'G'
	Accidental byte // 0, 's' (sharp), 'f' (flat)
	Octave     int
	HasOctave  bool
}

func (p NotePitch) String() string {
	acc := ""
	switch p.Accidental {
	case 's':
		acc = "s"
	case 'f':
		acc = "f"
	}
	if p.HasOctave {
		return fmt.Sprintf("%c%s%d", p.Letter, acc, p.Octave)
	}
	return fmt.Sprintf("%c%s", p.Letter, acc)
}

// Value is Flow's tagged (type, payload) pair (spec §3).
type Value struct {
	Type    *types.Type
	Payload any
}

// Void is the shared sentinel Flow returns on any soft failure (division by
// zero, out-of-bounds index, unresolved name, etc.; spec §7).
var Void = Value{Type: types.Void, Payload: nil}

func NewInt(v int64) Value         { return Value{Type: types.Int, Payload: v} }
func NewLong(v int64) Value        { return Value{Type: types.Long, Payload: v} }
func NewFloat(v float32) Value     { return Value{Type: types.Float, Payload: v} }
func NewDouble(v float64) Value    { return Value{Type: types.Double, Payload: v} }
func NewNumber(v float64) Value    { return Value{Type: types.Number, Payload: v} }
func NewString(v string) Value     { return Value{Type: types.String, Payload: v} }
func NewBool(v bool) Value         { return Value{Type: types.Bool, Payload: v} }
func NewSemitone(v int64) Value    { return Value{Type: types.Semitone, Payload: v} }
func NewCent(v float64) Value      { return Value{Type: types.Cent, Payload: v} }
func NewMillisecond(v float64) Value { return Value{Type: types.Millisecond, Payload: v} }
func NewSecond(v float64) Value    { return Value{Type: types.Second, Payload: v} }
func NewDecibel(v float64) Value   { return Value{Type: types.Decibel, Payload: v} }
func NewBeat(v float64) Value      { return Value{Type: types.Beat, Payload: v} }
func NewNote(p NotePitch) Value    { return Value{Type: types.Note, Payload: p} }

func NewMusicalNote(n *music.MusicalNote) Value   { return Value{Type: types.MusicalNote, Payload: n} }
func NewBar(b *music.Bar) Value                   { return Value{Type: types.Bar, Payload: b} }
func NewSequence(s *music.Sequence) Value         { return Value{Type: types.Sequence, Payload: s} }
func NewChordValue(c *music.Chord) Value          { return Value{Type: types.Chord, Payload: c} }
func NewSection(s *music.Section) Value           { return Value{Type: types.Section, Payload: s} }
func NewSong(s *music.Song) Value                 { return Value{Type: types.Song, Payload: s} }
func NewTimeSignature(t music.TimeSignature) Value { return Value{Type: types.TimeSignature, Payload: t} }
func NewNoteValue(v music.NoteValue) Value        { return Value{Type: types.NoteValue, Payload: v} }

func NewBuffer(b *music.Buffer) Value               { return Value{Type: types.Buffer, Payload: b} }
func NewOscillatorState(o *music.OscillatorState) Value {
	return Value{Type: types.OscillatorState, Payload: o}
}
func NewEnvelope(e *music.Envelope) Value { return Value{Type: types.Envelope, Payload: e} }
func NewVoice(v *music.Voice) Value       { return Value{Type: types.Voice, Payload: v} }
func NewTrack(t *music.Track) Value       { return Value{Type: types.Track, Payload: t} }

// Array is the payload of an Array<T> value (spec §3 parametric types).
type Array struct {
	Elem  *types.Type
	Items []Value
}

func NewArray(elem *types.Type, items []Value) Value {
	return Value{Type: types.ArrayOf(elem), Payload: &Array{Elem: elem, Items: items}}
}

// Index resolves a (possibly negative) array index per spec §3 invariant
// (ii): "-1 = last". ok is false for any out-of-range index (soft failure,
// caller reports Void per spec §4.5).
func (a *Array) Index(i int64) (Value, bool) {
	n := int64(len(a.Items))
	if n == 0 {
		return Void, false
	}
	idx := i
	if idx < 0 {
		idx = n + idx
	}
	if idx < 0 || idx >= n {
		return Void, false
	}
	return a.Items[idx], true
}

// NewLazy wraps a Thunk in a Value.
func NewLazy(t *Thunk) Value { return Value{Type: types.LazyOf(t.ElemType()), Payload: t} }

// NewFunction wraps a callable Overload in a Value.
func NewFunction(ov *Overload) Value { return Value{Type: types.Function, Payload: ov} }

// ZeroValue returns the default/zero-value sentinel for a declared type when
// a variable declaration has no initializer (spec §4.5 "substitute the
// type's default if the initializer was the sentinel zero-value").
func ZeroValue(t *types.Type) Value {
	switch t.Kind {
	case types.KindInt:
		return NewInt(0)
	case types.KindLong:
		return NewLong(0)
	case types.KindFloat:
		return NewFloat(0)
	case types.KindDouble:
		return NewDouble(0)
	case types.KindNumber:
		return NewNumber(0)
	case types.KindString:
		return NewString("")
	case types.KindBool:
		return NewBool(false)
	case types.KindArray:
		return NewArray(t.Elem, nil)
	default:
		return Void
	}
}

// StructurallyEqual implements the deep-equality relation the spec's
// testable properties rely on (§8 "equal, by structural equality"; lazy
// idempotence). Pointer-payload aggregates compare by Go deep equality,
// which is identity-transparent for values produced by the same evaluation.
func (v Value) StructurallyEqual(other Value) bool {
	if !v.Type.Equals(other.Type) {
		return false
	}
	return reflect.DeepEqual(v.Payload, other.Payload)
}

// IsVoid reports whether v is the Void sentinel.
func (v Value) IsVoid() bool { return v.Type != nil && v.Type.Kind == types.KindVoid }
