// Package notestream compiles a parsed note-stream expression (ast.NoteStreamExpr)
// into a music.Sequence under an effective musical context (spec §4.8).
package notestream

import (
	"math"
	"math/rand"
	"strings"

	"github.com/noahfreelove/flow/internal/ast"
	"github.com/noahfreelove/flow/internal/diag"
	"github.com/noahfreelove/flow/internal/music"
	"github.com/noahfreelove/flow/internal/musicctx"
)

// Compile turns a parsed note-stream expression into a Sequence under the
// given effective musical context. rng resolves `(? …)` / `(?? …)`
// random-choice elements; its seed and lifetime are owned by the caller
// (spec §5: the seeded generator is process-wide state set up once at
// engine construction).
func Compile(expr *ast.NoteStreamExpr, eff musicctx.Effective, rng *rand.Rand, bag *diag.Bag) *music.Sequence {
	seq := &music.Sequence{Bars: make([]music.Bar, len(expr.Bars))}
	for i, bar := range expr.Bars {
		seq.Bars[i] = compileBar(bar, eff, rng, bag)
	}
	return seq
}

func compileBar(bar ast.BarNode, eff musicctx.Effective, rng *rand.Rand, bag *diag.Bag) music.Bar {
	timeSig := music.TimeSignature{Num: eff.TimeSigNum, Den: eff.TimeSigDen}
	elements := resolveRandomChoices(bar.Elements, rng)

	if len(elements) == 0 {
		// Step 3: bars with zero elements become a whole-bar rest.
		return music.Bar{
			Notes:   []music.MusicalNote{{IsRest: true, Duration: music.NoteValue{Class: music.Whole}}},
			TimeSig: timeSig,
		}
	}

	durations := autoFitDurations(elements, eff)

	velocity := musicctx.DynamicsVelocity(eff.Dynamics)
	var notes []music.MusicalNote
	for i, el := range elements {
		expanded := expandElement(el, durations[i], eff, bag)
		for j := range expanded {
			if !expanded[j].IsRest && expanded[j].Velocity == nil {
				v := velocity
				expanded[j].Velocity = &v
			}
		}
		notes = append(notes, expanded...)
	}
	return music.Bar{Notes: notes, TimeSig: timeSig}
}

// resolveRandomChoices replaces each RandomChoiceElement with one of its
// constituents, chosen at random (weighted when Weighted is set). The
// choice itself may be another RandomChoiceElement, so resolution recurses.
func resolveRandomChoices(elements []ast.BarElement, rng *rand.Rand) []ast.BarElement {
	out := make([]ast.BarElement, 0, len(elements))
	for _, el := range elements {
		out = append(out, resolveOne(el, rng))
	}
	return out
}

func resolveOne(el ast.BarElement, rng *rand.Rand) ast.BarElement {
	rc, ok := el.(*ast.RandomChoiceElement)
	if !ok || len(rc.Choices) == 0 {
		return el
	}
	return resolveOne(pickWeighted(rc.Choices, rc.Weights, rng), rng)
}

func pickWeighted(choices []ast.BarElement, weights []float64, rng *rand.Rand) ast.BarElement {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return choices[rng.Intn(len(choices))]
	}
	r := rng.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		r -= w
		if r <= 0 {
			return choices[i]
		}
	}
	return choices[len(choices)-1]
}

// explicitDuration reports an element's own DurationSuffix and whether it
// was actually given one (Letter != 0), per spec §4.8 step 1's
// "classify elements by whether they carry an explicit duration suffix".
func explicitDuration(el ast.BarElement) (ast.DurationSuffix, bool) {
	switch e := el.(type) {
	case *ast.PitchedNoteElement:
		return e.Duration, e.Duration.Letter != 0
	case *ast.RestElement:
		return e.Duration, e.Duration.Letter != 0
	case *ast.ChordBracketElement:
		return e.Duration, e.Duration.Letter != 0
	case *ast.ChordSymbolElement:
		return e.Duration, e.Duration.Letter != 0
	case *ast.RomanNumeralElement:
		return e.Duration, e.Duration.Letter != 0
	default:
		return ast.DurationSuffix{}, false
	}
}

// autoFitDurations implements spec §4.8 step 1. Elements with an explicit
// suffix keep their own NoteValue; the rest each get the bar's numerator
// divided by their count, snapped to the nearest duration class. The
// max(numerator-explicit, numerator) term is always the numerator, so the
// explicit elements' beats are not subtracted first.
func autoFitDurations(elements []ast.BarElement, eff musicctx.Effective) []music.NoteValue {
	durations := make([]music.NoteValue, len(elements))
	explicitBeats := 0.0
	var autoFitIdx []int
	for i, el := range elements {
		suf, explicit := explicitDuration(el)
		if !explicit {
			autoFitIdx = append(autoFitIdx, i)
			continue
		}
		class, ok := music.DurationClassFromSuffix(suf.Letter)
		if !ok {
			class = music.Quarter
		}
		nv := music.NoteValue{Class: class, Dotted: suf.Dotted}
		durations[i] = nv
		explicitBeats += nv.Beats(eff.TimeSigDen)
	}
	if len(autoFitIdx) == 0 {
		return durations
	}

	numerator := float64(eff.TimeSigNum)
	remainingBeats := max(numerator-explicitBeats, numerator) / float64(len(autoFitIdx))
	class := snapToDurationClass(remainingBeats / float64(eff.TimeSigDen))
	for _, i := range autoFitIdx {
		durations[i] = music.NoteValue{Class: class}
	}
	return durations
}

var durationClassesBySize = []music.DurationClass{
	music.Whole, music.Half, music.Quarter, music.Eighth, music.Sixteenth, music.ThirtySecond,
}

// snapToDurationClass picks the duration class whose fraction-of-whole is
// closest (by absolute difference) to the given fraction.
func snapToDurationClass(fraction float64) music.DurationClass {
	best := durationClassesBySize[0]
	bestDiff := math.Abs(best.Fraction() - fraction)
	for _, c := range durationClassesBySize[1:] {
		diff := math.Abs(c.Fraction() - fraction)
		if diff < bestDiff {
			best, bestDiff = c, diff
		}
	}
	return best
}

// expandElement implements spec §4.8 step 2: one bar element becomes zero or
// more MusicalNote records sharing the element's resolved duration.
func expandElement(el ast.BarElement, dur music.NoteValue, eff musicctx.Effective, bag *diag.Bag) []music.MusicalNote {
	switch e := el.(type) {
	case *ast.PitchedNoteElement:
		letter, octave, alteration := pitchNote(e.Letter, e.Accidental, e.Octave, e.HasOctave)
		return []music.MusicalNote{{
			Letter: letter, Octave: octave, Alteration: alteration,
			Duration: dur, CentOffset: e.CentOffset,
		}}

	case *ast.RestElement:
		return []music.MusicalNote{{IsRest: true, Duration: dur}}

	case *ast.ChordBracketElement:
		notes := make([]music.MusicalNote, len(e.Notes))
		for i, pn := range e.Notes {
			letter, octave, alteration := pitchNote(pn.Letter, pn.Accidental, pn.Octave, pn.HasOctave)
			notes[i] = music.MusicalNote{Letter: letter, Octave: octave, Alteration: alteration, Duration: dur}
		}
		return notes

	case *ast.ChordSymbolElement:
		return expandChordSymbol(e, dur, bag)

	case *ast.RomanNumeralElement:
		return expandRomanNumeral(e, dur, eff, bag)

	default:
		return nil
	}
}

func expandChordSymbol(e *ast.ChordSymbolElement, dur music.NoteValue, bag *diag.Bag) []music.MusicalNote {
	letter, accidental, intervals, ok := parseChordSymbol(e.Symbol)
	if !ok {
		bag.Musicalf(e.Loc, "unrecognized chord symbol %q, emitting rest", e.Symbol)
		return []music.MusicalNote{{IsRest: true, Duration: dur}}
	}
	rootAlteration := alterationFor(accidental)
	notes := make([]music.MusicalNote, len(intervals))
	for i, semis := range intervals {
		l, o, a := transposeBySemitones(letter, defaultOctave, rootAlteration, semis)
		notes[i] = music.MusicalNote{Letter: l, Octave: o, Alteration: a, Duration: dur}
	}
	return notes
}

// romanDegree maps each recognized numeral to its 1-based scale degree; case
// in the source text only disambiguates the token, it does not itself
// change which degree is built (the triad's major/minor quality follows the
// key's own diatonic spelling, per spec §4.7's scale database).
var romanDegree = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5, "VI": 6, "VII": 7,
	"i": 1, "ii": 2, "iii": 3, "iv": 4, "v": 5, "vi": 6, "vii": 7,
}

func expandRomanNumeral(e *ast.RomanNumeralElement, dur music.NoteValue, eff musicctx.Effective, bag *diag.Bag) []music.MusicalNote {
	if eff.Key == "" {
		// "no key -> emit a rest and continue" (spec §4.8 step 2).
		return []music.MusicalNote{{IsRest: true, Duration: dur}}
	}
	canonical, ok := musicctx.CanonicalKey(eff.Key)
	degree, degreeOK := romanDegree[e.Numeral]
	if !ok || !degreeOK {
		bag.Musicalf(e.Loc, "cannot resolve roman numeral %q in key %q, emitting rest", e.Numeral, eff.Key)
		return []music.MusicalNote{{IsRest: true, Duration: dur}}
	}

	base := canonical
	if strings.HasSuffix(base, "m") && len(base) > 1 {
		base = strings.TrimSuffix(base, "m")
	}
	rootLetter, rootAccidental := pitchClassLetterAccidental(base)
	rootAlteration := alterationFor(rootAccidental)

	intervals := musicctx.DiatonicTriad(canonical, degree, e.Seventh)
	notes := make([]music.MusicalNote, len(intervals))
	for i, semis := range intervals {
		l, o, a := transposeBySemitones(rootLetter, defaultOctave, rootAlteration, semis)
		notes[i] = music.MusicalNote{Letter: l, Octave: o, Alteration: a, Duration: dur}
	}
	return notes
}

func pitchClassLetterAccidental(pc string) (byte, byte) {
	if len(pc) > 1 && pc[1] == 's' {
		return pc[0], 's'
	}
	return pc[0], 0
}
