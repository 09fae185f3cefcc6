package builtin

import (
	"github.com/noahfreelove/flow/internal/music"
	"github.com/noahfreelove/flow/internal/notestream"
	"github.com/noahfreelove/flow/internal/types"
	"github.com/noahfreelove/flow/internal/values"
)

// registerMusic installs the Sequence transform stdlib functions (spec §8
// "Roundtrips / laws"): transpose, retrograde, augment, diminish.
func registerMusic(root *values.Frame, env Env) {
	def(root, "transpose", []*types.Type{types.Sequence, types.Int}, func(args []values.Value) (values.Value, error) {
		seq := args[0].Payload.(*music.Sequence)
		semis := int(toInt(args[1]))
		return values.NewSequence(mapNotes(seq, func(n music.MusicalNote) music.MusicalNote {
			return transposeNote(n, semis)
		})), nil
	})

	def(root, "retrograde", []*types.Type{types.Sequence}, func(args []values.Value) (values.Value, error) {
		seq := args[0].Payload.(*music.Sequence)
		return values.NewSequence(retrogradeSequence(seq)), nil
	})

	def(root, "augment", []*types.Type{types.Sequence}, func(args []values.Value) (values.Value, error) {
		seq := args[0].Payload.(*music.Sequence)
		return values.NewSequence(mapNotes(seq, augmentNote)), nil
	})

	def(root, "diminish", []*types.Type{types.Sequence}, func(args []values.Value) (values.Value, error) {
		seq := args[0].Payload.(*music.Sequence)
		return values.NewSequence(mapNotes(seq, diminishNote)), nil
	})

	def(root, "arpeggiate", []*types.Type{types.Sequence, types.ArrayOf(types.Int)}, func(args []values.Value) (values.Value, error) {
		seq := args[0].Payload.(*music.Sequence)
		offsets := toArray(args[1])
		semis := make([]int, len(offsets.Items))
		for i, v := range offsets.Items {
			semis[i] = int(toInt(v))
		}
		return values.NewSequence(arpeggiateSequence(seq, semis)), nil
	})
}

// transposeNote shifts a pitched note by semis semitones, respelling via
// the same algorithm the note-stream compiler's chord/roman-numeral
// expanders use (spec §8 "Transpose additivity... modulo MIDI clamping").
// Rests pass through unchanged.
func transposeNote(n music.MusicalNote, semis int) music.MusicalNote {
	if n.IsRest {
		return n
	}
	n.Letter, n.Octave, n.Alteration = notestream.TransposeSemitones(n.Letter, n.Octave, n.Alteration, semis)
	return n
}

// augmentNote doubles a note's duration class (moves one step toward
// Whole); diminishNote halves it (moves one step toward ThirtySecond).
// Values already at the relevant extreme are left unchanged, which is what
// keeps augment(diminish(s)) == s for any class strictly between the two
// (spec §8).
func augmentNote(n music.MusicalNote) music.MusicalNote {
	if n.Duration.Class > music.Whole {
		n.Duration.Class--
	}
	return n
}

func diminishNote(n music.MusicalNote) music.MusicalNote {
	if n.Duration.Class < music.ThirtySecond {
		n.Duration.Class++
	}
	return n
}

func mapNotes(seq *music.Sequence, fn func(music.MusicalNote) music.MusicalNote) *music.Sequence {
	bars := make([]music.Bar, len(seq.Bars))
	for i, bar := range seq.Bars {
		notes := make([]music.MusicalNote, len(bar.Notes))
		for j, n := range bar.Notes {
			notes[j] = fn(n)
		}
		bars[i] = music.Bar{Notes: notes, TimeSig: bar.TimeSig}
	}
	return &music.Sequence{Bars: bars}
}

// arpeggiateSequence replaces each non-rest note with len(offsets) shorter
// notes cycling through offsets as semitone deltas from the original pitch,
// adapted from the teacher's ChannelState.ProcessOrnament (pkg/audio/
// oscillator.go): there, an ornament's Values []int8 cycle per audio tick,
// re-deriving frequency from BaseNote+offset each step. Here the cycling
// happens once per arpeggiated note instead of once per tick, and the
// note's duration is subdivided (by halving its class one step per
// doubling of len(offsets)) rather than held fixed, since Flow notes carry
// a duration class rather than a tick count. A non-power-of-two offset
// count still divides the class evenly for the next power of two above it,
// so the arpeggiated notes run slightly short of the original note's full
// duration rather than overrunning it.
func arpeggiateSequence(seq *music.Sequence, offsets []int) *music.Sequence {
	bars := make([]music.Bar, len(seq.Bars))
	for i, bar := range seq.Bars {
		var notes []music.MusicalNote
		for _, n := range bar.Notes {
			notes = append(notes, arpeggiateNote(n, offsets)...)
		}
		bars[i] = music.Bar{Notes: notes, TimeSig: bar.TimeSig}
	}
	return &music.Sequence{Bars: bars}
}

func arpeggiateNote(n music.MusicalNote, offsets []int) []music.MusicalNote {
	if n.IsRest || len(offsets) == 0 {
		return []music.MusicalNote{n}
	}
	class := n.Duration.Class
	for steps := subdivisionSteps(len(offsets)); steps > 0 && class < music.ThirtySecond; steps-- {
		class++
	}
	out := make([]music.MusicalNote, len(offsets))
	for i, semis := range offsets {
		note := n
		note.Letter, note.Octave, note.Alteration = notestream.TransposeSemitones(n.Letter, n.Octave, n.Alteration, semis)
		note.Duration = music.NoteValue{Class: class}
		out[i] = note
	}
	return out
}

// subdivisionSteps returns how many times a duration class must be halved
// to fit at least count equal subdivisions (e.g. 3 offsets need 2 halvings,
// same as 4, since classes only subdivide by powers of two).
func subdivisionSteps(count int) int {
	steps := 0
	for n := 1; n < count; n *= 2 {
		steps++
	}
	return steps
}

// retrogradeSequence reverses bar order and, within each bar, note order —
// an unconditional involution (reversing a list twice always restores it)
// for any Sequence, regardless of whether its bars share a time signature.
func retrogradeSequence(seq *music.Sequence) *music.Sequence {
	n := len(seq.Bars)
	bars := make([]music.Bar, n)
	for i, bar := range seq.Bars {
		notes := make([]music.MusicalNote, len(bar.Notes))
		for j, note := range bar.Notes {
			notes[len(notes)-1-j] = note
		}
		bars[n-1-i] = music.Bar{Notes: notes, TimeSig: bar.TimeSig}
	}
	return &music.Sequence{Bars: bars}
}
