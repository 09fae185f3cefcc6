package notestream

import "github.com/noahfreelove/flow/internal/music"

// defaultOctave is used when a pitched note omits its octave digit — the
// grammar (spec §4.2) makes the octave optional, but MusicalNote always
// carries one.
const defaultOctave = 4

// alterationFor converts the lexer/parser's 'A'..'G'+accidental spelling
// into the chromatic alteration MusicalNote stores (spec §3: "chromatic
// alteration": -1 flat, 0 natural, +1 sharp).
func alterationFor(accidental byte) int {
	switch accidental {
	case 's':
		return 1
	case 'f':
		return -1
	default:
		return 0
	}
}

// pitchNote resolves a single pitch spelling (letter, accidental, optional
// octave) into the pitch fields of a MusicalNote. This is the "pitch
// parser" spec §4.8 step 2 refers to for plain pitched-note elements.
func pitchNote(letter, accidental byte, octave int, hasOctave bool) (byte, int, int) {
	if !hasOctave {
		octave = defaultOctave
	}
	return letter, octave, alterationFor(accidental)
}

// transposeBySemitones shifts a pitch letter/octave/alteration triple by n
// semitones, renormalizing to the nearest natural-letter spelling. Used by
// the chord and roman-numeral expanders, which work in semitone offsets
// from a root pitch.
func transposeBySemitones(letter byte, octave, alteration, semis int) (byte, int, int) {
	absolute := (octave+1)*12 + letterSemitoneOf(letter) + alteration + semis
	return spellFromAbsolute(absolute)
}

func letterSemitoneOf(letter byte) int {
	switch letter {
	case 'C':
		return 0
	case 'D':
		return 2
	case 'E':
		return 4
	case 'F':
		return 5
	case 'G':
		return 7
	case 'A':
		return 9
	case 'B':
		return 11
	default:
		return 0
	}
}

// naturalSpelling maps a chromatic pitch class (0..11) to its natural letter
// plus alteration, preferring sharps (matches the teacher corpus's pitch
// classes, spec §4.7's canonical "sharp-leaning" spellings).
var naturalSpelling = [12]struct {
	letter     byte
	alteration int
}{
	{'C', 0}, {'C', 1}, {'D', 0}, {'D', 1}, {'E', 0}, {'F', 0},
	{'F', 1}, {'G', 0}, {'G', 1}, {'A', 0}, {'A', 1}, {'B', 0},
}

// TransposeSemitones is the exported form of transposeBySemitones, reused
// by the transpose stdlib builtin (internal/builtin) so both the
// chord/roman-numeral expanders here and the transpose transform share one
// pitch-respelling algorithm.
func TransposeSemitones(letter byte, octave, alteration, semis int) (byte, int, int) {
	return transposeBySemitones(letter, octave, alteration, semis)
}

func spellFromAbsolute(absolute int) (byte, int, int) {
	absolute = music.ClampMidi(absolute)
	pc := ((absolute % 12) + 12) % 12
	octave := absolute/12 - 1
	sp := naturalSpelling[pc]
	return sp.letter, octave, sp.alteration
}
