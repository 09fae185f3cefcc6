package notestream

import "strings"

// chordIntervals is the closed set of chord-quality suffixes Flow's chord
// parser recognizes (semitone offsets from the root, spec §4.8 "chord-symbol
// elements expand via a chord parser to their constituent notes").
var chordIntervals = map[string][]int{
	"":     {0, 4, 7},     // major triad
	"m":    {0, 3, 7},     // minor triad
	"dim":  {0, 3, 6},     // diminished triad
	"aug":  {0, 4, 8},     // augmented triad
	"maj7": {0, 4, 7, 11}, // major seventh
	"m7":   {0, 3, 7, 10}, // minor seventh
	"7":    {0, 4, 7, 10}, // dominant seventh
	"dim7": {0, 3, 6, 9},  // diminished seventh
	"sus2": {0, 2, 7},
	"sus4": {0, 5, 7},
	"6":    {0, 4, 7, 9},
	"m6":   {0, 3, 7, 9},
}

// qualitySuffixes lists chordIntervals' keys. parseChordSymbol compares the
// whole rest of the symbol with each entry for equality, so the order of
// this list does not change which quality matches.
var qualitySuffixes = []string{"maj7", "dim7", "sus2", "sus4", "m7", "dim", "aug", "m6", "6", "m", "7", ""}

// parseChordSymbol splits a chord symbol like "Cmaj7" or "Dsm" into a root
// pitch spelling and an interval set, or reports ok=false for an
// unrecognized symbol (spec §4.8: "unrecognized symbols emit rests").
func parseChordSymbol(symbol string) (letter, accidental byte, intervals []int, ok bool) {
	if symbol == "" {
		return 0, 0, nil, false
	}
	letter = symbol[0]
	if letter < 'A' || letter > 'G' {
		return 0, 0, nil, false
	}
	rest := symbol[1:]
	if strings.HasPrefix(rest, "s") || strings.HasPrefix(rest, "f") {
		accidental = rest[0]
		rest = rest[1:]
	}
	for _, suf := range qualitySuffixes {
		if rest == suf {
			return letter, accidental, chordIntervals[suf], true
		}
	}
	return 0, 0, nil, false
}
