package musicctx

// pitchClasses are the 12 canonical pitch-class spellings Flow uses
// elsewhere for notes (suffix "s" = sharp, "f" = flat; spec §4.1).
var pitchClasses = []string{"C", "Cs", "D", "Ds", "E", "F", "Fs", "G", "Gs", "A", "As", "B"}

// flatAlias maps each pitch class's alternate ("flat-leaning") spelling
// back to the canonical sharp-leaning name above, giving the "2 spellings
// per pitch class" the fixed 24-name key set documents (spec §4.7).
var flatAlias = map[string]string{
	"Df": "Cs", "Ef": "Ds", "Gf": "Fs", "Af": "Gs", "Bf": "As",
	// naturals alias to themselves under either spelling convention
	"C": "C", "D": "D", "E": "E", "F": "F", "G": "G", "A": "A", "B": "B",
}

// CanonicalKey normalizes a spelled key name (e.g. "Df", "Cs", "Am", "Bfm")
// to its canonical form (the sharp-leaning pitch name for major, that name
// plus "m" for minor) and
// reports whether it is a member of the fixed 24-name set.
func CanonicalKey(name string) (string, bool) {
	minor := false
	base := name
	if len(name) > 1 && name[len(name)-1] == 'm' {
		minor = true
		base = name[:len(name)-1]
	}
	canon, ok := flatAlias[base]
	if !ok {
		// also accept direct sharp spellings not covered by flatAlias keys
		for _, pc := range pitchClasses {
			if pc == base {
				canon, ok = pc, true
				break
			}
		}
	}
	if !ok {
		return "", false
	}
	if minor {
		return canon + "m", true
	}
	return canon, true
}

// pitchClassIndex returns 0..11 for a canonical (non-minor) pitch name.
func pitchClassIndex(pc string) int {
	for i, c := range pitchClasses {
		if c == pc {
			return i
		}
	}
	return 0
}

// majorStepPattern / minorStepPattern are semitone steps between
// consecutive scale degrees (natural major / natural minor).
var majorStepPattern = []int{2, 2, 1, 2, 2, 2, 1}
var minorStepPattern = []int{2, 1, 2, 2, 1, 2, 2}

// ScaleDegrees returns the 7 semitone offsets (from the tonic, within one
// octave) for the given canonical key ("C".."B" for major, "Cm".."Bm" for
// minor).
func ScaleDegrees(canonicalKey string) []int {
	minor := false
	base := canonicalKey
	if len(canonicalKey) > 1 && canonicalKey[len(canonicalKey)-1] == 'm' {
		minor = true
		base = canonicalKey[:len(canonicalKey)-1]
	}
	root := pitchClassIndex(base)
	steps := majorStepPattern
	if minor {
		steps = minorStepPattern
	}
	degrees := make([]int, 7)
	acc := 0
	for i := 0; i < 7; i++ {
		degrees[i] = (root + acc) % 12
		acc += steps[i]
	}
	return degrees
}

// DiatonicTriad returns the semitone offsets (from the tonic) of the triad
// built on scale degree `degree` (1-based, 1..7), optionally extended to a
// seventh. Used to resolve roman-numeral elements (spec §4.8).
func DiatonicTriad(canonicalKey string, degree int, seventh bool) []int {
	degrees := ScaleDegrees(canonicalKey)
	n := len(degrees)
	idx := func(i int) int { return ((degree - 1 + i) % n + n) % n }
	octaveFor := func(i int) int {
		// how many octaves above the tonic degree i*2 steps away sits
		return (degree - 1 + i) / n
	}
	third := degrees[idx(2)] + 12*octaveFor(2)
	fifth := degrees[idx(4)] + 12*octaveFor(4)
	root := degrees[idx(0)]
	notes := []int{root, third, fifth}
	if seventh {
		seventhDeg := degrees[idx(6)] + 12*octaveFor(6)
		notes = append(notes, seventhDeg)
	}
	return notes
}
