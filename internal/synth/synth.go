package synth

import "github.com/noahfreelove/flow/internal/music"

// Capability is the host-replaceable synth surface a Flow program's renderer
// calls against (spec §6 "Synth interface": "given a MusicalNote, sample
// rate, duration in beats, and BPM, it returns a buffer"). Hosts embedding
// Flow may substitute their own Capability before program execution (spec
// §4.9 "Replacement by the host is permitted before program execution");
// *Registry satisfies this interface directly.
type Capability interface {
	Render(voiceName string, note music.MusicalNote, sampleRate int, durationBeats, bpm float64) (*music.Buffer, bool)
}

// Render resolves voiceName in the registry and renders note through it. The
// second return value is false when voiceName is not registered, in which
// case the caller (internal/render) is responsible for the "unknown synth
// name" diagnostic and rest-buffer fallback (spec §4.9 edge cases).
func (r *Registry) Render(voiceName string, note music.MusicalNote, sampleRate int, durationBeats, bpm float64) (*music.Buffer, bool) {
	fn, ok := r.Lookup(voiceName)
	if !ok {
		return nil, false
	}
	return fn(note, sampleRate, durationBeats, bpm), true
}

var _ Capability = (*Registry)(nil)
