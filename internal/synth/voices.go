package synth

import (
	"math"

	"github.com/noahfreelove/flow/internal/music"
)

// RenderFunc implements the synth capability's `render` operation (spec
// §4.9 "given a MusicalNote, sample rate, duration in beats, and BPM, it
// returns a buffer"). durationBeats is already the note's final sounding
// length — articulation multipliers and tied-note legato overlap are
// computed by the caller (internal/render) before this is invoked, so a
// voice implementation just fills that many beats with its own timbre and
// envelope shape.
type RenderFunc func(note music.MusicalNote, sampleRate int, durationBeats, bpm float64) *music.Buffer

// Registry is the engine's name → RenderFunc table (spec §4.9 "The engine
// registers one implementation per name... Replacement by the host is
// permitted before program execution").
type Registry struct {
	voices map[string]RenderFunc
}

// NewRegistry returns a registry pre-populated with the built-in voice set.
func NewRegistry() *Registry {
	r := &Registry{voices: map[string]RenderFunc{}}
	r.Register("sine", renderSine)
	r.Register("saw", renderSaw)
	r.Register("square", renderSquare)
	r.Register("piano", renderPiano)
	r.Register("brass", renderBrass)
	r.Register("sax", renderSax)
	r.Register("flute", renderFlute)
	r.Register("drums", renderDrums)
	return r
}

// Register installs (or replaces) a named voice implementation.
func (r *Registry) Register(name string, fn RenderFunc) { r.voices[name] = fn }

// Lookup resolves a voice by name.
func (r *Registry) Lookup(name string) (RenderFunc, bool) {
	fn, ok := r.voices[name]
	return fn, ok
}

// Names lists every registered voice name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.voices))
	for n := range r.voices {
		names = append(names, n)
	}
	return names
}

func durationSeconds(durationBeats, bpm float64) float64 {
	if bpm <= 0 {
		bpm = 120
	}
	return durationBeats * 60.0 / bpm
}

func restBuffer(sampleRate int, seconds float64) *music.Buffer {
	n := int(seconds * float64(sampleRate))
	if n < 0 {
		n = 0
	}
	return &music.Buffer{Samples: make([]float64, n), SampleRate: sampleRate, Channels: 1}
}

// envelopeGain evaluates a simple ADSR shape (spec §3 Envelope) at sample
// index i of n total samples, attack/decay/release given in seconds.
// Grounded on the teacher's pkg/audio.ChannelState.ProcessEnvelope: same
// four-phase state machine, generalized from per-tick advancement to a
// continuous per-sample position within a render's known total duration.
func envelopeGain(env music.Envelope, t, totalSeconds float64) float64 {
	releaseStart := totalSeconds - env.Release
	switch {
	case env.Attack > 0 && t < env.Attack:
		return t / env.Attack
	case env.Decay > 0 && t < env.Attack+env.Decay:
		decayPos := (t - env.Attack) / env.Decay
		return 1.0 - decayPos*(1.0-env.Sustain)
	case env.Release > 0 && t >= releaseStart && releaseStart > env.Attack+env.Decay:
		relPos := (t - releaseStart) / env.Release
		return env.Sustain * (1.0 - relPos)
	default:
		return env.Sustain
	}
}

// renderOscillator is the shared render core: a single oscillator voice
// shaped by an envelope, rests producing silence.
func renderOscillator(note music.MusicalNote, wave Waveform, env music.Envelope, sampleRate int, durationBeats, bpm float64) *music.Buffer {
	seconds := durationSeconds(durationBeats, bpm)
	if note.IsRest {
		return restBuffer(sampleRate, seconds)
	}
	osc := NewOscillator(wave, float64(sampleRate))
	cents := 0.0
	if note.CentOffset != nil {
		cents = *note.CentOffset
	}
	osc.SetFrequency(NoteFrequency(note.MidiNumber(), cents))

	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = osc.Sample() * envelopeGain(env, t, seconds)
	}
	return &music.Buffer{Samples: samples, SampleRate: sampleRate, Channels: 1}
}

func renderSine(note music.MusicalNote, sampleRate int, durationBeats, bpm float64) *music.Buffer {
	env := music.Envelope{Attack: 0.01, Decay: 0.05, Sustain: 0.8, Release: 0.05}
	return renderOscillator(note, WaveSine, env, sampleRate, durationBeats, bpm)
}

func renderSaw(note music.MusicalNote, sampleRate int, durationBeats, bpm float64) *music.Buffer {
	env := music.Envelope{Attack: 0.005, Decay: 0.05, Sustain: 0.7, Release: 0.03}
	return renderOscillator(note, WaveSaw, env, sampleRate, durationBeats, bpm)
}

func renderSquare(note music.MusicalNote, sampleRate int, durationBeats, bpm float64) *music.Buffer {
	env := music.Envelope{Attack: 0.002, Decay: 0.02, Sustain: 0.6, Release: 0.02}
	return renderOscillator(note, WaveSquare, env, sampleRate, durationBeats, bpm)
}

// renderPiano blends a fundamental sine with a quieter octave harmonic and a
// fast-decay envelope, approximating a struck string.
func renderPiano(note music.MusicalNote, sampleRate int, durationBeats, bpm float64) *music.Buffer {
	seconds := durationSeconds(durationBeats, bpm)
	if note.IsRest {
		return restBuffer(sampleRate, seconds)
	}
	env := music.Envelope{Attack: 0.002, Decay: 0.3, Sustain: 0.3, Release: 0.2}
	cents := 0.0
	if note.CentOffset != nil {
		cents = *note.CentOffset
	}
	fund := NoteFrequency(note.MidiNumber(), cents)
	fundamental := NewOscillator(WaveSine, float64(sampleRate))
	fundamental.SetFrequency(fund)
	harmonic := NewOscillator(WaveSine, float64(sampleRate))
	harmonic.SetFrequency(fund * 2)

	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		gain := envelopeGain(env, t, seconds)
		samples[i] = (fundamental.Sample()*0.8 + harmonic.Sample()*0.2) * gain
	}
	return &music.Buffer{Samples: samples, SampleRate: sampleRate, Channels: 1}
}

// renderBrass uses a sawtooth (rich in harmonics) with a slower attack,
// approximating a blown-brass swell.
func renderBrass(note music.MusicalNote, sampleRate int, durationBeats, bpm float64) *music.Buffer {
	env := music.Envelope{Attack: 0.08, Decay: 0.05, Sustain: 0.85, Release: 0.08}
	return renderOscillator(note, WaveSaw, env, sampleRate, durationBeats, bpm)
}

// renderSax blends a sawtooth fundamental with a square sub-harmonic for a
// reedier timbre than brass.
func renderSax(note music.MusicalNote, sampleRate int, durationBeats, bpm float64) *music.Buffer {
	seconds := durationSeconds(durationBeats, bpm)
	if note.IsRest {
		return restBuffer(sampleRate, seconds)
	}
	env := music.Envelope{Attack: 0.05, Decay: 0.06, Sustain: 0.75, Release: 0.07}
	cents := 0.0
	if note.CentOffset != nil {
		cents = *note.CentOffset
	}
	fund := NoteFrequency(note.MidiNumber(), cents)
	saw := NewOscillator(WaveSaw, float64(sampleRate))
	saw.SetFrequency(fund)
	sub := NewOscillator(WaveSquare, float64(sampleRate))
	sub.SetFrequency(fund / 2)

	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		gain := envelopeGain(env, t, seconds)
		samples[i] = (saw.Sample()*0.75 + sub.Sample()*0.25) * gain
	}
	return &music.Buffer{Samples: samples, SampleRate: sampleRate, Channels: 1}
}

// renderFlute is a near-pure sine with a breathy attack and gentle release.
func renderFlute(note music.MusicalNote, sampleRate int, durationBeats, bpm float64) *music.Buffer {
	env := music.Envelope{Attack: 0.06, Decay: 0.02, Sustain: 0.9, Release: 0.1}
	return renderOscillator(note, WaveSine, env, sampleRate, durationBeats, bpm)
}

// renderDrums ignores pitch entirely: every non-rest note is a short noise
// burst with a fast exponential-feeling decay, matching a percussive hit.
func renderDrums(note music.MusicalNote, sampleRate int, durationBeats, bpm float64) *music.Buffer {
	seconds := durationSeconds(durationBeats, bpm)
	if note.IsRest {
		return restBuffer(sampleRate, seconds)
	}
	hit := math.Min(seconds, 0.15)
	osc := NewOscillator(WaveNoise, float64(sampleRate))
	osc.SetFrequency(float64(sampleRate) / 8)

	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		var gain float64
		if t < hit {
			gain = 1.0 - t/hit
		}
		samples[i] = osc.Sample() * gain
	}
	return &music.Buffer{Samples: samples, SampleRate: sampleRate, Channels: 1}
}
