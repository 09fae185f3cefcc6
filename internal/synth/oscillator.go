// Package synth implements Flow's synth capability (spec §4.9 "The synth is
// an abstract capability... The engine registers one implementation per
// name"): a waveform oscillator adapted from the teacher's tracker playback
// engine, and a registry of named render functions the renderer calls by
// string name.
package synth

import "math"

// Waveform is the closed set of oscillator shapes a named synth voice is
// built from (spec §4.9 "sine, saw, square, piano, brass, sax, flute,
// drums" — each implemented as one or a blend of these).
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
	WaveNoise
)

// Oscillator generates one waveform sample at a time, tracking its own
// running phase (spec §3 OscillatorState). Grounded on the teacher's
// pkg/audio.Oscillator: same phase-accumulator shape, generalized from the
// tracker's fixed generator set to Flow's waveform set plus a duty cycle for
// pulse-width variation.
type Oscillator struct {
	Wave       Waveform
	Phase      float64
	Frequency  float64
	SampleRate float64
	Duty       float64
}

// NewOscillator creates an oscillator with a default 50% duty cycle
// (meaningful only for WaveSquare).
func NewOscillator(wave Waveform, sampleRate float64) *Oscillator {
	return &Oscillator{Wave: wave, SampleRate: sampleRate, Duty: 0.5}
}

// SetFrequency sets the oscillator's running frequency in Hz.
func (o *Oscillator) SetFrequency(freq float64) { o.Frequency = freq }

// Reset zeroes the oscillator's phase (a fresh note starts from phase 0,
// spec §4.9's per-note render call constructs a fresh buffer each time).
func (o *Oscillator) Reset() { o.Phase = 0 }

// Sample advances the oscillator by one sample period and returns the next
// waveform value in [-1, 1].
func (o *Oscillator) Sample() float64 {
	if o.Frequency <= 0 || o.SampleRate <= 0 {
		return 0
	}
	phaseInc := o.Frequency / o.SampleRate
	o.Phase += phaseInc
	if o.Phase >= 1.0 {
		o.Phase -= math.Floor(o.Phase)
	}
	switch o.Wave {
	case WaveSaw:
		return o.sawtooth()
	case WaveSquare:
		return o.square()
	case WaveTriangle:
		return o.triangle()
	case WaveNoise:
		return o.noise()
	default:
		return o.sine()
	}
}

func (o *Oscillator) sine() float64 {
	return math.Sin(2 * math.Pi * o.Phase)
}

// sawtooth ramps linearly from -1 to 1 across one period.
func (o *Oscillator) sawtooth() float64 {
	return 2.0*o.Phase - 1.0
}

// square switches between +1 and -1 at the duty-cycle crossing point.
func (o *Oscillator) square() float64 {
	if o.Phase < o.Duty {
		return 1.0
	}
	return -1.0
}

// triangle ramps up then down linearly across one period.
func (o *Oscillator) triangle() float64 {
	p := o.Phase
	if p < 0.5 {
		return 4.0*p - 1.0
	}
	return 3.0 - 4.0*p
}

// noise is a deterministic LCG keyed off the current phase, so repeated
// renders of the same note produce identical buffers (spec §8: renders are
// pure functions of their inputs).
func (o *Oscillator) noise() float64 {
	seed := uint32(o.Phase * 1_000_000)
	seed = seed*1103515245 + 12345
	return float64(int32(seed)) / float64(math.MaxInt32)
}

// NoteFrequency converts a MIDI note number (plus an optional fractional
// cent offset) to Hz, A4 (MIDI 69) = 440Hz (spec §4.3 musical scalars).
func NoteFrequency(midi int, centOffset float64) float64 {
	semitones := float64(midi-69) + centOffset/100.0
	return 440.0 * math.Pow(2.0, semitones/12.0)
}
