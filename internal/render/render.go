// Package render implements Flow's song/sequence renderer (spec §4.9): a
// staged pipeline from a compiled music.Sequence down to a mixed
// music.Buffer, calling out to a synth.Capability per note and mixing the
// resulting Voices by beat offset, gain and pan.
package render

import (
	"math"

	"github.com/noahfreelove/flow/internal/diag"
	"github.com/noahfreelove/flow/internal/music"
	"github.com/noahfreelove/flow/internal/synth"
)

// legatoOverlapBeats is the small extra duration added to a tied note so its
// rendered buffer bleeds into the following note's attack instead of
// stopping dead at the boundary (spec §4.9: "tied notes add a small overlap
// to produce legato"). The spec does not fix a magnitude; a tenth of a beat
// is long enough to mask an envelope's release stage at any reasonable
// tempo without perceptibly delaying the following note (documented as an
// open-question decision in DESIGN.md).
const legatoOverlapBeats = 0.1

// Options configures one render pass: the sample rate and tempo to render
// at, which registered synth voice to use, and the capability to render
// through (spec §4.9: "Replacement by the host is permitted before program
// execution" — Options.Synth is exactly that replaceable capability).
type Options struct {
	SampleRate int
	BPM        float64
	VoiceName  string
	Synth      synth.Capability

	// TrackVoices and TrackGains override VoiceName/1.0 per named sequence
	// when rendering a whole Song (spec §3 Track: "grouped under a shared
	// gain"); a name absent from either map falls back to the default.
	TrackVoices map[string]string
	TrackGains  map[string]float64
}

// Sequence renders every non-rest note of seq into a Voice positioned at its
// beat offset; rests advance the cursor without producing a Voice (spec
// §4.9: "rests contribute to the cursor but not to voices"). The second
// return value is the sequence's total length in beats, used by Mix to size
// the output buffer.
func Sequence(seq *music.Sequence, opts Options, bag *diag.Bag) ([]*music.Voice, float64) {
	var voices []*music.Voice
	beatCursor := 0.0
	for _, bar := range seq.Bars {
		barBeats := 0.0
		for _, note := range bar.Notes {
			nominalBeats := note.Duration.Beats(bar.TimeSig.Den)
			soundingBeats := nominalBeats * note.Articulation.Multiplier()
			if note.Tied {
				soundingBeats += legatoOverlapBeats
			}

			if !note.IsRest {
				voices = append(voices, renderNote(note, beatCursor+barBeats, soundingBeats, opts, bag))
			}
			barBeats += nominalBeats
		}
		beatCursor += barBeats
	}
	return voices, beatCursor
}

func renderNote(note music.MusicalNote, beatOffset, soundingBeats float64, opts Options, bag *diag.Bag) *music.Voice {
	buf, ok := opts.Synth.Render(opts.VoiceName, note, opts.SampleRate, soundingBeats, opts.BPM)
	if !ok {
		bag.Musicalf(diag.Location{}, "unknown synth voice %q, rendering silence", opts.VoiceName)
		frames := int(soundingBeats * 60.0 / bpmOrDefault(opts.BPM) * float64(opts.SampleRate))
		buf = &music.Buffer{Samples: make([]float64, frames), SampleRate: opts.SampleRate, Channels: 1}
	}
	gain := 1.0
	if note.Velocity != nil {
		gain = float64(*note.Velocity) / 127.0
	}
	return &music.Voice{Samples: buf.Samples, BeatOffset: beatOffset, Gain: gain, Pan: 0}
}

func bpmOrDefault(bpm float64) float64 {
	if bpm <= 0 {
		return 120
	}
	return bpm
}

// Mix implements spec §4.9's mixing formula: allocate a buffer sized to
// totalBeats at the given tempo, then add each Voice's samples starting at
// its beat offset, scaled by the voice's own gain times trackGain (pass 1.0
// when voices are not grouped under a Track). Stereo output pans each voice
// by equal-power law; channels other than 1 or 2 degrade to mono placement
// in channel 0 (spec only defines mono and stereo-equal-power).
//
// Sample arithmetic is float and intentionally unclamped here — clamping is
// deferred to the playback/file-writing boundary (spec §4.9).
func Mix(voices []*music.Voice, totalBeats float64, opts Options, channels int, trackGain float64) *music.Buffer {
	if channels != 2 {
		channels = 1
	}
	framesPerBeat := 60.0 / bpmOrDefault(opts.BPM) * float64(opts.SampleRate)
	totalFrames := int(math.Ceil(totalBeats * framesPerBeat))
	if totalFrames < 0 {
		totalFrames = 0
	}
	out := make([]float64, totalFrames*channels)

	for _, v := range voices {
		startFrame := int(v.BeatOffset * framesPerBeat)
		gain := v.Gain * trackGain
		leftGain, rightGain := pan(v.Pan, gain)
		for i, s := range v.Samples {
			frame := startFrame + i
			if frame < 0 || frame >= totalFrames {
				continue
			}
			if channels == 2 {
				out[frame*2] += s * leftGain
				out[frame*2+1] += s * rightGain
			} else {
				out[frame] += s * gain
			}
		}
	}
	return &music.Buffer{Samples: out, SampleRate: opts.SampleRate, Channels: channels}
}

// pan applies equal-power panning: pan -1 is hard left, +1 hard right, 0
// centered. Only meaningful for stereo output; the mono path ignores it.
func pan(p float64, gain float64) (left, right float64) {
	if p < -1 {
		p = -1
	}
	if p > 1 {
		p = 1
	}
	angle := (p + 1) * math.Pi / 4 // 0 at hard-left .. pi/2 at hard-right
	return gain * math.Cos(angle), gain * math.Sin(angle)
}
