package render

import (
	"math"

	"github.com/noahfreelove/flow/internal/diag"
	"github.com/noahfreelove/flow/internal/music"
)

// Song renders a whole arrangement (spec §3 Song: "an ordered arrangement of
// section references plus a snapshot of the section registry"). Each named
// sequence inside a Section becomes its own track, advanced independently
// across repeated entries and summed into one master buffer at the end —
// this is what lets a song built from "melody"/"bass"/"drums" sequences
// render each through its own voice and gain (Options.TrackVoices /
// Options.TrackGains) while staying aligned to the same bar boundaries.
func Song(song *music.Song, opts Options, bag *diag.Bag) *music.Buffer {
	trackVoices := map[string][]*music.Voice{}
	trackBeats := map[string]float64{}

	for _, entry := range song.Entries {
		sec, ok := song.Sections[entry.SectionName]
		if !ok {
			bag.Musicalf(diag.Location{}, "song references unknown section %q, skipping", entry.SectionName)
			continue
		}
		repeat := entry.Repeat
		if repeat <= 0 {
			repeat = 1
		}

		entrySpan, perName, perLen := renderSectionOnce(sec, opts, bag)
		for rep := 0; rep < repeat; rep++ {
			for name, voices := range perName {
				base := trackBeats[name]
				for _, v := range voices {
					trackVoices[name] = append(trackVoices[name], &music.Voice{
						Samples: v.Samples, BeatOffset: base + v.BeatOffset, Gain: v.Gain, Pan: v.Pan,
					})
				}
				trackBeats[name] += perLen[name]
				if perLen[name] < entrySpan {
					// a sequence shorter than its section's longest sibling
					// still advances by the shared entry span, so the next
					// repeat/entry starts aligned for every track.
					trackBeats[name] += entrySpan - perLen[name]
				}
			}
		}
	}

	totalBeats := 0.0
	for _, b := range trackBeats {
		if b > totalBeats {
			totalBeats = b
		}
	}

	framesPerBeat := 60.0 / bpmOrDefault(opts.BPM) * float64(opts.SampleRate)
	totalFrames := int(math.Ceil(totalBeats * framesPerBeat))
	if totalFrames < 0 {
		totalFrames = 0
	}
	master := &music.Buffer{Samples: make([]float64, totalFrames), SampleRate: opts.SampleRate, Channels: 1}

	for name, voices := range trackVoices {
		trackGain := 1.0
		if g, ok := opts.TrackGains[name]; ok {
			trackGain = g
		}
		mixed := Mix(voices, totalBeats, opts, 1, trackGain)
		for i, s := range mixed.Samples {
			master.Samples[i] += s
		}
	}
	return master
}

// renderSectionOnce renders every named sequence in a section a single time,
// returning the section's overall span (the longest sequence's length) plus
// each sequence's own voices and length, keyed by name.
func renderSectionOnce(sec *music.Section, opts Options, bag *diag.Bag) (span float64, perName map[string][]*music.Voice, perLen map[string]float64) {
	perName = map[string][]*music.Voice{}
	perLen = map[string]float64{}
	for name, seq := range sec.Sequences {
		o := opts
		if v, ok := opts.TrackVoices[name]; ok {
			o.VoiceName = v
		}
		voices, length := Sequence(seq, o, bag)
		perName[name] = voices
		perLen[name] = length
		if length > span {
			span = length
		}
	}
	return span, perName, perLen
}
