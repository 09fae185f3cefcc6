// Package export implements Flow's supplemented MIDI export feature: a
// second consumer of the note-stream compiler's output (spec §4.8/§4.9),
// walking the same (Bar, beat-offset) → (MusicalNote, beat-offset-within-bar)
// model the audio renderer uses but writing a Standard MIDI File instead of
// a sample buffer, via gitlab.com/gomidi/midi/v2 — the same library the
// retrieved pack's own MIDI-centric song tool uses for the same purpose.
package export

import (
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/noahfreelove/flow/internal/diag"
	"github.com/noahfreelove/flow/internal/music"
)

// ticksPerQuarter is the SMF file's time division; a beat (spec glossary:
// "one denominator-unit") is one quarter note at this resolution.
const ticksPerQuarter = 960

// drumChannel is General MIDI's reserved percussion channel; any track named
// "drums" (case-sensitive match to the synth voice name, spec §4.9) is
// routed there so exported files play back with a drum kit by convention.
const drumChannel = 9

type midiEvent struct {
	tick    uint32
	channel uint8
	key     uint8
	vel     uint8
	on      bool
}

// WriteMIDI renders song to a Standard MIDI File at path. bpm sets the tempo
// meta-event; every named sequence within the song's sections becomes its
// own MIDI channel, advanced and repeated exactly as internal/render's
// Song walks entries (spec §3 Song/Section), so the two exporters agree on
// timing and repeat structure.
func WriteMIDI(path string, song *music.Song, bpm float64, bag *diag.Bag) error {
	events, totalTicks := collectEvents(song, bag)

	return smf.WriteFile(path, func(wr *smf.Writer) error {
		wr.Write(smf.MetaTempo(bpmOrDefault(bpm)))

		var lastTick uint32
		for _, ev := range events {
			delta := ev.tick - lastTick
			lastTick = ev.tick
			wr.SetDelta(delta)
			wr.SetChannel(ev.channel)
			if ev.on {
				wr.Write(midi.NoteOn(ev.channel, ev.key, ev.vel))
			} else {
				wr.Write(midi.NoteOff(ev.channel, ev.key))
			}
		}
		if totalTicks > lastTick {
			wr.SetDelta(totalTicks - lastTick)
		}
		return nil
	}, smf.TimeFormat(smf.MetricTicks(ticksPerQuarter)))
}

func bpmOrDefault(bpm float64) float64 {
	if bpm <= 0 {
		return 120
	}
	return bpm
}

// collectEvents flattens every track's notes into a single NoteOn/NoteOff
// event list, sorted by absolute tick, mirroring internal/render.Song's
// per-track cursor advancement but accumulating MIDI events instead of audio
// samples.
func collectEvents(song *music.Song, bag *diag.Bag) ([]midiEvent, uint32) {
	trackBeats := map[string]float64{}
	channels := map[string]uint8{}
	nextChannel := uint8(0)

	var events []midiEvent
	maxTick := uint32(0)

	for _, entry := range song.Entries {
		sec, ok := song.Sections[entry.SectionName]
		if !ok {
			bag.Musicalf(diag.Location{}, "midi export: song references unknown section %q, skipping", entry.SectionName)
			continue
		}
		repeat := entry.Repeat
		if repeat <= 0 {
			repeat = 1
		}

		entrySpan := 0.0
		for _, seq := range sec.Sequences {
			if length := sequenceBeats(seq); length > entrySpan {
				entrySpan = length
			}
		}

		for rep := 0; rep < repeat; rep++ {
			for name, seq := range sec.Sequences {
				ch, ok := channels[name]
				if !ok {
					ch = channelFor(name, &nextChannel)
					channels[name] = ch
				}
				base := trackBeats[name]
				noteEvents, _ := sequenceEvents(seq, base, ch)
				events = append(events, noteEvents...)
				for _, ev := range noteEvents {
					if ev.tick > maxTick {
						maxTick = ev.tick
					}
				}
				trackBeats[name] = base + entrySpan
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].tick < events[j].tick })
	return events, maxTick
}

// channelFor assigns a stable MIDI channel per track name: "drums" always
// maps to the General MIDI percussion channel, everything else gets the
// next free non-percussion channel (wrapping, skipping 9, past 16 tracks).
func channelFor(name string, next *uint8) uint8 {
	if name == "drums" {
		return drumChannel
	}
	ch := *next % 16
	if ch == drumChannel {
		ch++
	}
	*next = ch + 1
	return ch
}

func sequenceBeats(seq *music.Sequence) float64 {
	total := 0.0
	for _, bar := range seq.Bars {
		for _, note := range bar.Notes {
			total += note.Duration.Beats(bar.TimeSig.Den)
		}
	}
	return total
}

func sequenceEvents(seq *music.Sequence, beatBase float64, channel uint8) ([]midiEvent, float64) {
	var events []midiEvent
	cursor := beatBase
	for _, bar := range seq.Bars {
		for _, note := range bar.Notes {
			nominal := note.Duration.Beats(bar.TimeSig.Den)
			if !note.IsRest {
				sounding := nominal * note.Articulation.Multiplier()
				vel := uint8(64)
				if note.Velocity != nil {
					vel = uint8(*note.Velocity)
				}
				onTick := beatsToTicks(cursor)
				offTick := beatsToTicks(cursor + sounding)
				key := uint8(note.MidiNumber())
				events = append(events,
					midiEvent{tick: onTick, channel: channel, key: key, vel: vel, on: true},
					midiEvent{tick: offTick, channel: channel, key: key, on: false},
				)
			}
			cursor += nominal
		}
	}
	return events, cursor - beatBase
}

func beatsToTicks(beats float64) uint32 {
	if beats < 0 {
		beats = 0
	}
	return uint32(beats * float64(ticksPerQuarter))
}
