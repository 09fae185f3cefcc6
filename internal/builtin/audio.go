package builtin

import (
	"fmt"
	"os"

	"github.com/noahfreelove/flow/internal/audio"
	"github.com/noahfreelove/flow/internal/export"
	"github.com/noahfreelove/flow/internal/music"
	"github.com/noahfreelove/flow/internal/render"
	"github.com/noahfreelove/flow/internal/types"
	"github.com/noahfreelove/flow/internal/values"
)

// registerAudio installs the rendering, playback and export stdlib
// functions. They close over env.Synth/env.Audio/env.Render, the
// capabilities the engine constructed and wired before the program ran
// (spec §4.9, §6): this package never constructs a synth or audio backend
// itself.
func registerAudio(root *values.Frame, env Env) {
	def(root, "render", []*types.Type{types.Sequence}, func(args []values.Value) (values.Value, error) {
		seq := args[0].Payload.(*music.Sequence)
		return values.NewBuffer(renderSequence(seq, env)), nil
	})

	def(root, "renderSong", []*types.Type{types.Song}, func(args []values.Value) (values.Value, error) {
		song := args[0].Payload.(*music.Song)
		buf := render.Song(song, env.Render, env.Bag)
		return values.NewBuffer(buf), nil
	})

	def(root, "exportwav", []*types.Type{types.Buffer, types.String}, func(args []values.Value) (values.Value, error) {
		buf := args[0].Payload.(*music.Buffer)
		return values.Void, writeWAVFile(toString(args[1]), buf, audio.Bits16, env)
	})
	def(root, "exportwav", []*types.Type{types.Buffer, types.String, types.Int}, func(args []values.Value) (values.Value, error) {
		buf := args[0].Payload.(*music.Buffer)
		depth := audio.BitDepth(toInt(args[2]))
		return values.Void, writeWAVFile(toString(args[1]), buf, depth, env)
	})

	def(root, "exportmidi", []*types.Type{types.Song, types.String}, func(args []values.Value) (values.Value, error) {
		song := args[0].Payload.(*music.Song)
		return values.Void, export.WriteMIDI(toString(args[1]), song, env.Render.BPM, env.Bag)
	})

	def(root, "play", []*types.Type{types.Buffer}, func(args []values.Value) (values.Value, error) {
		buf := args[0].Payload.(*music.Buffer)
		if env.Audio == nil {
			return values.Void, fmt.Errorf("no audio backend configured")
		}
		if !env.Audio.Initialized() {
			if err := env.Audio.Initialize(buf.SampleRate, buf.Channels); err != nil {
				return values.Void, err
			}
		}
		cancel := audio.NewCancel()
		return values.Void, env.Audio.Play(buf.Samples, buf.SampleRate, buf.Channels, cancel.C())
	})

	def(root, "devices", nil, func(args []values.Value) (values.Value, error) {
		if env.Audio == nil {
			return values.NewArray(types.String, nil), nil
		}
		names := env.Audio.Devices()
		items := make([]values.Value, len(names))
		for i, n := range names {
			items[i] = values.NewString(n)
		}
		return values.NewArray(types.String, items), nil
	})

	def(root, "setdevice", []*types.Type{types.String}, func(args []values.Value) (values.Value, error) {
		if env.Audio == nil {
			return values.NewBool(false), nil
		}
		if err := env.Audio.SetDevice(toString(args[0])); err != nil {
			return values.NewBool(false), nil
		}
		return values.NewBool(true), nil
	})
}

// renderSequence runs the Sequence/Mix pipeline (internal/render) with the
// engine's default voice, tempo and sample rate.
func renderSequence(seq *music.Sequence, env Env) *music.Buffer {
	voices, totalBeats := render.Sequence(seq, env.Render, env.Bag)
	return render.Mix(voices, totalBeats, env.Render, 1, 1.0)
}

func writeWAVFile(path string, buf *music.Buffer, depth audio.BitDepth, env Env) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	rng := env.RNG
	if rng == nil {
		rng = defaultDitherRNG()
	}
	return audio.WriteWAV(f, buf.Samples, buf.SampleRate, buf.Channels, depth, rng)
}
