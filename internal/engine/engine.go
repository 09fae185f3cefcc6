// Package engine wires together every other package into one runnable unit
// (spec §2 System Overview): lexer → parser → interpreter, with the
// standard-library registry, module loader, musical defaults, seeded PRNG,
// synth registry and audio backend all constructed once and handed to the
// interpreter before any program statement runs (spec §5 "Global state").
package engine

import (
	"math/rand"
	"os"
	"time"

	"github.com/noahfreelove/flow/internal/audio"
	"github.com/noahfreelove/flow/internal/builtin"
	"github.com/noahfreelove/flow/internal/diag"
	"github.com/noahfreelove/flow/internal/interp"
	"github.com/noahfreelove/flow/internal/lexer"
	"github.com/noahfreelove/flow/internal/modules"
	"github.com/noahfreelove/flow/internal/parser"
	"github.com/noahfreelove/flow/internal/render"
	"github.com/noahfreelove/flow/internal/synth"
)

// defaultSampleRate and defaultBPM seed render.Options once, at engine
// construction. A `tempo` block sets the musical context's tempo only; the
// render, renderSong and exportmidi builtins keep using defaultBPM.
const (
	defaultSampleRate = 44100
	defaultBPM        = 120.0
	defaultVoice      = "sine"
)

// Engine owns one program's entire run: the diagnostic bag every package
// reports into, the interpreter, and the capabilities the stdlib registry
// closes over.
type Engine struct {
	Bag    *diag.Bag
	Interp *interp.Interp
	Synth  *synth.Registry
	Audio  audio.Capability
	RNG    *rand.Rand
}

// Option configures an Engine at construction time.
type Option func(*config)

type config struct {
	stdlibDir  string
	workingDir string
	seed       int64
	seeded     bool
	audio      audio.Capability
	sampleRate int
	voiceName  string
}

// WithStdlibDir sets the directory `use "@name"` resolves against (spec §6).
func WithStdlibDir(dir string) Option { return func(c *config) { c.stdlibDir = dir } }

// WithWorkingDir sets the fallback base for relative `use` paths.
func WithWorkingDir(dir string) Option { return func(c *config) { c.workingDir = dir } }

// WithSeed fixes the engine's PRNG seed (spec §5 "a seeded random-number
// generator"); without this option the engine seeds from the current time.
func WithSeed(seed int64) Option { return func(c *config) { c.seed = seed; c.seeded = true } }

// WithAudioBackend replaces the default realtime backend — e.g. with a nil
// or a test double — before program execution (spec §4.9 "Replacement by
// the host is permitted before program execution").
func WithAudioBackend(backend audio.Capability) Option {
	return func(c *config) { c.audio = backend }
}

// WithSampleRate overrides the default render sample rate (spec §4.7
// "filling defaults"); zero leaves defaultSampleRate in effect.
func WithSampleRate(hz int) Option { return func(c *config) { c.sampleRate = hz } }

// WithVoiceName overrides the default synth voice new Sequences render
// through when no context overrides it.
func WithVoiceName(name string) Option { return func(c *config) { c.voiceName = name } }

// New constructs a fully-wired Engine: an empty diagnostic bag, a module
// loader, a synth registry with all eight builtin voices, an audio backend,
// a seeded PRNG, and the root frame populated by internal/builtin.
func New(entryFile string, opts ...Option) *Engine {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.seeded {
		cfg.seed = time.Now().UnixNano()
	}
	if cfg.audio == nil {
		cfg.audio = audio.NewOtoBackend()
	}
	if cfg.sampleRate == 0 {
		cfg.sampleRate = defaultSampleRate
	}
	if cfg.voiceName == "" {
		cfg.voiceName = defaultVoice
	}

	bag := diag.NewBag()
	loader := modules.NewLoader(cfg.stdlibDir, cfg.workingDir)
	rng := rand.New(rand.NewSource(cfg.seed))
	synthRegistry := synth.NewRegistry()

	in := interp.New(bag, loader, rng, entryFile)

	renderOpts := render.Options{
		SampleRate: cfg.sampleRate,
		BPM:        defaultBPM,
		VoiceName:  cfg.voiceName,
		Synth:      synthRegistry,
	}
	builtin.Register(in.Root, builtin.Env{
		Bag:    bag,
		RNG:    rng,
		Call:   in.CallOverload,
		Audio:  cfg.audio,
		Render: renderOpts,
	})

	return &Engine{Bag: bag, Interp: in, Synth: synthRegistry, Audio: cfg.audio, RNG: rng}
}

// RunSource lexes, parses and executes source under file (used for both
// diagnostic file-paths and relative `use` resolution).
func (e *Engine) RunSource(source, file string) {
	toks := lexer.Tokenize(source, file, e.Bag)
	prog := parser.Parse(toks, e.Bag)
	e.Interp.Run(prog)
}

// RunFile reads path from disk and executes it (spec §6 CLI "a source file
// path (run)").
func (e *Engine) RunFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	e.RunSource(string(data), path)
	return nil
}

// Ok reports whether the run accumulated no diagnostics (spec §7 "An
// engine run is successful iff the accumulator is empty at end of program").
func (e *Engine) Ok() bool { return e.Bag.Empty() }
