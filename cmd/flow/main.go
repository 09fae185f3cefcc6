package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/noahfreelove/flow/internal/cliconfig"
	"github.com/noahfreelove/flow/internal/engine"
	"github.com/noahfreelove/flow/internal/repl"
)

const sentryFlushTimeout = 2 * time.Second

// watchPollInterval is how often --watch stats the source file for a
// changed mtime. fsnotify appears in no retrieved example repo, so this
// polls instead of adding a dependency the pack never shows (SPEC_FULL.md
// §12).
const watchPollInterval = 200 * time.Millisecond

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}
	cfg := cliconfig.Load()

	stdlibDir := flag.String("stdlib", cfg.StdlibDir, "standard library directory ('use \"@name\"' resolves here)")
	watch := flag.String("watch", "", "re-run the given source file whenever it changes")
	expr := flag.String("e", "", "execute a one-line program and exit")
	seed := flag.Int64("seed", 0, "fix the PRNG seed (0 = seed from current time)")
	flag.Parse()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			log.Printf("sentry init failed: %v", err)
		} else {
			defer sentry.Flush(sentryFlushTimeout)
		}
	}
	defer recoverPanic()

	opts := []engine.Option{engine.WithStdlibDir(*stdlibDir), engine.WithSampleRate(cfg.SampleRate)}
	if *seed != 0 {
		opts = append(opts, engine.WithSeed(*seed))
	}

	switch {
	case *watch != "":
		runWatch(*watch, opts, cfg.Device)
	case *expr != "":
		os.Exit(runOnce(*expr, "<-e>", opts, cfg.Device))
	case flag.NArg() > 0:
		path := flag.Arg(0)
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "flow: cannot read %s: %v\n", path, err)
			os.Exit(1)
		}
		os.Exit(runOnce(string(data), path, opts, cfg.Device))
	default:
		runRepl(opts, cfg.Device)
	}
}

// newEngine constructs an Engine and applies the configured default audio
// device, if any, before it runs anything (spec §4.9 "Replacement by the
// host is permitted before program execution").
func newEngine(file string, opts []engine.Option, device string) *engine.Engine {
	eng := engine.New(file, opts...)
	if device != "" {
		if err := eng.Audio.SetDevice(device); err != nil {
			fmt.Fprintf(os.Stderr, "flow: cannot select audio device %q: %v\n", device, err)
		}
	}
	return eng
}

// runOnce runs one source string through a fresh Engine, prints any
// accumulated diagnostics to stderr, and returns the process exit code
// (spec §6 CLI: "Exit code 0 on success, 1 on any reported diagnostic").
func runOnce(source, file string, opts []engine.Option, device string) int {
	eng := newEngine(file, opts, device)
	eng.RunSource(source, file)
	for _, d := range eng.Bag.Items() {
		fmt.Fprintln(os.Stderr, d.String())
	}
	if eng.Ok() {
		return 0
	}
	return 1
}

// runWatch re-runs path every time its mtime changes, until interrupted.
func runWatch(path string, opts []engine.Option, device string) {
	var lastMod time.Time
	for {
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "flow: cannot stat %s: %v\n", path, err)
			time.Sleep(watchPollInterval)
			continue
		}
		if info.ModTime().After(lastMod) {
			lastMod = info.ModTime()
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "flow: cannot read %s: %v\n", path, err)
			} else {
				fmt.Printf("--- running %s (run %s) ---\n", path, uuid.New().String())
				runOnce(string(data), path, opts, device)
			}
		}
		time.Sleep(watchPollInterval)
	}
}

func runRepl(opts []engine.Option, device string) {
	eng := newEngine("<repl>", opts, device)
	p := tea.NewProgram(repl.New(eng), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "flow: repl error: %v\n", err)
		os.Exit(1)
	}
}

// recoverPanic catches an unexpected panic escaping a run, reports it to
// Sentry when configured, and exits 1 rather than letting it crash with a
// raw Go stack trace (spec §7 "No error escapes the engine except via
// this accumulator" — this is the last-resort backstop for a host/infra
// bug the accumulator never got a chance to record).
func recoverPanic() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(sentryFlushTimeout)
		fmt.Fprintf(os.Stderr, "flow: internal error: %v\n", r)
		os.Exit(1)
	}
}
