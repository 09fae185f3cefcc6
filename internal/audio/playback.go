package audio

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Capability is the opaque audio backend surface a Flow program's `play`/
// `loop` builtins call against (spec §6 "Audio backend interface"):
// initialize, play (blocking until drained or cancelled), devices, device
// selection, and a readiness check.
type Capability interface {
	Initialize(sampleRate, channels int) error
	Play(samples []float64, sampleRate, channels int, cancel <-chan struct{}) error
	Devices() []string
	SetDevice(name string) error
	Initialized() bool
}

// Cancel is a cooperative cancellation token (spec §5: "cancellation is
// cooperative via a shared cancellation token"). Cancelling stops a Play
// call early without treating it as an error (spec §7: "backend
// cancellation (not treated as an error)").
type Cancel struct {
	ch chan struct{}
}

// NewCancel creates an un-cancelled token.
func NewCancel() *Cancel { return &Cancel{ch: make(chan struct{})} }

// Fire cancels the token; safe to call more than once.
func (c *Cancel) Fire() {
	select {
	case <-c.ch:
	default:
		close(c.ch)
	}
}

// C exposes the underlying channel for a Play call to select on.
func (c *Cancel) C() <-chan struct{} { return c.ch }

// OtoBackend is the realtime playback Capability, adapted from the
// teacher's pkg/audio.RealtimeOutput/audioStream: same oto/v3 context plus
// an io.Reader-backed player, generalized from a live tracker's continuously
// regenerated stream to one-shot playback of a fully-rendered buffer (Flow
// renders eagerly per spec §4.9, rather than streaming samples from a
// playing channel state machine), and extended with the cancellation token
// and device-selection surface the spec's backend interface requires.
type OtoBackend struct {
	mu  sync.Mutex
	ctx *oto.Context
}

// NewOtoBackend constructs an uninitialized backend; Initialize must be
// called before Play.
func NewOtoBackend() *OtoBackend { return &OtoBackend{} }

func (b *OtoBackend) Initialize(sampleRate, channels int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if channels <= 0 {
		channels = 1
	}
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return err
	}
	<-ready
	b.ctx = ctx
	return nil
}

func (b *OtoBackend) Initialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctx != nil
}

// Play blocks until samples have fully drained through the backend or
// cancel fires (spec §5/§6: "blocking until drained or cancelled"). Looping
// is the caller's responsibility (a Flow `loop` builtin calling Play
// repeatedly); this call always renders exactly one pass over samples.
func (b *OtoBackend) Play(samples []float64, sampleRate, channels int, cancel <-chan struct{}) error {
	b.mu.Lock()
	ctx := b.ctx
	b.mu.Unlock()
	if ctx == nil {
		return fmt.Errorf("audio: backend not initialized")
	}
	if channels <= 0 {
		channels = 1
	}

	stream := &sampleStream{samples: samples, cancel: cancel}
	player := ctx.NewPlayer(stream)
	player.Play()
	defer player.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for player.IsPlaying() {
			select {
			case <-cancel:
				player.Pause()
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
	}()
	<-done
	return nil
}

// Devices reports available output devices. oto/v3 does not expose device
// enumeration, so the backend reports only its single implicit default
// output; a host wanting real device selection supplies its own Capability.
func (b *OtoBackend) Devices() []string { return []string{"default"} }

// SetDevice accepts only "default", matching Devices()'s single entry.
func (b *OtoBackend) SetDevice(name string) error {
	if name != "default" && name != "" {
		return fmt.Errorf("audio: unknown device %q", name)
	}
	return nil
}

// sampleStream adapts a pre-rendered []float64 buffer into the io.Reader
// oto/v3 pulls 16-bit PCM from, checking cancel between chunks. Grounded on
// the teacher's audioStream.Read: same clamp-then-convert-to-int16 loop,
// generalized to read from a finished buffer plus a position cursor instead
// of calling back into a live player for fresh samples each read.
type sampleStream struct {
	samples []float64
	pos     int
	cancel  <-chan struct{}
}

func (s *sampleStream) Read(buf []byte) (int, error) {
	select {
	case <-s.cancel:
		return 0, nil
	default:
	}
	if s.pos >= len(s.samples) {
		return 0, nil
	}

	n := 0
	for n+2 <= len(buf) && s.pos < len(s.samples) {
		sample := sanitizeSample(s.samples[s.pos])
		s.pos++
		s16 := int16(sample * 32767)
		binary.LittleEndian.PutUint16(buf[n:], uint16(s16))
		n += 2
	}
	return n, nil
}
