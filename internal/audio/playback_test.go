package audio

import (
	"encoding/binary"
	"testing"
)

func TestNewOtoBackendStartsUninitialized(t *testing.T) {
	b := NewOtoBackend()
	if b.Initialized() {
		t.Fatalf("a freshly constructed backend should report not initialized")
	}
}

func TestOtoBackendPlayBeforeInitializeErrors(t *testing.T) {
	b := NewOtoBackend()
	if err := b.Play([]float64{0, 0}, 44100, 1, NewCancel().C()); err == nil {
		t.Fatalf("Play before Initialize should return an error")
	}
}

func TestOtoBackendDevicesReportsDefault(t *testing.T) {
	b := NewOtoBackend()
	devices := b.Devices()
	if len(devices) != 1 || devices[0] != "default" {
		t.Fatalf("Devices() = %v, want [default]", devices)
	}
}

func TestOtoBackendSetDeviceRejectsUnknownName(t *testing.T) {
	b := NewOtoBackend()
	if err := b.SetDevice("default"); err != nil {
		t.Errorf("SetDevice(\"default\") should succeed: %v", err)
	}
	if err := b.SetDevice(""); err != nil {
		t.Errorf("SetDevice(\"\") should succeed: %v", err)
	}
	if err := b.SetDevice("gpu-dac"); err == nil {
		t.Errorf("SetDevice with an unrecognized name should error")
	}
}

func TestCancelFireIsIdempotentAndObservable(t *testing.T) {
	c := NewCancel()
	select {
	case <-c.C():
		t.Fatalf("a fresh Cancel token should not be fired")
	default:
	}
	c.Fire()
	c.Fire() // must not panic on double-fire
	select {
	case <-c.C():
	default:
		t.Fatalf("Cancel.C() should be closed after Fire()")
	}
}

func TestSampleStreamReadConvertsToInt16PCM(t *testing.T) {
	s := &sampleStream{samples: []float64{1.0, -1.0, 0.0}, cancel: NewCancel().C()}
	buf := make([]byte, 6)
	n, err := s.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 6 {
		t.Fatalf("Read returned n=%d, want 6", n)
	}
	v0 := int16(binary.LittleEndian.Uint16(buf[0:2]))
	v1 := int16(binary.LittleEndian.Uint16(buf[2:4]))
	v2 := int16(binary.LittleEndian.Uint16(buf[4:6]))
	if v0 != 32767 {
		t.Errorf("sample 1.0 encoded as %d, want 32767", v0)
	}
	if v1 != -32767 {
		t.Errorf("sample -1.0 encoded as %d, want -32767", v1)
	}
	if v2 != 0 {
		t.Errorf("sample 0.0 encoded as %d, want 0", v2)
	}
}

func TestSampleStreamReadStopsAtEndOfBuffer(t *testing.T) {
	s := &sampleStream{samples: []float64{1.0}, cancel: NewCancel().C()}
	buf := make([]byte, 10)
	n, _ := s.Read(buf)
	if n != 2 {
		t.Fatalf("Read returned n=%d for a single sample, want 2", n)
	}
	n2, _ := s.Read(buf)
	if n2 != 0 {
		t.Fatalf("Read past the end of samples should return n=0, got %d", n2)
	}
}

func TestSampleStreamReadRespectsCancellation(t *testing.T) {
	cancel := NewCancel()
	cancel.Fire()
	s := &sampleStream{samples: []float64{1.0, 1.0, 1.0}, cancel: cancel.C()}
	buf := make([]byte, 6)
	n, err := s.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 0 {
		t.Fatalf("Read on a cancelled stream should return n=0, got %d", n)
	}
}
