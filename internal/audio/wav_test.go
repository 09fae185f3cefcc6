package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"testing"
)

func TestWriteWAVRIFFHeaderFields(t *testing.T) {
	var buf bytes.Buffer
	samples := []float64{0, 0.5, -0.5}
	if err := WriteWAV(&buf, samples, 44100, 1, Bits16, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	data := buf.Bytes()
	if string(data[0:4]) != "RIFF" {
		t.Fatalf("missing RIFF tag")
	}
	if string(data[8:12]) != "WAVE" {
		t.Fatalf("missing WAVE tag")
	}
	if string(data[12:16]) != "fmt " {
		t.Fatalf("missing fmt chunk id")
	}
	fmtChunkSize := binary.LittleEndian.Uint32(data[16:20])
	if fmtChunkSize != 16 {
		t.Errorf("fmt chunk size = %d, want 16", fmtChunkSize)
	}
	formatCode := binary.LittleEndian.Uint16(data[20:22])
	if formatCode != 1 {
		t.Errorf("format code = %d, want 1 (PCM)", formatCode)
	}
	channels := binary.LittleEndian.Uint16(data[22:24])
	if channels != 1 {
		t.Errorf("channels = %d, want 1", channels)
	}
	sampleRate := binary.LittleEndian.Uint32(data[24:28])
	if sampleRate != 44100 {
		t.Errorf("sample rate = %d, want 44100", sampleRate)
	}
	bitsPerSample := binary.LittleEndian.Uint16(data[34:36])
	if bitsPerSample != 16 {
		t.Errorf("bits per sample = %d, want 16", bitsPerSample)
	}
	if string(data[36:40]) != "data" {
		t.Fatalf("missing data chunk id")
	}
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	if dataSize != uint32(len(samples)*2) {
		t.Errorf("data size = %d, want %d", dataSize, len(samples)*2)
	}
	riffSize := binary.LittleEndian.Uint32(data[4:8])
	if riffSize != uint32(len(data)-8) {
		t.Errorf("RIFF size field = %d, want %d", riffSize, len(data)-8)
	}
}

func TestWriteWAVByteRateAndBlockAlign(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWAV(&buf, []float64{0, 0}, 22050, 2, Bits24, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	data := buf.Bytes()
	byteRate := binary.LittleEndian.Uint32(data[28:32])
	if want := uint32(22050 * 2 * 3); byteRate != want {
		t.Errorf("byte rate = %d, want %d", byteRate, want)
	}
	blockAlign := binary.LittleEndian.Uint16(data[32:34])
	if blockAlign != 6 {
		t.Errorf("block align = %d, want 6", blockAlign)
	}
}

func TestWriteWAVRejectsUnsupportedBitDepth(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWAV(&buf, []float64{0}, 44100, 1, BitDepth(8), rand.New(rand.NewSource(1))); err == nil {
		t.Fatalf("expected an error for an unsupported bit depth")
	}
}

func TestWriteWAV32BitIsUndithered(t *testing.T) {
	var buf bytes.Buffer
	samples := []float64{0.25, 0.25, 0.25}
	if err := WriteWAV(&buf, samples, 44100, 1, Bits32, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	data := buf.Bytes()[44:]
	v0 := int32(binary.LittleEndian.Uint32(data[0:4]))
	v1 := int32(binary.LittleEndian.Uint32(data[4:8]))
	v2 := int32(binary.LittleEndian.Uint32(data[8:12]))
	if v0 != v1 || v1 != v2 {
		t.Errorf("identical input samples should produce identical undithered 32-bit output: %d %d %d", v0, v1, v2)
	}
}

func TestWriteWAV16BitDitherVariesAcrossIdenticalSamples(t *testing.T) {
	var buf bytes.Buffer
	samples := make([]float64, 50)
	for i := range samples {
		samples[i] = 0.1
	}
	if err := WriteWAV(&buf, samples, 44100, 1, Bits16, rand.New(rand.NewSource(42))); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	data := buf.Bytes()[44:]
	seen := map[int16]bool{}
	for i := 0; i < len(samples); i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		seen[v] = true
	}
	if len(seen) < 2 {
		t.Errorf("TPDF dither over many identical samples should produce more than one quantized value, got %v", seen)
	}
}

func TestSanitizeSampleHandlesNaNAndInfinity(t *testing.T) {
	cases := map[float64]float64{
		math.NaN():              0,
		math.Inf(1):             1,
		math.Inf(-1):            -1,
		2.0:                     1,
		-2.0:                    -1,
		0.5:                     0.5,
	}
	for in, want := range cases {
		got := sanitizeSample(in)
		if math.IsNaN(in) {
			if got != 0 {
				t.Errorf("sanitizeSample(NaN) = %v, want 0", got)
			}
			continue
		}
		if got != want {
			t.Errorf("sanitizeSample(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestWriteWAVClampsOutOfRangeSamples(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWAV(&buf, []float64{2.0}, 44100, 1, Bits32, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	data := buf.Bytes()[44:]
	v := int32(binary.LittleEndian.Uint32(data[0:4]))
	if v != math.MaxInt32 {
		t.Errorf("clamped full-scale sample = %d, want %d", v, math.MaxInt32)
	}
}
