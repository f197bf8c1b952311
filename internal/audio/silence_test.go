package audio

import (
	"testing"
	"time"
)

func TestSilenceLength(t *testing.T) {
	f := Format{SampleRate: 16000, BitsPerSample: 16, Channels: 1}

	for _, d := range []time.Duration{0, 10 * time.Millisecond, 500 * time.Millisecond, time.Second} {
		buf := Silence(f, d)
		want := f.ChunkLength(d)
		if len(buf) != want {
			t.Errorf("Silence(%v): expected %d bytes, got %d", d, want, len(buf))
		}
	}
}

func TestSilenceZeroDurationIsEmpty(t *testing.T) {
	f := Format{SampleRate: 8000, BitsPerSample: 8, Channels: 2}

	if buf := Silence(f, 0); len(buf) != 0 {
		t.Errorf("Expected empty buffer for zero duration, got %d bytes", len(buf))
	}
}

func TestSilenceFillValue16Bit(t *testing.T) {
	f := Format{SampleRate: 16000, BitsPerSample: 16, Channels: 1}

	buf := Silence(f, 10*time.Millisecond)
	for i, b := range buf {
		if b != 0x00 {
			t.Fatalf("Byte %d: expected 0x00 for 16-bit silence, got 0x%02x", i, b)
		}
	}
}

func TestSilenceFillValue8Bit(t *testing.T) {
	// 8-bit WAV audio is unsigned; silence is the mid-scale value 128.
	f := Format{SampleRate: 16000, BitsPerSample: 8, Channels: 1}

	buf := Silence(f, 10*time.Millisecond)
	for i, b := range buf {
		if b != 0x80 {
			t.Fatalf("Byte %d: expected 0x80 for 8-bit silence, got 0x%02x", i, b)
		}
	}
}

func TestFillSilencePadsInPlace(t *testing.T) {
	f := Format{SampleRate: 16000, BitsPerSample: 8, Channels: 1}

	buf := []byte{1, 2, 3, 4}
	FillSilence(f, buf[2:])

	if buf[0] != 1 || buf[1] != 2 {
		t.Error("FillSilence touched bytes outside the slice")
	}
	if buf[2] != 0x80 || buf[3] != 0x80 {
		t.Errorf("Expected trailing bytes filled with 0x80, got % x", buf[2:])
	}
}
