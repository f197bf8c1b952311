package audio

import (
	"testing"
	"time"
)

func TestNewFormat(t *testing.T) {
	f, err := NewFormat(16000, 16, 1)
	if err != nil {
		t.Fatalf("NewFormat failed: %v", err)
	}

	if f.SampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", f.SampleRate)
	}

	if f.FrameSize() != 2 {
		t.Errorf("Expected frame size 2, got %d", f.FrameSize())
	}

	if f.BytesPerSecond() != 32000 {
		t.Errorf("Expected 32000 bytes/sec, got %d", f.BytesPerSecond())
	}
}

func TestNewFormatRejectsUnsupportedValues(t *testing.T) {
	if _, err := NewFormat(16000, 24, 1); err == nil {
		t.Error("Expected error for 24-bit samples")
	}

	if _, err := NewFormat(16000, 16, 3); err == nil {
		t.Error("Expected error for 3 channels")
	}

	if _, err := NewFormat(0, 16, 1); err == nil {
		t.Error("Expected error for zero sample rate")
	}

	if _, err := NewFormat(-8000, 8, 2); err == nil {
		t.Error("Expected error for negative sample rate")
	}
}

func TestFormatEqual(t *testing.T) {
	base := Format{SampleRate: 16000, BitsPerSample: 16, Channels: 1}

	if !base.Equal(Format{SampleRate: 16000, BitsPerSample: 16, Channels: 1}) {
		t.Error("Expected identical formats to be equal")
	}

	variants := []Format{
		{SampleRate: 8000, BitsPerSample: 16, Channels: 1},
		{SampleRate: 16000, BitsPerSample: 8, Channels: 1},
		{SampleRate: 16000, BitsPerSample: 16, Channels: 2},
	}
	for _, v := range variants {
		if base.Equal(v) {
			t.Errorf("Expected %v to differ from %v", v, base)
		}
	}
}

func TestFrameSize(t *testing.T) {
	cases := []struct {
		bits, channels, want int
	}{
		{8, 1, 1},
		{8, 2, 2},
		{16, 1, 2},
		{16, 2, 4},
	}

	for _, c := range cases {
		f := Format{SampleRate: 16000, BitsPerSample: c.bits, Channels: c.channels}
		if got := f.FrameSize(); got != c.want {
			t.Errorf("FrameSize for %d-bit %dch: expected %d, got %d", c.bits, c.channels, c.want, got)
		}
	}
}

func TestChunkLengthIsWholeFrames(t *testing.T) {
	formats := []Format{
		{SampleRate: 8000, BitsPerSample: 8, Channels: 1},
		{SampleRate: 16000, BitsPerSample: 16, Channels: 1},
		{SampleRate: 44100, BitsPerSample: 16, Channels: 2},
		{SampleRate: 22050, BitsPerSample: 8, Channels: 2},
	}
	durations := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		37 * time.Millisecond,
		time.Second,
	}

	for _, f := range formats {
		for _, d := range durations {
			n := f.ChunkLength(d)
			if n <= 0 {
				t.Errorf("ChunkLength(%v, %v) = %d, expected positive", f, d, n)
			}
			if n%f.FrameSize() != 0 {
				t.Errorf("ChunkLength(%v, %v) = %d, not a multiple of frame size %d",
					f, d, n, f.FrameSize())
			}
		}
	}
}

func TestChunkLengthKnownValues(t *testing.T) {
	f := Format{SampleRate: 16000, BitsPerSample: 16, Channels: 1}

	if got := f.ChunkLength(20 * time.Millisecond); got != 640 {
		t.Errorf("Expected 640 bytes for 20ms at 16kHz/16-bit/mono, got %d", got)
	}

	if got := f.ChunkLength(time.Second); got != 32000 {
		t.Errorf("Expected 32000 bytes for 1s, got %d", got)
	}

	if got := f.ChunkLength(0); got != 0 {
		t.Errorf("Expected 0 bytes for zero duration, got %d", got)
	}
}

func TestTrimToFrames(t *testing.T) {
	f := Format{SampleRate: 44100, BitsPerSample: 16, Channels: 2} // 4-byte frames

	if got := f.TrimToFrames(1001); got != 1000 {
		t.Errorf("Expected 1001 trimmed to 1000, got %d", got)
	}

	if got := f.TrimToFrames(1000); got != 1000 {
		t.Errorf("Expected 1000 unchanged, got %d", got)
	}

	if got := f.TrimToFrames(3); got != 0 {
		t.Errorf("Expected 3 trimmed to 0, got %d", got)
	}
}
