package audio

import (
	"fmt"
	"time"
)

// Format describes the PCM stream format shared by server and client.
// All chunk sizing and pacing math derives from it. Server and client must
// be configured with identical formats; there is no in-band negotiation.
type Format struct {
	SampleRate    int // samples per second per channel
	BitsPerSample int // 8 (unsigned) or 16 (signed little-endian)
	Channels      int // 1 (mono) or 2 (stereo)
}

// NewFormat creates a validated format descriptor.
func NewFormat(sampleRate, bitsPerSample, channels int) (Format, error) {
	f := Format{
		SampleRate:    sampleRate,
		BitsPerSample: bitsPerSample,
		Channels:      channels,
	}
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	return f, nil
}

// Validate checks that all descriptor fields are within the supported enumeration.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}

	if f.BitsPerSample != 8 && f.BitsPerSample != 16 {
		return fmt.Errorf("bits per sample must be 8 or 16, got %d", f.BitsPerSample)
	}

	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", f.Channels)
	}

	return nil
}

// Equal reports whether two descriptors are compatible. Compatibility is
// strict field equality; mismatched formats are never coerced.
func (f Format) Equal(other Format) bool {
	return f.SampleRate == other.SampleRate &&
		f.BitsPerSample == other.BitsPerSample &&
		f.Channels == other.Channels
}

// FrameSize returns the size in bytes of one sample frame
// (one sample per channel at a single time instant).
func (f Format) FrameSize() int {
	return f.Channels * f.BitsPerSample / 8
}

// BytesPerSecond returns the PCM byte rate of the format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.FrameSize()
}

// ChunkLength returns the byte length of a chunk covering the given duration,
// rounded down to a whole number of frames. A sample frame is never split
// across a chunk boundary.
func (f Format) ChunkLength(d time.Duration) int {
	if d <= 0 {
		return 0
	}

	frames := int(int64(f.SampleRate) * int64(d) / int64(time.Second))
	return frames * f.FrameSize()
}

// TrimToFrames rounds a byte count down to a whole number of frames.
func (f Format) TrimToFrames(n int) int {
	if n < 0 {
		return 0
	}
	return n - n%f.FrameSize()
}

// String returns a human-readable description, e.g. "16000 Hz 16-bit mono".
func (f Format) String() string {
	layout := "mono"
	if f.Channels == 2 {
		layout = "stereo"
	}
	return fmt.Sprintf("%d Hz %d-bit %s", f.SampleRate, f.BitsPerSample, layout)
}
