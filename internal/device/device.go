package device

import (
	"github.com/ls-1801/audio-server/internal/audio"
)

// Output is a playback device fed fixed-size PCM buffers. Write is expected
// to block at device speed, which is what paces the playback loop.
type Output interface {
	// Open initializes the device for the given PCM format.
	Open(format audio.Format) error

	// Write queues one buffer of PCM for playback, blocking until the
	// device has accepted it.
	Write(p []byte) error

	// Close releases the device.
	Close() error
}
