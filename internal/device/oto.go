package device

import (
	"fmt"
	"io"

	"github.com/ebitengine/oto/v3"

	"github.com/ls-1801/audio-server/internal/audio"
)

// Oto plays PCM through the system audio device using the oto library. A
// persistent player reads from an in-process pipe, so each Write feeds the
// pipe and blocks once the device queue is full.
type Oto struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
}

// NewOto creates a new oto-backed output. The device is not touched until
// Open is called.
func NewOto() *Oto {
	return &Oto{}
}

// Open initializes the audio device for the given format. oto allows only
// one context per process, so Open must be called at most once.
func (o *Oto) Open(format audio.Format) error {
	if o.otoCtx != nil {
		return fmt.Errorf("device already open")
	}

	var sampleFormat oto.Format
	switch format.BitsPerSample {
	case 8:
		sampleFormat = oto.FormatUnsignedInt8
	case 16:
		sampleFormat = oto.FormatSignedInt16LE
	default:
		return fmt.Errorf("unsupported bit depth %d", format.BitsPerSample)
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       sampleFormat,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()

	return nil
}

// Write feeds one PCM buffer to the device, blocking until accepted.
func (o *Oto) Write(p []byte) error {
	if o.pipeWriter == nil {
		return fmt.Errorf("device not open")
	}

	if _, err := o.pipeWriter.Write(p); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Close releases the device.
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
	}
	return nil
}
