package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ls-1801/audio-server/internal/audio"
	"github.com/ls-1801/audio-server/internal/config"
	"github.com/ls-1801/audio-server/internal/device"
)

// Engine connects to the streaming server, buffers the incoming raw PCM and
// plays it through an output device on a fixed cadence.
//
// Two goroutines cooperate per connection: a receiver that copies socket
// bytes into the playback buffer, and a player that drains the buffer one
// device-sized slice per tick. The buffer blocks the receiver when full,
// which stalls socket reads and pushes backpressure to the server through
// TCP flow control.
type Engine struct {
	config *config.ClientConfig
	format audio.Format
	dev    device.Output
	logger *slog.Logger

	deviceBufBytes int
	tickInterval   time.Duration

	// Counters, written by the receiver and player goroutines
	bytesReceived atomic.Uint64
	bytesPlayed   atomic.Uint64
	underruns     atomic.Uint64
}

// EngineStats holds playback counters accumulated over a connection.
type EngineStats struct {
	BytesReceived uint64
	BytesPlayed   uint64
	Underruns     uint64
}

// NewEngine creates a playback engine for the given device. The device
// buffer size must be a whole number of frames so silence padding never
// splits a frame.
func NewEngine(cfg *config.ClientConfig, format audio.Format, dev device.Output, logger *slog.Logger) (*Engine, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if cfg.DeviceBufferBytes <= 0 || cfg.DeviceBufferBytes%format.FrameSize() != 0 {
		return nil, fmt.Errorf("device buffer size %d is not a multiple of frame size %d",
			cfg.DeviceBufferBytes, format.FrameSize())
	}

	return &Engine{
		config:         cfg,
		format:         format,
		dev:            dev,
		logger:         logger,
		deviceBufBytes: cfg.DeviceBufferBytes,
		tickInterval:   time.Duration(cfg.DeviceBufferBytes) * time.Second / time.Duration(format.BytesPerSecond()),
	}, nil
}

// Run connects to the server, opens the device and plays until the server
// closes the connection or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	addr := e.config.ServerAddr()

	conn, err := net.DialTimeout("tcp", addr, e.config.GetConnectTimeout())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	e.logger.Info("Connected to server",
		slog.String("address", addr),
		slog.String("format", e.format.String()),
		slog.Int("device_buffer_bytes", e.deviceBufBytes),
		slog.Duration("tick_interval", e.tickInterval),
	)

	if err := e.dev.Open(e.format); err != nil {
		conn.Close()
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	defer e.dev.Close()

	return e.stream(ctx, conn)
}

// stream runs the receiver and player loops over an established connection.
func (e *Engine) stream(ctx context.Context, conn net.Conn) error {
	buffer, err := audio.NewPlaybackBuffer(e.deviceBufBytes * e.config.BufferMultiple)
	if err != nil {
		conn.Close()
		return err
	}

	// Closing the connection on cancellation unblocks the receiver, which
	// closes the buffer, which lets the player drain and exit.
	stopWatch := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stopWatch:
		}
	}()
	defer close(stopWatch)
	defer conn.Close()

	var wg sync.WaitGroup
	var recvErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		recvErr = e.receive(conn, buffer)
		buffer.Close()
	}()

	e.play(buffer)

	// If the player bailed out on a device error the receiver may still be
	// blocked; closing both ends unblocks it.
	buffer.Close()
	conn.Close()
	wg.Wait()

	stats := e.Stats()
	bufStats := buffer.Stats()
	e.logger.Info("Playback finished",
		slog.Uint64("bytes_received", stats.BytesReceived),
		slog.Uint64("bytes_played", stats.BytesPlayed),
		slog.Uint64("underruns", stats.Underruns),
		slog.Int("buffer_max_fill", bufStats.MaxFill),
	)

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return recvErr
}

// receive copies socket bytes into the playback buffer until the server
// closes the stream. A full buffer blocks the write, which stalls the next
// socket read and lets TCP flow control slow the server down.
func (e *Engine) receive(conn net.Conn, buffer *audio.PlaybackBuffer) error {
	buf := make([]byte, e.deviceBufBytes)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			e.bytesReceived.Add(uint64(n))
			if _, werr := buffer.Write(buf[:n]); werr != nil {
				return nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("connection read failed: %w", err)
		}
	}
}

// play drains the buffer one device-sized slice per tick. Short reads are
// padded with silence so the device always gets a full buffer and playback
// never skips a tick.
func (e *Engine) play(buffer *audio.PlaybackBuffer) {
	out := make([]byte, e.deviceBufBytes)

	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for range ticker.C {
		n := buffer.Read(out)
		if n == 0 && buffer.Closed() {
			return
		}

		if n < len(out) {
			audio.FillSilence(e.format, out[n:])
			// A short read after the stream ends is the tail draining
			// out, not an underrun.
			if !buffer.Closed() {
				e.underruns.Add(1)
				e.logger.Debug("Buffer underrun, padding with silence",
					slog.Int("got_bytes", n),
					slog.Int("want_bytes", len(out)),
				)
			}
		}

		if err := e.dev.Write(out); err != nil {
			e.logger.Error("Device write failed", slog.String("error", err.Error()))
			return
		}
		e.bytesPlayed.Add(uint64(n))
	}
}

// Stats returns the playback counters accumulated so far.
func (e *Engine) Stats() EngineStats {
	return EngineStats{
		BytesReceived: e.bytesReceived.Load(),
		BytesPlayed:   e.bytesPlayed.Load(),
		Underruns:     e.underruns.Load(),
	}
}
