package client

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ls-1801/audio-server/internal/audio"
	"github.com/ls-1801/audio-server/internal/config"
)

var testFormat = audio.Format{SampleRate: 16000, BitsPerSample: 16, Channels: 1}

// fakeDevice captures everything written to it. An optional write delay
// simulates a device that accepts buffers slower than the tick interval.
type fakeDevice struct {
	mu         sync.Mutex
	writes     [][]byte
	writeDelay time.Duration
	openFormat audio.Format
	opened     bool
}

func (d *fakeDevice) Open(format audio.Format) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openFormat = format
	d.opened = true
	return nil
}

func (d *fakeDevice) Write(p []byte) error {
	if d.writeDelay > 0 {
		time.Sleep(d.writeDelay)
	}
	buf := make([]byte, len(p))
	copy(buf, p)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes = append(d.writes, buf)
	return nil
}

func (d *fakeDevice) Close() error { return nil }

// played returns all captured writes concatenated.
func (d *fakeDevice) played() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []byte
	for _, w := range d.writes {
		out = append(out, w...)
	}
	return out
}

func testClientConfig() *config.ClientConfig {
	return &config.ClientConfig{
		ServerHost:        "127.0.0.1",
		ServerPort:        65432,
		ConnectTimeout:    5,
		DeviceBufferBytes: 320, // 10ms at 16kHz mono 16-bit
		BufferMultiple:    4,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, cfg *config.ClientConfig, dev *fakeDevice) *Engine {
	t.Helper()

	e, err := NewEngine(cfg, testFormat, dev, testLogger())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

// nonzeroPCM produces test audio with no 0x00 bytes, so silence padding can
// be stripped when checking what was played.
func nonzeroPCM(n int) []byte {
	pcm := make([]byte, n)
	for i := range pcm {
		pcm[i] = byte(i%250) + 1
	}
	return pcm
}

func stripSilence(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, v := range b {
		if v != 0x00 {
			out = append(out, v)
		}
	}
	return out
}

func TestNewEngineRejectsMisalignedDeviceBuffer(t *testing.T) {
	cfg := testClientConfig()
	cfg.DeviceBufferBytes = 6 // frame size is 4 for 16-bit stereo

	stereo := audio.Format{SampleRate: 16000, BitsPerSample: 16, Channels: 2}
	if _, err := NewEngine(cfg, stereo, &fakeDevice{}, testLogger()); err == nil {
		t.Error("Expected error for device buffer not aligned to frame size")
	}
}

func TestStreamPlaysReceivedBytes(t *testing.T) {
	dev := &fakeDevice{}
	engine := newTestEngine(t, testClientConfig(), dev)

	clientConn, serverConn := net.Pipe()
	pcm := nonzeroPCM(3200)

	go func() {
		serverConn.Write(pcm)
		serverConn.Close()
	}()

	if err := engine.stream(context.Background(), clientConn); err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	stats := engine.Stats()
	if stats.BytesReceived != uint64(len(pcm)) {
		t.Errorf("Expected %d bytes received, got %d", len(pcm), stats.BytesReceived)
	}
	if stats.BytesPlayed != uint64(len(pcm)) {
		t.Errorf("Expected %d bytes played, got %d", len(pcm), stats.BytesPlayed)
	}

	got := stripSilence(dev.played())
	if len(got) != len(pcm) {
		t.Fatalf("Expected %d non-silence bytes played, got %d", len(pcm), len(got))
	}
	for i := range pcm {
		if got[i] != pcm[i] {
			t.Fatalf("Byte %d: expected 0x%02x, got 0x%02x", i, pcm[i], got[i])
		}
	}
}

func TestStreamPadsUnderrunsWithSilence(t *testing.T) {
	dev := &fakeDevice{}
	engine := newTestEngine(t, testClientConfig(), dev)

	clientConn, serverConn := net.Pipe()
	chunk := nonzeroPCM(320)

	go func() {
		serverConn.Write(chunk)
		// Stall for several ticks so the buffer runs dry mid-stream.
		time.Sleep(60 * time.Millisecond)
		serverConn.Write(chunk)
		serverConn.Close()
	}()

	if err := engine.stream(context.Background(), clientConn); err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	stats := engine.Stats()
	if stats.Underruns == 0 {
		t.Error("Expected at least one underrun during the stall")
	}

	// Every device write must be a full buffer regardless of underruns.
	dev.mu.Lock()
	defer dev.mu.Unlock()
	for i, w := range dev.writes {
		if len(w) != 320 {
			t.Errorf("Write %d: expected 320 bytes, got %d", i, len(w))
		}
	}
}

func TestStreamFlushesTailAfterEOF(t *testing.T) {
	dev := &fakeDevice{}
	engine := newTestEngine(t, testClientConfig(), dev)

	clientConn, serverConn := net.Pipe()
	pcm := nonzeroPCM(100) // less than one device buffer

	go func() {
		serverConn.Write(pcm)
		serverConn.Close()
	}()

	if err := engine.stream(context.Background(), clientConn); err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	stats := engine.Stats()
	if stats.BytesPlayed != uint64(len(pcm)) {
		t.Errorf("Expected %d bytes played, got %d", len(pcm), stats.BytesPlayed)
	}

	got := stripSilence(dev.played())
	if len(got) != len(pcm) {
		t.Fatalf("Expected tail of %d bytes to be flushed, got %d", len(pcm), len(got))
	}
}

func TestStreamSlowDeviceLosesNothing(t *testing.T) {
	cfg := testClientConfig()
	cfg.BufferMultiple = 2 // small buffer so backpressure engages

	dev := &fakeDevice{writeDelay: 15 * time.Millisecond}
	engine := newTestEngine(t, cfg, dev)

	clientConn, serverConn := net.Pipe()
	pcm := nonzeroPCM(3200)

	go func() {
		serverConn.Write(pcm)
		serverConn.Close()
	}()

	if err := engine.stream(context.Background(), clientConn); err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	got := stripSilence(dev.played())
	if len(got) != len(pcm) {
		t.Fatalf("Expected all %d bytes played despite slow device, got %d", len(pcm), len(got))
	}
	for i := range pcm {
		if got[i] != pcm[i] {
			t.Fatalf("Byte %d: expected 0x%02x, got 0x%02x", i, pcm[i], got[i])
		}
	}
}

func TestStreamCancelStopsPlayback(t *testing.T) {
	dev := &fakeDevice{}
	engine := newTestEngine(t, testClientConfig(), dev)

	clientConn, serverConn := net.Pipe()

	// Endless server that writes until its end of the pipe is closed.
	go func() {
		chunk := nonzeroPCM(320)
		for {
			if _, err := serverConn.Write(chunk); err != nil {
				return
			}
		}
	}()
	defer serverConn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() { done <- engine.stream(ctx, clientConn) }()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after cancellation")
	}
}
