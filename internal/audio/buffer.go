package audio

import (
	"errors"
	"fmt"
	"sync"
)

// ErrBufferClosed is returned by Write after the buffer has been closed.
var ErrBufferClosed = errors.New("playback buffer closed")

// PlaybackBuffer is a bounded FIFO of PCM bytes bridging bursty network
// receipt and steady device consumption. It is safe for one concurrent writer
// (the receiver) and one concurrent reader (the player).
//
// Write blocks while the buffer is full, pushing backpressure into the OS
// socket receive buffer and, through TCP flow control, back to the server.
// Read never blocks: it returns whatever is available and the player degrades
// to silence padding on its own, so playback cadence is preserved over
// completeness.
type PlaybackBuffer struct {
	mu      sync.Mutex
	notFull *sync.Cond

	buf    []byte // fixed-capacity ring
	head   int    // read position
	size   int    // bytes currently buffered
	closed bool

	// Statistics
	totalWritten uint64
	totalRead    uint64
	maxFill      int
}

// PlaybackBufferStats is a snapshot of buffer activity for monitoring.
type PlaybackBufferStats struct {
	Capacity     int    `json:"capacity_bytes"`
	Buffered     int    `json:"buffered_bytes"`
	TotalWritten uint64 `json:"total_written_bytes"`
	TotalRead    uint64 `json:"total_read_bytes"`
	MaxFill      int    `json:"max_fill_bytes"`
}

// NewPlaybackBuffer creates a playback buffer with the given fixed capacity.
func NewPlaybackBuffer(capacity int) (*PlaybackBuffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("playback buffer capacity must be positive, got %d", capacity)
	}

	b := &PlaybackBuffer{
		buf: make([]byte, capacity),
	}
	b.notFull = sync.NewCond(&b.mu)
	return b, nil
}

// Write appends p to the buffer, blocking while it is full. It returns the
// number of bytes written and ErrBufferClosed if the buffer was closed before
// all of p was accepted. The write position never overtakes the read position
// by more than the capacity; bytes are never dropped.
func (b *PlaybackBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	written := 0
	for written < len(p) {
		for b.size == len(b.buf) && !b.closed {
			b.notFull.Wait()
		}

		if b.closed {
			return written, ErrBufferClosed
		}

		written += b.append(p[written:])
	}

	return written, nil
}

// append copies as much of p as currently fits into the ring.
// Caller must hold b.mu.
func (b *PlaybackBuffer) append(p []byte) int {
	free := len(b.buf) - b.size
	n := len(p)
	if n > free {
		n = free
	}

	tail := (b.head + b.size) % len(b.buf)
	first := copy(b.buf[tail:], p[:n])
	copy(b.buf, p[first:n])

	b.size += n
	b.totalWritten += uint64(n)
	if b.size > b.maxFill {
		b.maxFill = b.size
	}
	return n
}

// Read copies up to len(p) buffered bytes into p and returns the count. It
// never blocks; an empty buffer yields 0. Buffered bytes remain readable
// after Close so the player can flush the tail of the stream.
func (b *PlaybackBuffer) Read(p []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	if n > b.size {
		n = b.size
	}

	end := b.head + n
	if end > len(b.buf) {
		end = len(b.buf)
	}
	first := copy(p[:n], b.buf[b.head:end])
	copy(p[first:n], b.buf[:n-first])

	b.head = (b.head + n) % len(b.buf)
	b.size -= n
	b.totalRead += uint64(n)

	if n > 0 {
		b.notFull.Signal()
	}
	return n
}

// Close marks the buffer closed and wakes any blocked writer. It is safe to
// call more than once. Remaining bytes stay readable.
func (b *PlaybackBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		b.notFull.Broadcast()
	}
}

// Closed reports whether the buffer has been closed.
func (b *PlaybackBuffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Len returns the number of buffered bytes.
func (b *PlaybackBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Cap returns the fixed capacity in bytes.
func (b *PlaybackBuffer) Cap() int {
	return len(b.buf)
}

// Stats returns a snapshot of buffer statistics.
func (b *PlaybackBuffer) Stats() PlaybackBufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return PlaybackBufferStats{
		Capacity:     len(b.buf),
		Buffered:     b.size,
		TotalWritten: b.totalWritten,
		TotalRead:    b.totalRead,
		MaxFill:      b.maxFill,
	}
}
