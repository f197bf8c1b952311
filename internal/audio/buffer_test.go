package audio

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewPlaybackBuffer(t *testing.T) {
	buf, err := NewPlaybackBuffer(1024)
	if err != nil {
		t.Fatalf("NewPlaybackBuffer failed: %v", err)
	}

	if buf.Cap() != 1024 {
		t.Errorf("Expected capacity 1024, got %d", buf.Cap())
	}

	if buf.Len() != 0 {
		t.Errorf("Expected empty buffer, got %d bytes", buf.Len())
	}

	if _, err := NewPlaybackBuffer(0); err == nil {
		t.Error("Expected error for zero capacity")
	}
}

func TestPlaybackBufferWriteRead(t *testing.T) {
	buf, _ := NewPlaybackBuffer(64)

	data := []byte("some pcm bytes")
	n, err := buf.Write(data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(data) {
		t.Errorf("Expected %d bytes written, got %d", len(data), n)
	}

	out := make([]byte, 64)
	got := buf.Read(out)
	if got != len(data) {
		t.Errorf("Expected %d bytes read, got %d", len(data), got)
	}
	if !bytes.Equal(out[:got], data) {
		t.Errorf("Read bytes differ from written: %q vs %q", out[:got], data)
	}
}

func TestPlaybackBufferReadNeverBlocks(t *testing.T) {
	buf, _ := NewPlaybackBuffer(16)

	out := make([]byte, 8)
	if n := buf.Read(out); n != 0 {
		t.Errorf("Expected 0 bytes from empty buffer, got %d", n)
	}

	buf.Write([]byte{1, 2, 3})
	if n := buf.Read(out); n != 3 {
		t.Errorf("Expected 3 bytes, got %d", n)
	}
}

func TestPlaybackBufferWrapAround(t *testing.T) {
	buf, _ := NewPlaybackBuffer(8)

	buf.Write([]byte{1, 2, 3, 4, 5, 6})
	out := make([]byte, 4)
	buf.Read(out) // head advances to 4

	// This write wraps past the end of the ring.
	if _, err := buf.Write([]byte{7, 8, 9, 10}); err != nil {
		t.Fatalf("Wrapping write failed: %v", err)
	}

	got := make([]byte, 8)
	n := buf.Read(got)
	want := []byte{5, 6, 7, 8, 9, 10}
	if !bytes.Equal(got[:n], want) {
		t.Errorf("Expected %v after wrap, got %v", want, got[:n])
	}
}

func TestPlaybackBufferBackpressure(t *testing.T) {
	buf, _ := NewPlaybackBuffer(8)

	if _, err := buf.Write(make([]byte, 8)); err != nil {
		t.Fatalf("Initial fill failed: %v", err)
	}

	wrote := make(chan struct{})
	go func() {
		buf.Write([]byte{1, 2, 3, 4}) // must block until the reader frees space
		close(wrote)
	}()

	select {
	case <-wrote:
		t.Fatal("Write completed while buffer was full")
	case <-time.After(50 * time.Millisecond):
		// Still blocked, as expected.
	}

	out := make([]byte, 4)
	buf.Read(out)

	select {
	case <-wrote:
		// Unblocked once space freed.
	case <-time.After(time.Second):
		t.Fatal("Write did not resume after space freed")
	}

	if buf.Len() != 8 {
		t.Errorf("Expected buffer full again (8 bytes), got %d", buf.Len())
	}
}

func TestPlaybackBufferNeverExceedsCapacity(t *testing.T) {
	buf, _ := NewPlaybackBuffer(32)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			buf.Write(make([]byte, 10))
		}
	}()

	out := make([]byte, 16)
	read := 0
	for read < 1000 {
		if n := buf.Read(out); n > 0 {
			read += n
		} else {
			time.Sleep(time.Millisecond)
		}
		if l := buf.Len(); l > buf.Cap() {
			t.Fatalf("Buffer length %d exceeds capacity %d", l, buf.Cap())
		}
	}
	<-done

	stats := buf.Stats()
	if stats.TotalWritten != 1000 || stats.TotalRead != 1000 {
		t.Errorf("Expected 1000 bytes written and read, got %d/%d",
			stats.TotalWritten, stats.TotalRead)
	}
	if stats.MaxFill > buf.Cap() {
		t.Errorf("Max fill %d exceeds capacity %d", stats.MaxFill, buf.Cap())
	}
}

func TestPlaybackBufferCloseUnblocksWriter(t *testing.T) {
	buf, _ := NewPlaybackBuffer(4)
	buf.Write(make([]byte, 4))

	errCh := make(chan error, 1)
	go func() {
		_, err := buf.Write([]byte{1, 2})
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	buf.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrBufferClosed) {
			t.Errorf("Expected ErrBufferClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock the blocked writer")
	}
}

func TestPlaybackBufferWriteAfterClose(t *testing.T) {
	buf, _ := NewPlaybackBuffer(16)
	buf.Close()

	n, err := buf.Write([]byte{1, 2, 3})
	if !errors.Is(err, ErrBufferClosed) {
		t.Errorf("Expected ErrBufferClosed, got %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 bytes written after close, got %d", n)
	}
}

func TestPlaybackBufferDrainAfterClose(t *testing.T) {
	buf, _ := NewPlaybackBuffer(16)
	buf.Write([]byte{1, 2, 3, 4, 5})
	buf.Close()

	if !buf.Closed() {
		t.Error("Expected buffer to report closed")
	}

	out := make([]byte, 16)
	if n := buf.Read(out); n != 5 {
		t.Errorf("Expected to drain 5 bytes after close, got %d", n)
	}
}

func TestPlaybackBufferConcurrentProducerConsumer(t *testing.T) {
	buf, _ := NewPlaybackBuffer(256)

	const total = 64 * 1024
	src := make([]byte, total)
	for i := range src {
		src[i] = byte(i % 251)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for off := 0; off < total; {
			end := off + 100
			if end > total {
				end = total
			}
			buf.Write(src[off:end])
			off = end
		}
		buf.Close()
	}()

	received := make([]byte, 0, total)
	out := make([]byte, 64)
	for {
		n := buf.Read(out)
		received = append(received, out[:n]...)
		if n == 0 {
			if buf.Closed() && buf.Len() == 0 {
				break
			}
			time.Sleep(time.Millisecond)
		}
	}
	wg.Wait()

	if !bytes.Equal(received, src) {
		t.Errorf("Received stream differs from source (%d vs %d bytes, in-order delivery violated)",
			len(received), len(src))
	}
}
