package audio

import "fmt"

// Chunker slices a decoded PCM byte stream into fixed-length transmission
// chunks. Every chunk is exactly chunkLen bytes except possibly the final one,
// which carries the remainder trimmed to a whole number of frames. An empty
// source yields no chunks. Chunks alias the underlying data; callers must not
// retain them across writes that mutate the source.
type Chunker struct {
	data      []byte
	chunkLen  int
	frameSize int
	offset    int
}

// NewChunker creates a chunker over data. chunkLen must be a positive multiple
// of frameSize so that no chunk splits a sample frame.
func NewChunker(data []byte, chunkLen, frameSize int) (*Chunker, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %d", frameSize)
	}

	if chunkLen <= 0 || chunkLen%frameSize != 0 {
		return nil, fmt.Errorf("chunk length must be a positive multiple of frame size %d, got %d",
			frameSize, chunkLen)
	}

	return &Chunker{
		data:      data,
		chunkLen:  chunkLen,
		frameSize: frameSize,
	}, nil
}

// Next returns the next chunk and true, or nil and false when the source is
// exhausted. A trailing partial frame is trimmed from the final chunk and
// never emitted.
func (c *Chunker) Next() ([]byte, bool) {
	if c.offset >= len(c.data) {
		return nil, false
	}

	end := c.offset + c.chunkLen
	if end > len(c.data) {
		end = len(c.data)
		// Trim a trailing partial frame from the remainder.
		rem := (end - c.offset) % c.frameSize
		end -= rem
		if end <= c.offset {
			c.offset = len(c.data)
			return nil, false
		}
	}

	chunk := c.data[c.offset:end]
	c.offset = end
	return chunk, true
}

// Reset rewinds the chunker to the start of the source.
func (c *Chunker) Reset() {
	c.offset = 0
}

// Remaining returns the number of unread source bytes, including any trailing
// partial frame that will be trimmed rather than emitted.
func (c *Chunker) Remaining() int {
	return len(c.data) - c.offset
}
