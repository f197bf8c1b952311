package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const wavHeaderSize = 44

// WAVHeader represents the canonical 44-byte header of a PCM WAV file.
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16  // Number of channels
	SampleRate    uint32  // Sample rate
	ByteRate      uint32  // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16  // NumChannels * BitsPerSample / 8
	BitsPerSample uint16  // Bits per sample
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // Number of bytes in the data
}

// EncodeWAV encodes raw PCM bytes into WAV format for the given descriptor.
func EncodeWAV(pcm []byte, f Format) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	if len(pcm)%f.FrameSize() != 0 {
		return nil, fmt.Errorf("PCM data length %d is not a whole number of %d-byte frames",
			len(pcm), f.FrameSize())
	}

	dataSize := uint32(len(pcm))
	header := WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   uint16(f.Channels),
		SampleRate:    uint32(f.SampleRate),
		ByteRate:      uint32(f.BytesPerSecond()),
		BlockAlign:    uint16(f.FrameSize()),
		BitsPerSample: uint16(f.BitsPerSample),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// DecodeWAV decodes a WAV file into its format descriptor and raw PCM bytes.
// Only uncompressed PCM with a supported bit depth and channel count is
// accepted. Files with extra chunks between "fmt " and "data" (LIST metadata
// and the like) are handled by scanning forward to the data chunk.
func DecodeWAV(data []byte) (Format, []byte, error) {
	if len(data) < wavHeaderSize {
		return Format{}, nil, fmt.Errorf("WAV data too short: need at least %d bytes, got %d",
			wavHeaderSize, len(data))
	}

	if string(data[0:4]) != "RIFF" {
		return Format{}, nil, fmt.Errorf("invalid WAV file: missing RIFF header")
	}

	if string(data[8:12]) != "WAVE" {
		return Format{}, nil, fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	if string(data[12:16]) != "fmt " {
		return Format{}, nil, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}

	fmtSize := binary.LittleEndian.Uint32(data[16:20])
	if fmtSize < 16 || 20+int(fmtSize) > len(data) {
		return Format{}, nil, fmt.Errorf("invalid WAV file: bad fmt chunk size %d", fmtSize)
	}

	audioFormat := binary.LittleEndian.Uint16(data[20:22])
	if audioFormat != 1 {
		return Format{}, nil, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", audioFormat)
	}

	f := Format{
		Channels:      int(binary.LittleEndian.Uint16(data[22:24])),
		SampleRate:    int(binary.LittleEndian.Uint32(data[24:28])),
		BitsPerSample: int(binary.LittleEndian.Uint16(data[34:36])),
	}
	if err := f.Validate(); err != nil {
		return Format{}, nil, fmt.Errorf("unsupported WAV format: %w", err)
	}

	// Walk the remaining chunks to find "data".
	offset := 20 + int(fmtSize)
	for {
		if offset+8 > len(data) {
			return Format{}, nil, fmt.Errorf("invalid WAV file: missing data chunk")
		}

		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8

		if chunkID == "data" {
			if chunkSize < 0 || offset+chunkSize > len(data) {
				return Format{}, nil, fmt.Errorf("invalid WAV file: data chunk size %d exceeds file", chunkSize)
			}
			return f, data[offset : offset+chunkSize], nil
		}

		// Chunks are word-aligned.
		offset += chunkSize + chunkSize%2
	}
}

// WAVInfo summarizes a WAV file without retaining its audio data.
type WAVInfo struct {
	Format    Format  `json:"format"`
	DataSize  int     `json:"data_size_bytes"`
	NumFrames int     `json:"num_frames"`
	Duration  float64 `json:"duration_seconds"`
}

// GetWAVInfo extracts metadata from a WAV file.
func GetWAVInfo(data []byte) (*WAVInfo, error) {
	f, pcm, err := DecodeWAV(data)
	if err != nil {
		return nil, err
	}

	frames := len(pcm) / f.FrameSize()
	return &WAVInfo{
		Format:    f,
		DataSize:  len(pcm),
		NumFrames: frames,
		Duration:  float64(frames) / float64(f.SampleRate),
	}, nil
}
