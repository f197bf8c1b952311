package audio

import "time"

// Silence sample conventions: 16-bit PCM is signed, so silence is the all-zero
// sample 0x0000. 8-bit PCM follows the WAV convention of unsigned samples, so
// silence is the mid-scale value 128 (0x80). Both patterns repeat per byte,
// which lets silence be written at any byte offset without frame alignment.

const u8SilenceByte = 0x80

// SilenceByte returns the byte value that fills a silent buffer for the format.
func SilenceByte(f Format) byte {
	if f.BitsPerSample == 8 {
		return u8SilenceByte
	}
	return 0x00
}

// FillSilence overwrites b with the zero-amplitude sample pattern for the format.
func FillSilence(f Format, b []byte) {
	v := SilenceByte(f)
	for i := range b {
		b[i] = v
	}
}

// Silence returns a buffer of zero-amplitude samples covering the given
// duration, sized to ChunkLength. A zero duration yields an empty buffer.
func Silence(f Format, d time.Duration) []byte {
	b := make([]byte, f.ChunkLength(d))
	FillSilence(f, b)
	return b
}
