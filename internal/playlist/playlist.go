package playlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ls-1801/audio-server/internal/audio"
)

// ErrFormatMismatch marks a source whose declared format disagrees with the
// configured one. Such sources are skipped, never streamed.
var ErrFormatMismatch = errors.New("source format mismatch")

// Source is a named, decoded PCM byte stream discovered from the audio
// directory. PCM is trimmed to a whole number of frames.
type Source struct {
	Name   string
	Path   string
	Format audio.Format
	PCM    []byte
}

// Duration returns the playback duration of the source in seconds.
func (s *Source) Duration() float64 {
	return float64(len(s.PCM)/s.Format.FrameSize()) / float64(s.Format.SampleRate)
}

// Scanner enumerates WAV sources from a directory and validates each against
// the configured format descriptor.
type Scanner struct {
	dir    string
	format audio.Format
}

// NewScanner creates a scanner over dir for the given format.
func NewScanner(dir string, format audio.Format) *Scanner {
	return &Scanner{dir: dir, format: format}
}

// Dir returns the scanned directory path.
func (s *Scanner) Dir() string {
	return s.dir
}

// EnsureDir creates the audio directory if it does not exist and verifies the
// path is a directory.
func (s *Scanner) EnsureDir() error {
	info, err := os.Stat(s.dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return fmt.Errorf("failed to create audio directory %s: %w", s.dir, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat audio directory %s: %w", s.dir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", s.dir)
	}

	return nil
}

// ListFiles returns the paths of all .wav files in the directory, sorted by
// name for deterministic playlist order. The extension match is
// case-insensitive.
func (s *Scanner) ListFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio directory %s: %w", s.dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			files = append(files, filepath.Join(s.dir, entry.Name()))
		}
	}

	sort.Strings(files)
	return files, nil
}

// Load reads and decodes a single WAV file, validating its declared format
// against the configured one. A mismatch returns an error wrapping
// ErrFormatMismatch; the source must then be skipped, not coerced.
func (s *Scanner) Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	declared, pcm, err := audio.DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if !declared.Equal(s.format) {
		return nil, fmt.Errorf("%w: %s has %s, expected %s",
			ErrFormatMismatch, path, declared, s.format)
	}

	return &Source{
		Name:   filepath.Base(path),
		Path:   path,
		Format: declared,
		PCM:    pcm[:s.format.TrimToFrames(len(pcm))],
	}, nil
}
