// Package device abstracts the audio playback device behind a small Output
// interface, with an oto-based implementation for real hardware.
package device
