// Package playlist discovers WAV audio sources from a directory and decodes
// them into validated PCM byte streams. Sources whose declared format
// disagrees with the configured descriptor are rejected so they never reach
// the streaming pipeline.
package playlist
