// Package client implements the playback side of the stream: it connects to
// the server, buffers incoming raw PCM and feeds an audio device at a fixed
// cadence, padding with silence when the network falls behind.
package client
