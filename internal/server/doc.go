// Package server implements the TCP streaming server and the HTTP
// monitoring API.
//
// The TCP server streams a directory of WAV files to every connected client
// as raw PCM with no framing. Chunks are written at real-time playback speed,
// with a short silence buffer between files. Each connection is an
// independent session with its own playlist position.
package server
