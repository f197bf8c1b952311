// Package audio implements the PCM primitives shared by the streaming server
// and the playback client: the format descriptor with its chunk-size math,
// fixed-duration chunking, silence generation, WAV encoding/decoding, and the
// bounded playback buffer that bridges network receipt and device consumption.
package audio
