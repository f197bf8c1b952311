// Package config provides configuration loading and validation for the audio
// streaming server and playback client. It handles YAML-based configuration
// with struct validation; invalid values are fatal at startup, before any
// connection is accepted or attempted.
package config
