package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ls-1801/audio-server/internal/audio"
)

// Config represents the complete service configuration, shared by the
// streaming server and the playback client binaries.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	HTTP    HTTPConfig    `yaml:"http"`
	Audio   AudioConfig   `yaml:"audio"`
	Stream  StreamConfig  `yaml:"stream"`
	Client  ClientConfig  `yaml:"client"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains TCP streaming server configuration.
type ServerConfig struct {
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
}

// HTTPConfig contains the optional HTTP status API configuration.
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// AudioConfig contains the PCM format descriptor fields. Server and client
// must be launched with identical values; there is no in-band negotiation.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	BitDepth   int `yaml:"bit_depth"`
	Channels   int `yaml:"channels"`
}

// StreamConfig contains server-side streaming parameters.
type StreamConfig struct {
	AudioDir  string `yaml:"audio_dir"`
	ChunkMs   int    `yaml:"chunk_ms"`
	SilenceMs int    `yaml:"silence_ms"`
	Loop      bool   `yaml:"loop"`
	Shuffle   bool   `yaml:"shuffle"`
}

// ClientConfig contains playback client configuration.
type ClientConfig struct {
	ServerHost        string `yaml:"server_host"`
	ServerPort        int    `yaml:"server_port"`
	ConnectTimeout    int    `yaml:"connect_timeout"` // seconds
	DeviceBufferBytes int    `yaml:"device_buffer_bytes"`
	BufferMultiple    int    `yaml:"buffer_multiple"` // playback buffer capacity as a multiple of the device buffer
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Stream.Validate(); err != nil {
		return fmt.Errorf("stream config: %w", err)
	}

	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration.
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	return nil
}

// Validate validates HTTP configuration.
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates audio format configuration.
func (a *AudioConfig) Validate() error {
	_, err := audio.NewFormat(a.SampleRate, a.BitDepth, a.Channels)
	return err
}

// Format returns the validated format descriptor for these settings.
func (a *AudioConfig) Format() (audio.Format, error) {
	return audio.NewFormat(a.SampleRate, a.BitDepth, a.Channels)
}

// Validate validates streaming configuration.
func (s *StreamConfig) Validate() error {
	if s.AudioDir == "" {
		return fmt.Errorf("audio_dir cannot be empty")
	}

	if s.ChunkMs < 1 {
		return fmt.Errorf("chunk_ms must be at least 1, got %d", s.ChunkMs)
	}

	if s.SilenceMs < 0 {
		return fmt.Errorf("silence_ms cannot be negative, got %d", s.SilenceMs)
	}

	return nil
}

// Validate validates client configuration.
func (c *ClientConfig) Validate() error {
	if c.ServerHost == "" {
		return fmt.Errorf("server_host cannot be empty")
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("server_port must be between 1 and 65535, got %d", c.ServerPort)
	}

	if c.ConnectTimeout < 1 {
		return fmt.Errorf("connect_timeout must be at least 1 second, got %d", c.ConnectTimeout)
	}

	if c.DeviceBufferBytes < 1 {
		return fmt.Errorf("device_buffer_bytes must be positive, got %d", c.DeviceBufferBytes)
	}

	// The playback buffer must absorb jitter without adding large latency;
	// anything below twice the device buffer cannot cover a single late read.
	if c.BufferMultiple < 2 {
		return fmt.Errorf("buffer_multiple must be at least 2, got %d", c.BufferMultiple)
	}

	return nil
}

// Validate validates logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetChunkDuration returns the chunk duration as a time.Duration.
func (s *StreamConfig) GetChunkDuration() time.Duration {
	return time.Duration(s.ChunkMs) * time.Millisecond
}

// GetSilenceDuration returns the inter-source silence duration as a time.Duration.
func (s *StreamConfig) GetSilenceDuration() time.Duration {
	return time.Duration(s.SilenceMs) * time.Millisecond
}

// GetConnectTimeout returns the client connect timeout as a time.Duration.
func (c *ClientConfig) GetConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}

// ServerAddr returns the host:port string the client dials.
func (c *ClientConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
