package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ls-1801/audio-server/internal/client"
	"github.com/ls-1801/audio-server/internal/config"
	"github.com/ls-1801/audio-server/internal/device"
	"github.com/ls-1801/audio-server/internal/logging"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "audio-client"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := logging.NewLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	format, err := cfg.Audio.Format()
	if err != nil {
		logger.Error("Invalid audio format", slog.String("error", err.Error()))
		os.Exit(1)
	}

	engine, err := client.NewEngine(&cfg.Client, format, device.NewOto(), logger)
	if err != nil {
		logger.Error("Failed to create playback engine", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Cancel the context on SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Playback failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Service stopped")
}
