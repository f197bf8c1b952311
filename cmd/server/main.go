package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ls-1801/audio-server/internal/config"
	"github.com/ls-1801/audio-server/internal/logging"
	"github.com/ls-1801/audio-server/internal/metrics"
	"github.com/ls-1801/audio-server/internal/playlist"
	"github.com/ls-1801/audio-server/internal/server"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "audio-server"
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

	logger.Info("Configuration loaded",
		slog.String("bind_address", cfg.Server.BindAddress),
		slog.Int("port", cfg.Server.Port),
		slog.String("format", format.String()),
		slog.String("audio_dir", cfg.Stream.AudioDir),
		slog.Int("chunk_ms", cfg.Stream.ChunkMs),
		slog.Int("silence_ms", cfg.Stream.SilenceMs),
		slog.Bool("loop", cfg.Stream.Loop),
		slog.Bool("shuffle", cfg.Stream.Shuffle),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Prepare the audio directory and playlist scanner
	scanner := playlist.NewScanner(cfg.Stream.AudioDir, format)
	if err := scanner.EnsureDir(); err != nil {
		logger.Error("Failed to prepare audio directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize TCP streaming server
	tcpServer := server.NewTCPServer(cfg, format, scanner, logger, appMetrics)

	// Initialize HTTP API server (if enabled)
	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg.HTTP, logger, cfg, tcpServer, appMetrics)
		logger.Info("HTTP API server initialized",
			slog.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		)
	}

	// Start TCP server
	if err := tcpServer.Start(); err != nil {
		logger.Error("Failed to start TCP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start HTTP server (if enabled)
	if httpServer != nil {
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("tcp_address", tcpServer.Addr().String()),
	)

	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	// Stop TCP server (disconnects all sessions)
	if err := tcpServer.Stop(); err != nil {
		logger.Error("Error stopping TCP server", slog.String("error", err.Error()))
	}

	stats := tcpServer.GetStatistics()
	logger.Info("Final server statistics",
		slog.Uint64("sessions_accepted", stats.SessionsAccepted),
		slog.Uint64("bytes_sent", stats.BytesSent),
		slog.Uint64("sources_streamed", stats.SourcesStreamed),
		slog.Uint64("sources_skipped", stats.SourcesSkipped),
	)

	logger.Info("Service stopped")
}
