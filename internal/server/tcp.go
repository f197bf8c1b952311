package server

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ls-1801/audio-server/internal/audio"
	"github.com/ls-1801/audio-server/internal/config"
	"github.com/ls-1801/audio-server/internal/metrics"
	"github.com/ls-1801/audio-server/internal/playlist"
)

// TCPServer accepts client connections and streams the WAV playlist to each
// one as raw PCM. Every connection gets its own session goroutine with an
// independent position in the playlist.
type TCPServer struct {
	listener net.Listener
	config   *config.Config
	format   audio.Format
	scanner  *playlist.Scanner
	logger   *slog.Logger
	metrics  *metrics.Metrics

	// Concurrency management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Session tracking
	sessions map[string]*Session
	mu       sync.RWMutex

	// Aggregate counters
	sessionsAccepted uint64
	bytesSent        uint64
	sourcesStreamed  uint64
	sourcesSkipped   uint64
}

// Session represents a single connected client being streamed to.
type Session struct {
	ID         string
	RemoteAddr string
	StartedAt  time.Time

	conn net.Conn

	mu            sync.RWMutex
	bytesSent     uint64
	sourcesPlayed uint64
	currentSource string
}

// SessionInfo is the JSON-serializable view of a session for the status API.
type SessionInfo struct {
	ID            string    `json:"id"`
	RemoteAddr    string    `json:"remote_addr"`
	ConnectedAt   time.Time `json:"connected_at"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	BytesSent     uint64    `json:"bytes_sent"`
	SourcesPlayed uint64    `json:"sources_played"`
	CurrentSource string    `json:"current_source"`
}

// Info returns a snapshot of the session state.
func (s *Session) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SessionInfo{
		ID:            s.ID,
		RemoteAddr:    s.RemoteAddr,
		ConnectedAt:   s.StartedAt,
		UptimeSeconds: time.Since(s.StartedAt).Seconds(),
		BytesSent:     s.bytesSent,
		SourcesPlayed: s.sourcesPlayed,
		CurrentSource: s.currentSource,
	}
}

func (s *Session) recordBytes(n int) {
	s.mu.Lock()
	s.bytesSent += uint64(n)
	s.mu.Unlock()
}

func (s *Session) setCurrentSource(name string) {
	s.mu.Lock()
	s.currentSource = name
	s.mu.Unlock()
}

func (s *Session) recordSourcePlayed() {
	s.mu.Lock()
	s.sourcesPlayed++
	s.mu.Unlock()
}

// NewTCPServer creates a new TCP streaming server instance
func NewTCPServer(cfg *config.Config, format audio.Format, scanner *playlist.Scanner, logger *slog.Logger, m *metrics.Metrics) *TCPServer {
	ctx, cancel := context.WithCancel(context.Background())

	return &TCPServer{
		config:   cfg,
		format:   format,
		scanner:  scanner,
		logger:   logger,
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Start begins listening for client connections
func (s *TCPServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.BindAddress, s.config.Server.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on TCP: %w", err)
	}

	s.listener = listener

	s.logger.Info("TCP server started",
		slog.String("address", listener.Addr().String()),
		slog.String("format", s.format.String()),
		slog.String("audio_dir", s.scanner.Dir()),
		slog.Duration("chunk_duration", s.config.Stream.GetChunkDuration()),
		slog.Duration("silence_duration", s.config.Stream.GetSilenceDuration()),
		slog.Bool("loop", s.config.Stream.Loop),
		slog.Bool("shuffle", s.config.Stream.Shuffle),
	)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop gracefully stops the server and disconnects all sessions
func (s *TCPServer) Stop() error {
	s.logger.Info("Stopping TCP server...")

	// Cancel context to signal shutdown
	s.cancel()

	// Close the listener to unblock the accept loop
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.logger.Warn("Error closing listener", slog.String("error", err.Error()))
		}
	}

	// Close session connections to unblock any in-flight writes
	s.mu.RLock()
	for _, session := range s.sessions {
		session.conn.Close()
	}
	s.mu.RUnlock()

	// Wait for all session goroutines to finish
	s.wg.Wait()

	stats := s.GetStatistics()
	s.logger.Info("TCP server stopped",
		slog.Uint64("sessions_accepted", stats.SessionsAccepted),
		slog.Uint64("bytes_sent", stats.BytesSent),
		slog.Uint64("sources_streamed", stats.SourcesStreamed),
		slog.Uint64("sources_skipped", stats.SourcesSkipped),
	)

	return nil
}

// Addr returns the address the server is listening on, or nil before Start.
func (s *TCPServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// acceptLoop accepts client connections until the listener is closed
func (s *TCPServer) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				s.logger.Error("Failed to accept connection", slog.String("error", err.Error()))
				continue
			}
		}

		s.mu.Lock()
		s.sessionsAccepted++
		s.mu.Unlock()
		s.metrics.RecordSessionAccepted()

		s.wg.Add(1)
		go s.handleSession(conn)
	}
}

// handleSession streams the playlist to a single client connection. The
// playlist is rescanned at the start of every cycle, so files added to the
// audio directory are picked up without a restart.
func (s *TCPServer) handleSession(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	session := &Session{
		ID:         uuid.New().String(),
		RemoteAddr: conn.RemoteAddr().String(),
		StartedAt:  time.Now(),
		conn:       conn,
	}

	s.registerSession(session)
	defer s.unregisterSession(session)

	s.logger.Info("Client connected",
		slog.String("session_id", session.ID),
		slog.String("remote_addr", session.RemoteAddr),
	)

	for {
		files, err := s.scanner.ListFiles()
		if err != nil {
			s.logger.Error("Failed to scan audio directory",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
			return
		}

		if len(files) == 0 {
			s.logger.Warn("No WAV files in audio directory, closing session",
				slog.String("session_id", session.ID),
				slog.String("audio_dir", s.scanner.Dir()),
			)
			return
		}

		if s.config.Stream.Shuffle {
			rand.Shuffle(len(files), func(i, j int) {
				files[i], files[j] = files[j], files[i]
			})
		}

		for _, path := range files {
			src, err := s.scanner.Load(path)
			if err != nil {
				s.mu.Lock()
				s.sourcesSkipped++
				s.mu.Unlock()
				s.metrics.RecordSourceSkipped()

				s.logger.Warn("Skipping source",
					slog.String("session_id", session.ID),
					slog.String("path", path),
					slog.String("error", err.Error()),
				)
				continue
			}

			if err := s.streamSource(session, src); err != nil {
				s.logger.Info("Session ended",
					slog.String("session_id", session.ID),
					slog.String("source", src.Name),
					slog.String("reason", err.Error()),
				)
				return
			}

			if err := s.sendSilence(session); err != nil {
				return
			}
		}

		if !s.config.Stream.Loop {
			s.logger.Info("Playlist complete, closing session",
				slog.String("session_id", session.ID),
			)
			return
		}
	}
}

// streamSource writes one source to the client in fixed-duration chunks,
// pacing each write against the wall clock so the stream advances at
// real-time playback speed without accumulating drift.
func (s *TCPServer) streamSource(session *Session, src *playlist.Source) error {
	chunkLen := s.format.ChunkLength(s.config.Stream.GetChunkDuration())
	if chunkLen == 0 {
		return fmt.Errorf("chunk duration %v too short for format %s", s.config.Stream.GetChunkDuration(), s.format)
	}

	chunker, err := audio.NewChunker(src.PCM, chunkLen, s.format.FrameSize())
	if err != nil {
		return fmt.Errorf("failed to create chunker: %w", err)
	}

	session.setCurrentSource(src.Name)
	defer session.setCurrentSource("")

	s.logger.Info("Streaming source",
		slog.String("session_id", session.ID),
		slog.String("source", src.Name),
		slog.Int("pcm_bytes", len(src.PCM)),
		slog.Float64("duration_seconds", src.Duration()),
	)

	bytesPerSecond := s.format.BytesPerSecond()
	start := time.Now()
	sent := 0

	for {
		chunk, ok := chunker.Next()
		if !ok {
			break
		}

		if _, err := session.conn.Write(chunk); err != nil {
			return fmt.Errorf("write failed: %w", err)
		}

		sent += len(chunk)
		session.recordBytes(len(chunk))
		s.addBytesSent(len(chunk))
		s.metrics.RecordChunkSent(len(chunk))

		// Sleep until the wall clock catches up with the bytes sent so
		// far. Computing against the stream start instead of a fixed
		// per-chunk interval absorbs scheduling jitter.
		expected := time.Duration(sent) * time.Second / time.Duration(bytesPerSecond)
		if err := s.pace(expected - time.Since(start)); err != nil {
			return err
		}
	}

	session.recordSourcePlayed()
	s.mu.Lock()
	s.sourcesStreamed++
	s.mu.Unlock()
	s.metrics.RecordSourceStreamed()

	return nil
}

// sendSilence writes the inter-source silence buffer and holds for its
// duration so sources stay separated in time on the client side.
func (s *TCPServer) sendSilence(session *Session) error {
	d := s.config.Stream.GetSilenceDuration()
	buf := audio.Silence(s.format, d)
	if len(buf) == 0 {
		return nil
	}

	if _, err := session.conn.Write(buf); err != nil {
		return fmt.Errorf("silence write failed: %w", err)
	}

	session.recordBytes(len(buf))
	s.addBytesSent(len(buf))
	s.metrics.RecordSilenceSent(len(buf))

	return s.pace(d)
}

// pace sleeps for d, returning early with an error if the server is
// shutting down. Non-positive durations return immediately.
func (s *TCPServer) pace(d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *TCPServer) registerSession(session *Session) {
	s.mu.Lock()
	s.sessions[session.ID] = session
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetSessionsActive(count)
}

func (s *TCPServer) unregisterSession(session *Session) {
	s.mu.Lock()
	delete(s.sessions, session.ID)
	count := len(s.sessions)
	s.mu.Unlock()

	duration := time.Since(session.StartedAt)
	s.metrics.SetSessionsActive(count)
	s.metrics.RecordSessionClosed(duration.Seconds())

	info := session.Info()
	s.logger.Info("Client disconnected",
		slog.String("session_id", session.ID),
		slog.String("remote_addr", session.RemoteAddr),
		slog.Duration("duration", duration),
		slog.Uint64("bytes_sent", info.BytesSent),
		slog.Uint64("sources_played", info.SourcesPlayed),
	)
}

func (s *TCPServer) addBytesSent(n int) {
	s.mu.Lock()
	s.bytesSent += uint64(n)
	s.mu.Unlock()
}

// GetSessions returns a snapshot of all active sessions
func (s *TCPServer) GetSessions() []SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(s.sessions))
	for _, session := range s.sessions {
		infos = append(infos, session.Info())
	}
	return infos
}

// GetSession returns a single session by ID
func (s *TCPServer) GetSession(id string) (SessionInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return SessionInfo{}, false
	}
	return session.Info(), true
}

// GetStatistics returns current server statistics
func (s *TCPServer) GetStatistics() ServerStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ServerStatistics{
		ActiveSessions:   uint64(len(s.sessions)),
		SessionsAccepted: s.sessionsAccepted,
		BytesSent:        s.bytesSent,
		SourcesStreamed:  s.sourcesStreamed,
		SourcesSkipped:   s.sourcesSkipped,
	}
}

// ServerStatistics represents aggregate server counters
type ServerStatistics struct {
	ActiveSessions   uint64 `json:"active_sessions"`
	SessionsAccepted uint64 `json:"sessions_accepted"`
	BytesSent        uint64 `json:"bytes_sent"`
	SourcesStreamed  uint64 `json:"sources_streamed"`
	SourcesSkipped   uint64 `json:"sources_skipped"`
}
