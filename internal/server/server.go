// Package server exposes scan sessions over WebSocket. Each connection on
// /scan owns one pipeline.Scanner fed by the frames the client sends.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	newScanner  ScannerFactory
	corsOrigin  string
	maxFrameMB  int64
	logger      *slog.Logger
	upgrader    websocket.Upgrader
	sessions    sync.WaitGroup
	active      atomic.Int64
	mu          sync.Mutex
	closed      bool
	liveCancels map[string]func()
}

// NewServer creates a scan server. newScanner is called once per
// connection.
func NewServer(cfg Config, newScanner ScannerFactory) (*Server, error) {
	if newScanner == nil {
		return nil, errors.New("server: scanner factory is required")
	}
	maxFrameMB := cfg.MaxFrameMB
	if maxFrameMB <= 0 {
		maxFrameMB = 16
	}
	origin := cfg.CORSOrigin
	return &Server{
		newScanner: newScanner,
		corsOrigin: origin,
		maxFrameMB: maxFrameMB,
		logger:     slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				return origin == "" || origin == "*" || r.Header.Get("Origin") == "" || r.Header.Get("Origin") == origin
			},
		},
		liveCancels: make(map[string]func()),
	}, nil
}

// SetLogger replaces the logger used by the server and its sessions.
func (s *Server) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/scan", s.corsMiddleware(s.scanWebSocketHandler))
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns a mux with all routes installed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}

// ActiveSessions returns the number of open scan sessions.
func (s *Server) ActiveSessions() int64 { return s.active.Load() }

// track registers a session's cancel func. It returns false once the server
// is closing.
func (s *Server) track(id string, cancel func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.liveCancels[id] = cancel
	s.sessions.Add(1)
	s.active.Add(1)
	websocketSessions.Inc()
	return true
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	delete(s.liveCancels, id)
	s.mu.Unlock()
	s.active.Add(-1)
	websocketSessions.Dec()
	s.sessions.Done()
}

// Close ends all open sessions and waits until their scanners are closed.
// http.Server.Shutdown does not track hijacked connections, so callers
// shut down the HTTP server first and then call Close.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	for _, cancel := range s.liveCancels {
		cancel()
	}
	s.mu.Unlock()
	s.sessions.Wait()
	return nil
}
