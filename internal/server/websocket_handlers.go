package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/frame"
	"github.com/MeKo-Tech/cardscan/internal/geometry"
	"github.com/MeKo-Tech/cardscan/internal/pipeline"
	"github.com/MeKo-Tech/cardscan/internal/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// scanWebSocketHandler upgrades the connection and runs one scan session
// until the client disconnects or the server closes.
func (s *Server) scanWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := newSession(conn, s.logger)
	if !s.track(sess.id, func() { cancel(); _ = conn.Close() }) {
		sess.sendError("unavailable", "server is shutting down")
		return
	}
	defer s.untrack(sess.id)

	scanner, err := s.newScanner(sess)
	if err != nil {
		s.logger.Error("Failed to create scan session", "session_id", sess.id, "error", err)
		sess.sendError("session_error", fmt.Sprintf("failed to create scan session: %v", err))
		return
	}

	sess.logger.Info("Scan session started", "remote_addr", r.RemoteAddr)
	sess.run(ctx, scanner, s.maxFrameMB*1024*1024)
}

// session is the per-connection state. It is the pipeline.Presenter of its
// scanner.
type session struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger
	frames *frame.PushSource
	seq    atomic.Uint64

	writeMu sync.Mutex
	overlay bool // guarded by writeMu

	ackMu sync.Mutex
	ack   pipeline.AckFunc
}

func newSession(conn *websocket.Conn, logger *slog.Logger) *session {
	id := uuid.NewString()
	return &session{
		id:     id,
		conn:   conn,
		logger: logger.With("session_id", id),
		frames: frame.NewPushSource(),
	}
}

func (s *session) run(ctx context.Context, scanner *pipeline.Scanner, maxBytes int64) {
	s.send(ServerMessage{Type: msgSession, SessionID: s.id})

	runDone := make(chan error, 1)
	go func() { runDone <- scanner.Run(ctx, s.frames) }()

	stopPing := s.keepAlive()
	s.readLoop(maxBytes)
	stopPing()

	_ = s.frames.Close()
	if err := <-runDone; err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("Scan session stopped", "error", err)
	}
	if err := scanner.Close(); err != nil {
		s.logger.Warn("Failed to close scanner", "error", err)
	}
	s.acknowledge()

	st := scanner.Stats()
	s.logger.Info("Scan session ended",
		"frames", st.Frames,
		"submitted", st.Submitted,
		"dropped", st.Dropped,
		"results", st.Results,
		"replaced_frames", s.frames.Dropped())
}

// keepAlive pings the client until the returned func is called.
func (s *session) keepAlive() func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()
	return func() { close(done) }
}

func (s *session) readLoop(maxBytes int64) {
	s.conn.SetReadLimit(maxBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch messageType {
		case websocket.BinaryMessage:
			s.handleEncodedFrame(data)
		case websocket.TextMessage:
			s.handleText(data)
		}
	}
}

func (s *session) handleEncodedFrame(data []byte) {
	img, _, err := utils.DecodeImage(data)
	if err != nil {
		s.sendError("invalid_frame", err.Error())
		return
	}
	f, err := frame.FromImage(img)
	if err != nil {
		s.sendError("invalid_frame", err.Error())
		return
	}
	s.push(f)
}

func (s *session) handleText(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError("invalid_request", fmt.Sprintf("failed to parse message: %v", err))
		return
	}
	switch msg.Type {
	case msgAck:
		if !s.acknowledge() {
			s.logger.Debug("Ack without pending result")
		}
	case msgFrame:
		f, err := frame.FromBGRA(msg.Data, msg.Width, msg.Height, msg.Stride)
		if err != nil {
			s.sendError("invalid_frame", err.Error())
			return
		}
		s.push(f)
	default:
		s.sendError("invalid_request", "unsupported message type: "+msg.Type)
	}
}

func (s *session) push(f *frame.Frame) {
	f.Seq = s.seq.Add(1)
	replaced, err := s.frames.Push(f)
	if err != nil {
		f.Release()
		return
	}
	if replaced {
		framesReplacedTotal.Inc()
	}
}

// acknowledge runs the pending ack, if any.
func (s *session) acknowledge() bool {
	s.ackMu.Lock()
	ack := s.ack
	s.ack = nil
	s.ackMu.Unlock()
	if ack == nil {
		return false
	}
	ack()
	return true
}

// ShowOverlay implements pipeline.Presenter.
func (s *session) ShowOverlay(rect geometry.Rect) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.overlay = true
	s.writeLocked(ServerMessage{Type: msgOverlay, Rect: &rect})
}

// ClearOverlay implements pipeline.Presenter. Only the first clear after an
// overlay is sent.
func (s *session) ClearOverlay() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if !s.overlay {
		return
	}
	s.overlay = false
	s.writeLocked(ServerMessage{Type: msgClear})
}

// PresentResult implements pipeline.Presenter. The gate stays closed until
// the client sends an ack message.
func (s *session) PresentResult(result fields.ScanResult, ack pipeline.AckFunc) {
	s.ackMu.Lock()
	s.ack = ack
	s.ackMu.Unlock()
	s.send(ServerMessage{Type: msgResult, Result: &result})
}

func (s *session) sendError(errorType, message string) {
	s.send(ServerMessage{Type: msgError, Error: message, ErrorType: errorType})
}

func (s *session) send(msg ServerMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.writeLocked(msg)
}

func (s *session) writeLocked(msg ServerMessage) {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Debug("Failed to send WebSocket message", "type", msg.Type, "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
