package server

import (
	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/geometry"
	"github.com/MeKo-Tech/cardscan/internal/pipeline"
)

// ScannerFactory creates the scan session for one connection. The
// presenter forwards overlays and results to that connection.
type ScannerFactory func(p pipeline.Presenter) (*pipeline.Scanner, error)

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxFrameMB      int64
	ShutdownTimeout int // seconds
}

// Message types exchanged on /scan.
const (
	// client to server
	msgFrame = "frame"
	msgAck   = "ack"

	// server to client
	msgSession = "session"
	msgOverlay = "overlay"
	msgClear   = "clear"
	msgResult  = "result"
	msgError   = "error"
)

// ClientMessage is a JSON text message sent by the client. Frames may also
// arrive as binary messages holding an encoded image (PNG, JPEG or BMP).
type ClientMessage struct {
	Type string `json:"type"`

	// Raw BGRA frame, for Type == "frame". Data is base64 in JSON.
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Stride int    `json:"stride,omitempty"`
	Data   []byte `json:"data,omitempty"`
}

// ServerMessage is a JSON text message sent to the client.
type ServerMessage struct {
	Type      string             `json:"type"`
	SessionID string             `json:"session_id,omitempty"`
	Rect      *geometry.Rect     `json:"rect,omitempty"`
	Result    *fields.ScanResult `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	ErrorType string             `json:"error_type,omitempty"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Time     string `json:"time"`
	Sessions int64  `json:"sessions"`
}
