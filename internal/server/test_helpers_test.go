package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/cardscan/internal/detector"
	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/geometry"
	"github.com/MeKo-Tech/cardscan/internal/pipeline"
)

// testBox is the normalized bounding box every detection reports.
var testBox = geometry.Rect{X: 0.25, Y: 0.1, Width: 0.5, Height: 0.5}

// brightFinder detects a card whenever the centre pixel is bright.
type brightFinder struct{}

func (brightFinder) Detect(img image.Image) (detector.Candidate, bool) {
	b := img.Bounds()
	r, _, _, _ := img.At(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2).RGBA()
	if r < 0x8000 {
		return detector.Candidate{}, false
	}
	return detector.Candidate{
		Quad: geometry.Quad{
			TopLeft:     geometry.Point{X: 0.25, Y: 0.6},
			TopRight:    geometry.Point{X: 0.75, Y: 0.6},
			BottomRight: geometry.Point{X: 0.75, Y: 0.1},
			BottomLeft:  geometry.Point{X: 0.25, Y: 0.1},
		},
		Confidence:  1,
		BoundingBox: testBox,
	}, true
}

type passRectifier struct{}

func (passRectifier) Rectify(img image.Image, _ geometry.PixelQuad) (image.Image, error) {
	return img, nil
}

// stubRecognizer always reads the same lines.
type stubRecognizer struct {
	lines []fields.TextLine
}

func (r stubRecognizer) Recognize(context.Context, image.Image) ([]fields.TextLine, error) {
	return r.lines, nil
}

var cardLines = []fields.TextLine{
	{Text: "4111 1111 1111 1111", Confidence: 1},
	{Text: "12/28", Confidence: 1},
	{Text: "JANE DOE", Confidence: 1},
}

// scannerRecorder builds test scanners and remembers the last one.
type scannerRecorder struct {
	mu      sync.Mutex
	scanner *pipeline.Scanner
	mode    pipeline.ReleaseMode
}

func (r *scannerRecorder) factory(p pipeline.Presenter) (*pipeline.Scanner, error) {
	b := pipeline.NewBuilder().
		WithFinder(brightFinder{}).
		WithRectifier(passRectifier{}).
		WithRecognizer(stubRecognizer{lines: cardLines}).
		WithPresenter(p)
	if r.mode != "" {
		b = b.WithReleaseMode(r.mode)
	}
	sc, err := b.Build()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.scanner = sc
	r.mu.Unlock()
	return sc, nil
}

func (r *scannerRecorder) current() *pipeline.Scanner {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scanner
}

func newTestServer(t *testing.T, factory ScannerFactory) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(Config{CORSOrigin: "*", MaxFrameMB: 4}, factory)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/scan"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// openSession dials /scan and consumes the session greeting.
func openSession(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn := dial(t, ts)
	msg := readMessage(t, conn)
	require.Equal(t, msgSession, msg.Type)
	require.NotEmpty(t, msg.SessionID)
	return conn
}

func solidPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	for y := range 48 {
		for x := range 64 {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sendFrame(t *testing.T, conn *websocket.Conn, data []byte) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}
