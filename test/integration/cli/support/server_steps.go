package support

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/pipeline"
	"github.com/MeKo-Tech/cardscan/internal/server"
)

// fixedRecognizer stands in for the OCR engine and always reads the same lines.
type fixedRecognizer struct {
	lines []fields.TextLine
}

func (r fixedRecognizer) Recognize(context.Context, image.Image) ([]fields.TextLine, error) {
	return r.lines, nil
}

// aScanServerReading starts an in-process scan server whose sessions use the
// real detector and rectifier and a recognizer that reads the given lines.
func (testCtx *TestContext) aScanServerReading(table *godog.Table) error {
	var lines []fields.TextLine
	for _, row := range table.Rows {
		lines = append(lines, fields.TextLine{Text: row.Cells[0].Value, Confidence: 1})
	}
	return testCtx.startScanServer(lines, pipeline.ReleaseOnAck)
}

func (testCtx *TestContext) aScanServerInMode(mode string, table *godog.Table) error {
	var lines []fields.TextLine
	for _, row := range table.Rows {
		lines = append(lines, fields.TextLine{Text: row.Cells[0].Value, Confidence: 1})
	}
	return testCtx.startScanServer(lines, pipeline.ReleaseMode(mode))
}

func (testCtx *TestContext) startScanServer(lines []fields.TextLine, mode pipeline.ReleaseMode) error {
	factory := func(p pipeline.Presenter) (*pipeline.Scanner, error) {
		return pipeline.NewBuilder().
			WithRecognizer(fixedRecognizer{lines: lines}).
			WithReleaseMode(mode).
			WithPresenter(p).
			Build()
	}
	s, err := server.NewServer(server.Config{CORSOrigin: "*", MaxFrameMB: 8}, factory)
	if err != nil {
		return err
	}
	testCtx.ScanServer = s
	testCtx.HTTPServer = httptest.NewServer(s.Handler())
	return nil
}

func (testCtx *TestContext) iRequest(method, path string) error {
	if testCtx.HTTPServer == nil {
		return errors.New("scan server is not running")
	}
	req, err := http.NewRequestWithContext(context.Background(), method, testCtx.HTTPServer.URL+path, nil)
	if err != nil {
		return err
	}
	resp, err := testCtx.HTTPServer.Client().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	testCtx.LastStatus = resp.StatusCode
	testCtx.LastBody = string(body)
	return nil
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastStatus != status {
		return fmt.Errorf("status %d, want %d\nBody: %s", testCtx.LastStatus, status, testCtx.LastBody)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastBody, text) {
		return fmt.Errorf("response does not contain '%s'\nBody: %s", text, testCtx.LastBody)
	}
	return nil
}

func (testCtx *TestContext) iOpenAScanSession() error {
	if testCtx.HTTPServer == nil {
		return errors.New("scan server is not running")
	}
	url := "ws" + strings.TrimPrefix(testCtx.HTTPServer.URL, "http") + "/scan"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to open scan session: %w", err)
	}
	testCtx.Conn = conn
	return testCtx.iShouldReceiveMessage("session")
}

func (testCtx *TestContext) iSendTheFrame(name string) error {
	if testCtx.Conn == nil {
		return errors.New("no scan session")
	}
	data, err := os.ReadFile(testCtx.path(name)) //nolint:gosec // G304: scenario-controlled path
	if err != nil {
		return err
	}
	return testCtx.Conn.WriteMessage(websocket.BinaryMessage, data)
}

func (testCtx *TestContext) iAcknowledgeTheResult() error {
	if testCtx.Conn == nil {
		return errors.New("no scan session")
	}
	return testCtx.Conn.WriteJSON(server.ClientMessage{Type: "ack"})
}

// iShouldReceiveMessage reads messages until one of the given type arrives.
func (testCtx *TestContext) iShouldReceiveMessage(kind string) error {
	if testCtx.Conn == nil {
		return errors.New("no scan session")
	}
	deadline := time.Now().Add(10 * time.Second)
	if err := testCtx.Conn.SetReadDeadline(deadline); err != nil {
		return err
	}
	var seen []string
	for {
		var msg server.ServerMessage
		if err := testCtx.Conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("no %q message (saw %v): %w", kind, seen, err)
		}
		if msg.Type == kind {
			testCtx.LastMessage = &msg
			return nil
		}
		seen = append(seen, msg.Type)
	}
}

// iShouldNotReceiveMessage fails if a message of the given type arrives
// within the wait period.
func (testCtx *TestContext) iShouldNotReceiveMessage(kind string) error {
	if testCtx.Conn == nil {
		return errors.New("no scan session")
	}
	if err := testCtx.Conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond)); err != nil {
		return err
	}
	for {
		var msg server.ServerMessage
		if err := testCtx.Conn.ReadJSON(&msg); err != nil {
			// Reaching the deadline is the expected outcome.
			var netErr interface{ Timeout() bool }
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil
			}
			return err
		}
		if msg.Type == kind {
			return fmt.Errorf("unexpected %q message", kind)
		}
	}
}

func (testCtx *TestContext) theResultFieldShouldBe(field, expected string) error {
	if testCtx.LastMessage == nil || testCtx.LastMessage.Result == nil {
		return errors.New("no result received")
	}
	var got string
	switch field {
	case "card_number":
		got = testCtx.LastMessage.Result.CardNumber
	case "expiry_date":
		got = testCtx.LastMessage.Result.ExpiryDate
	case "holder_name":
		got = testCtx.LastMessage.Result.HolderName
	default:
		return fmt.Errorf("unknown result field %q", field)
	}
	if got != expected {
		return fmt.Errorf("%s is %q, want %q", field, got, expected)
	}
	return nil
}

func (testCtx *TestContext) theOverlayShouldLieInsideTheFrame(width, height float64) error {
	if testCtx.LastMessage == nil || testCtx.LastMessage.Rect == nil {
		return errors.New("no overlay received")
	}
	r := testCtx.LastMessage.Rect
	if r.X < 0 || r.Y < 0 || r.X+r.Width > width+0.5 || r.Y+r.Height > height+0.5 || r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("overlay %+v outside %vx%v frame", *r, width, height)
	}
	return nil
}

// RegisterServerSteps registers steps that drive the in-process scan server.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a scan server whose recognizer reads:$`, testCtx.aScanServerReading)
	sc.Step(`^a scan server in "([^"]*)" release mode whose recognizer reads:$`, testCtx.aScanServerInMode)
	sc.Step(`^I request "([^"]*)" "([^"]*)"$`, testCtx.iRequest)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)

	sc.Step(`^I open a scan session$`, testCtx.iOpenAScanSession)
	sc.Step(`^I send the frame "([^"]*)"$`, testCtx.iSendTheFrame)
	sc.Step(`^I acknowledge the result$`, testCtx.iAcknowledgeTheResult)
	sc.Step(`^I should receive an? "([^"]*)" message$`, testCtx.iShouldReceiveMessage)
	sc.Step(`^I should not receive an? "([^"]*)" message$`, testCtx.iShouldNotReceiveMessage)
	sc.Step(`^the result field "([^"]*)" should be "([^"]*)"$`, testCtx.theResultFieldShouldBe)
	sc.Step(`^the overlay should lie inside a (\d+)x(\d+) frame$`, testCtx.theOverlayShouldLieInsideTheFrame)
}
