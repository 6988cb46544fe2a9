package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/geometry"
	"github.com/MeKo-Tech/cardscan/internal/pipeline"
)

// event is one JSON line written by the scan command.
type event struct {
	Type   string             `json:"type"`
	Time   string             `json:"time"`
	Rect   *geometry.Rect     `json:"rect,omitempty"`
	Result *fields.ScanResult `json:"result,omitempty"`
	Stats  *pipeline.Stats    `json:"stats,omitempty"`
}

// jsonLinesPresenter prints results (and optionally overlay changes) as
// JSON lines. With a confirm reader, a result is acknowledged only after
// a line has been read from it.
type jsonLinesPresenter struct {
	mu       sync.Mutex
	out      io.Writer
	prompt   io.Writer
	confirm  *bufio.Reader
	overlays bool
	shown    bool
}

func newJSONLinesPresenter(out io.Writer, overlays bool) *jsonLinesPresenter {
	return &jsonLinesPresenter{out: out, overlays: overlays}
}

// withConfirm makes results wait for Enter on in. Prompts go to prompt.
func (p *jsonLinesPresenter) withConfirm(in io.Reader, prompt io.Writer) *jsonLinesPresenter {
	p.confirm = bufio.NewReader(in)
	p.prompt = prompt
	return p
}

func (p *jsonLinesPresenter) ShowOverlay(rect geometry.Rect) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = true
	if p.overlays {
		p.writeLocked(event{Type: "overlay", Rect: &rect})
	}
}

func (p *jsonLinesPresenter) ClearOverlay() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.shown {
		return
	}
	p.shown = false
	if p.overlays {
		p.writeLocked(event{Type: "clear"})
	}
}

func (p *jsonLinesPresenter) PresentResult(result fields.ScanResult, ack pipeline.AckFunc) {
	p.mu.Lock()
	p.writeLocked(event{Type: "result", Result: &result})
	p.mu.Unlock()

	if p.confirm == nil {
		ack()
		return
	}
	if p.prompt != nil {
		_, _ = fmt.Fprintln(p.prompt, "Card recognized. Press Enter to continue scanning.")
	}
	go func() {
		// EOF also acknowledges so a closed stdin does not stall the session
		_, _ = p.confirm.ReadString('\n')
		ack()
	}()
}

func (p *jsonLinesPresenter) writeStats(st pipeline.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeLocked(event{Type: "stats", Stats: &st})
}

func (p *jsonLinesPresenter) writeLocked(e event) {
	e.Time = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(p.out, string(data))
}
