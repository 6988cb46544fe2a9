package pipeline

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"sync/atomic"

	"github.com/MeKo-Tech/cardscan/internal/detector"
	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/frame"
	"github.com/MeKo-Tech/cardscan/internal/geometry"
)

// scriptedFinder returns candidates[i] for the i-th call; calls past the
// end reuse the last entry. A nil entry means no candidate.
type scriptedFinder struct {
	mu         sync.Mutex
	calls      int
	candidates []*detector.Candidate
}

func (f *scriptedFinder) Detect(image.Image) (detector.Candidate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := min(f.calls, len(f.candidates)-1)
	f.calls++
	if i < 0 || f.candidates[i] == nil {
		return detector.Candidate{}, false
	}
	return *f.candidates[i], true
}

func always(c detector.Candidate) *scriptedFinder {
	return &scriptedFinder{candidates: []*detector.Candidate{&c}}
}

type funcRectifier func(image.Image, geometry.PixelQuad) (image.Image, error)

func (f funcRectifier) Rectify(img image.Image, q geometry.PixelQuad) (image.Image, error) {
	return f(img, q)
}

// passRectifier returns a small upright image for every quad.
var passRectifier = funcRectifier(func(image.Image, geometry.PixelQuad) (image.Image, error) {
	return image.NewNRGBA(image.Rect(0, 0, 32, 20)), nil
})

// fakeRecognizer counts calls, tracks concurrency and optionally blocks
// until proceed is closed.
type fakeRecognizer struct {
	lines   []fields.TextLine
	err     error
	panicV  any
	proceed chan struct{}
	started chan struct{}

	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (r *fakeRecognizer) Recognize(context.Context, image.Image) ([]fields.TextLine, error) {
	r.calls.Add(1)
	cur := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		m := r.maxInFlight.Load()
		if cur <= m || r.maxInFlight.CompareAndSwap(m, cur) {
			break
		}
	}
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.proceed != nil {
		<-r.proceed
	}
	if r.panicV != nil {
		panic(r.panicV)
	}
	return r.lines, r.err
}

func completeLines() []fields.TextLine {
	return []fields.TextLine{
		{Text: "4111 1111 1111 1111", Confidence: 1},
		{Text: "09/27", Confidence: 1},
	}
}

type presented struct {
	result fields.ScanResult
	ack    AckFunc
}

// recordingPresenter records overlay calls and forwards results.
type recordingPresenter struct {
	mu       sync.Mutex
	overlays []geometry.Rect
	clears   int
	results  chan presented
	onResult func()
}

func newRecordingPresenter() *recordingPresenter {
	return &recordingPresenter{results: make(chan presented, 8)}
}

func (p *recordingPresenter) ShowOverlay(r geometry.Rect) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.overlays = append(p.overlays, r)
}

func (p *recordingPresenter) ClearOverlay() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clears++
}

func (p *recordingPresenter) PresentResult(r fields.ScanResult, ack AckFunc) {
	if p.onResult != nil {
		p.onResult()
	}
	p.results <- presented{result: r, ack: ack}
}

func (p *recordingPresenter) counts() (overlays, clears int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.overlays), p.clears
}

// sliceSource replays frames, then io.EOF.
type sliceSource struct {
	frames []*frame.Frame
	err    error
}

func (s *sliceSource) Next(context.Context) (*frame.Frame, error) {
	if len(s.frames) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

var errRecognizer = errors.New("model exploded")
