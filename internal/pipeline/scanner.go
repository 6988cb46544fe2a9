// Package pipeline runs the per-frame card scan: detection and
// rectification on the caller's goroutine, text recognition on a single
// background worker behind a capacity-1 gate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MeKo-Tech/cardscan/internal/common"
	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/geometry"
	"github.com/MeKo-Tech/cardscan/internal/recognizer"
)

var (
	// ErrRecognitionLaunch is reported when a recognition job cannot start.
	ErrRecognitionLaunch = errors.New("pipeline: recognition launch failed")
	// ErrPipelineClosed is returned when using a closed scanner.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

// Outcome is what ProcessFrame did with a frame.
type Outcome int

const (
	NoCandidate Outcome = iota
	RectifyFailed
	Submitted
	Dropped
	LaunchFailed
)

func (o Outcome) String() string {
	switch o {
	case NoCandidate:
		return "no_candidate"
	case RectifyFailed:
		return "rectify_failed"
	case Submitted:
		return "submitted"
	case Dropped:
		return "dropped"
	case LaunchFailed:
		return "launch_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Stats is a snapshot of the scanner counters.
type Stats struct {
	Frames         uint64 `json:"frames"`
	Candidates     uint64 `json:"candidates"`
	RectifyFailed  uint64 `json:"rectify_failed"`
	Submitted      uint64 `json:"submitted"`
	Dropped        uint64 `json:"dropped"`
	LaunchFailures uint64 `json:"launch_failures"`
	Results        uint64 `json:"results"`
	Discarded      uint64 `json:"discarded"`
	Failures       uint64 `json:"failures"`
}

type counters struct {
	frames, candidates, rectifyFailed, submitted, dropped atomic.Uint64
	launchFailures, results, discarded, failures          atomic.Uint64
}

type job struct {
	img     image.Image
	release func()
}

// Scanner is one scan session. ProcessFrame and Run must be called from a
// single goroutine.
type Scanner struct {
	finder      RectangleFinder
	rectifier   Rectifier
	recognizer  TextRecognizer
	owned       recognizer.Engine
	presenter   Presenter
	classifier  *fields.Classifier
	releaseMode ReleaseMode
	logger      *slog.Logger
	gate        *Gate
	ctx         context.Context

	jobs      chan job
	done      chan struct{}
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
	stats     counters
}

// ProcessFrame runs detection on img and, when a card is found and the
// gate is open, submits the rectified card for recognition.
func (s *Scanner) ProcessFrame(img image.Image) Outcome {
	out := s.processFrame(img)
	s.stats.frames.Add(1)
	framesTotal.WithLabelValues(out.String()).Inc()
	return out
}

func (s *Scanner) processFrame(img image.Image) Outcome {
	if img == nil || img.Bounds().Empty() {
		s.presenter.ClearOverlay()
		return NoCandidate
	}
	detTimer := common.StartStage("detection")
	cand, ok := s.finder.Detect(img)
	detTimer.StopAndObserve(stageDuration.WithLabelValues(detTimer.Stage()))
	if !ok {
		s.presenter.ClearOverlay()
		s.logger.Debug("No card candidate")
		return NoCandidate
	}
	s.stats.candidates.Add(1)

	size := geometry.SizeOf(img.Bounds())
	s.presenter.ShowOverlay(geometry.ToDisplayRect(cand.BoundingBox, size))

	rectTimer := common.StartStage("rectification")
	rectified, err := s.rectifier.Rectify(img, geometry.ToPixelQuad(cand.Quad, size))
	rectTimer.StopAndObserve(stageDuration.WithLabelValues(rectTimer.Stage()))
	if err != nil {
		s.stats.rectifyFailed.Add(1)
		s.logger.Debug("Rectification failed", "error", err)
		return RectifyFailed
	}

	release, ok := s.gate.TryAcquire()
	if !ok {
		s.stats.dropped.Add(1)
		return Dropped
	}
	if err := s.submit(job{img: rectified, release: release}); err != nil {
		release()
		s.stats.launchFailures.Add(1)
		s.logger.Warn("Recognition launch failed", "error", err)
		return LaunchFailed
	}
	s.stats.submitted.Add(1)
	s.logger.Debug("Recognition submitted", "confidence", cand.Confidence, "detection", detTimer, "rectification", rectTimer)
	return Submitted
}

func (s *Scanner) submit(j job) error {
	if j.img == nil || j.img.Bounds().Empty() {
		return fmt.Errorf("%w: empty rectified image", ErrRecognitionLaunch)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("%w: %w", ErrRecognitionLaunch, ErrPipelineClosed)
	}
	select {
	case s.jobs <- j:
		return nil
	default:
		return fmt.Errorf("%w: worker busy", ErrRecognitionLaunch)
	}
}

func (s *Scanner) worker() {
	defer close(s.done)
	for j := range s.jobs {
		s.handle(j)
	}
}

// handle runs one recognition job. The gate is released on every path
// except a complete result in ack mode, where the presenter's ack does it.
func (s *Scanner) handle(j job) {
	releaseOnExit := true
	defer func() {
		if releaseOnExit {
			j.release()
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			releaseOnExit = true
			s.stats.failures.Add(1)
			recognitionsTotal.WithLabelValues("panic").Inc()
			s.logger.Warn("Recognition panicked", "panic", r)
		}
	}()

	timer := common.StartStage("recognition")
	lines, err := s.recognizer.Recognize(s.ctx, j.img)
	timer.StopAndObserve(stageDuration.WithLabelValues(timer.Stage()))
	if err != nil {
		s.stats.failures.Add(1)
		recognitionsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Recognition failed", "error", err, "duration", timer.Elapsed())
		return
	}

	result := s.classifier.Extract(lines)
	if !result.Complete() {
		s.stats.discarded.Add(1)
		recognitionsTotal.WithLabelValues("incomplete").Inc()
		s.logger.Debug("Discarding incomplete extraction", "lines", len(lines), "duration", timer.Elapsed())
		return
	}
	s.stats.results.Add(1)
	recognitionsTotal.WithLabelValues("complete").Inc()
	s.logger.Info("Card recognized", "duration", timer.Elapsed(), "holder_name", result.HolderName != "")

	if s.releaseMode == ReleaseImmediate {
		j.release()
		s.presenter.PresentResult(result, func() {})
		return
	}
	s.presenter.PresentResult(result, AckFunc(j.release))
	releaseOnExit = false
}

// Run feeds frames from src into ProcessFrame until the source ends
// (returns nil) or ctx is done.
func (s *Scanner) Run(ctx context.Context, src FrameSource) error {
	for {
		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		s.ProcessFrame(f.ToNRGBA())
		f.Release()
	}
}

// GateOpen reports whether a new recognition job would be accepted.
func (s *Scanner) GateOpen() bool { return s.gate.IsOpen() }

// Stats returns a snapshot of the counters.
func (s *Scanner) Stats() Stats {
	c := &s.stats
	return Stats{
		Frames:         c.frames.Load(),
		Candidates:     c.candidates.Load(),
		RectifyFailed:  c.rectifyFailed.Load(),
		Submitted:      c.submitted.Load(),
		Dropped:        c.dropped.Load(),
		LaunchFailures: c.launchFailures.Load(),
		Results:        c.results.Load(),
		Discarded:      c.discarded.Load(),
		Failures:       c.failures.Load(),
	}
}

// Close stops accepting jobs, waits for the in-flight job and closes a
// recognizer created by the builder.
func (s *Scanner) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.jobs)
		s.mu.Unlock()
		<-s.done
		if s.owned != nil {
			s.closeErr = s.owned.Close()
		}
	})
	return s.closeErr
}
