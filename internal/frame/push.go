package frame

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// ErrSourceClosed is returned by Push after Close.
var ErrSourceClosed = errors.New("frame: source closed")

// PushSource hands frames from a producer to a consumer through a single
// slot. A frame pushed while another is pending replaces it, so a slow
// consumer always sees the newest frame and never a backlog.
type PushSource struct {
	slot    chan *Frame
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
	dropped atomic.Uint64
}

// NewPushSource creates an empty push source.
func NewPushSource() *PushSource {
	return &PushSource{
		slot: make(chan *Frame, 1),
		done: make(chan struct{}),
	}
}

// Push offers f to the consumer. It reports whether a pending frame was
// replaced. Replaced frames are released.
func (s *PushSource) Push(f *Frame) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrSourceClosed
	}
	replaced := false
	select {
	case old := <-s.slot:
		old.Release()
		s.dropped.Add(1)
		replaced = true
	default:
	}
	s.slot <- f
	return replaced, nil
}

// Next blocks until a frame is pushed, the source is closed (io.EOF) or
// ctx is done.
func (s *PushSource) Next(ctx context.Context) (*Frame, error) {
	select {
	case f := <-s.slot:
		return f, nil
	default:
	}
	select {
	case f := <-s.slot:
		return f, nil
	case <-s.done:
		select {
		case f := <-s.slot:
			return f, nil
		default:
			return nil, io.EOF
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dropped returns the number of frames replaced before being consumed.
func (s *PushSource) Dropped() uint64 { return s.dropped.Load() }

// Close ends the stream. A pending frame is still delivered.
func (s *PushSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}
