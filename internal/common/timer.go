// Package common holds small helpers shared by the scan pipeline stages.
package common

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StageTimer measures one pipeline stage (detection, rectification,
// recognition) of a single frame.
type StageTimer struct {
	stage   string
	start   time.Time
	elapsed time.Duration
	stopped bool
}

// StartStage starts timing the named stage.
func StartStage(stage string) *StageTimer {
	return &StageTimer{stage: stage, start: time.Now()}
}

// Stop fixes the elapsed time on the first call and returns it.
// Later calls return the same value.
func (t *StageTimer) Stop() time.Duration {
	if !t.stopped {
		t.elapsed = time.Since(t.start)
		t.stopped = true
	}
	return t.elapsed
}

// StopAndObserve stops the timer and records the elapsed seconds in o.
func (t *StageTimer) StopAndObserve(o prometheus.Observer) time.Duration {
	d := t.Stop()
	if o != nil {
		o.Observe(d.Seconds())
	}
	return d
}

// Elapsed returns the recorded duration, or the running time when the
// timer has not been stopped yet.
func (t *StageTimer) Elapsed() time.Duration {
	if t.stopped {
		return t.elapsed
	}
	return time.Since(t.start)
}

// Stage returns the stage name.
func (t *StageTimer) Stage() string {
	return t.stage
}

// LogValue implements slog.LogValuer.
func (t *StageTimer) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("stage", t.stage),
		slog.Float64("ms", float64(t.Elapsed().Microseconds())/1000),
	)
}
