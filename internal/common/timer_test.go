package common

import (
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageTimer_StopIsSticky(t *testing.T) {
	timer := StartStage("detection")
	assert.Equal(t, "detection", timer.Stage())

	time.Sleep(10 * time.Millisecond)
	first := timer.Stop()
	assert.GreaterOrEqual(t, first, 10*time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, first, timer.Stop())
	assert.Equal(t, first, timer.Elapsed())
}

func TestStageTimer_ElapsedWhileRunning(t *testing.T) {
	timer := StartStage("recognition")
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.Elapsed(), 5*time.Millisecond)
}

func TestStageTimer_StopAndObserve(t *testing.T) {
	var observed []float64
	obs := prometheus.ObserverFunc(func(v float64) { observed = append(observed, v) })

	timer := StartStage("rectification")
	time.Sleep(2 * time.Millisecond)
	d := timer.StopAndObserve(obs)
	require.Len(t, observed, 1)
	assert.InDelta(t, d.Seconds(), observed[0], 1e-9)

	// A nil observer only stops the timer.
	other := StartStage("recognition")
	got := other.StopAndObserve(nil)
	assert.Equal(t, got, other.Elapsed())
}

func TestStageTimer_LogValue(t *testing.T) {
	timer := StartStage("detection")
	timer.Stop()
	v := timer.LogValue()
	require.Equal(t, slog.KindGroup, v.Kind())
	attrs := v.Group()
	require.Len(t, attrs, 2)
	assert.Equal(t, "stage", attrs[0].Key)
	assert.Equal(t, "detection", attrs[0].Value.String())
	assert.Equal(t, "ms", attrs[1].Key)
}
