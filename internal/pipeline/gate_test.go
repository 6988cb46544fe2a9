package pipeline

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_SingleHolder(t *testing.T) {
	g := NewGate()
	require.True(t, g.IsOpen())

	release, ok := g.TryAcquire()
	require.True(t, ok)
	assert.False(t, g.IsOpen())

	_, ok = g.TryAcquire()
	assert.False(t, ok, "second acquire must fail while held")

	release()
	assert.True(t, g.IsOpen())

	// Release is idempotent and does not free a later holder's slot.
	again, ok := g.TryAcquire()
	require.True(t, ok)
	release()
	assert.False(t, g.IsOpen())
	again()
	assert.True(t, g.IsOpen())
}

func TestGate_ConcurrentAcquire(t *testing.T) {
	g := NewGate()
	const n = 64

	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := g.TryAcquire(); ok {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestGate_NeverTwoHolders(t *testing.T) {
	g := NewGate()
	var inFlight, maxInFlight atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				release, ok := g.TryAcquire()
				if !ok {
					continue
				}
				cur := inFlight.Add(1)
				for {
					m := maxInFlight.Load()
					if cur <= m || maxInFlight.CompareAndSwap(m, cur) {
						break
					}
				}
				inFlight.Add(-1)
				release()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.True(t, g.IsOpen())
}
