package pipeline

import "sync"

// Gate admits at most one recognition job at a time. It is a capacity-1
// semaphore; every successful TryAcquire must be matched by one call of the
// returned release func, which is idempotent.
type Gate struct {
	slot chan struct{}
}

// NewGate returns an open gate.
func NewGate() *Gate {
	return &Gate{slot: make(chan struct{}, 1)}
}

// TryAcquire closes the gate if it is open. It never blocks.
func (g *Gate) TryAcquire() (release func(), ok bool) {
	select {
	case g.slot <- struct{}{}:
	default:
		return nil, false
	}
	gatesClosed.Inc()
	var once sync.Once
	return func() {
		once.Do(func() {
			<-g.slot
			gatesClosed.Dec()
		})
	}, true
}

// IsOpen reports whether a job may be submitted right now.
func (g *Gate) IsOpen() bool { return len(g.slot) == 0 }
