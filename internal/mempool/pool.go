// Package mempool keeps size-classed buffer pools for the per-frame hot
// paths: detection masks, recognizer tensors and frame pixel copies.
package mempool

import "sync"

const classStep = 1024

// sizeClass rounds n up to the next multiple of 1024.
func sizeClass(n int) int {
	if n <= classStep {
		return classStep
	}
	return (n + classStep - 1) / classStep * classStep
}

// SlicePool is a set of sync.Pools keyed by size class.
type SlicePool[T any] struct {
	pools sync.Map // size class -> *sync.Pool
	zero  bool
}

// NewSlicePool creates a pool. With zero set, buffers are cleared on Get.
func NewSlicePool[T any](zero bool) *SlicePool[T] {
	return &SlicePool[T]{zero: zero}
}

func (p *SlicePool[T]) pool(cls int) *sync.Pool {
	v, _ := p.pools.LoadOrStore(cls, &sync.Pool{New: func() any {
		buf := make([]T, cls)
		return &buf
	}})
	return v.(*sync.Pool)
}

// Get returns a slice of length n. Capacity may be larger.
func (p *SlicePool[T]) Get(n int) []T {
	if n <= 0 {
		return nil
	}
	cls := sizeClass(n)
	bp := p.pool(cls).Get().(*[]T)
	buf := *bp
	if cap(buf) < cls {
		buf = make([]T, cls)
	}
	buf = buf[:n]
	if p.zero {
		clear(buf)
	}
	return buf
}

// Put returns buf to the pool. Nil slices are ignored.
func (p *SlicePool[T]) Put(buf []T) {
	if cap(buf) == 0 {
		return
	}
	buf = buf[:cap(buf)]
	p.pool(sizeClass(cap(buf))).Put(&buf)
}

var (
	masks  = NewSlicePool[bool](true)
	floats = NewSlicePool[float32](false)
	pixels = NewSlicePool[uint8](false)
)

// GetBool returns a cleared mask of n elements.
func GetBool(n int) []bool { return masks.Get(n) }

// PutBool returns a mask to the pool.
func PutBool(buf []bool) { masks.Put(buf) }

// GetFloat32 returns a float buffer of n elements. Contents are undefined.
func GetFloat32(n int) []float32 { return floats.Get(n) }

// PutFloat32 returns a float buffer to the pool.
func PutFloat32(buf []float32) { floats.Put(buf) }

// GetBytes returns a byte buffer of n elements. Contents are undefined.
func GetBytes(n int) []uint8 { return pixels.Get(n) }

// PutBytes returns a byte buffer to the pool.
func PutBytes(buf []uint8) { pixels.Put(buf) }
