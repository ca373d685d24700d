// Package window provides a fixed-capacity rolling candle window. Once full
// it overwrites the oldest candle, so the window always holds the most recent
// N candles in arrival order. The backing buffer is a power-of-two ring with
// bitwise-modulo indexing.
package window

import (
	"sync"
	"sync/atomic"

	"signal-enginev1/internal/model"
)

// Window is a rolling buffer of the most recent candles for one symbol.
// Safe for one writer and concurrent snapshot readers.
type Window struct {
	mu   sync.RWMutex
	buf  []model.Candle
	mask uint64
	head uint64 // next write position
	size int    // candles currently held, up to cap

	// Out-of-order rejections (atomic, for metrics)
	rejected atomic.Uint64
}

// New creates a window. capacity is rounded up to the next power of two.
// Minimum capacity is 2.
func New(capacity int) *Window {
	cap := nextPow2(capacity)
	if cap < 2 {
		cap = 2
	}
	return &Window{
		buf:  make([]model.Candle, cap),
		mask: uint64(cap - 1),
	}
}

// Push appends a candle, evicting the oldest when full. Candles at or before
// the newest held open time are rejected and counted; returns whether the
// candle was accepted.
func (w *Window) Push(c model.Candle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size > 0 {
		newest := w.buf[(w.head-1)&w.mask]
		if !c.OpenTime.After(newest.OpenTime) {
			w.rejected.Add(1)
			return false
		}
	}

	w.buf[w.head&w.mask] = c
	w.head++
	if w.size < len(w.buf) {
		w.size++
	}
	return true
}

// Snapshot returns the held candles oldest first. The returned slice is a
// copy and safe to retain.
func (w *Window) Snapshot() []model.Candle {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]model.Candle, w.size)
	start := w.head - uint64(w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(start+uint64(i))&w.mask]
	}
	return out
}

// Last returns the newest candle, or false when empty.
func (w *Window) Last() (model.Candle, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.size == 0 {
		return model.Candle{}, false
	}
	return w.buf[(w.head-1)&w.mask], true
}

// Len returns the number of candles currently held.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.size
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return len(w.buf)
}

// Rejected returns the total number of candles dropped as stale or out of
// order.
func (w *Window) Rejected() uint64 {
	return w.rejected.Load()
}

// nextPow2 returns the smallest power of 2 >= n.
func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
