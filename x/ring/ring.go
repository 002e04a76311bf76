// Package ring provides a fixed-size single-producer, single-consumer queue
// whose producer side is safe to call from interrupt context: it never
// blocks, never allocates and only touches atomics and the backing array.
package ring

import "sync/atomic"

// Ring is a single-producer, single-consumer queue of T.
type Ring[T any] struct {
	buf  []T
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	readable chan struct{} // coalesced "data available" signal
}

// New allocates a ring of the given power-of-two size (>= 2).
func New[T any](size int) *Ring[T] {
	if size < 2 || (size&(size-1)) != 0 {
		panic("ring: size must be power of two >= 2")
	}
	return &Ring[T]{
		buf:      make([]T, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
	}
}

func (r *Ring[T]) size() uint32 { return uint32(len(r.buf)) }

// Len reports the number of queued items.
func (r *Ring[T]) Len() int {
	return int(r.wr.Load() - r.rd.Load())
}

// Cap reports the ring capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Producer side

// TryPush enqueues v. It reports false, leaving the ring unchanged, when the
// ring is full.
func (r *Ring[T]) TryPush(v T) bool {
	rd := r.rd.Load()
	wr := r.wr.Load()
	if wr-rd >= r.size() {
		return false
	}
	r.buf[wr&r.mask] = v
	r.wr.Store(wr + 1) // release

	// Signal on every push: an empty->non-empty test here races with a
	// consumer that has just drained the ring.
	select {
	case r.readable <- struct{}{}:
	default:
	}
	return true
}

// Consumer side

// TryPop dequeues the oldest item.
func (r *Ring[T]) TryPop() (v T, ok bool) {
	rd := r.rd.Load()
	wr := r.wr.Load() // acquire
	if wr == rd {
		return v, false
	}
	idx := rd & r.mask
	v = r.buf[idx]
	var zero T
	r.buf[idx] = zero
	r.rd.Store(rd + 1) // release
	return v, true
}

// Readable fires after a push. Signals coalesce, so consumers should drain
// with TryPop until it reports false after each wake-up.
func (r *Ring[T]) Readable() <-chan struct{} { return r.readable }
