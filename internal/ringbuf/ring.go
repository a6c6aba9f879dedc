// Package ringbuf provides a bounded queue that evicts its oldest entry when
// full, so a slow reader never applies backpressure to the writer.
package ringbuf

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Pop once the ring is closed and drained.
var ErrClosed = errors.New("ring closed")

// Ring is a thread-safe circular queue holding at most its capacity.
type Ring[T any] struct {
	mu      sync.Mutex
	entries []T
	head    int // index of the oldest entry
	count   int
	dropped uint64
	closed  bool
	notify  chan struct{}
	done    chan struct{}
}

// New creates a ring holding at most size entries (minimum 1).
func New[T any](size int) *Ring[T] {
	if size < 1 {
		size = 1
	}
	return &Ring[T]{
		entries: make([]T, size),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Push appends v, evicting the oldest entry if the ring is full.
// It never blocks and reports whether an entry was evicted.
// Pushing to a closed ring is a no-op.
func (r *Ring[T]) Push(v T) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}

	evicted := false
	size := len(r.entries)
	if r.count == size {
		var zero T
		r.entries[r.head] = zero
		r.head = (r.head + 1) % size
		r.count--
		r.dropped++
		evicted = true
	}
	r.entries[(r.head+r.count)%size] = v
	r.count++
	r.mu.Unlock()

	r.signal()
	return evicted
}

// TryPop removes and returns the oldest entry without blocking.
func (r *Ring[T]) TryPop() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.popLocked()
}

// Pop blocks until an entry is available, the context ends or the ring is
// closed. Entries still buffered at close are drained before ErrClosed.
func (r *Ring[T]) Pop(ctx context.Context) (T, error) {
	for {
		r.mu.Lock()
		v, ok := r.popLocked()
		remaining := r.count
		closed := r.closed
		r.mu.Unlock()

		if ok {
			// Pass the wakeup on to another waiter.
			if remaining > 0 {
				r.signal()
			}
			return v, nil
		}
		if closed {
			var zero T
			return zero, ErrClosed
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-r.notify:
		case <-r.done:
		}
	}
}

// Len returns the number of buffered entries.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Snapshot returns the buffered entries oldest first without removing them.
func (r *Ring[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return nil
	}
	out := make([]T, r.count)
	for i := range out {
		out[i] = r.entries[(r.head+i)%len(r.entries)]
	}
	return out
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.entries)
}

// Dropped returns how many entries have been evicted unread.
func (r *Ring[T]) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close wakes all blocked readers. Buffered entries remain readable.
func (r *Ring[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	close(r.done)
}

func (r *Ring[T]) popLocked() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	v := r.entries[r.head]
	r.entries[r.head] = zero
	r.head = (r.head + 1) % len(r.entries)
	r.count--
	return v, true
}

func (r *Ring[T]) signal() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}
