// Package ring provides a fixed-capacity circular buffer.
package ring

import "sync"

// Buffer is a fixed-size circular buffer. Pushing into a full buffer
// overwrites the oldest entry. Goroutine-safe.
type Buffer[T any] struct {
	mu    sync.Mutex
	buf   []T
	size  int
	head  int // next write position
	count int // number of valid entries (0..size)
}

// New creates a buffer with the given capacity. Capacity below 1 is raised to 1.
func New[T any](size int) *Buffer[T] {
	if size < 1 {
		size = 1
	}
	return &Buffer[T]{
		buf:  make([]T, size),
		size: size,
	}
}

// Push adds v, overwriting the oldest entry if full.
func (r *Buffer[T]) Push(v T) {
	r.mu.Lock()
	r.buf[r.head] = v
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
	r.mu.Unlock()
}

// Snapshot returns a copy of all entries in chronological order (oldest first).
func (r *Buffer[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return nil
	}

	result := make([]T, r.count)
	if r.count < r.size {
		copy(result, r.buf[:r.count])
	} else {
		n := copy(result, r.buf[r.head:])
		copy(result[n:], r.buf[:r.head])
	}
	return result
}

// Last returns the n most recent entries in chronological order.
// If n > Len, returns all entries. If n <= 0, returns nil.
func (r *Buffer[T]) Last(n int) []T {
	if n <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return nil
	}
	if n > r.count {
		n = r.count
	}

	result := make([]T, n)
	start := (r.head - n + r.size) % r.size
	if start+n <= r.size {
		copy(result, r.buf[start:start+n])
	} else {
		first := r.size - start
		copy(result, r.buf[start:])
		copy(result[first:], r.buf[:n-first])
	}
	return result
}

// Any reports whether pred holds for at least one buffered entry.
func (r *Buffer[T]) Any(pred func(T) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < r.count; i++ {
		if pred(r.buf[i]) {
			return true
		}
	}
	return false
}

// Reset drops every entry.
func (r *Buffer[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.head = 0
	r.count = 0
}

// Len returns the number of entries currently buffered.
func (r *Buffer[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the buffer capacity.
func (r *Buffer[T]) Cap() int {
	return r.size
}
