package otel

import "github.com/abelbrown/lessonvault/internal/ring"

// DefaultRingSize is the default ring buffer capacity.
const DefaultRingSize = 1024

// RingBuffer is a fixed-size circular buffer of Events for live inspection.
// Goroutine-safe for concurrent Push and read operations.
type RingBuffer struct {
	buf *ring.Buffer[Event]
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: ring.New[Event](size)}
}

// Push adds an event, overwriting the oldest if full.
// Copies the Extra map (shallow copy of values) to prevent aliasing bugs.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		cp := make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			cp[k] = v
		}
		e.Extra = cp
	}
	r.buf.Push(e)
}

// Snapshot returns a copy of all events in chronological order (oldest first).
func (r *RingBuffer) Snapshot() []Event {
	return r.buf.Snapshot()
}

// Last returns the N most recent events in chronological order.
func (r *RingBuffer) Last(n int) []Event {
	return r.buf.Last(n)
}

// Len returns the number of events currently in the buffer.
func (r *RingBuffer) Len() int {
	return r.buf.Len()
}

// Cap returns the buffer capacity.
func (r *RingBuffer) Cap() int {
	return r.buf.Cap()
}

// Stats returns aggregated counts by EventKind over all buffered events.
func (r *RingBuffer) Stats() map[EventKind]int {
	counts := make(map[EventKind]int)
	for _, e := range r.buf.Snapshot() {
		counts[e.Kind]++
	}
	return counts
}
