// Package otel provides structured observability for lessonvault.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional RingBuffer provides live in-memory inspection for the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Fetch orchestration
	KindFetchStart     EventKind = "fetch.start"
	KindFetchComplete  EventKind = "fetch.complete"
	KindFetchError     EventKind = "fetch.error"
	KindFetchCancel    EventKind = "fetch.cancel"
	KindFetchThrottle  EventKind = "fetch.throttle"
	KindFetchCacheHit  EventKind = "fetch.cache_hit"
	KindFetchRetry     EventKind = "fetch.retry"
	KindFetchExhausted EventKind = "fetch.exhausted"

	// Per-category retrieval
	KindCategoryOK    EventKind = "category.ok"
	KindCategoryError EventKind = "category.error"

	// Cache
	KindCacheUpdate     EventKind = "cache.update"
	KindCacheInvalidate EventKind = "cache.invalidate"
	KindCachePreserve   EventKind = "cache.preserve"

	// Stable-content projection
	KindProjectPublish  EventKind = "project.publish"
	KindProjectSuppress EventKind = "project.suppress"

	// Deletion
	KindDeleteStart    EventKind = "delete.start"
	KindDeleteComplete EventKind = "delete.complete"
	KindDeleteError    EventKind = "delete.error"

	// Session
	KindSignIn  EventKind = "session.sign_in"
	KindSignOut EventKind = "session.sign_out"

	// UI events
	KindKeyPress EventKind = "ui.key"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "coord", "fetch", "page", "ui", "main"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for entire app run
	RequestID uint64         `json:"req,omitempty"`        // fetch correlation ID
	Dur       time.Duration  `json:"-"`                    // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"`     // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Category  string         `json:"category,omitempty"`
	ItemID    string         `json:"item_id,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`   // free text
	Extra     map[string]any `json:"extra,omitempty"` // escape hatch for unusual fields
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
