// Package notify delivers user-facing notices (toasts in the TUI, log lines
// in the daemon).
package notify

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Level is the severity of a notice.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "info"
}

// Notification is one notice. Retry, when set, re-runs the failed action.
type Notification struct {
	Level   Level
	Title   string
	Message string
	Retry   func()
}

// Channel receives notices. Implementations must be goroutine-safe.
type Channel interface {
	Notify(n Notification)
}

// Func adapts a function to Channel.
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notice.
var Discard Channel = Func(func(Notification) {})

// Multi fans a notice out to every channel in order.
type Multi []Channel

func (m Multi) Notify(n Notification) {
	for _, c := range m {
		if c != nil {
			c.Notify(n)
		}
	}
}

// Log writes notices to a charm logger at a matching level.
type Log struct {
	L *log.Logger
}

func (l Log) Notify(n Notification) {
	if l.L == nil {
		return
	}
	kv := []interface{}{"title", n.Title, "retry", n.Retry != nil}
	switch n.Level {
	case Error:
		l.L.Error(n.Message, kv...)
	case Warning:
		l.L.Warn(n.Message, kv...)
	default:
		l.L.Info(n.Message, kv...)
	}
}

// Recorder keeps every notice for inspection in tests.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notices.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Len returns the number of recorded notices.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Count returns how many recorded notices have the given level.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.items {
		if it.Level == level {
			n++
		}
	}
	return n
}

// Last returns the most recent notice and whether there was one.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}
