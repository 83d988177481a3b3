// Package cache holds the last merged content snapshot, the partial results
// of the fetch in progress, and a short history of prior snapshots.
package cache

import (
	"sync"

	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/ring"
)

// DefaultHistorySize is the number of prior snapshots kept for flicker
// suppression. Tunable; nothing depends on the exact value.
const DefaultHistorySize = 3

// Cache is goroutine-safe. Snapshots handed out are copies.
type Cache struct {
	mu           sync.RWMutex
	current      []content.Item
	pending      []content.Item
	dataReceived bool
	history      *ring.Buffer[[]content.Item]
}

// New creates a Cache keeping historySize prior snapshots.
func New(historySize int) *Cache {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Cache{history: ring.New[[]content.Item](historySize)}
}

// Get returns the cached snapshot (never nil).
func (c *Cache) Get() []content.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return content.Clone(c.current)
}

// Len returns the size of the cached snapshot.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.current)
}

// Update replaces the snapshot and pushes the previous one into history.
func (c *Cache) Update(items []content.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.Push(c.current)
	c.current = content.Clone(items)
}

// AppendPending adds partial results from one category of the fetch in progress.
func (c *Cache) AppendPending(items []content.Item) {
	if len(items) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, items...)
}

// Pending returns a copy of the partial results collected so far.
func (c *Cache) Pending() []content.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return content.Clone(c.pending)
}

// ClearPending drops the partial results.
func (c *Cache) ClearPending() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}

// SetDataReceived records whether any category returned rows in this fetch.
func (c *Cache) SetDataReceived(v bool) {
	c.mu.Lock()
	c.dataReceived = v
	c.mu.Unlock()
}

// DataReceived reports the flag set by SetDataReceived.
func (c *Cache) DataReceived() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dataReceived
}

// Invalidate clears the snapshot, the pending buffer and the data flag.
// History is kept.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.pending = nil
	c.dataReceived = false
}

// HasRecentData reports whether the current snapshot or any remembered
// prior snapshot holds content. Each empty Update pushes one more snapshot
// into history, so repeated empty results eventually clear the evidence.
func (c *Cache) HasRecentData() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.current) > 0 {
		return true
	}
	return c.history.Any(func(s []content.Item) bool { return len(s) > 0 })
}

// HasChanged compares two merged lists. Content bodies are not compared;
// an edit is only seen through UpdatedAt.
func HasChanged(old, new []content.Item) bool {
	if (len(old) == 0) != (len(new) == 0) {
		return true
	}
	if len(old) != len(new) {
		return true
	}

	oldCounts, newCounts := content.CountByType(old), content.CountByType(new)
	for _, typ := range content.Types {
		if oldCounts[typ] != newCounts[typ] {
			return true
		}
	}

	oldByID := make(map[string]content.Item, len(old))
	for _, it := range old {
		oldByID[it.ID] = it
	}
	newByID := make(map[string]content.Item, len(new))
	for _, it := range new {
		newByID[it.ID] = it
		if _, ok := oldByID[it.ID]; !ok {
			return true
		}
	}
	for id := range oldByID {
		if _, ok := newByID[id]; !ok {
			return true
		}
	}

	for _, o := range old {
		if n, ok := newByID[o.ID]; ok && !o.UpdatedAt.Equal(n.UpdatedAt) {
			return true
		}
	}
	return false
}
