package fetch

import (
	"fmt"
	"sync"

	"github.com/abelbrown/lessonvault/internal/content"
)

// CategoryError is a retrieval failure confined to one content category.
type CategoryError struct {
	Category content.Category
	Err      error
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Category, e.Err)
}

func (e *CategoryError) Unwrap() error { return e.Err }

// Message is the user-facing text recorded for the category.
func (e *CategoryError) Message() string {
	return "Could not load " + categoryNoun(e.Category)
}

func categoryNoun(c content.Category) string {
	switch c {
	case content.CategoryExercises:
		return "exercises"
	case content.CategoryLessonPlans:
		return "lesson plans"
	case content.CategoryCorrespondences:
		return "correspondence"
	case content.CategoryImages:
		return "images"
	case content.CategoryMusicLessons:
		return "music lessons"
	}
	return string(c)
}

// Errors is the concurrency-safe error map, keyed by category or by a
// page-level key such as "fetch" or "delete".
type Errors struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewErrors returns an empty map.
func NewErrors() *Errors {
	return &Errors{m: make(map[string]string)}
}

// Set records msg under key.
func (e *Errors) Set(key, msg string) {
	e.mu.Lock()
	e.m[key] = msg
	e.mu.Unlock()
}

// Clear removes key.
func (e *Errors) Clear(key string) {
	e.mu.Lock()
	delete(e.m, key)
	e.mu.Unlock()
}

// Get returns the message under key, if any.
func (e *Errors) Get(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	msg, ok := e.m[key]
	return msg, ok
}

// Snapshot returns a copy of every recorded message.
func (e *Errors) Snapshot() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.m))
	for k, v := range e.m {
		out[k] = v
	}
	return out
}

// Reset drops every message.
func (e *Errors) Reset() {
	e.mu.Lock()
	e.m = make(map[string]string)
	e.mu.Unlock()
}
