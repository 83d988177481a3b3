// Package ui provides the Bubble Tea browser for saved content.
package ui

import (
	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/notify"
)

// ContentPublished is sent whenever the stable projector publishes a list.
type ContentPublished struct {
	Items []content.Item
}

// FetchDone is sent when a load, refresh or tab-driven fetch returns.
type FetchDone struct {
	Errors map[string]string
}

// DeleteDone is sent when a delete finishes. Err is nil on success.
type DeleteDone struct {
	ID     string
	Errors map[string]string
	Err    error
}

// Notice carries a notification to the toast line.
type Notice struct {
	N notify.Notification
}
