package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/lessonvault/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing pipeline stats and recent events.
// Pure function with no side effects. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int, now time.Time) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Pipeline Stats"))
	lines = append(lines, fmt.Sprintf("  Fetches:    %d started, %d complete, %d errors, %d throttled",
		stats[otel.KindFetchStart], stats[otel.KindFetchComplete], stats[otel.KindFetchError], stats[otel.KindFetchThrottle]))
	lines = append(lines, fmt.Sprintf("  Retries:    %d retried, %d exhausted, %d cancelled",
		stats[otel.KindFetchRetry], stats[otel.KindFetchExhausted], stats[otel.KindFetchCancel]))
	lines = append(lines, fmt.Sprintf("  Categories: %d ok, %d errors",
		stats[otel.KindCategoryOK], stats[otel.KindCategoryError]))
	lines = append(lines, fmt.Sprintf("  Cache:      %d hits, %d updates, %d preserved, %d invalidated",
		stats[otel.KindFetchCacheHit], stats[otel.KindCacheUpdate], stats[otel.KindCachePreserve], stats[otel.KindCacheInvalidate]))
	lines = append(lines, fmt.Sprintf("  Projector:  %d published, %d suppressed",
		stats[otel.KindProjectPublish], stats[otel.KindProjectSuppress]))
	lines = append(lines, fmt.Sprintf("  Deletes:    %d started, %d complete, %d errors",
		stats[otel.KindDeleteStart], stats[otel.KindDeleteComplete], stats[otel.KindDeleteError]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-18s", formatAge(now.Sub(e.Time)), string(e.Kind))
		if e.Category != "" {
			line += "  " + e.Category
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 36)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		if e.RequestID != 0 {
			line += fmt.Sprintf("  req:%d", e.RequestID)
		}
		lines = append(lines, line)
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 84
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
