package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/lessonvault/internal/otel"
)

func TestDebugOverlayNilRing(t *testing.T) {
	result := debugOverlay(nil, 80, 24, time.Now())
	if result != "" {
		t.Errorf("debugOverlay(nil) should return empty string, got %q", result)
	}
}

func TestDebugOverlayRendersStats(t *testing.T) {
	now := time.Now()
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindFetchComplete, Time: now})
	ring.Push(otel.Event{Kind: otel.KindFetchComplete, Time: now})
	ring.Push(otel.Event{Kind: otel.KindFetchError, Time: now})
	ring.Push(otel.Event{Kind: otel.KindProjectPublish, Time: now})
	ring.Push(otel.Event{Kind: otel.KindProjectSuppress, Time: now})
	ring.Push(otel.Event{Kind: otel.KindProjectSuppress, Time: now})

	result := debugOverlay(ring, 120, 40, now)

	if !strings.Contains(result, "Pipeline Stats") {
		t.Error("overlay should contain 'Pipeline Stats' header")
	}
	if !strings.Contains(result, "2 complete, 1 errors") {
		t.Errorf("overlay should show fetch stats, got:\n%s", result)
	}
	if !strings.Contains(result, "1 published, 2 suppressed") {
		t.Errorf("overlay should show projector stats, got:\n%s", result)
	}
	if !strings.Contains(result, "6 / 64 events") {
		t.Errorf("overlay should show buffer stats, got:\n%s", result)
	}
}

func TestDebugOverlayRecentEvents(t *testing.T) {
	now := time.Now()
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindFetchStart, Time: now, Msg: "forced"})
	ring.Push(otel.Event{Kind: otel.KindCategoryError, Time: now, Category: "images", Err: "timeout"})
	ring.Push(otel.Event{Kind: otel.KindFetchComplete, Time: now, RequestID: 42})

	result := debugOverlay(ring, 120, 40, now)

	if !strings.Contains(result, "Recent Events") {
		t.Error("overlay should contain 'Recent Events' header")
	}
	for _, want := range []string{"forced", "images", "ERR:timeout", "req:42"} {
		if !strings.Contains(result, want) {
			t.Errorf("overlay missing %q, got:\n%s", want, result)
		}
	}
}

func TestDebugOverlayTruncation(t *testing.T) {
	now := time.Now()
	ring := otel.NewRingBuffer(64)
	for i := 0; i < 30; i++ {
		ring.Push(otel.Event{Kind: otel.KindFetchStart, Time: now})
	}

	height := 20
	result := debugOverlay(ring, 120, height, now)
	if lines := strings.Count(result, "\n") + 1; lines > height {
		t.Errorf("overlay has %d lines, want <= %d", lines, height)
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "0ms"},
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{3 * time.Minute, "3m"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.d); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestDebugToggle(t *testing.T) {
	app := NewApp(Actions{}, otel.NewRingBuffer(16))
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app = m.(App)

	m, _ = app.Update(keyMsg("D"))
	app = m.(App)
	if !app.debug {
		t.Fatal("D should open the debug overlay")
	}
	if !strings.Contains(app.View(), "[DEBUG]") {
		t.Error("debug view should show the debug status bar")
	}

	m, _ = app.Update(keyMsg("D"))
	app = m.(App)
	if app.debug {
		t.Error("D should close the debug overlay")
	}
}

func TestDebugToggleWithoutRing(t *testing.T) {
	app := NewApp(Actions{}, nil)
	m, _ := app.Update(keyMsg("D"))
	if m.(App).debug {
		t.Error("debug overlay should stay closed without a ring buffer")
	}
}
