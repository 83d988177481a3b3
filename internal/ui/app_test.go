package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/filter"
	"github.com/abelbrown/lessonvault/internal/notify"
)

var base = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

func sample() []content.Item {
	return []content.Item{
		{ID: "ex1", Type: content.TypeExercise, Title: "Fractions", Subject: "Maths", CreatedAt: base.Add(-1 * time.Hour)},
		{ID: "lp1", Type: content.TypeLessonPlan, Title: "Volcanoes", Subject: "Geography", CreatedAt: base.Add(-2 * time.Hour)},
		{ID: "img1", Type: content.TypeImage, Title: "Owl", Content: "https://cdn/owl.png", CreatedAt: base.Add(-3 * 24 * time.Hour)},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// mockActions records which actions the App asked for.
type mockActions struct {
	loads, refreshes int
	tabs             []filter.Tab
	deleted          []string
	selected         []string
}

func (m *mockActions) actions() Actions {
	return Actions{
		Load: func() tea.Cmd {
			m.loads++
			return func() tea.Msg { return ContentPublished{Items: sample()} }
		},
		Refresh: func() tea.Cmd {
			m.refreshes++
			return func() tea.Msg { return FetchDone{} }
		},
		ChangeTab: func(tab filter.Tab) tea.Cmd {
			m.tabs = append(m.tabs, tab)
			return func() tea.Msg { return FetchDone{} }
		},
		Delete: func(id string, typ content.Type) tea.Cmd {
			m.deleted = append(m.deleted, id)
			return func() tea.Msg { return DeleteDone{ID: id} }
		},
		Select: func(item content.Item) {
			m.selected = append(m.selected, item.ID)
		},
	}
}

func newTestApp(t *testing.T) (App, *mockActions) {
	t.Helper()
	mock := &mockActions{}
	app := NewApp(mock.actions(), nil)
	app.now = func() time.Time { return base }
	app = step(t, app, tea.WindowSizeMsg{Width: 100, Height: 30})
	app = step(t, app, ContentPublished{Items: sample()})
	return app, mock
}

func step(t *testing.T, app App, msg tea.Msg) App {
	t.Helper()
	m, _ := app.Update(msg)
	return m.(App)
}

func TestAppInit(t *testing.T) {
	mock := &mockActions{}
	app := NewApp(mock.actions(), nil)

	if cmd := app.Init(); cmd == nil {
		t.Fatal("Init should return a command")
	}
	if mock.loads != 1 {
		t.Errorf("Init should call Load once, got %d", mock.loads)
	}
}

func TestAppInitNilLoad(t *testing.T) {
	app := NewApp(Actions{}, nil)
	if cmd := app.Init(); cmd != nil {
		t.Error("Init should return nil when Load is nil")
	}
}

func TestAppNavigation(t *testing.T) {
	app, _ := newTestApp(t)

	if app.Cursor() != 0 {
		t.Fatalf("initial cursor = %d", app.Cursor())
	}
	app = step(t, app, keyMsg("j"))
	app = step(t, app, keyMsg("j"))
	app = step(t, app, keyMsg("j"))
	if app.Cursor() != 2 {
		t.Errorf("cursor should stop at last item, got %d", app.Cursor())
	}
	app = step(t, app, keyMsg("k"))
	if app.Cursor() != 1 {
		t.Errorf("k should move up, got %d", app.Cursor())
	}
	app = step(t, app, keyMsg("g"))
	if app.Cursor() != 0 {
		t.Errorf("g should jump to top, got %d", app.Cursor())
	}
	app = step(t, app, keyMsg("G"))
	if app.Cursor() != 2 {
		t.Errorf("G should jump to bottom, got %d", app.Cursor())
	}
}

func TestAppTabChange(t *testing.T) {
	app, mock := newTestApp(t)

	m, cmd := app.Update(keyMsg("tab"))
	app = m.(App)
	if app.ViewOptions().Tab != filter.TabExercises {
		t.Fatalf("tab = %s, want exercises", app.ViewOptions().Tab)
	}
	if cmd == nil || len(mock.tabs) != 1 || mock.tabs[0] != filter.TabExercises {
		t.Errorf("ChangeTab calls = %v", mock.tabs)
	}
	if got := app.Visible(); len(got) != 1 || got[0].ID != "ex1" {
		t.Errorf("visible = %+v", got)
	}

	app = step(t, app, keyMsg("shift+tab"))
	app = step(t, app, keyMsg("shift+tab"))
	if app.ViewOptions().Tab != filter.TabMusicLessons {
		t.Errorf("shift+tab should wrap to the last tab, got %s", app.ViewOptions().Tab)
	}
	if len(app.Visible()) != 0 {
		t.Errorf("music tab should be empty, got %d", len(app.Visible()))
	}
}

func TestAppSortCycle(t *testing.T) {
	app, _ := newTestApp(t)

	app = step(t, app, keyMsg("s"))
	if app.ViewOptions().Sort != content.SortOldest {
		t.Fatalf("sort = %s", app.ViewOptions().Sort)
	}
	if app.Visible()[0].ID != "img1" {
		t.Errorf("oldest first = %s", app.Visible()[0].ID)
	}
	app = step(t, app, keyMsg("s"))
	if app.ViewOptions().Sort != content.SortTitle || app.Visible()[0].ID != "ex1" {
		t.Errorf("title sort: %s first=%s", app.ViewOptions().Sort, app.Visible()[0].ID)
	}
}

func TestAppSearch(t *testing.T) {
	app, _ := newTestApp(t)

	app = step(t, app, keyMsg("/"))
	for _, r := range "geog" {
		app = step(t, app, keyMsg(string(r)))
	}
	if got := app.Visible(); len(got) != 1 || got[0].ID != "lp1" {
		t.Fatalf("search result = %+v", got)
	}

	app = step(t, app, keyMsg("esc"))
	if app.ViewOptions().Query != "" || len(app.Visible()) != 3 {
		t.Errorf("esc should clear search, query=%q visible=%d", app.ViewOptions().Query, len(app.Visible()))
	}
}

func TestAppSelectOpensPreview(t *testing.T) {
	app, mock := newTestApp(t)

	app = step(t, app, keyMsg("j"))
	app = step(t, app, keyMsg("enter"))
	if !app.preview {
		t.Fatal("enter should open the preview")
	}
	if len(mock.selected) != 1 || mock.selected[0] != "lp1" {
		t.Errorf("selected = %v", mock.selected)
	}
	if !strings.Contains(app.View(), "Volcanoes") {
		t.Error("preview should show the item title")
	}

	app = step(t, app, keyMsg("esc"))
	if app.preview {
		t.Error("esc should close the preview")
	}
}

func TestAppDeleteConfirm(t *testing.T) {
	app, mock := newTestApp(t)

	app = step(t, app, keyMsg("d"))
	if app.confirm == nil || app.confirm.ID != "ex1" {
		t.Fatalf("confirm = %+v", app.confirm)
	}
	if !strings.Contains(app.View(), "(y/n)") {
		t.Error("view should show the confirmation prompt")
	}

	app = step(t, app, keyMsg("n"))
	if app.confirm != nil || len(mock.deleted) != 0 {
		t.Fatalf("n should cancel, deleted=%v", mock.deleted)
	}

	app = step(t, app, keyMsg("d"))
	m, cmd := app.Update(keyMsg("y"))
	app = m.(App)
	if cmd == nil || len(mock.deleted) != 1 || mock.deleted[0] != "ex1" {
		t.Errorf("deleted = %v", mock.deleted)
	}
	for _, it := range app.Visible() {
		if it.ID == "ex1" {
			t.Error("deleted item should leave the visible list immediately")
		}
	}
}

func TestAppRefusesUndeletableType(t *testing.T) {
	app, mock := newTestApp(t)
	song := content.Item{ID: "song1", Type: content.TypeMusicLesson, Title: "Times Tables Rap", CreatedAt: base}
	app = step(t, app, ContentPublished{Items: append([]content.Item{song}, sample()...)})

	app = step(t, app, keyMsg("d"))
	if app.confirm != nil {
		t.Fatal("music lessons should not reach the confirmation prompt")
	}
	if !strings.Contains(app.View(), "can't be deleted") {
		t.Error("view should explain why nothing was deleted")
	}
	app = step(t, app, keyMsg("y"))
	if len(mock.deleted) != 0 {
		t.Errorf("deleted = %v", mock.deleted)
	}
}

func TestAppDeleteErrorShowsToast(t *testing.T) {
	app, _ := newTestApp(t)
	app = step(t, app, DeleteDone{ID: "ex1", Err: errors.New("store unavailable")})
	if !strings.Contains(app.View(), "Delete failed: store unavailable") {
		t.Error("a failed delete with no notice should still be visible")
	}

	app = step(t, app, Notice{N: notify.Notification{Level: notify.Error, Title: "Delete failed", Message: "Try again"}})
	app = step(t, app, DeleteDone{ID: "ex1", Err: errors.New("later")})
	if strings.Contains(app.View(), "later") {
		t.Error("an existing notice should not be replaced")
	}
}

func TestAppRefresh(t *testing.T) {
	app, mock := newTestApp(t)

	m, cmd := app.Update(keyMsg("r"))
	app = m.(App)
	if cmd == nil || mock.refreshes != 1 {
		t.Errorf("refreshes = %d", mock.refreshes)
	}
	if !app.loading {
		t.Error("refresh should set loading")
	}
	app = step(t, app, FetchDone{Errors: map[string]string{"images": "Could not load images"}})
	if app.loading {
		t.Error("FetchDone should clear loading")
	}
	if !strings.Contains(app.View(), "Could not load images") {
		t.Error("view should show category errors")
	}
}

func TestAppNoticeAndRetry(t *testing.T) {
	app, _ := newTestApp(t)
	retried := make(chan struct{}, 1)

	app = step(t, app, Notice{N: notify.Notification{
		Level:   notify.Error,
		Title:   "Delete failed",
		Message: "Could not delete the exercise",
		Retry:   func() { retried <- struct{}{} },
	}})
	if !strings.Contains(app.View(), "R to retry") {
		t.Fatalf("toast should offer retry, got:\n%s", app.View())
	}

	m, cmd := app.Update(keyMsg("R"))
	app = m.(App)
	if cmd == nil {
		t.Fatal("R should return a retry command")
	}
	if app.toast != nil {
		t.Error("R should dismiss the toast")
	}
	runBatch(cmd)
	select {
	case <-retried:
	default:
		t.Error("retry closure was not run")
	}
}

func TestAppToastDismissedByKey(t *testing.T) {
	app, _ := newTestApp(t)
	app = step(t, app, Notice{N: notify.Notification{Level: notify.Success, Title: "Exercise deleted"}})
	app = step(t, app, keyMsg("j"))
	if app.toast != nil {
		t.Error("any key should dismiss the toast")
	}
}

func TestAppPublishClampsCursor(t *testing.T) {
	app, _ := newTestApp(t)
	app = step(t, app, keyMsg("G"))
	app = step(t, app, ContentPublished{Items: sample()[:1]})
	if app.Cursor() != 0 {
		t.Errorf("cursor = %d after shrink", app.Cursor())
	}
	app = step(t, app, ContentPublished{})
	if app.Cursor() != 0 || len(app.Visible()) != 0 {
		t.Errorf("empty publish: cursor=%d visible=%d", app.Cursor(), len(app.Visible()))
	}
	if !strings.Contains(app.View(), "Nothing saved here yet") {
		t.Error("empty list should show the empty hint")
	}
}

func TestAppQuit(t *testing.T) {
	app, _ := newTestApp(t)
	_, cmd := app.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestDateBand(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{time.Hour, "Today"},
		{30 * time.Hour, "Yesterday"},
		{4 * 24 * time.Hour, "This Week"},
		{20 * 24 * time.Hour, "This Month"},
		{90 * 24 * time.Hour, "Older"},
	}
	for _, tt := range tests {
		if got := DateBand(base.Add(-tt.age), base); got != tt.want {
			t.Errorf("DateBand(-%v) = %q, want %q", tt.age, got, tt.want)
		}
	}
}

func TestRenderListBands(t *testing.T) {
	out := RenderList(sample(), 0, 100, 20, true, base)
	if !strings.Contains(out, "Today") || !strings.Contains(out, "This Week") {
		t.Errorf("missing band headers:\n%s", out)
	}
	out = RenderList(sample(), 0, 100, 20, false, base)
	if strings.Contains(out, "Today") {
		t.Errorf("bands should be suppressed:\n%s", out)
	}
}

func TestCalcScrollOffsetKeepsCursorVisible(t *testing.T) {
	var items []content.Item
	for i := 0; i < 20; i++ {
		items = append(items, content.Item{ID: string(rune('a' + i)), CreatedAt: base.Add(-time.Duration(i) * 24 * time.Hour)})
	}
	for cursor := 0; cursor < len(items); cursor++ {
		off := calcScrollOffset(items, cursor, 5, true, base)
		if off > cursor {
			t.Fatalf("offset %d past cursor %d", off, cursor)
		}
		if n := visibleLineCount(items, off, cursor, base); n > 5 {
			t.Errorf("cursor %d: %d lines from offset %d exceed height", cursor, n, off)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("Géographie", 6); got != "Géo..." {
		t.Errorf("got %q", got)
	}
	if got := truncateRunes("abc", 10); got != "abc" {
		t.Errorf("got %q", got)
	}
	if got := truncateRunes("abc", 0); got != "" {
		t.Errorf("got %q", got)
	}
}

// runBatch executes every command in a (possibly batched) Cmd, skipping ticks.
func runBatch(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			runBatch(c)
		}
	}
}
