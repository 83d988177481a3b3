package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/filter"
	"github.com/abelbrown/lessonvault/internal/notify"
	"github.com/abelbrown/lessonvault/internal/otel"
)

// Actions are the commands the App can ask the page for. Any may be nil.
type Actions struct {
	Load      func() tea.Cmd
	Refresh   func() tea.Cmd
	ChangeTab func(tab filter.Tab) tea.Cmd
	Delete    func(id string, typ content.Type) tea.Cmd
	Select    func(item content.Item)
}

// App is the root Bubble Tea model.
// App does NOT hold the page or the orchestrator. It receives content via messages.
type App struct {
	actions Actions
	ring    *otel.RingBuffer
	now     func() time.Time

	items   []content.Item // last published collection
	visible []content.Item // items under the current view
	view    filter.Options
	cursor  int
	errors  map[string]string

	toast   *notify.Notification
	confirm *content.Item

	preview   bool
	pane      viewport.Model
	searching bool
	search    textinput.Model
	spinner   spinner.Model
	debug     bool

	width   int
	height  int
	ready   bool
	loading bool
}

// NewApp creates an App. ring may be nil, which disables the debug overlay.
func NewApp(actions Actions, ring *otel.RingBuffer) App {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(colorHighlight)

	ti := textinput.New()
	ti.Placeholder = "search titles, subjects, tags"
	ti.Prompt = "/ "
	ti.CharLimit = 80

	return App{
		actions: actions,
		ring:    ring,
		now:     time.Now,
		view:    filter.Options{Tab: filter.TabAll, Sort: content.SortRecent},
		spinner: s,
		search:  ti,
	}
}

// Init kicks off the initial load.
func (a App) Init() tea.Cmd {
	if a.actions.Load == nil {
		return nil
	}
	return tea.Batch(a.actions.Load(), a.spinner.Tick)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.pane.Width = msg.Width
		a.pane.Height = a.previewHeight()
		return a, nil

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case ContentPublished:
		a.loading = false
		a.items = content.Clone(msg.Items)
		a.applyView()
		return a, nil

	case FetchDone:
		a.loading = false
		a.errors = msg.Errors
		return a, nil

	case DeleteDone:
		a.loading = false
		a.errors = msg.Errors
		if msg.Err != nil && a.toast == nil {
			a.toast = &notify.Notification{Level: notify.Error, Message: "Delete failed: " + msg.Err.Error()}
		}
		return a, nil

	case Notice:
		n := msg.N
		a.toast = &n
		return a, nil
	}
	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.searching {
		return a.handleSearchKey(msg)
	}
	if a.confirm != nil {
		return a.handleConfirmKey(msg)
	}
	if a.debug {
		if msg.String() == "D" || msg.String() == "esc" {
			a.debug = false
		}
		return a, nil
	}
	if a.preview {
		switch msg.String() {
		case "esc", "enter", "q":
			a.preview = false
			return a, nil
		}
		var cmd tea.Cmd
		a.pane, cmd = a.pane.Update(msg)
		return a, cmd
	}

	key := msg.String()
	// Toasts persist until the next key, except the retry key which needs them.
	toast := a.toast
	if key != "R" {
		a.toast = nil
	}

	switch key {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "j", "down":
		if a.cursor < len(a.visible)-1 {
			a.cursor++
		}
		return a, nil

	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case "g", "home":
		a.cursor = 0
		return a, nil

	case "G", "end":
		if len(a.visible) > 0 {
			a.cursor = len(a.visible) - 1
		}
		return a, nil

	case "tab", "l", "right":
		return a.switchTab(1)

	case "shift+tab", "h", "left":
		return a.switchTab(-1)

	case "s":
		a.view.Sort = a.view.Sort.Next()
		a.applyView()
		return a, nil

	case "/":
		a.searching = true
		return a, a.search.Focus()

	case "enter":
		item, ok := a.current()
		if !ok {
			return a, nil
		}
		if a.actions.Select != nil {
			a.actions.Select(item)
		}
		a.preview = true
		a.pane = viewport.New(a.width, a.previewHeight())
		a.pane.SetContent(previewBody(item, a.width))
		return a, nil

	case "d":
		item, ok := a.current()
		if !ok {
			return a, nil
		}
		if !item.Type.Deletable() {
			a.toast = &notify.Notification{
				Level:   notify.Warning,
				Message: item.Type.Label() + " items can't be deleted from here.",
			}
			return a, nil
		}
		a.confirm = &item
		return a, nil

	case "r":
		if a.actions.Refresh == nil {
			return a, nil
		}
		a.loading = true
		return a, tea.Batch(a.actions.Refresh(), a.spinner.Tick)

	case "R":
		a.toast = nil
		if toast == nil || toast.Retry == nil {
			return a, nil
		}
		retry := toast.Retry
		a.loading = true
		return a, tea.Batch(func() tea.Msg {
			retry()
			return nil
		}, a.spinner.Tick)

	case "D":
		if a.ring != nil {
			a.debug = true
		}
		return a, nil
	}
	return a, nil
}

func (a App) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item := *a.confirm
	a.confirm = nil
	switch msg.String() {
	case "y", "Y":
		if a.actions.Delete == nil {
			return a, nil
		}
		// Drop it locally right away; the published list follows.
		a.items = content.Without(a.items, item.ID)
		a.applyView()
		a.loading = true
		return a, tea.Batch(a.actions.Delete(item.ID, item.Type), a.spinner.Tick)
	}
	return a, nil
}

func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.searching = false
		a.search.Blur()
		a.search.SetValue("")
		a.view.Query = ""
		a.applyView()
		return a, nil
	case "enter":
		a.searching = false
		a.search.Blur()
		return a, nil
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	a.view.Query = a.search.Value()
	a.applyView()
	return a, cmd
}

func (a App) switchTab(step int) (tea.Model, tea.Cmd) {
	idx := 0
	for i, t := range filter.Tabs {
		if t == a.view.Tab {
			idx = i
			break
		}
	}
	idx = (idx + step + len(filter.Tabs)) % len(filter.Tabs)
	a.view.Tab = filter.Tabs[idx]
	a.cursor = 0
	a.applyView()
	if a.actions.ChangeTab == nil {
		return a, nil
	}
	return a, a.actions.ChangeTab(a.view.Tab)
}

// applyView recomputes the visible list and clamps the cursor.
func (a *App) applyView() {
	a.visible = filter.Apply(a.items, a.view)
	if a.cursor >= len(a.visible) {
		a.cursor = len(a.visible) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a App) current() (content.Item, bool) {
	if a.cursor < 0 || a.cursor >= len(a.visible) {
		return content.Item{}, false
	}
	return a.visible[a.cursor], true
}

func (a App) previewHeight() int {
	h := a.height - 3
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.debug {
		return debugOverlay(a.ring, a.width, a.height-1, a.now()) + "\n" + debugStatusBar(a.width)
	}
	if a.preview {
		item, _ := a.current()
		header := PreviewTitle.Width(a.width).Render(item.Type.Label() + ": " + item.Title)
		footer := StatusBar.Width(a.width).Render(StatusBarKey.Render("esc") + StatusBarText.Render(":back  ") +
			StatusBarKey.Render("j/k") + StatusBarText.Render(":scroll"))
		return header + "\n" + a.pane.View() + "\n" + footer
	}

	var footer []string
	if line := a.errorLine(); line != "" {
		footer = append(footer, ErrorStyle.Width(a.width).Render(line))
	}
	if a.toast != nil {
		footer = append(footer, a.toastLine())
	}
	if a.confirm != nil {
		footer = append(footer, ConfirmStyle.Width(a.width).Render(
			"Delete "+strings.ToLower(a.confirm.Type.Label())+" \""+a.confirm.Title+"\"? (y/n)"))
	}
	if a.searching || a.view.Query != "" {
		footer = append(footer, a.search.View())
	}
	footer = append(footer, a.statusBar())

	tabs := a.tabRow()
	listHeight := a.height - lipgloss.Height(tabs) - len(footer)
	list := RenderList(a.visible, a.cursor, a.width, listHeight, a.view.Sort != content.SortTitle, a.now())

	return tabs + "\n" + list + strings.Join(footer, "\n")
}

func (a App) tabRow() string {
	counts := map[string]int{string(filter.TabAll): len(a.items)}
	for typ, n := range content.CountByType(a.items) {
		for _, t := range filter.Tabs {
			if t.Type() == typ {
				counts[string(t)] = n
			}
		}
	}
	titles := make([]string, len(filter.Tabs))
	keys := make([]string, len(filter.Tabs))
	for i, t := range filter.Tabs {
		titles[i] = t.Title()
		keys[i] = string(t)
	}
	return renderTabs(string(a.view.Tab), titles, keys, counts)
}

// errorLine joins the per-category errors in a stable order.
func (a App) errorLine() string {
	if len(a.errors) == 0 {
		return ""
	}
	var parts []string
	for _, typ := range content.Types {
		if msg, ok := a.errors[string(typ.Category())]; ok {
			parts = append(parts, msg)
		}
	}
	for _, key := range []string{"fetch", "delete"} {
		if msg, ok := a.errors[key]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, " · ")
}

func (a App) toastLine() string {
	n := a.toast
	text := n.Title
	switch {
	case text == "":
		text = n.Message
	case n.Message != "":
		text += ": " + n.Message
	}
	if n.Retry != nil {
		text += "  (R to retry)"
	}
	return toastStyle(n.Level).Width(a.width).Render(text)
}

func (a App) statusBar() string {
	pos := "0/0"
	if len(a.visible) > 0 {
		pos = strconv.Itoa(a.cursor+1) + "/" + strconv.Itoa(len(a.visible))
	}
	left := pos + "  " + string(a.view.Sort)
	if a.loading {
		left = a.spinner.View() + " " + left
	}
	keys := []string{
		StatusBarKey.Render("tab") + StatusBarText.Render(":view"),
		StatusBarKey.Render("s") + StatusBarText.Render(":sort"),
		StatusBarKey.Render("/") + StatusBarText.Render(":search"),
		StatusBarKey.Render("r") + StatusBarText.Render(":refresh"),
		StatusBarKey.Render("d") + StatusBarText.Render(":delete"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	return StatusBar.Width(a.width).Render(left + "  " + strings.Join(keys, " "))
}

// previewBody renders an item's full text for the preview pane.
func previewBody(item content.Item, width int) string {
	var b strings.Builder
	meta := []string{item.CreatedAt.Format("Mon 02 Jan 2006 15:04")}
	if item.Subject != "" {
		meta = append(meta, item.Subject)
	}
	if item.ClassLevel != "" {
		meta = append(meta, item.ClassLevel)
	}
	b.WriteString(MetaItem.Render(strings.Join(meta, " · ")))
	b.WriteString("\n\n")
	body := item.Content
	if item.Type == content.TypeImage {
		body = "Image: " + body
	}
	b.WriteString(lipgloss.NewStyle().Width(max(width-2, 10)).Render(body))
	return b.String()
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Visible returns the items under the current view (for testing).
func (a App) Visible() []content.Item {
	return a.visible
}

// ViewOptions returns the current view (for testing).
func (a App) ViewOptions() filter.Options {
	return a.view
}
