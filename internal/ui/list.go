package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/lessonvault/internal/content"
)

// DateBand returns the grouping label for an item created at created.
func DateBand(created, now time.Time) string {
	age := now.Sub(created)
	switch {
	case age < 24*time.Hour:
		return "Today"
	case age < 48*time.Hour:
		return "Yesterday"
	case age < 7*24*time.Hour:
		return "This Week"
	case age < 30*24*time.Hour:
		return "This Month"
	default:
		return "Older"
	}
}

// RenderList renders items with date band headers, scrolled so the cursor
// stays visible. Bands are suppressed when showBands is false (title sort).
func RenderList(items []content.Item, cursor, width, height int, showBands bool, now time.Time) string {
	if len(items) == 0 {
		return HelpStyle.Render("Nothing saved here yet. Press 'r' to refresh.")
	}

	availableHeight := height
	if availableHeight < 1 {
		availableHeight = 1
	}
	scrollOffset := calcScrollOffset(items, cursor, availableHeight, showBands, now)

	var b strings.Builder
	currentBand := ""
	renderedLines := 0
	for i, item := range items {
		if renderedLines >= availableHeight {
			break
		}
		if showBands {
			band := DateBand(item.CreatedAt, now)
			if band != currentBand {
				currentBand = band
				if i >= scrollOffset {
					b.WriteString(DateBandHeader.Render(band))
					b.WriteString("\n")
					renderedLines++
				}
			}
		}
		if i < scrollOffset || renderedLines >= availableHeight {
			continue
		}
		b.WriteString(renderItemLine(item, i == cursor, width))
		b.WriteString("\n")
		renderedLines++
	}
	return b.String()
}

// calcScrollOffset finds the smallest item index such that every line from
// that index through the cursor, band headers included, fits the height.
func calcScrollOffset(items []content.Item, cursor, availableHeight int, showBands bool, now time.Time) int {
	if len(items) == 0 || cursor < 0 {
		return 0
	}
	if cursor >= len(items) {
		cursor = len(items) - 1
	}
	offset := 0
	if cursor >= availableHeight {
		offset = cursor - availableHeight + 1
	}
	if !showBands {
		return offset
	}
	for offset <= cursor {
		if visibleLineCount(items, offset, cursor, now) <= availableHeight {
			return offset
		}
		offset++
	}
	return cursor
}

// visibleLineCount counts the lines items[from..to] render to with bands on.
func visibleLineCount(items []content.Item, from, to int, now time.Time) int {
	lines := 0
	currentBand := ""
	if from > 0 {
		currentBand = DateBand(items[from-1].CreatedAt, now)
	}
	for i := from; i <= to && i < len(items); i++ {
		band := DateBand(items[i].CreatedAt, now)
		if band != currentBand {
			currentBand = band
			lines++
		}
		lines++
	}
	return lines
}

// renderItemLine renders "[Type] Title ..... subject  date".
func renderItemLine(item content.Item, selected bool, width int) string {
	badge := ""
	for _, t := range item.Tags {
		badge += tagBadge(t)
	}
	if badge == "" {
		badge = tagBadge(content.NewTag(item.Type.Label(), "241"))
	}

	meta := item.Subject
	if item.ClassLevel != "" {
		if meta != "" {
			meta += " · "
		}
		meta += item.ClassLevel
	}
	date := item.CreatedAt.Format("Jan 02")
	right := MetaItem.Render(strings.TrimSpace(meta + "  " + date))

	titleWidth := width - lipgloss.Width(badge) - lipgloss.Width(right) - 4
	if titleWidth < 10 {
		titleWidth = 10
	}
	title := item.Title
	if title == "" {
		title = "(untitled)"
	}
	title = truncateRunes(title, titleWidth)

	style := NormalItem
	if selected {
		style = SelectedItem
	}
	left := badge + style.Render(title)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderTabs renders the tab row with per-tab counts.
func renderTabs(active string, titles []string, keys []string, counts map[string]int) string {
	parts := make([]string, 0, len(titles))
	for i, title := range titles {
		label := fmt.Sprintf("%s %d", title, counts[keys[i]])
		if keys[i] == active {
			parts = append(parts, ActiveTab.Render(label))
		} else {
			parts = append(parts, InactiveTab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// truncateRunes cuts s to at most n runes, marking the cut with "...".
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
