// Package filter provides pure filter functions for saved content.
// All functions are simple: []content.Item in, []content.Item out. No side effects.
package filter

import (
	"strings"
	"time"

	"github.com/abelbrown/lessonvault/internal/content"
)

// Tab is a view over the merged collection.
type Tab string

const (
	TabAll            Tab = "all"
	TabExercises      Tab = "exercises"
	TabLessonPlans    Tab = "sequences"
	TabCorrespondence Tab = "correspondence"
	TabImages         Tab = "images"
	TabMusicLessons   Tab = "music"
)

// Tabs lists the tabs in display order.
var Tabs = []Tab{TabAll, TabExercises, TabLessonPlans, TabCorrespondence, TabImages, TabMusicLessons}

// Title returns the display name of the tab.
func (t Tab) Title() string {
	switch t {
	case TabExercises:
		return "Exercises"
	case TabLessonPlans:
		return "Lesson plans"
	case TabCorrespondence:
		return "Correspondence"
	case TabImages:
		return "Images"
	case TabMusicLessons:
		return "Songs"
	}
	return "All"
}

// Type returns the content type shown by the tab, or "" for TabAll.
func (t Tab) Type() content.Type {
	switch t {
	case TabExercises:
		return content.TypeExercise
	case TabLessonPlans:
		return content.TypeLessonPlan
	case TabCorrespondence:
		return content.TypeCorrespondence
	case TabImages:
		return content.TypeImage
	case TabMusicLessons:
		return content.TypeMusicLesson
	}
	return ""
}

// Options narrows and orders the visible collection.
// The zero value keeps everything in recency order.
type Options struct {
	Tab      Tab
	Sort     content.SortMode
	Subjects []string
	From     time.Time // inclusive; zero means unbounded
	To       time.Time // inclusive; zero means unbounded
	Query    string
}

// Apply runs every filter in opts and returns a sorted copy.
func Apply(items []content.Item, opts Options) []content.Item {
	result := ByTab(items, opts.Tab)
	if len(opts.Subjects) > 0 {
		result = BySubjects(result, opts.Subjects)
	}
	if !opts.From.IsZero() || !opts.To.IsZero() {
		result = ByDateRange(result, opts.From, opts.To)
	}
	if strings.TrimSpace(opts.Query) != "" {
		result = ByQuery(result, opts.Query)
	}
	content.Sort(result, opts.Sort)
	return result
}

// ByTab keeps only items of the tab's type. TabAll (or "") keeps everything.
func ByTab(items []content.Item, tab Tab) []content.Item {
	want := tab.Type()
	result := make([]content.Item, 0, len(items))
	for _, item := range items {
		if want == "" || item.Type == want {
			result = append(result, item)
		}
	}
	return result
}

// BySubjects keeps items whose subject matches one of subjects (case-insensitive).
func BySubjects(items []content.Item, subjects []string) []content.Item {
	if len(items) == 0 || len(subjects) == 0 {
		return []content.Item{}
	}

	allowed := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		allowed[strings.ToLower(strings.TrimSpace(s))] = true
	}

	result := make([]content.Item, 0, len(items))
	for _, item := range items {
		if allowed[strings.ToLower(strings.TrimSpace(item.Subject))] {
			result = append(result, item)
		}
	}
	return result
}

// ByDateRange keeps items created within [from, to]. A zero bound is open.
func ByDateRange(items []content.Item, from, to time.Time) []content.Item {
	result := make([]content.Item, 0, len(items))
	for _, item := range items {
		if !from.IsZero() && item.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && item.CreatedAt.After(to) {
			continue
		}
		result = append(result, item)
	}
	return result
}

// ByQuery keeps items whose title, subject or any tag label contains every
// whitespace-separated term of query (case-insensitive).
func ByQuery(items []content.Item, query string) []content.Item {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return content.Clone(items)
	}

	result := make([]content.Item, 0, len(items))
	for _, item := range items {
		haystack := searchText(item)
		match := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				match = false
				break
			}
		}
		if match {
			result = append(result, item)
		}
	}
	return result
}

func searchText(item content.Item) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(item.Title))
	b.WriteByte(' ')
	b.WriteString(strings.ToLower(item.Subject))
	for _, tag := range item.Tags {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(tag.Label))
	}
	return b.String()
}

// Subjects returns the distinct non-empty subjects in first-seen order.
func Subjects(items []content.Item) []string {
	seen := make(map[string]bool)
	var subjects []string
	for _, item := range items {
		s := strings.TrimSpace(item.Subject)
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		subjects = append(subjects, s)
	}
	return subjects
}

// LimitPerType keeps at most maxPerType items of each type, preserving order.
func LimitPerType(items []content.Item, maxPerType int) []content.Item {
	if maxPerType <= 0 {
		return content.Clone(items)
	}
	counts := make(map[content.Type]int)
	result := make([]content.Item, 0, len(items))
	for _, item := range items {
		if counts[item.Type] >= maxPerType {
			continue
		}
		counts[item.Type]++
		result = append(result, item)
	}
	return result
}
