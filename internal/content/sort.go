package content

import (
	"sort"
	"strings"
)

// SortMode selects the ordering of a merged collection.
type SortMode string

const (
	SortRecent SortMode = "recent"
	SortOldest SortMode = "oldest"
	SortTitle  SortMode = "title"
)

// SortModes lists the modes in the order the UI cycles through them.
var SortModes = []SortMode{SortRecent, SortOldest, SortTitle}

// Next returns the mode after m, wrapping around.
func (m SortMode) Next() SortMode {
	for i, mode := range SortModes {
		if mode == m {
			return SortModes[(i+1)%len(SortModes)]
		}
	}
	return SortRecent
}

// Merge concatenates groups in the order given, drops invalid entries and
// keeps only the first occurrence of each ID.
func Merge(groups ...[]Item) []Item {
	total := 0
	for _, g := range groups {
		total += len(g)
	}

	seen := make(map[string]struct{}, total)
	merged := make([]Item, 0, total)
	for _, g := range groups {
		for _, it := range g {
			if !it.Valid() {
				continue
			}
			if _, dup := seen[it.ID]; dup {
				continue
			}
			seen[it.ID] = struct{}{}
			merged = append(merged, it)
		}
	}
	return merged
}

// Sort orders items in place. The sort is stable, so equal keys keep their
// incoming (category) order and sorting twice is a no-op.
func Sort(items []Item, mode SortMode) {
	switch mode {
	case SortOldest:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		})
	case SortTitle:
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(items[i].Title) < strings.ToLower(items[j].Title)
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}
}

// Sorted returns a sorted copy of items.
func Sorted(items []Item, mode SortMode) []Item {
	out := Clone(items)
	Sort(out, mode)
	return out
}
