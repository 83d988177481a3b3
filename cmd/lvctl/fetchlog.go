package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/abelbrown/lessonvault/internal/otel"
)

// fetchSummary folds one fetch request's event chain (start, per-category
// results, retries, and how it ended) into a single record.
type fetchSummary struct {
	Session   string
	Req       uint64
	Start     time.Time
	Forced    bool
	OK        []string
	Failed    map[string]string // category -> last error
	Retries   int
	Outcome   string // complete, cancel, superseded, exhausted, or running
	Count     int
	DurMs     float64
	CacheNote string // update, partial, or preserve
}

type fetchKey struct {
	session string
	req     uint64
}

// summarizeFetches reads a JSONL event log and returns one summary per fetch
// request, oldest first. Request ids restart each run, so the session id is
// part of the key.
func summarizeFetches(r io.Reader) []*fetchSummary {
	er := newEventReader(r)
	byKey := make(map[fetchKey]*fetchSummary)
	var order []*fetchSummary

	for {
		dl, err := er.next()
		if errors.Is(err, errSkipLine) {
			continue
		}
		if err != nil {
			break
		}
		if dl.ev.RequestID == 0 {
			continue
		}
		ev := dl.ev
		key := fetchKey{ev.SessionID, ev.RequestID}
		s, ok := byKey[key]
		if !ok {
			s = &fetchSummary{Session: ev.SessionID, Req: ev.RequestID, Start: ev.Time, Outcome: "running", Failed: map[string]string{}}
			byKey[key] = s
			order = append(order, s)
		}
		applyEvent(s, ev)
	}
	return order
}

func applyEvent(s *fetchSummary, ev otel.Event) {
	switch ev.Kind {
	case otel.KindFetchStart:
		s.Start = ev.Time
		s.Forced = ev.Msg == "forced"
	case otel.KindCategoryOK:
		s.OK = append(s.OK, ev.Category)
	case otel.KindCategoryError:
		s.Failed[ev.Category] = ev.Err
	case otel.KindFetchRetry:
		s.Retries = ev.Count
	case otel.KindCacheUpdate:
		s.CacheNote = "update"
		if ev.Msg == "partial" {
			s.CacheNote = "partial"
		}
	case otel.KindCachePreserve:
		s.CacheNote = "preserve"
	case otel.KindFetchComplete:
		s.Outcome = "complete"
		s.Count = ev.Count
		s.DurMs = ev.DurMs
	case otel.KindFetchCancel:
		s.Outcome = "cancel"
		if ev.Msg == "superseded" {
			s.Outcome = "superseded"
		}
		s.Count = ev.Count
	case otel.KindFetchExhausted:
		s.Outcome = "exhausted"
	}
}

// filterFetches keeps fetches matching req (0 = any) that touched category
// ("" = any).
func filterFetches(in []*fetchSummary, req uint64, category string) []*fetchSummary {
	out := in[:0:0]
	for _, s := range in {
		if req != 0 && s.Req != req {
			continue
		}
		if category != "" && !s.touched(category) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (s *fetchSummary) touched(category string) bool {
	if _, ok := s.Failed[category]; ok {
		return true
	}
	for _, c := range s.OK {
		if c == category {
			return true
		}
	}
	return false
}

// categoryErrorCounts totals failures per category across fetches.
func categoryErrorCounts(fetches []*fetchSummary) map[string]int {
	counts := make(map[string]int)
	for _, s := range fetches {
		for c := range s.Failed {
			counts[c]++
		}
	}
	return counts
}

func printFetches(w io.Writer, fetches []*fetchSummary) {
	if len(fetches) == 0 {
		fmt.Fprintln(w, "No fetches recorded.")
		return
	}
	for _, s := range fetches {
		mode := "cached"
		if s.Forced {
			mode = "forced"
		}
		line := fmt.Sprintf("#%-4d %s %-6s %-10s n=%d", s.Req, s.Start.Local().Format("Jan 02 15:04:05"), mode, s.Outcome, s.Count)
		if s.DurMs > 0 {
			line += fmt.Sprintf(" (%.0fms)", s.DurMs)
		}
		if s.CacheNote != "" {
			line += " cache=" + s.CacheNote
		}
		fmt.Fprintln(w, line)
		if len(s.OK) > 0 {
			fmt.Fprintf(w, "      ok: %s\n", strings.Join(s.OK, " "))
		}
		for _, c := range sortedKeys(s.Failed) {
			fmt.Fprintf(w, "      failed: %s (%s)\n", c, truncate(s.Failed[c], 60))
		}
		if s.Retries > 0 {
			fmt.Fprintf(w, "      retries: %d\n", s.Retries)
		}
	}

	counts := categoryErrorCounts(fetches)
	if len(counts) == 0 {
		return
	}
	parts := make([]string, 0, len(counts))
	for _, c := range sortedKeys(counts) {
		parts = append(parts, fmt.Sprintf("%s x%d", c, counts[c]))
	}
	fmt.Fprintf(w, "\nCategory errors across %d fetches: %s\n", len(fetches), strings.Join(parts, ", "))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
