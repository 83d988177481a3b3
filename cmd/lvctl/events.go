package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abelbrown/lessonvault/internal/otel"
	"github.com/abelbrown/lessonvault/internal/ring"
)

func runEvents() {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	tail := fs.Int("tail", 20, "How many fetches (or lines with -lines) to show")
	lines := fs.Bool("lines", false, "Show individual events instead of per-fetch summaries")
	follow := fs.Bool("f", false, "With -lines: keep printing new events")
	kind := fs.String("kind", "", "With -lines: event kind prefix (e.g. 'delete', 'project')")
	level := fs.String("level", "", "With -lines: minimum level (debug, info, warn, error)")
	category := fs.String("category", "", "Only fetches or events touching this category (e.g. 'images')")
	req := fs.Uint64("req", 0, "Only this fetch request id")
	rawJSON := fs.Bool("json", false, "With -lines: print raw JSON")
	fs.Parse(os.Args[1:])

	path := eventLogPath()
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintf(os.Stderr, "  No event log at %s. Run lessonvault first.\n", path)
		os.Exit(1)
	}
	defer f.Close()

	if !*lines {
		fetches := summarizeFetches(f)
		fetches = filterFetches(fetches, *req, *category)
		if len(fetches) > *tail {
			fetches = fetches[len(fetches)-*tail:]
		}
		printFetches(os.Stdout, fetches)
		return
	}

	filter := eventFilter{kind: *kind, category: *category, req: *req, minLevel: otel.Level(*level)}
	last := ring.New[decodedLine](*tail)
	er := newEventReader(f)
	for {
		dl, err := er.next()
		if errors.Is(err, errSkipLine) {
			continue
		}
		if err != nil {
			break
		}
		if filter.match(dl.ev) {
			last.Push(dl)
		}
	}
	for _, dl := range last.Snapshot() {
		fmt.Println(formatEvent(dl, *rawJSON))
	}
	if !*follow {
		return
	}
	for {
		dl, err := er.next()
		switch {
		case errors.Is(err, io.EOF):
			time.Sleep(100 * time.Millisecond)
		case err != nil && !errors.Is(err, errSkipLine):
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		case err == nil && filter.match(dl.ev):
			fmt.Println(formatEvent(dl, *rawJSON))
		}
	}
}

type decodedLine struct {
	ev  otel.Event
	raw string
}

var errSkipLine = errors.New("skip")

// eventReader decodes JSONL events line by line. An unterminated last line
// is held until the writer finishes it.
type eventReader struct {
	r       *bufio.Reader
	partial string
}

func newEventReader(r io.Reader) *eventReader {
	return &eventReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// next returns the next event. Blank or malformed lines return errSkipLine.
func (er *eventReader) next() (decodedLine, error) {
	line, err := er.r.ReadString('\n')
	if err != nil {
		er.partial += line
		return decodedLine{}, err
	}
	line, er.partial = er.partial+line, ""
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return decodedLine{}, errSkipLine
	}
	var ev otel.Event
	if json.Unmarshal([]byte(line), &ev) != nil {
		return decodedLine{}, errSkipLine
	}
	return decodedLine{ev: ev, raw: line}, nil
}

type eventFilter struct {
	kind     string
	category string
	req      uint64
	minLevel otel.Level
}

func (f eventFilter) match(ev otel.Event) bool {
	if f.kind != "" && !strings.HasPrefix(string(ev.Kind), f.kind) {
		return false
	}
	if f.category != "" && ev.Category != f.category {
		return false
	}
	if f.req != 0 && ev.RequestID != f.req {
		return false
	}
	return levelRank(ev.Level) >= levelRank(f.minLevel)
}

func levelRank(l otel.Level) int {
	switch l {
	case otel.LevelInfo:
		return 1
	case otel.LevelWarn:
		return 2
	case otel.LevelError:
		return 3
	}
	return 0
}

func formatEvent(dl decodedLine, raw bool) string {
	if raw {
		return dl.raw
	}
	ev := dl.ev
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %-18s", ev.Time.Format("15:04:05.000"), strings.ToUpper(string(ev.Level)), ev.Kind)
	if ev.RequestID != 0 {
		fmt.Fprintf(&b, " #%d", ev.RequestID)
	}
	if ev.Category != "" {
		b.WriteString(" " + ev.Category)
	}
	if ev.ItemID != "" {
		b.WriteString(" item=" + ev.ItemID)
	}
	if ev.Count > 0 {
		fmt.Fprintf(&b, " n=%d", ev.Count)
	}
	if ev.DurMs > 0 {
		fmt.Fprintf(&b, " %.0fms", ev.DurMs)
	}
	if ev.Msg != "" {
		b.WriteString(" " + ev.Msg)
	}
	if ev.Err != "" {
		b.WriteString(" err=" + truncate(ev.Err, 80))
	}
	return b.String()
}
