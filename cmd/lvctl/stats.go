package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/abelbrown/lessonvault/internal/cache"
	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/coord"
	"github.com/abelbrown/lessonvault/internal/filter"
	"github.com/abelbrown/lessonvault/internal/remote"
	"github.com/abelbrown/lessonvault/internal/store"
)

type staticAuth string

func (a staticAuth) UserID() string { return string(a) }
func (a staticAuth) Settled() bool  { return true }

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	user := fs.String("user", "", "User id to summarize")
	list := fs.Bool("list", false, "Print every merged item")
	fs.Parse(os.Args[1:])
	requireUser(*user)

	cfg := loadConfig()
	st := openDB(cfg)
	defer st.Close()
	ctx := context.Background()

	// --- Raw table counts ---
	fmt.Println("=== Tables ===")
	for _, table := range store.Tables {
		n, err := st.Count(ctx, table, *user)
		if err != nil {
			fmt.Printf("  %-24s error: %v\n", table, err)
			continue
		}
		fmt.Printf("  %-24s %d\n", table, n)
	}

	// --- The same pipeline the TUI runs ---
	orch := coord.New(coord.Config{
		Auth:   staticAuth(*user),
		Stores: func(uid string) remote.Store { return st.ForUser(uid) },
		Cache:  cache.New(cfg.Timing.HistorySize),
	})
	start := time.Now()
	items := orch.FetchContent(ctx, coord.FetchOptions{Force: true})
	fmt.Printf("\n=== Pipeline (%s) ===\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Merged items:          %d\n", len(items))

	counts := content.CountByType(items)
	for _, typ := range content.Types {
		fmt.Printf("  %-22s %d\n", typ.Label(), counts[typ])
	}
	for cat, msg := range orch.Errors() {
		fmt.Printf("  error %-16s %s\n", cat, msg)
	}

	subjects := filter.Subjects(items)
	fmt.Printf("\nSubjects (%d):\n", len(subjects))
	for _, s := range subjects {
		n := len(filter.BySubjects(items, []string{s}))
		fmt.Printf("  %-24s %d\n", s, n)
	}

	now := time.Now()
	buckets := []time.Duration{24 * time.Hour, 7 * 24 * time.Hour, 30 * 24 * time.Hour}
	labels := []string{"<24h", "<7d", "<30d"}
	fmt.Println("\nBy created_at:")
	for i, d := range buckets {
		n := len(filter.ByDateRange(items, now.Add(-d), time.Time{}))
		fmt.Printf("  %-8s %d\n", labels[i], n)
	}

	if !*list {
		return
	}
	fmt.Println("\n=== Items ===")
	for _, it := range items {
		fmt.Printf("  %s  %-15s %-40s %s\n", it.CreatedAt.Local().Format("2006-01-02 15:04"), it.Type, truncate(it.Title, 40), it.Subject)
	}
}
