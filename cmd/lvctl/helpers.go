package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/abelbrown/lessonvault/internal/config"
	"github.com/abelbrown/lessonvault/internal/store"
)

// loadConfig loads the config or fatals.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// eventLogPath returns the path to lessonvault.events.jsonl.
func eventLogPath() string {
	return filepath.Join(config.Dir(), "lessonvault.events.jsonl")
}

// openDB opens the configured sqlite store or fatals.
func openDB(cfg *config.Config) *store.Store {
	if err := os.MkdirAll(filepath.Dir(cfg.Store.DBPath), 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	st, err := store.Open(cfg.Store.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	return st
}

// requireUser exits unless a user id was given.
func requireUser(user string) {
	if user == "" {
		fmt.Fprintln(os.Stderr, "error: -user is required")
		os.Exit(1)
	}
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
