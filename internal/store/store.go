// Package store provides SQLite persistence for saved content.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a delete or lookup matches no row for the user.
var ErrNotFound = errors.New("store: not found")

// Table names, shared with the REST contract.
const (
	TableExercises       = "saved_exercises"
	TableLessonPlans     = "saved_lesson_plans"
	TableCorrespondences = "saved_correspondences"
	TableImages          = "image_generation_usage"
	TableMusicLessons    = "saved_music_lessons"
)

// Tables lists every content table.
var Tables = []string{TableExercises, TableLessonPlans, TableCorrespondences, TableImages, TableMusicLessons}

// ImageLimit caps the images returned by ListImages.
const ImageLimit = 50

// ImageStatusSuccess marks a completed generation.
const ImageStatusSuccess = "success"

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for file-based databases.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, now: time.Now}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saved_exercises (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		class_level TEXT NOT NULL DEFAULT '',
		exercise_type TEXT NOT NULL DEFAULT '',
		exercise_category TEXT NOT NULL DEFAULT 'standard',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exercises_user ON saved_exercises(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS saved_lesson_plans (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		class_level TEXT NOT NULL DEFAULT '',
		total_sessions INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lesson_plans_user ON saved_lesson_plans(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS saved_correspondences (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		recipient_type TEXT NOT NULL DEFAULT '',
		tone TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_correspondences_user ON saved_correspondences(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS image_generation_usage (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		prompt TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		generated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_images_user ON image_generation_usage(user_id, generated_at DESC);

	CREATE TABLE IF NOT EXISTS saved_music_lessons (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		lyrics TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		class_level TEXT NOT NULL DEFAULT '',
		music_genre TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_music_lessons_user ON saved_music_lessons(user_id, created_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// stamp fills a missing id and timestamps. updated_at always moves forward.
func (s *Store) stamp(id *string, created, updated *time.Time) {
	now := s.now().UTC()
	if *id == "" {
		*id = uuid.NewString()
	}
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() || updated.Before(*created) {
		*updated = now
	}
}

// deleteRow removes id from table when it belongs to userID.
// Caller must hold s.mu.
func (s *Store) deleteRow(ctx context.Context, table, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return nil
}

// Delete removes a row from any content table.
// Thread-safe: acquires write lock.
func (s *Store) Delete(ctx context.Context, table, userID, id string) error {
	if !validTable(table) {
		return fmt.Errorf("store: unknown table %q", table)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteRow(ctx, table, userID, id)
}

// Count returns the number of rows the user owns in table.
// Thread-safe: acquires read lock.
func (s *Store) Count(ctx context.Context, table, userID string) (int, error) {
	if !validTable(table) {
		return 0, fmt.Errorf("store: unknown table %q", table)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE user_id = ?", userID).Scan(&n)
	return n, err
}

func validTable(table string) bool {
	for _, t := range Tables {
		if t == table {
			return true
		}
	}
	return false
}
