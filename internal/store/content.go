package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/abelbrown/lessonvault/internal/remote"
)

// ListExercises returns the user's exercises, newest first.
// Thread-safe: acquires read lock.
func (s *Store) ListExercises(ctx context.Context, userID string) ([]remote.ExerciseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, content, subject, class_level, exercise_type,
			exercise_category, created_at, updated_at
		FROM saved_exercises
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return scanAll(rows, func(r *sql.Rows) (remote.ExerciseRecord, error) {
		var e remote.ExerciseRecord
		err := r.Scan(&e.ID, &e.UserID, &e.Title, &e.Content, &e.Subject, &e.ClassLevel,
			&e.ExerciseType, &e.ExerciseCategory, &e.CreatedAt, &e.UpdatedAt)
		return e, err
	})
}

// SaveExercise inserts or updates an exercise owned by e.UserID and returns
// the stored record.
// Thread-safe: acquires write lock.
func (s *Store) SaveExercise(ctx context.Context, e remote.ExerciseRecord) (remote.ExerciseRecord, error) {
	if e.UserID == "" {
		return e, fmt.Errorf("save exercise: missing user id")
	}
	if e.ExerciseCategory == "" {
		e.ExerciseCategory = "standard"
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stamp(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_exercises (id, user_id, title, content, subject, class_level,
			exercise_type, exercise_category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			subject = excluded.subject,
			class_level = excluded.class_level,
			exercise_type = excluded.exercise_type,
			exercise_category = excluded.exercise_category,
			updated_at = excluded.updated_at
		WHERE saved_exercises.user_id = excluded.user_id
	`, e.ID, e.UserID, e.Title, e.Content, e.Subject, e.ClassLevel,
		e.ExerciseType, e.ExerciseCategory, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return e, fmt.Errorf("save exercise: %w", err)
	}
	return e, nil
}

// DeleteExercise removes one of the user's exercises.
// Thread-safe: acquires write lock.
func (s *Store) DeleteExercise(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteRow(ctx, TableExercises, userID, id)
}

// ListLessonPlans returns the user's lesson plans, newest first.
// Thread-safe: acquires read lock.
func (s *Store) ListLessonPlans(ctx context.Context, userID string) ([]remote.LessonPlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, content, subject, class_level, total_sessions,
			created_at, updated_at
		FROM saved_lesson_plans
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list lesson plans: %w", err)
	}
	return scanAll(rows, func(r *sql.Rows) (remote.LessonPlanRecord, error) {
		var p remote.LessonPlanRecord
		err := r.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.Subject, &p.ClassLevel,
			&p.TotalSessions, &p.CreatedAt, &p.UpdatedAt)
		return p, err
	})
}

// SaveLessonPlan inserts or updates a lesson plan.
// Thread-safe: acquires write lock.
func (s *Store) SaveLessonPlan(ctx context.Context, p remote.LessonPlanRecord) (remote.LessonPlanRecord, error) {
	if p.UserID == "" {
		return p, fmt.Errorf("save lesson plan: missing user id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_lesson_plans (id, user_id, title, content, subject, class_level,
			total_sessions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			subject = excluded.subject,
			class_level = excluded.class_level,
			total_sessions = excluded.total_sessions,
			updated_at = excluded.updated_at
		WHERE saved_lesson_plans.user_id = excluded.user_id
	`, p.ID, p.UserID, p.Title, p.Content, p.Subject, p.ClassLevel,
		p.TotalSessions, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return p, fmt.Errorf("save lesson plan: %w", err)
	}
	return p, nil
}

// DeleteLessonPlan removes one of the user's lesson plans.
// Thread-safe: acquires write lock.
func (s *Store) DeleteLessonPlan(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteRow(ctx, TableLessonPlans, userID, id)
}

// ListCorrespondences returns the user's correspondences, newest first.
// Thread-safe: acquires read lock.
func (s *Store) ListCorrespondences(ctx context.Context, userID string) ([]remote.CorrespondenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, content, recipient_type, tone, created_at, updated_at
		FROM saved_correspondences
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list correspondences: %w", err)
	}
	return scanAll(rows, func(r *sql.Rows) (remote.CorrespondenceRecord, error) {
		var c remote.CorrespondenceRecord
		err := r.Scan(&c.ID, &c.UserID, &c.Title, &c.Content, &c.RecipientType, &c.Tone,
			&c.CreatedAt, &c.UpdatedAt)
		return c, err
	})
}

// SaveCorrespondence inserts or updates a correspondence.
// Thread-safe: acquires write lock.
func (s *Store) SaveCorrespondence(ctx context.Context, c remote.CorrespondenceRecord) (remote.CorrespondenceRecord, error) {
	if c.UserID == "" {
		return c, fmt.Errorf("save correspondence: missing user id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_correspondences (id, user_id, title, content, recipient_type, tone,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			recipient_type = excluded.recipient_type,
			tone = excluded.tone,
			updated_at = excluded.updated_at
		WHERE saved_correspondences.user_id = excluded.user_id
	`, c.ID, c.UserID, c.Title, c.Content, c.RecipientType, c.Tone, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return c, fmt.Errorf("save correspondence: %w", err)
	}
	return c, nil
}

// DeleteCorrespondence removes one of the user's correspondences.
// Thread-safe: acquires write lock.
func (s *Store) DeleteCorrespondence(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteRow(ctx, TableCorrespondences, userID, id)
}

// ListImages returns the user's successful generations that have a URL,
// newest first, capped at ImageLimit.
// Thread-safe: acquires read lock.
func (s *Store) ListImages(ctx context.Context, userID string) ([]remote.ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, prompt, image_url, status, generated_at
		FROM image_generation_usage
		WHERE user_id = ? AND status = ? AND image_url != ''
		ORDER BY generated_at DESC
		LIMIT ?
	`, userID, ImageStatusSuccess, ImageLimit)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return scanAll(rows, func(r *sql.Rows) (remote.ImageRecord, error) {
		var im remote.ImageRecord
		err := r.Scan(&im.ID, &im.UserID, &im.Prompt, &im.ImageURL, &im.Status, &im.GeneratedAt)
		return im, err
	})
}

// SaveImage records an image generation.
// Thread-safe: acquires write lock.
func (s *Store) SaveImage(ctx context.Context, im remote.ImageRecord) (remote.ImageRecord, error) {
	if im.UserID == "" {
		return im, fmt.Errorf("save image: missing user id")
	}
	if im.Status == "" {
		im.Status = ImageStatusSuccess
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	generated := im.GeneratedAt
	s.stamp(&im.ID, &im.GeneratedAt, &generated)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO image_generation_usage (id, user_id, prompt, image_url, status, generated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			prompt = excluded.prompt,
			image_url = excluded.image_url,
			status = excluded.status
		WHERE image_generation_usage.user_id = excluded.user_id
	`, im.ID, im.UserID, im.Prompt, im.ImageURL, im.Status, im.GeneratedAt)
	if err != nil {
		return im, fmt.Errorf("save image: %w", err)
	}
	return im, nil
}

// ListMusicLessons returns the user's music lessons, newest first.
// Thread-safe: acquires read lock.
func (s *Store) ListMusicLessons(ctx context.Context, userID string) ([]remote.MusicLessonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, content, lyrics, subject, class_level, music_genre,
			created_at, updated_at
		FROM saved_music_lessons
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list music lessons: %w", err)
	}
	return scanAll(rows, func(r *sql.Rows) (remote.MusicLessonRecord, error) {
		var m remote.MusicLessonRecord
		err := r.Scan(&m.ID, &m.UserID, &m.Title, &m.Content, &m.Lyrics, &m.Subject,
			&m.ClassLevel, &m.MusicGenre, &m.CreatedAt, &m.UpdatedAt)
		return m, err
	})
}

// SaveMusicLesson inserts or updates a music lesson.
// Thread-safe: acquires write lock.
func (s *Store) SaveMusicLesson(ctx context.Context, m remote.MusicLessonRecord) (remote.MusicLessonRecord, error) {
	if m.UserID == "" {
		return m, fmt.Errorf("save music lesson: missing user id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_music_lessons (id, user_id, title, content, lyrics, subject,
			class_level, music_genre, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			lyrics = excluded.lyrics,
			subject = excluded.subject,
			class_level = excluded.class_level,
			music_genre = excluded.music_genre,
			updated_at = excluded.updated_at
		WHERE saved_music_lessons.user_id = excluded.user_id
	`, m.ID, m.UserID, m.Title, m.Content, m.Lyrics, m.Subject, m.ClassLevel,
		m.MusicGenre, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return m, fmt.Errorf("save music lesson: %w", err)
	}
	return m, nil
}

// scanAll drains rows through scan. It closes rows.
func scanAll[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
