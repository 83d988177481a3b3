// Package remote defines the content-store contract the retrievers consume
// and the raw record shapes it returns. Implementations live in
// internal/store (local sqlite), internal/remote/rest (HTTP) and
// internal/remote/bucket (generated images on S3).
package remote

import (
	"context"
	"time"
)

// Store is the per-user content backend. Implementations are scoped to one
// user; an unauthenticated caller never reaches a Store.
type Store interface {
	GetExercises(ctx context.Context) ([]ExerciseRecord, error)
	GetLessonPlans(ctx context.Context) ([]LessonPlanRecord, error)
	GetCorrespondences(ctx context.Context) ([]CorrespondenceRecord, error)
	// GetImages bypasses any intermediate cache when force is set.
	GetImages(ctx context.Context, force bool) ([]ImageRecord, error)
	GetMusicLessons(ctx context.Context) ([]MusicLessonRecord, error)

	DeleteExercise(ctx context.Context, id string) error
	DeleteLessonPlan(ctx context.Context, id string) error
	DeleteCorrespondence(ctx context.Context, id string) error
}

// ExerciseRecord is a row of saved_exercises.
type ExerciseRecord struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id,omitempty"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Subject          string    `json:"subject,omitempty"`
	ClassLevel       string    `json:"class_level,omitempty"`
	ExerciseType     string    `json:"exercise_type,omitempty"`
	ExerciseCategory string    `json:"exercise_category,omitempty"` // "standard" or "differentiated"
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// LessonPlanRecord is a row of saved_lesson_plans.
type LessonPlanRecord struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id,omitempty"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Subject       string    `json:"subject,omitempty"`
	ClassLevel    string    `json:"class_level,omitempty"`
	TotalSessions int       `json:"total_sessions,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CorrespondenceRecord is a row of saved_correspondences.
type CorrespondenceRecord struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id,omitempty"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	RecipientType string    `json:"recipient_type,omitempty"`
	Tone          string    `json:"tone,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ImageRecord is a row of image_generation_usage.
type ImageRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Prompt      string    `json:"prompt"`
	ImageURL    string    `json:"image_url"`
	Status      string    `json:"status,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// MusicLessonRecord is a row of saved_music_lessons.
type MusicLessonRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Lyrics     string    `json:"lyrics,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	ClassLevel string    `json:"class_level,omitempty"`
	MusicGenre string    `json:"music_genre,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ImageSource lists generated images from somewhere other than the main store.
type ImageSource interface {
	ListImages(ctx context.Context, force bool) ([]ImageRecord, error)
}

// WithImages returns a Store identical to base except that images come from src.
func WithImages(base Store, src ImageSource) Store {
	return &imageOverride{Store: base, src: src}
}

type imageOverride struct {
	Store
	src ImageSource
}

func (o *imageOverride) GetImages(ctx context.Context, force bool) ([]ImageRecord, error) {
	return o.src.ListImages(ctx, force)
}
