package store

import (
	"context"

	"github.com/abelbrown/lessonvault/internal/remote"
)

// ForUser scopes the store to one user as a remote.Store.
func (s *Store) ForUser(userID string) remote.Store {
	return &userStore{s: s, uid: userID}
}

type userStore struct {
	s   *Store
	uid string
}

func (u *userStore) GetExercises(ctx context.Context) ([]remote.ExerciseRecord, error) {
	return u.s.ListExercises(ctx, u.uid)
}

func (u *userStore) GetLessonPlans(ctx context.Context) ([]remote.LessonPlanRecord, error) {
	return u.s.ListLessonPlans(ctx, u.uid)
}

func (u *userStore) GetCorrespondences(ctx context.Context) ([]remote.CorrespondenceRecord, error) {
	return u.s.ListCorrespondences(ctx, u.uid)
}

// GetImages reads straight from the database, so force has nothing to bypass.
func (u *userStore) GetImages(ctx context.Context, _ bool) ([]remote.ImageRecord, error) {
	return u.s.ListImages(ctx, u.uid)
}

func (u *userStore) GetMusicLessons(ctx context.Context) ([]remote.MusicLessonRecord, error) {
	return u.s.ListMusicLessons(ctx, u.uid)
}

func (u *userStore) DeleteExercise(ctx context.Context, id string) error {
	return u.s.DeleteExercise(ctx, u.uid, id)
}

func (u *userStore) DeleteLessonPlan(ctx context.Context, id string) error {
	return u.s.DeleteLessonPlan(ctx, u.uid, id)
}

func (u *userStore) DeleteCorrespondence(ctx context.Context, id string) error {
	return u.s.DeleteCorrespondence(ctx, u.uid, id)
}
