// Package remotetest provides an in-memory remote.Store for tests.
package remotetest

import (
	"context"
	"errors"
	"sync"

	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/remote"
)

// ErrDown is returned by categories marked failing.
var ErrDown = errors.New("remotetest: store unavailable")

// Store is a goroutine-safe fake. Zero value is an empty, healthy store.
type Store struct {
	mu sync.Mutex

	Exercises       []remote.ExerciseRecord
	LessonPlans     []remote.LessonPlanRecord
	Correspondences []remote.CorrespondenceRecord
	Images          []remote.ImageRecord
	MusicLessons    []remote.MusicLessonRecord

	// Fail maps a category to the error its Get call returns.
	Fail map[content.Category]error
	// DeleteErr is returned by every Delete call when set.
	DeleteErr error
	// OnGet runs at the start of every Get call, before failure handling.
	OnGet func(ctx context.Context, c content.Category)

	calls       map[content.Category]int
	forcedImage int
	deleted     []string
}

// FailAll marks every category failing with err.
func (s *Store) FailAll(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fail = make(map[content.Category]error)
	for _, t := range content.Types {
		s.Fail[t.Category()] = err
	}
}

// Heal clears every failure.
func (s *Store) Heal() {
	s.mu.Lock()
	s.Fail = nil
	s.mu.Unlock()
}

// Calls returns how many times the category was fetched.
func (s *Store) Calls(c content.Category) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[c]
}

// TotalCalls sums Calls over every category.
func (s *Store) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.calls {
		n += v
	}
	return n
}

// ForcedImageCalls counts GetImages calls made with force set.
func (s *Store) ForcedImageCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forcedImage
}

// Deleted returns the ids passed to Delete calls, in order.
func (s *Store) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func (s *Store) enter(ctx context.Context, c content.Category) error {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[content.Category]int)
	}
	s.calls[c]++
	hook := s.OnGet
	s.mu.Unlock()

	if hook != nil {
		hook(ctx, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Fail[c]
}

func (s *Store) GetExercises(ctx context.Context) ([]remote.ExerciseRecord, error) {
	if err := s.enter(ctx, content.CategoryExercises); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.ExerciseRecord(nil), s.Exercises...), nil
}

func (s *Store) GetLessonPlans(ctx context.Context) ([]remote.LessonPlanRecord, error) {
	if err := s.enter(ctx, content.CategoryLessonPlans); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.LessonPlanRecord(nil), s.LessonPlans...), nil
}

func (s *Store) GetCorrespondences(ctx context.Context) ([]remote.CorrespondenceRecord, error) {
	if err := s.enter(ctx, content.CategoryCorrespondences); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.CorrespondenceRecord(nil), s.Correspondences...), nil
}

func (s *Store) GetImages(ctx context.Context, force bool) ([]remote.ImageRecord, error) {
	if force {
		s.mu.Lock()
		s.forcedImage++
		s.mu.Unlock()
	}
	if err := s.enter(ctx, content.CategoryImages); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.ImageRecord(nil), s.Images...), nil
}

func (s *Store) GetMusicLessons(ctx context.Context) ([]remote.MusicLessonRecord, error) {
	if err := s.enter(ctx, content.CategoryMusicLessons); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.MusicLessonRecord(nil), s.MusicLessons...), nil
}

func (s *Store) DeleteExercise(_ context.Context, id string) error {
	return s.remove(id, func() {
		s.Exercises = filter(s.Exercises, func(r remote.ExerciseRecord) bool { return r.ID != id })
	})
}

func (s *Store) DeleteLessonPlan(_ context.Context, id string) error {
	return s.remove(id, func() {
		s.LessonPlans = filter(s.LessonPlans, func(r remote.LessonPlanRecord) bool { return r.ID != id })
	})
}

func (s *Store) DeleteCorrespondence(_ context.Context, id string) error {
	return s.remove(id, func() {
		s.Correspondences = filter(s.Correspondences, func(r remote.CorrespondenceRecord) bool { return r.ID != id })
	})
}

func (s *Store) remove(id string, drop func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	drop()
	return nil
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := in[:0:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

var _ remote.Store = (*Store)(nil)
