// Package fetch retrieves saved content one category at a time.
//
// Each Retriever wraps one remote.Store call, converts records to
// content.Item, and reports failures into a shared Errors map instead of
// returning them to the caller's control flow: one failing category never
// fails the others.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/otel"
	"github.com/abelbrown/lessonvault/internal/remote"
)

// Sink receives partial results as soon as a category returns rows, so a
// later cancellation does not lose them. Implemented by cache.Cache.
type Sink interface {
	AppendPending(items []content.Item)
	SetDataReceived(v bool)
}

// Retriever fetches one category.
type Retriever interface {
	Category() content.Category
	// Retrieve returns the category's items. A non-nil error means the
	// category failed; it has already been recorded and the caller only
	// needs it for bookkeeping. A cancelled ctx skips the call and returns
	// (nil, nil).
	Retrieve(ctx context.Context, force bool, reqID uint64) ([]content.Item, error)
}

type retriever[R any] struct {
	category content.Category
	get      func(ctx context.Context, force bool) ([]R, error)
	convert  func(R) (content.Item, bool)
	sink     Sink
	errs     *Errors
	log      *otel.Logger
}

func (r *retriever[R]) Category() content.Category { return r.category }

func (r *retriever[R]) Retrieve(ctx context.Context, force bool, reqID uint64) (items []content.Item, err error) {
	if ctx.Err() != nil {
		return nil, nil
	}

	start := time.Now()
	defer func() {
		// A panicking store is a failed category, not a failed fetch.
		if p := recover(); p != nil {
			items, err = nil, r.fail(fmt.Errorf("panic: %v", p), reqID, start)
		}
	}()

	records, getErr := r.get(ctx, force)
	if getErr != nil {
		return nil, r.fail(getErr, reqID, start)
	}

	items = make([]content.Item, 0, len(records))
	for _, rec := range records {
		if it, ok := r.convert(rec); ok {
			items = append(items, it)
		}
	}

	if len(items) > 0 {
		r.sink.SetDataReceived(true)
		r.sink.AppendPending(items)
	}
	r.errs.Clear(string(r.category))

	if otel.TraceEnabled() {
		r.log.Emit(otel.Event{
			Level:     otel.LevelDebug,
			Kind:      otel.KindCategoryOK,
			Comp:      "fetch",
			RequestID: reqID,
			Category:  string(r.category),
			Count:     len(items),
			Dur:       time.Since(start),
		})
	}
	return items, nil
}

func (r *retriever[R]) fail(cause error, reqID uint64, start time.Time) error {
	ce := &CategoryError{Category: r.category, Err: cause}
	r.errs.Set(string(r.category), ce.Message())
	r.log.Emit(otel.Event{
		Level:     otel.LevelWarn,
		Kind:      otel.KindCategoryError,
		Comp:      "fetch",
		RequestID: reqID,
		Category:  string(r.category),
		Err:       cause.Error(),
		Dur:       time.Since(start),
	})
	return ce
}

// Deps are the collaborators shared by every retriever.
type Deps struct {
	Sink   Sink
	Errors *Errors
	Log    *otel.Logger // optional
}

// NewExercises retrieves saved exercises.
func NewExercises(st remote.Store, d Deps) Retriever {
	return &retriever[remote.ExerciseRecord]{
		category: content.CategoryExercises,
		get: func(ctx context.Context, _ bool) ([]remote.ExerciseRecord, error) {
			return st.GetExercises(ctx)
		},
		convert: FromExercise,
		sink:    d.Sink, errs: d.Errors, log: d.Log,
	}
}

// NewLessonPlans retrieves saved lesson plans.
func NewLessonPlans(st remote.Store, d Deps) Retriever {
	return &retriever[remote.LessonPlanRecord]{
		category: content.CategoryLessonPlans,
		get: func(ctx context.Context, _ bool) ([]remote.LessonPlanRecord, error) {
			return st.GetLessonPlans(ctx)
		},
		convert: FromLessonPlan,
		sink:    d.Sink, errs: d.Errors, log: d.Log,
	}
}

// NewCorrespondences retrieves saved correspondence.
func NewCorrespondences(st remote.Store, d Deps) Retriever {
	return &retriever[remote.CorrespondenceRecord]{
		category: content.CategoryCorrespondences,
		get: func(ctx context.Context, _ bool) ([]remote.CorrespondenceRecord, error) {
			return st.GetCorrespondences(ctx)
		},
		convert: FromCorrespondence,
		sink:    d.Sink, errs: d.Errors, log: d.Log,
	}
}

// NewImages retrieves generated images. force is passed to the store so it
// can bypass its own cache.
func NewImages(st remote.Store, d Deps) Retriever {
	return &retriever[remote.ImageRecord]{
		category: content.CategoryImages,
		get:      st.GetImages,
		convert:  FromImage,
		sink:     d.Sink, errs: d.Errors, log: d.Log,
	}
}

// NewMusicLessons retrieves saved music lessons.
func NewMusicLessons(st remote.Store, d Deps) Retriever {
	return &retriever[remote.MusicLessonRecord]{
		category: content.CategoryMusicLessons,
		get: func(ctx context.Context, _ bool) ([]remote.MusicLessonRecord, error) {
			return st.GetMusicLessons(ctx)
		},
		convert: FromMusicLesson,
		sink:    d.Sink, errs: d.Errors, log: d.Log,
	}
}

// All returns the five retrievers in canonical category order.
func All(st remote.Store, d Deps) []Retriever {
	return []Retriever{
		NewExercises(st, d),
		NewLessonPlans(st, d),
		NewCorrespondences(st, d),
		NewImages(st, d),
		NewMusicLessons(st, d),
	}
}
