package coord

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abelbrown/lessonvault/internal/cache"
	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/fetch"
	"github.com/abelbrown/lessonvault/internal/notify"
	"github.com/abelbrown/lessonvault/internal/otel"
	"github.com/abelbrown/lessonvault/internal/remote"
	"github.com/abelbrown/lessonvault/internal/remote/remotetest"
	"github.com/abelbrown/lessonvault/internal/retry"
	"github.com/abelbrown/lessonvault/internal/throttle"
)

type fakeAuth struct {
	uid     string
	settled bool
}

func (a fakeAuth) UserID() string { return a.uid }
func (a fakeAuth) Settled() bool  { return a.settled }

var base = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func seededStore() *remotetest.Store {
	return &remotetest.Store{
		Exercises: []remote.ExerciseRecord{
			{ID: "ex-old", Title: "Old exercise", CreatedAt: base.Add(-48 * time.Hour)},
		},
		LessonPlans: []remote.LessonPlanRecord{
			{ID: "lp-new", Title: "Newest plan", CreatedAt: base},
		},
		Correspondences: []remote.CorrespondenceRecord{
			{ID: "c-mid", Title: "Letter", CreatedAt: base.Add(-24 * time.Hour)},
		},
		Images: []remote.ImageRecord{
			{ID: "img", ImageURL: "https://cdn.example/a.png", GeneratedAt: base.Add(-time.Hour)},
		},
		MusicLessons: []remote.MusicLessonRecord{
			{ID: "song", Title: "Song", CreatedAt: base.Add(-72 * time.Hour)},
		},
	}
}

type harness struct {
	o     *Orchestrator
	st    *remotetest.Store
	cache *cache.Cache
	notes *notify.Recorder
	ring  *otel.RingBuffer
	log   *otel.Logger
}

func newHarness(t *testing.T, st *remotetest.Store, auth Auth) *harness {
	t.Helper()
	h := &harness{
		st:    st,
		cache: cache.New(3),
		notes: &notify.Recorder{},
		ring:  otel.NewRingBuffer(256),
		log:   otel.NewNullLogger(),
	}
	h.log.SetRingBuffer(h.ring)
	t.Cleanup(h.log.Close)

	r := retry.New()
	r.BaseDelay = time.Millisecond
	r.MaxDelay = 2 * time.Millisecond

	h.o = New(Config{
		Auth:   auth,
		Stores: func(string) remote.Store { return st },
		Cache:  h.cache,
		Retry:  r,
		Notify: h.notes,
		Log:    h.log,
	})
	return h
}

func ids(items []content.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestFetchMergesSortsAndCaches(t *testing.T) {
	h := newHarness(t, seededStore(), fakeAuth{uid: "u1", settled: true})
	ctx := context.Background()

	got := h.o.FetchContent(ctx, FetchOptions{})
	want := []string{"lp-new", "img", "c-mid", "ex-old", "song"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
	if h.cache.Len() != 5 {
		t.Errorf("cache len = %d", h.cache.Len())
	}

	// Unforced fetch with a warm cache never reaches the store.
	calls := h.st.TotalCalls()
	again := h.o.FetchContent(ctx, FetchOptions{})
	if len(again) != 5 || h.st.TotalCalls() != calls {
		t.Errorf("expected cache hit; calls %d -> %d", calls, h.st.TotalCalls())
	}

	if h.o.IsLoading() || h.o.IsRefreshing() {
		t.Error("flags should be cleared after fetch")
	}
}

func TestSignedOutReturnsEmpty(t *testing.T) {
	h := newHarness(t, seededStore(), fakeAuth{settled: true})
	got := h.o.FetchContent(context.Background(), FetchOptions{Force: true})
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil", got)
	}
	if h.st.TotalCalls() != 0 {
		t.Error("store should not be called without a user")
	}
}

func TestAuthNotSettledReturnsCache(t *testing.T) {
	h := newHarness(t, seededStore(), fakeAuth{settled: false})
	h.cache.Update([]content.Item{{ID: "kept", Type: content.TypeExercise}})

	got := h.o.FetchContent(context.Background(), FetchOptions{Force: true})
	if len(got) != 1 || got[0].ID != "kept" {
		t.Errorf("got %v, want cached item", ids(got))
	}
	if h.st.TotalCalls() != 0 {
		t.Error("store should not be called before auth settles")
	}
}

func TestThrottledFetchReturnsCache(t *testing.T) {
	now := base
	clock := func() time.Time { return now }
	st := &remotetest.Store{} // empty: cache stays empty so the throttle is reached
	h := newHarness(t, st, fakeAuth{uid: "u1", settled: true})
	h.o.throttle = throttle.New(throttle.Options{Now: clock})

	h.o.FetchContent(context.Background(), FetchOptions{})
	first := st.TotalCalls()

	now = now.Add(200 * time.Millisecond)
	h.o.FetchContent(context.Background(), FetchOptions{})
	if st.TotalCalls() != first {
		t.Error("second fetch inside the interval should be throttled")
	}

	now = now.Add(time.Second)
	h.o.FetchContent(context.Background(), FetchOptions{})
	if st.TotalCalls() == first {
		t.Error("fetch after the interval should reach the store")
	}
}

func TestPartialFailureKeepsOtherCategories(t *testing.T) {
	st := seededStore()
	st.Fail = map[content.Category]error{content.CategoryImages: remotetest.ErrDown}
	h := newHarness(t, st, fakeAuth{uid: "u1", settled: true})

	got := h.o.FetchContent(context.Background(), FetchOptions{Force: true})
	if len(got) != 4 {
		t.Errorf("got %v, want 4 items", ids(got))
	}
	errs := h.o.Errors()
	if _, ok := errs[string(content.CategoryImages)]; !ok {
		t.Errorf("images error missing: %v", errs)
	}
	if _, ok := errs[ErrorKeyFetch]; ok {
		t.Error("partial failure is not a fetch failure")
	}
	if h.notes.Len() != 0 {
		t.Error("partial failure should not notify")
	}
}

func TestUnforcedTotalFailureFallsBackWithoutRetry(t *testing.T) {
	st := seededStore()
	st.FailAll(remotetest.ErrDown)
	h := newHarness(t, st, fakeAuth{uid: "u1", settled: true})

	got := h.o.FetchContent(context.Background(), FetchOptions{})
	if len(got) != 0 {
		t.Errorf("got %v, want empty cache", ids(got))
	}
	if st.TotalCalls() != 5 {
		t.Errorf("calls = %d, want one attempt (5)", st.TotalCalls())
	}
	if h.notes.Count(notify.Error) != 1 {
		t.Errorf("error notifications = %d, want 1", h.notes.Count(notify.Error))
	}
	if _, ok := h.o.Errors()[ErrorKeyFetch]; !ok {
		t.Error("fetch error key missing")
	}
}

func TestForcedTotalFailureRetriesThenExhausts(t *testing.T) {
	st := seededStore()
	st.FailAll(remotetest.ErrDown)
	h := newHarness(t, st, fakeAuth{uid: "u1", settled: true})
	h.cache.Update([]content.Item{{ID: "prior", Type: content.TypeLessonPlan}})

	got := h.o.FetchContent(context.Background(), FetchOptions{Force: true})
	if len(got) != 1 || got[0].ID != "prior" {
		t.Errorf("got %v, want prior cache", ids(got))
	}
	if st.TotalCalls() != 20 {
		t.Errorf("calls = %d, want 4 attempts x 5", st.TotalCalls())
	}
	if h.notes.Count(notify.Error) != 1 {
		t.Errorf("notifications = %d, want exactly 1", h.notes.Count(notify.Error))
	}
	if h.o.retry.Count() != 0 {
		t.Error("retry count should reset when the fetch completes")
	}
}

func TestForcedFailureRecoversOnRetry(t *testing.T) {
	st := seededStore()
	st.FailAll(remotetest.ErrDown)
	var exerciseCalls int
	st.OnGet = func(_ context.Context, c content.Category) {
		// The hook runs before the failure check, so healing on the second
		// attempt's first call makes that whole attempt succeed.
		if c == content.CategoryExercises {
			exerciseCalls++
			if exerciseCalls == 2 {
				st.Heal()
			}
		}
	}
	h := newHarness(t, st, fakeAuth{uid: "u1", settled: true})

	got := h.o.FetchContent(context.Background(), FetchOptions{Force: true})
	if len(got) != 5 {
		t.Fatalf("got %v, want 5 items after retry", ids(got))
	}
	if st.TotalCalls() != 10 {
		t.Errorf("calls = %d, want 2 attempts x 5", st.TotalCalls())
	}
	if _, ok := h.o.Errors()[ErrorKeyFetch]; ok {
		t.Error("successful retry should clear the fetch error")
	}
	if h.notes.Len() != 0 {
		t.Error("recovered fetch should not notify")
	}
}

func TestCancelledFetchKeepsPartialResults(t *testing.T) {
	st := seededStore()
	ctx, cancel := context.WithCancel(context.Background())
	st.OnGet = func(_ context.Context, c content.Category) {
		if c == content.CategoryImages {
			cancel()
		}
	}
	h := newHarness(t, st, fakeAuth{uid: "u1", settled: true})

	got := h.o.FetchContent(ctx, FetchOptions{Force: true})
	want := []string{"lp-new", "img", "c-mid", "ex-old"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("got %v, want %v", ids(got), want)
			break
		}
	}
	if st.Calls(content.CategoryMusicLessons) != 0 {
		t.Error("music lessons should be skipped after cancellation")
	}
	if h.cache.Len() != 4 {
		t.Errorf("partial results should be cached, cache len = %d", h.cache.Len())
	}
	if h.notes.Len() != 0 {
		t.Error("cancellation is never surfaced")
	}
}

func TestEmptyResultWithoutDataPreservesCache(t *testing.T) {
	h := newHarness(t, &remotetest.Store{}, fakeAuth{uid: "u1", settled: true})
	h.cache.Update([]content.Item{{ID: "prior", Type: content.TypeExercise}})

	got := h.o.FetchContent(context.Background(), FetchOptions{Force: true})
	if len(got) != 0 {
		t.Errorf("merged result should be returned as-is, got %v", ids(got))
	}
	if h.cache.Len() != 1 {
		t.Error("cache should be preserved when no category returned data")
	}
}

func TestCancelSavesPendingAndAborts(t *testing.T) {
	h := newHarness(t, seededStore(), fakeAuth{uid: "u1", settled: true})
	ctx := h.o.throttle.Context(context.Background())
	h.cache.AppendPending([]content.Item{
		{ID: "a", Type: content.TypeExercise, CreatedAt: base},
		{ID: "a", Type: content.TypeExercise, CreatedAt: base},
		{ID: "b", Type: content.TypeImage, CreatedAt: base.Add(time.Hour)},
	})

	h.o.Cancel()
	if ctx.Err() == nil {
		t.Error("Cancel should abort the request context")
	}
	got := h.cache.Get()
	if len(got) != 2 || got[0].ID != "b" {
		t.Errorf("cache = %v, want [b a]", ids(got))
	}
	if !h.cache.DataReceived() {
		t.Error("Cancel with partials should mark data received")
	}
}

func TestSupersededFetchDoesNotLeakIntoNewer(t *testing.T) {
	st := seededStore()
	entered := make(chan struct{})
	var first atomic.Bool
	first.Store(true)
	st.OnGet = func(ctx context.Context, c content.Category) {
		if c == content.CategoryExercises && first.CompareAndSwap(true, false) {
			close(entered)
			<-ctx.Done()
		}
	}
	h := newHarness(t, st, fakeAuth{uid: "u1", settled: true})

	done := make(chan []content.Item)
	go func() { done <- h.o.FetchContent(context.Background(), FetchOptions{Force: true}) }()
	<-entered

	newer := h.o.FetchContent(context.Background(), FetchOptions{Force: true})
	older := <-done

	if len(newer) != 5 {
		t.Errorf("newer fetch = %v, want 5 items", ids(newer))
	}
	if len(h.cache.Get()) != 5 {
		t.Errorf("cache = %v", ids(h.cache.Get()))
	}
	seen := map[string]int{}
	for _, it := range h.cache.Get() {
		seen[it.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("id %s cached %d times", id, n)
		}
	}
	_ = older
}

func TestSupersededFetchReturnsOwnPartials(t *testing.T) {
	st := seededStore()
	entered := make(chan struct{})
	var first atomic.Bool
	first.Store(true)
	st.OnGet = func(ctx context.Context, c content.Category) {
		if c == content.CategoryImages && first.CompareAndSwap(true, false) {
			close(entered)
			<-ctx.Done()
		}
	}
	h := newHarness(t, st, fakeAuth{uid: "u1", settled: true})

	done := make(chan []content.Item)
	go func() { done <- h.o.FetchContent(context.Background(), FetchOptions{}) }()
	<-entered

	newer := h.o.FetchContent(context.Background(), FetchOptions{Force: true})
	older := <-done

	want := []string{"lp-new", "img", "c-mid", "ex-old"}
	if len(older) != len(want) {
		t.Fatalf("superseded fetch = %v, want %v", ids(older), want)
	}
	for i := range want {
		if older[i].ID != want[i] {
			t.Errorf("superseded fetch = %v, want %v", ids(older), want)
			break
		}
	}
	if len(newer) != 5 {
		t.Errorf("newer fetch = %v, want 5 items", ids(newer))
	}
	if got := h.cache.Get(); len(got) != 5 {
		t.Errorf("cache = %v, want the newer fetch's 5 items", ids(got))
	}
	if st.Calls(content.CategoryMusicLessons) != 1 {
		t.Errorf("music lessons fetched %d times, want once (newer fetch only)", st.Calls(content.CategoryMusicLessons))
	}
}

func TestRequestIDsComeFromLogger(t *testing.T) {
	h := newHarness(t, seededStore(), fakeAuth{uid: "u1", settled: true})
	if id := h.log.NextRequestID(); id != 1 {
		t.Fatalf("first id = %d", id)
	}
	h.o.FetchContent(context.Background(), FetchOptions{Force: true})
	if id := h.log.NextRequestID(); id != 3 {
		t.Errorf("fetch should draw its id from the logger, next id = %d", id)
	}
	h.log.Close()
	for _, ev := range h.ring.Snapshot() {
		if ev.Kind == otel.KindFetchStart && ev.RequestID != 2 {
			t.Errorf("fetch.start req = %d, want 2", ev.RequestID)
		}
	}
}

func TestInvalidateEmitsAndClears(t *testing.T) {
	h := newHarness(t, seededStore(), fakeAuth{uid: "u1", settled: true})
	h.o.FetchContent(context.Background(), FetchOptions{})
	h.o.Invalidate()
	if h.cache.Len() != 0 {
		t.Error("Invalidate should clear the cache")
	}

	h.log.Close()
	stats := h.ring.Stats()
	if stats[otel.KindFetchStart] != 1 || stats[otel.KindFetchComplete] != 1 {
		t.Errorf("unexpected event stats: %v", stats)
	}
	if stats[otel.KindCacheInvalidate] != 1 {
		t.Errorf("invalidate event missing: %v", stats)
	}
}

func TestCustomRetrievers(t *testing.T) {
	called := 0
	rf := func(st remote.Store, d fetch.Deps) []fetch.Retriever {
		called++
		return fetch.All(st, d)[:1]
	}
	o := newWithRetrievers(Config{
		Auth:   fakeAuth{uid: "u", settled: true},
		Stores: func(string) remote.Store { return seededStore() },
		Cache:  cache.New(3),
	}, rf)

	got := o.FetchContent(context.Background(), FetchOptions{Force: true})
	if called != 1 || len(got) != 1 || got[0].ID != "ex-old" {
		t.Errorf("called=%d got=%v", called, ids(got))
	}
}
