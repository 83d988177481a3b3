// Package coord orchestrates one logical content fetch across the five
// category retrievers: throttling, supersession, partial-result recovery,
// retry, and cache publication.
//
// Uses context cancellation as the ONLY stop mechanism.
package coord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abelbrown/lessonvault/internal/cache"
	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/fetch"
	"github.com/abelbrown/lessonvault/internal/notify"
	"github.com/abelbrown/lessonvault/internal/otel"
	"github.com/abelbrown/lessonvault/internal/remote"
	"github.com/abelbrown/lessonvault/internal/retry"
	"github.com/abelbrown/lessonvault/internal/throttle"
)

var (
	// ErrStoreUnavailable means every category failed in one attempt.
	ErrStoreUnavailable = errors.New("coord: content store unavailable")
	// ErrRetriesExhausted is surfaced once when a fetch gives up.
	ErrRetriesExhausted = errors.New("coord: retries exhausted")
)

// ErrorKeyFetch is the error-map key for whole-fetch failures.
const ErrorKeyFetch = "fetch"

// Auth is the part of the session the orchestrator needs.
type Auth interface {
	// UserID returns "" when nobody is signed in.
	UserID() string
	// Settled reports whether session resolution has finished.
	Settled() bool
}

// StoreFunc returns the content store scoped to userID.
type StoreFunc func(userID string) remote.Store

// retrieverFunc builds the retrievers for one attempt (injectable for tests).
type retrieverFunc func(st remote.Store, d fetch.Deps) []fetch.Retriever

// FetchOptions controls one FetchContent call.
type FetchOptions struct {
	Force bool
}

// Config wires an Orchestrator. Auth, Stores and Cache are required.
type Config struct {
	Auth     Auth
	Stores   StoreFunc
	Cache    *cache.Cache
	Throttle *throttle.Controller // default: throttle.New(throttle.Options{})
	Retry    *retry.Strategy      // default: retry.New()
	Errors   *fetch.Errors        // default: fetch.NewErrors()
	Notify   notify.Channel       // default: notify.Discard
	Log      *otel.Logger         // optional
}

// Orchestrator runs content fetches. Goroutine-safe; concurrent FetchContent
// calls supersede one another.
type Orchestrator struct {
	auth       Auth
	stores     StoreFunc
	cache      *cache.Cache
	throttle   *throttle.Controller
	retry      *retry.Strategy
	errs       *fetch.Errors
	notify     notify.Channel
	log        *otel.Logger
	retrievers retrieverFunc

	reqSeq  atomic.Uint64 // used only without a Logger
	current atomic.Uint64 // request id that owns the pending buffer
	swap    sync.Mutex    // serializes ownership changes of the pending buffer

	mu         sync.Mutex
	loading    bool
	refreshing bool
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	return newWithRetrievers(cfg, fetch.All)
}

func newWithRetrievers(cfg Config, rf retrieverFunc) *Orchestrator {
	if cfg.Throttle == nil {
		cfg.Throttle = throttle.New(throttle.Options{})
	}
	if cfg.Retry == nil {
		cfg.Retry = retry.New()
	}
	if cfg.Errors == nil {
		cfg.Errors = fetch.NewErrors()
	}
	if cfg.Notify == nil {
		cfg.Notify = notify.Discard
	}
	return &Orchestrator{
		auth:       cfg.Auth,
		stores:     cfg.Stores,
		cache:      cfg.Cache,
		throttle:   cfg.Throttle,
		retry:      cfg.Retry,
		errs:       cfg.Errors,
		notify:     cfg.Notify,
		log:        cfg.Log,
		retrievers: rf,
	}
}

// FetchContent returns the merged, recency-sorted saved content. It never
// returns an error: failures degrade to the cache and are reported through
// Errors and the notification channel.
func (o *Orchestrator) FetchContent(ctx context.Context, opts FetchOptions) []content.Item {
	force := opts.Force
	if force {
		o.cache.SetDataReceived(false)
	}

	if !force {
		if cached := o.cache.Get(); len(cached) > 0 {
			o.emit(otel.Event{Kind: otel.KindFetchCacheHit, Count: len(cached)})
			return cached
		}
	}

	uid := o.auth.UserID()
	if uid == "" && o.auth.Settled() {
		o.setFlags(false, false)
		return []content.Item{}
	}

	if o.throttle.ShouldThrottle(force) {
		o.emit(otel.Event{Kind: otel.KindFetchThrottle})
		return o.cache.Get()
	}

	// Supersede whatever is in flight.
	o.swap.Lock()
	o.setFlags(!force, force)
	o.throttle.Abort()
	reqCtx := o.throttle.Context(ctx)
	o.throttle.MarkStart()
	reqID := o.nextRequestID()
	o.current.Store(reqID)
	o.cache.ClearPending()
	o.swap.Unlock()
	start := time.Now()

	defer func() {
		o.swap.Lock()
		defer o.swap.Unlock()
		if o.current.Load() != reqID {
			return // a newer fetch owns the shared state
		}
		o.throttle.MarkEnd()
		o.retry.Reset()
		o.setFlags(false, false)
	}()

	o.emit(otel.Event{Kind: otel.KindFetchStart, RequestID: reqID, Msg: forceMsg(force)})

	if uid == "" {
		return o.cache.Get()
	}
	st := o.stores(uid)

	for {
		o.retry.Begin()
		sink := &requestSink{o: o, reqID: reqID}
		items, err := o.attempt(reqCtx, st, force, sink)

		if reqCtx.Err() != nil {
			return o.resolveCancelled(sink)
		}

		if err == nil {
			o.retry.Succeed()
			if len(items) > 0 || o.cache.DataReceived() {
				o.cache.Update(items)
				o.cache.ClearPending()
				o.emit(otel.Event{Kind: otel.KindCacheUpdate, RequestID: reqID, Count: len(items)})
			} else {
				o.emit(otel.Event{Kind: otel.KindCachePreserve, RequestID: reqID})
			}
			o.errs.Clear(ErrorKeyFetch)
			o.emit(otel.Event{Kind: otel.KindFetchComplete, RequestID: reqID, Count: len(items), Dur: time.Since(start)})
			return items
		}

		o.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindFetchError, RequestID: reqID, Err: err.Error()})

		if o.retry.Wait(reqCtx, force) {
			n := o.retry.Increment()
			o.emit(otel.Event{Kind: otel.KindFetchRetry, RequestID: reqID, Count: n})
			force = true
			o.cache.SetDataReceived(false)
			continue
		}

		if reqCtx.Err() != nil {
			return o.resolveCancelled(sink)
		}

		o.exhausted(reqID, err)
		return o.cache.Get()
	}
}

// attempt runs every retriever once, in canonical order, on the shared
// request context.
func (o *Orchestrator) attempt(ctx context.Context, st remote.Store, force bool, sink *requestSink) (merged []content.Item, err error) {
	reqID := sink.reqID
	defer func() {
		if p := recover(); p != nil {
			merged, err = nil, fmt.Errorf("coord: attempt %d panicked: %v", reqID, p)
		}
	}()

	sink.reset()
	deps := fetch.Deps{
		Sink:   sink,
		Errors: o.errs,
		Log:    o.log,
	}

	rs := o.retrievers(st, deps)
	groups := make([][]content.Item, 0, len(rs))
	failed := 0
	for _, r := range rs {
		items, rerr := r.Retrieve(ctx, force, reqID)
		if rerr != nil {
			failed++
		}
		groups = append(groups, items)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if len(rs) > 0 && failed == len(rs) {
		return nil, ErrStoreUnavailable
	}

	merged = content.Merge(groups...)
	content.Sort(merged, content.SortRecent)
	return merged, nil
}

// resolveCancelled returns the partial results the cancelled request
// gathered, or the prior cache when it gathered nothing. Only the request
// that still owns the cache writes them back; a superseded one just returns
// its own partials.
func (o *Orchestrator) resolveCancelled(sink *requestSink) []content.Item {
	reqID := sink.reqID
	partial := content.Merge(sink.partials())
	content.Sort(partial, content.SortRecent)

	o.swap.Lock()
	defer o.swap.Unlock()
	owner := o.current.Load() == reqID
	o.emit(otel.Event{Kind: otel.KindFetchCancel, RequestID: reqID, Count: len(partial), Msg: supersededMsg(owner)})
	if len(partial) == 0 {
		return o.cache.Get()
	}
	if owner {
		o.cache.Update(partial)
		o.cache.ClearPending()
		o.emit(otel.Event{Kind: otel.KindCacheUpdate, RequestID: reqID, Count: len(partial), Msg: "partial"})
	}
	return partial
}

func (o *Orchestrator) exhausted(reqID uint64, cause error) {
	err := fmt.Errorf("%w: %v", ErrRetriesExhausted, cause)
	o.errs.Set(ErrorKeyFetch, "Could not load your saved content")
	o.emit(otel.Event{Level: otel.LevelError, Kind: otel.KindFetchExhausted, RequestID: reqID, Err: err.Error()})
	o.notify.Notify(notify.Notification{
		Level:   notify.Error,
		Title:   "Loading failed",
		Message: "Your saved content could not be loaded. Please try again later.",
	})
}

// Invalidate clears the cache so the next fetch goes to the store.
func (o *Orchestrator) Invalidate() {
	o.cache.Invalidate()
	o.emit(otel.Event{Kind: otel.KindCacheInvalidate})
}

// Cancel aborts the in-flight fetch, first saving any partial results into
// the cache.
func (o *Orchestrator) Cancel() {
	pending := content.Merge(o.cache.Pending())
	if len(pending) > 0 {
		content.Sort(pending, content.SortRecent)
		o.cache.Update(pending)
		o.cache.ClearPending()
		o.cache.SetDataReceived(true)
	}
	o.throttle.Abort()
	o.emit(otel.Event{Kind: otel.KindFetchCancel, Count: len(pending), Msg: "cancel"})
}

// Abort cancels the in-flight fetch without saving partial results.
func (o *Orchestrator) Abort() {
	o.throttle.Abort()
}

// Errors returns a snapshot of the error map.
func (o *Orchestrator) Errors() map[string]string {
	return o.errs.Snapshot()
}

// ErrorMap exposes the shared error map so page-level keys ("delete") live
// alongside category errors.
func (o *Orchestrator) ErrorMap() *fetch.Errors {
	return o.errs
}

// Cached returns the current cache snapshot.
func (o *Orchestrator) Cached() []content.Item {
	return o.cache.Get()
}

// HasRecentData reports cache evidence of recent content.
func (o *Orchestrator) HasRecentData() bool {
	return o.cache.HasRecentData()
}

// IsLoading reports an unforced fetch in progress.
func (o *Orchestrator) IsLoading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading
}

// IsRefreshing reports a forced fetch in progress.
func (o *Orchestrator) IsRefreshing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.refreshing
}

// Busy reports whether a fetch is running or the controller is cooling down.
func (o *Orchestrator) Busy() bool {
	return o.IsLoading() || o.IsRefreshing() || o.throttle.InFlight()
}

func (o *Orchestrator) setFlags(loading, refreshing bool) {
	o.mu.Lock()
	o.loading, o.refreshing = loading, refreshing
	o.mu.Unlock()
}

func (o *Orchestrator) emit(e otel.Event) {
	if e.Level == "" {
		e.Level = otel.LevelInfo
	}
	e.Comp = "coord"
	o.log.Emit(e)
}

// nextRequestID takes correlation ids from the event logger so fetch events
// and log lines share one sequence.
func (o *Orchestrator) nextRequestID() uint64 {
	if o.log != nil {
		return o.log.NextRequestID()
	}
	return o.reqSeq.Add(1)
}

func supersededMsg(owner bool) string {
	if owner {
		return ""
	}
	return "superseded"
}

func forceMsg(force bool) string {
	if force {
		return "forced"
	}
	return ""
}

// requestSink collects one attempt's partial results. They reach the shared
// pending buffer only while the request still owns it.
type requestSink struct {
	o     *Orchestrator
	reqID uint64

	mu  sync.Mutex
	own []content.Item
}

func (s *requestSink) AppendPending(items []content.Item) {
	s.mu.Lock()
	s.own = append(s.own, items...)
	s.mu.Unlock()

	s.o.swap.Lock()
	defer s.o.swap.Unlock()
	if s.o.current.Load() == s.reqID {
		s.o.cache.AppendPending(items)
	}
}

func (s *requestSink) partials() []content.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]content.Item(nil), s.own...)
}

// reset starts a new attempt, dropping the previous attempt's partials.
func (s *requestSink) reset() {
	s.mu.Lock()
	s.own = nil
	s.mu.Unlock()

	s.o.swap.Lock()
	defer s.o.swap.Unlock()
	if s.o.current.Load() == s.reqID {
		s.o.cache.ClearPending()
	}
}

func (s *requestSink) SetDataReceived(v bool) {
	s.o.swap.Lock()
	defer s.o.swap.Unlock()
	if s.o.current.Load() == s.reqID {
		s.o.cache.SetDataReceived(v)
	}
}
