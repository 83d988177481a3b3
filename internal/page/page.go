// Package page glues session readiness, the fetch orchestrator, the stable
// projector and deletion into the saved-content view.
package page

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/coord"
	"github.com/abelbrown/lessonvault/internal/filter"
	"github.com/abelbrown/lessonvault/internal/notify"
	"github.com/abelbrown/lessonvault/internal/otel"
	"github.com/abelbrown/lessonvault/internal/remote"
	"github.com/abelbrown/lessonvault/internal/stable"
)

// DefaultEmptyRecheck is the pause before re-fetching an empty initial load.
const DefaultEmptyRecheck = 600 * time.Millisecond

// ErrorKeyDelete is the error-map key for failed deletions.
const ErrorKeyDelete = "delete"

var (
	// ErrNotSignedIn is returned by HandleDelete without a user.
	ErrNotSignedIn = errors.New("page: not signed in")
	// ErrNotDeletable is returned for content types the store cannot delete.
	ErrNotDeletable = errors.New("page: content type cannot be deleted")
)

// DeleteError reports a failed remote deletion. The item has already been
// removed locally; a corrective fetch follows.
type DeleteError struct {
	ID   string
	Type content.Type
	Err  error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("page: delete %s %s: %v", e.Type, e.ID, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// Config wires a Page. Orchestrator, Projector, Auth and Stores are required.
type Config struct {
	Orchestrator *coord.Orchestrator
	Projector    *stable.Projector
	Auth         coord.Auth
	Stores       coord.StoreFunc
	Notify       notify.Channel
	Log          *otel.Logger
	EmptyRecheck time.Duration
	OnSelect     func(content.Item)
}

// Page is the controller behind the saved-content view.
type Page struct {
	orch         *coord.Orchestrator
	proj         *stable.Projector
	auth         coord.Auth
	stores       coord.StoreFunc
	notify       notify.Channel
	log          *otel.Logger
	emptyRecheck time.Duration
	onSelect     func(content.Item)

	didInitial atomic.Bool

	mu       sync.Mutex
	view     filter.Options
	selected *content.Item
}

// New creates a Page.
func New(cfg Config) *Page {
	if cfg.Notify == nil {
		cfg.Notify = notify.Discard
	}
	if cfg.EmptyRecheck <= 0 {
		cfg.EmptyRecheck = DefaultEmptyRecheck
	}
	return &Page{
		orch:         cfg.Orchestrator,
		proj:         cfg.Projector,
		auth:         cfg.Auth,
		stores:       cfg.Stores,
		notify:       cfg.Notify,
		log:          cfg.Log,
		emptyRecheck: cfg.EmptyRecheck,
		onSelect:     cfg.OnSelect,
	}
}

// InitialLoad runs the first fetch of a signed-in session. It does nothing
// before the session settles, without a user, or after it already ran, and
// reports whether it ran.
func (p *Page) InitialLoad(ctx context.Context) bool {
	if !p.auth.Settled() || p.auth.UserID() == "" {
		return false
	}
	if !p.didInitial.CompareAndSwap(false, true) {
		return false
	}

	p.proj.ForceRefresh()
	p.orch.Invalidate()
	items := p.orch.FetchContent(ctx, coord.FetchOptions{})
	if len(items) == 0 && p.superseded() {
		return true
	}
	p.proj.Update(items)
	if len(items) > 0 {
		return true
	}

	p.orch.Invalidate()
	select {
	case <-ctx.Done():
		return true
	case <-time.After(p.emptyRecheck):
	}

	p.proj.ForceRefresh()
	items = p.orch.FetchContent(ctx, coord.FetchOptions{Force: true})
	p.proj.Update(items)
	if len(items) == 0 && ctx.Err() == nil {
		p.notify.Notify(notify.Notification{
			Level:   notify.Info,
			Title:   "No content yet",
			Message: "Nothing saved yet. Create your first content!",
		})
	}
	return true
}

// superseded reports that a newer fetch is running or has already filled
// the cache, so an empty answer from an older one must not be shown.
func (p *Page) superseded() bool {
	return p.orch.IsLoading() || p.orch.IsRefreshing() || len(p.orch.Cached()) > 0
}

// HandleRefresh discards the cache and runs a forced fetch.
func (p *Page) HandleRefresh(ctx context.Context) []content.Item {
	p.proj.ForceRefresh()
	p.orch.Invalidate()
	items := p.orch.FetchContent(ctx, coord.FetchOptions{Force: true})
	p.proj.Update(items)
	return items
}

// HandleTabChange switches the active tab. It refetches only when nothing is
// shown and no fetch is running.
func (p *Page) HandleTabChange(ctx context.Context, tab filter.Tab) []content.Item {
	p.mu.Lock()
	p.view.Tab = tab
	p.mu.Unlock()

	if len(p.proj.Content()) == 0 && !p.orch.Busy() {
		p.proj.Update(p.orch.FetchContent(ctx, coord.FetchOptions{}))
	}
	return p.Visible()
}

// HandleItemSelect records the previewed item.
func (p *Page) HandleItemSelect(item content.Item) {
	p.mu.Lock()
	p.selected = &item
	p.mu.Unlock()
	if p.onSelect != nil {
		p.onSelect(item)
	}
}

// Selected returns the previewed item.
func (p *Page) Selected() (content.Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == nil {
		return content.Item{}, false
	}
	return *p.selected, true
}

// HandleDelete removes an item locally, deletes it remotely and invalidates
// the cache. Images are removed locally only. On remote failure it returns a
// *DeleteError after re-fetching to resynchronize.
func (p *Page) HandleDelete(ctx context.Context, id string, typ content.Type) error {
	uid := p.auth.UserID()
	if uid == "" {
		p.notify.Notify(notify.Notification{
			Level:   notify.Error,
			Title:   "Authentication error",
			Message: "Please sign in again to delete content.",
		})
		return ErrNotSignedIn
	}
	if !typ.Deletable() {
		p.notify.Notify(notify.Notification{
			Level:   notify.Warning,
			Title:   "Cannot delete",
			Message: notDeletableMessage(typ),
		})
		return &DeleteError{ID: id, Type: typ, Err: ErrNotDeletable}
	}

	errs := p.orch.ErrorMap()
	errs.Clear(ErrorKeyDelete)
	p.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindDeleteStart, ItemID: id, Msg: string(typ)})

	p.proj.Remove(id)
	err := p.deleteRemote(ctx, p.stores(uid), id, typ)
	p.orch.Invalidate()

	if err != nil {
		derr := &DeleteError{ID: id, Type: typ, Err: err}
		errs.Set(ErrorKeyDelete, "Could not delete "+deleteNoun(typ))
		p.emit(otel.Event{Level: otel.LevelError, Kind: otel.KindDeleteError, ItemID: id, Err: err.Error()})
		p.notify.Notify(notify.Notification{
			Level:   notify.Error,
			Title:   "Delete failed",
			Message: "Could not delete " + deleteNoun(typ) + ".",
			Retry: func() {
				_ = p.HandleDelete(context.Background(), id, typ)
			},
		})
		p.HandleRefresh(ctx)
		return derr
	}

	p.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindDeleteComplete, ItemID: id, Msg: string(typ)})
	p.notify.Notify(notify.Notification{Level: notify.Success, Message: deletedMessage(typ)})
	return nil
}

func (p *Page) deleteRemote(ctx context.Context, st remote.Store, id string, typ content.Type) error {
	switch typ {
	case content.TypeExercise:
		return st.DeleteExercise(ctx, id)
	case content.TypeLessonPlan:
		return st.DeleteLessonPlan(ctx, id)
	case content.TypeCorrespondence:
		return st.DeleteCorrespondence(ctx, id)
	}
	return nil
}

func deleteNoun(typ content.Type) string {
	switch typ {
	case content.TypeExercise:
		return "the exercise"
	case content.TypeLessonPlan:
		return "the lesson plan"
	case content.TypeCorrespondence:
		return "the correspondence"
	case content.TypeImage:
		return "the image"
	}
	return "the content"
}

func deletedMessage(typ content.Type) string {
	switch typ {
	case content.TypeExercise:
		return "Exercise deleted"
	case content.TypeLessonPlan:
		return "Lesson plan deleted"
	case content.TypeCorrespondence:
		return "Correspondence deleted"
	case content.TypeImage:
		return "Image removed from the local cache"
	}
	return "Deleted"
}

// SignOut drops everything tied to the session so the next sign-in runs a
// fresh initial load.
func (p *Page) SignOut() {
	p.orch.Abort()
	p.orch.Invalidate()
	p.orch.ErrorMap().Reset()
	p.proj.Reset()
	p.didInitial.Store(false)
	p.mu.Lock()
	p.selected = nil
	p.mu.Unlock()
}

// Close cancels any running fetch, keeping partial results in the cache.
func (p *Page) Close() {
	p.orch.Cancel()
}

// SetView replaces the filter options. The tab is kept unless opts sets one.
func (p *Page) SetView(opts filter.Options) {
	p.mu.Lock()
	if opts.Tab == "" {
		opts.Tab = p.view.Tab
	}
	p.view = opts
	p.mu.Unlock()
}

// View returns the active filter options.
func (p *Page) View() filter.Options {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// Visible is the projected content narrowed by the active view.
func (p *Page) Visible() []content.Item {
	return filter.Apply(p.proj.Content(), p.View())
}

// Errors returns the per-category and page error messages.
func (p *Page) Errors() map[string]string {
	return p.orch.Errors()
}

// IsLoading reports an initial or tab-driven fetch in progress.
func (p *Page) IsLoading() bool { return p.orch.IsLoading() }

// IsRefreshing reports a forced fetch in progress.
func (p *Page) IsRefreshing() bool { return p.orch.IsRefreshing() }

func (p *Page) emit(e otel.Event) {
	e.Comp = "page"
	p.log.Emit(e)
}

func notDeletableMessage(typ content.Type) string {
	if typ.Valid() {
		return typ.Label() + " items can't be deleted from here."
	}
	return "This item can't be deleted."
}
