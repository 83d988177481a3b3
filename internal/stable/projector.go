// Package stable decides when a freshly fetched content list replaces the
// one on screen, so transient empty or partial results do not flicker.
package stable

import (
	"sync"
	"time"

	"github.com/abelbrown/lessonvault/internal/cache"
	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/otel"
)

// DefaultThrottle is the minimum time between publishes of an unchanged list.
const DefaultThrottle = 2 * time.Second

// State of the projected list.
type State int

const (
	Uninitialized State = iota
	Populated
	Empty
)

func (s State) String() string {
	switch s {
	case Populated:
		return "populated"
	case Empty:
		return "empty"
	}
	return "uninitialized"
}

// Evidence reports whether recent fetches saw content. cache.Cache
// implements it.
type Evidence interface {
	HasRecentData() bool
}

// Options configures a Projector.
type Options struct {
	Throttle  time.Duration
	Evidence  Evidence // nil means no evidence: empty lists always publish
	Now       func() time.Time
	OnPublish func(items []content.Item)
	Log       *otel.Logger
}

// Projector holds the list the UI shows. Goroutine-safe; OnPublish is called
// without the lock held, in publish order.
type Projector struct {
	throttle  time.Duration
	evidence  Evidence
	now       func() time.Time
	onPublish func([]content.Item)
	log       *otel.Logger

	mu          sync.Mutex
	pubMu       sync.Mutex
	held        []content.Item
	initial     bool
	forced      bool
	lastPublish time.Time
	state       State
}

// New creates a Projector in the initial-load state.
func New(opts Options) *Projector {
	if opts.Throttle <= 0 {
		opts.Throttle = DefaultThrottle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Projector{
		throttle:  opts.Throttle,
		evidence:  opts.Evidence,
		now:       opts.Now,
		onPublish: opts.OnPublish,
		log:       opts.Log,
		held:      []content.Item{},
		initial:   true,
	}
}

// Update offers a new list. It reports whether the list was published.
func (p *Projector) Update(items []content.Item) bool {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	p.mu.Lock()
	publish, reason := p.decide(items)
	var out []content.Item
	if publish {
		out = p.commit(items)
	}
	p.mu.Unlock()

	if !publish {
		p.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindProjectSuppress, Comp: "stable", Count: len(items), Msg: reason})
		return false
	}
	p.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindProjectPublish, Comp: "stable", Count: len(out), Msg: reason})
	if p.onPublish != nil {
		p.onPublish(out)
	}
	return true
}

// decide applies the publish rules. Caller holds p.mu.
func (p *Projector) decide(items []content.Item) (bool, string) {
	if p.forced {
		p.forced = false
		return true, "forced"
	}

	if len(items) > 0 {
		switch {
		case p.initial:
			return true, "initial"
		case cache.HasChanged(p.held, items):
			return true, "changed"
		case p.now().Sub(p.lastPublish) > p.throttle:
			return true, "stale"
		}
		return false, "unchanged"
	}

	if len(p.held) > 0 {
		if p.evidence != nil && p.evidence.HasRecentData() {
			return false, "transient empty"
		}
		return true, "corroborated empty"
	}

	if p.initial {
		return true, "initial empty"
	}
	return false, "still empty"
}

// commit records items as the published baseline. Caller holds p.mu.
func (p *Projector) commit(items []content.Item) []content.Item {
	p.held = content.Clone(items)
	p.lastPublish = p.now()
	p.initial = false
	if len(p.held) > 0 {
		p.state = Populated
	} else {
		p.state = Empty
	}
	return content.Clone(p.held)
}

// ForceRefresh makes the next Update publish unconditionally.
func (p *Projector) ForceRefresh() {
	p.mu.Lock()
	p.initial = true
	p.forced = true
	p.lastPublish = time.Time{}
	p.mu.Unlock()
}

// Remove drops id from the held list and publishes the result. It reports
// whether the item was present.
func (p *Projector) Remove(id string) bool {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	p.mu.Lock()
	next := content.Without(p.held, id)
	if len(next) == len(p.held) {
		p.mu.Unlock()
		return false
	}
	out := p.commit(next)
	p.mu.Unlock()

	p.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindProjectPublish, Comp: "stable", Count: len(out), ItemID: id, Msg: "removed"})
	if p.onPublish != nil {
		p.onPublish(out)
	}
	return true
}

// Reset returns the projector to its initial state without publishing.
func (p *Projector) Reset() {
	p.mu.Lock()
	p.held = []content.Item{}
	p.initial = true
	p.forced = false
	p.lastPublish = time.Time{}
	p.state = Uninitialized
	p.mu.Unlock()
}

// Content returns a copy of the published list.
func (p *Projector) Content() []content.Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return content.Clone(p.held)
}

// State returns the projection state.
func (p *Projector) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
