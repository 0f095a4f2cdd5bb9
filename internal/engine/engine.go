// Package engine owns the committed event store and per-session
// filter/selection state, and exposes the only mutation entry points.
// Rendering collaborators read through pure derived computations
// (filter then rank), never by mutating state directly.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pmorell/localevents/internal/deeplink"
	"github.com/pmorell/localevents/internal/filter"
	"github.com/pmorell/localevents/internal/interaction"
	applog "github.com/pmorell/localevents/internal/log"
	"github.com/pmorell/localevents/internal/model"
	"github.com/pmorell/localevents/internal/normalize"
	"github.com/pmorell/localevents/internal/rank"
	"github.com/pmorell/localevents/internal/selection"
	"github.com/pmorell/localevents/internal/source"
)

// ErrNoSession is returned when a session id is unknown.
var ErrNoSession = errors.New("unknown session")

// Options tunes the engine.
type Options struct {
	// FetchLimit is the maximum number of events per fetch.
	FetchLimit int
	// BackupDelay is how long after a load leaving the store empty the
	// one-shot backup fetch fires. Zero disables the backup fetch.
	BackupDelay time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Engine is the discovery engine. The committed event store is
// replaced wholesale on each successful refetch; filtering and ranking
// only ever observe the last committed list.
type Engine struct {
	src    source.EventSource
	cache  *interaction.Cache
	scorer *rank.Scorer
	now    func() time.Time

	fetchLimit  int
	backupDelay time.Duration

	mu            sync.Mutex
	events        []model.Event
	eventsVersion uint64
	lastError     string
	sessions      map[string]*Session
	backupTimer   *time.Timer
	backupUsed    bool
	closed        bool
}

// Session holds the per-client filter and selection state. Both are
// created once per session and mutated in place through the engine.
type Session struct {
	ID string

	mu            sync.Mutex
	filters       model.FilterState
	filterVersion uint64
	memo          rankedMemo

	nav       *selection.MemoryNavigator
	selection *selection.Controller
	mapCenter *model.LatLng
}

// rankedMemo caches the derived list under an explicit key instead of
// hidden dependency tracking.
type rankedMemo struct {
	eventsVersion uint64
	filterVersion uint64
	nowBucket     int64
	result        []model.Event
}

// New constructs an Engine.
func New(src source.EventSource, cache *interaction.Cache, scorer *rank.Scorer, opts Options) *Engine {
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = 500
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		src:         src,
		cache:       cache,
		scorer:      scorer,
		now:         opts.Now,
		fetchLimit:  opts.FetchLimit,
		backupDelay: opts.BackupDelay,
		sessions:    make(map[string]*Session),
	}
}

// Refresh fetches the event list and commits the normalized result.
// Fetch failures become a dismissible status message; any previously
// committed events stay visible. When a load leaves the store empty a
// one-shot backup fetch is scheduled.
func (e *Engine) Refresh(ctx context.Context) error {
	raws, err := e.src.FetchEvents(ctx, e.fetchLimit)
	if err != nil {
		e.mu.Lock()
		e.lastError = "Could not load events. We'll retry shortly."
		empty := len(e.events) == 0
		e.mu.Unlock()
		applog.Error("event fetch failed", err)
		if empty {
			e.scheduleBackupFetch()
		}
		return fmt.Errorf("refresh events: %w", err)
	}

	events := normalize.Events(raws, e.cache)

	e.mu.Lock()
	e.events = events
	e.eventsVersion++
	e.lastError = ""
	empty := len(events) == 0
	e.mu.Unlock()

	applog.Info("event store committed", "count", len(events))
	if empty {
		e.scheduleBackupFetch()
	} else {
		e.cancelBackupFetch()
	}
	return nil
}

func (e *Engine) scheduleBackupFetch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backupDelay <= 0 || e.closed || e.backupTimer != nil || e.backupUsed {
		return
	}
	e.backupUsed = true
	e.backupTimer = time.AfterFunc(e.backupDelay, func() {
		e.mu.Lock()
		e.backupTimer = nil
		closed := e.closed
		stillEmpty := len(e.events) == 0
		e.mu.Unlock()
		if closed || !stillEmpty {
			return
		}
		applog.Info("backup fetch firing")
		_ = e.Refresh(context.Background())
	})
}

func (e *Engine) cancelBackupFetch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backupTimer != nil {
		e.backupTimer.Stop()
		e.backupTimer = nil
	}
}

// Close tears the engine down, cancelling any scheduled timers so they
// cannot fire against a torn-down session.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	if e.backupTimer != nil {
		e.backupTimer.Stop()
		e.backupTimer = nil
	}
	e.mu.Unlock()
}

// Events returns the last committed event list. Callers must treat it
// as immutable.
func (e *Engine) Events() []model.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events
}

// LastError returns the current fetch status message, empty when the
// last fetch succeeded.
func (e *Engine) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}

// DismissError clears the status message.
func (e *Engine) DismissError() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastError = ""
}

// NewSession creates a session with default filters and an idle
// selection.
func (e *Engine) NewSession() *Session {
	s := &Session{
		ID:      uuid.New().String(),
		filters: model.DefaultFilterState(),
		nav:     selection.NewMemoryNavigator(),
	}
	resolver := deeplink.NewResolver(e.Events, e.src)
	s.selection = selection.NewController(s.nav, resolver, func(lat, lng float64) {
		s.mu.Lock()
		s.mapCenter = &model.LatLng{Lat: lat, Lng: lng}
		s.mu.Unlock()
	})

	e.mu.Lock()
	e.sessions[s.ID] = s
	e.mu.Unlock()
	return s
}

// Session returns the session for an id, or ErrNoSession.
func (e *Engine) Session(id string) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// FilteredAndRankedEvents returns the ordered list for map and list
// rendering. The derivation is memoized under the explicit key
// (eventsVersion, filterVersion, minute bucket of now).
func (e *Engine) FilteredAndRankedEvents(s *Session) []model.Event {
	e.mu.Lock()
	events := e.events
	version := e.eventsVersion
	e.mu.Unlock()

	now := e.now()
	bucket := now.Unix() / 60

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memo.result != nil &&
		s.memo.eventsVersion == version &&
		s.memo.filterVersion == s.filterVersion &&
		s.memo.nowBucket == bucket {
		return s.memo.result
	}

	filtered := filter.Apply(events, s.filters, now)
	ranked := e.scorer.Rank(filtered, s.filters.ReferenceLocation, now)
	s.memo = rankedMemo{
		eventsVersion: version,
		filterVersion: s.filterVersion,
		nowBucket:     bucket,
		result:        ranked,
	}
	return ranked
}

// Filters returns a copy of the session's filter state. The category
// map is copied too, so the result stays stable across later toggles.
func (s *Session) Filters() model.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.filters
	out.SelectedCategories = make(map[string]bool, len(s.filters.SelectedCategories))
	for k, v := range s.filters.SelectedCategories {
		out.SelectedCategories[k] = v
	}
	return out
}

// Selection returns the session's selection state.
func (s *Session) Selection() model.SelectionState {
	return s.selection.State()
}

// SelectedEvent returns the open event, if any.
func (s *Session) SelectedEvent() (model.Event, bool) {
	return s.selection.SelectedEvent()
}

// MapCenter returns the coordinates last propagated by a deep-link
// selection, for the map-centering consumer.
func (s *Session) MapCenter() *model.LatLng {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapCenter
}

// Path returns the session's current location-bar path.
func (s *Session) Path() string {
	return s.nav.Path()
}

// Select opens an event by id. An id not present in the store is a
// no-op, never an error.
func (e *Engine) Select(s *Session, id string) {
	for _, ev := range e.Events() {
		if ev.ID == id {
			s.selection.Select(ev)
			return
		}
	}
	applog.Debug("select ignored, id not in store", "id", id)
}

// CloseSelection dismisses the session's open event.
func (e *Engine) CloseSelection(s *Session) {
	s.selection.Close()
}

// SetTab switches the detail tab.
func (e *Engine) SetTab(s *Session, tab model.DetailTab) {
	s.selection.SetTab(tab)
}

// OpenSlug handles an incoming deep-link slug for the session.
func (e *Engine) OpenSlug(ctx context.Context, s *Session, slug string) {
	s.selection.OpenSlug(ctx, slug)
}

// OpenLegacyID handles the legacy ?event=id query form.
func (e *Engine) OpenLegacyID(s *Session, id string) {
	s.selection.OpenLegacyID(id, e.Events())
}

// Navigated handles a back/forward navigation result for the session.
func (e *Engine) Navigated(s *Session, path string) {
	s.selection.Navigated(path)
}

// ToggleCategory flips one category in the session's filter.
func (e *Engine) ToggleCategory(s *Session, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.ToggleCategory(category)
	s.filterVersion++
}
