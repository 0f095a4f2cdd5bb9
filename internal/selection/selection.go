// Package selection owns "which event is open". The controller
// reconciles clicks, deep-link URLs, back/forward navigation, and
// explicit dismissal, and keeps the location bar consistent with the
// selection despite asynchronous resolution and duplicate navigation.
package selection

import (
	"context"
	"errors"
	"sync"

	"github.com/pmorell/localevents/internal/deeplink"
	applog "github.com/pmorell/localevents/internal/log"
	"github.com/pmorell/localevents/internal/model"
)

// Resolver resolves a slug to an event.
type Resolver interface {
	Resolve(ctx context.Context, slug string) (model.Event, error)
}

// LocateFunc receives the coordinates of an event opened through a
// deep link, for map centering.
type LocateFunc func(lat, lng float64)

// Controller is the selection state machine for one session. At most
// one event is ever selected; entering a new selection implicitly
// exits the prior one.
//
// Two guards provide ordering safety across asynchronous boundaries:
// manuallyClosed suppresses URL-driven reselection of an event the
// user just dismissed, and pendingSlug prevents duplicate concurrent
// resolution of the same slug. Both are re-checked at the moment a
// resolution's result is applied, not only when it was initiated.
type Controller struct {
	mu sync.Mutex

	nav      Navigator
	resolver Resolver
	onLocate LocateFunc

	state          model.SelectionState
	selected       model.Event
	manuallyClosed map[string]bool
	pendingSlug    string
}

// NewController constructs a Controller in the Idle state. onLocate
// may be nil.
func NewController(nav Navigator, resolver Resolver, onLocate LocateFunc) *Controller {
	return &Controller{
		nav:            nav,
		resolver:       resolver,
		onLocate:       onLocate,
		state:          model.SelectionState{ActiveDetailTab: model.TabDetails},
		manuallyClosed: make(map[string]bool),
	}
}

// State returns the current selection state.
func (c *Controller) State() model.SelectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SelectedEvent returns the open event, if any.
func (c *Controller) SelectedEvent() (model.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.state.Selected()
}

// SetTab switches the active detail tab; a no-op when nothing is open.
func (c *Controller) SetTab(tab model.DetailTab) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Selected() {
		c.state.ActiveDetailTab = tab
	}
}

// Select opens an event from a user click. Selecting the already-open
// event is a no-op. A deliberate re-open overrides a prior dismissal,
// so the event's identifier is removed from the manually-closed set.
// The location bar is pushed to the event's canonical path.
func (c *Controller) Select(e model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Selected() && c.state.SelectedEventID == e.ID {
		return
	}
	delete(c.manuallyClosed, e.Identifier())
	c.apply(e)
	c.nav.Push(CanonicalPath(e))
}

// Close dismisses the open selection. The identifier is recorded so
// that re-delivering the same URL does not reopen the event. An event
// URL in the location bar is replaced with the root path; a close
// never pushes a new history entry.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Selected() {
		return
	}
	c.manuallyClosed[c.selected.Identifier()] = true
	c.state = model.SelectionState{ActiveDetailTab: model.TabDetails}
	c.selected = model.Event{}
	if IsEventPath(c.nav.Path()) {
		c.nav.Replace(RootPath)
	}
}

// OpenSlug handles an incoming URL carrying a slug. Nothing happens
// when the slug was manually closed, a resolution for it is already
// pending, or it is already open. Resolution misses are logged and
// leave the selection unchanged; they never surface as errors.
func (c *Controller) OpenSlug(ctx context.Context, slug string) {
	c.mu.Lock()
	if slug == "" ||
		c.manuallyClosed[slug] ||
		c.pendingSlug == slug ||
		(c.state.Selected() && c.selected.Slug == slug) {
		c.mu.Unlock()
		return
	}
	c.pendingSlug = slug
	c.mu.Unlock()

	e, err := c.resolver.Resolve(ctx, slug)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingSlug = ""
	if err != nil {
		if !errors.Is(err, deeplink.ErrNotFound) {
			applog.Error("slug resolution failed", err, "slug", slug)
		} else {
			applog.Debug("slug resolution miss", "slug", slug)
		}
		return
	}
	// The user may have dismissed this event while resolution was in
	// flight; re-check before applying the stale result.
	if c.manuallyClosed[slug] {
		return
	}
	if c.state.Selected() && c.selected.Slug == slug {
		return
	}
	c.apply(e)
}

// OpenLegacyID handles the legacy ?event=id query form: matched by id
// against the loaded event list only, no network fallback. The
// parameter is stripped from the location bar regardless of whether
// the id matches.
func (c *Controller) OpenLegacyID(id string, loaded []model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if IsEventPath(c.nav.Path()) {
		c.nav.Replace(RootPath)
	}

	var found model.Event
	ok := false
	for _, e := range loaded {
		if e.ID == id {
			found, ok = e, true
			break
		}
	}
	if !ok {
		applog.Debug("legacy event id not in loaded list", "id", id)
		return
	}
	if c.manuallyClosed[found.Identifier()] {
		return
	}
	if c.state.Selected() && c.state.SelectedEventID == found.ID {
		return
	}
	c.apply(found)
}

// Navigated handles a back/forward navigation result. Landing on the
// root path or any non-event path forces Idle and clears the
// manually-closed set entirely: a full navigation away resets
// dismissal memory.
func (c *Controller) Navigated(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if IsEventPath(path) {
		return
	}
	c.state = model.SelectionState{ActiveDetailTab: model.TabDetails}
	c.selected = model.Event{}
	c.manuallyClosed = make(map[string]bool)
}

// PendingSlug returns the slug currently being resolved, if any.
func (c *Controller) PendingSlug() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingSlug
}

// ManuallyClosed reports whether an identifier is in the dismissal set.
func (c *Controller) ManuallyClosed(identifier string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manuallyClosed[identifier]
}

// apply enters Selected for e. Callers hold the lock.
func (c *Controller) apply(e model.Event) {
	c.state = model.SelectionState{
		SelectedEventID: e.ID,
		ActiveDetailTab: model.TabDetails,
	}
	c.selected = e
	if c.onLocate != nil {
		c.onLocate(e.Lat, e.Lng)
	}
}
