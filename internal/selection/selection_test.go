package selection

import (
	"context"
	"testing"
	"time"

	"github.com/pmorell/localevents/internal/deeplink"
	"github.com/pmorell/localevents/internal/model"
)

func event(id, slug string) model.Event {
	return model.Event{ID: id, Slug: slug, Title: "T", Date: "2025-06-01", Lat: 40, Lng: -74}
}

// stubResolver resolves slugs from a fixed table.
type stubResolver struct {
	events map[string]model.Event
	calls  int
}

func (r *stubResolver) Resolve(ctx context.Context, slug string) (model.Event, error) {
	r.calls++
	if e, ok := r.events[slug]; ok {
		return e, nil
	}
	return model.Event{}, deeplink.ErrNotFound
}

// blockingResolver parks every Resolve call until released, to model a
// resolution still in flight.
type blockingResolver struct {
	release chan struct{}
	event   model.Event
}

func (r *blockingResolver) Resolve(ctx context.Context, slug string) (model.Event, error) {
	<-r.release
	return r.event, nil
}

func newTestController(resolver Resolver) (*Controller, *MemoryNavigator) {
	nav := NewMemoryNavigator()
	return NewController(nav, resolver, nil), nav
}

func TestSelectPushesCanonicalPath(t *testing.T) {
	c, nav := newTestController(&stubResolver{})
	e := event("1", "concert-x")
	e.City, e.State = "Austin", "TX"

	c.Select(e)

	st := c.State()
	if st.SelectedEventID != "1" || st.ActiveDetailTab != model.TabDetails {
		t.Fatalf("state = %+v, want selected event 1 on details tab", st)
	}
	if nav.Path() != "/us/tx/austin/events/concert-x" {
		t.Errorf("path = %q, want location-qualified canonical path", nav.Path())
	}
}

func TestSelectSameEventIsNoOp(t *testing.T) {
	c, nav := newTestController(&stubResolver{})
	e := event("1", "concert-x")

	c.Select(e)
	pathAfterFirst := nav.Path()
	c.Select(e)

	if nav.Path() != pathAfterFirst {
		t.Error("re-selecting the open event must not navigate again")
	}
}

func TestSelectionExclusivity(t *testing.T) {
	c, _ := newTestController(&stubResolver{})

	c.Select(event("1", "a"))
	c.Select(event("2", "b"))
	c.Select(event("3", "c"))

	st := c.State()
	if st.SelectedEventID != "3" {
		t.Errorf("selected = %q, want only the last selection", st.SelectedEventID)
	}
}

func TestCloseRecordsIdentifierAndReplacesURL(t *testing.T) {
	c, nav := newTestController(&stubResolver{})
	c.Select(event("1", "concert-x"))

	c.Close()

	if c.State().Selected() {
		t.Fatal("close should transition to Idle")
	}
	if !c.ManuallyClosed("concert-x") {
		t.Error("close should record the slug in the manually-closed set")
	}
	if nav.Path() != RootPath {
		t.Errorf("path = %q, want root after close", nav.Path())
	}
}

func TestCloseWithoutSelectionIsNoOp(t *testing.T) {
	c, nav := newTestController(&stubResolver{})
	c.Close()
	if nav.Path() != RootPath {
		t.Errorf("path = %q", nav.Path())
	}
}

func TestCloseFallsBackToIDWithoutSlug(t *testing.T) {
	c, _ := newTestController(&stubResolver{})
	c.Select(event("42", ""))
	c.Close()
	if !c.ManuallyClosed("42") {
		t.Error("without a slug the id is the canonical identifier")
	}
}

func TestOpenSlugSelectsAndLocates(t *testing.T) {
	resolver := &stubResolver{events: map[string]model.Event{"concert-x": event("1", "concert-x")}}
	nav := NewMemoryNavigator()
	var located *model.LatLng
	c := NewController(nav, resolver, func(lat, lng float64) {
		located = &model.LatLng{Lat: lat, Lng: lng}
	})

	c.OpenSlug(context.Background(), "concert-x")

	if c.State().SelectedEventID != "1" {
		t.Fatal("slug route should select the resolved event")
	}
	if located == nil || located.Lat != 40 || located.Lng != -74 {
		t.Error("resolved coordinates should be propagated for map centering")
	}
	if c.PendingSlug() != "" {
		t.Error("pending resolution must be cleared on success")
	}
}

func TestOpenSlugMissLeavesIdleAndClearsPending(t *testing.T) {
	c, _ := newTestController(&stubResolver{})

	c.OpenSlug(context.Background(), "missing")

	if c.State().Selected() {
		t.Error("a miss must leave nothing selected")
	}
	if c.PendingSlug() != "" {
		t.Error("pending resolution must be cleared on failure too")
	}
}

func TestManualCloseSuppressesReopen(t *testing.T) {
	resolver := &stubResolver{events: map[string]model.Event{"concert-x": event("1", "concert-x")}}
	c := NewController(NewMemoryNavigator(), resolver, nil)

	c.Select(event("1", "concert-x"))
	c.Close()

	// Re-delivering the same URL must not reselect.
	c.OpenSlug(context.Background(), "concert-x")
	if c.State().Selected() {
		t.Fatal("manually closed slug must not be reopened by its URL")
	}

	// An explicit click overrides the dismissal.
	c.Select(event("1", "concert-x"))
	if c.State().SelectedEventID != "1" {
		t.Fatal("explicit select must override a prior dismissal")
	}
	if c.ManuallyClosed("concert-x") {
		t.Error("select should remove the identifier from the dismissal set")
	}
}

func TestOpenSlugAlreadySelectedIsNoOp(t *testing.T) {
	resolver := &stubResolver{events: map[string]model.Event{"concert-x": event("1", "concert-x")}}
	c := NewController(NewMemoryNavigator(), resolver, nil)

	c.Select(event("1", "concert-x"))
	c.OpenSlug(context.Background(), "concert-x")

	if resolver.calls != 0 {
		t.Error("already-selected slug must not trigger resolution")
	}
}

func TestOpenSlugDuplicateWhilePending(t *testing.T) {
	blocking := &blockingResolver{release: make(chan struct{}), event: event("1", "concert-x")}
	c := NewController(NewMemoryNavigator(), blocking, nil)

	done := make(chan struct{})
	go func() {
		c.OpenSlug(context.Background(), "concert-x")
		close(done)
	}()

	// Wait until the first resolution is registered as pending.
	for c.PendingSlug() != "concert-x" {
		time.Sleep(time.Millisecond)
	}

	// A duplicate delivery for the same slug must return without a
	// second resolution; it would otherwise deadlock on the release
	// channel.
	c.OpenSlug(context.Background(), "concert-x")

	close(blocking.release)
	<-done
	if c.State().SelectedEventID != "1" {
		t.Error("original resolution should still apply")
	}
}

func TestDeepLinkRace(t *testing.T) {
	// URL resolves "concert-x" asynchronously; before it completes the
	// user clicks "concert-y" and then closes it. The late resolution
	// must still win (its own guard was never triggered), and closing
	// "concert-x" afterwards must not resurrect "concert-y".
	blocking := &blockingResolver{release: make(chan struct{}), event: event("x", "concert-x")}
	c := NewController(NewMemoryNavigator(), blocking, nil)

	done := make(chan struct{})
	go func() {
		c.OpenSlug(context.Background(), "concert-x")
		close(done)
	}()
	for c.PendingSlug() != "concert-x" {
		time.Sleep(time.Millisecond)
	}

	c.Select(event("y", "concert-y"))
	c.Close()

	close(blocking.release)
	<-done

	if got := c.State().SelectedEventID; got != "x" {
		t.Fatalf("selection = %q, want concert-x after its resolution completes", got)
	}

	c.Close()
	if c.State().Selected() {
		t.Error("closing concert-x must leave nothing selected")
	}
}

func TestDeepLinkDiscardedWhenClosedInFlight(t *testing.T) {
	// If the user dismisses the very event being resolved, the stale
	// result must be discarded at apply time.
	blocking := &blockingResolver{release: make(chan struct{}), event: event("x", "concert-x")}
	c := NewController(NewMemoryNavigator(), blocking, nil)

	done := make(chan struct{})
	go func() {
		c.OpenSlug(context.Background(), "concert-x")
		close(done)
	}()
	for c.PendingSlug() != "concert-x" {
		time.Sleep(time.Millisecond)
	}

	c.Select(event("x", "concert-x"))
	c.Close() // records concert-x as manually closed

	close(blocking.release)
	<-done

	if c.State().Selected() {
		t.Error("resolution result for a dismissed slug must be discarded")
	}
}

func TestOpenLegacyID(t *testing.T) {
	c, nav := newTestController(&stubResolver{})
	nav.Replace("/?event=42")
	loaded := []model.Event{event("41", ""), event("42", "")}

	c.OpenLegacyID("42", loaded)

	if c.State().SelectedEventID != "42" {
		t.Fatal("legacy id should select from the loaded list")
	}
	if nav.Path() != RootPath {
		t.Error("legacy query parameter must be stripped")
	}
}

func TestOpenLegacyIDMissStillStrips(t *testing.T) {
	c, nav := newTestController(&stubResolver{})
	nav.Replace("/?event=999")

	c.OpenLegacyID("999", nil)

	if c.State().Selected() {
		t.Error("unknown legacy id must not select anything")
	}
	if nav.Path() != RootPath {
		t.Error("parameter must be stripped regardless of match success")
	}
}

func TestNavigatedToRootResetsDismissals(t *testing.T) {
	resolver := &stubResolver{events: map[string]model.Event{"concert-x": event("1", "concert-x")}}
	c := NewController(NewMemoryNavigator(), resolver, nil)

	c.Select(event("1", "concert-x"))
	c.Close()
	if !c.ManuallyClosed("concert-x") {
		t.Fatal("setup: dismissal not recorded")
	}

	c.Navigated(RootPath)

	if c.ManuallyClosed("concert-x") {
		t.Error("navigation to root must clear dismissal memory")
	}
	// After the reset, the URL may reopen the event again.
	c.OpenSlug(context.Background(), "concert-x")
	if c.State().SelectedEventID != "1" {
		t.Error("slug should reopen after dismissal memory was cleared")
	}
}

func TestNavigatedToEventPathKeepsSelection(t *testing.T) {
	c, _ := newTestController(&stubResolver{})
	c.Select(event("1", "concert-x"))

	c.Navigated("/events/concert-x")

	if !c.State().Selected() {
		t.Error("navigating within event paths must not force Idle")
	}
}

func TestSetTab(t *testing.T) {
	c, _ := newTestController(&stubResolver{})
	c.SetTab(model.TabShare) // nothing selected: no-op
	c.Select(event("1", "a"))
	c.SetTab(model.TabShare)
	if c.State().ActiveDetailTab != model.TabShare {
		t.Error("tab switch failed")
	}
}

func TestCanonicalPathForms(t *testing.T) {
	withLocation := event("1", "jazz-night")
	withLocation.City, withLocation.State = "San Diego", "CA"

	tests := []struct {
		name string
		e    model.Event
		want string
	}{
		{"location qualified", withLocation, "/us/ca/san-diego/events/jazz-night"},
		{"slug only", event("1", "jazz-night"), "/events/jazz-night"},
		{"legacy id", event("77", ""), "/?event=77"},
	}
	for _, tt := range tests {
		if got := CanonicalPath(tt.e); got != tt.want {
			t.Errorf("%s: CanonicalPath = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIsEventPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/", false},
		{"/about", false},
		{"/e/jazz-night", true},
		{"/events/jazz-night", true},
		{"/us/ca/san-diego/events/jazz-night", true},
		{"/?event=42", true},
		{"/us/ca/san-diego", false},
	}
	for _, tt := range tests {
		if got := IsEventPath(tt.path); got != tt.want {
			t.Errorf("IsEventPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
