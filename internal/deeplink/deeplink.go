// Package deeplink resolves an incoming slug against the loaded event
// list, falling back to a single source lookup on miss.
package deeplink

import (
	"context"
	"errors"

	applog "github.com/pmorell/localevents/internal/log"
	"github.com/pmorell/localevents/internal/model"
	"github.com/pmorell/localevents/internal/normalize"
	"github.com/pmorell/localevents/internal/source"
)

// ErrNotFound is returned when a slug resolves to no event anywhere.
var ErrNotFound = errors.New("slug not found")

// SlugLookup is the network half of resolution.
type SlugLookup interface {
	FetchEventBySlug(ctx context.Context, slug string) (model.RawEvent, error)
}

// Resolver finds events by slug. It is not re-entrant for the same
// slug: callers hold the pendingSlugResolution guard and must check it
// before invoking a second resolution.
type Resolver struct {
	loaded func() []model.Event
	lookup SlugLookup
}

// NewResolver constructs a Resolver. loaded returns the current
// committed event list; lookup may be nil, in which case misses are
// final.
func NewResolver(loaded func() []model.Event, lookup SlugLookup) *Resolver {
	return &Resolver{loaded: loaded, lookup: lookup}
}

// Resolve returns the event for slug. The in-memory list is consulted
// first (no I/O); a miss triggers exactly one lookup request.
func (r *Resolver) Resolve(ctx context.Context, slug string) (model.Event, error) {
	if slug == "" {
		return model.Event{}, ErrNotFound
	}

	for _, e := range r.loaded() {
		if e.Slug == slug {
			return e, nil
		}
	}

	if r.lookup == nil {
		return model.Event{}, ErrNotFound
	}

	raw, err := r.lookup.FetchEventBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return model.Event{}, ErrNotFound
		}
		return model.Event{}, err
	}

	e, ok := normalize.One(raw)
	if !ok {
		applog.Debug("slug lookup returned malformed event", "slug", slug)
		return model.Event{}, ErrNotFound
	}
	return e, nil
}
