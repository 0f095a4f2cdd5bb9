// Package filter implements the pure filtering pipeline that reduces
// the event store to the subset matching a session's filter state.
package filter

import (
	"time"

	"github.com/pmorell/localevents/internal/geo"
	"github.com/pmorell/localevents/internal/model"
	"github.com/pmorell/localevents/internal/temporal"
)

// Apply returns the events surviving every active predicate, in their
// original order. It is deterministic and side-effect free: identical
// inputs always yield the identical list.
func Apply(events []model.Event, fs model.FilterState, now time.Time) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if matches(e, fs, now) {
			out = append(out, e)
		}
	}
	return out
}

func matches(e model.Event, fs model.FilterState, now time.Time) bool {
	if temporal.IsEventPast(e, now) {
		return false
	}
	if !categoryMatch(e, fs.SelectedCategories) {
		return false
	}
	if !temporal.IsDateInRange(e.Date, fs.DateRange) {
		return false
	}
	if !timeMatch(e, fs.TimePeriod) {
		return false
	}
	if !feeMatch(e, fs.FeeFilter) {
		return false
	}
	return proximityMatch(e, fs)
}

func categoryMatch(e model.Event, selected map[string]bool) bool {
	if len(selected) == 0 || selected[model.CategoryAll] {
		return true
	}
	return selected[e.Category]
}

func timeMatch(e model.Event, period model.TimePeriod) bool {
	if period == model.PeriodAll || period == "" {
		return true
	}
	// An unparseable start time buckets to "" and never matches a
	// specific period.
	return temporal.TimePeriodOf(e.StartTime) == period
}

func feeMatch(e model.Event, fee model.FeeFilter) bool {
	switch fee {
	case model.FeeFree:
		return !e.Paid()
	case model.FeePaid:
		return e.Paid()
	default:
		return true
	}
}

func proximityMatch(e model.Event, fs model.FilterState) bool {
	if fs.ReferenceLocation == nil || fs.Proximity == model.ProximityUnbounded {
		return true
	}
	d := geo.Distance(fs.ReferenceLocation.Lat, fs.ReferenceLocation.Lng, e.Lat, e.Lng)
	return d <= fs.Proximity
}
