// Package model defines the core domain types for the event discovery engine.
package model

import "time"

// RawEvent is a loosely-typed event record as delivered by an event
// source. It is validated and repaired by the normalize package before
// anything downstream sees it.
type RawEvent map[string]any

// Event is a normalized event. Every Event held by the engine has valid
// coordinates and a parseable date; the normalizer enforces this on
// ingest and it is never re-checked downstream.
type Event struct {
	ID                string  `json:"id"`
	Slug              string  `json:"slug,omitempty"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Address           string  `json:"address"`
	City              string  `json:"city,omitempty"`
	State             string  `json:"state,omitempty"`
	Category          string  `json:"category"`
	SecondaryCategory string  `json:"secondary_category,omitempty"`
	Date              string  `json:"date"`
	EndDate           string  `json:"end_date,omitempty"`
	StartTime         string  `json:"start_time"`
	EndTime           string  `json:"end_time,omitempty"`
	Lat               float64 `json:"lat"`
	Lng               float64 `json:"lng"`
	HostName          string  `json:"host_name,omitempty"`
	FeeRequired       string  `json:"fee_required,omitempty"`
	EventURL          string  `json:"event_url,omitempty"`
	Verified          bool    `json:"verified"`
	InterestCount     int     `json:"interest_count"`
	ViewCount         int     `json:"view_count"`
	CreatedBy         string  `json:"created_by,omitempty"`
	Recurring         bool    `json:"recurring"`
}

// Identifier returns the canonical identifier used uniformly for the
// manually-closed set, URL construction, and cache keys: the slug when
// present, else the id.
func (e Event) Identifier() string {
	if e.Slug != "" {
		return e.Slug
	}
	return e.ID
}

// Paid reports whether the event requires a fee. Presence of any
// non-empty fee text means "paid".
func (e Event) Paid() bool {
	return e.FeeRequired != ""
}

// LatLng is a geographic point in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DateRange is an inclusive calendar-date constraint. Both bounds are
// normalized to local midnight. A single selected day is represented as
// From == To.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// TimePeriod buckets a start time into a part of the day.
type TimePeriod string

const (
	PeriodAll       TimePeriod = "all"
	PeriodMorning   TimePeriod = "morning"   // [05:00, 12:00)
	PeriodAfternoon TimePeriod = "afternoon" // [12:00, 17:00)
	PeriodEvening   TimePeriod = "evening"   // [17:00, 21:00)
	PeriodNight     TimePeriod = "night"     // [21:00, 05:00)
)

// FeeFilter selects events by whether they charge a fee.
type FeeFilter string

const (
	FeeAll  FeeFilter = "all"
	FeeFree FeeFilter = "free"
	FeePaid FeeFilter = "paid"
)

// CategoryAll is the sentinel category meaning "no category constraint".
// It is mutually exclusive with any other member of the selected set.
const CategoryAll = "all"

// ProximityUnbounded disables the distance cutoff while still allowing
// distance-based ranking when a reference location is set.
const ProximityUnbounded float64 = -1

// FilterState is the authoritative, mutable filter configuration for a
// session. It is created once per session and mutated in place through
// the engine's entry points; it is never serialized to storage.
type FilterState struct {
	SelectedCategories map[string]bool `json:"selected_categories"`
	DateRange          *DateRange      `json:"date_range,omitempty"`
	TimePeriod         TimePeriod      `json:"time_period"`
	FeeFilter          FeeFilter       `json:"fee_filter"`
	Proximity          float64         `json:"proximity"`
	ReferenceLocation  *LatLng         `json:"reference_location,omitempty"`
}

// DefaultFilterState returns the unconstrained filter configuration.
func DefaultFilterState() FilterState {
	return FilterState{
		SelectedCategories: map[string]bool{CategoryAll: true},
		TimePeriod:         PeriodAll,
		FeeFilter:          FeeAll,
		Proximity:          ProximityUnbounded,
	}
}

// ToggleCategory flips membership of a category in the selected set,
// keeping the "all" sentinel mutually exclusive with everything else:
// selecting "all" clears other members, selecting any other member
// removes "all", and deselecting the last member resets to {"all"}.
func (f *FilterState) ToggleCategory(category string) {
	if f.SelectedCategories == nil {
		f.SelectedCategories = map[string]bool{CategoryAll: true}
	}
	if category == CategoryAll {
		f.SelectedCategories = map[string]bool{CategoryAll: true}
		return
	}
	if f.SelectedCategories[category] {
		delete(f.SelectedCategories, category)
	} else {
		f.SelectedCategories[category] = true
		delete(f.SelectedCategories, CategoryAll)
	}
	if len(f.SelectedCategories) == 0 {
		f.SelectedCategories[CategoryAll] = true
	}
}

// DetailTab identifies which tab of the detail panel is active.
type DetailTab string

const (
	TabDetails DetailTab = "details"
	TabShare   DetailTab = "share"
)

// SelectionState describes which event, if any, is open for a session.
type SelectionState struct {
	SelectedEventID string    `json:"selected_event_id,omitempty"`
	ActiveDetailTab DetailTab `json:"active_detail_tab"`
}

// Selected reports whether any event is open.
func (s SelectionState) Selected() bool {
	return s.SelectedEventID != ""
}

// SubmitEventRequest is the payload for submitting a new event.
type SubmitEventRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	EndDate     string  `json:"end_date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	HostName    string  `json:"host_name"`
	FeeRequired string  `json:"fee_required"`
	EventURL    string  `json:"event_url"`
	CreatedBy   string  `json:"created_by"`
}

// SelectRequest is the payload for selecting an event by id.
type SelectRequest struct {
	ID string `json:"id"`
}

// FilterUpdate is a partial FilterState update. Nil fields leave the
// current value untouched.
type FilterUpdate struct {
	SelectedCategories []string `json:"selected_categories,omitempty"`
	DateFrom           *string  `json:"date_from,omitempty"`
	DateTo             *string  `json:"date_to,omitempty"`
	ClearDateRange     bool     `json:"clear_date_range,omitempty"`
	TimePeriod         *string  `json:"time_period,omitempty"`
	FeeFilter          *string  `json:"fee_filter,omitempty"`
	Proximity          *float64 `json:"proximity,omitempty"`
	ReferenceLocation  *LatLng  `json:"reference_location,omitempty"`
	ClearReference     bool     `json:"clear_reference,omitempty"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
