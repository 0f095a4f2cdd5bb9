// Package normalize validates and repairs raw event records before
// they enter the engine's store. Everything downstream relies on the
// invariants enforced here: valid coordinates and a parseable date.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pmorell/localevents/internal/interaction"
	applog "github.com/pmorell/localevents/internal/log"
	"github.com/pmorell/localevents/internal/model"
	"github.com/pmorell/localevents/internal/temporal"
)

// Defaults substituted for absent optional fields.
const (
	DefaultTitle       = "Untitled Event"
	DefaultDescription = "No description available"
	DefaultStartTime   = "12:00"
	DefaultCategory    = "other"
	DefaultAddress     = "Location not specified"
)

// Events normalizes a raw batch, dropping malformed records silently
// and preserving input order. When cache is non-nil each accepted
// event seeds it with the observed counts.
func Events(raws []model.RawEvent, cache *interaction.Cache) []model.Event {
	events := make([]model.Event, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		e, ok := One(raw)
		if !ok {
			dropped++
			continue
		}
		if cache != nil {
			cache.Seed(e.ID, e.InterestCount, e.ViewCount)
		}
		events = append(events, e)
	}
	if dropped > 0 {
		applog.Debug("normalize dropped malformed events", "dropped", dropped, "accepted", len(events))
	}
	return events
}

// One normalizes a single raw record. It returns false when the record
// is rejected: missing id/title/date, or missing/non-finite/out-of-range
// coordinates.
func One(raw model.RawEvent) (model.Event, bool) {
	if raw == nil {
		return model.Event{}, false
	}

	id := stringField(raw, "id")
	title := stringField(raw, "title")
	date := stringField(raw, "date")
	if id == "" || title == "" || date == "" {
		return model.Event{}, false
	}
	if temporal.NormalizeDate(date).IsZero() {
		return model.Event{}, false
	}

	lat, latOK := numberField(raw, "lat")
	lng, lngOK := numberField(raw, "lng")
	if !latOK || !lngOK {
		return model.Event{}, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return model.Event{}, false
	}

	e := model.Event{
		ID:                id,
		Slug:              stringField(raw, "slug"),
		Title:             title,
		Description:       stringOr(raw, "description", DefaultDescription),
		Address:           stringOr(raw, "address", DefaultAddress),
		City:              stringField(raw, "city"),
		State:             stringField(raw, "state"),
		Category:          stringOr(raw, "category", DefaultCategory),
		SecondaryCategory: stringField(raw, "secondary_category"),
		Date:              date,
		EndDate:           stringField(raw, "end_date"),
		StartTime:         stringOr(raw, "start_time", DefaultStartTime),
		EndTime:           stringField(raw, "end_time"),
		Lat:               lat,
		Lng:               lng,
		HostName:          stringField(raw, "host_name"),
		FeeRequired:       stringField(raw, "fee_required"),
		EventURL:          stringField(raw, "event_url"),
		Verified:          boolField(raw, "verified"),
		InterestCount:     countField(raw, "interest_count"),
		ViewCount:         countField(raw, "view_count"),
		CreatedBy:         stringField(raw, "created_by"),
		Recurring:         boolField(raw, "recurring"),
	}
	return e, true
}

func stringField(raw model.RawEvent, key string) string {
	switch v := raw[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// JSON numbers arrive as float64; legacy ids are numeric.
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return fmt.Sprintf("%v", v)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func stringOr(raw model.RawEvent, key, fallback string) string {
	if s := stringField(raw, key); s != "" {
		return s
	}
	return fallback
}

func numberField(raw model.RawEvent, key string) (float64, bool) {
	var f float64
	switch v := raw[key].(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func boolField(raw model.RawEvent, key string) bool {
	switch v := raw[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	case float64:
		return v != 0
	default:
		return false
	}
}

func countField(raw model.RawEvent, key string) int {
	f, ok := numberField(raw, key)
	if !ok || f < 0 {
		return 0
	}
	return int(f)
}
