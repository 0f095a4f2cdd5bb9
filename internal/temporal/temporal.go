// Package temporal implements the date and time-of-day predicates used
// by the filter engine.
package temporal

import (
	"strconv"
	"strings"
	"time"

	"github.com/pmorell/localevents/internal/model"
)

const dateLayout = "2006-01-02"

// NormalizeDate parses a bare YYYY-MM-DD string into a time truncated
// to local midnight. The string is treated as a local calendar date,
// never UTC, so the day does not shift across timezones. Returns the
// zero time for unparseable input.
func NormalizeDate(input string) time.Time {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}
	}
	// Tolerate a trailing time component ("2025-06-01T19:00:00Z").
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsDateInRange reports whether the event date satisfies the range
// constraint. An absent range matches everything. A from-only range
// matches exactly that day. With both bounds set the match is
// inclusive. An unparseable event date fails a constrained range.
func IsDateInRange(dateStr string, r *model.DateRange) bool {
	if r == nil || (r.From.IsZero() && r.To.IsZero()) {
		return true
	}
	d := NormalizeDate(dateStr)
	if d.IsZero() {
		return false
	}
	if !r.From.IsZero() && r.To.IsZero() {
		return d.Equal(r.From)
	}
	return !d.Before(r.From) && !d.After(r.To)
}

// IsEventPast reports whether the event is entirely over at now. The
// comparison uses the end of the event's effective last day: EndDate
// when present, else Date. Parse failures fail open so an event is
// never dropped for a bad date here.
func IsEventPast(e model.Event, now time.Time) bool {
	last := e.EndDate
	if last == "" {
		last = e.Date
	}
	d := NormalizeDate(last)
	if d.IsZero() {
		return false
	}
	endOfDay := d.AddDate(0, 0, 1)
	return !endOfDay.After(now)
}

// TimePeriodOf maps an HH:MM clock time to its part of the day.
// Returns the empty string on unparseable input; callers must treat
// that as "never matches a specific period filter".
func TimePeriodOf(startTime string) model.TimePeriod {
	h, ok := parseHour(startTime)
	if !ok {
		return ""
	}
	switch {
	case h >= 5 && h < 12:
		return model.PeriodMorning
	case h >= 12 && h < 17:
		return model.PeriodAfternoon
	case h >= 17 && h < 21:
		return model.PeriodEvening
	default:
		return model.PeriodNight
	}
}

// EventStart combines an event's date and start time into a local
// timestamp. A malformed start time falls back to midnight.
func EventStart(e model.Event) time.Time {
	d := NormalizeDate(e.Date)
	if d.IsZero() {
		return time.Time{}
	}
	h, m, ok := parseClock(e.StartTime)
	if !ok {
		return d
	}
	return d.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func parseHour(clock string) (int, bool) {
	h, _, ok := parseClock(clock)
	return h, ok
}

func parseClock(clock string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) < 2 {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
