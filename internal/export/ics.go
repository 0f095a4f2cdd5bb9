// Package export renders an event list as an iCalendar feed so a
// filtered result set can be subscribed to from a calendar app.
package export

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/pmorell/localevents/internal/model"
	"github.com/pmorell/localevents/internal/temporal"
)

const defaultDuration = 2 * time.Hour

// ICS serializes events into an iCalendar document. Events whose date
// fails to parse are skipped; the rest keep their given order.
func ICS(events []model.Event, calendarName string) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//localevents//discovery//EN")
	if calendarName != "" {
		cal.SetName(calendarName)
	}

	now := time.Now().UTC()
	for _, e := range events {
		start := temporal.EventStart(e)
		if start.IsZero() {
			continue
		}

		ve := cal.AddEvent(e.Identifier() + "@localevents")
		ve.SetDtStampTime(now)
		ve.SetStartAt(start)
		ve.SetEndAt(eventEnd(e, start))
		ve.SetSummary(e.Title)
		ve.SetDescription(e.Description)
		ve.SetLocation(locationLine(e))
		if e.EventURL != "" {
			ve.SetURL(e.EventURL)
		}
	}
	return cal.Serialize()
}

func eventEnd(e model.Event, start time.Time) time.Time {
	last := e.EndDate
	if last == "" {
		last = e.Date
	}
	day := temporal.NormalizeDate(last)
	if day.IsZero() {
		return start.Add(defaultDuration)
	}
	endClock := model.Event{Date: last, StartTime: e.EndTime}
	if e.EndTime != "" {
		if end := temporal.EventStart(endClock); !end.IsZero() && end.After(start) {
			return end
		}
	}
	return start.Add(defaultDuration)
}

func locationLine(e model.Event) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Address, e.City, e.State} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
