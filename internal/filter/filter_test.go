package filter

import (
	"reflect"
	"testing"
	"time"

	"github.com/pmorell/localevents/internal/model"
)

var testNow = time.Date(2025, time.May, 1, 12, 0, 0, 0, time.Local)

func ev(id, category, date string) model.Event {
	return model.Event{ID: id, Category: category, Date: date, StartTime: "12:00"}
}

func categories(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func TestBasicCategoryFilter(t *testing.T) {
	events := []model.Event{
		ev("1", "music", "2025-06-01"),
		ev("2", "sports", "2025-06-01"),
	}
	fs := model.DefaultFilterState()
	fs.SelectedCategories = categories("music")

	got := Apply(events, fs, testNow)
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("got %v, want only event 1", got)
	}
}

func TestCategoryAllMatchesEverything(t *testing.T) {
	events := []model.Event{
		ev("1", "music", "2025-06-01"),
		ev("2", "sports", "2025-06-01"),
	}
	got := Apply(events, model.DefaultFilterState(), testNow)
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
}

func TestPastExclusionRegardlessOfFilters(t *testing.T) {
	events := []model.Event{
		ev("past", "music", "2025-04-30"),
		ev("future", "music", "2025-06-01"),
	}
	got := Apply(events, model.DefaultFilterState(), testNow)
	if len(got) != 1 || got[0].ID != "future" {
		t.Fatalf("past event not excluded: %v", got)
	}
}

func TestPastExclusionUsesEndDate(t *testing.T) {
	e := ev("multi", "music", "2025-04-20")
	e.EndDate = "2025-05-02"
	got := Apply([]model.Event{e}, model.DefaultFilterState(), testNow)
	if len(got) != 1 {
		t.Fatal("multi-day event still running should be included")
	}
}

func TestDateRangeBoundary(t *testing.T) {
	fs := model.DefaultFilterState()
	fs.DateRange = &model.DateRange{
		From: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.Local),
		To:   time.Date(2025, time.June, 10, 0, 0, 0, 0, time.Local),
	}
	events := []model.Event{
		ev("on-to", "music", "2025-06-10"),
		ev("after-to", "music", "2025-06-11"),
	}

	got := Apply(events, fs, testNow)
	if len(got) != 1 || got[0].ID != "on-to" {
		t.Fatalf("inclusive to-bound violated: %v", got)
	}
}

func TestTimePeriodFilter(t *testing.T) {
	morning := ev("m", "music", "2025-06-01")
	morning.StartTime = "09:00"
	evening := ev("e", "music", "2025-06-01")
	evening.StartTime = "19:00"
	broken := ev("b", "music", "2025-06-01")
	broken.StartTime = "whenever"

	fs := model.DefaultFilterState()
	fs.TimePeriod = model.PeriodEvening

	got := Apply([]model.Event{morning, evening, broken}, fs, testNow)
	if len(got) != 1 || got[0].ID != "e" {
		t.Fatalf("time period filter: got %v, want only evening event", got)
	}
}

func TestFeeFilter(t *testing.T) {
	free := ev("free", "music", "2025-06-01")
	paid := ev("paid", "music", "2025-06-01")
	paid.FeeRequired = "$10 at the door"

	fs := model.DefaultFilterState()
	fs.FeeFilter = model.FeeFree
	got := Apply([]model.Event{free, paid}, fs, testNow)
	if len(got) != 1 || got[0].ID != "free" {
		t.Fatalf("free filter: got %v", got)
	}

	fs.FeeFilter = model.FeePaid
	got = Apply([]model.Event{free, paid}, fs, testNow)
	if len(got) != 1 || got[0].ID != "paid" {
		t.Fatalf("paid filter: got %v", got)
	}
}

func TestProximityCutoff(t *testing.T) {
	// One degree of longitude at the equator is about 69 miles.
	far := ev("far", "music", "2025-06-01")
	far.Lat, far.Lng = 0, 1

	fs := model.DefaultFilterState()
	fs.ReferenceLocation = &model.LatLng{Lat: 0, Lng: 0}
	fs.Proximity = 10

	if got := Apply([]model.Event{far}, fs, testNow); len(got) != 0 {
		t.Fatalf("event ~69 miles away survived a 10-mile cutoff: %v", got)
	}

	fs.Proximity = model.ProximityUnbounded
	if got := Apply([]model.Event{far}, fs, testNow); len(got) != 1 {
		t.Fatal("unbounded proximity should not exclude by distance")
	}
}

func TestProximityIgnoredWithoutReference(t *testing.T) {
	far := ev("far", "music", "2025-06-01")
	far.Lat, far.Lng = 0, 50

	fs := model.DefaultFilterState()
	fs.Proximity = 10 // no reference location set

	if got := Apply([]model.Event{far}, fs, testNow); len(got) != 1 {
		t.Fatal("proximity must be ignored when no reference location is set")
	}
}

func TestIdempotence(t *testing.T) {
	events := []model.Event{
		ev("1", "music", "2025-06-01"),
		ev("2", "sports", "2025-06-02"),
		ev("3", "music", "2025-04-01"),
	}
	fs := model.DefaultFilterState()
	fs.SelectedCategories = categories("music")

	once := Apply(events, fs, testNow)
	twice := Apply(once, fs, testNow)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("filter not idempotent: %v vs %v", once, twice)
	}
}

func TestOrderPreserved(t *testing.T) {
	events := []model.Event{
		ev("z", "music", "2025-06-03"),
		ev("a", "music", "2025-06-01"),
		ev("m", "music", "2025-06-02"),
	}
	got := Apply(events, model.DefaultFilterState(), testNow)
	if got[0].ID != "z" || got[1].ID != "a" || got[2].ID != "m" {
		t.Errorf("input order not preserved: %v", got)
	}
}
