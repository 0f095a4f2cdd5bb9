package rank

import (
	"testing"
	"time"

	"github.com/pmorell/localevents/internal/model"
)

var testNow = time.Date(2025, time.May, 1, 12, 0, 0, 0, time.Local)

func ev(id string, lat, lng float64) model.Event {
	return model.Event{
		ID:        id,
		Date:      "2025-06-01",
		StartTime: "12:00",
		Lat:       lat,
		Lng:       lng,
	}
}

func TestDistanceMonotonicity(t *testing.T) {
	near := ev("near", 0, 0.1)
	far := ev("far", 0, 5)
	ref := &model.LatLng{Lat: 0, Lng: 0}

	s := NewScorer(DefaultWeights())
	got := s.Rank([]model.Event{far, near}, ref, testNow)
	if got[0].ID != "near" {
		t.Errorf("closer event should rank first, got %q", got[0].ID)
	}
}

func TestSoonerRanksHigher(t *testing.T) {
	soon := ev("soon", 0, 0)
	soon.Date = "2025-05-02"
	later := ev("later", 0, 0)
	later.Date = "2025-08-01"
	ref := &model.LatLng{Lat: 0, Lng: 0}

	s := NewScorer(DefaultWeights())
	got := s.Rank([]model.Event{later, soon}, ref, testNow)
	if got[0].ID != "soon" {
		t.Errorf("sooner event should rank first, got %q", got[0].ID)
	}
}

func TestPastStartContributesNoTimeTerm(t *testing.T) {
	started := ev("started", 0, 0)
	started.Date = "2025-05-01"
	started.StartTime = "08:00" // four hours before testNow

	s := NewScorer(DefaultWeights())
	ref := &model.LatLng{Lat: 0, Lng: 0}
	withTime := s.Score(ev("x", 0, 0), ref, testNow.Add(-time.Hour))
	withoutTime := s.Score(started, ref, testNow)
	if withoutTime >= withTime {
		t.Errorf("already-started event should score only the distance term: %f >= %f", withoutTime, withTime)
	}
}

func TestVerifiedMultiplierScalesBaseScore(t *testing.T) {
	plain := ev("plain", 0, 1)
	verified := ev("verified", 0, 1)
	verified.Verified = true
	ref := &model.LatLng{Lat: 0, Lng: 0}

	s := NewScorer(DefaultWeights())
	base := s.Score(plain, ref, testNow)
	boosted := s.Score(verified, ref, testNow)
	if diff := boosted - 2*base; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("verified score = %f, want exactly 2x base %f", boosted, base)
	}
}

func TestInterestAddedAfterMultiplier(t *testing.T) {
	e := ev("e", 0, 1)
	e.Verified = true
	e.InterestCount = 50
	ref := &model.LatLng{Lat: 0, Lng: 0}

	s := NewScorer(DefaultWeights())
	withInterest := s.Score(e, ref, testNow)
	e.InterestCount = 0
	without := s.Score(e, ref, testNow)
	if diff := withInterest - without - 5.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("interest term = %f, want exactly 0.1*50 added after the multiplier", withInterest-without)
	}
}

func TestScoreTiesBrokenBySoonest(t *testing.T) {
	// Same distance and an already-elapsed date, so both score only the
	// distance term and tie exactly.
	a := ev("a", 0, 1)
	b := ev("b", 0, 1)
	a.Date, b.Date = "2025-04-01", "2025-04-01"
	a.StartTime, b.StartTime = "15:00", "09:00"

	s := NewScorer(DefaultWeights())
	got := s.Rank([]model.Event{a, b}, &model.LatLng{Lat: 0, Lng: 0}, testNow)
	if got[0].ID != "b" {
		t.Errorf("tie should break by earlier start time, got %q first", got[0].ID)
	}
}

func TestFallbackOrdering(t *testing.T) {
	verified := ev("verified", 0, 0)
	verified.Verified = true
	popular := ev("popular", 0, 0)
	popular.InterestCount = 10
	soon := ev("soon", 0, 0)
	soon.Date = "2025-05-02"
	late := ev("late", 0, 0)
	late.Date = "2025-07-01"

	s := NewScorer(DefaultWeights())
	got := s.Rank([]model.Event{late, soon, popular, verified}, nil, testNow)

	wantOrder := []string{"verified", "popular", "soon", "late"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("fallback order[%d] = %q, want %q (full: %v)", i, got[i].ID, id, ids(got))
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	a := ev("a", 0, 5)
	b := ev("b", 0, 0.1)
	in := []model.Event{a, b}

	s := NewScorer(DefaultWeights())
	s.Rank(in, &model.LatLng{Lat: 0, Lng: 0}, testNow)
	if in[0].ID != "a" || in[1].ID != "b" {
		t.Error("Rank mutated its input slice")
	}
}

func TestNewScorerFillsZeroWeights(t *testing.T) {
	s := NewScorer(Weights{VerifiedMultiplier: 3})
	if s.weights.DistanceNumerator != 100 || s.weights.VerifiedMultiplier != 3 {
		t.Errorf("partial weights not merged with defaults: %+v", s.weights)
	}
}

func ids(events []model.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}
