// Package rank orders a filtered event list for display. With a
// reference location set it computes a weighted priority score;
// otherwise it falls back to verified-first, interest-first,
// soonest-first ordering.
package rank

import (
	"sort"
	"time"

	"github.com/pmorell/localevents/internal/geo"
	"github.com/pmorell/localevents/internal/model"
	"github.com/pmorell/localevents/internal/temporal"
)

// Weights holds the tuning constants of the priority score. The values
// were tuned empirically upstream; they are configuration, not derived
// from a model.
type Weights struct {
	DistanceNumerator  float64 `yaml:"distance_numerator" json:"distance_numerator"`
	DistanceOffset     float64 `yaml:"distance_offset" json:"distance_offset"`
	TimeNumerator      float64 `yaml:"time_numerator" json:"time_numerator"`
	TimeOffset         float64 `yaml:"time_offset" json:"time_offset"`
	VerifiedMultiplier float64 `yaml:"verified_multiplier" json:"verified_multiplier"`
	InterestWeight     float64 `yaml:"interest_weight" json:"interest_weight"`
}

// DefaultWeights returns the stock tuning constants.
func DefaultWeights() Weights {
	return Weights{
		DistanceNumerator:  100,
		DistanceOffset:     0.1,
		TimeNumerator:      100,
		TimeOffset:         0.1,
		VerifiedMultiplier: 2,
		InterestWeight:     0.1,
	}
}

// Scorer ranks event lists using a fixed set of weights.
type Scorer struct {
	weights Weights
}

// NewScorer constructs a Scorer. Zero-valued weights are replaced with
// the defaults so a partially-filled config cannot zero out a term.
func NewScorer(w Weights) *Scorer {
	d := DefaultWeights()
	if w.DistanceNumerator == 0 {
		w.DistanceNumerator = d.DistanceNumerator
	}
	if w.DistanceOffset == 0 {
		w.DistanceOffset = d.DistanceOffset
	}
	if w.TimeNumerator == 0 {
		w.TimeNumerator = d.TimeNumerator
	}
	if w.TimeOffset == 0 {
		w.TimeOffset = d.TimeOffset
	}
	if w.VerifiedMultiplier == 0 {
		w.VerifiedMultiplier = d.VerifiedMultiplier
	}
	if w.InterestWeight == 0 {
		w.InterestWeight = d.InterestWeight
	}
	return &Scorer{weights: w}
}

// Rank returns a sorted copy of events. The input slice is not
// modified.
func (s *Scorer) Rank(events []model.Event, ref *model.LatLng, now time.Time) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)

	if ref == nil {
		sort.SliceStable(out, func(i, j int) bool {
			return fallbackLess(out[i], out[j])
		})
		return out
	}

	scores := make(map[string]float64, len(out))
	for _, e := range out {
		scores[e.ID] = s.Score(e, ref, now)
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := scores[out[i].ID], scores[out[j].ID]
		if si != sj {
			return si > sj
		}
		return startLess(out[i], out[j])
	})
	return out
}

// Score computes the priority score for one event. Distance and
// temporal imminence use the same inverse-with-offset shape so
// very-near and very-soon events dominate symmetrically; the verified
// multiplier scales the whole base score rather than adding a fixed
// bonus.
func (s *Scorer) Score(e model.Event, ref *model.LatLng, now time.Time) float64 {
	w := s.weights
	score := 0.0

	if ref != nil {
		distance := geo.Distance(ref.Lat, ref.Lng, e.Lat, e.Lng)
		score += w.DistanceNumerator / (distance + w.DistanceOffset)
	}

	if start := temporal.EventStart(e); !start.IsZero() {
		hoursUntil := start.Sub(now).Hours()
		if hoursUntil > 0 {
			score += w.TimeNumerator / (hoursUntil/24 + w.TimeOffset)
		}
	}

	if e.Verified {
		score *= w.VerifiedMultiplier
	}
	score += w.InterestWeight * float64(e.InterestCount)
	return score
}

// fallbackLess orders events when no reference location is set:
// verified first, then higher interest, then soonest.
func fallbackLess(a, b model.Event) bool {
	if a.Verified != b.Verified {
		return a.Verified
	}
	if a.InterestCount != b.InterestCount {
		return a.InterestCount > b.InterestCount
	}
	return startLess(a, b)
}

func startLess(a, b model.Event) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	return a.StartTime < b.StartTime
}
