package engine

import (
	"fmt"

	"github.com/pmorell/localevents/internal/model"
	"github.com/pmorell/localevents/internal/temporal"
)

// SetFilter applies a partial filter update to the session. Fields
// left nil keep their current value. Invalid values are rejected with
// an error and leave the state untouched.
func (e *Engine) SetFilter(s *Session, update model.FilterUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.filters

	if update.SelectedCategories != nil {
		next.SelectedCategories = normalizeCategories(update.SelectedCategories)
	}

	if update.ClearDateRange {
		next.DateRange = nil
	} else if update.DateFrom != nil || update.DateTo != nil {
		rng, err := buildDateRange(next.DateRange, update.DateFrom, update.DateTo)
		if err != nil {
			return err
		}
		next.DateRange = rng
	}

	if update.TimePeriod != nil {
		tp := model.TimePeriod(*update.TimePeriod)
		switch tp {
		case model.PeriodAll, model.PeriodMorning, model.PeriodAfternoon,
			model.PeriodEvening, model.PeriodNight:
			next.TimePeriod = tp
		default:
			return fmt.Errorf("unknown time period %q", *update.TimePeriod)
		}
	}

	if update.FeeFilter != nil {
		ff := model.FeeFilter(*update.FeeFilter)
		switch ff {
		case model.FeeAll, model.FeeFree, model.FeePaid:
			next.FeeFilter = ff
		default:
			return fmt.Errorf("unknown fee filter %q", *update.FeeFilter)
		}
	}

	if update.Proximity != nil {
		p := *update.Proximity
		if p != model.ProximityUnbounded && p <= 0 {
			return fmt.Errorf("proximity must be positive or unbounded")
		}
		next.Proximity = p
	}

	if update.ClearReference {
		next.ReferenceLocation = nil
	} else if update.ReferenceLocation != nil {
		loc := *update.ReferenceLocation
		if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
			return fmt.Errorf("reference location out of bounds")
		}
		next.ReferenceLocation = &loc
	}

	s.filters = next
	s.filterVersion++
	return nil
}

// normalizeCategories applies the sentinel rules to a replacement set:
// "all" present or an empty set collapses to exactly {"all"}.
func normalizeCategories(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if n == model.CategoryAll {
			return map[string]bool{model.CategoryAll: true}
		}
		if n != "" {
			set[n] = true
		}
	}
	if len(set) == 0 {
		set[model.CategoryAll] = true
	}
	return set
}

func buildDateRange(current *model.DateRange, fromStr, toStr *string) (*model.DateRange, error) {
	rng := model.DateRange{}
	if current != nil {
		rng = *current
	}
	if fromStr != nil {
		from := temporal.NormalizeDate(*fromStr)
		if from.IsZero() {
			return nil, fmt.Errorf("unparseable date %q", *fromStr)
		}
		rng.From = from
	}
	if toStr != nil {
		to := temporal.NormalizeDate(*toStr)
		if to.IsZero() {
			return nil, fmt.Errorf("unparseable date %q", *toStr)
		}
		rng.To = to
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		return nil, fmt.Errorf("date range ends before it starts")
	}
	return &rng, nil
}
