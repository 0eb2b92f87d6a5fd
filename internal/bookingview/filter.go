package bookingview

import (
	"time"

	"expertrait/internal/models"
)

// Filter applies the search, status and date predicates (logical AND) to
// the collection and returns the visible view as a fresh slice. The
// relative order of the input is preserved; no ordering policy is imposed
// beyond what the backend returned. The whole view is recomputed on every
// call rather than patched, so there is no stale-filter state to race.
func Filter(bookings []models.Booking, role models.Role, state models.FilterState, now time.Time, loc *time.Location) []models.Booking {
	state = state.Normalized()
	predicates := []Predicate{
		SearchPredicate(role, state.SearchTerm),
		StatusPredicate(state.StatusFilter),
		DatePredicate(state.DateFilter, now, loc),
	}

	out := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if matchesAll(b, predicates) {
			out = append(out, b)
		}
	}
	return out
}

func matchesAll(b models.Booking, predicates []Predicate) bool {
	for _, p := range predicates {
		if !p(b) {
			return false
		}
	}
	return true
}

// Counts are the per-bucket tallies the dashboards show above the list.
type Counts struct {
	Total    int `json:"total"`
	Today    int `json:"today"`
	Upcoming int `json:"upcoming"`
	Past     int `json:"past"`
}

// Tally counts bucket membership over a collection. A booking later today
// counts toward both Today and Upcoming; the flags are independent.
func Tally(bookings []models.Booking, now time.Time, loc *time.Location) Counts {
	counts := Counts{Total: len(bookings)}
	for _, b := range bookings {
		buckets := Bucket(b.ServiceDateTime, now, loc)
		if buckets.IsToday {
			counts.Today++
		}
		if buckets.IsUpcoming {
			counts.Upcoming++
		}
		if buckets.IsPast {
			counts.Past++
		}
	}
	return counts
}
