package bookingview

import (
	"strings"
	"time"

	"expertrait/internal/models"
)

// Predicate is a pure boolean test applied to a booking during filtering.
type Predicate func(models.Booking) bool

// SearchPredicate matches a case-insensitive substring of the service name,
// the other party's display name, and the literal id. Customers search the
// handler's name, handlers search the customer's. An empty term is
// vacuously true.
func SearchPredicate(role models.Role, term string) Predicate {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return func(models.Booking) bool { return true }
	}
	return func(b models.Booking) bool {
		party := b.CustomerName
		if role == models.RoleCustomer {
			party = b.HandlerName
		}
		haystack := strings.ToLower(b.ServiceName + "\x00" + party + "\x00" + b.ID)
		return strings.Contains(haystack, needle)
	}
}

// StatusPredicate matches exact status equality; "all" is vacuously true.
func StatusPredicate(statusFilter string) Predicate {
	if statusFilter == "" || statusFilter == models.FilterAll {
		return func(models.Booking) bool { return true }
	}
	want := models.BookingStatus(statusFilter)
	return func(b models.Booking) bool { return b.Status == want }
}

// DatePredicate tests the single bucket flag selected by dateFilter against
// the injected evaluation instant; "all" is vacuously true.
func DatePredicate(dateFilter string, now time.Time, loc *time.Location) Predicate {
	if dateFilter == "" || dateFilter == models.FilterAll {
		return func(models.Booking) bool { return true }
	}
	return func(b models.Booking) bool {
		buckets := Bucket(b.ServiceDateTime, now, loc)
		switch dateFilter {
		case models.DateFilterToday:
			return buckets.IsToday
		case models.DateFilterUpcoming:
			return buckets.IsUpcoming
		case models.DateFilterPast:
			return buckets.IsPast
		default:
			return false
		}
	}
}
