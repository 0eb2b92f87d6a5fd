package bookingview

import "time"

// DateBuckets classifies a booking's service timestamp against an
// evaluation instant. Today overlaps freely with either of the other two;
// past and upcoming are mutually exclusive by strict comparison.
type DateBuckets struct {
	IsToday    bool `json:"is_today"`
	IsUpcoming bool `json:"is_upcoming"`
	IsPast     bool `json:"is_past"`
}

// Bucket classifies t relative to now. "Today" means the same calendar day
// in loc, not a rolling 24-hour window. now is injected so classification
// around midnight and timezone boundaries stays deterministic under test.
// A nil loc falls back to now's location.
func Bucket(t, now time.Time, loc *time.Location) DateBuckets {
	if loc == nil {
		loc = now.Location()
	}
	return DateBuckets{
		IsToday:    sameLocalDay(t, now, loc),
		IsUpcoming: t.After(now),
		IsPast:     t.Before(now),
	}
}

func sameLocalDay(a, b time.Time, loc *time.Location) bool {
	al, bl := a.In(loc), b.In(loc)
	ay, am, ad := al.Date()
	by, bm, bd := bl.Date()
	return ay == by && am == bm && ad == bd
}
