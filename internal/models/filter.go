package models

import "time"

// FilterAll is the wildcard value for the status and date filters.
const FilterAll = "all"

// Date filter values select a single bucket flag to test.
const (
	DateFilterToday    = "today"
	DateFilterUpcoming = "upcoming"
	DateFilterPast     = "past"
)

// FilterState is the full set of user-controlled filter inputs for a
// dashboard view. The visible view is always re-derived from the whole
// state, never patched incrementally.
type FilterState struct {
	SearchTerm   string `json:"search_term" yaml:"search_term"`
	StatusFilter string `json:"status_filter" yaml:"status_filter"`
	DateFilter   string `json:"date_filter" yaml:"date_filter"`
}

// DefaultFilterState returns the vacuous state that matches every booking.
func DefaultFilterState() FilterState {
	return FilterState{SearchTerm: "", StatusFilter: FilterAll, DateFilter: FilterAll}
}

// Normalized fills empty filter fields with the wildcard value.
func (f FilterState) Normalized() FilterState {
	if f.StatusFilter == "" {
		f.StatusFilter = FilterAll
	}
	if f.DateFilter == "" {
		f.DateFilter = FilterAll
	}
	return f
}

// ValidStatusFilter reports whether v is "all" or a member of the status set.
func ValidStatusFilter(v string) bool {
	return v == FilterAll || BookingStatus(v).Valid()
}

// ValidDateFilter reports whether v is "all" or a known date bucket.
func ValidDateFilter(v string) bool {
	switch v {
	case FilterAll, DateFilterToday, DateFilterUpcoming, DateFilterPast:
		return true
	}
	return false
}

// ViewerState is the server-held copy of a viewer's dashboard filter
// state. It is convenience session state with a TTL, not a cache of the
// booking collection itself.
type ViewerState struct {
	Role      Role        `json:"role"`
	ViewerID  string      `json:"viewer_id"`
	Filter    FilterState `json:"filter"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// FilterPreset is a named, saved filter configuration owned by one viewer.
type FilterPreset struct {
	ID        string      `json:"id"`
	Role      Role        `json:"role"`
	ViewerID  string      `json:"viewer_id"`
	Name      string      `json:"name"`
	Filter    FilterState `json:"filter"`
	CreatedAt time.Time   `json:"created_at"`
}

// ExportAudit records a completed export of a filtered view.
type ExportAudit struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	ViewerID  string    `json:"viewer_id"`
	Format    string    `json:"format"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
}
