package model

import (
	"strings"
	"time"
)

// Region tags accepted by the filter. Anything else behaves like RegionAll.
const (
	RegionAll          = "all"
	RegionPacificRing  = "pacific-ring"
	RegionAmericas     = "americas"
	RegionAsiaPacific  = "asia-pacific"
	RegionEuropeAfrica = "europe-africa"
	RegionAtlantic     = "atlantic"
)

// span is a closed coordinate interval.
type span struct {
	min, max float64
}

func (s *span) contains(v float64) bool {
	return s == nil || (v >= s.min && v <= s.max)
}

// regionClause is a conjunction of interval tests; a nil span always passes.
type regionClause struct {
	lng *span
	lat *span
}

func (c regionClause) matches(lng, lat float64) bool {
	return c.lng.contains(lng) && c.lat.contains(lat)
}

// regionRules is the declarative bounding table: a region matches when any of
// its clauses matches. The pacific-ring clauses deliberately overlap near the
// ±180° meridian; the literal interval semantics are kept rather than a
// geographically corrected shape.
var regionRules = map[string][]regionClause{
	RegionPacificRing: {
		{lng: &span{120, 180}, lat: &span{-65, 65}},
		{lng: &span{-180, -100}, lat: &span{-65, 65}},
		{lng: &span{160, 180}, lat: &span{-75, 75}},
	},
	RegionAmericas: {
		{lng: &span{-180, -30}},
	},
	RegionAsiaPacific: {
		{lng: &span{40, 180}},
	},
	RegionEuropeAfrica: {
		{lng: &span{-30, 60}},
	},
	RegionAtlantic: {
		{lng: &span{-70, 20}, lat: &span{-60, 70}},
	},
}

// Regions lists the known region tags, "all" first.
func Regions() []string {
	return []string{
		RegionAll,
		RegionPacificRing,
		RegionAmericas,
		RegionAsiaPacific,
		RegionEuropeAfrica,
		RegionAtlantic,
	}
}

// RegionMatches tests a coordinate against a region's bounding table.
// "all" and unknown tags always match.
func RegionMatches(region string, lng, lat float64) bool {
	clauses, ok := regionRules[region]
	if !ok {
		return true
	}
	for _, c := range clauses {
		if c.matches(lng, lat) {
			return true
		}
	}
	return false
}

// FilterState holds the client-owned filter fields. Ephemeral, never
// persisted; any change triggers a full recomputation of the filtered list.
type FilterState struct {
	MinMagnitude float64 `json:"minMagnitude"`
	MaxMagnitude float64 `json:"maxMagnitude"`
	// Optional epoch-millisecond bounds
	StartTime  *int64 `json:"startTime,omitempty"`
	EndTime    *int64 `json:"endTime,omitempty"`
	Region     string `json:"region"`
	SearchTerm string `json:"searchTerm"`
}

// DefaultWindowDays is the default lookback for the start-date bound.
const DefaultWindowDays = 30

// DefaultFilterState returns the initial filter: magnitude 4.5–10.0, a
// last-30-days window, region "all", empty search.
func DefaultFilterState(now time.Time) FilterState {
	start := now.AddDate(0, 0, -DefaultWindowDays).UnixMilli()
	return FilterState{
		MinMagnitude: 4.5,
		MaxMagnitude: 10.0,
		StartTime:    &start,
		Region:       RegionAll,
	}
}

// Matches applies the five predicates to one event; all must pass.
func (f FilterState) Matches(e *EarthquakeEvent) bool {
	mag := e.Mag()
	if mag < f.MinMagnitude || mag > f.MaxMagnitude {
		return false
	}
	if f.StartTime != nil && e.Time < *f.StartTime {
		return false
	}
	if f.EndTime != nil && e.Time > *f.EndTime {
		return false
	}
	if !RegionMatches(f.Region, e.Lng, e.Lat) {
		return false
	}
	if f.SearchTerm != "" &&
		!strings.Contains(strings.ToLower(e.Place), strings.ToLower(f.SearchTerm)) {
		return false
	}
	return true
}

// Apply recomputes the filtered subset from scratch, preserving source
// order. Total recomputation is fine here: batches are bounded by the
// upstream limit (<=1000).
func (f FilterState) Apply(points []DisplayPoint) []DisplayPoint {
	filtered := make([]DisplayPoint, 0, len(points))
	for i := range points {
		if f.Matches(&points[i].EarthquakeEvent) {
			filtered = append(filtered, points[i])
		}
	}
	return filtered
}
