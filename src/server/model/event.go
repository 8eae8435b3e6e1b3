package model

import (
	"fmt"
	"time"
)

// EarthquakeEvent is one flattened USGS feature. Coordinates and depth are
// passed through unvalidated; depth may be negative or missing upstream.
// The record is immutable once constructed — display attributes are layered
// onto a DisplayPoint copy, never written back.
type EarthquakeEvent struct {
	ID    string  `json:"id"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Depth float64 `json:"depth"`
	// Nullable upstream; nil is treated as 0 in comparisons and derivations
	Magnitude  *float64 `json:"magnitude"`
	Place      string   `json:"place"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Type       string   `json:"type"`
	Status     string   `json:"status"`
	Time       int64    `json:"time"`
	TimeString string   `json:"timeString"`
	Tsunami    int      `json:"tsunami"`
	Updated    int64    `json:"updated"`
}

// Mag returns the magnitude, treating a null upstream value as 0.
func (e *EarthquakeEvent) Mag() float64 {
	if e.Magnitude == nil {
		return 0
	}
	return *e.Magnitude
}

// ISOTime renders an epoch-millisecond timestamp as ISO-8601 UTC.
func ISOTime(epochMillis int64) string {
	return time.UnixMilli(epochMillis).UTC().Format(time.RFC3339)
}

// Metadata is the upstream feed metadata, passed through as-is.
// Every field may be absent upstream.
type Metadata struct {
	Generated *int64  `json:"generated,omitempty"`
	URL       *string `json:"url,omitempty"`
	Title     *string `json:"title,omitempty"`
	Count     *int    `json:"count,omitempty"`
}

// Magnitude-to-color step function breakpoints
const (
	ColorMajor    = "#ff0000" // >= 7
	ColorStrong   = "#ff4500" // >= 6
	ColorModerate = "#ff8c00" // >= 5
	ColorLight    = "#ffd700" // >= 4
	ColorMinor    = "#90ee90" // everything else
)

// MagnitudeColor buckets a magnitude into the five display colors.
func MagnitudeColor(mag float64) string {
	switch {
	case mag >= 7:
		return ColorMajor
	case mag >= 6:
		return ColorStrong
	case mag >= 5:
		return ColorModerate
	case mag >= 4:
		return ColorLight
	default:
		return ColorMinor
	}
}

// MagnitudeSize derives the rendered point radius from magnitude.
func MagnitudeSize(mag float64) float64 {
	size := mag * 0.15
	if size < 0.15 {
		size = 0.15
	}
	return size
}

// HoverElevation derives the elevation of the hovered point. Points that are
// not hovered always render at elevation 0.
func HoverElevation(mag float64) float64 {
	elevation := mag * 0.02
	if elevation < 0.02 {
		elevation = 0.02
	}
	return elevation
}

// Label formats the multi-line hover label for an event.
func (e *EarthquakeEvent) Label() string {
	return fmt.Sprintf("%s\nMagnitude: %.1f\nDepth: %.1f km\n%s",
		e.Place, e.Mag(), e.Depth, e.TimeString)
}

// DisplayPoint is an enriched copy of an event carrying the derived display
// attributes. Built once per fetched batch and cached; never recomputed per
// filter pass.
type DisplayPoint struct {
	EarthquakeEvent
	Color string  `json:"color"`
	Size  float64 `json:"size"`
	Label string  `json:"label"`
}

// NewDisplayPoint derives the display attributes for one event.
func NewDisplayPoint(e EarthquakeEvent) DisplayPoint {
	return DisplayPoint{
		EarthquakeEvent: e,
		Color:           MagnitudeColor(e.Mag()),
		Size:            MagnitudeSize(e.Mag()),
		Label:           e.Label(),
	}
}

// EnrichEvents derives display points for a fetched batch, preserving order.
func EnrichEvents(events []EarthquakeEvent) []DisplayPoint {
	points := make([]DisplayPoint, 0, len(events))
	for _, e := range events {
		points = append(points, NewDisplayPoint(e))
	}
	return points
}
