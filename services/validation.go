package services

import (
	"fmt"
	"regexp"

	"map-editor/models"
)

// ValidationError reports a record the server refuses to store
type ValidationError struct {
	RecordID string
	Field    string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("%s %s (record %s)", e.Field, e.Message, e.RecordID)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

func invalid(id, field, format string, args ...any) *ValidationError {
	return &ValidationError{RecordID: id, Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateArea checks an area before it is written. Geometry is checked here rather than in
// the editor: the ring must be closed and have at least three distinct vertices.
func ValidateArea(a models.AreaRecord) error {
	if a.Name == "" {
		return invalid(a.ID, "name", "is required")
	}
	if !colorPattern.MatchString(a.Color) {
		return invalid(a.ID, "color", "must be a hex color, got %q", a.Color)
	}
	if a.FillOpacity < 0 || a.FillOpacity > 1 {
		return invalid(a.ID, "fillOpacity", "must be between 0 and 1, got %g", a.FillOpacity)
	}
	if !a.Boundary.Closed() {
		return invalid(a.ID, "boundary", "must be a closed ring of at least 4 positions")
	}
	if n := a.Boundary.DistinctVertices(); n < 3 {
		return invalid(a.ID, "boundary", "must have at least 3 distinct vertices, got %d", n)
	}
	for i, p := range a.Boundary {
		if !validLat(p.Lat()) || !validLon(p.Lon()) {
			return invalid(a.ID, "boundary", "position %d [%g, %g] is out of range", i, p.Lon(), p.Lat())
		}
	}
	if a.AveragePrice != nil && *a.AveragePrice < 0 {
		return invalid(a.ID, "averagePrice", "must not be negative")
	}
	if a.SalesVolume != nil && *a.SalesVolume < 0 {
		return invalid(a.ID, "salesVolume", "must not be negative")
	}
	return nil
}

// ValidateLandmark checks a landmark before it is written
func ValidateLandmark(l models.LandmarkRecord) error {
	if !validLat(l.Lat) || !validLon(l.Lng) {
		return invalid(l.ID, "location", "[%g, %g] is out of range", l.Lat, l.Lng)
	}
	if !colorPattern.MatchString(l.Color) {
		return invalid(l.ID, "color", "must be a hex color, got %q", l.Color)
	}
	if !l.IconSize.Valid() {
		return invalid(l.ID, "iconSize", "must be small, medium or large, got %q", l.IconSize)
	}
	return nil
}

func validLat(v float64) bool { return v >= -90 && v <= 90 }

func validLon(v float64) bool { return v >= -180 && v <= 180 }
