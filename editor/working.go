package editor

import (
	"errors"
	"fmt"

	"map-editor/models"
)

// ErrRecordNotFound is returned when an edit names an id that is not in the working set
var ErrRecordNotFound = errors.New("record not found")

// WorkingSet holds the live, editable copies of the records.
// Every mutation replaces the whole collection so a slice handed out earlier never changes.
type WorkingSet struct {
	areas     []models.AreaRecord
	landmarks []models.LandmarkRecord
}

// NewWorkingSet starts a working set from a snapshot
func NewWorkingSet(s Snapshot) *WorkingSet {
	w := &WorkingSet{}
	w.Restore(s)
	return w
}

// Areas returns a copy of the current areas
func (w *WorkingSet) Areas() []models.AreaRecord {
	return cloneAreas(w.areas)
}

// Landmarks returns a copy of the current landmarks
func (w *WorkingSet) Landmarks() []models.LandmarkRecord {
	return cloneLandmarks(w.landmarks)
}

// Area looks up an area by id
func (w *WorkingSet) Area(id string) (models.AreaRecord, bool) {
	if i := indexOfArea(w.areas, id); i >= 0 {
		return w.areas[i].Clone(), true
	}
	return models.AreaRecord{}, false
}

// Landmark looks up a landmark by id
func (w *WorkingSet) Landmark(id string) (models.LandmarkRecord, bool) {
	if i := indexOfLandmark(w.landmarks, id); i >= 0 {
		return w.landmarks[i], true
	}
	return models.LandmarkRecord{}, false
}

// AddArea appends the area under a fresh temporary id and returns the stored copy
func (w *WorkingSet) AddArea(area models.AreaRecord) models.AreaRecord {
	area = area.Clone()
	area.ID = models.NewTemporaryID()

	next := make([]models.AreaRecord, len(w.areas), len(w.areas)+1)
	copy(next, w.areas)
	w.areas = append(next, area)
	return area.Clone()
}

// AddLandmark appends the landmark under a fresh temporary id and returns the stored copy
func (w *WorkingSet) AddLandmark(landmark models.LandmarkRecord) models.LandmarkRecord {
	landmark.ID = models.NewTemporaryID()

	next := make([]models.LandmarkRecord, len(w.landmarks), len(w.landmarks)+1)
	copy(next, w.landmarks)
	w.landmarks = append(next, landmark)
	return landmark
}

// RemoveArea drops the area with the given id. It reports whether anything was removed.
func (w *WorkingSet) RemoveArea(id string) bool {
	i := indexOfArea(w.areas, id)
	if i < 0 {
		return false
	}
	next := make([]models.AreaRecord, 0, len(w.areas)-1)
	next = append(next, w.areas[:i]...)
	w.areas = append(next, w.areas[i+1:]...)
	return true
}

// RemoveLandmark drops the landmark with the given id. It reports whether anything was removed.
func (w *WorkingSet) RemoveLandmark(id string) bool {
	i := indexOfLandmark(w.landmarks, id)
	if i < 0 {
		return false
	}
	next := make([]models.LandmarkRecord, 0, len(w.landmarks)-1)
	next = append(next, w.landmarks[:i]...)
	w.landmarks = append(next, w.landmarks[i+1:]...)
	return true
}

// UpdateArea merges the patch into one area
func (w *WorkingSet) UpdateArea(id string, patch models.AreaPatch) (models.AreaRecord, error) {
	i := indexOfArea(w.areas, id)
	if i < 0 {
		return models.AreaRecord{}, fmt.Errorf("area %s: %w", id, ErrRecordNotFound)
	}
	updated := patch.Apply(w.areas[i])
	w.replaceAreaAt(i, updated)
	return updated.Clone(), nil
}

// UpdateLandmark merges the patch into one landmark
func (w *WorkingSet) UpdateLandmark(id string, patch models.LandmarkPatch) (models.LandmarkRecord, error) {
	i := indexOfLandmark(w.landmarks, id)
	if i < 0 {
		return models.LandmarkRecord{}, fmt.Errorf("landmark %s: %w", id, ErrRecordNotFound)
	}
	updated := patch.Apply(w.landmarks[i])
	w.replaceLandmarkAt(i, updated)
	return updated, nil
}

// SetAreaBoundary replaces the geometry of one area. The ring is stored as given.
func (w *WorkingSet) SetAreaBoundary(id string, boundary models.Ring) error {
	i := indexOfArea(w.areas, id)
	if i < 0 {
		return fmt.Errorf("area %s: %w", id, ErrRecordNotFound)
	}
	updated := w.areas[i].Clone()
	updated.Boundary = boundary.Clone()
	w.replaceAreaAt(i, updated)
	return nil
}

// MoveLandmark replaces the location of one landmark
func (w *WorkingSet) MoveLandmark(id string, lat, lng float64) error {
	i := indexOfLandmark(w.landmarks, id)
	if i < 0 {
		return fmt.Errorf("landmark %s: %w", id, ErrRecordNotFound)
	}
	updated := w.landmarks[i]
	updated.Lat = lat
	updated.Lng = lng
	w.replaceLandmarkAt(i, updated)
	return nil
}

// ReplaceArea swaps the area stored under id for rec, keeping its position.
// The save path uses it to turn a temporary record into the server-created one.
func (w *WorkingSet) ReplaceArea(id string, rec models.AreaRecord) bool {
	i := indexOfArea(w.areas, id)
	if i < 0 {
		return false
	}
	w.replaceAreaAt(i, rec.Clone())
	return true
}

// ReplaceLandmark swaps the landmark stored under id for rec, keeping its position
func (w *WorkingSet) ReplaceLandmark(id string, rec models.LandmarkRecord) bool {
	i := indexOfLandmark(w.landmarks, id)
	if i < 0 {
		return false
	}
	w.replaceLandmarkAt(i, rec)
	return true
}

// Snapshot captures the working set by value
func (w *WorkingSet) Snapshot() Snapshot {
	return NewSnapshot(w.areas, w.landmarks)
}

// Restore replaces the working set with the contents of s
func (w *WorkingSet) Restore(s Snapshot) {
	w.areas = cloneAreas(s.areas)
	w.landmarks = cloneLandmarks(s.landmarks)
}

func (w *WorkingSet) replaceAreaAt(i int, rec models.AreaRecord) {
	next := cloneAreas(w.areas)
	next[i] = rec
	w.areas = next
}

func (w *WorkingSet) replaceLandmarkAt(i int, rec models.LandmarkRecord) {
	next := cloneLandmarks(w.landmarks)
	next[i] = rec
	w.landmarks = next
}
