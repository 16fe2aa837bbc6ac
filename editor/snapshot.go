// Package editor tracks in-memory edits to map areas and landmarks: a baseline synced from the
// server, a working set the user edits, a dirty diff between the two, linear undo/redo over full
// snapshots, and a batch save that folds server-assigned ids back into the working set.
package editor

import (
	"map-editor/models"
)

// Snapshot is an immutable copy of the working set at one point in time.
// Constructors deep-copy their input and accessors return copies.
type Snapshot struct {
	areas     []models.AreaRecord
	landmarks []models.LandmarkRecord
}

// NewSnapshot deep-copies areas and landmarks into a snapshot
func NewSnapshot(areas []models.AreaRecord, landmarks []models.LandmarkRecord) Snapshot {
	return Snapshot{
		areas:     cloneAreas(areas),
		landmarks: cloneLandmarks(landmarks),
	}
}

// Areas returns a copy of the snapshot areas in order
func (s Snapshot) Areas() []models.AreaRecord {
	return cloneAreas(s.areas)
}

// Landmarks returns a copy of the snapshot landmarks in order
func (s Snapshot) Landmarks() []models.LandmarkRecord {
	return cloneLandmarks(s.landmarks)
}

// Area looks up an area by id
func (s Snapshot) Area(id string) (models.AreaRecord, bool) {
	if i := indexOfArea(s.areas, id); i >= 0 {
		return s.areas[i].Clone(), true
	}
	return models.AreaRecord{}, false
}

// Landmark looks up a landmark by id
func (s Snapshot) Landmark(id string) (models.LandmarkRecord, bool) {
	if i := indexOfLandmark(s.landmarks, id); i >= 0 {
		return s.landmarks[i], true
	}
	return models.LandmarkRecord{}, false
}

// Len returns the total number of records
func (s Snapshot) Len() int {
	return len(s.areas) + len(s.landmarks)
}

// Equal compares both collections record by record, order included
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.areas) != len(other.areas) || len(s.landmarks) != len(other.landmarks) {
		return false
	}
	for i := range s.areas {
		if !s.areas[i].Equal(other.areas[i]) {
			return false
		}
	}
	for i := range s.landmarks {
		if !s.landmarks[i].Equal(other.landmarks[i]) {
			return false
		}
	}
	return true
}

// RenameIDs returns a copy of the snapshot with ids replaced through mapping (old -> new)
func (s Snapshot) RenameIDs(mapping map[string]string) Snapshot {
	out := NewSnapshot(s.areas, s.landmarks)
	for i := range out.areas {
		if id, ok := mapping[out.areas[i].ID]; ok {
			out.areas[i].ID = id
		}
	}
	for i := range out.landmarks {
		if id, ok := mapping[out.landmarks[i].ID]; ok {
			out.landmarks[i].ID = id
		}
	}
	return out
}

func cloneAreas(in []models.AreaRecord) []models.AreaRecord {
	out := make([]models.AreaRecord, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}

func cloneLandmarks(in []models.LandmarkRecord) []models.LandmarkRecord {
	out := make([]models.LandmarkRecord, len(in))
	copy(out, in)
	return out
}

func indexOfArea(areas []models.AreaRecord, id string) int {
	for i := range areas {
		if areas[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfLandmark(landmarks []models.LandmarkRecord, id string) int {
	for i := range landmarks {
		if landmarks[i].ID == id {
			return i
		}
	}
	return -1
}
