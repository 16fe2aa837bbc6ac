package editor

import (
	"sort"

	"map-editor/models"
)

// Kind distinguishes the two record collections
type Kind int

const (
	KindArea Kind = iota
	KindLandmark
)

func (k Kind) String() string {
	if k == KindLandmark {
		return "landmark"
	}
	return "area"
}

// DirtySet holds the ids of server records modified since the baseline.
// Temporary records never appear in it.
type DirtySet struct {
	areas     map[string]struct{}
	landmarks map[string]struct{}
}

// NewDirtySet returns an empty set
func NewDirtySet() DirtySet {
	return DirtySet{
		areas:     map[string]struct{}{},
		landmarks: map[string]struct{}{},
	}
}

// Recompute derives the dirty set from scratch. It depends only on its arguments.
func Recompute(working Snapshot, baseline *BaselineStore) DirtySet {
	d := NewDirtySet()
	for _, area := range working.areas {
		if areaDirty(area, baseline) {
			d.areas[area.ID] = struct{}{}
		}
	}
	for _, landmark := range working.landmarks {
		if landmarkDirty(landmark, baseline) {
			d.landmarks[landmark.ID] = struct{}{}
		}
	}
	return d
}

// Touch re-evaluates a single record after a direct edit. A record that is gone from the
// working set or matches its baseline again is dropped.
func (d DirtySet) Touch(kind Kind, id string, working *WorkingSet, baseline *BaselineStore) {
	switch kind {
	case KindArea:
		area, ok := working.Area(id)
		if ok && areaDirty(area, baseline) {
			d.areas[id] = struct{}{}
		} else {
			delete(d.areas, id)
		}
	case KindLandmark:
		landmark, ok := working.Landmark(id)
		if ok && landmarkDirty(landmark, baseline) {
			d.landmarks[id] = struct{}{}
		} else {
			delete(d.landmarks, id)
		}
	}
}

// HasArea reports whether the area is dirty
func (d DirtySet) HasArea(id string) bool {
	_, ok := d.areas[id]
	return ok
}

// HasLandmark reports whether the landmark is dirty
func (d DirtySet) HasLandmark(id string) bool {
	_, ok := d.landmarks[id]
	return ok
}

// AreaIDs returns the dirty area ids in sorted order
func (d DirtySet) AreaIDs() []string {
	return sortedKeys(d.areas)
}

// LandmarkIDs returns the dirty landmark ids in sorted order
func (d DirtySet) LandmarkIDs() []string {
	return sortedKeys(d.landmarks)
}

// Len returns the number of dirty records
func (d DirtySet) Len() int {
	return len(d.areas) + len(d.landmarks)
}

// Empty reports whether nothing is dirty
func (d DirtySet) Empty() bool {
	return d.Len() == 0
}

// Clone returns an independent copy
func (d DirtySet) Clone() DirtySet {
	out := NewDirtySet()
	for id := range d.areas {
		out.areas[id] = struct{}{}
	}
	for id := range d.landmarks {
		out.landmarks[id] = struct{}{}
	}
	return out
}

// areaDirty is true for a server record that differs from its baseline copy.
// Records missing from the baseline are handled by the create path instead.
func areaDirty(area models.AreaRecord, baseline *BaselineStore) bool {
	if models.IsTemporaryID(area.ID) {
		return false
	}
	base, ok := baseline.Area(area.ID)
	return ok && !base.Equal(area)
}

func landmarkDirty(landmark models.LandmarkRecord, baseline *BaselineStore) bool {
	if models.IsTemporaryID(landmark.ID) {
		return false
	}
	base, ok := baseline.Landmark(landmark.ID)
	return ok && !base.Equal(landmark)
}

// needsCreate is true for records the server does not know: temporary ids and permanent ids
// that were deleted on the server and brought back by undo.
func needsCreate(id string, inBaseline bool) bool {
	return models.IsTemporaryID(id) || !inBaseline
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
