package editor

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"map-editor/models"
)

func baselineWith(areas []models.AreaRecord, landmarks []models.LandmarkRecord) *BaselineStore {
	b := NewBaselineStore(newFakeAPI())
	b.Reset(areas, landmarks)
	return b
}

func TestRecomputeEditBackClearsDirty(t *testing.T) {
	baseline := baselineWith([]models.AreaRecord{area("a1", "#fff")}, []models.LandmarkRecord{landmark("l1")})
	working := NewWorkingSet(NewSnapshot(baseline.Areas(), baseline.Landmarks()))

	_, err := working.UpdateArea("a1", models.AreaPatch{Color: strPtr("#000")})
	assert.Equal(t, err, nil)
	assert.Equal(t, working.MoveLandmark("l1", 25.2, 55.3), nil)

	d := Recompute(working.Snapshot(), baseline)
	assert.Equal(t, d.AreaIDs(), []string{"a1"})
	assert.Equal(t, d.LandmarkIDs(), []string{"l1"})

	_, err = working.UpdateArea("a1", models.AreaPatch{Color: strPtr("#fff")})
	assert.Equal(t, err, nil)
	assert.Equal(t, working.MoveLandmark("l1", 25.197, 55.274), nil)

	d = Recompute(working.Snapshot(), baseline)
	assert.Equal(t, d.Empty(), true)
}

func TestRecomputeDeepComparesBoundary(t *testing.T) {
	baseline := baselineWith([]models.AreaRecord{area("a1", "#fff")}, nil)
	working := NewWorkingSet(NewSnapshot(baseline.Areas(), nil))

	moved := square(55.2, 25.1)
	moved[2] = models.Position{55.5, 25.5}
	assert.Equal(t, working.SetAreaBoundary("a1", moved), nil)
	assert.Equal(t, Recompute(working.Snapshot(), baseline).HasArea("a1"), true)

	// equal geometry held in a different slice
	assert.Equal(t, working.SetAreaBoundary("a1", square(55.2, 25.1)), nil)
	assert.Equal(t, Recompute(working.Snapshot(), baseline).HasArea("a1"), false)
}

func TestTemporaryRecordsNeverDirty(t *testing.T) {
	baseline := baselineWith(nil, nil)
	working := NewWorkingSet(NewSnapshot(nil, nil))
	created := working.AddArea(area("", "#fff"))
	marker := working.AddLandmark(landmark(""))

	d := NewDirtySet()
	for i := 0; i < 5; i++ {
		_, err := working.UpdateArea(created.ID, models.AreaPatch{Name: strPtr("draft")})
		assert.Equal(t, err, nil)
		assert.Equal(t, working.MoveLandmark(marker.ID, float64(i), 1), nil)
		d.Touch(KindArea, created.ID, working, baseline)
		d.Touch(KindLandmark, marker.ID, working, baseline)
		assert.Equal(t, d.Empty(), true)
	}
	assert.Equal(t, Recompute(working.Snapshot(), baseline).Empty(), true)
}

func TestOrphanIsNotDirty(t *testing.T) {
	baseline := baselineWith(nil, nil)
	working := NewWorkingSet(NewSnapshot([]models.AreaRecord{area("7", "#fff")}, nil))

	assert.Equal(t, Recompute(working.Snapshot(), baseline).Empty(), true)
}

func TestTouchMatchesRecompute(t *testing.T) {
	baseline := baselineWith([]models.AreaRecord{area("a1", "#fff"), area("a2", "#fff")}, nil)
	working := NewWorkingSet(NewSnapshot(baseline.Areas(), nil))
	d := NewDirtySet()

	_, _ = working.UpdateArea("a2", models.AreaPatch{Name: strPtr("renamed")})
	d.Touch(KindArea, "a2", working, baseline)
	assert.Equal(t, d.AreaIDs(), Recompute(working.Snapshot(), baseline).AreaIDs())

	working.RemoveArea("a2")
	d.Touch(KindArea, "a2", working, baseline)
	assert.Equal(t, d.Empty(), true)
}
