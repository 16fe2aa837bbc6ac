package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"

	"map-editor/models"
)

func TestSaveOneCreateAndOneBatchUpdate(t *testing.T) {
	api := newFakeAPI()
	baseline := NewBaselineStore(api)
	baseline.Reset([]models.AreaRecord{area("a1", "#fff"), area("a2", "#fff")}, []models.LandmarkRecord{landmark("l1")})
	working := NewWorkingSet(NewSnapshot(baseline.Areas(), baseline.Landmarks()))

	created := working.AddArea(area("", "#0f0"))
	_, _ = working.UpdateArea("a1", models.AreaPatch{Color: strPtr("#000")})
	dirty := Recompute(working.Snapshot(), baseline)

	result, err := NewSaveCoordinator(api).Save(context.Background(), working, baseline, dirty)
	assert.Equal(t, err, nil)
	assert.Equal(t, api.createCalls, 1)
	assert.Equal(t, api.batchCalls, 1)
	assert.Equal(t, len(api.batches[0].Areas), 1)
	assert.Equal(t, api.batches[0].Areas[0].ID, "a1")
	assert.Equal(t, len(api.batches[0].Landmarks), 0)
	assert.Equal(t, result.UpdatedAreas, 1)

	permanent := result.Created[created.ID]
	assert.Equal(t, permanent, "srv-101")
	_, ok := working.Area(created.ID)
	assert.Equal(t, ok, false)
	_, ok = working.Area(permanent)
	assert.Equal(t, ok, true)
	assert.Equal(t, Recompute(working.Snapshot(), baseline).Empty(), true)
	assert.Equal(t, NewSnapshot(baseline.Areas(), baseline.Landmarks()).Equal(working.Snapshot()), true)
}

func TestSaveSwapsTemporaryID(t *testing.T) {
	api := newFakeAPI()
	api.nextID = 8
	baseline := NewBaselineStore(api)
	working := NewWorkingSet(NewSnapshot([]models.AreaRecord{area("temp-123", "#fff")}, nil))

	result, err := NewSaveCoordinator(api).Save(context.Background(), working, baseline, NewDirtySet())
	assert.Equal(t, err, nil)
	assert.Equal(t, result.Created, map[string]string{"temp-123": "srv-9"})

	_, ok := working.Area("temp-123")
	assert.Equal(t, ok, false)
	_, ok = working.Area("srv-9")
	assert.Equal(t, ok, true)
	_, ok = baseline.Area("srv-9")
	assert.Equal(t, ok, true)
	assert.Equal(t, api.batchCalls, 0)
}

func TestSaveAbortsOnFirstFailedCreate(t *testing.T) {
	api := newFakeAPI()
	api.failCreateAt = 2
	baseline := NewBaselineStore(api)
	baseline.Reset([]models.AreaRecord{area("a1", "#fff")}, nil)
	working := NewWorkingSet(NewSnapshot(baseline.Areas(), nil))

	first := working.AddArea(area("", "#0f0"))
	second := working.AddArea(area("", "#00f"))
	third := working.AddLandmark(landmark(""))
	_, _ = working.UpdateArea("a1", models.AreaPatch{Color: strPtr("#000")})
	dirty := Recompute(working.Snapshot(), baseline)

	result, err := NewSaveCoordinator(api).Save(context.Background(), working, baseline, dirty)

	var saveErr *SaveError
	assert.Equal(t, errors.As(err, &saveErr), true)
	assert.Equal(t, saveErr.Step, "create area")
	assert.Equal(t, saveErr.RecordID, second.ID)
	assert.Equal(t, saveErr.Created, 1)
	assert.Equal(t, errors.Is(err, errBoom), true)

	// no rollback: the first create stays applied, the rest is untouched
	assert.Equal(t, len(result.Created), 1)
	_, ok := working.Area(first.ID)
	assert.Equal(t, ok, false)
	_, ok = baseline.Area(result.Created[first.ID])
	assert.Equal(t, ok, true)
	_, ok = working.Area(second.ID)
	assert.Equal(t, ok, true)
	_, ok = working.Landmark(third.ID)
	assert.Equal(t, ok, true)
	assert.Equal(t, api.batchCalls, 0)

	base, _ := baseline.Area("a1")
	assert.Equal(t, base.Color, "#fff")
}

func TestSaveBatchFailureKeepsBaseline(t *testing.T) {
	api := newFakeAPI()
	api.batchErr = &models.APIError{StatusCode: 422, Message: "boundary must be a closed ring"}
	baseline := NewBaselineStore(api)
	baseline.Reset(nil, []models.LandmarkRecord{landmark("l1")})
	working := NewWorkingSet(NewSnapshot(nil, baseline.Landmarks()))
	_ = working.MoveLandmark("l1", 25.3, 55.3)

	_, err := NewSaveCoordinator(api).Save(context.Background(), working, baseline, Recompute(working.Snapshot(), baseline))

	var saveErr *SaveError
	assert.Equal(t, errors.As(err, &saveErr), true)
	assert.Equal(t, saveErr.Step, "batch update")
	var apiErr *models.APIError
	assert.Equal(t, errors.As(err, &apiErr), true)
	assert.Equal(t, apiErr.StatusCode, 422)

	base, _ := baseline.Landmark("l1")
	assert.Equal(t, base.Lat, 25.197)
	assert.Equal(t, Recompute(working.Snapshot(), baseline).HasLandmark("l1"), true)
}

func TestSaveNothingToDo(t *testing.T) {
	api := newFakeAPI()
	baseline := NewBaselineStore(api)
	baseline.Reset([]models.AreaRecord{area("a1", "#fff")}, nil)
	working := NewWorkingSet(NewSnapshot(baseline.Areas(), nil))

	result, err := NewSaveCoordinator(api).Save(context.Background(), working, baseline, NewDirtySet())
	assert.Equal(t, err, nil)
	assert.Equal(t, len(result.Created), 0)
	assert.Equal(t, api.createCalls, 0)
	assert.Equal(t, api.batchCalls, 0)
}
