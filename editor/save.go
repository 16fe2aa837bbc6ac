package editor

import (
	"context"
	"fmt"
	"log/slog"

	"map-editor/logger"
	"map-editor/metrics"
	"map-editor/models"
)

// MapWriter is the write side of the map API used by a save
type MapWriter interface {
	CreateArea(ctx context.Context, area models.AreaRecord) (models.AreaRecord, error)
	CreateLandmark(ctx context.Context, landmark models.LandmarkRecord) (models.LandmarkRecord, error)
	BatchUpdate(ctx context.Context, req models.BatchUpdateRequest) error
}

// SaveResult reports what a save sent to the server
type SaveResult struct {
	// Created maps the id a record had before the save to its server-assigned id
	Created          map[string]string
	UpdatedAreas     int
	UpdatedLandmarks int
}

// SaveError is the single error surfaced for a failed save. Creates that succeeded before
// the failure are already folded into the working set and the baseline.
type SaveError struct {
	Step     string
	RecordID string
	Created  int
	Err      error
}

func (e *SaveError) Error() string {
	msg := fmt.Sprintf("save failed at %s", e.Step)
	if e.RecordID != "" {
		msg += fmt.Sprintf(" (record %s)", e.RecordID)
	}
	if e.Created > 0 {
		msg += fmt.Sprintf(" after creating %d record(s)", e.Created)
	}
	return msg + ": " + e.Err.Error()
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// SaveCoordinator pushes the working set to the server in one pass
type SaveCoordinator struct {
	api    MapWriter
	logger *slog.Logger
}

// NewSaveCoordinator creates a coordinator writing through api
func NewSaveCoordinator(api MapWriter) *SaveCoordinator {
	return &SaveCoordinator{api: api, logger: logger.L()}
}

// Save creates every record the server does not know, one call each, then sends all dirty
// records in a single batch update. The first failing call aborts the rest; nothing is rolled back.
// On success the baseline equals the working set and the caller should clear its dirty set.
func (c *SaveCoordinator) Save(ctx context.Context, working *WorkingSet, baseline *BaselineStore, dirty DirtySet) (SaveResult, error) {
	result := SaveResult{Created: map[string]string{}}
	fail := func(step, id string, err error) (SaveResult, error) {
		metrics.SavesTotal.WithLabelValues("error").Inc()
		c.logger.Warn("editor_save_failed", "step", step, "record_id", id, "created", len(result.Created), "err", err)
		return result, &SaveError{Step: step, RecordID: id, Created: len(result.Created), Err: err}
	}

	for _, area := range working.Areas() {
		_, known := baseline.Area(area.ID)
		if !needsCreate(area.ID, known) {
			continue
		}
		created, err := c.api.CreateArea(ctx, area)
		if err != nil {
			return fail("create area", area.ID, err)
		}
		working.ReplaceArea(area.ID, created)
		baseline.UpsertArea(created)
		result.Created[area.ID] = created.ID
		metrics.RecordsCreatedTotal.WithLabelValues(KindArea.String()).Inc()
	}

	for _, landmark := range working.Landmarks() {
		_, known := baseline.Landmark(landmark.ID)
		if !needsCreate(landmark.ID, known) {
			continue
		}
		created, err := c.api.CreateLandmark(ctx, landmark)
		if err != nil {
			return fail("create landmark", landmark.ID, err)
		}
		working.ReplaceLandmark(landmark.ID, created)
		baseline.UpsertLandmark(created)
		result.Created[landmark.ID] = created.ID
		metrics.RecordsCreatedTotal.WithLabelValues(KindLandmark.String()).Inc()
	}

	var req models.BatchUpdateRequest
	for _, area := range working.Areas() {
		if dirty.HasArea(area.ID) {
			req.Areas = append(req.Areas, area)
		}
	}
	for _, landmark := range working.Landmarks() {
		if dirty.HasLandmark(landmark.ID) {
			req.Landmarks = append(req.Landmarks, landmark)
		}
	}
	if !req.Empty() {
		if err := c.api.BatchUpdate(ctx, req); err != nil {
			return fail("batch update", "", err)
		}
		result.UpdatedAreas = len(req.Areas)
		result.UpdatedLandmarks = len(req.Landmarks)
		metrics.RecordsUpdatedTotal.WithLabelValues(KindArea.String()).Add(float64(len(req.Areas)))
		metrics.RecordsUpdatedTotal.WithLabelValues(KindLandmark.String()).Add(float64(len(req.Landmarks)))
	}

	baseline.Reset(working.Areas(), working.Landmarks())
	metrics.SavesTotal.WithLabelValues("ok").Inc()
	c.logger.Info("editor_save_complete",
		"created", len(result.Created),
		"updated_areas", result.UpdatedAreas,
		"updated_landmarks", result.UpdatedLandmarks,
	)
	return result, nil
}
