package editor

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"map-editor/models"
)

var errBoom = errors.New("boom")

// fakeAPI is an in-memory backend that records every call
type fakeAPI struct {
	mu        sync.Mutex
	areas     []models.AreaRecord
	landmarks []models.LandmarkRecord
	nextID    int

	listErr        error
	failCreateAt   int // 1-based create call that fails, 0 never
	batchErr       error
	deleteErr      error
	createStarted  chan struct{}
	createRelease  chan struct{}
	createCalls    int
	batchCalls     int
	batches        []models.BatchUpdateRequest
	deletedAreas   []string
	deletedMarkers []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextID: 100}
}

func (f *fakeAPI) ListAreas(ctx context.Context) ([]models.AreaRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return cloneAreas(f.areas), nil
}

func (f *fakeAPI) ListLandmarks(ctx context.Context) ([]models.LandmarkRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneLandmarks(f.landmarks), nil
}

func (f *fakeAPI) beginCreate() error {
	if f.createStarted != nil {
		f.createStarted <- struct{}{}
		<-f.createRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.failCreateAt > 0 && f.createCalls == f.failCreateAt {
		return errBoom
	}
	return nil
}

func (f *fakeAPI) newID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return "srv-" + strconv.Itoa(f.nextID)
}

func (f *fakeAPI) CreateArea(ctx context.Context, area models.AreaRecord) (models.AreaRecord, error) {
	if err := f.beginCreate(); err != nil {
		return models.AreaRecord{}, err
	}
	area = area.Clone()
	area.ID = f.newID()
	f.mu.Lock()
	f.areas = append(f.areas, area)
	f.mu.Unlock()
	return area, nil
}

func (f *fakeAPI) CreateLandmark(ctx context.Context, landmark models.LandmarkRecord) (models.LandmarkRecord, error) {
	if err := f.beginCreate(); err != nil {
		return models.LandmarkRecord{}, err
	}
	landmark.ID = f.newID()
	f.mu.Lock()
	f.landmarks = append(f.landmarks, landmark)
	f.mu.Unlock()
	return landmark, nil
}

func (f *fakeAPI) BatchUpdate(ctx context.Context, req models.BatchUpdateRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if f.batchErr != nil {
		return f.batchErr
	}
	f.batches = append(f.batches, req)
	return nil
}

func (f *fakeAPI) DeleteArea(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedAreas = append(f.deletedAreas, id)
	return nil
}

func (f *fakeAPI) DeleteLandmark(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedMarkers = append(f.deletedMarkers, id)
	return nil
}

func (f *fakeAPI) UploadLandmarkImage(ctx context.Context, id, fileName string, data []byte) (models.LandmarkRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.landmarks {
		if l.ID == id {
			l.ImageURL = "http://images.local/landmarks/" + id + "/" + fileName
			return l, nil
		}
	}
	return models.LandmarkRecord{}, &models.APIError{StatusCode: 404, Message: "landmark not found"}
}

func square(lon, lat float64) models.Ring {
	return models.Ring{
		{lon, lat}, {lon + 0.01, lat}, {lon + 0.01, lat + 0.01}, {lon, lat + 0.01}, {lon, lat},
	}
}

func area(id, color string) models.AreaRecord {
	return models.AreaRecord{
		ID:          id,
		Name:        "area " + id,
		Boundary:    square(55.2, 25.1),
		Color:       color,
		FillOpacity: 0.35,
	}
}

func landmark(id string) models.LandmarkRecord {
	return models.LandmarkRecord{
		ID:       id,
		Name:     "landmark " + id,
		Lat:      25.197,
		Lng:      55.274,
		Color:    "#ff0000",
		IconSize: models.IconMedium,
	}
}

func strPtr(s string) *string { return &s }
