package editor

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"map-editor/models"
)

// Source is the read side of the map API
type Source interface {
	ListAreas(ctx context.Context) ([]models.AreaRecord, error)
	ListLandmarks(ctx context.Context) ([]models.LandmarkRecord, error)
}

// BaselineStore holds the last copies known to match the server
type BaselineStore struct {
	src Source

	mu        sync.RWMutex
	areas     []models.AreaRecord
	landmarks []models.LandmarkRecord
}

// NewBaselineStore creates an empty store reading from src
func NewBaselineStore(src Source) *BaselineStore {
	return &BaselineStore{src: src}
}

// Load fetches both collections from the server. It does not retry and does not touch the store;
// callers pass the result to Reset.
func (b *BaselineStore) Load(ctx context.Context) ([]models.AreaRecord, []models.LandmarkRecord, error) {
	var areas []models.AreaRecord
	var landmarks []models.LandmarkRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		areas, err = b.src.ListAreas(gctx)
		if err != nil {
			return fmt.Errorf("failed to load areas: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		landmarks, err = b.src.ListLandmarks(gctx)
		if err != nil {
			return fmt.Errorf("failed to load landmarks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return areas, landmarks, nil
}

// Reset overwrites the store with deep copies of areas and landmarks
func (b *BaselineStore) Reset(areas []models.AreaRecord, landmarks []models.LandmarkRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.areas = cloneAreas(areas)
	b.landmarks = cloneLandmarks(landmarks)
}

// Areas returns a copy of the baseline areas
func (b *BaselineStore) Areas() []models.AreaRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneAreas(b.areas)
}

// Landmarks returns a copy of the baseline landmarks
func (b *BaselineStore) Landmarks() []models.LandmarkRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneLandmarks(b.landmarks)
}

// Area looks up a baseline area by id
func (b *BaselineStore) Area(id string) (models.AreaRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := indexOfArea(b.areas, id); i >= 0 {
		return b.areas[i].Clone(), true
	}
	return models.AreaRecord{}, false
}

// Landmark looks up a baseline landmark by id
func (b *BaselineStore) Landmark(id string) (models.LandmarkRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := indexOfLandmark(b.landmarks, id); i >= 0 {
		return b.landmarks[i], true
	}
	return models.LandmarkRecord{}, false
}

// UpsertArea records a single area as synced, replacing any entry with the same id
func (b *BaselineStore) UpsertArea(area models.AreaRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := cloneAreas(b.areas)
	if i := indexOfArea(next, area.ID); i >= 0 {
		next[i] = area.Clone()
	} else {
		next = append(next, area.Clone())
	}
	b.areas = next
}

// UpsertLandmark records a single landmark as synced, replacing any entry with the same id
func (b *BaselineStore) UpsertLandmark(landmark models.LandmarkRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := cloneLandmarks(b.landmarks)
	if i := indexOfLandmark(next, landmark.ID); i >= 0 {
		next[i] = landmark
	} else {
		next = append(next, landmark)
	}
	b.landmarks = next
}

// RemoveArea forgets an area that was deleted on the server
func (b *BaselineStore) RemoveArea(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := indexOfArea(b.areas, id); i >= 0 {
		next := make([]models.AreaRecord, 0, len(b.areas)-1)
		next = append(next, b.areas[:i]...)
		b.areas = append(next, b.areas[i+1:]...)
	}
}

// RemoveLandmark forgets a landmark that was deleted on the server
func (b *BaselineStore) RemoveLandmark(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := indexOfLandmark(b.landmarks, id); i >= 0 {
		next := make([]models.LandmarkRecord, 0, len(b.landmarks)-1)
		next = append(next, b.landmarks[:i]...)
		b.landmarks = append(next, b.landmarks[i+1:]...)
	}
}
