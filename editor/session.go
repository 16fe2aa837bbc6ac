package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"map-editor/logger"
	"map-editor/models"
)

// ErrSaveInProgress is returned by Save while another save of the same session is running
var ErrSaveInProgress = errors.New("save already in progress")

// API is everything a session needs from the map backend
type API interface {
	Source
	MapWriter
	DeleteArea(ctx context.Context, id string) error
	DeleteLandmark(ctx context.Context, id string) error
	UploadLandmarkImage(ctx context.Context, id, fileName string, data []byte) (models.LandmarkRecord, error)
}

// Option configures a Session
type Option func(*Session)

// WithHistoryLimit sets how many snapshots undo can reach back through
func WithHistoryLimit(limit int) Option {
	return func(s *Session) {
		s.historyLimit = limit
	}
}

// WithLogger replaces the default logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// Session is one open editor: the records, their history, the dirty state and the selection.
// It consumes the mutation events of the map surface and serves it the records to render.
type Session struct {
	api          API
	logger       *slog.Logger
	historyLimit int

	mu          sync.Mutex
	saving      atomic.Bool
	baseline    *BaselineStore
	working     *WorkingSet
	history     *HistoryStack
	dirty       DirtySet
	coordinator *SaveCoordinator
	selected    string
}

// NewSession creates an empty session. Call Load to fill it from the server.
func NewSession(api API, opts ...Option) *Session {
	s := &Session{
		api:          api,
		logger:       logger.L(),
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	empty := NewSnapshot(nil, nil)
	s.baseline = NewBaselineStore(api)
	s.working = NewWorkingSet(empty)
	s.history = NewHistoryStack(empty, s.historyLimit)
	s.dirty = NewDirtySet()
	s.coordinator = &SaveCoordinator{api: api, logger: s.logger}
	return s
}

// Load replaces every record with the server state and clears history, dirty state and selection.
// On failure the session keeps what it had, which is nothing before the first successful load.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	areas, landmarks, err := s.baseline.Load(ctx)
	if err != nil {
		s.logger.Error("editor_load_failed", "err", err)
		return err
	}
	s.baseline.Reset(areas, landmarks)
	initial := NewSnapshot(areas, landmarks)
	s.working.Restore(initial)
	s.history.Reset(initial)
	s.dirty = NewDirtySet()
	s.selected = ""
	s.logger.Info("editor_loaded", "areas", len(areas), "landmarks", len(landmarks))
	return nil
}

// CreateArea adds a drawn area under a temporary id and selects it
func (s *Session) CreateArea(area models.AreaRecord) models.AreaRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.working.AddArea(area)
	s.selected = created.ID
	s.commit(KindArea, created.ID)
	return created
}

// CreateLandmark adds a placed landmark under a temporary id and selects it
func (s *Session) CreateLandmark(landmark models.LandmarkRecord) models.LandmarkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.working.AddLandmark(landmark)
	s.selected = created.ID
	s.commit(KindLandmark, created.ID)
	return created
}

// UpdateArea applies a form edit to one area
func (s *Session) UpdateArea(id string, patch models.AreaPatch) (models.AreaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.working.UpdateArea(id, patch)
	if err != nil {
		return models.AreaRecord{}, err
	}
	s.commit(KindArea, id)
	return updated, nil
}

// UpdateLandmark applies a form edit to one landmark
func (s *Session) UpdateLandmark(id string, patch models.LandmarkPatch) (models.LandmarkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.working.UpdateLandmark(id, patch)
	if err != nil {
		return models.LandmarkRecord{}, err
	}
	s.commit(KindLandmark, id)
	return updated, nil
}

// DragAreaBoundary commits the ring left by a vertex or shape drag
func (s *Session) DragAreaBoundary(id string, boundary models.Ring) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.working.SetAreaBoundary(id, boundary); err != nil {
		return err
	}
	s.commit(KindArea, id)
	return nil
}

// DragLandmark commits the position left by a marker drag
func (s *Session) DragLandmark(id string, lat, lng float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.working.MoveLandmark(id, lat, lng); err != nil {
		return err
	}
	s.commit(KindLandmark, id)
	return nil
}

// DeleteArea removes an area immediately. Records the server knows are deleted there first;
// a 404 counts as already deleted.
func (s *Session) DeleteArea(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.working.Area(id); !ok {
		return fmt.Errorf("area %s: %w", id, ErrRecordNotFound)
	}
	if _, known := s.baseline.Area(id); known && !models.IsTemporaryID(id) {
		if err := s.api.DeleteArea(ctx, id); err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to delete area %s: %w", id, err)
		}
		s.baseline.RemoveArea(id)
	}
	s.working.RemoveArea(id)
	s.commit(KindArea, id)
	s.logger.Info("editor_area_deleted", "id", id)
	return nil
}

// DeleteLandmark removes a landmark immediately, like DeleteArea
func (s *Session) DeleteLandmark(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.working.Landmark(id); !ok {
		return fmt.Errorf("landmark %s: %w", id, ErrRecordNotFound)
	}
	if _, known := s.baseline.Landmark(id); known && !models.IsTemporaryID(id) {
		if err := s.api.DeleteLandmark(ctx, id); err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to delete landmark %s: %w", id, err)
		}
		s.baseline.RemoveLandmark(id)
	}
	s.working.RemoveLandmark(id)
	s.commit(KindLandmark, id)
	s.logger.Info("editor_landmark_deleted", "id", id)
	return nil
}

// UploadLandmarkImage stores an image for a saved landmark and records the new URL
// in both the working set and the baseline.
func (s *Session) UploadLandmarkImage(ctx context.Context, id, fileName string, data []byte) (models.LandmarkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.working.Landmark(id)
	if !ok {
		return models.LandmarkRecord{}, fmt.Errorf("landmark %s: %w", id, ErrRecordNotFound)
	}
	base, known := s.baseline.Landmark(id)
	if !known || models.IsTemporaryID(id) {
		return models.LandmarkRecord{}, fmt.Errorf("landmark %s must be saved before uploading an image", id)
	}
	stored, err := s.api.UploadLandmarkImage(ctx, id, fileName, data)
	if err != nil {
		return models.LandmarkRecord{}, fmt.Errorf("failed to upload image for landmark %s: %w", id, err)
	}

	base.ImageURL = stored.ImageURL
	s.baseline.UpsertLandmark(base)
	current.ImageURL = stored.ImageURL
	s.working.ReplaceLandmark(id, current)
	s.commit(KindLandmark, id)
	return current, nil
}

// Undo steps back one snapshot. It returns false when there is nothing to undo.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// Redo steps forward one snapshot. It returns false when there is nothing to redo.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// Save sends pending creates and updates to the server. Server ids replace temporary ids in the
// working set, in every history entry and in the selection, including after a partial failure.
func (s *Session) Save(ctx context.Context) (SaveResult, error) {
	if !s.saving.CompareAndSwap(false, true) {
		return SaveResult{}, ErrSaveInProgress
	}
	defer s.saving.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.coordinator.Save(ctx, s.working, s.baseline, s.dirty)
	if len(result.Created) > 0 {
		s.history.Rewrite(func(snap Snapshot) Snapshot {
			return snap.RenameIDs(result.Created)
		})
		if id, ok := result.Created[s.selected]; ok {
			s.selected = id
		}
	}
	if err != nil {
		s.dirty = Recompute(s.working.Snapshot(), s.baseline)
		return result, err
	}
	s.dirty = NewDirtySet()
	return result, nil
}

// Select marks the record whose edit handles are shown. An empty id clears the selection.
// It returns false when no record has that id.
func (s *Session) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" && !s.exists(id) {
		return false
	}
	s.selected = id
	return true
}

// Selected returns the selected record id or ""
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Dirty returns a copy of the current dirty set
func (s *Session) Dirty() DirtySet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty.Clone()
}

// HasUnsavedChanges reports whether a save would send anything
func (s *Session) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty.Empty() {
		return true
	}
	for _, area := range s.working.areas {
		_, known := s.baseline.Area(area.ID)
		if needsCreate(area.ID, known) {
			return true
		}
	}
	for _, landmark := range s.working.landmarks {
		_, known := s.baseline.Landmark(landmark.ID)
		if needsCreate(landmark.ID, known) {
			return true
		}
	}
	return false
}

// Areas returns the records to render
func (s *Session) Areas() []models.AreaRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Areas()
}

// Landmarks returns the records to render
func (s *Session) Landmarks() []models.LandmarkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Landmarks()
}

// Snapshot captures the current working set
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Snapshot()
}

// Baseline returns a snapshot of the last server-synced state
func (s *Session) Baseline() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewSnapshot(s.baseline.Areas(), s.baseline.Landmarks())
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// commit records the working set as a new history entry after an edit to one record
func (s *Session) commit(kind Kind, id string) {
	s.history.Push(s.working.Snapshot())
	s.dirty.Touch(kind, id, s.working, s.baseline)
	if !s.exists(s.selected) {
		s.selected = ""
	}
}

func (s *Session) restore(snap Snapshot) {
	s.working.Restore(snap)
	s.dirty = Recompute(snap, s.baseline)
	if !s.exists(s.selected) {
		s.selected = ""
	}
}

func (s *Session) exists(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := s.working.Area(id); ok {
		return true
	}
	_, ok := s.working.Landmark(id)
	return ok
}

func isNotFound(err error) bool {
	var apiErr *models.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
