package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"gorm.io/gorm"

	"map-editor/entities"
	"map-editor/logger"
	"map-editor/models"
	"map-editor/repositories"
	"map-editor/util"
)

// ErrImagesDisabled is returned by UploadLandmarkImage when no image store is configured
var ErrImagesDisabled = errors.New("image storage is not configured")

// Transactor runs a function inside one database transaction
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ImageUploader stores a landmark image and returns its URL
type ImageUploader interface {
	Upload(ctx context.Context, landmarkID, fileName string, data []byte) (string, error)
}

type MapServiceInterface interface {
	ListAreas(ctx context.Context) ([]models.AreaRecord, error)
	ListLandmarks(ctx context.Context) ([]models.LandmarkRecord, error)
	CreateArea(ctx context.Context, area models.AreaRecord) (models.AreaRecord, error)
	CreateLandmark(ctx context.Context, landmark models.LandmarkRecord) (models.LandmarkRecord, error)
	BatchUpdate(ctx context.Context, req models.BatchUpdateRequest) error
	DeleteArea(ctx context.Context, id string) error
	DeleteLandmark(ctx context.Context, id string) error
	UploadLandmarkImage(ctx context.Context, id, fileName string, data []byte) (models.LandmarkRecord, error)
	SearchAreas(ctx context.Context, query string) ([]models.AreaRecord, error)
	AreasAt(ctx context.Context, lat, lon float64) ([]models.AreaRecord, error)
}

// MapService implements the map API on top of the repositories
type MapService struct {
	areaRepo     repositories.AreaRepositoryInterface
	landmarkRepo repositories.LandmarkRepositoryInterface
	tx           Transactor
	cache        *MetadataCache
	images       ImageUploader
	logger       *slog.Logger
	now          func() time.Time
}

// NewMapService wires the service. cache and images may be nil.
func NewMapService(areaRepo repositories.AreaRepositoryInterface, landmarkRepo repositories.LandmarkRepositoryInterface,
	tx Transactor, cache *MetadataCache, images ImageUploader) *MapService {
	return &MapService{
		areaRepo:     areaRepo,
		landmarkRepo: landmarkRepo,
		tx:           tx,
		cache:        cache,
		images:       images,
		logger:       logger.L(),
		now:          time.Now,
	}
}

type actorKey struct{}

// WithActor records who is writing, for the audit columns
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by WithActor, or "system"
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return "system"
}

func (s *MapService) ListAreas(ctx context.Context) ([]models.AreaRecord, error) {
	if areas, ok := s.cache.GetAreas(ctx); ok {
		return areas, nil
	}
	rows, err := s.areaRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	areas, err := areaRecords(rows)
	if err != nil {
		return nil, err
	}
	s.cache.SetAreas(ctx, areas)
	return areas, nil
}

func (s *MapService) ListLandmarks(ctx context.Context) ([]models.LandmarkRecord, error) {
	if landmarks, ok := s.cache.GetLandmarks(ctx); ok {
		return landmarks, nil
	}
	rows, err := s.landmarkRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	landmarks := make([]models.LandmarkRecord, 0, len(rows))
	for i := range rows {
		landmarks = append(landmarks, rows[i].ToRecord())
	}
	s.cache.SetLandmarks(ctx, landmarks)
	return landmarks, nil
}

// CreateArea validates and stores a new area. The request id, if any, is ignored.
func (s *MapService) CreateArea(ctx context.Context, rec models.AreaRecord) (models.AreaRecord, error) {
	if err := ValidateArea(rec); err != nil {
		return models.AreaRecord{}, err
	}
	row := &entities.Area{}
	if err := s.fillArea(row, rec); err != nil {
		return models.AreaRecord{}, err
	}
	row.Touch(ActorFrom(ctx), s.now(), true)

	if err := s.areaRepo.Create(ctx, row); err != nil {
		return models.AreaRecord{}, err
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("area_created", "id", row.ID, "name", row.Name)
	return row.ToRecord()
}

// CreateLandmark validates and stores a new landmark. The request id, if any, is ignored.
func (s *MapService) CreateLandmark(ctx context.Context, rec models.LandmarkRecord) (models.LandmarkRecord, error) {
	if err := ValidateLandmark(rec); err != nil {
		return models.LandmarkRecord{}, err
	}
	row := &entities.Landmark{}
	row.ApplyRecord(rec)
	row.Touch(ActorFrom(ctx), s.now(), true)

	if err := s.landmarkRepo.Create(ctx, row); err != nil {
		return models.LandmarkRecord{}, err
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("landmark_created", "id", row.ID)
	return row.ToRecord(), nil
}

// BatchUpdate writes every record of the request in one transaction. Either all of them are
// stored or none is.
func (s *MapService) BatchUpdate(ctx context.Context, req models.BatchUpdateRequest) error {
	areaRows := make([]*entities.Area, 0, len(req.Areas))
	for _, rec := range req.Areas {
		if err := ValidateArea(rec); err != nil {
			return err
		}
		id, err := parseID(rec.ID)
		if err != nil {
			return err
		}
		row := &entities.Area{ID: id}
		if err := s.fillArea(row, rec); err != nil {
			return err
		}
		row.Touch(ActorFrom(ctx), s.now(), false)
		areaRows = append(areaRows, row)
	}

	landmarkRows := make([]*entities.Landmark, 0, len(req.Landmarks))
	for _, rec := range req.Landmarks {
		if err := ValidateLandmark(rec); err != nil {
			return err
		}
		id, err := parseID(rec.ID)
		if err != nil {
			return err
		}
		row := &entities.Landmark{ID: id}
		row.ApplyRecord(rec)
		row.Touch(ActorFrom(ctx), s.now(), false)
		landmarkRows = append(landmarkRows, row)
	}

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		for _, row := range areaRows {
			if err := s.areaRepo.UpdateInTx(ctx, tx, row); err != nil {
				return err
			}
		}
		for _, row := range landmarkRows {
			if err := s.landmarkRepo.UpdateInTx(ctx, tx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("batch_update_applied", "areas", len(areaRows), "landmarks", len(landmarkRows))
	return nil
}

func (s *MapService) DeleteArea(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.areaRepo.Delete(ctx, n); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("area_deleted", "id", n)
	return nil
}

func (s *MapService) DeleteLandmark(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.landmarkRepo.Delete(ctx, n); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("landmark_deleted", "id", n)
	return nil
}

// UploadLandmarkImage stores the image and points the landmark at it
func (s *MapService) UploadLandmarkImage(ctx context.Context, id, fileName string, data []byte) (models.LandmarkRecord, error) {
	if s.images == nil {
		return models.LandmarkRecord{}, ErrImagesDisabled
	}
	n, err := parseID(id)
	if err != nil {
		return models.LandmarkRecord{}, err
	}
	if len(data) == 0 {
		return models.LandmarkRecord{}, invalid(id, "image", "is empty")
	}
	if _, err := s.landmarkRepo.GetByID(ctx, n); err != nil {
		return models.LandmarkRecord{}, err
	}

	url, err := s.images.Upload(ctx, id, fileName, data)
	if err != nil {
		return models.LandmarkRecord{}, err
	}
	if err := s.landmarkRepo.UpdateImageURL(ctx, n, url, ActorFrom(ctx)); err != nil {
		return models.LandmarkRecord{}, err
	}
	s.cache.Invalidate(ctx)

	row, err := s.landmarkRepo.GetByID(ctx, n)
	if err != nil {
		return models.LandmarkRecord{}, err
	}
	return row.ToRecord(), nil
}

// SearchAreas finds areas whose name contains query, ignoring case and diacritics
func (s *MapService) SearchAreas(ctx context.Context, query string) ([]models.AreaRecord, error) {
	rows, err := s.areaRepo.SearchByName(ctx, util.NormalizeName(query))
	if err != nil {
		return nil, err
	}
	return areaRecords(rows)
}

// AreasAt returns every area whose boundary contains the point
func (s *MapService) AreasAt(ctx context.Context, lat, lon float64) ([]models.AreaRecord, error) {
	if !validLat(lat) || !validLon(lon) {
		return nil, invalid("", "location", "[%g, %g] is out of range", lat, lon)
	}
	rows, err := s.areaRepo.FindCandidatesByPoint(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	out := make([]models.AreaRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].ToRecord()
		if err != nil {
			return nil, err
		}
		if util.PointInPolygon(lat, lon, rec.Boundary) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// fillArea copies rec onto row and derives the server-computed columns
func (s *MapService) fillArea(row *entities.Area, rec models.AreaRecord) error {
	if err := row.ApplyRecord(rec); err != nil {
		return err
	}
	row.NameNormalized = util.NormalizeName(rec.Name)
	row.LatCenter, row.LonCenter = util.PolygonInteriorCentroid(rec.Boundary)
	return nil
}

func areaRecords(rows []entities.Area) ([]models.AreaRecord, error) {
	out := make([]models.AreaRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].ToRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseID(id string) (uint64, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, invalid(id, "id", "must be a saved record id")
	}
	return n, nil
}

var _ MapServiceInterface = (*MapService)(nil)
