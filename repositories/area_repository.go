package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"map-editor/entities"
	"map-editor/models"
)

type AreaRepositoryInterface interface {
	List(ctx context.Context) ([]entities.Area, error)
	GetByID(ctx context.Context, id uint64) (*entities.Area, error)
	Create(ctx context.Context, area *entities.Area) error
	UpdateInTx(ctx context.Context, tx *gorm.DB, area *entities.Area) error
	Delete(ctx context.Context, id uint64) error
	SearchByName(ctx context.Context, normalized string) ([]entities.Area, error)
	FindCandidatesByPoint(ctx context.Context, lat, lon float64) ([]entities.Area, error)
}

// AreaRepository handles database operations for map areas
type AreaRepository struct {
	*BaseRepository
}

// NewAreaRepository creates a new area repository
func NewAreaRepository(base *BaseRepository) *AreaRepository {
	return &AreaRepository{BaseRepository: base}
}

func (r *AreaRepository) List(ctx context.Context) ([]entities.Area, error) {
	var areas []entities.Area
	if err := r.db.WithContext(ctx).Order(`"ID"`).Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	return areas, nil
}

func (r *AreaRepository) GetByID(ctx context.Context, id uint64) (*entities.Area, error) {
	var area entities.Area
	if err := r.db.WithContext(ctx).Where(`"ID" = ?`, id).First(&area).Error; err != nil {
		return nil, notFound(err)
	}
	return &area, nil
}

// Create inserts the area and fills in its id
func (r *AreaRepository) Create(ctx context.Context, area *entities.Area) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(area).Error; err != nil {
			return fmt.Errorf("failed to create area: %w", err)
		}
		return r.syncGeometry(tx, area)
	})
}

// UpdateInTx writes every editable column of an existing area. Returns ErrNotFound when no row matched.
func (r *AreaRepository) UpdateInTx(ctx context.Context, tx *gorm.DB, area *entities.Area) error {
	db := r.conn(ctx, tx)
	result := db.Model(&entities.Area{}).
		Where(`"ID" = ?`, area.ID).
		Select("NAME", "NAME_NORMALIZED", "DESCRIPTION", "COLOR", "FILL_OPACITY", "BOUNDARY_JSON",
			"AVERAGE_PRICE", "SALES_VOLUME", "CAPITAL_GAIN", "RENTAL_YIELD",
			"LAT_CENTER", "LON_CENTER", "MIN_LAT", "MAX_LAT", "MIN_LON", "MAX_LON",
			"LAST_UPDATE", "LAST_UPDATE_BY").
		Updates(area)
	if result.Error != nil {
		return fmt.Errorf("failed to update area %d: %w", area.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("area %d: %w", area.ID, ErrNotFound)
	}
	return r.syncGeometry(db, area)
}

func (r *AreaRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Where(`"ID" = ?`, id).Delete(&entities.Area{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete area %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("area %d: %w", id, ErrNotFound)
	}
	return nil
}

// SearchByName matches against the normalized name column
func (r *AreaRepository) SearchByName(ctx context.Context, normalized string) ([]entities.Area, error) {
	var areas []entities.Area
	if err := r.db.WithContext(ctx).
		Where(`"NAME_NORMALIZED" LIKE ?`, "%"+normalized+"%").
		Order(`"NAME"`).
		Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("failed to search areas: %w", err)
	}
	return areas, nil
}

// FindCandidatesByPoint returns areas that may contain the point. With PostGIS the match is exact,
// otherwise it is a bounding box filter and callers refine it with a point-in-polygon test.
func (r *AreaRepository) FindCandidatesByPoint(ctx context.Context, lat, lon float64) ([]entities.Area, error) {
	var areas []entities.Area
	db := r.db.WithContext(ctx)
	if r.spatial {
		db = db.Where(`ST_Contains("GEOM", ST_SetSRID(ST_MakePoint(?, ?), 4326))`, lon, lat)
	} else {
		db = db.Where(`"MIN_LAT" <= ? AND "MAX_LAT" >= ? AND "MIN_LON" <= ? AND "MAX_LON" >= ?`, lat, lat, lon, lon)
	}
	if err := db.Order(`"ID"`).Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("failed to find areas by coordinate: %w", err)
	}
	return areas, nil
}

// syncGeometry keeps the PostGIS column in step with BOUNDARY_JSON
func (r *AreaRepository) syncGeometry(tx *gorm.DB, area *entities.Area) error {
	if !r.spatial {
		return nil
	}
	ring, err := area.Ring()
	if err != nil {
		return err
	}
	geoJSON, err := models.GeoJSONPolygon(ring)
	if err != nil {
		return err
	}
	if err := tx.Exec(`UPDATE "MAP_AREA" SET "GEOM" = ST_SetSRID(ST_GeomFromGeoJSON(?), 4326) WHERE "ID" = ?`, geoJSON, area.ID).Error; err != nil {
		return fmt.Errorf("failed to update geometry of area %d: %w", area.ID, err)
	}
	return nil
}
