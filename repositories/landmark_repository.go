package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"map-editor/entities"
)

type LandmarkRepositoryInterface interface {
	List(ctx context.Context) ([]entities.Landmark, error)
	GetByID(ctx context.Context, id uint64) (*entities.Landmark, error)
	Create(ctx context.Context, landmark *entities.Landmark) error
	UpdateInTx(ctx context.Context, tx *gorm.DB, landmark *entities.Landmark) error
	Delete(ctx context.Context, id uint64) error
	UpdateImageURL(ctx context.Context, id uint64, imageURL, actor string) error
}

// LandmarkRepository handles database operations for map landmarks
type LandmarkRepository struct {
	*BaseRepository
}

// NewLandmarkRepository creates a new landmark repository
func NewLandmarkRepository(base *BaseRepository) *LandmarkRepository {
	return &LandmarkRepository{BaseRepository: base}
}

func (r *LandmarkRepository) List(ctx context.Context) ([]entities.Landmark, error) {
	var landmarks []entities.Landmark
	if err := r.db.WithContext(ctx).Order(`"ID"`).Find(&landmarks).Error; err != nil {
		return nil, fmt.Errorf("failed to list landmarks: %w", err)
	}
	return landmarks, nil
}

func (r *LandmarkRepository) GetByID(ctx context.Context, id uint64) (*entities.Landmark, error) {
	var landmark entities.Landmark
	if err := r.db.WithContext(ctx).Where(`"ID" = ?`, id).First(&landmark).Error; err != nil {
		return nil, notFound(err)
	}
	return &landmark, nil
}

func (r *LandmarkRepository) Create(ctx context.Context, landmark *entities.Landmark) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(landmark).Error; err != nil {
			return fmt.Errorf("failed to create landmark: %w", err)
		}
		return r.syncGeometry(tx, landmark)
	})
}

// UpdateInTx writes every editable column of an existing landmark. Returns ErrNotFound when no row matched.
func (r *LandmarkRepository) UpdateInTx(ctx context.Context, tx *gorm.DB, landmark *entities.Landmark) error {
	db := r.conn(ctx, tx)
	result := db.Model(&entities.Landmark{}).
		Where(`"ID" = ?`, landmark.ID).
		Select("NAME", "LAT", "LON", "COLOR", "ICON_SIZE", "IMAGE_URL", "CATEGORY", "LAST_UPDATE", "LAST_UPDATE_BY").
		Updates(landmark)
	if result.Error != nil {
		return fmt.Errorf("failed to update landmark %d: %w", landmark.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("landmark %d: %w", landmark.ID, ErrNotFound)
	}
	return r.syncGeometry(db, landmark)
}

func (r *LandmarkRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Where(`"ID" = ?`, id).Delete(&entities.Landmark{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete landmark %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("landmark %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *LandmarkRepository) UpdateImageURL(ctx context.Context, id uint64, imageURL, actor string) error {
	mapUpdate := map[string]interface{}{
		"IMAGE_URL":      imageURL,
		"LAST_UPDATE":    time.Now(),
		"LAST_UPDATE_BY": actor,
	}
	result := r.db.WithContext(ctx).Model(&entities.Landmark{}).
		Where(`"ID" = ?`, id).
		Updates(mapUpdate)
	if result.Error != nil {
		return fmt.Errorf("failed to update image of landmark %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("landmark %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *LandmarkRepository) syncGeometry(tx *gorm.DB, landmark *entities.Landmark) error {
	if !r.spatial {
		return nil
	}
	if err := tx.Exec(`UPDATE "MAP_LANDMARK" SET "GEOM" = ST_SetSRID(ST_MakePoint(?, ?), 4326) WHERE "ID" = ?`,
		landmark.Lon, landmark.Lat, landmark.ID).Error; err != nil {
		return fmt.Errorf("failed to update geometry of landmark %d: %w", landmark.ID, err)
	}
	return nil
}
