package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a row with the requested id does not exist
var ErrNotFound = errors.New("record not found")

// BaseRepository provides common database operations
type BaseRepository struct {
	db *gorm.DB
	// spatial is set when the database keeps a PostGIS GEOM column next to each row
	spatial bool
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *gorm.DB, spatial bool) *BaseRepository {
	return &BaseRepository{
		db:      db,
		spatial: spatial,
	}
}

// GetDB returns the database connection
func (r *BaseRepository) GetDB() *gorm.DB {
	return r.db
}

// Spatial reports whether PostGIS columns are maintained
func (r *BaseRepository) Spatial() bool {
	return r.spatial
}

// Begin starts a transaction
func (r *BaseRepository) Begin() *gorm.DB {
	return r.db.Begin()
}

// Commit commits a transaction
func (r *BaseRepository) Commit(tx *gorm.DB) error {
	return tx.Commit().Error
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(tx *gorm.DB) error {
	return tx.Rollback().Error
}

// Transaction runs fn inside one transaction. Any error from fn or a panic rolls everything back.
func (r *BaseRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) (err error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if p := recover(); p != nil {
			_ = r.Rollback(tx)
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		_ = r.Rollback(tx)
		return err
	}
	return r.Commit(tx)
}

// conn returns tx when non-nil, otherwise the repository connection bound to ctx
func (r *BaseRepository) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
