package repositories

import (
	"database/sql"
	"fmt"

	oracle "github.com/godoes/gorm-oracle"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"map-editor/config"
	"map-editor/entities"
	"map-editor/logger"
)

// Open connects to the configured database. Postgres goes through lib/pq so the pool
// settings apply; Oracle uses the go-ora based dialector.
func Open(cfg config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	if debug {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	switch cfg.Driver {
	case config.DriverOracle:
		db, err := gorm.Open(oracle.Open(cfg.OracleURL()), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to oracle: %w", err)
		}
		return db, nil
	default:
		sqlDB, err := sql.Open("postgres", cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormCfg)
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return db, nil
	}
}

// Migrate creates the map tables. On Postgres the PostGIS extension and the GEOM columns are
// added as well; it reports whether those spatial columns are available. A server without
// PostGIS falls back to bounding box lookups.
func Migrate(db *gorm.DB, driver string) (bool, error) {
	if err := db.AutoMigrate(&entities.Area{}, &entities.Landmark{}); err != nil {
		return false, fmt.Errorf("failed to migrate map tables: %w", err)
	}
	if driver != config.DriverPostgres {
		return false, nil
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS postgis`).Error; err != nil {
		logger.L().Warn("postgis_unavailable", "err", err)
		return false, nil
	}
	statements := []string{
		`ALTER TABLE "MAP_AREA" ADD COLUMN IF NOT EXISTS "GEOM" geometry(Polygon, 4326)`,
		`CREATE INDEX IF NOT EXISTS "IDX_MAP_AREA_GEOM" ON "MAP_AREA" USING GIST ("GEOM")`,
		`ALTER TABLE "MAP_LANDMARK" ADD COLUMN IF NOT EXISTS "GEOM" geometry(Point, 4326)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return false, fmt.Errorf("failed to prepare spatial columns: %w", err)
		}
	}
	return true, nil
}
