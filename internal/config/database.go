package config

import (
	"fmt"

	"github.com/mandari/oparlsync/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB creates a GORM database connection with connection pooling.
func NewDB(cfg *DatabaseConfig) (*gorm.DB, error) {
	dsn := cfg.DSN()
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

// AutoMigrate runs GORM AutoMigrate for all models. Production deployments
// use the versioned SQL migrations under cmd/migrate instead (§10.4); this
// is kept for local development and the integration test suite, mirroring
// the dual-path the teacher repo already used.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Source{},
		&models.Body{},
		&models.Organization{},
		&models.Person{},
		&models.Membership{},
		&models.Meeting{},
		&models.Paper{},
		&models.AgendaItem{},
		&models.File{},
		&models.Location{},
		&models.Consultation{},
		&models.LegislativeTerm{},
		&models.SyncRun{},
		&models.SyncSkip{},
	)
}
