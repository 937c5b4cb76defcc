package database

import (
	"note-service/internal/model"
	"note-service/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize opens the database connection and runs migrations. The handle
// is returned to the caller instead of being held as package state, so the
// store dependency stays explicit.
func Initialize(cfg *config.DBConfig) (*gorm.DB, error) {
	// Connect with PreferSimpleProtocol to prevent "prepared statement
	// already exists" errors behind connection poolers.
	pgConfig := postgres.Config{
		DSN:                  cfg.GetDSN(),
		PreferSimpleProtocol: true,
	}

	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
	})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// AutoMigrate will automatically create or update the table structure
	if err := db.AutoMigrate(&model.Tenant{}, &model.User{}, &model.Note{}); err != nil {
		return nil, err
	}

	return db, nil
}
