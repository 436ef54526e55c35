package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"stockswap/internal/config"
	"stockswap/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured SQL database and migrates the schema.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("driver %q has no SQL database", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger(cfg.LogSQL),
		// export requests outlive the products they reference
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.Driver == config.DriverSQLite {
		// one writer at a time; transactions would otherwise fail with SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Printf("Database connection established (%s)", cfg.Driver)
	return db, nil
}

// Migrate creates or updates the shopkeepers, products and export_requests tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Shopkeeper{}, &models.Product{}, &models.ExportRequest{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newLogger(logSQL bool) logger.Interface {
	level := logger.Warn
	if logSQL {
		level = logger.Info
	}
	return logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
