package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ErrDatabaseNotConfigured is returned by InitDB when no DB host is set; the stats
// aggregator then runs in its not-configured mode instead of failing startup.
var ErrDatabaseNotConfigured = errors.New("database not configured")

func InitDB(cfg DBConfig) (*gorm.DB, error) {
	if cfg.Host == "" {
		return nil, ErrDatabaseNotConfigured
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: NewGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("AutoMigrate failed: %w", err)
	}

	slog.Info("database connection established", "host", cfg.Host, "db", cfg.Name)
	DB = db
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Meal{},
		&models.MealItem{},
		&models.DailyStats{},
		&models.Alert{},
		&models.UserDevice{},
	)
}
