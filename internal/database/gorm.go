package database

import (
	"fmt"

	"whaticket-crm/internal/config"
	"whaticket-crm/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database. DB_DRIVER selects postgres for
// production or sqlite (pure Go driver) for local use.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	switch cfg.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
		db, err := gorm.Open(postgres.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("Connected to PostgreSQL")
		return db, nil
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.DBPath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.Exec("PRAGMA journal_mode=WAL;")
		db.Exec("PRAGMA busy_timeout=5000;")
		log.Info().Str("path", cfg.DBPath).Msg("Opened SQLite database")
		return db, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

// AutoMigrate creates or updates the schema for all pipeline entities.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Contact{},
		&models.Ticket{},
		&models.Message{},
		&models.Tag{},
		&models.TagEvent{},
	)
}
