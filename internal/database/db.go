package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"go-project-finance/internal/config"
	"go-project-finance/internal/logger"
	"go-project-finance/internal/models"
)

var DB *gorm.DB

// Connect opens the configured database (retrying while it comes up), stores it
// in DB and syncs the schema.
func Connect(cfg config.DatabaseConfig, logLevel string) error {
	log := logger.WithComponent("database")

	var err error
	for i := 0; i < 5; i++ {
		DB, err = Open(cfg.Driver, cfg.DSN, logLevel)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("failed to connect to database, retrying in 2 seconds")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return fmt.Errorf("connect to %s after 5 attempts: %w", cfg.Driver, err)
	}
	log.Info().Str("driver", cfg.Driver).Msg("connected to database")

	if err := Migrate(DB); err != nil {
		return err
	}
	log.Info().Msg("database schema synced")
	return nil
}

// Open returns a gorm handle for driver. Unique-index violations are translated
// to gorm.ErrDuplicatedKey for every driver.
func Open(driver, dsn, logLevel string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = "finance.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormLevel(logLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		// SQLite allows a single writer; one connection avoids "database is locked".
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// OpenMemory opens a private in-memory SQLite database with the schema applied.
func OpenMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.NewReplacer("/", "_", " ", "_").Replace(name))
	db, err := Open("sqlite", dsn, "error")
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.NotificationPreference{},
		&models.CompanyProfile{},
		&models.Project{},
		&models.Revenue{},
		&models.Expense{},
		&models.Billing{},
		&models.Collection{},
		&models.Notification{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func gormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	case "silent":
		return gormlogger.Silent
	}
	return gormlogger.Warn
}
