package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quill/internal/auth"
	"quill/internal/config"
	"quill/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured driver. The returned handle is shared;
// callers derive per-request sessions with WithContext.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(SQLiteDSN(cfg.DatabaseURL))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	level := gormlogger.Warn
	if cfg.IsDevelopment() {
		level = gormlogger.Info
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return conn, nil
}

// Migrate creates or updates every table of the entity graph.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
		&models.Follow{},
		&models.Contact{},
	)
}

// SeedSuperuser creates the first superuser when no account with that email
// exists yet.
func SeedSuperuser(conn *gorm.DB, email, password string, log *zap.Logger) error {
	if email == "" || password == "" {
		return nil
	}

	var existing models.User
	err := conn.Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Debug("superuser already present", zap.String("email", email))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user := models.User{
		Email:          email,
		HashedPassword: hash,
		FullName:       "Administrator",
		IsActive:       true,
		IsSuperuser:    true,
		IsStaff:        true,
	}
	if err := conn.Create(&user).Error; err != nil {
		return fmt.Errorf("seed superuser: %w", err)
	}
	log.Info("superuser created", zap.String("email", email))
	return nil
}

// SQLiteDSN turns on foreign key enforcement, which sqlite leaves off per
// connection. The cascades on posts, comments and likes depend on it.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}
