package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationDir = "migrations"

// ErrUnsupportedDialect is returned by the SQL migration commands for non-postgres databases.
var ErrUnsupportedDialect = errors.New("sql migrations are only available for postgres")

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return goose.UpContext(ctx, sqlDB, migrationDir)
}

func setupGoose(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return ErrUnsupportedDialect
	}
	goose.SetBaseFS(migrationFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return nil
}

// Migrate applies every pending SQL migration. SQLite databases have no SQL
// migrations and are brought up to date with AutoMigrate instead.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return AutoMigrate(db.WithContext(ctx))
	}
	if err := setupGoose(db); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// MigrationVersion reports the latest applied migration version.
func MigrationVersion(ctx context.Context, db *gorm.DB) (int64, error) {
	if err := setupGoose(db); err != nil {
		return 0, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, sqlDB)
}

// MigrationStatus is one embedded migration and whether it has been applied.
type MigrationStatus struct {
	Version int64
	Source  string
	Applied bool
}

// Status lists the embedded migrations against the applied version.
func Status(ctx context.Context, db *gorm.DB) ([]MigrationStatus, error) {
	current, err := MigrationVersion(ctx, db)
	if err != nil {
		return nil, err
	}

	found, err := goose.CollectMigrations(migrationDir, 0, goose.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("collect migrations: %w", err)
	}

	out := make([]MigrationStatus, 0, len(found))
	for _, m := range found {
		out = append(out, MigrationStatus{
			Version: m.Version,
			Source:  m.Source,
			Applied: m.Version <= current,
		})
	}
	return out, nil
}
