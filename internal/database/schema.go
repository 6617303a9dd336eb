package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"blogapp/internal/config"
	"blogapp/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes. A database is owned by exactly one of them; switching an
// existing database from auto to sql fails because goose finds the tables.
const (
	// SchemaModeSQL applies the embedded SQL migrations (AutoMigrate on sqlite,
	// which has none).
	SchemaModeSQL = "sql"
	// SchemaModeAuto runs GORM AutoMigrate only. Refused in production.
	SchemaModeAuto = "auto"
)

// SchemaMode returns the configured mode, defaulting to sql.
func SchemaMode(cfg *config.Config) string {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		return SchemaModeSQL
	}
	return mode
}

// ApplySchema brings the schema up to date the way cfg asks for.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	mode := SchemaMode(cfg)
	switch mode {
	case SchemaModeSQL:
		if err := Migrate(ctx, db); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	case SchemaModeAuto:
		if cfg.IsProduction() {
			return fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
		}
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	default:
		return fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}

	middleware.Logger.InfoContext(ctx, "database schema applied",
		slog.String("mode", mode),
		slog.String("driver", db.Dialector.Name()),
	)
	return nil
}
