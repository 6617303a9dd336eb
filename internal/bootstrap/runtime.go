// Package bootstrap wires the process-level dependencies shared by the server and the admin CLI.
package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"

	"blogapp/internal/cache"
	"blogapp/internal/config"
	"blogapp/internal/database"
	"blogapp/internal/middleware"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipRedis leaves the cache disabled, e.g. for blogctl migrate.
	SkipRedis bool
	// SkipSchema connects without applying DB_SCHEMA_MODE.
	SkipSchema bool
}

// Seams for tests.
var (
	connectDB    = database.ConnectWithOptions
	connectRedis = cache.Connect
)

// InitRuntime connects to the database and, when configured, to Redis.
// Redis is optional: an unreachable server is logged and the client is nil.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := connectDB(cfg, database.ConnectOptions{ApplySchema: !opts.SkipSchema})
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.SkipRedis || strings.TrimSpace(cfg.RedisURL) == "" {
		return db, nil, nil
	}

	r, err := connectRedis(cfg.RedisURL)
	if err != nil {
		middleware.Logger.Warn("redis unavailable, user cache disabled", slog.String("error", err.Error()))
		return db, nil, nil
	}
	return db, r, nil
}
