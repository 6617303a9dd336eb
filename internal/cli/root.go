// Package cli implements blogctl, the admin command line for the blog API.
package cli

import (
	"blogapp/internal/bootstrap"
	"blogapp/internal/config"
	"blogapp/internal/middleware"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Seams for tests.
var (
	loadConfig  = config.LoadConfig
	initRuntime = bootstrap.InitRuntime
	closeDB     = func(db *gorm.DB) {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
)

// NewRootCommand creates the blogctl root command.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "blogctl",
		Short:         "Administer the blog API database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewSeedCommand())
	cmd.AddCommand(NewOpenAPICommand())

	return cmd
}

// runtime is what a command connected to.
type runtime struct {
	cfg   *config.Config
	db    *gorm.DB
	redis *redis.Client
}

func (r *runtime) Close() {
	closeDB(r.db)
	if r.redis != nil {
		_ = r.redis.Close()
	}
}

// connect loads configuration and initializes the runtime the command needs.
func connect(opts bootstrap.Options) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	middleware.ConfigureLogger(cfg.Env, cfg.LogLevel)

	db, r, err := initRuntime(cfg, opts)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, db: db, redis: r}, nil
}
