package cli

import (
	"bytes"
	"context"
	"testing"

	"blogapp/internal/bootstrap"
	"blogapp/internal/cache"
	"blogapp/internal/config"
	"blogapp/internal/database"
	"blogapp/internal/models"
	"blogapp/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// useRuntime points the commands at db, and at the Redis server on redisAddr
// when one is given, for the duration of the test. It records the options
// each command connected with.
func useRuntime(t *testing.T, db *gorm.DB, redisAddr string) *[]bootstrap.Options {
	t.Helper()

	var seen []bootstrap.Options
	origLoad, origInit, origClose := loadConfig, initRuntime, closeDB
	loadConfig = func() (*config.Config, error) {
		return &config.Config{Env: "test", DBDriver: "sqlite", BcryptCost: bcrypt.MinCost}, nil
	}
	initRuntime = func(_ *config.Config, opts bootstrap.Options) (*gorm.DB, *redis.Client, error) {
		seen = append(seen, opts)
		if opts.SkipRedis || redisAddr == "" {
			return db, nil, nil
		}
		// Each command closes its own client.
		return db, redis.NewClient(&redis.Options{Addr: redisAddr}), nil
	}
	closeDB = func(*gorm.DB) {}
	t.Cleanup(func() { loadConfig, initRuntime, closeDB = origLoad, origInit, origClose })
	return &seen
}

func useDB(t *testing.T, db *gorm.DB) *[]bootstrap.Options {
	t.Helper()
	return useRuntime(t, db, "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestOpenAPI_YAML(t *testing.T) {
	out, err := execute(t, "openapi")
	require.NoError(t, err)

	var doc struct {
		Swagger  string                    `yaml:"swagger"`
		BasePath string                    `yaml:"basePath"`
		Schemes  []string                  `yaml:"schemes"`
		Paths    map[string]map[string]any `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Equal(t, []string{"http", "https"}, doc.Schemes)
	assert.Contains(t, doc.Paths, "/auth/register")
	assert.Contains(t, doc.Paths["/articles/{id}"], "delete")
}

func TestOpenAPI_RejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "openapi", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestSeed(t *testing.T) {
	db := testutil.NewDB(t)
	useDB(t, db)

	out, err := execute(t, "seed", "--users", "2", "--articles", "2", "--seed", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "created 2 users and 4 articles")

	var count int64
	require.NoError(t, db.Model(&models.Article{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

func TestSeed_CleanEvictsCachedUsers(t *testing.T) {
	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	useRuntime(t, db, mr.Addr())

	_, err := execute(t, "seed", "--users", "1", "--articles", "0", "--seed", "1")
	require.NoError(t, err)

	var first models.User
	require.NoError(t, db.First(&first).Error)
	// A cached entry as left behind by an authenticated request.
	require.NoError(t, mr.Set(cache.UserKey(first.ID), `{"id":1}`))

	_, err = execute(t, "seed", "--users", "1", "--articles", "0", "--seed", "2", "--clean")
	require.NoError(t, err)

	assert.False(t, mr.Exists(cache.UserKey(first.ID)))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMigrate_SQLite(t *testing.T) {
	db := testutil.NewDB(t)
	seen := useDB(t, db)

	out, err := execute(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	_, err = execute(t, "migrate", "status")
	assert.ErrorIs(t, err, database.ErrUnsupportedDialect)

	for _, opts := range *seen {
		assert.Equal(t, bootstrap.Options{SkipRedis: true, SkipSchema: true}, opts)
	}
}
