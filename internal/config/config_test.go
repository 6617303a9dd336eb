package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:        "development",
		Port:       "8080",
		JWTSecret:  "secure-secret-at-least-32-chars-long",
		JWTTTL:     24 * time.Hour,
		BcryptCost: 10,
		DBDriver:   "postgres",
		DBPassword: "secure-password",
		DBSSLMode:  "require",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with disable SSL mode", "prod", "disable", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing port", func(c *Config) { c.Port = "" }, "PORT is required"},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET is required"},
		{"zero ttl", func(c *Config) { c.JWTTTL = 0 }, "JWT_TTL"},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 1 }, "BCRYPT_COST"},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"sqlite driver", func(c *Config) { c.DBDriver = "sqlite" }, ""},
		{"auto schema mode", func(c *Config) { c.DBSchemaMode = "auto" }, ""},
		{"unknown schema mode", func(c *Config) { c.DBSchemaMode = "hybrid" }, "DB_SCHEMA_MODE"},
		{"production auto schema mode", func(c *Config) {
			c.Env = "production"
			c.DBSchemaMode = "auto"
		}, "DB_SCHEMA_MODE=auto"},
		{"production default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, "changed from the default"},
		{"production short secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}, "at least 32 characters"},
		{"production weak db password", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "password"
		}, "DB_PASSWORD"},
		{"production low bcrypt cost", func(c *Config) {
			c.Env = "production"
			c.BcryptCost = 4
		}, "BCRYPT_COST"},
		{"production sqlite skips db checks", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
			c.DBPassword = ""
			c.DBSSLMode = ""
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig_SSLModeNormalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("API_PREFIX", "api/v2/")
	t.Setenv("DB_DRIVER", "SQLite")
	defer viper.Reset()

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, c.JWTTTL)
	assert.Equal(t, 4, c.BcryptCost)
	assert.Equal(t, "/api/v2", c.APIPrefix)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.False(t, c.IsProduction())
}
