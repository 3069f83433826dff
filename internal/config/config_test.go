package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                  "development",
		JWTSecret:            "secure-secret-at-least-32-chars-long",
		AccessTokenTTLMin:    15,
		RefreshTokenTTLHours: 168,
		Port:                 "8000",
		DBDriver:             "postgres",
		DBPassword:           "secure-password",
		DBSSLMode:            "require",
		MediaBackend:         MediaBackendLocal,
		MediaLocalDir:        "/tmp/twitt",
		MediaMaxUploadSizeMB: 10,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"zero access ttl", func(c *Config) { c.AccessTokenTTLMin = 0 }, true},
		{"zero refresh ttl", func(c *Config) { c.RefreshTokenTTLHours = 0 }, true},
		{"unknown db driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"sqlite in development", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"unknown media backend", func(c *Config) { c.MediaBackend = "ftp" }, true},
		{"s3 without bucket", func(c *Config) { c.MediaBackend = MediaBackendS3 }, true},
		{"s3 complete", func(c *Config) {
			c.MediaBackend = MediaBackendS3
			c.S3Bucket = "posts"
			c.S3AccessKeyID = "key"
			c.S3SecretAccessKey = "secret"
			c.MediaPublicURL = "https://cdn.example.com"
		}, false},
		{"production default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "your-secret-key-change-in-production"
		}, true},
		{"production short secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}, true},
		{"production sqlite", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
		}, true},
		{"production disabled ssl", func(c *Config) {
			c.Env = "prod"
			c.DBSSLMode = "disable"
		}, true},
		{"production weak db password", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "password"
		}, true},
		{"production complete", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_NormalizesEnvironment(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("MEDIA_BACKEND", " Local ")
	t.Setenv("MEDIA_PUBLIC_URL", "https://cdn.example.com/")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, MediaBackendLocal, c.MediaBackend)
	assert.Equal(t, "https://cdn.example.com", c.MediaPublicURL)
	assert.Equal(t, 15, c.AccessTokenTTLMin)
	assert.False(t, c.IsProduction())
}
