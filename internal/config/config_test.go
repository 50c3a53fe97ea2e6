package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(env, sslMode string) *Config {
	return &Config{
		Env:          env,
		DBDriver:     "postgres",
		DBSSLMode:    sslMode,
		JWTSecret:    "secure-secret-at-least-32-chars-long",
		DBPassword:   "secure-password",
		Port:         "8080",
		RedisURL:     "redis://localhost:6379",
		PublicOrigin: "https://wayfarer.example",
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
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validConfig(tt.env, tt.sslMode).Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateDriverAndOrigin(t *testing.T) {
	c := validConfig("development", "disable")
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())

	c = validConfig("development", "disable")
	c.DBDriver = "sqlite"
	assert.NoError(t, c.Validate())

	c = validConfig("development", "disable")
	c.PublicOrigin = ""
	assert.Error(t, c.Validate())
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer viper.Reset()
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("PUBLIC_ORIGIN")

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("PUBLIC_ORIGIN", "https://wayfarer.example/")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "https://wayfarer.example", c.PublicOrigin)
	assert.Equal(t, "postgres", c.DBDriver)
}
