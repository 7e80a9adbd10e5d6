package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_DRIVER", "DATABASE_URL", "SERVER_PORT", "LOG_LEVEL", "ARCHIVE_BUCKET", "ARCHIVE_REGION"} {
		t.Setenv(key, "")
	}

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.DatabaseDriver)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "file://migrations", cfg.MigrationsURL)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "auto", cfg.Archive.Region)
	assert.False(t, cfg.Archive.Enabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://playoffs@localhost/playoffs?sslmode=disable")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ARCHIVE_BUCKET", "brackets")
	t.Setenv("ARCHIVE_ACCESS_KEY_ID", "key")
	t.Setenv("ARCHIVE_SECRET_ACCESS_KEY", "secret")

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.True(t, cfg.Archive.Enabled())
}

func TestFromEnvErrors(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"DATABASE_DRIVER": "mysql"}},
		{name: "port not a number", env: map[string]string{"SERVER_PORT": "eighty"}},
		{name: "port out of range", env: map[string]string{"SERVER_PORT": "70000"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "chatty"}},
		{name: "archive without credentials", env: map[string]string{"ARCHIVE_BUCKET": "brackets", "ARCHIVE_ACCESS_KEY_ID": ""}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := fromEnv()
			assert.Error(t, err)
		})
	}
}
