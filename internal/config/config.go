package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	MigrationsURL  string
	ServerPort     int
	ChallengeFile  string
	LogLevel       logrus.Level

	Archive ArchiveConfig
}

// ArchiveConfig points at an S3 compatible bucket. Archiving is off when
// Bucket is empty.
type ArchiveConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// Load reads the configuration from the environment, after loading a .env
// file when there is one.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:    getEnv("DATABASE_URL", "h2h_playoffs.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"),
		MigrationsURL:  getEnv("MIGRATIONS_URL", "file://migrations"),
		ChallengeFile:  getEnv("CHALLENGE_FILE", "challenge.yaml"),
		Archive: ArchiveConfig{
			Bucket:          os.Getenv("ARCHIVE_BUCKET"),
			Endpoint:        os.Getenv("ARCHIVE_ENDPOINT"),
			Region:          getEnv("ARCHIVE_REGION", "auto"),
			AccessKeyID:     os.Getenv("ARCHIVE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("ARCHIVE_SECRET_ACCESS_KEY"),
		},
	}

	switch cfg.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q, use sqlite3 or postgres", cfg.DatabaseDriver)
	}

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
	}
	cfg.LogLevel = level

	if cfg.Archive.Enabled() && (cfg.Archive.AccessKeyID == "" || cfg.Archive.SecretAccessKey == "") {
		return nil, fmt.Errorf("ARCHIVE_BUCKET is set but archive credentials are missing")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
