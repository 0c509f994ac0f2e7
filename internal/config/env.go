package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads a .env file from the working directory if there is one.
// Variables already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// ApplyEnv overrides cfg with WORDSPACE_* environment variables.
func ApplyEnv(cfg *Config) error {
	cfg.Vectors.Path = getEnv("WORDSPACE_VECTORS", cfg.Vectors.Path)
	cfg.Vectors.Format = getEnv("WORDSPACE_FORMAT", cfg.Vectors.Format)
	cfg.Server.Host = getEnv("WORDSPACE_HOST", cfg.Server.Host)
	cfg.Storage.SnapshotPath = getEnv("WORDSPACE_SNAPSHOT", cfg.Storage.SnapshotPath)
	cfg.ObjectStore.Endpoint = getEnv("WORDSPACE_S3_ENDPOINT", cfg.ObjectStore.Endpoint)
	cfg.ObjectStore.AccessKey = getEnv("WORDSPACE_S3_ACCESS_KEY", cfg.ObjectStore.AccessKey)
	cfg.ObjectStore.SecretKey = getEnv("WORDSPACE_S3_SECRET_KEY", cfg.ObjectStore.SecretKey)
	cfg.ObjectStore.Region = getEnv("WORDSPACE_S3_REGION", cfg.ObjectStore.Region)

	var err error
	if cfg.Server.Port, err = getEnvInt("WORDSPACE_PORT", cfg.Server.Port); err != nil {
		return err
	}
	if cfg.Vectors.Limit, err = getEnvInt("WORDSPACE_LIMIT", cfg.Vectors.Limit); err != nil {
		return err
	}
	if cfg.Query.Workers, err = getEnvInt("WORDSPACE_WORKERS", cfg.Query.Workers); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("WORDSPACE_DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid WORDSPACE_DEBUG: %w", err)
		}
		cfg.Debug = b
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
