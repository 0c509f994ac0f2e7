// Package config provides configuration loading and structs for the wordspace server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool              `yaml:"debug"`
	Server      ServerConfig      `yaml:"server"`
	Vectors     VectorsConfig     `yaml:"vectors"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	Storage     StorageConfig     `yaml:"storage"`
	Vocabulary  VocabularyConfig  `yaml:"vocabulary"`
	Query       QueryConfig       `yaml:"query"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// RateLimit is the sustained number of queries per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// VectorsConfig describes where the embedding space is loaded from.
type VectorsConfig struct {
	// Path is a local file or an s3://bucket/key object.
	Path string `yaml:"path"`
	// Format is one of auto, text, binary or sqlite.
	Format string `yaml:"format"`
	// Limit caps the number of words read; 0 reads all.
	Limit int `yaml:"limit"`
	// Fraction reads this share of the words announced by the file header.
	Fraction float64 `yaml:"fraction"`
	// Watch reloads the space when a local vectors file changes.
	Watch bool `yaml:"watch"`
}

// ObjectStoreConfig holds credentials for s3:// vector sources.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    *bool  `yaml:"use_ssl"`
	Region    string `yaml:"region"`
}

// UseSSLOrDefault returns whether to use TLS; defaults to true when unset.
func (o *ObjectStoreConfig) UseSSLOrDefault() bool {
	if o.UseSSL != nil {
		return *o.UseSSL
	}
	return true
}

// StorageConfig holds the snapshot database path.
type StorageConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
}

// VocabularyConfig holds autocomplete and suggestion settings.
type VocabularyConfig struct {
	IndexEnabled    bool   `yaml:"index_enabled"`
	IndexPath       string `yaml:"index_path"`
	MaxEditDistance int    `yaml:"max_edit_distance"`
	MaxSuggestions  int    `yaml:"max_suggestions"`
}

// QueryConfig holds ranking settings.
type QueryConfig struct {
	DefaultN         int     `yaml:"default_n"`
	MaxN             int     `yaml:"max_n"`
	ProjectionFactor float64 `yaml:"projection_factor"`
	Workers          int     `yaml:"workers"`
	ResolveCacheSize int     `yaml:"resolve_cache_size"`
}

// Load reads and parses the config file at path, applies environment
// overrides, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	if !isObjectURL(cfg.Vectors.Path) {
		cfg.Vectors.Path = expandPath(cfg.Vectors.Path, configDir)
	}
	cfg.Storage.SnapshotPath = expandPath(cfg.Storage.SnapshotPath, configDir)
	cfg.Vocabulary.IndexPath = expandPath(cfg.Vocabulary.IndexPath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

func isObjectURL(path string) bool {
	return strings.HasPrefix(path, "s3://")
}
