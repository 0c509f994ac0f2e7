package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.Burst == 0 {
		cfg.Server.Burst = int(cfg.Server.RateLimit) + 1
	}
	if cfg.Vectors.Format == "" {
		cfg.Vectors.Format = "auto"
	}
	if cfg.ObjectStore.Endpoint == "" {
		cfg.ObjectStore.Endpoint = "s3.amazonaws.com"
	}
	if cfg.Storage.SnapshotPath == "" {
		cfg.Storage.SnapshotPath = "/usr/local/var/wordspace/data/db/space.db"
	}
	if cfg.Vocabulary.MaxEditDistance == 0 {
		cfg.Vocabulary.MaxEditDistance = 2
	}
	if cfg.Vocabulary.MaxSuggestions == 0 {
		cfg.Vocabulary.MaxSuggestions = 5
	}
	if cfg.Query.DefaultN == 0 {
		cfg.Query.DefaultN = 10
	}
	if cfg.Query.MaxN == 0 {
		cfg.Query.MaxN = 1000
	}
	if cfg.Query.ProjectionFactor == 0 {
		cfg.Query.ProjectionFactor = 1.0
	}
	if cfg.Query.Workers == 0 {
		cfg.Query.Workers = 1
	}
	if cfg.Query.ResolveCacheSize == 0 {
		cfg.Query.ResolveCacheSize = 4096
	}
}

// Default returns a config with every default applied, for running without a
// config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
