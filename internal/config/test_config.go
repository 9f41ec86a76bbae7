package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:    ":memory:", // Use in-memory database for tests
			Timeout: 1 * time.Second,
		},
		Server: ServerConfig{
			Listen:  ":0",
			BaseURL: "http://localhost",
		},
		AI: AIConfig{
			Timeout: 5 * time.Second,
		},
		Ingest: IngestConfig{
			HTTPTimeout: 5 * time.Second,
			UserAgent:   "khabar-test/1.0",
		},
		UI:   defaultConfig().UI,
		Keys: defaultConfig().Keys,
	}
}
