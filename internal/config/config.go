package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HuggingFaceConfig holds generation-service settings.
type HuggingFaceConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Config holds all application configuration.
type Config struct {
	ListenAddr  string            `yaml:"listen_addr"`
	DBPath      string            `yaml:"db_path"`
	HuggingFace HuggingFaceConfig `yaml:"huggingface"`
}

// Load builds configuration from defaults, an optional YAML file named by
// CONFIG_PATH, and environment overrides, in that order.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr: ":8100",
		DBPath:     "agentdesk.db",
		HuggingFace: HuggingFaceConfig{
			BaseURL:        "https://router.huggingface.co/v1",
			TimeoutSeconds: 60,
		},
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if key := os.Getenv("HUGGINGFACE_API_KEY"); key != "" {
		cfg.HuggingFace.APIKey = key
	}
	if baseURL := os.Getenv("HUGGINGFACE_BASE_URL"); baseURL != "" {
		cfg.HuggingFace.BaseURL = baseURL
	}

	return cfg, nil
}
