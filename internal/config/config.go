package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings for the storefront client.
type Config struct {
	API     APIConfig   `yaml:"api"`
	Store   StoreConfig `yaml:"store"`
	LogLvl  string      `yaml:"log_level"`
	AppName string      `yaml:"app_name"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	// DataDir is where the file-backed local store keeps its keys
	// (shopping cart, session, wishlist).
	DataDir string `yaml:"data_dir"`
	// RedisAddr switches persistence to Redis when non-empty.
	RedisAddr string `yaml:"redis_addr"`
}

// Load reads the YAML config file at path (a missing file is fine), applies
// defaults and finally environment variable overrides. A .env file is
// honoured if present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	return cfg, nil
}

func applyDefaults(cfg Config) Config {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:3000/api/v1"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.Store.DataDir == "" {
		cfg.Store.DataDir = "./data"
	}
	if cfg.LogLvl == "" {
		cfg.LogLvl = "info"
	}
	if cfg.AppName == "" {
		cfg.AppName = "Tienda"
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("API_URL"); val != "" {
		cfg.API.BaseURL = val
	}
	if val := os.Getenv("API_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.API.Timeout = d
		}
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		cfg.Store.DataDir = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Store.RedisAddr = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.LogLvl = val
	}
	return cfg
}
