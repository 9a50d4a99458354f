package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mindlabs/gomarket/pkg/logger"
)

type Config struct {
	Listen       string `yaml:"listen"`
	DBPath       string `yaml:"db_path"`
	ReceiptsPath string `yaml:"receipts_path"`
	// AllowFunding enables the faucet endpoint for local runs and tests.
	AllowFunding bool          `yaml:"allow_funding"`
	Log          logger.Config `yaml:"log"`
}

func defaults() Config {
	return Config{
		Listen:       ":8080",
		DBPath:       "data/marketd.db",
		ReceiptsPath: "data/receipts",
		Log: logger.Config{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     14,
		},
	}
}

// Load reads the YAML config file (optional) and applies MARKETD_*
// environment overrides on top.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MARKETD_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("MARKETD_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("MARKETD_RECEIPTS"); v != "" {
		cfg.ReceiptsPath = v
	}
	if v := os.Getenv("MARKETD_ALLOW_FUNDING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AllowFunding = b
		}
	}
	if v := os.Getenv("MARKETD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MARKETD_LOG_FILE"); v != "" {
		cfg.Log.OutputFile = v
	}
}
