package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

type fileConfig struct {
	OperatorPubKey    string   `yaml:"operator_pubkey"`
	Relays            []string `yaml:"relays"`
	DataDir           string   `yaml:"data_dir"`
	LogLevel          string   `yaml:"log_level"`
	LogFormat         string   `yaml:"log_format"`
	LookbackWindow    string   `yaml:"lookback_window"`
	SubscriptionLimit int      `yaml:"subscription_limit"`
	RedrawInterval    string   `yaml:"redraw_interval"`
	PublishTimeout    string   `yaml:"publish_timeout"`
}

type Config struct {
	OperatorPubKey    string
	Relays            []string
	DataDir           string
	LogLevel          string
	LogFormat         string
	LookbackWindow    time.Duration
	SubscriptionLimit int
	RedrawInterval    time.Duration
	PublishTimeout    time.Duration
}

// DBPath is where the identity record lives.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "taker.db")
}

// DefaultPath is ~/.taker/settings.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "settings.yaml"
	}
	return filepath.Join(home, ".taker", "settings.yaml")
}

func Load(configPath string) (Config, error) {
	cfg := defaultConfig()
	if strings.TrimSpace(configPath) != "" {
		if err := applyYAMLConfig(&cfg, configPath); err != nil {
			return Config{}, err
		}
	}
	applyEnvOverrides(&cfg)
	if err := normalizeAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:           filepath.Join(home, ".taker"),
		LogLevel:          "info",
		LogFormat:         "console",
		LookbackWindow:    7 * 24 * time.Hour,
		SubscriptionLimit: 20,
		RedrawInterval:    50 * time.Millisecond,
		PublishTimeout:    15 * time.Second,
	}
}

func applyYAMLConfig(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse yaml config: %w", err)
	}
	if v := strings.TrimSpace(fc.OperatorPubKey); v != "" {
		cfg.OperatorPubKey = v
	}
	if len(fc.Relays) > 0 {
		cfg.Relays = append([]string(nil), fc.Relays...)
	}
	if v := strings.TrimSpace(fc.DataDir); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(fc.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(fc.LogFormat); v != "" {
		cfg.LogFormat = v
	}
	if v := strings.TrimSpace(fc.LookbackWindow); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid lookback_window in yaml: %w", err)
		}
		cfg.LookbackWindow = d
	}
	if fc.SubscriptionLimit > 0 {
		cfg.SubscriptionLimit = fc.SubscriptionLimit
	}
	if v := strings.TrimSpace(fc.RedrawInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid redraw_interval in yaml: %w", err)
		}
		cfg.RedrawInterval = d
	}
	if v := strings.TrimSpace(fc.PublishTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid publish_timeout in yaml: %w", err)
		}
		cfg.PublishTimeout = d
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("TAKER_OPERATOR_PUBKEY")); v != "" {
		cfg.OperatorPubKey = v
	}
	if v := strings.TrimSpace(os.Getenv("TAKER_RELAYS")); v != "" {
		parts := strings.Split(v, ",")
		relays := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				relays = append(relays, p)
			}
		}
		if len(relays) > 0 {
			cfg.Relays = relays
		}
	}
	if v := strings.TrimSpace(os.Getenv("TAKER_DATA_DIR")); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("TAKER_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
}

func normalizeAndValidate(cfg *Config) error {
	cfg.OperatorPubKey = strings.ToLower(strings.TrimSpace(cfg.OperatorPubKey))
	if cfg.OperatorPubKey == "" {
		return fmt.Errorf("operator_pubkey is required")
	}
	if raw, err := hex.DecodeString(cfg.OperatorPubKey); err != nil || len(raw) != 32 {
		return fmt.Errorf("operator_pubkey must be 64 hex chars")
	}
	if len(cfg.Relays) == 0 {
		return fmt.Errorf("at least one relay is required")
	}
	for _, r := range cfg.Relays {
		if !strings.HasPrefix(r, "ws://") && !strings.HasPrefix(r, "wss://") {
			return fmt.Errorf("relay %q must be a ws:// or wss:// url", r)
		}
	}
	if cfg.RedrawInterval <= 0 {
		return fmt.Errorf("redraw_interval must be positive")
	}
	if cfg.PublishTimeout <= 0 {
		return fmt.Errorf("publish_timeout must be positive")
	}
	return nil
}
