// Package clientconfig loads the CLI's YAML configuration file.
package clientconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the client-side configuration. The session token lives here
// too; the CLI has no platform keychain.
type Config struct {
	GatewayURL     string `yaml:"gateway_url"`
	Token          string `yaml:"token,omitempty"`
	BypassPassword string `yaml:"bypass_password,omitempty"`
	StorePath      string `yaml:"store_path,omitempty"`
	Timezone       string `yaml:"timezone,omitempty"`
	Debug          bool   `yaml:"debug,omitempty"`
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".voxtodo"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file, applying defaults for anything unset. A
// missing file yields a default config rather than an error.
func Load(path string) (*Config, error) {
	cfg := &Config{
		GatewayURL: "http://localhost:8080",
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		applyDefaults(cfg, path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg, path)
	return cfg, nil
}

func applyDefaults(cfg *Config, path string) {
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = "http://localhost:8080"
	}
	if cfg.StorePath == "" {
		cfg.StorePath = filepath.Join(filepath.Dir(path), "store.json")
	}
}

// Save writes the config back to disk.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
