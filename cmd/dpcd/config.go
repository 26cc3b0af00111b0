// config.go - Daemon configuration.
package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is the daemon configuration, read from YAML.
type Config struct {
	// Node identity and network
	NodeID     string            `yaml:"node_id"`
	ListenAddr string            `yaml:"listen_addr"`
	OpsAddr    string            `yaml:"ops_addr"`
	Peers      map[string]string `yaml:"peers"`

	// Scheme arity
	NumInputRecords  int `yaml:"num_input_records"`
	NumOutputRecords int `yaml:"num_output_records"`

	// File paths
	LedgerPath string `yaml:"ledger_path"`
	ParamsPath string `yaml:"params_path"`
	WalletPath string `yaml:"wallet_path"`

	// Logging
	LogLevel    string `yaml:"log_level"`
	Development bool   `yaml:"development"`

	// Rate limiting
	RateLimitTokens int           `yaml:"rate_limit_tokens"`
	RateLimitRefill time.Duration `yaml:"rate_limit_refill"`
}

// DefaultConfig returns a single-node devnet configuration.
func DefaultConfig() *Config {
	return &Config{
		NodeID:           "node1",
		ListenAddr:       "127.0.0.1:7700",
		OpsAddr:          "127.0.0.1:7701",
		Peers:            map[string]string{},
		NumInputRecords:  2,
		NumOutputRecords: 2,
		LedgerPath:       "data/ledger",
		ParamsPath:       "data/params.json",
		WalletPath:       "data/wallet.json",
		LogLevel:         "info",
		Development:      true,
		RateLimitTokens:  20,
		RateLimitRefill:  time.Second,
	}
}

// LoadConfig reads the configuration at path, writing the defaults there
// first if the file does not exist.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		cfg := DefaultConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "decode config")
		}
		return cfg, nil
	}

	cfg := DefaultConfig()
	if err := SaveConfig(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes the configuration to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write config")
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return errors.New("node_id must be set")
	}
	if c.ListenAddr == "" {
		return errors.New("listen_addr must be set")
	}
	if c.NumInputRecords <= 0 {
		return errors.New("num_input_records must be positive")
	}
	if c.NumOutputRecords <= 0 {
		return errors.New("num_output_records must be positive")
	}
	if c.RateLimitTokens <= 0 {
		return errors.New("rate_limit_tokens must be positive")
	}
	if c.RateLimitRefill <= 0 {
		return errors.New("rate_limit_refill must be positive")
	}
	return nil
}
