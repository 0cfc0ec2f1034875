package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/yegors/co-france/pkg/logger"
)

// Config is the top-level configuration read from a TOML file
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Logging logger.Config `toml:"logging"`
	Storage StorageConfig `toml:"storage"`
	Gateway GatewayConfig `toml:"gateway"`
	Gate    GateConfig    `toml:"gate"`
	Oceanic OceanicConfig `toml:"oceanic"`
	Plugin  PluginConfig  `toml:"plugin"`
}

// ServerConfig configures the host bridge HTTP server
type ServerConfig struct {
	Addr               string   `toml:"addr"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
}

// StorageConfig selects the tag sink backend. An empty SQLitePath keeps
// tag values in memory.
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path"`
}

// GatewayConfig is shared by both external service clients
type GatewayConfig struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// GateConfig configures the gate assignment reconciler
type GateConfig struct {
	Enabled                bool   `toml:"enabled"`
	APIBaseURL             string `toml:"api_base_url"`
	PollingIntervalSeconds int    `toml:"polling_interval_seconds"`
	MaxAltitudeFt          int    `toml:"max_altitude_ft"`
}

// OceanicConfig configures the oceanic clearance reconciler
type OceanicConfig struct {
	Enabled                bool   `toml:"enabled"`
	APIBaseURL             string `toml:"api_base_url"`
	PollingIntervalSeconds int    `toml:"polling_interval_seconds"`
}

// PluginConfig controls the plugin lifecycle
type PluginConfig struct {
	ConnectOnStart bool `toml:"connect_on_start"`
}

// Default returns the configuration used for any key the file omits
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: logger.Config{
			Level:  "info",
			Format: "console",
		},
		Gateway: GatewayConfig{
			TimeoutSeconds: 10,
			UserAgent:      "CoFrance/1.0",
		},
		Gate: GateConfig{
			Enabled:                true,
			APIBaseURL:             "http://fire-ops.ew.r.appspot.com",
			PollingIntervalSeconds: 30,
			MaxAltitudeFt:          3000,
		},
		Oceanic: OceanicConfig{
			Enabled:                true,
			APIBaseURL:             "https://nattrak.vatsim.net",
			PollingIntervalSeconds: 60,
		},
	}
}

// Load reads the TOML file at path on top of Default and validates it
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise break a poller or client
func (c *Config) Validate() error {
	if c.Gateway.TimeoutSeconds <= 0 {
		return fmt.Errorf("gateway.timeout_seconds must be positive")
	}
	if c.Gate.Enabled {
		if err := validateBaseURL("gate.api_base_url", c.Gate.APIBaseURL); err != nil {
			return err
		}
		if c.Gate.PollingIntervalSeconds <= 0 {
			return fmt.Errorf("gate.polling_interval_seconds must be positive")
		}
		if c.Gate.MaxAltitudeFt <= 0 {
			return fmt.Errorf("gate.max_altitude_ft must be positive")
		}
	}
	if c.Oceanic.Enabled {
		if err := validateBaseURL("oceanic.api_base_url", c.Oceanic.APIBaseURL); err != nil {
			return err
		}
		if c.Oceanic.PollingIntervalSeconds <= 0 {
			return fmt.Errorf("oceanic.polling_interval_seconds must be positive")
		}
	}
	return nil
}

// Timeout returns the gateway timeout as a duration
func (c GatewayConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func validateBaseURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", key)
	}
	return nil
}
