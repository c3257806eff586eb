// Package config loads irisbridge configuration from a YAML file with
// credential overrides from the environment (a .env file is honored).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names recognized as overrides. Credentials belong
// in the environment or .env, not in the YAML file.
const (
	EnvFalconClientID     = "FALCON_CLIENT_ID"
	EnvFalconClientSecret = "FALCON_CLIENT_SECRET"
	EnvFalconRegion       = "FALCON_CLOUD_REGION"
	EnvIrisBaseURL        = "IRIS_BASE_URL"
	EnvIrisAPIKey         = "IRIS_API_KEY"
	EnvIrisCustomerID     = "IRIS_CUSTOMER_ID"
)

// Config is the full irisbridge configuration.
type Config struct {
	Falcon  FalconConfig  `yaml:"falcon"`
	IRIS    IRISConfig    `yaml:"iris"`
	History HistoryConfig `yaml:"history"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// FalconConfig contains vendor API settings.
type FalconConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Region       string `yaml:"region"` // e.g. "us-1", "us-2", "eu-1"
}

// IRISConfig contains sink settings.
type IRISConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	CustomerID    int    `yaml:"customer_id"`
	SkipTLSVerify bool   `yaml:"skip_tls_verify"` // for self-signed IRIS deployments
}

// HistoryConfig controls the dispatch audit store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MetricsConfig controls the watch-mode metrics server.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load loads configuration: .env (if present), then the YAML file (if a
// path is given), then environment overrides on top.
func Load(path string) (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()
	return cfg, nil
}

// Default returns a configuration built from defaults and environment only.
func Default() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.setDefaults()
	return cfg
}

// applyEnv overlays environment variables onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvFalconClientID); v != "" {
		c.Falcon.ClientID = v
	}
	if v := os.Getenv(EnvFalconClientSecret); v != "" {
		c.Falcon.ClientSecret = v
	}
	if v := os.Getenv(EnvFalconRegion); v != "" {
		c.Falcon.Region = v
	}
	if v := os.Getenv(EnvIrisBaseURL); v != "" {
		c.IRIS.BaseURL = v
	}
	if v := os.Getenv(EnvIrisAPIKey); v != "" {
		c.IRIS.APIKey = v
	}
	if v := os.Getenv(EnvIrisCustomerID); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			c.IRIS.CustomerID = id
		}
	}
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Falcon.Region == "" {
		c.Falcon.Region = "us-1"
	}
	if c.History.Path == "" {
		c.History.Path = "irisbridge-history.db"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9182"
	}
}

// ValidateFalcon checks that the vendor side is usable.
func (c *Config) ValidateFalcon() error {
	if c.Falcon.ClientID == "" {
		return fmt.Errorf("falcon client id is required (set %s or falcon.client_id)", EnvFalconClientID)
	}
	if c.Falcon.ClientSecret == "" {
		return fmt.Errorf("falcon client secret is required (set %s or falcon.client_secret)", EnvFalconClientSecret)
	}
	if c.Falcon.Region == "" {
		return fmt.Errorf("falcon cloud region is required (set %s or falcon.region)", EnvFalconRegion)
	}
	return nil
}

// ValidateIRIS checks that the sink side is usable.
func (c *Config) ValidateIRIS() error {
	if c.IRIS.BaseURL == "" {
		return fmt.Errorf("iris base URL is required (set %s or iris.base_url)", EnvIrisBaseURL)
	}
	if c.IRIS.APIKey == "" {
		return fmt.Errorf("iris API key is required (set %s or iris.api_key)", EnvIrisAPIKey)
	}
	return nil
}
