package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
falcon:
  client_id: abc123
  client_secret: shh
  region: eu-1
iris:
  base_url: https://iris.example.org
  api_key: iris-key
  customer_id: 7
  skip_tls_verify: true
history:
  enabled: true
  path: /var/lib/irisbridge/history.db
metrics:
  addr: ":9000"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Falcon.ClientID != "abc123" || cfg.Falcon.Region != "eu-1" {
		t.Errorf("Falcon = %+v", cfg.Falcon)
	}
	if cfg.IRIS.BaseURL != "https://iris.example.org" || cfg.IRIS.CustomerID != 7 || !cfg.IRIS.SkipTLSVerify {
		t.Errorf("IRIS = %+v", cfg.IRIS)
	}
	if !cfg.History.Enabled || cfg.History.Path != "/var/lib/irisbridge/history.db" {
		t.Errorf("History = %+v", cfg.History)
	}
	if cfg.Metrics.Addr != ":9000" {
		t.Errorf("Metrics.Addr = %q", cfg.Metrics.Addr)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Falcon.Region != "us-1" {
		t.Errorf("default region = %q, want us-1", cfg.Falcon.Region)
	}
	if cfg.History.Path != "irisbridge-history.db" {
		t.Errorf("default history path = %q", cfg.History.Path)
	}
	if cfg.Metrics.Addr != ":9182" {
		t.Errorf("default metrics addr = %q", cfg.Metrics.Addr)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
falcon:
  client_id: from-yaml
  client_secret: from-yaml
iris:
  base_url: https://yaml.example.org
  api_key: from-yaml
  customer_id: 1
`)

	t.Setenv(EnvFalconClientID, "from-env")
	t.Setenv(EnvIrisBaseURL, "https://env.example.org")
	t.Setenv(EnvIrisCustomerID, "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Falcon.ClientID != "from-env" {
		t.Errorf("ClientID = %q, want env value", cfg.Falcon.ClientID)
	}
	if cfg.Falcon.ClientSecret != "from-yaml" {
		t.Errorf("ClientSecret = %q, yaml value should survive", cfg.Falcon.ClientSecret)
	}
	if cfg.IRIS.BaseURL != "https://env.example.org" {
		t.Errorf("BaseURL = %q, want env value", cfg.IRIS.BaseURL)
	}
	if cfg.IRIS.CustomerID != 42 {
		t.Errorf("CustomerID = %d, want 42", cfg.IRIS.CustomerID)
	}
}

func TestEnvCustomerIDNotNumeric(t *testing.T) {
	t.Setenv(EnvIrisCustomerID, "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IRIS.CustomerID != 0 {
		t.Errorf("CustomerID = %d, want 0 for a non-numeric override", cfg.IRIS.CustomerID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "falcon: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestValidateFalcon(t *testing.T) {
	tests := []struct {
		name    string
		falcon  FalconConfig
		wantErr bool
	}{
		{"complete", FalconConfig{ClientID: "a", ClientSecret: "b", Region: "us-1"}, false},
		{"missing id", FalconConfig{ClientSecret: "b", Region: "us-1"}, true},
		{"missing secret", FalconConfig{ClientID: "a", Region: "us-1"}, true},
		{"missing region", FalconConfig{ClientID: "a", ClientSecret: "b"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Falcon: tt.falcon}
			err := cfg.ValidateFalcon()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFalcon() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateIRIS(t *testing.T) {
	tests := []struct {
		name    string
		iris    IRISConfig
		wantErr bool
	}{
		{"complete", IRISConfig{BaseURL: "https://iris.example.org", APIKey: "k"}, false},
		{"missing url", IRISConfig{APIKey: "k"}, true},
		{"missing key", IRISConfig{BaseURL: "https://iris.example.org"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{IRIS: tt.iris}
			err := cfg.ValidateIRIS()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIRIS() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
