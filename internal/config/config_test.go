package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParseEnv(t *testing.T) {
	tests := []struct {
		in   string
		want Environment
	}{
		{"test", EnvTest},
		{"TEST", EnvTest},
		{"prod", EnvProduction},
		{"production", EnvProduction},
		{"dev", EnvDevelopment},
		{"", EnvDevelopment},
		{"staging", EnvDevelopment},
	}
	for _, tt := range tests {
		if got := parseEnv(tt.in); got != tt.want {
			t.Errorf("parseEnv(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.OTPTTL != 5*time.Minute {
		t.Errorf("OTPTTL = %v, want 5m", cfg.Auth.OTPTTL)
	}
	if cfg.RateLimit.Max != 20 || cfg.RateLimit.Window != 15*time.Minute {
		t.Errorf("RateLimit = %+v, want {20 15m}", cfg.RateLimit)
	}
	if cfg.Limits.BulkMax != 100 || cfg.Limits.ListMax != 100 || cfg.Limits.ActivityLimitDefault != 20 {
		t.Errorf("Limits = %+v, want {100 100 20}", cfg.Limits)
	}
	if cfg.Driver != "mongodb" {
		t.Errorf("Driver = %q, want mongodb", cfg.Driver)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Driver: "mongodb"}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() without JWT secret = nil, want error")
	}

	cfg.Auth.JWTSecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	cfg.Driver = "oracle"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with unsupported driver = nil, want error")
	}
}

func TestDurationYAML(t *testing.T) {
	var cfg YAMLConfig
	data := []byte("auth:\n  token_ttl: 24h\n  otp_ttl: 5m\nrate_limit:\n  max: 20\n  window: 15m\n")
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if time.Duration(cfg.Auth.TokenTTL) != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", time.Duration(cfg.Auth.TokenTTL))
	}
	if time.Duration(cfg.RateLimit.Window) != 15*time.Minute {
		t.Errorf("Window = %v, want 15m", time.Duration(cfg.RateLimit.Window))
	}

	if err := yaml.Unmarshal([]byte("auth:\n  token_ttl: nonsense\n"), &cfg); err == nil {
		t.Error("Unmarshal with bad duration = nil, want error")
	}
}

func TestMaskPassword(t *testing.T) {
	got := maskPassword("postgres://app:hunter2@db:5432/recipes")
	want := "postgres://app:***@db:5432/recipes"
	if got != want {
		t.Errorf("maskPassword = %q, want %q", got, want)
	}

	// 无凭据的 URI 原样返回
	plain := "mongodb://localhost:27017"
	if got := maskPassword(plain); got != plain {
		t.Errorf("maskPassword(%q) = %q, want unchanged", plain, got)
	}
}
