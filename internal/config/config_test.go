package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig returns a configuration that passes validation.
func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Panel.Username = "panda"
	cfg.Panel.Password = "secret"

	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Panel.BaseURL != "https://vps.polarbear.nyc.mn" {
		t.Errorf("BaseURL = %q", cfg.Panel.BaseURL)
	}

	if cfg.Renewal.SuccessMarker == "" {
		t.Error("SuccessMarker must have a default")
	}

	if cfg.Renewal.Confirm.MaxAttempts != 3 {
		t.Errorf("Confirm.MaxAttempts = %d, want 3", cfg.Renewal.Confirm.MaxAttempts)
	}

	if cfg.Renewal.Confirm.InitialDelayMs != 3000 {
		t.Errorf("Confirm.InitialDelayMs = %d, want 3000", cfg.Renewal.Confirm.InitialDelayMs)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	yamlContent := `
panel:
  base_url: "https://panel.example.com"
  username: "panda"
  password: "secret"
renewal:
  confirm:
    max_attempts: 5
`

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Panel.BaseURL != "https://panel.example.com" {
		t.Errorf("BaseURL = %q, want file value", cfg.Panel.BaseURL)
	}

	if cfg.Renewal.Confirm.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.Renewal.Confirm.MaxAttempts)
	}

	// Untouched sections keep defaults.
	if cfg.Panel.TimeoutSec != 60 {
		t.Errorf("TimeoutSec = %d, want default 60", cfg.Panel.TimeoutSec)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfig_EnvironmentWins(t *testing.T) {
	t.Setenv("ARCTIC_USERNAME", "env-user")
	t.Setenv("ARCTIC_PASSWORD", "env-pass")
	t.Setenv("SOCKS5_PROXY", "socks5://127.0.0.1:1080")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Panel.Username != "env-user" || cfg.Panel.Password != "env-pass" {
		t.Errorf("credentials = %q/%q, want env values", cfg.Panel.Username, cfg.Panel.Password)
	}

	if cfg.Panel.ProxyURL != "socks5://127.0.0.1:1080" {
		t.Errorf("ProxyURL = %q, want env value", cfg.Panel.ProxyURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.Panel.BaseURL = "" },
			wantErr: ErrMissingBaseURL,
		},
		{
			name:    "missing username",
			mutate:  func(c *Config) { c.Panel.Username = "" },
			wantErr: ErrMissingUsername,
		},
		{
			name:    "missing password",
			mutate:  func(c *Config) { c.Panel.Password = "" },
			wantErr: ErrMissingPassword,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Panel.TimeoutSec = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.Panel.RequestsPerSec = 0 },
			wantErr: ErrInvalidRateLimit,
		},
		{
			name:    "zero confirm attempts",
			mutate:  func(c *Config) { c.Renewal.Confirm.MaxAttempts = 0 },
			wantErr: ErrInvalidMaxAttempts,
		},
		{
			name:    "negative initial delay",
			mutate:  func(c *Config) { c.Renewal.Confirm.InitialDelayMs = -1 },
			wantErr: ErrInvalidInitialDelay,
		},
		{
			name:    "backoff below one",
			mutate:  func(c *Config) { c.Renewal.Confirm.Retry.BackoffMultiplier = 0.5 },
			wantErr: ErrInvalidBackoffMultiplier,
		},
		{
			name:    "inverted name lengths",
			mutate:  func(c *Config) { c.Extraction.MinNameLen = 300 },
			wantErr: ErrInvalidNameLengths,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}

				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPanelConfig_URLs(t *testing.T) {
	cfg := DefaultConfig().Panel

	if cfg.ListingURL() != cfg.BaseURL+"/control/index/" {
		t.Errorf("ListingURL = %q", cfg.ListingURL())
	}

	if cfg.LoginURL() != cfg.BaseURL+cfg.LoginPath {
		t.Errorf("LoginURL = %q", cfg.LoginURL())
	}

	if cfg.GetTimeout() != 60*time.Second {
		t.Errorf("GetTimeout = %v, want 60s", cfg.GetTimeout())
	}
}

func TestRetryPolicy_GetRetryDelay(t *testing.T) {
	policy := RetryPolicy{
		InitialDelayMs:    2000,
		MaxDelayMs:        8000,
		BackoffMultiplier: 1.5,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 0},
		{2, 2000 * time.Millisecond},
		{3, 3000 * time.Millisecond},
		{4, 4500 * time.Millisecond},
		{5, 6750 * time.Millisecond},
		{6, 8000 * time.Millisecond}, // capped
		{7, 8000 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := policy.GetRetryDelay(tt.attempt); got != tt.want {
			t.Errorf("GetRetryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestConfirmPolicy_GetInitialDelay(t *testing.T) {
	policy := ConfirmPolicy{InitialDelayMs: 3000}

	if got := policy.GetInitialDelay(); got != 3*time.Second {
		t.Errorf("GetInitialDelay = %v, want 3s", got)
	}
}

func TestConfig_StringElidesSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Notify.BotToken = "123:abc"
	cfg.Notify.ChatID = "42"

	s := cfg.String()

	if s == "" {
		t.Fatal("String() returned empty")
	}

	for _, secret := range []string{"secret", "123:abc"} {
		if strings.Contains(s, secret) {
			t.Errorf("String() leaks %q: %s", secret, s)
		}
	}
}
