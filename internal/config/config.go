// Package config provides configuration management for the renewal worker.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingBaseURL           = errors.New("panel.base_url is required")
	ErrMissingUsername          = errors.New("panel username is required (config or ARCTIC_USERNAME)")
	ErrMissingPassword          = errors.New("panel password is required (config or ARCTIC_PASSWORD)")
	ErrInvalidTimeout           = errors.New("panel.timeout_sec must be at least 1")
	ErrInvalidRateLimit         = errors.New("panel.requests_per_sec must be positive")
	ErrInvalidMaxAttempts       = errors.New("confirm.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("confirm.initial_delay_ms must be non-negative")
	ErrInvalidRetryDelay        = errors.New("confirm.retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("confirm.retry.backoff_multiplier must be >= 1.0")
	ErrInvalidNameLengths       = errors.New("extraction.min_name_len must not exceed extraction.max_name_len")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete renewal worker configuration.
type Config struct {
	Panel      PanelConfig      `yaml:"panel"`
	Renewal    RenewalConfig    `yaml:"renewal"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Notify     NotifyConfig     `yaml:"notify"`
	Logging    LoggingConfig    `yaml:"logging"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
}

// PanelConfig describes the control panel endpoints and session settings.
type PanelConfig struct {
	BaseURL        string  `yaml:"base_url"`
	LoginPath      string  `yaml:"login_path"`
	ListingPath    string  `yaml:"listing_path"`
	Username       string  `yaml:"username"`
	Password       string  `yaml:"password"`
	ProxyURL       string  `yaml:"proxy_url"`
	TimeoutSec     int     `yaml:"timeout_sec"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	Burst          int     `yaml:"burst"`
	MaxBodyKb      int     `yaml:"max_body_kb"`
}

// RenewalConfig controls the mutation and its confirmation.
type RenewalConfig struct {
	SuccessMarker string        `yaml:"success_marker"`
	Confirm       ConfirmPolicy `yaml:"confirm"`
}

// ConfirmPolicy bounds the post-renewal confirmation loop: one fixed
// initial delay, then up to MaxAttempts re-reads separated by the retry
// schedule.
type ConfirmPolicy struct {
	InitialDelayMs int         `yaml:"initial_delay_ms"`
	MaxAttempts    int         `yaml:"max_attempts"`
	Retry          RetryPolicy `yaml:"retry"`
}

// RetryPolicy defines an increasing, capped delay schedule.
type RetryPolicy struct {
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// ExtractionConfig exposes the name-validity thresholds as tuning
// constants. The panel markup is not under our control, so these are
// deliberately configurable rather than fixed.
type ExtractionConfig struct {
	MinNameLen      int      `yaml:"min_name_len"`
	MaxNameLen      int      `yaml:"max_name_len"`
	MinASCIINameLen int      `yaml:"min_ascii_name_len"`
	ExtraDenylist   []string `yaml:"extra_denylist"`
}

// NotifyConfig describes the Telegram notification target. Empty token
// or chat id disables notifications.
type NotifyConfig struct {
	BotToken     string `yaml:"bot_token"`
	ChatID       string `yaml:"chat_id"`
	ThreadID     string `yaml:"thread_id"`
	APIBase      string `yaml:"api_base"`
	PerProduct   bool   `yaml:"per_product"`
	TimeoutSec   int    `yaml:"timeout_sec"`
	DisableProxy bool   `yaml:"disable_proxy"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMb  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ScheduleConfig drives the daemon mode.
type ScheduleConfig struct {
	Cron     string `yaml:"cron"`
	RunOnce  bool   `yaml:"run_once"`
	RunAtBoot bool  `yaml:"run_at_boot"`
}

// DefaultConfig returns the configuration matching the live ArcticCloud
// panel. A config file only needs to override what differs.
func DefaultConfig() *Config {
	return &Config{
		Panel: PanelConfig{
			BaseURL:        "https://vps.polarbear.nyc.mn",
			LoginPath:      "/index/login/?referer=%2Fcontrol%2Findex%2F",
			ListingPath:    "/control/index/",
			TimeoutSec:     60,
			RequestsPerSec: 1,
			Burst:          3,
			MaxBodyKb:      1024,
		},
		Renewal: RenewalConfig{
			SuccessMarker: "免费产品已经帮您续期到当前时间的最大续期时间",
			Confirm: ConfirmPolicy{
				InitialDelayMs: 3000,
				MaxAttempts:    3,
				Retry: RetryPolicy{
					InitialDelayMs:    2000,
					MaxDelayMs:        8000,
					BackoffMultiplier: 1.5,
				},
			},
		},
		Extraction: ExtractionConfig{
			MinNameLen:      2,
			MaxNameLen:      200,
			MinASCIINameLen: 4,
		},
		Notify: NotifyConfig{
			APIBase:    "https://api.telegram.org",
			PerProduct: true,
			TimeoutSec: 30,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMb: 20,
		},
		Schedule: ScheduleConfig{
			Cron: "0 3 * * *",
		},
	}
}

// LoadConfig loads configuration from a YAML file layered over defaults
// and environment overrides. An empty path uses defaults + environment
// only.
func LoadConfig(filepath string) (*Config, error) {
	cfg := DefaultConfig()

	if filepath != "" {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv overlays credentials and secrets from the environment. The
// environment wins over the file so CI secrets never need to be written
// to disk.
func (c *Config) applyEnv() {
	overlay := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	overlay(&c.Panel.Username, "ARCTIC_USERNAME")
	overlay(&c.Panel.Password, "ARCTIC_PASSWORD")
	overlay(&c.Panel.ProxyURL, "SOCKS5_PROXY")
	overlay(&c.Notify.BotToken, "TELEGRAM_BOT_TOKEN")
	overlay(&c.Notify.ChatID, "CHAT_ID")
	overlay(&c.Notify.ThreadID, "THREAD_ID")
	overlay(&c.Notify.APIBase, "TELEGRAM_API_URL")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Panel.BaseURL == "" {
		return ErrMissingBaseURL
	}

	if c.Panel.Username == "" {
		return ErrMissingUsername
	}

	if c.Panel.Password == "" {
		return ErrMissingPassword
	}

	if c.Panel.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Panel.RequestsPerSec <= 0 {
		return ErrInvalidRateLimit
	}

	if c.Renewal.Confirm.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Renewal.Confirm.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Renewal.Confirm.Retry.InitialDelayMs < 0 {
		return ErrInvalidRetryDelay
	}

	if c.Renewal.Confirm.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Extraction.MinNameLen > c.Extraction.MaxNameLen {
		return ErrInvalidNameLengths
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// LoginURL returns the absolute login URL.
func (c *PanelConfig) LoginURL() string {
	return c.BaseURL + c.LoginPath
}

// ListingURL returns the absolute product listing URL.
func (c *PanelConfig) ListingURL() string {
	return c.BaseURL + c.ListingPath
}

// GetTimeout returns the per-request timeout duration.
func (c *PanelConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// GetInitialDelay returns the fixed wait before the first confirmation
// re-read.
func (p *ConfirmPolicy) GetInitialDelay() time.Duration {
	return time.Duration(p.InitialDelayMs) * time.Millisecond
}

// GetRetryDelay calculates the capped backoff delay preceding the given
// attempt number. Attempt 1 carries no delay.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 2; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if rp.MaxDelayMs > 0 && int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// String returns a string representation of the config with secrets
// elided.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Panel: %s, ConfirmAttempts: %d, Notify: %t}",
		c.Panel.BaseURL,
		c.Renewal.Confirm.MaxAttempts,
		c.Notify.BotToken != "" && c.Notify.ChatID != "",
	)
}
