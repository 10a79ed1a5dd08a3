// Package config loads the daemon configuration: a TOML file with
// environment-variable overrides on top, so deployments can keep the
// token out of the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
)

// Duration is a time.Duration that reads "90s" / "1h" style strings
// from both TOML and environment values.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full daemon configuration.
type Config struct {
	// Backend endpoints.
	APIBaseURL   string `toml:"api_base_url" env:"WAHA_API_BASE_URL"`
	APIToken     string `toml:"api_token" env:"WAHA_API_TOKEN"`
	SessionWSURL string `toml:"session_ws_url" env:"WAHA_SESSION_WS_URL"`
	ChatWSURL    string `toml:"chat_ws_url" env:"WAHA_CHAT_WS_URL"`

	// Paging and cache tuning.
	OverviewPageSize int      `toml:"overview_page_size" env:"WAHA_OVERVIEW_PAGE_SIZE"`
	MessagePageSize  int      `toml:"message_page_size" env:"WAHA_MESSAGE_PAGE_SIZE"`
	SessionTTL       Duration `toml:"session_ttl" env:"WAHA_SESSION_TTL"`
	PrefetchStagger  Duration `toml:"prefetch_stagger" env:"WAHA_PREFETCH_STAGGER"`
	JobPollDelayHint float64  `toml:"job_poll_delay_hint" env:"WAHA_JOB_POLL_DELAY_HINT"`
	ExcludedPrefetch []string `toml:"excluded_prefetch" env:"WAHA_EXCLUDED_PREFETCH" envSeparator:","`

	// Local state.
	StateDir string `toml:"state_dir" env:"WAHA_STATE_DIR"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		APIBaseURL:       "http://localhost:3000/api",
		SessionWSURL:     "ws://localhost:3000/ws/sessions",
		ChatWSURL:        "ws://localhost:3000/ws/chats",
		OverviewPageSize: 25,
		MessagePageSize:  25,
		SessionTTL:       Duration(time.Hour),
		PrefetchStagger:  Duration(300 * time.Millisecond),
		JobPollDelayHint: 2,
	}
}

// Load reads config from the given path and applies env overrides. A
// missing file is not an error; env and defaults still apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	if cfg.APIToken == "" {
		return nil, errors.New("api token is required (api_token or WAHA_API_TOKEN)")
	}
	if cfg.OverviewPageSize <= 0 || cfg.MessagePageSize <= 0 {
		return nil, errors.New("page sizes must be positive")
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
