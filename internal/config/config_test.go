package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvSlackBotToken, EnvSlackAppToken, EnvPrefix, EnvChannels, EnvEditWindow,
		EnvStartupGreeting, EnvPort, EnvESIHost, EnvESIChinaHost, EnvHTTPWorkers,
		EnvHTTPMaxRetries, EnvSentrySampleRate, EnvUserBurst, EnvUserRefillRate,
	} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSlackBotToken, "xoxb-test")
	t.Setenv(EnvSlackAppToken, "xapp-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.SlackBotToken != "xoxb-test" {
		t.Errorf("SlackBotToken = %q", cfg.SlackBotToken)
	}

	// Check defaults
	if cfg.Port != "10000" {
		t.Errorf("Expected default port '10000', got '%s'", cfg.Port)
	}
	if cfg.Prefix != "!esi" {
		t.Errorf("Expected default prefix '!esi', got %q", cfg.Prefix)
	}
	if cfg.PrimaryChannel() != "esi" {
		t.Errorf("Expected primary channel 'esi', got %q", cfg.PrimaryChannel())
	}
	if cfg.EditWindow != 300*time.Second {
		t.Errorf("Expected edit window 300s, got %v", cfg.EditWindow)
	}
	if cfg.HTTPMaxRetries != 3 {
		t.Errorf("Expected default max retries 3, got %d", cfg.HTTPMaxRetries)
	}
	if cfg.HTTPWorkers != 100 {
		t.Errorf("Expected default workers 100, got %d", cfg.HTTPWorkers)
	}
	if cfg.ESIHost != DefaultESIHost || cfg.ESIChinaHost != DefaultESIChinaHost {
		t.Errorf("unexpected hosts %q %q", cfg.ESIHost, cfg.ESIChinaHost)
	}
	if !cfg.StartupGreeting {
		t.Error("StartupGreeting should default to true")
	}
	if cfg.UserBurst != 10 || cfg.UserRefillRate != 0.2 {
		t.Errorf("unexpected user rate limit %v/%v", cfg.UserBurst, cfg.UserRefillRate)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSlackBotToken, "xoxb-test")
	t.Setenv(EnvSlackAppToken, "xapp-test")
	t.Setenv(EnvPrefix, "!ESI2")
	t.Setenv(EnvChannels, "esi, #esi-dev ,,")
	t.Setenv(EnvESIHost, "https://esi.example.com/")
	t.Setenv(EnvStartupGreeting, "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Prefix != "!esi2" {
		t.Errorf("prefix should be lower-cased, got %q", cfg.Prefix)
	}
	if len(cfg.Channels) != 2 || cfg.Channels[1] != "esi-dev" {
		t.Errorf("Channels = %v", cfg.Channels)
	}
	if cfg.ESIHost != "https://esi.example.com" {
		t.Errorf("trailing slash not trimmed: %q", cfg.ESIHost)
	}
	if cfg.StartupGreeting {
		t.Error("StartupGreeting override ignored")
	}
}

func TestLoadForMode(t *testing.T) {
	tests := []struct {
		name        string
		mode        ValidationMode
		env         map[string]string
		wantErr     bool
		errContains string
	}{
		{
			name: "server mode - valid config",
			mode: ServerMode,
			env: map[string]string{
				EnvSlackBotToken: "xoxb-test",
				EnvSlackAppToken: "xapp-test",
			},
		},
		{
			name:        "server mode - missing credentials",
			mode:        ServerMode,
			wantErr:     true,
			errContains: EnvSlackBotToken,
		},
		{
			name: "cli mode - no credentials required",
			mode: CLIMode,
		},
		{
			name:        "cli mode - bad worker count",
			mode:        CLIMode,
			env:         map[string]string{EnvHTTPWorkers: "0"},
			wantErr:     true,
			errContains: EnvHTTPWorkers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadForMode(tt.mode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadForMode(%v) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("LoadForMode() error = %v, want error containing %q", err, tt.errContains)
			}
			if !tt.wantErr && cfg == nil {
				t.Error("LoadForMode() returned nil config without error")
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		SlackBotToken:       "xoxb",
		SlackAppToken:       "xapp",
		Prefix:              "!esi",
		Channels:            []string{"esi"},
		EditWindow:          DefaultEditWindow,
		Port:                "10000",
		ESIHost:             DefaultESIHost,
		SpecStaleAfter:      SpecStaleAfter,
		SpecRefreshInterval: SpecRefreshInterval,
		HTTPTimeout:         ESIRequest,
		HTTPMaxRetries:      3,
		HTTPWorkers:         100,
		SentrySampleRate:    1,
	}
}

func TestValidateForMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*Config)
		mode        ValidationMode
		wantErr     bool
		errContains string
	}{
		{name: "server mode - valid config", mutate: func(*Config) {}, mode: ServerMode},
		{
			name:        "server mode - missing app token",
			mutate:      func(c *Config) { c.SlackAppToken = "" },
			mode:        ServerMode,
			wantErr:     true,
			errContains: EnvSlackAppToken,
		},
		{
			name:   "cli mode - missing Slack credentials OK",
			mutate: func(c *Config) { c.SlackBotToken, c.SlackAppToken = "", "" },
			mode:   CLIMode,
		},
		{
			name:        "prefix with spaces",
			mutate:      func(c *Config) { c.Prefix = "hey bot" },
			mode:        CLIMode,
			wantErr:     true,
			errContains: EnvPrefix,
		},
		{
			name:        "negative retries",
			mutate:      func(c *Config) { c.HTTPMaxRetries = -1 },
			mode:        CLIMode,
			wantErr:     true,
			errContains: EnvHTTPMaxRetries,
		},
		{
			name:        "user burst without refill",
			mutate:      func(c *Config) { c.UserBurst, c.UserRefillRate = 5, 0 },
			mode:        ServerMode,
			wantErr:     true,
			errContains: EnvUserRefillRate,
		},
		{
			name:   "user limiting disabled",
			mutate: func(c *Config) { c.UserBurst, c.UserRefillRate = 0, 0 },
			mode:   ServerMode,
		},
		{
			name:        "sample rate out of range",
			mutate:      func(c *Config) { c.SentrySampleRate = 1.5 },
			mode:        ServerMode,
			wantErr:     true,
			errContains: EnvSentrySampleRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.ValidateForMode(tt.mode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateForMode(%v) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("ValidateForMode() error = %v, want error containing %q", err, tt.errContains)
			}
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.SlackBotToken = ""
	cfg.HTTPWorkers = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{EnvSlackBotToken, EnvHTTPWorkers} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestGetDurationEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue time.Duration
		want         time.Duration
	}{
		{"valid duration", "5s", time.Second, 5 * time.Second},
		{"invalid duration", "invalid", time.Second, time.Second},
		{"empty value", "", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ESIBOT_TEST_DURATION", tt.value)
			if got := getDurationEnv("ESIBOT_TEST_DURATION", tt.defaultValue); got != tt.want {
				t.Errorf("getDurationEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidationModeString(t *testing.T) {
	t.Parallel()

	if ServerMode.String() != "server" || CLIMode.String() != "cli" || ValidationMode(9).String() != "unknown" {
		t.Error("unexpected ValidationMode names")
	}
}
