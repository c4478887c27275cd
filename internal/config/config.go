// Package config provides application configuration management.
// It loads settings from environment variables (and an optional .env file)
// and validates them for the server or the operator CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default ESI hosts.
const (
	DefaultESIHost      = "https://esi.evetech.net"
	DefaultESIChinaHost = "https://esi.evepc.163.com"
)

// ValidationMode selects which settings are required.
type ValidationMode int

const (
	// ServerMode requires Slack credentials.
	ServerMode ValidationMode = iota
	// CLIMode only talks to ESI and needs no Slack credentials.
	CLIMode
)

func (m ValidationMode) String() string {
	switch m {
	case ServerMode:
		return "server"
	case CLIMode:
		return "cli"
	default:
		return "unknown"
	}
}

// Config holds all application configuration
type Config struct {
	// Slack
	SlackBotToken string
	SlackAppToken string // xapp- token for Socket Mode

	// Bot behavior
	Prefix          string
	Channels        []string // allow-list, first entry is the primary channel
	EditWindow      time.Duration
	StartupGreeting bool
	UserBurst       float64 // per-user command bucket, 0 disables limiting
	UserRefillRate  float64 // tokens per second

	// Server
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data
	DataDir string // directory for the spec snapshot database

	// ESI
	ESIHost             string
	ESIChinaHost        string
	SpecStaleAfter      time.Duration
	SpecRefreshInterval time.Duration

	// Outbound HTTP
	HTTPTimeout    time.Duration
	HTTPMaxRetries int
	HTTPWorkers    int

	// Metrics Authentication
	MetricsUsername string // default: "prometheus"
	MetricsPassword string // empty = no auth

	// Sentry
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack log shipping
	BetterStackToken    string
	BetterStackEndpoint string
}

// Load reads configuration for the server.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from environment variables and validates it
// for the given mode. It attempts to load a .env file first.
func LoadForMode(mode ValidationMode) (*Config, error) {
	// Ignore error if file doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		SlackBotToken: getEnv(EnvSlackBotToken, ""),
		SlackAppToken: getEnv(EnvSlackAppToken, ""),

		Prefix:          strings.ToLower(getEnv(EnvPrefix, "!esi")),
		Channels:        getListEnv(EnvChannels, []string{"esi"}),
		EditWindow:      getDurationEnv(EnvEditWindow, DefaultEditWindow),
		StartupGreeting: getBoolEnv(EnvStartupGreeting, true),
		UserBurst:       getFloatEnv(EnvUserBurst, 10),
		UserRefillRate:  getFloatEnv(EnvUserRefillRate, 0.2),

		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		DataDir: getEnv(EnvDataDir, getDefaultDataDir()),

		ESIHost:             strings.TrimSuffix(getEnv(EnvESIHost, DefaultESIHost), "/"),
		ESIChinaHost:        strings.TrimSuffix(getEnv(EnvESIChinaHost, DefaultESIChinaHost), "/"),
		SpecStaleAfter:      getDurationEnv(EnvSpecStaleAfter, SpecStaleAfter),
		SpecRefreshInterval: getDurationEnv(EnvSpecRefreshInterval, SpecRefreshInterval),

		HTTPTimeout:    getDurationEnv(EnvHTTPTimeout, ESIRequest),
		HTTPMaxRetries: getIntEnv(EnvHTTPMaxRetries, 3),
		HTTPWorkers:    getIntEnv(EnvHTTPWorkers, 100),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for server mode.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks that required values are set for mode.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if mode == ServerMode {
		if c.SlackBotToken == "" {
			errs = append(errs, errors.New(EnvSlackBotToken+" is required"))
		}
		if c.SlackAppToken == "" {
			errs = append(errs, errors.New(EnvSlackAppToken+" is required"))
		}
		if c.Port == "" {
			errs = append(errs, errors.New(EnvPort+" is required"))
		}
		if len(c.Channels) == 0 {
			errs = append(errs, errors.New(EnvChannels+" must name at least one channel"))
		}
	}

	if c.Prefix == "" {
		errs = append(errs, errors.New(EnvPrefix+" is required"))
	} else if strings.ContainsAny(c.Prefix, " \t\n") {
		errs = append(errs, fmt.Errorf("%s must be a single word, got %q", EnvPrefix, c.Prefix))
	}
	if c.ESIHost == "" {
		errs = append(errs, errors.New(EnvESIHost+" is required"))
	}
	if c.EditWindow <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvEditWindow, c.EditWindow))
	}
	if c.SpecStaleAfter <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvSpecStaleAfter, c.SpecStaleAfter))
	}
	if c.SpecRefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvSpecRefreshInterval, c.SpecRefreshInterval))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvHTTPTimeout, c.HTTPTimeout))
	}
	if c.HTTPMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvHTTPMaxRetries, c.HTTPMaxRetries))
	}
	if c.HTTPWorkers <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvHTTPWorkers, c.HTTPWorkers))
	}
	if c.UserBurst < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", EnvUserBurst, c.UserBurst))
	}
	if c.UserBurst > 0 && c.UserRefillRate <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive when %s is set, got %v", EnvUserRefillRate, EnvUserBurst, c.UserRefillRate))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", EnvSentrySampleRate, c.SentrySampleRate))
	}

	return errors.Join(errs...)
}

// PrimaryChannel returns the channel the startup greeting is posted to.
func (c *Config) PrimaryChannel() string {
	if len(c.Channels) == 0 {
		return ""
	}
	return c.Channels[0]
}

// SQLitePath returns the full path to the spec snapshot database.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "specs.db")
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated value, dropping empty items.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		item = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(item), "#"))
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
