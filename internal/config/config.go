// Package config loads the server configuration from an optional YAML file
// and REMOTE_UI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MaxFileSize caps configuration files read from disk.
const MaxFileSize = 1 << 20

// ServerConfig holds the server settings. ToolTimeout and LogLevel take
// effect on reload; the rest apply at start.
type ServerConfig struct {
	Address            string        `yaml:"address"              validate:"required"`
	MaxSessions        int           `yaml:"max_sessions"         validate:"min=1"`
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout" validate:"gt=0"`
	ReaperInterval     time.Duration `yaml:"reaper_interval"      validate:"gt=0"`
	ToolTimeout        time.Duration `yaml:"tool_timeout"         validate:"gt=0"`
	CacheTTL           time.Duration `yaml:"cache_ttl"            validate:"gte=0"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes"       validate:"min=1024"`
	RateLimit          float64       `yaml:"rate_limit"           validate:"gte=0"`
	RateBurst          int           `yaml:"rate_burst"           validate:"gte=0"`
	LogLevel           string        `yaml:"log_level"            validate:"oneof=debug info warn error"`
	AuthToken          string        `yaml:"auth_token,omitempty"`
	TraceExporter      string        `yaml:"trace_exporter"       validate:"oneof=none stdout otlp"`
	OTLPEndpoint       string        `yaml:"otlp_endpoint"        validate:"required_if=TraceExporter otlp"`
	OTLPInsecure       bool          `yaml:"otlp_insecure"`
	MetricExporter     string        `yaml:"metric_exporter"      validate:"oneof=none prometheus stdout"`
	Layout             string        `yaml:"layout,omitempty"`
}

// Provider exposes the current configuration.
type Provider interface {
	Current() ServerConfig
}

// Static is a Provider that never changes.
type Static ServerConfig

func (s Static) Current() ServerConfig { return ServerConfig(s) }

// Default returns the built-in configuration.
func Default() ServerConfig {
	return ServerConfig{
		Address:            "127.0.0.1:8765",
		MaxSessions:        10,
		SessionIdleTimeout: 30 * time.Minute,
		ReaperInterval:     time.Minute,
		ToolTimeout:        30 * time.Second,
		CacheTTL:           500 * time.Millisecond,
		MaxBodyBytes:       1 << 20,
		LogLevel:           "info",
		TraceExporter:      "none",
		OTLPEndpoint:       "localhost:4317",
		OTLPInsecure:       true,
		MetricExporter:     "prometheus",
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c ServerConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Level returns the slog level for LogLevel.
func (c ServerConfig) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load builds a configuration from the defaults, the YAML file at path (if
// path is not empty), the environment, and finally overrides. The result is
// validated.
func Load(path string, overrides ...func(*ServerConfig)) (ServerConfig, error) {
	cfg := Default()
	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return ServerConfig{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return ServerConfig{}, err
	}
	for _, o := range overrides {
		o(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *ServerConfig) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if info.Size() > MaxFileSize {
		return fmt.Errorf("read config: %s exceeds %d bytes", path, MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *ServerConfig) error {
	var err error
	cfg.Address = getEnv("REMOTE_UI_ADDRESS", cfg.Address)
	cfg.LogLevel = getEnv("REMOTE_UI_LOG_LEVEL", cfg.LogLevel)
	cfg.AuthToken = getEnv("REMOTE_UI_AUTH_TOKEN", cfg.AuthToken)
	cfg.TraceExporter = getEnv("REMOTE_UI_TRACE_EXPORTER", cfg.TraceExporter)
	cfg.OTLPEndpoint = getEnv("REMOTE_UI_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.MetricExporter = getEnv("REMOTE_UI_METRIC_EXPORTER", cfg.MetricExporter)
	cfg.Layout = getEnv("REMOTE_UI_LAYOUT", cfg.Layout)
	if cfg.MaxSessions, err = getEnvAsInt("REMOTE_UI_MAX_SESSIONS", cfg.MaxSessions); err != nil {
		return err
	}
	if cfg.RateBurst, err = getEnvAsInt("REMOTE_UI_RATE_BURST", cfg.RateBurst); err != nil {
		return err
	}
	if cfg.RateLimit, err = getEnvAsFloat("REMOTE_UI_RATE_LIMIT", cfg.RateLimit); err != nil {
		return err
	}
	if cfg.SessionIdleTimeout, err = getEnvAsDuration("REMOTE_UI_SESSION_IDLE_TIMEOUT", cfg.SessionIdleTimeout); err != nil {
		return err
	}
	if cfg.ReaperInterval, err = getEnvAsDuration("REMOTE_UI_REAPER_INTERVAL", cfg.ReaperInterval); err != nil {
		return err
	}
	if cfg.ToolTimeout, err = getEnvAsDuration("REMOTE_UI_TOOL_TIMEOUT", cfg.ToolTimeout); err != nil {
		return err
	}
	if cfg.CacheTTL, err = getEnvAsDuration("REMOTE_UI_CACHE_TTL", cfg.CacheTTL); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q (expected integer)", key, value)
	}
	return result, nil
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q (expected number)", key, value)
	}
	return result, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q (expected duration, e.g., '30s', '5m')", key, value)
	}
	return d, nil
}
