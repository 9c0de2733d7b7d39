package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the config file used when QANUN_WEB_CONFIG is unset.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                        string   `yaml:"port"`
	LogLevel                    string   `yaml:"logLevel"`
	APIBaseURL                  string   `yaml:"apiBaseURL"`
	AdminAPIBaseURL             string   `yaml:"adminAPIBaseURL"`
	RedisAddr                   string   `yaml:"redisAddr"`
	RedisPassword               string   `yaml:"redisPassword"`
	SessionTTL                  string   `yaml:"sessionTTL"`
	SessionCookieName           string   `yaml:"sessionCookieName"`
	SessionCookieSecure         bool     `yaml:"sessionCookieSecure"`
	CredentialKey               string   `yaml:"credentialKey"`
	ThreadPollInterval          string   `yaml:"threadPollInterval"`
	SummaryPollInterval         string   `yaml:"summaryPollInterval"`
	RefreshLeeway               string   `yaml:"refreshLeeway"`
	RequestTimeout              string   `yaml:"requestTimeout"`
	LoginRateLimitPerMinute     int      `yaml:"loginRateLimitPerMinute"`
	AssistantRateLimitPerMinute int      `yaml:"assistantRateLimitPerMinute"`
	MaxUploadBytes              int64    `yaml:"maxUploadBytes"`
	AllowedExtensions           []string `yaml:"allowedExtensions"`
	AllowedOrigins              []string `yaml:"allowedOrigins"`
	TrustedProxyCIDRs           []string `yaml:"trustedProxyCidrs"`
}

// Path returns the config file location, honoring QANUN_WEB_CONFIG.
func Path() string {
	if v := strings.TrimSpace(os.Getenv("QANUN_WEB_CONFIG")); v != "" {
		return v
	}
	return ConfigPath
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("QANUN_PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("QANUN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("QANUN_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("QANUN_ADMIN_API_BASE_URL"); v != "" {
		cfg.AdminAPIBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("QANUN_SESSION_TTL"); v != "" {
		cfg.SessionTTL = v
	}
	if v := os.Getenv("QANUN_SESSION_COOKIE_NAME"); v != "" {
		cfg.SessionCookieName = strings.TrimSpace(v)
	}
	if v := os.Getenv("QANUN_SESSION_COOKIE_SECURE"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.SessionCookieSecure = b
		}
	}
	if v := os.Getenv("QANUN_CREDENTIAL_KEY"); v != "" {
		cfg.CredentialKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("QANUN_REFRESH_LEEWAY"); v != "" {
		cfg.RefreshLeeway = v
	}
	if v := os.Getenv("QANUN_LOGIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("QANUN_ASSISTANT_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AssistantRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("QANUN_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("QANUN_ALLOWED_EXTENSIONS"); v != "" {
		cfg.AllowedExtensions = splitCSV(v)
	}
	if v := os.Getenv("QANUN_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("QANUN_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	if cfg.AdminAPIBaseURL == "" {
		cfg.AdminAPIBaseURL = cfg.APIBaseURL
	}
	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = "qanun_sid"
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return errors.New("config: apiBaseURL is required (set in config.yaml or QANUN_API_BASE_URL)")
	}
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required for sessions and rate limiting")
	}
	if cfg.LoginRateLimitPerMinute < 0 || cfg.AssistantRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	if cfg.MaxUploadBytes < 0 {
		return errors.New("config: maxUploadBytes must be >= 0")
	}
	if key := strings.TrimSpace(cfg.CredentialKey); key != "" {
		raw, err := hex.DecodeString(key)
		if err != nil || len(raw) != 32 {
			return errors.New("config: credentialKey must be 64 hex characters")
		}
	}
	for name, value := range map[string]string{
		"sessionTTL":          cfg.SessionTTL,
		"threadPollInterval":  cfg.ThreadPollInterval,
		"summaryPollInterval": cfg.SummaryPollInterval,
		"refreshLeeway":       cfg.RefreshLeeway,
		"requestTimeout":      cfg.RequestTimeout,
	} {
		if _, err := ParseDuration(value, 0); err != nil {
			return fmt.Errorf("config: invalid %s: %w", name, err)
		}
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// ParseDuration parses an optional duration string, returning fallback when empty.
func ParseDuration(value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	dur, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if dur < 0 {
		return 0, fmt.Errorf("negative duration %q", value)
	}
	return dur, nil
}
