package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/five82/sprinkler/internal/pins"
)

// Config holds the client settings for talking to one controller.
type Config struct {
	Host              string
	Token             string
	Pins              []int
	Timezone          string
	Timeout           time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	RateLimit         float64
	CacheEntries      int
	DefaultRunMinutes int
	PollInterval      time.Duration
	LogLevel          string
	LogFile           string
}

const (
	defaultConfigPath = "~/.config/sprinkler/config.toml"
	defaultLogFile    = "~/.local/state/sprinkler/sprinkler.log"
	envPrefix         = "SPRINKLER"
)

// Keys.
const (
	keyHost              = "host"
	keyToken             = "token"
	keyPins              = "pins"
	keyTimezone          = "timezone"
	keyTimeout           = "timeout"
	keyMaxRetries        = "max_retries"
	keyRetryDelay        = "retry_delay"
	keyRateLimit         = "rate_limit"
	keyCacheEntries      = "cache_entries"
	keyDefaultRunMinutes = "default_run_minutes"
	keyPollInterval      = "poll_interval"
	keyLogLevel          = "log_level"
	keyLogFile           = "log_file"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyHost, "")
	v.SetDefault(keyToken, "")
	v.SetDefault(keyPins, pins.DefaultCatalog().Numbers())
	v.SetDefault(keyTimezone, "")
	v.SetDefault(keyTimeout, 8*time.Second)
	v.SetDefault(keyMaxRetries, 2)
	v.SetDefault(keyRetryDelay, 500*time.Millisecond)
	v.SetDefault(keyRateLimit, 10.0)
	v.SetDefault(keyCacheEntries, 128)
	v.SetDefault(keyDefaultRunMinutes, 10)
	v.SetDefault(keyPollInterval, 5*time.Second)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFile, defaultLogFile)
}

// New returns a viper instance with defaults and environment bindings but
// no file loaded. The CLI binds its flags to it before calling Decode.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Names shared with the controller's own environment.
	_ = v.BindEnv(keyToken, "SPRINKLER_API_TOKEN", "SPRINKLER_TOKEN")
	_ = v.BindEnv(keyPins, "SPRINKLER_GPIO_PINS", "SPRINKLER_GPIO_ALLOW", "SPRINKLER_PINS")
	return v
}

// Load reads the config file at path (empty means the default location),
// applies SPRINKLER_* environment overrides and returns the result. A
// missing file falls back to defaults.
func Load(path string) (Config, error) {
	v := New()
	if err := ReadFile(v, path); err != nil {
		return Config{}, err
	}
	return Decode(v)
}

// ReadFile merges the TOML file at path into v. A missing file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(resolved); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	v.SetConfigFile(resolved)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Decode extracts and validates a Config from v.
func Decode(v *viper.Viper) (Config, error) {
	pinList, err := parsePins(v.Get(keyPins))
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Host:              strings.TrimSpace(v.GetString(keyHost)),
		Token:             strings.TrimSpace(v.GetString(keyToken)),
		Pins:              pinList,
		Timezone:          strings.TrimSpace(v.GetString(keyTimezone)),
		Timeout:           v.GetDuration(keyTimeout),
		MaxRetries:        v.GetInt(keyMaxRetries),
		RetryDelay:        v.GetDuration(keyRetryDelay),
		RateLimit:         v.GetFloat64(keyRateLimit),
		CacheEntries:      v.GetInt(keyCacheEntries),
		DefaultRunMinutes: v.GetInt(keyDefaultRunMinutes),
		PollInterval:      v.GetDuration(keyPollInterval),
		LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString(keyLogLevel))),
		LogFile:           strings.TrimSpace(v.GetString(keyLogFile)),
	}
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}
	cfg.LogFile = mustExpand(cfg.LogFile)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the client cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", keyTimeout))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", keyMaxRetries))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", keyRetryDelay))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", keyRateLimit))
	}
	if c.DefaultRunMinutes <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", keyDefaultRunMinutes))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", keyPollInterval))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%s %q: want debug, info, warn or error", keyLogLevel, c.LogLevel))
	}
	if _, err := pins.NewCatalog(c.Pins); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Catalog returns the configured pin catalog.
func (c Config) Catalog() (pins.Catalog, error) {
	return pins.NewCatalog(c.Pins)
}

// Location returns the timezone schedules are evaluated in. An empty
// Timezone means the local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyTimezone, err)
	}
	return loc, nil
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

// parsePins accepts a TOML array or a comma/space separated string as
// found in SPRINKLER_GPIO_PINS.
func parsePins(raw any) ([]int, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []int:
		return append([]int(nil), v...), nil
	case string:
		fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
		out := make([]int, 0, len(fields))
		for _, f := range fields {
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid pin %q", keyPins, f)
			}
			out = append(out, n)
		}
		return out, nil
	case []any:
		out := make([]int, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case int:
				out = append(out, n)
			case int64:
				out = append(out, int(n))
			case float64:
				out = append(out, int(n))
			case string:
				parsed, err := strconv.Atoi(strings.TrimSpace(n))
				if err != nil {
					return nil, fmt.Errorf("%s: invalid pin %q", keyPins, n)
				}
				out = append(out, parsed)
			default:
				return nil, fmt.Errorf("%s: invalid pin %v", keyPins, item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: unsupported value %v", keyPins, raw)
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
