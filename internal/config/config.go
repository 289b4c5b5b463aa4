package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/viewmetrics/internal/connector"
	"github.com/crimson-sun/viewmetrics/internal/connector/paging"
)

// Version is the build version, overridden with -ldflags at release time.
var Version = "dev"

// Config holds all viewmetrics configuration.
type Config struct {
	Connector ConnectorConfig `yaml:"connector"`
	Output    OutputConfig    `yaml:"output"`
	Log       LogConfig       `yaml:"log"`
}

// ConnectorConfig holds the Connect server settings.
type ConnectorConfig struct {
	Server    string        `yaml:"server"`
	APIKey    string        `yaml:"api_key"`
	PageSize  int           `yaml:"page_size"`  // 0 = server default page
	RateLimit float64       `yaml:"rate_limit"` // requests/second, 0 = unlimited
	Timeout   time.Duration `yaml:"timeout"`
}

// OutputConfig holds output destination settings.
type OutputConfig struct {
	Mode    string `yaml:"mode"` // "stdout" or "file"
	Path    string `yaml:"path"`
	Pretty  bool   `yaml:"pretty"`
	MaxSize int64  `yaml:"max_size"` // bytes before rotation, 0 = never

	// WebhookURL, when set, also forwards every event to an HTTP collector.
	WebhookURL string `yaml:"webhook_url"`
}

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

func defaults() Config {
	return Config{
		Connector: ConnectorConfig{Timeout: 30 * time.Second},
		Output:    OutputConfig{Mode: "stdout"},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := defaults()
	applyEnv(&cfg)
	return cfg
}

// LoadFile reads a YAML config file, then applies environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Connector.Server = getenv("CONNECT_SERVER", cfg.Connector.Server)
	cfg.Connector.APIKey = getenv("CONNECT_API_KEY", cfg.Connector.APIKey)
	cfg.Connector.PageSize = getenvInt("VIEWMETRICS_PAGE_SIZE", cfg.Connector.PageSize)
	cfg.Connector.RateLimit = getenvFloat("VIEWMETRICS_RATE_LIMIT", cfg.Connector.RateLimit)
	cfg.Connector.Timeout = getenvDuration("VIEWMETRICS_TIMEOUT", cfg.Connector.Timeout)

	cfg.Output.Mode = getenv("VIEWMETRICS_OUTPUT", cfg.Output.Mode)
	cfg.Output.Path = getenv("VIEWMETRICS_OUTPUT_FILE", cfg.Output.Path)
	cfg.Output.Pretty = getenvBool("VIEWMETRICS_OUTPUT_PRETTY", cfg.Output.Pretty)
	cfg.Output.MaxSize = int64(getenvInt("VIEWMETRICS_OUTPUT_MAX_SIZE", int(cfg.Output.MaxSize)))
	cfg.Output.WebhookURL = getenv("VIEWMETRICS_WEBHOOK_URL", cfg.Output.WebhookURL)

	cfg.Log.Level = getenv("VIEWMETRICS_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getenv("VIEWMETRICS_LOG_FORMAT", cfg.Log.Format)
}

// Validate checks the configuration and returns every problem found.
func (c Config) Validate() error {
	var errs []error

	if c.Connector.Server == "" {
		errs = append(errs, errors.New("connect server is required (CONNECT_SERVER)"))
	}
	if c.Connector.APIKey == "" {
		errs = append(errs, errors.New("api key is required (CONNECT_API_KEY)"))
	}
	if c.Connector.PageSize < 0 || c.Connector.PageSize > paging.MaxPageSize {
		errs = append(errs, fmt.Errorf("page size must be between 0 and %d, got %d", paging.MaxPageSize, c.Connector.PageSize))
	}
	if c.Connector.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must be >= 0, got %g", c.Connector.RateLimit))
	}
	if c.Connector.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be > 0, got %s", c.Connector.Timeout))
	}

	switch c.Output.Mode {
	case "stdout":
	case "file":
		if c.Output.Path == "" {
			errs = append(errs, errors.New("output file path is required when output mode is file"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown output mode %q (want stdout or file)", c.Output.Mode))
	}
	if c.Output.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("output max size must be >= 0, got %d", c.Output.MaxSize))
	}
	if c.Output.WebhookURL != "" {
		u, err := url.Parse(c.Output.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("webhook url must be an absolute http(s) URL, got %q", c.Output.WebhookURL))
		}
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format))
	}

	return errors.Join(errs...)
}

// ConnectorConfig converts the settings to the form finders consume.
func (c Config) ConnectorConfig() connector.Config {
	var extra map[string]string
	set := func(k, v string) {
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[k] = v
	}
	if c.Connector.PageSize > 0 {
		set(connector.ExtraPageSize, strconv.Itoa(c.Connector.PageSize))
	}
	if c.Connector.RateLimit > 0 {
		set(connector.ExtraRateLimit, strconv.FormatFloat(c.Connector.RateLimit, 'f', -1, 64))
	}
	if c.Connector.Timeout > 0 {
		set(connector.ExtraTimeout, c.Connector.Timeout.String())
	}
	set(connector.ExtraUserAgent, "viewmetrics/"+Version)

	return connector.Config{
		Endpoint: c.Connector.Server,
		APIKey:   c.Connector.APIKey,
		Extra:    extra,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
