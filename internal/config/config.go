package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// NOTE: The YAML file holds the non-secret settings. The feed URL is a
// secret and normally arrives through MAJALIS_CAL_URL (optionally from a
// .env file), which overrides whatever the file says.

const (
	DefaultListen       = "127.0.0.1:8080"
	DefaultTimezone     = "Local"
	DefaultFetchTimeout = 15 * time.Second
	DefaultMaxFeedBytes = 10 << 20
	DefaultEngine       = "fpdf"
	DefaultLogLevel     = "INFO"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the form.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the form.
	Listen string `yaml:"listen" env:"MAJALIS_LISTEN" validate:"required"`

	// Timezone decides what "today" means for the date presets. Event times
	// keep the zone the feed gives them.
	Timezone string `yaml:"timezone" env:"MAJALIS_TIMEZONE"`

	// FeedURL is the ICS subscription endpoint. Treat it as a secret.
	FeedURL string `yaml:"feed_url" env:"MAJALIS_CAL_URL" validate:"required,url"`

	// FetchTimeout bounds one feed request. Zero disables the timeout.
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"MAJALIS_FETCH_TIMEOUT" validate:"min=0"`

	// MaxFeedBytes caps the feed payload. Zero means unlimited.
	MaxFeedBytes int64 `yaml:"max_feed_bytes" env:"MAJALIS_MAX_FEED_BYTES" validate:"min=0"`

	// Engine selects the PDF renderer: "fpdf" (built in) or "chromium"
	// (headless browser, needs Chrome on the host).
	Engine string `yaml:"engine" env:"MAJALIS_ENGINE" validate:"oneof=fpdf chromium"`

	// ChromePath pins the browser binary for the chromium engine.
	ChromePath string `yaml:"chrome_path,omitempty" env:"MAJALIS_CHROME_PATH"`

	LogLevel string `yaml:"log_level" env:"MAJALIS_LOG_LEVEL" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// BasicAuth, if set with both fields, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration. FeedURL is
// left empty on purpose; it must come from the environment or the file.
func DefaultConfig() *Config {
	return &Config{
		Listen:       DefaultListen,
		Timezone:     DefaultTimezone,
		FetchTimeout: DefaultFetchTimeout,
		MaxFeedBytes: DefaultMaxFeedBytes,
		Engine:       DefaultEngine,
		LogLevel:     DefaultLogLevel,
	}
}

// Normalize fills in missing/zero values so partially-filled files still work.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.Engine == "" {
		c.Engine = DefaultEngine
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" && c.BasicAuth.Password == "" {
		c.BasicAuth = nil
	}
}

// Validate checks the effective configuration. A missing or malformed feed
// URL is a startup failure.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// BasicAuthEnabled reports whether both credentials are set.
func (c *Config) BasicAuthEnabled() bool {
	return c.BasicAuth != nil && c.BasicAuth.Username != "" && c.BasicAuth.Password != ""
}

// Location resolves Timezone. "Local" or an empty name is time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == DefaultTimezone {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from the given YAML path, then applies
// environment overrides and validates the result.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - continue with the defaults
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//   - Environment variables (see the env tags) override file values.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return nil, fmt.Errorf("create default config: %w", err)
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".majalis-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save writes c to path. See the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
