// Package config handles configuration loading and validation for stenod.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the daemon's tunables.
type Config struct {
	// Device is the serial device path the Stenura machine is attached to
	// (e.g. "/dev/ttyUSB0").
	Device string `toml:"device"`

	// Protocol selects the input source: "stenura" (request/response
	// client over a Stenura serial link) or "geminipr" (passive 6-byte
	// frame decoder, e.g. for a Gemini PR compatible writer).
	Protocol string `toml:"protocol"`

	// BaudRate is validated but not applied to the serial line:
	// stenura.OpenSerial always configures 9600, whatever this holds.
	BaudRate int `toml:"baud_rate"`

	// RetryIntervalMs is how long the retrier waits before resending an
	// unacknowledged request.
	RetryIntervalMs int `toml:"retry_interval_ms"`

	// MaxTries is the number of times a request is sent (including the
	// first attempt) before it is considered timed out.
	MaxTries int `toml:"max_tries"`

	// PollIntervalMs is how often the poller issues READC while idle.
	PollIntervalMs int `toml:"poll_interval_ms"`

	// QueueCapacity bounds the chord queue between the transport and the
	// translator.
	QueueCapacity int `toml:"queue_capacity"`

	// DictionaryPath is the JSON dictionary file loaded at startup.
	DictionaryPath string `toml:"dictionary_path"`

	// SessionLogPath is the SQLite session log path. Empty disables
	// session logging entirely.
	SessionLogPath string `toml:"session_log_path"`

	Logging LoggingConfig `toml:"logging"`

	mu sync.RWMutex `toml:"-"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format"`

	// Output is the log destination: "stdout", "stderr", or a file path.
	Output string `toml:"output"`
}

// RetryInterval returns RetryIntervalMs as a time.Duration.
func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.RetryIntervalMs) * time.Millisecond
}

// PollInterval returns PollIntervalMs as a time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Device:          "/dev/ttyUSB0",
		Protocol:        "stenura",
		BaudRate:        9600,
		RetryIntervalMs: 2000,
		MaxTries:        3,
		PollIntervalMs:  100,
		QueueCapacity:   1024,
		DictionaryPath:  "",
		SessionLogPath:  "",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads configuration from path. If the file doesn't exist, it returns
// the default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets an operator override the device path and log level
// without touching the config file, for quick troubleshooting.
func (c *Config) applyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := os.Getenv("STENOD_DEVICE"); v != "" {
		c.Device = v
	}
	if v := os.Getenv("STENOD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// ValidationError reports one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors collects every ValidationError found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for values that would make the daemon
// fail at startup in a confusing way rather than a clear one.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Device == "" {
		errs = append(errs, ValidationError{"device", "must not be empty"})
	}
	switch c.Protocol {
	case "stenura", "geminipr":
	default:
		errs = append(errs, ValidationError{"protocol", fmt.Sprintf("unknown protocol %q", c.Protocol)})
	}
	if c.BaudRate <= 0 {
		errs = append(errs, ValidationError{"baud_rate", "must be positive"})
	}
	if c.RetryIntervalMs <= 0 {
		errs = append(errs, ValidationError{"retry_interval_ms", "must be positive"})
	}
	if c.MaxTries < 1 {
		errs = append(errs, ValidationError{"max_tries", "must be at least 1"})
	}
	if c.PollIntervalMs <= 0 {
		errs = append(errs, ValidationError{"poll_interval_ms", "must be positive"})
	}
	if c.QueueCapacity < 1 {
		errs = append(errs, ValidationError{"queue_capacity", "must be at least 1"})
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{"logging.format", fmt.Sprintf("unknown format %q", c.Logging.Format)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Clone returns a copy of the configuration safe for a reader goroutine to
// keep using while another goroutine installs a freshly reloaded one. It
// copies fields explicitly rather than dereferencing *c wholesale, since c
// embeds a sync.RWMutex that must not itself be copied.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := &Config{
		Device:          c.Device,
		Protocol:        c.Protocol,
		BaudRate:        c.BaudRate,
		RetryIntervalMs: c.RetryIntervalMs,
		MaxTries:        c.MaxTries,
		PollIntervalMs:  c.PollIntervalMs,
		QueueCapacity:   c.QueueCapacity,
		DictionaryPath:  c.DictionaryPath,
		SessionLogPath:  c.SessionLogPath,
		Logging:         c.Logging,
	}
	return clone
}

// DefaultConfigPath returns the default configuration file location,
// honoring XDG_CONFIG_HOME like the rest of the corpus's per-platform path
// helpers.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "stenod", "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "stenod", "config.toml")
}
