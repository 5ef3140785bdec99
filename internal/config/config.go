package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"

	"github.com/Tiliavir/punch/internal/storage"
)

// Config is the root configuration for punch, stored in ~/.punch/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	// APIBaseURL is the timesheet API root, without trailing slash.
	APIBaseURL string `json:"api_base_url"`
	// Timezone is the IANA zone used for "today" and for displayed times.
	// Empty = the machine's local zone.
	Timezone string `json:"timezone"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level"`
	// AuthTimeoutSeconds bounds the identity-provider configuration fetch.
	AuthTimeoutSeconds int `json:"auth_timeout_seconds"`
	// RequestsPerMinute caps outgoing calls per endpoint.
	RequestsPerMinute int `json:"requests_per_minute"`
	// ExportDir is where exported timesheets are written. Empty = current directory.
	ExportDir string `json:"export_dir"`
}

const (
	DefaultAPIBaseURL         = "https://api.vibesheets.com"
	DefaultLogLevel           = "warn"
	DefaultAuthTimeoutSeconds = 10
	DefaultRequestsPerMinute  = 30
)

// Environment overrides, applied after the file is read.
const (
	EnvAPIURL   = "PUNCH_API_URL"
	EnvLogLevel = "PUNCH_LOG_LEVEL"
)

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig() Config {
	return Config{
		APIBaseURL:         DefaultAPIBaseURL,
		LogLevel:           DefaultLogLevel,
		AuthTimeoutSeconds: DefaultAuthTimeoutSeconds,
		RequestsPerMinute:  DefaultRequestsPerMinute,
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// punch configuration – ~/.punch/config.json
//
// All settings are optional; the built-in defaults shown below work out of
// the box. Environment variables PUNCH_API_URL and PUNCH_LOG_LEVEL override
// the values in this file.
{
  // Root URL of the timesheet API.
  "api_base_url": "https://api.vibesheets.com",

  // IANA timezone deciding what "today" is and how times are shown,
  // e.g. "Europe/Berlin". Leave empty to use the local zone.
  "timezone": "",

  // One of: debug, info, warn, error. Logs go to stderr.
  "log_level": "warn",

  // Seconds to wait for the sign-in configuration before giving up.
  "auth_timeout_seconds": 10,

  // Client-side limit of calls per minute to any one endpoint.
  "requests_per_minute": 30,

  // Directory for exported timesheets. Empty = current directory.
  "export_dir": ""
}
`

// FilePath returns the path to the config file inside the data directory.
func FilePath() (string, error) {
	base, err := storage.BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads the config file, creating it with annotated defaults on first
// run, then applies environment overrides.
func Load() (Config, error) {
	path, err := FilePath()
	if err != nil {
		return applyEnv(defaultConfig()), err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return applyEnv(defaultConfig()), nil
	}
	if err != nil {
		return applyEnv(defaultConfig()), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := sonic.Unmarshal(cleaned, &cfg); err != nil {
		return applyEnv(defaultConfig()), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	def := defaultConfig()
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = def.APIBaseURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.AuthTimeoutSeconds <= 0 {
		cfg.AuthTimeoutSeconds = def.AuthTimeoutSeconds
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}

	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

// Location resolves Timezone, falling back to the local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// AuthTimeout is AuthTimeoutSeconds as a duration.
func (c Config) AuthTimeout() time.Duration {
	return time.Duration(c.AuthTimeoutSeconds) * time.Second
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
