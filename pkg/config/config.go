// Package config loads statbridge settings.
//
// Settings are layered, later layers winning:
//
//  1. [Default]
//  2. a TOML file, by default $XDG_CONFIG_HOME/statbridge/config.toml
//  3. a .env file in the working directory (never overriding the process
//     environment)
//  4. environment variables
//
// CLI flags are applied by the caller on top of the loaded value.
//
// # File Format
//
//	addr = ":8080"
//	max_in_flight = 8
//	timeout = "30s"
//
//	[retry]
//	max_retries = 3
//	initial_delay = "1s"
//
//	[estat]
//	app_id = "..."
//	rate_limit = { max_requests = 10, interval = "1s" }
//
//	[oecd]
//	enabled = false
//
// # Environment
//
// ESTAT_APP_ID (or ESTAT_API_KEY) sets the e-Stat credential. STATBRIDGE_ADDR,
// STATBRIDGE_MAX_IN_FLIGHT, STATBRIDGE_TIMEOUT and STATBRIDGE_DUMP_DIR
// override the matching settings.
// Each source also reads <SOURCE>_BASE_URL and <SOURCE>_ENABLED, for example
// WORLDBANK_BASE_URL or EUROSTAT_ENABLED=false.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/statbridge/pkg/errors"
	"github.com/matzehuels/statbridge/pkg/httputil"
	"github.com/matzehuels/statbridge/pkg/integrations"
	"github.com/matzehuels/statbridge/pkg/integrations/estat"
	"github.com/matzehuels/statbridge/pkg/integrations/eurostat"
	"github.com/matzehuels/statbridge/pkg/integrations/oecd"
	"github.com/matzehuels/statbridge/pkg/integrations/worldbank"
)

const appName = "statbridge"

// Defaults.
const (
	DefaultAddr        = "127.0.0.1:8080"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxInFlight = 8
)

// Source holds the settings of one upstream.
type Source struct {
	Enabled   bool           `toml:"enabled"`
	BaseURL   string         `toml:"base_url"`
	RateLimit httputil.Limit `toml:"rate_limit"`
}

// EStat adds the application id to the common source settings.
type EStat struct {
	Source
	AppID string `toml:"app_id"`
}

// Config is the complete runtime configuration.
type Config struct {
	Addr        string          `toml:"addr"`
	MaxInFlight int             `toml:"max_in_flight"`
	Timeout     time.Duration   `toml:"timeout"`
	DumpDir     string          `toml:"dump_dir"`
	Retry       httputil.Policy `toml:"retry"`

	EStat     EStat  `toml:"estat"`
	WorldBank Source `toml:"worldbank"`
	OECD      Source `toml:"oecd"`
	Eurostat  Source `toml:"eurostat"`
}

// Default returns the built-in configuration: every source enabled at its
// public endpoint, e-Stat at 10 requests per second and the others at 5.
func Default() *Config {
	return &Config{
		Addr:        DefaultAddr,
		MaxInFlight: DefaultMaxInFlight,
		Timeout:     DefaultTimeout,
		Retry:       httputil.DefaultPolicy(),
		EStat: EStat{Source: Source{
			Enabled:   true,
			BaseURL:   estat.DefaultBaseURL,
			RateLimit: httputil.PerSecond(10),
		}},
		WorldBank: Source{Enabled: true, BaseURL: worldbank.DefaultBaseURL, RateLimit: httputil.DefaultLimit},
		OECD:      Source{Enabled: true, BaseURL: oecd.DefaultBaseURL, RateLimit: httputil.DefaultLimit},
		Eurostat:  Source{Enabled: true, BaseURL: eurostat.DefaultBaseURL, RateLimit: httputil.DefaultLimit},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load builds the configuration from all layers. An empty path reads the
// default location and tolerates its absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			if explicit || !stderrors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFile decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables read with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("ESTAT_APP_ID"); v != "" {
		c.EStat.AppID = v
	} else if v := getenv("ESTAT_API_KEY"); v != "" {
		c.EStat.AppID = v
	}
	if v := getenv("STATBRIDGE_ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv("STATBRIDGE_MAX_IN_FLIGHT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STATBRIDGE_MAX_IN_FLIGHT: %w", err)
		}
		c.MaxInFlight = n
	}
	if v := getenv("STATBRIDGE_DUMP_DIR"); v != "" {
		c.DumpDir = v
	}
	if v := getenv("STATBRIDGE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STATBRIDGE_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}

	for _, id := range integrations.Sources {
		s := c.Source(id)
		prefix := strings.ToUpper(id)
		if v := getenv(prefix + "_BASE_URL"); v != "" {
			s.BaseURL = v
		}
		if v := getenv(prefix + "_ENABLED"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s_ENABLED: %w", prefix, err)
			}
			s.Enabled = b
		}
	}
	return nil
}

// Source returns the settings of a source id, or nil for an unknown id.
func (c *Config) Source(id string) *Source {
	switch id {
	case integrations.SourceEStat:
		return &c.EStat.Source
	case integrations.SourceWorldBank:
		return &c.WorldBank
	case integrations.SourceOECD:
		return &c.OECD
	case integrations.SourceEurostat:
		return &c.Eurostat
	}
	return nil
}

// Enabled reports whether source id is configured and switched on.
func (c *Config) Enabled(id string) bool {
	s := c.Source(id)
	return s != nil && s.Enabled
}

// Limits returns the per-source rate limits.
func (c *Config) Limits() map[string]httputil.Limit {
	out := make(map[string]httputil.Limit, len(integrations.Sources))
	for _, id := range integrations.Sources {
		out[id] = c.Source(id).RateLimit
	}
	return out
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return errors.Invalid("timeout", "timeout must be positive")
	}
	if c.MaxInFlight < 0 {
		return errors.Invalid("max_in_flight", "max_in_flight must not be negative")
	}
	if c.Retry.MaxRetries < 0 {
		return errors.Invalid("retry.max_retries", "max_retries must not be negative")
	}
	if c.Retry.Multiplier < 1 {
		return errors.Invalid("retry.multiplier", "multiplier must be at least 1")
	}
	for _, id := range integrations.Sources {
		s := c.Source(id)
		if !s.Enabled {
			continue
		}
		if err := errors.ValidateURL(id+".base_url", s.BaseURL); err != nil {
			return err
		}
		if s.RateLimit.MaxRequests < 0 || s.RateLimit.Interval < 0 {
			return errors.Invalid(id+".rate_limit", "rate limit must not be negative")
		}
	}
	return nil
}
