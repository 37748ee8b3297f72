// Package service wraps the extraction core in the surrounding layer:
// yaml configuration, a synchronous HTTP API, MCP tool registration, a
// results store, and output rendering. The core packages never import it.
package service

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/revpull/parse"
	"github.com/hazyhaar/revpull/pipeline"
)

// Config is the top-level service configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Extract ExtractConfig `yaml:"extract"`
	Store   StoreConfig   `yaml:"store"`
	Serve   ServeConfig   `yaml:"serve"`
}

// BrowserConfig controls how pages are acquired.
type BrowserConfig struct {
	// Mode is "browser" (Chrome via Rod, the default) or "http" (single
	// GET, for targets known to render server-side).
	Mode string `yaml:"mode"`

	// Remote is the WebSocket URL of an external Chrome. Empty = launch
	// locally.
	Remote string `yaml:"remote"`

	// Headful disables headless mode for debugging.
	Headful bool `yaml:"headful"`

	NavTimeout       time.Duration `yaml:"nav_timeout"`
	QuietInterval    time.Duration `yaml:"quiet_interval"`
	ResourceBlocking []string      `yaml:"resource_blocking"`

	// ScrollContainer is the scrollable feed element; empty scrolls the
	// window.
	ScrollContainer string `yaml:"scroll_container"`
}

// ExtractConfig bounds and tunes a run.
type ExtractConfig struct {
	MaxIterations    int           `yaml:"max_iterations"`
	MaxDuration      time.Duration `yaml:"max_duration"`
	NoNewThreshold   int           `yaml:"no_new_threshold"`
	RetryAttempts    int           `yaml:"retry_attempts"`
	RetryBackoffBase time.Duration `yaml:"retry_backoff_base"`

	// LoadMoreSelector enables the click-then-scroll strategy. Empty =
	// scroll only.
	LoadMoreSelector string `yaml:"load_more_selector"`

	ExpandSelector  string `yaml:"expand_selector"`
	ExpandMaxPasses int    `yaml:"expand_max_passes"`

	// Selectors overrides the parser's fallback chains; zero-value fields
	// keep the defaults.
	Selectors parse.Selectors `yaml:"selectors"`
}

// StoreConfig enables run persistence.
type StoreConfig struct {
	// Path of the SQLite database. Empty disables the store.
	Path string `yaml:"path"`
}

// ServeConfig configures the HTTP API.
type ServeConfig struct {
	Addr string `yaml:"addr"`

	// AuthUser + AuthHash (bcrypt) enable Basic Auth on /api. Both empty
	// = no auth, for local use only.
	AuthUser string `yaml:"auth_user"`
	AuthHash string `yaml:"auth_hash"`
}

// LoadConfigFile reads a YAML configuration file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Browser.Mode == "" {
		c.Browser.Mode = "browser"
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}
	if c.Browser.QuietInterval <= 0 {
		c.Browser.QuietInterval = 500 * time.Millisecond
	}
	if c.Browser.ScrollContainer == "" {
		c.Browser.ScrollContainer = ".business-reviews-card-view__reviews-container"
	}
	if c.Extract.MaxIterations <= 0 {
		c.Extract.MaxIterations = 100
	}
	if c.Extract.MaxDuration <= 0 {
		c.Extract.MaxDuration = 10 * time.Minute
	}
	if c.Extract.NoNewThreshold <= 0 {
		c.Extract.NoNewThreshold = 3
	}
	if c.Extract.RetryAttempts <= 0 {
		c.Extract.RetryAttempts = 5
	}
	if c.Extract.RetryBackoffBase <= 0 {
		c.Extract.RetryBackoffBase = 500 * time.Millisecond
	}
	if c.Extract.ExpandSelector == "" {
		c.Extract.ExpandSelector = pipeline.DefaultExpandSelector
	}
	if c.Extract.ExpandMaxPasses <= 0 {
		c.Extract.ExpandMaxPasses = 10
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = ":8086"
	}
}
