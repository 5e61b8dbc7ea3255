package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"seatfinder/internal/browser"
	"seatfinder/internal/finder"
	"seatfinder/internal/search"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for its config when none is given.
const DefaultPath = "config.json"

// Parity values select the public timetable of odd or even years.
const (
	ParityOdd     = "odd"
	ParityEven    = "even"
	ParityDefault = "default" // by the current year
)

// Config holds all seatfinder configuration. JSON documents decode as YAML.
type Config struct {
	// Run mode
	Parallel    bool `yaml:"parallel" json:"parallel"`
	MaxParallel int  `yaml:"max_parallel" json:"max_parallel" validate:"gte=0"`
	Headless    bool `yaml:"headless" json:"headless"`
	// Port pins Chrome's debugging port; zero picks a free one per session.
	Port int `yaml:"port" json:"port" validate:"omitempty,gte=1024,lte=65535"`

	// Timetable selection
	Parity string `yaml:"parity" json:"parity" validate:"omitempty,oneof=odd even default"`
	URL    string `yaml:"url" json:"url" validate:"omitempty,url"`

	Browser  BrowserConfig `yaml:"browser" json:"browser"`
	Search   SearchConfig  `yaml:"search" json:"search"`
	Locators LocatorConfig `yaml:"locators" json:"locators"`
	History  HistoryConfig `yaml:"history" json:"history"`
	Logging  LoggingConfig `yaml:"logging" json:"logging"`
	Queries  []QueryConfig `yaml:"queries" json:"queries" validate:"required,min=1,dive"`
}

// BrowserConfig configures Chrome.
type BrowserConfig struct {
	ChromeBin         string   `yaml:"chrome_bin" json:"chrome_bin"`
	DebuggerURL       string   `yaml:"debugger_url" json:"debugger_url" validate:"omitempty,url"`
	Flags             []string `yaml:"flags" json:"flags"`
	ViewportWidth     int      `yaml:"viewport_width" json:"viewport_width" validate:"gte=0"`
	ViewportHeight    int      `yaml:"viewport_height" json:"viewport_height" validate:"gte=0"`
	NavigationTimeout string   `yaml:"navigation_timeout" json:"navigation_timeout" validate:"omitempty,duration"`
	LocateTimeout     string   `yaml:"locate_timeout" json:"locate_timeout" validate:"omitempty,duration"`
}

// SearchConfig tunes the day-column scan.
type SearchConfig struct {
	MaxReloads int `yaml:"max_reloads" json:"max_reloads" validate:"gte=0"`
	// QueryTimeout bounds one query's whole resolution; empty means none.
	QueryTimeout string `yaml:"query_timeout" json:"query_timeout" validate:"omitempty,duration"`
}

// HistoryConfig configures the result history database.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Path is relative to the config file's directory unless absolute.
	Path string `yaml:"path" json:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Parity: ParityDefault,
		Browser: BrowserConfig{
			ViewportWidth:     1920,
			ViewportHeight:    1080,
			NavigationTimeout: "30s",
			LocateTimeout:     "10s",
		},
		Search: SearchConfig{
			MaxReloads: search.DefaultMaxReloads,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(".seatfinder", "history.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Starter returns the defaults plus one example query, as written by
// "seatfinder init".
func Starter() *Config {
	cfg := DefaultConfig()
	activity := uint64(1)
	cfg.Queries = []QueryConfig{{
		UnitCode:     "COMP1234",
		Semester:     "1",
		Day:          "Monday",
		ActivityType: "Lab",
		Activity:     &activity,
		StartAfter:   "09:00",
	}}
	return cfg
}

// Load loads configuration from a YAML or JSON file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v, ok := envBool("SEATFINDER_HEADLESS"); ok {
		c.Headless = v
	}
	if v, ok := envBool("SEATFINDER_PARALLEL"); ok {
		c.Parallel = v
	}
	if v := os.Getenv("SEATFINDER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("SEATFINDER_PARITY"); v != "" {
		c.Parity = strings.ToLower(v)
	}
	if v := os.Getenv("SEATFINDER_CHROME_BIN"); v != "" {
		c.Browser.ChromeBin = v
	}
	if v := os.Getenv("SEATFINDER_DEBUGGER_URL"); v != "" {
		c.Browser.DebuggerURL = v
	}

	// Database path from environment
	if path := os.Getenv("SEATFINDER_DB"); path != "" {
		c.History.Path = path
	}
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// TimetableURL returns the explicit url, or the public timetable for the
// configured parity (the year of now for "default").
func (c *Config) TimetableURL(now time.Time) string {
	if c.URL != "" {
		return c.URL
	}
	switch c.Parity {
	case ParityOdd:
		return finder.PublicTimetableOdd
	case ParityEven:
		return finder.PublicTimetableEven
	default:
		return finder.PublicTimetableURL(now.Year())
	}
}

// BrowserOptions converts the browser settings for browser.NewSessionManager.
func (c *Config) BrowserOptions() browser.Config {
	bc := browser.DefaultConfig()
	bc.Headless = c.Headless
	bc.Port = c.Port
	bc.ChromeBin = c.Browser.ChromeBin
	bc.DebuggerURL = c.Browser.DebuggerURL
	bc.Flags = c.Browser.Flags
	if c.Browser.ViewportWidth > 0 {
		bc.ViewportWidth = c.Browser.ViewportWidth
	}
	if c.Browser.ViewportHeight > 0 {
		bc.ViewportHeight = c.Browser.ViewportHeight
	}
	bc.NavigationTimeout = duration(c.Browser.NavigationTimeout, bc.NavigationTimeout)
	bc.LocateTimeout = duration(c.Browser.LocateTimeout, bc.LocateTimeout)
	return bc
}

// RetryPolicy returns the extractor's reload bound.
func (c *Config) RetryPolicy() search.RetryPolicy {
	return search.RetryPolicy{MaxReloads: c.Search.MaxReloads}
}

// GetQueryTimeout returns the per-query timeout, zero when unset.
func (c *Config) GetQueryTimeout() time.Duration {
	return duration(c.Search.QueryTimeout, 0)
}

// HistoryPath resolves the history database path against dir.
func (c *Config) HistoryPath(dir string) string {
	if c.History.Path == "" || filepath.IsAbs(c.History.Path) {
		return c.History.Path
	}
	return filepath.Join(dir, c.History.Path)
}

// duration parses s, which Validate has already checked.
func duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
