package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Browser   BrowserConfig `yaml:"browser"`
	Crawler   CrawlerConfig `yaml:"crawler"`
	Output    OutputConfig  `yaml:"output"`
	Log       LogConfig     `yaml:"log"`
	Selectors Selectors     `yaml:"selectors"`
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool `yaml:"headless"` // default: true

	// ProxyURL is passed to the launcher when set.
	ProxyURL string `yaml:"proxy_url"`

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `yaml:"no_sandbox"` // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browser_bin"`

	// Stealth injects the go-rod/stealth evasions before navigation.
	Stealth bool `yaml:"stealth"` // default: true

	UserAgent    string `yaml:"user_agent"`
	WindowWidth  int    `yaml:"window_width"`  // default: 1920
	WindowHeight int    `yaml:"window_height"` // default: 1080
}

// CrawlerConfig controls the screener interaction sequence.
type CrawlerConfig struct {
	BaseURL string `yaml:"base_url"`

	// Region is used when no region argument is given.
	Region string `yaml:"region"` // default: "Argentina"

	// DefaultRegion is the region the screener pre-selects and that must be
	// unchecked before the target region is picked.
	DefaultRegion string `yaml:"default_region"` // default: "United States"

	// MaxRows is the largest page size offered by the rows-per-page menu.
	MaxRows int `yaml:"max_rows"` // default: 100

	// MaxPages caps the number of extracted pages; -1 means no limit.
	MaxPages int `yaml:"max_pages"` // default: -1

	FilterTimeout     time.Duration `yaml:"filter_timeout"`      // default: 20s
	PageSizeTimeout   time.Duration `yaml:"page_size_timeout"`   // default: 10s
	PageChangeTimeout time.Duration `yaml:"page_change_timeout"` // default: 10s
	PollInterval      time.Duration `yaml:"poll_interval"`       // default: 500ms

	// PageChangeFallback is slept when the sentinel did not change in time.
	PageChangeFallback time.Duration `yaml:"page_change_fallback"` // default: 2s

	DeselectDelay time.Duration `yaml:"deselect_delay"` // default: 500ms
	SearchDelay   time.Duration `yaml:"search_delay"`   // default: 1.5s
	SettleDelay   time.Duration `yaml:"settle_delay"`   // default: 3s
}

// OutputConfig controls where results and diagnostics are written.
type OutputConfig struct {
	Dir            string `yaml:"dir"`             // default: "outputs"
	Format         string `yaml:"format"`          // default: "csv"
	DiagnosticsDir string `yaml:"diagnostics_dir"` // default: "."
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "console"; default: "console"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:     true,
			NoSandbox:    true,
			Stealth:      true,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Crawler: CrawlerConfig{
			BaseURL:            "https://finance.yahoo.com/research-hub/screener/equity/",
			Region:             "Argentina",
			DefaultRegion:      "United States",
			MaxRows:            100,
			MaxPages:           -1,
			FilterTimeout:      20 * time.Second,
			PageSizeTimeout:    10 * time.Second,
			PageChangeTimeout:  10 * time.Second,
			PollInterval:       500 * time.Millisecond,
			PageChangeFallback: 2 * time.Second,
			DeselectDelay:      500 * time.Millisecond,
			SearchDelay:        1500 * time.Millisecond,
			SettleDelay:        3 * time.Second,
		},
		Output: OutputConfig{
			Dir:            "outputs",
			Format:         "csv",
			DiagnosticsDir: ".",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Selectors: DefaultSelectors(),
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then EQCRAWL_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	b := &cfg.Browser
	b.Headless = envBoolOr("EQCRAWL_HEADLESS", b.Headless)
	b.ProxyURL = envOr("EQCRAWL_PROXY", b.ProxyURL)
	b.NoSandbox = envBoolOr("EQCRAWL_NO_SANDBOX", b.NoSandbox)
	b.BrowserBin = envOr("EQCRAWL_BROWSER_BIN", b.BrowserBin)
	b.Stealth = envBoolOr("EQCRAWL_STEALTH", b.Stealth)
	b.UserAgent = envOr("EQCRAWL_USER_AGENT", b.UserAgent)

	c := &cfg.Crawler
	c.BaseURL = envOr("EQCRAWL_BASE_URL", c.BaseURL)
	c.Region = envOr("EQCRAWL_REGION", c.Region)
	c.DefaultRegion = envOr("EQCRAWL_DEFAULT_REGION", c.DefaultRegion)
	c.MaxRows = envIntOr("EQCRAWL_MAX_ROWS", c.MaxRows)
	c.MaxPages = envIntOr("EQCRAWL_MAX_PAGES", c.MaxPages)
	c.FilterTimeout = envDurationOr("EQCRAWL_FILTER_TIMEOUT", c.FilterTimeout)
	c.PageSizeTimeout = envDurationOr("EQCRAWL_PAGE_SIZE_TIMEOUT", c.PageSizeTimeout)
	c.PageChangeTimeout = envDurationOr("EQCRAWL_PAGE_CHANGE_TIMEOUT", c.PageChangeTimeout)
	c.PollInterval = envDurationOr("EQCRAWL_POLL_INTERVAL", c.PollInterval)
	c.PageChangeFallback = envDurationOr("EQCRAWL_PAGE_CHANGE_FALLBACK", c.PageChangeFallback)
	c.DeselectDelay = envDurationOr("EQCRAWL_DESELECT_DELAY", c.DeselectDelay)
	c.SearchDelay = envDurationOr("EQCRAWL_SEARCH_DELAY", c.SearchDelay)
	c.SettleDelay = envDurationOr("EQCRAWL_SETTLE_DELAY", c.SettleDelay)

	o := &cfg.Output
	o.Dir = envOr("EQCRAWL_OUTPUT_DIR", o.Dir)
	o.Format = envOr("EQCRAWL_FORMAT", o.Format)
	o.DiagnosticsDir = envOr("EQCRAWL_DIAGNOSTICS_DIR", o.DiagnosticsDir)

	cfg.Log.Level = envOr("EQCRAWL_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOr("EQCRAWL_LOG_FORMAT", cfg.Log.Format)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Crawler.BaseURL == "" {
		return fmt.Errorf("crawler.base_url must not be empty")
	}
	if c.Crawler.MaxRows <= 0 {
		return fmt.Errorf("crawler.max_rows must be positive, got %d", c.Crawler.MaxRows)
	}
	if c.Crawler.PollInterval <= 0 {
		return fmt.Errorf("crawler.poll_interval must be positive, got %s", c.Crawler.PollInterval)
	}
	if c.Crawler.MaxPages == 0 || c.Crawler.MaxPages < -1 {
		return fmt.Errorf("crawler.max_pages must be -1 or positive, got %d", c.Crawler.MaxPages)
	}
	return c.Selectors.Validate()
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
