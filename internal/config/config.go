// Package config provides configuration management for the screener.
package config

import (
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/eddiefleurent/wheelhouse/internal/models"
)

// Default filter values, matching the screener's stock presets.
const (
	defaultMinDelta     = 0.15
	defaultMaxDelta     = 0.35
	defaultMinDTE       = 20
	defaultMaxDTE       = 50
	defaultMinReturn    = 0.5
	defaultTop          = 25
	defaultRiskFreeRate = 0.045
	defaultParallelism  = 4
)

// Watchlists bundled with the screener.
var (
	// DefaultTickers is the broad liquid-underlying watchlist.
	DefaultTickers = []string{
		"SPY", "QQQ", "AAPL", "MSFT", "AMZN", "GOOGL", "NVDA", "AMD",
		"META", "TSLA", "KO", "PEP", "JNJ", "JPM", "BAC",
	}
	// AITechTickers is the curated AI, semiconductor, and datacenter watchlist.
	AITechTickers = []string{
		"NVDA", "AMD", "TSM", "AVGO", "MRVL", "ARM", "MU", "INTC", "QCOM", "SMCI",
		"MSFT", "GOOGL", "META", "AMZN", "PLTR", "CRM", "SNOW", "ORCL", "NOW",
		"EQIX", "DLR", "VRT", "ANET", "TSLA", "CRWD", "ZS", "UBER",
	}
	// IncomeTickers is the high-premium mega-cap income watchlist.
	IncomeTickers = []string{
		"NVDA", "AMZN", "TSLA", "GOOGL", "AMD", "META",
		"MSFT", "AAPL", "AVGO", "MU", "SMCI", "PLTR",
	}
)

// Config represents the complete application configuration.
type Config struct {
	LogLevel     string             `yaml:"log_level"`
	Provider     ProviderConfig     `yaml:"provider"`
	Scan         ScanConfig         `yaml:"scan"`
	Fundamentals FundamentalsConfig `yaml:"fundamentals"`
	Dashboard    DashboardConfig    `yaml:"dashboard"`
}

// ProviderConfig defines market data provider settings.
type ProviderConfig struct {
	Name    string `yaml:"name"` // tradier | mock
	APIKey  string `yaml:"api_key"`
	Sandbox bool   `yaml:"sandbox"`
}

// ScanConfig defines the strategy mode, the symbol universe, and the
// per-candidate filter bounds.
type ScanConfig struct {
	Mode         string   `yaml:"mode"`      // csp | spread | butterfly
	Watchlist    string   `yaml:"watchlist"` // default | ai-tech | income | custom
	Tickers      []string `yaml:"tickers"`   // used with watchlist: custom
	Preset       string   `yaml:"preset"`    // "" | income | aggressive
	MinDelta     float64  `yaml:"min_delta"`
	MaxDelta     float64  `yaml:"max_delta"`
	MinDTE       int      `yaml:"min_dte"`
	MaxDTE       int      `yaml:"max_dte"`
	MinReturn    float64  `yaml:"min_return"` // monthly, percent
	MinIVRank    float64  `yaml:"min_iv_rank"`
	Top          int      `yaml:"top"`
	RiskFreeRate float64  `yaml:"risk_free_rate"`
	Parallelism  int      `yaml:"parallelism"`
}

// FundamentalsConfig defines the optional ticker-level pre-filters.
// Nil thresholds are inactive.
type FundamentalsConfig struct {
	MinGrossMargin   *float64 `yaml:"min_gross_margin"`
	MinFCFYield      *float64 `yaml:"min_fcf_yield"`
	MinRevenueGrowth *float64 `yaml:"min_revenue_growth"`
	Sector           string   `yaml:"sector"`
}

// DashboardConfig defines the optional results server.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.applyDefaults()
	config.ApplyPreset()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// applyDefaults fills unset values with the stock defaults.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Provider.Name == "" {
		c.Provider.Name = "tradier"
	}
	if c.Scan.Mode == "" {
		c.Scan.Mode = string(models.StrategyCSP)
	}
	if c.Scan.Watchlist == "" {
		c.Scan.Watchlist = "default"
	}
	if c.Scan.MinDelta == 0 && c.Scan.MaxDelta == 0 {
		c.Scan.MinDelta = defaultMinDelta
		c.Scan.MaxDelta = defaultMaxDelta
	}
	if c.Scan.MinDTE == 0 && c.Scan.MaxDTE == 0 {
		c.Scan.MinDTE = defaultMinDTE
		c.Scan.MaxDTE = defaultMaxDTE
	}
	if c.Scan.MinReturn == 0 {
		c.Scan.MinReturn = defaultMinReturn
	}
	if c.Scan.Top == 0 {
		c.Scan.Top = defaultTop
	}
	if c.Scan.RiskFreeRate == 0 {
		c.Scan.RiskFreeRate = defaultRiskFreeRate
	}
	if c.Scan.Parallelism == 0 {
		c.Scan.Parallelism = defaultParallelism
	}
	if c.Dashboard.Enabled && c.Dashboard.Port == 0 {
		c.Dashboard.Port = 9090
	}
}

// ApplyPreset overlays the named preset onto the scan settings.
// The income preset tightens deltas to the 0.15-0.25 band and swaps the
// default watchlist for the income list; explicit user values win. The
// aggressive preset demands elevated IV rank and at least 1% monthly.
// Load calls this after defaults; callers that change Scan.Preset later
// (flag overrides) must call it again before Validate.
func (c *Config) ApplyPreset() {
	switch c.Scan.Preset {
	case "income":
		if c.Scan.MinDelta == defaultMinDelta && c.Scan.MaxDelta == defaultMaxDelta {
			c.Scan.MinDelta = 0.15
			c.Scan.MaxDelta = 0.25
		}
		if c.Scan.Watchlist == "default" {
			c.Scan.Watchlist = "income"
		}
	case "aggressive":
		c.Scan.MinIVRank = 50
		c.Scan.MinReturn = 1.0
		c.Scan.MinDelta = 0.20
		c.Scan.MaxDelta = 0.35
		c.Scan.MinDTE = 20
		c.Scan.MaxDTE = 50
	}
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error")
	}

	switch c.Provider.Name {
	case "tradier":
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider.api_key is required for tradier")
		}
	case "mock":
	default:
		return fmt.Errorf("provider.name must be 'tradier' or 'mock'")
	}

	switch c.Scan.Mode {
	case string(models.StrategyCSP), string(models.StrategySpread), string(models.StrategyButterfly):
	default:
		return fmt.Errorf("scan.mode must be 'csp', 'spread', or 'butterfly'")
	}

	switch c.Scan.Preset {
	case "", "income", "aggressive":
	default:
		return fmt.Errorf("scan.preset must be empty, 'income', or 'aggressive'")
	}

	switch c.Scan.Watchlist {
	case "default", "ai-tech", "income":
	case "custom":
		if len(c.Scan.Tickers) == 0 {
			return fmt.Errorf("scan.tickers is required with watchlist 'custom'")
		}
	default:
		return fmt.Errorf("scan.watchlist must be 'default', 'ai-tech', 'income', or 'custom'")
	}

	if c.Scan.MinDelta <= 0 || c.Scan.MinDelta >= 1 {
		return fmt.Errorf("scan.min_delta must be in (0,1)")
	}
	if c.Scan.MaxDelta <= c.Scan.MinDelta || c.Scan.MaxDelta > 1 {
		return fmt.Errorf("scan.max_delta must be greater than min_delta and at most 1")
	}
	if c.Scan.MinDTE < 0 || c.Scan.MaxDTE < c.Scan.MinDTE {
		return fmt.Errorf("scan DTE range must satisfy 0 <= min_dte <= max_dte")
	}
	if c.Scan.MinReturn < 0 {
		return fmt.Errorf("scan.min_return must be >= 0")
	}
	if c.Scan.MinIVRank < 0 || c.Scan.MinIVRank > 100 {
		return fmt.Errorf("scan.min_iv_rank must be between 0 and 100")
	}
	if c.Scan.Top <= 0 {
		return fmt.Errorf("scan.top must be > 0")
	}
	if c.Scan.RiskFreeRate < 0 || c.Scan.RiskFreeRate > 0.25 {
		return fmt.Errorf("scan.risk_free_rate must be between 0 and 0.25")
	}
	if c.Scan.Parallelism <= 0 {
		return fmt.Errorf("scan.parallelism must be > 0")
	}

	if c.Fundamentals.MinGrossMargin != nil &&
		(*c.Fundamentals.MinGrossMargin < 0 || *c.Fundamentals.MinGrossMargin > 100) {
		return fmt.Errorf("fundamentals.min_gross_margin must be between 0 and 100")
	}
	if c.Dashboard.Enabled && (c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535) {
		return fmt.Errorf("dashboard.port must be a valid TCP port")
	}

	return nil
}

// Tickers resolves the configured watchlist to its symbol list.
func (c *Config) Tickers() []string {
	switch c.Scan.Watchlist {
	case "ai-tech":
		return AITechTickers
	case "income":
		return IncomeTickers
	case "custom":
		return c.Scan.Tickers
	default:
		return DefaultTickers
	}
}

// Mode returns the configured scan mode as a strategy type.
func (c *Config) Mode() models.StrategyType {
	return models.StrategyType(c.Scan.Mode)
}
