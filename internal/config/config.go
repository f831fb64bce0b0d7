// Package config handles configuration loading for FilingLens.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Retrieval RetrievalConfig `mapstructure:"retrieval" yaml:"retrieval"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"  yaml:"analysis"`
	Alerts    AlertThresholds `mapstructure:"alerts"    yaml:"alerts"`
	Forecast  ForecastConfig  `mapstructure:"forecast"  yaml:"forecast"`
	Synonyms  SynonymsConfig  `mapstructure:"synonyms"  yaml:"synonyms"`
	Rules     RulesConfig     `mapstructure:"rules"     yaml:"rules"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// RetrievalConfig holds SEC EDGAR retrieval settings.
type RetrievalConfig struct {
	Source     string  `mapstructure:"source"      yaml:"source"`      // "edgar" or "fixture"
	UserAgent  string  `mapstructure:"user_agent"  yaml:"user_agent"`  // SEC requires a descriptive UA with contact info
	BaseURL    string  `mapstructure:"base_url"    yaml:"base_url"`
	FixtureDir string  `mapstructure:"fixture_dir" yaml:"fixture_dir"` // directory of JSON filings for the fixture source
	CacheDir   string  `mapstructure:"cache_dir"   yaml:"cache_dir"`
	CacheTTL   int     `mapstructure:"cache_ttl"   yaml:"cache_ttl"`   // seconds
	RateLimit  float64 `mapstructure:"rate_limit"  yaml:"rate_limit"`  // requests per second; SEC allows at most 10
	TimeoutSec int     `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	MaxRetries int     `mapstructure:"max_retries" yaml:"max_retries"`
}

// AnalysisConfig holds the analysis window and batch settings.
type AnalysisConfig struct {
	Years             int `mapstructure:"years"              yaml:"years"`    // annual filings per ticker
	Quarters          int `mapstructure:"quarters"           yaml:"quarters"` // quarterly filings per ticker
	ConcurrentTickers int `mapstructure:"concurrent_tickers" yaml:"concurrent_tickers"`
}

// AlertThresholds holds the cutoffs that trigger single-filing and
// multi-period alerts. All comparisons are strict.
type AlertThresholds struct {
	MarginFloor           float64 `mapstructure:"margin_floor"            yaml:"margin_floor"`            // net margin %, alert below
	LeverageCeiling       float64 `mapstructure:"leverage_ceiling"        yaml:"leverage_ceiling"`        // debt-to-equity, alert above
	ROEFloor              float64 `mapstructure:"roe_floor"               yaml:"roe_floor"`               // %, alert when 0 < ROE < floor
	ROAFloor              float64 `mapstructure:"roa_floor"               yaml:"roa_floor"`               // %, alert when 0 < ROA < floor
	NetDebtEBITDACeiling  float64 `mapstructure:"net_debt_ebitda_ceiling" yaml:"net_debt_ebitda_ceiling"` // turns of EBITDA, alert above
	InterestCoverageFloor float64 `mapstructure:"interest_coverage_floor" yaml:"interest_coverage_floor"` // turns, alert below
	FCFStreak             int     `mapstructure:"fcf_streak"              yaml:"fcf_streak"`              // consecutive negative-FCF quarters
	SpikePct              float64 `mapstructure:"spike_pct"               yaml:"spike_pct"`               // QoQ % growth treated as a spike
}

// ForecastConfig selects the revenue forecast strategy.
type ForecastConfig struct {
	Strategy string `mapstructure:"strategy" yaml:"strategy"` // "arima" or "avg-growth"
}

// SynonymsConfig points at an optional label-pattern overlay file.
type SynonymsConfig struct {
	File string `mapstructure:"file" yaml:"file"` // YAML: concept -> ordered label patterns
}

// RulesConfig holds user-defined alert expressions evaluated against
// each filing's metric set.
type RulesConfig struct {
	Expressions []string `mapstructure:"expressions" yaml:"expressions"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `mapstructure:"level"   yaml:"level"`   // "debug", "info", "warn", "error"
	Format  string `mapstructure:"format"  yaml:"format"`  // "text" or "json"
	Tracing bool   `mapstructure:"tracing" yaml:"tracing"` // emit OpenTelemetry spans
}

// DefaultAlertThresholds returns the stock alert cutoffs used when no
// configuration overrides them.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		MarginFloor:           0.0,
		LeverageCeiling:       3.0,
		ROEFloor:              5.0,
		ROAFloor:              2.0,
		NetDebtEBITDACeiling:  3.5,
		InterestCoverageFloor: 2.0,
		FCFStreak:             2,
		SpikePct:              30.0,
	}
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.filinglens/config.yaml (home directory)
//  3. /etc/filinglens/config.yaml (system)
//
// Environment variables override config file values.
// Format: FILINGLENS_<SECTION>_<KEY>, e.g., FILINGLENS_RETRIEVAL_USER_AGENT
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".filinglens"))
	v.AddConfigPath("/etc/filinglens")

	// Environment variable settings
	v.SetEnvPrefix("FILINGLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override selected values from environment
	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("FILINGLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Retrieval defaults
	v.SetDefault("retrieval.source", "edgar")
	v.SetDefault("retrieval.user_agent", DefaultUserAgent)
	v.SetDefault("retrieval.base_url", "https://www.sec.gov")
	v.SetDefault("retrieval.fixture_dir", "testdata/filings")
	v.SetDefault("retrieval.cache_dir", filepath.Join(homeDir(), ".filinglens", "cache"))
	v.SetDefault("retrieval.cache_ttl", 86400) // published filings never change
	v.SetDefault("retrieval.rate_limit", 8.0)
	v.SetDefault("retrieval.timeout_sec", 30)
	v.SetDefault("retrieval.max_retries", 3)

	// Analysis defaults
	v.SetDefault("analysis.years", 3)
	v.SetDefault("analysis.quarters", 10)
	v.SetDefault("analysis.concurrent_tickers", 4)

	// Alert defaults
	def := DefaultAlertThresholds()
	v.SetDefault("alerts.margin_floor", def.MarginFloor)
	v.SetDefault("alerts.leverage_ceiling", def.LeverageCeiling)
	v.SetDefault("alerts.roe_floor", def.ROEFloor)
	v.SetDefault("alerts.roa_floor", def.ROAFloor)
	v.SetDefault("alerts.net_debt_ebitda_ceiling", def.NetDebtEBITDACeiling)
	v.SetDefault("alerts.interest_coverage_floor", def.InterestCoverageFloor)
	v.SetDefault("alerts.fcf_streak", def.FCFStreak)
	v.SetDefault("alerts.spike_pct", def.SpikePct)

	// Forecast defaults
	v.SetDefault("forecast.strategy", "arima")

	// Synonyms defaults
	v.SetDefault("synonyms.file", "")

	// Rules defaults
	v.SetDefault("rules.expressions", []string{})

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.tracing", false)
}

// overrideFromEnv explicitly reads operator-supplied keys from environment
// variables. The SEC blocks clients without an identifying User-Agent, so
// that one in particular must win over anything baked into a config file.
func overrideFromEnv(cfg *Config) {
	if ua := os.Getenv("FILINGLENS_RETRIEVAL_USER_AGENT"); ua != "" {
		cfg.Retrieval.UserAgent = ua
	}
	if src := os.Getenv("FILINGLENS_RETRIEVAL_SOURCE"); src != "" {
		cfg.Retrieval.Source = src
	}
	if f := os.Getenv("FILINGLENS_SYNONYMS_FILE"); f != "" {
		cfg.Synonyms.File = f
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
