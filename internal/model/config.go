package model

import (
	"fmt"
	"runtime"
	"time"

	"github.com/ppiankov/clauseflag/internal/logging"
)

// Metric names accepted by EngineConfig.Metric.
const (
	MetricCosine  = "cosine"
	MetricJaccard = "jaccard"
)

// Config is the complete clauseflag configuration.
type Config struct {
	Engine       EngineConfig       `yaml:"engine" mapstructure:"engine"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Log          logging.Config     `yaml:"log" mapstructure:"log"`
}

// EngineConfig carries everything the extraction and flagging stages need.
type EngineConfig struct {
	// Threshold is the strict lower bound a score must exceed to flag.
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
	// Metric is "cosine" (TF-IDF) or "jaccard".
	Metric string `yaml:"metric" mapstructure:"metric"`
	// ExcludedSheets are skipped entirely (case-sensitive).
	ExcludedSheets []string `yaml:"excluded_sheets" mapstructure:"excluded_sheets"`
	// PreferredLanguageLabels are the accepted spellings of the preferred-language header.
	PreferredLanguageLabels []string `yaml:"preferred_language_labels" mapstructure:"preferred_language_labels"`
	// Workers is the scoring pool size.
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig controls caching of parsed workbooks.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// OutputConfig controls where results go.
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	JSON    bool   `yaml:"json" mapstructure:"json"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// LLMConfig configures the optional findings summary.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "" disables, "openai", "ollama"
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// RateLimitingConfig throttles calls to the LLM API host.
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
	// Hosts overrides the default rate for individual API hosts.
	Hosts []HostRate `yaml:"hosts,omitempty" mapstructure:"hosts"`
}

// HostRate is the rate for one API host ("api.openai.com", "localhost:11434").
// Zero requests per second means unthrottled.
type HostRate struct {
	Host              string  `yaml:"host" mapstructure:"host"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// DefaultExcludedSheets are the index/template/contact sheets of the reference workbook.
func DefaultExcludedSheets() []string {
	return []string{"INDEX", "template", "CONTACTS"}
}

// DefaultPreferredLanguageLabels are the known spellings of the preferred-language header.
func DefaultPreferredLanguageLabels() []string {
	return []string{"Auburn's Preferred Language", "Auburn Preferred Language", "Preferred Language"}
}

// DefaultEngineConfig returns the engine defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Threshold:               0.20,
		Metric:                  MetricCosine,
		ExcludedSheets:          DefaultExcludedSheets(),
		PreferredLanguageLabels: DefaultPreferredLanguageLabels(),
		Workers:                 runtime.NumCPU(),
	}
}

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: DefaultEngineConfig(),
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".clauseflag-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Output: OutputConfig{
			Dir: ".",
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 800,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 1,
			BurstSize:         2,
		},
		Log: logging.Config{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the engine settings.
func (c EngineConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be within [0,1], got %v", c.Threshold)
	}
	switch c.Metric {
	case MetricCosine, MetricJaccard:
	default:
		return fmt.Errorf("unknown metric %q (supported: %s, %s)", c.Metric, MetricCosine, MetricJaccard)
	}
	return nil
}

// IsExcluded reports whether sheet is in the exclusion set.
func (c EngineConfig) IsExcluded(sheet string) bool {
	for _, s := range c.ExcludedSheets {
		if s == sheet {
			return true
		}
	}
	return false
}
