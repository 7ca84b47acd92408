package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete factlock configuration
type Config struct {
	Rules       RulesConfig       `yaml:"rules" mapstructure:"rules"`
	Extract     ExtractConfig     `yaml:"extract" mapstructure:"extract"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// RulesConfig holds the matching constants of the fact lock
type RulesConfig struct {
	Tolerance         float64   `yaml:"tolerance" mapstructure:"tolerance" validate:"gt=0"`                    // Absolute, strict (<) match tolerance
	Whitelist         []float64 `yaml:"whitelist" mapstructure:"whitelist"`                                    // Structurally expected constants (hours, minutes)
	SqftReference     float64   `yaml:"sqft_reference" mapstructure:"sqft_reference" validate:"gte=0"`         // Baseline for sqft deltas
	LotAcresReference float64   `yaml:"lot_acres_reference" mapstructure:"lot_acres_reference" validate:"gte=0"` // Baseline for lot deltas
}

// ExtractConfig controls how draft text is prepared before number extraction
type ExtractConfig struct {
	StripHTML bool `yaml:"strip_html" mapstructure:"strip_html"` // Reduce an HTML email draft to visible text
}

// CacheConfig controls the verdict cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=1"`
}

// LLMConfig configures the optional draft generator
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=openai ollama"`
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"-" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"` // seconds
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
	Temperature       float32 `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size" validate:"gte=0"`
}

// ServerConfig configures the HTTP verification service
type ServerConfig struct {
	ListenAddress string `yaml:"listen_address" mapstructure:"listen_address" validate:"required"`
	Metrics       bool   `yaml:"metrics" mapstructure:"metrics"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
	Findings      bool `yaml:"findings" mapstructure:"findings"` // Include per-number findings in verdict output
}

// LogConfig controls structured logging on stderr
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Rules: RulesConfig{
			Tolerance:         0.1,
			Whitelist:         []float64{24, 5},
			SqftReference:     1000,
			LotAcresReference: 1,
		},
		Extract: ExtractConfig{
			StripHTML: false,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		LLM: LLMConfig{
			Provider:          "",
			Model:             "gpt-4o-mini",
			Timeout:           60,
			MaxTokens:         1500,
			Temperature:       0,
			RequestsPerSecond: 1,
			BurstSize:         2,
		},
		Server: ServerConfig{
			ListenAddress: ":8080",
			Metrics:       true,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
			Findings:      false,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".factlock-cache"
	}
	return filepath.Join(dir, "factlock")
}
