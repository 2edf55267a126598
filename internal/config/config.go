package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Epistemic-Technology/pension-mcp/internal/layout"
	"github.com/Epistemic-Technology/pension-mcp/internal/llm"
	"github.com/Epistemic-Technology/pension-mcp/internal/operations"
	"github.com/Epistemic-Technology/pension-mcp/internal/repair"
	"github.com/Epistemic-Technology/pension-mcp/internal/validate"
)

const (
	// Mode constants
	ModeStdio = "stdio"
	ModeHTTP  = "http"

	// Default values
	DefaultAddr        = "127.0.0.1:8080"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 50 * 1024 * 1024 // 50MB

	// EnvPrefix is prepended to every environment variable, e.g. PENSION_STRATEGY.
	EnvPrefix = "PENSION"
)

// Config holds all configuration for the server and the CLI.
type Config struct {
	// Server configuration
	Mode string // "stdio" or "http"
	Addr string

	// Extraction configuration
	Strategy     string
	Model        string
	OpenAIAPIKey string

	LineTolerance        float64
	DigitAnchorThreshold float64
	CrossCheckTolerance  float64
	DepositNoiseFloor    float64

	// Application configuration
	LogLevel    string
	MaxFileSize int64 // Maximum statement size in bytes
}

// DefaultConfig returns a configuration with the pipeline defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:                 ModeStdio,
		Addr:                 DefaultAddr,
		Strategy:             string(operations.StrategyCoordinate),
		Model:                llm.DefaultModel,
		LineTolerance:        layout.DefaultTolerance,
		DigitAnchorThreshold: repair.DefaultDigitAnchorThreshold,
		CrossCheckTolerance:  validate.DefaultTolerance,
		DepositNoiseFloor:    validate.DefaultNoiseFloor,
		LogLevel:             DefaultLogLevel,
		MaxFileSize:          DefaultMaxFileSize,
	}
}

// RegisterFlags defines every configuration flag on fs with cfg's values as
// defaults.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'http' for streamable HTTP")
	fs.String("addr", cfg.Addr, "Listen address (http mode only)")
	fs.String("strategy", cfg.Strategy, "Extraction strategy: coordinate, text, llm-text or llm-vision")
	fs.String("model", cfg.Model, "OpenAI model for the llm strategies")
	fs.String("openai-api-key", cfg.OpenAIAPIKey, "OpenAI API key (defaults to OPENAI_API_KEY)")
	fs.Float64("line-tolerance", cfg.LineTolerance, "Vertical distance in points within which words share a line")
	fs.Float64("digit-anchor-threshold", cfg.DigitAnchorThreshold, "Savings fee percentage above which fractional digits are reversed")
	fs.Float64("cross-check-tolerance", cfg.CrossCheckTolerance, "Largest deposit difference between tables B and E that still passes")
	fs.Float64("deposit-noise-floor", cfg.DepositNoiseFloor, "Numbers at or below this value are ignored when reading the table B deposit")
	fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("max-file-size", cfg.MaxFileSize, "Maximum statement size in bytes")
}

// Load reads the configuration from a parsed flag set, environment variables
// with the PENSION_ prefix and the defaults, in that order of precedence.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("addr", cfg.Addr)
	v.SetDefault("strategy", cfg.Strategy)
	v.SetDefault("model", cfg.Model)
	v.SetDefault("openai-api-key", cfg.OpenAIAPIKey)
	v.SetDefault("line-tolerance", cfg.LineTolerance)
	v.SetDefault("digit-anchor-threshold", cfg.DigitAnchorThreshold)
	v.SetDefault("cross-check-tolerance", cfg.CrossCheckTolerance)
	v.SetDefault("deposit-noise-floor", cfg.DepositNoiseFloor)
	v.SetDefault("log-level", cfg.LogLevel)
	v.SetDefault("max-file-size", cfg.MaxFileSize)

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	cfg.Mode = v.GetString("mode")
	cfg.Addr = v.GetString("addr")
	cfg.Strategy = v.GetString("strategy")
	cfg.Model = v.GetString("model")
	cfg.OpenAIAPIKey = v.GetString("openai-api-key")
	cfg.LineTolerance = v.GetFloat64("line-tolerance")
	cfg.DigitAnchorThreshold = v.GetFloat64("digit-anchor-threshold")
	cfg.CrossCheckTolerance = v.GetFloat64("cross-check-tolerance")
	cfg.DepositNoiseFloor = v.GetFloat64("deposit-noise-floor")
	cfg.LogLevel = v.GetString("log-level")
	cfg.MaxFileSize = v.GetInt64("max-file-size")

	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeHTTP {
		return errors.New("mode must be either 'stdio' or 'http'")
	}
	if c.Mode == ModeHTTP && c.Addr == "" {
		return errors.New("addr is required in http mode")
	}

	strategy, err := operations.ParseStrategy(c.Strategy)
	if err != nil {
		return err
	}
	if strategy.NeedsOracle() && c.OpenAIAPIKey == "" {
		return fmt.Errorf("strategy %s requires OPENAI_API_KEY", strategy)
	}

	if c.LineTolerance <= 0 {
		return errors.New("line tolerance must be positive")
	}
	if c.DigitAnchorThreshold <= 0 {
		return errors.New("digit anchor threshold must be positive")
	}
	if c.CrossCheckTolerance <= 0 {
		return errors.New("cross-check tolerance must be positive")
	}
	if c.DepositNoiseFloor < 0 {
		return errors.New("deposit noise floor cannot be negative")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// PipelineOptions maps the configuration onto the pipeline stages.
func (c *Config) PipelineOptions() operations.Options {
	opts := operations.DefaultOptions()
	opts.Layout.Tolerance = c.LineTolerance
	opts.Repair.DigitAnchorThreshold = c.DigitAnchorThreshold
	opts.Validate.Tolerance = c.CrossCheckTolerance
	opts.Validate.NoiseFloor = c.DepositNoiseFloor
	return opts
}

// IsHTTPMode returns true if the server listens for streamable HTTP.
func (c *Config) IsHTTPMode() bool {
	return c.Mode == ModeHTTP
}

// String returns a string representation of the configuration without the
// API key.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Addr: %s, Strategy: %s, Model: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Addr, c.Strategy, c.Model, c.LogLevel, c.MaxFileSize)
}
