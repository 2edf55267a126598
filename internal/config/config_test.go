package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("pension-mcp", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())
	require.NoError(t, fs.Parse(args))
	return fs
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "PENSION_MODE", "PENSION_ADDR", "PENSION_STRATEGY", "PENSION_MODEL",
		"PENSION_OPENAI_API_KEY", "PENSION_LINE_TOLERANCE", "PENSION_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, ModeStdio, cfg.Mode)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, "coordinate", cfg.Strategy)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 3.0, cfg.LineTolerance)
	assert.Equal(t, 50.0, cfg.DigitAnchorThreshold)
	assert.Equal(t, 5.0, cfg.CrossCheckTolerance)
	assert.Equal(t, 10.0, cfg.DepositNoiseFloor)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.MaxFileSize)
	assert.False(t, cfg.IsHTTPMode())
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PENSION_MODE", "http")
	t.Setenv("PENSION_LINE_TOLERANCE", "4.5")
	t.Setenv("PENSION_LOG_LEVEL", "warn")

	cfg, err := Load(newFlags(t, "--log-level=debug", "--addr=0.0.0.0:9000"))
	require.NoError(t, err)

	assert.Equal(t, ModeHTTP, cfg.Mode, "environment overrides default")
	assert.Equal(t, 4.5, cfg.LineTolerance)
	assert.Equal(t, "debug", cfg.LogLevel, "flag overrides environment")
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.True(t, cfg.IsHTTPMode())
}

func TestLoad_OpenAIKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(newFlags(t, "--strategy=llm-vision"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.NotContains(t, cfg.String(), "sk-test")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown mode", []string{"--mode=grpc"}},
		{"unknown strategy", []string{"--strategy=ocr"}},
		{"llm strategy without key", []string{"--strategy=llm-text"}},
		{"zero tolerance", []string{"--line-tolerance=0"}},
		{"negative noise floor", []string{"--deposit-noise-floor=-1"}},
		{"bad log level", []string{"--log-level=trace"}},
		{"zero file size", []string{"--max-file-size=0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(newFlags(t, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LineTolerance = 2
	cfg.DigitAnchorThreshold = 40
	cfg.CrossCheckTolerance = 1
	cfg.DepositNoiseFloor = 20

	opts := cfg.PipelineOptions()
	assert.Equal(t, 2.0, opts.Layout.Tolerance)
	assert.Equal(t, 40.0, opts.Repair.DigitAnchorThreshold)
	assert.Equal(t, 1.0, opts.Validate.Tolerance)
	assert.Equal(t, 20.0, opts.Validate.NoiseFloor)
	assert.NotEmpty(t, opts.Keywords)
	assert.NotEmpty(t, opts.Validate.Keywords)
}
