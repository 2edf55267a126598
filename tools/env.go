package tools

import (
	"github.com/Epistemic-Technology/pension-mcp/internal/config"
	"github.com/Epistemic-Technology/pension-mcp/internal/llm"
	"github.com/Epistemic-Technology/pension-mcp/internal/logger"
)

// Env is what the tool handlers share: configuration, the language model
// (nil when no API key is configured) and the logger.
type Env struct {
	Config *config.Config
	Oracle llm.Oracle
	Log    logger.Logger
}

// NewEnv builds the handler environment from configuration.
func NewEnv(cfg *config.Config, log logger.Logger) *Env {
	env := &Env{Config: cfg, Log: log}
	if cfg.OpenAIAPIKey != "" {
		env.Oracle = llm.NewOpenAIOracle(cfg.OpenAIAPIKey, cfg.Model, log)
	}
	return env
}
