package llm

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/2719104587/MESBench/internal/config"
)

// NewProvider builds a Provider for one model config. An empty provider name
// means the OpenAI-compatible streaming backend.
func NewProvider(cfg config.ModelConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		return NewOpenAIProvider(cfg), nil
	case "anthropic", "claude":
		return NewAnthropicProvider(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// NewClientFromConfig builds the retrying client for one model config.
func NewClientFromConfig(cfg config.ModelConfig, logger *slog.Logger) (*Client, error) {
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(p, cfg.MaxRetries, logger), nil
}
