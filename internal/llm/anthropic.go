package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/2719104587/MESBench/internal/config"
)

const minThinkingBudget = 1024

// AnthropicProvider is the alternate backend for candidate or judge models
// served over the Anthropic messages API. The thinking toggle maps to
// extended thinking; the reasoning trace comes back as thinking blocks.
type AnthropicProvider struct {
	client anthropic.Client
	model  string

	maxTokens      int
	temperature    float64
	topP           float64
	enableThinking bool
}

func NewAnthropicProvider(cfg config.ModelConfig) *AnthropicProvider {
	timeout := time.Duration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	}
	if v := strings.TrimSpace(cfg.APIKey); v != "" {
		opts = append(opts, option.WithAPIKey(v))
	}
	if v := strings.TrimSpace(cfg.BaseURL); v != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(v, "/")))
	}

	return &AnthropicProvider{
		client:         anthropic.NewClient(opts...),
		model:          strings.TrimSpace(cfg.ModelName),
		maxTokens:      cfg.MaxTokens,
		temperature:    cfg.Temperature,
		topP:           cfg.TopP,
		enableThinking: cfg.EnableThinking,
	}
}

func (p *AnthropicProvider) Name() string { return p.model }

func (p *AnthropicProvider) Generate(ctx context.Context, prompt string) (*Generation, error) {
	if p == nil {
		return nil, errors.New("llm: anthropic: nil provider")
	}
	if ctx == nil {
		return nil, errors.New("llm: anthropic: nil context")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if p.temperature != 0 {
		params.Temperature = param.NewOpt(p.temperature)
	}
	if p.topP != 0 {
		params.TopP = param.NewOpt(p.topP)
	}
	if p.enableThinking {
		budget := int64(p.maxTokens / 2)
		if budget < minThinkingBudget {
			budget = minThinkingBudget
		}
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var reasoning, answer strings.Builder
	for _, block := range msg.Content {
		switch block.Type {
		case "thinking":
			reasoning.WriteString(block.AsThinking().Thinking)
		case "text":
			answer.WriteString(block.AsText().Text)
		}
	}

	in := int(msg.Usage.InputTokens)
	out := int(msg.Usage.OutputTokens)
	return &Generation{
		Reasoning: reasoning.String(),
		Answer:    answer.String(),
		Usage: Usage{
			CompletionTokens: out,
			PromptTokens:     in,
			TotalTokens:      in + out,
		},
	}, nil
}
