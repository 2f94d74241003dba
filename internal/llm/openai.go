package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/2719104587/MESBench/internal/config"
)

// OpenAIProvider drives an OpenAI-compatible chat-completions endpoint in
// streaming mode, accumulating reasoning and content deltas until the stream
// closes with a terminal usage chunk.
type OpenAIProvider struct {
	client *openai.Client
	model  string

	maxTokens      int
	temperature    float32
	topP           float32
	enableThinking bool
}

func NewOpenAIProvider(cfg config.ModelConfig) *OpenAIProvider {
	c := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if v := strings.TrimSpace(cfg.BaseURL); v != "" {
		c.BaseURL = strings.TrimRight(v, "/")
	}
	timeout := time.Duration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIProvider{
		client:         openai.NewClientWithConfig(c),
		model:          strings.TrimSpace(cfg.ModelName),
		maxTokens:      cfg.MaxTokens,
		temperature:    float32(cfg.Temperature),
		topP:           float32(cfg.TopP),
		enableThinking: cfg.EnableThinking,
	}
}

func (p *OpenAIProvider) Name() string { return p.model }

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (*Generation, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("llm: openai: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: openai: nil context")
	}

	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		TopP:        p.topP,
		Stream:      true,
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
		ChatTemplateKwargs: map[string]any{
			"enable_thinking": p.enableThinking,
		},
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var reasoning, answer strings.Builder
	var usage Usage

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if chunk.Usage != nil {
			usage = Usage{
				CompletionTokens: chunk.Usage.CompletionTokens,
				PromptTokens:     chunk.Usage.PromptTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		reasoning.WriteString(delta.ReasoningContent)
		answer.WriteString(delta.Content)
	}

	return &Generation{
		Reasoning: reasoning.String(),
		Answer:    answer.String(),
		Usage:     usage,
	}, nil
}
