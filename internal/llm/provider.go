package llm

import "context"

// Provider issues one text-generation call and returns the accumulated
// reasoning trace, final answer, and terminal token usage.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (*Generation, error)
}

// Generation is the result of one successful call. Reasoning and Answer may
// be empty strings; a nil Generation only ever comes with an error.
type Generation struct {
	Reasoning string `json:"reasoning"`
	Answer    string `json:"answer"`
	Usage     Usage  `json:"usage"`
}

// Usage counts tokens for one call, additive across calls.
type Usage struct {
	CompletionTokens int `json:"completion_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another call's usage into u.
func (u *Usage) Add(o Usage) {
	u.CompletionTokens += o.CompletionTokens
	u.PromptTokens += o.PromptTokens
	u.TotalTokens += o.TotalTokens
}
