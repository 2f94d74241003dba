package llm

import (
	"context"
	"log/slog"
	"time"
)

const retryBaseDelay = time.Second

// Client wraps a Provider with bounded retry. Any error during a call is
// logged with its attempt index and retried with identical parameters after
// a short exponential backoff. After exhausting every attempt the client
// reports ok=false instead of an error; callers substitute empty text and
// zero usage when persisting.
type Client struct {
	provider   Provider
	maxRetries int
	retryBase  time.Duration
	logger     *slog.Logger
}

func NewClient(provider Provider, maxRetries int, logger *slog.Logger) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		provider:   provider,
		maxRetries: maxRetries,
		retryBase:  retryBaseDelay,
		logger:     logger,
	}
}

// Model returns the wrapped provider's model name.
func (c *Client) Model() string {
	if c == nil || c.provider == nil {
		return ""
	}
	return c.provider.Name()
}

// Generate runs the provider with retry. ok=false means every attempt failed
// and the result must be treated as "no usable answer".
func (c *Client) Generate(ctx context.Context, prompt string) (gen *Generation, ok bool) {
	if c == nil || c.provider == nil {
		return nil, false
	}

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		g, err := c.provider.Generate(ctx, prompt)
		if err == nil && g != nil {
			return g, true
		}

		c.logger.Warn("generation attempt failed",
			"model", c.provider.Name(),
			"attempt", attempt,
			"max_retries", c.maxRetries,
			"error", err,
		)

		if attempt < c.maxRetries {
			if err := sleepWithContext(ctx, backoff(c.retryBase, attempt-1)); err != nil {
				break
			}
		}
	}

	c.logger.Warn("generation failed after retries",
		"model", c.provider.Name(),
		"max_retries", c.maxRetries,
	)
	return nil, false
}

func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 || attempt < 0 {
		return 0
	}
	return base * time.Duration(1<<attempt)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
