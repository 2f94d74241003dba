package llm

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"
)

type scriptedProvider struct {
	failures int
	calls    int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(ctx context.Context, prompt string) (*Generation, error) {
	p.calls++
	if p.calls <= p.failures {
		return nil, errors.New("scripted failure")
	}
	return &Generation{Answer: "ok", Usage: Usage{TotalTokens: 1}}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestClientRetriesUntilSuccess(t *testing.T) {
	p := &scriptedProvider{failures: 2}
	c := NewClient(p, 3, testLogger())
	c.retryBase = time.Millisecond

	gen, ok := c.Generate(context.Background(), "prompt")
	if !ok {
		t.Fatal("expected success after retries")
	}
	if gen.Answer != "ok" {
		t.Fatalf("answer: got %q want %q", gen.Answer, "ok")
	}
	if p.calls != 3 {
		t.Fatalf("calls: got %d want 3", p.calls)
	}
}

func TestClientReportsNotOKAfterExhaustion(t *testing.T) {
	p := &scriptedProvider{failures: 100}
	c := NewClient(p, 2, testLogger())
	c.retryBase = time.Millisecond

	gen, ok := c.Generate(context.Background(), "prompt")
	if ok || gen != nil {
		t.Fatalf("expected (nil, false), got (%v, %v)", gen, ok)
	}
	if p.calls != 2 {
		t.Fatalf("calls: got %d want 2", p.calls)
	}
}

func TestClientStopsOnCanceledContext(t *testing.T) {
	p := &scriptedProvider{failures: 100}
	c := NewClient(p, 5, testLogger())
	c.retryBase = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := c.Generate(ctx, "prompt"); ok {
		t.Fatal("expected failure with canceled context")
	}
	if p.calls != 1 {
		t.Fatalf("calls: got %d want 1 (no retry after cancel)", p.calls)
	}
}

func TestBackoffDoubles(t *testing.T) {
	base := 100 * time.Millisecond
	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}
	for i, w := range want {
		if got := backoff(base, i); got != w {
			t.Fatalf("backoff(%v, %d): got %v want %v", base, i, got, w)
		}
	}
	if got := backoff(0, 3); got != 0 {
		t.Fatalf("backoff with zero base: got %v want 0", got)
	}
}
