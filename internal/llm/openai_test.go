package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2719104587/MESBench/internal/config"
)

func sseChunk(t *testing.T, reasoning, content string, usage map[string]int) string {
	t.Helper()
	delta := map[string]string{}
	if reasoning != "" {
		delta["reasoning_content"] = reasoning
	}
	if content != "" {
		delta["content"] = content
	}

	body := map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion.chunk",
		"created": 1,
		"model":   "test-model",
		"choices": []any{},
	}
	if len(delta) > 0 {
		body["choices"] = []any{map[string]any{"index": 0, "delta": delta}}
	}
	if usage != nil {
		body["usage"] = usage
	}

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal chunk: %v", err)
	}
	return fmt.Sprintf("data: %s\n\n", b)
}

func TestOpenAIProviderStreamingAccumulation(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk(t, "思考一", "", nil))
		fmt.Fprint(w, sseChunk(t, "思考二", "", nil))
		fmt.Fprint(w, sseChunk(t, "", "答案：A", nil))
		fmt.Fprint(w, sseChunk(t, "", "", map[string]int{
			"prompt_tokens":     10,
			"completion_tokens": 20,
			"total_tokens":      30,
		}))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.ModelConfig{
		APIKey:         "test",
		BaseURL:        srv.URL + "/v1",
		ModelName:      "test-model",
		MaxTokens:      64,
		EnableThinking: true,
		Timeout:        config.Duration(5 * time.Second),
	})

	gen, err := p.Generate(context.Background(), "题目")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gen.Reasoning != "思考一思考二" {
		t.Fatalf("reasoning: got %q", gen.Reasoning)
	}
	if gen.Answer != "答案：A" {
		t.Fatalf("answer: got %q", gen.Answer)
	}
	if gen.Usage.TotalTokens != 30 || gen.Usage.PromptTokens != 10 {
		t.Fatalf("usage: got %+v", gen.Usage)
	}

	if gotBody["stream"] != true {
		t.Fatal("request must use streaming")
	}
	kwargs, _ := gotBody["chat_template_kwargs"].(map[string]any)
	if kwargs == nil || kwargs["enable_thinking"] != true {
		t.Fatalf("chat_template_kwargs: got %v", gotBody["chat_template_kwargs"])
	}
}

func TestOpenAIProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.ModelConfig{
		APIKey:    "test",
		BaseURL:   srv.URL + "/v1",
		ModelName: "test-model",
		Timeout:   config.Duration(5 * time.Second),
	})

	if _, err := p.Generate(context.Background(), "题目"); err == nil {
		t.Fatal("expected error from 503 response")
	}
}
