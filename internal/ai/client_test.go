package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientCompleteSendsChatRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  hello there  "}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model")
	reply, err := client.Complete(context.Background(), Request{
		System:      "be helpful",
		Prompt:      "say hello",
		Temperature: 0.3,
		MaxTokens:   100,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "hello there" {
		t.Fatalf("expected trimmed reply, got %q", reply)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody.Model != "test-model" || len(gotBody.Messages) != 2 {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
	if gotBody.Messages[0].Role != "system" || gotBody.Messages[1].Content != "say hello" {
		t.Fatalf("unexpected messages: %+v", gotBody.Messages)
	}
	if gotBody.Temperature != 0.3 || gotBody.MaxTokens != 100 {
		t.Fatalf("unexpected sampling config: %+v", gotBody)
	}
}

func TestClientCompleteErrorsOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "model")
	if _, err := client.Complete(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestClientCompleteErrorsOnEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "model")
	if _, err := client.Complete(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestClientCompleteErrorsOnUnreachableOracle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "key", "model")
	if _, err := client.Complete(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatal("expected error when oracle is unreachable")
	}
}
