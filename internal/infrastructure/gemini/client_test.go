package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/intelforge/ai-bos/internal/core/domain"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := New("test-key", Options{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestEmbedBatchSendsOneRequestPerText(t *testing.T) {
	var captured struct {
		Requests []struct {
			Model   string `json:"model"`
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"requests"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":batchEmbedContents") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[0.1,0.2]},{"values":[0.3,0.4]}]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(newTestClient(t, server.URL))
	vectors, err := embedder.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if len(vectors) != 2 || vectors[1][0] != 0.3 {
		t.Fatalf("unexpected vectors: %v", vectors)
	}
	if len(captured.Requests) != 2 {
		t.Fatalf("expected 2 embed requests, got %d", len(captured.Requests))
	}
	if captured.Requests[0].Content.Parts[0].Text != "alpha" {
		t.Errorf("first request text = %q", captured.Requests[0].Content.Parts[0].Text)
	}
}

func TestEmbedBatchRejectsVectorCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[0.1]}]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(newTestClient(t, server.URL))
	_, err := embedder.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	if err == nil || !strings.Contains(err.Error(), "got 1 vectors for 2 texts") {
		t.Fatalf("expected count mismatch error, got %v", err)
	}
}

func TestGenerateSendsPromptAndJoinsParts(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		var payload struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt = payload.Contents[0].Parts[0].Text
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello "},{"text":"world"}]}}]}`))
	}))
	defer server.Close()

	gen := NewGenerator(newTestClient(t, server.URL))
	text, err := gen.Generate(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if capturedPrompt != "say hello" {
		t.Errorf("captured prompt = %q", capturedPrompt)
	}
	if text != "hello world" {
		t.Errorf("text = %q", text)
	}
}

func TestGenerateRejectsEmptyCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	gen := NewGenerator(newTestClient(t, server.URL))
	_, err := gen.Generate(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "empty candidate") {
		t.Fatalf("expected empty candidate error, got %v", err)
	}
}

func TestEmbedBatchWrapsServerErrorsAsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	embedder := NewEmbedder(newTestClient(t, server.URL))
	_, err := embedder.EmbedBatch(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTransient) {
		t.Errorf("expected transient error, got %v", err)
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Errorf("expected response body in error, got %v", err)
	}
}

func TestClassifyGeminiErrorByStatus(t *testing.T) {
	retryable := classifyGeminiError(&HTTPStatusError{Operation: "embed", StatusCode: http.StatusTooManyRequests})
	if !retryable.Retryable || !retryable.RecordFailure {
		t.Errorf("429 should be retryable and recorded: %+v", retryable)
	}
	terminal := classifyGeminiError(&HTTPStatusError{Operation: "embed", StatusCode: http.StatusBadRequest})
	if terminal.Retryable || terminal.RecordFailure {
		t.Errorf("400 should be terminal: %+v", terminal)
	}
}
