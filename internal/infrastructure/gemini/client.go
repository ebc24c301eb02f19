package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/intelforge/ai-bos/internal/core/domain"
	"github.com/intelforge/ai-bos/internal/infrastructure/resilience"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Client talks to the Gemini REST API for both embeddings and generation.
// One client per process; the embedder and generator wrappers share it.
type Client struct {
	baseURL    string
	apiKey     string
	embedModel string
	genModel   string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	BaseURL    string
	EmbedModel string
	GenModel   string
	Executor   *resilience.Executor
}

func New(apiKey string, options Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "init gemini client",
			errors.New("api key is empty"))
	}
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	embedModel := options.EmbedModel
	if embedModel == "" {
		embedModel = "models/gemini-embedding-001"
	}
	genModel := options.GenModel
	if genModel == "" {
		genModel = "models/gemini-2.0-flash"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		embedModel: embedModel,
		genModel:   genModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   options.Executor,
	}, nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return fn(ctx)
	}
	return c.executor.Execute(ctx, operation, fn, classifyGeminiError)
}

// Embedder is the raw provider boundary: it returns vectors at the model's
// native width. Truncation to the index dimension happens in the embedding
// service, not here.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	type contentPart struct {
		Text string `json:"text"`
	}
	type content struct {
		Parts []contentPart `json:"parts"`
	}
	type embedRequest struct {
		Model   string  `json:"model"`
		Content content `json:"content"`
	}

	requests := make([]embedRequest, 0, len(texts))
	for _, text := range texts {
		requests = append(requests, embedRequest{
			Model:   e.client.embedModel,
			Content: content{Parts: []contentPart{{Text: text}}},
		})
	}

	var response struct {
		Embeddings []struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	}

	path := fmt.Sprintf("/v1beta/%s:batchEmbedContents", e.client.embedModel)
	err := e.client.execute(ctx, "gemini.embed", func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, path, map[string]any{"requests": requests}, &response, "embed")
	})
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed batch", err)
	}

	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed batch: got %d vectors for %d texts", len(response.Embeddings), len(texts))
	}
	out := make([][]float32, 0, len(response.Embeddings))
	for _, e := range response.Embeddings {
		out = append(out, e.Values)
	}
	return out, nil
}

// Generator produces free text for hypothetical-document expansion,
// multi-query rewriting, and reranking prompts.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt}}},
		},
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	path := fmt.Sprintf("/v1beta/%s:generateContent", g.client.genModel)
	err := g.client.execute(ctx, "gemini.generate", func(callCtx context.Context) error {
		return g.client.postJSON(callCtx, path, request, &response, "generate")
	})
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate", err)
	}

	var b strings.Builder
	for _, cand := range response.Candidates {
		for _, part := range cand.Content.Parts {
			b.WriteString(part.Text)
		}
		break
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("generate: empty candidate response")
	}
	return text, nil
}
