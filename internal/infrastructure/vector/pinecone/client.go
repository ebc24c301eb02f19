package pinecone

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/intelforge/ai-bos/internal/core/domain"
	"github.com/intelforge/ai-bos/internal/core/ports"
	"github.com/intelforge/ai-bos/internal/infrastructure/resilience"
)

const (
	defaultControlURL = "https://api.pinecone.io"
	apiVersion        = "2025-01"

	readyPollInterval = 2 * time.Second
)

// Client implements the external vector store boundary against the Pinecone
// HTTP API: index management on the control plane, upsert and query on the
// index's data-plane host.
type Client struct {
	controlURL string
	apiKey     string
	indexName  string
	dimension  int
	metric     string
	httpClient *http.Client
	executor   *resilience.Executor

	mu    sync.Mutex
	host  string
	ready bool
}

type Options struct {
	ControlURL string
	Dimension  int
	Metric     string
	Executor   *resilience.Executor
}

func New(apiKey, indexName string, options Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "init vector store",
			errors.New("api key is empty"))
	}
	if strings.TrimSpace(indexName) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "init vector store",
			errors.New("index name is empty"))
	}
	controlURL := options.ControlURL
	if controlURL == "" {
		controlURL = defaultControlURL
	}
	dimension := options.Dimension
	if dimension <= 0 {
		dimension = 768
	}
	metric := options.Metric
	if metric == "" {
		metric = "cosine"
	}
	return &Client{
		controlURL: strings.TrimRight(controlURL, "/"),
		apiKey:     apiKey,
		indexName:  indexName,
		dimension:  dimension,
		metric:     metric,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   options.Executor,
	}, nil
}

type indexDescription struct {
	Name   string `json:"name"`
	Host   string `json:"host"`
	Status struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

// EnsureIndex creates the fixed-dimension cosine index when it does not exist
// and blocks until the provider reports it ready.
func (c *Client) EnsureIndex(ctx context.Context) error {
	c.mu.Lock()
	if c.ready {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	desc, err := c.describeIndex(ctx)
	if err != nil {
		var statusErr *httpStatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
			return err
		}
		if err := c.createIndex(ctx); err != nil {
			// Another process may have created it in between.
			var createErr *httpStatusError
			if !errors.As(err, &createErr) || createErr.StatusCode != http.StatusConflict {
				return err
			}
		}
		desc, err = c.describeIndex(ctx)
		if err != nil {
			return err
		}
	}

	for !desc.Status.Ready {
		timer := time.NewTimer(readyPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		desc, err = c.describeIndex(ctx)
		if err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.host = desc.Host
	c.ready = true
	c.mu.Unlock()
	return nil
}

func (c *Client) describeIndex(ctx context.Context) (*indexDescription, error) {
	var desc indexDescription
	err := c.execute(ctx, "vector.describe", func(callCtx context.Context) error {
		return c.doJSON(callCtx, http.MethodGet, c.controlURL+"/indexes/"+c.indexName, nil, &desc, "describe index")
	})
	if err != nil {
		return nil, err
	}
	return &desc, nil
}

func (c *Client) createIndex(ctx context.Context) error {
	payload := map[string]any{
		"name":      c.indexName,
		"dimension": c.dimension,
		"metric":    c.metric,
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  "aws",
				"region": "us-east-1",
			},
		},
	}
	return c.execute(ctx, "vector.create", func(callCtx context.Context) error {
		return c.doJSON(callCtx, http.MethodPost, c.controlURL+"/indexes", payload, nil, "create index")
	})
}

// Upsert writes id+vector+metadata tuples with overwrite semantics.
func (c *Client) Upsert(ctx context.Context, points []ports.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	host, err := c.dataHost(ctx)
	if err != nil {
		return err
	}

	type vectorPayload struct {
		ID       string         `json:"id"`
		Values   []float32      `json:"values"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}
	vectors := make([]vectorPayload, 0, len(points))
	for _, p := range points {
		vectors = append(vectors, vectorPayload{ID: p.ID, Values: p.Values, Metadata: p.Metadata})
	}

	err = c.execute(ctx, "vector.upsert", func(callCtx context.Context) error {
		return c.doJSON(callCtx, http.MethodPost, host+"/vectors/upsert",
			map[string]any{"vectors": vectors}, nil, "upsert")
	})
	if err != nil {
		return wrapTemporaryIfNeeded("upsert vectors", err)
	}
	return nil
}

// Query returns the topK nearest neighbors with their stored metadata.
func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]ports.VectorMatch, error) {
	if topK <= 0 {
		topK = 5
	}
	host, err := c.dataHost(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	var response struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}

	err = c.execute(ctx, "vector.query", func(callCtx context.Context) error {
		return c.doJSON(callCtx, http.MethodPost, host+"/query", payload, &response, "query")
	})
	if err != nil {
		return nil, wrapTemporaryIfNeeded("query vectors", err)
	}

	out := make([]ports.VectorMatch, 0, len(response.Matches))
	for _, m := range response.Matches {
		out = append(out, ports.VectorMatch{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return out, nil
}

func (c *Client) dataHost(ctx context.Context) (string, error) {
	c.mu.Lock()
	host := c.host
	ready := c.ready
	c.mu.Unlock()
	if ready && host != "" {
		return normalizeHost(host), nil
	}
	if err := c.EnsureIndex(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	host = c.host
	c.mu.Unlock()
	if host == "" {
		return "", errors.New("vector store ready but reported no host")
	}
	return normalizeHost(host), nil
}

func normalizeHost(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return strings.TrimRight(host, "/")
	}
	return "https://" + strings.TrimRight(host, "/")
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return fn(ctx)
	}
	return c.executor.Execute(ctx, operation, fn, classifyVectorError)
}
