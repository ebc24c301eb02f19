package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/intelforge/ai-bos/internal/core/domain"
	"github.com/intelforge/ai-bos/internal/core/ports"
)

const (
	// Dimension is the fixed output width. The external index is created at
	// this dimension, so truncation of wider provider vectors is mandatory.
	Dimension = 768

	maxBatchSize    = 10
	defaultCacheCap = 1000
)

// Service turns texts into fixed-width vectors: it validates input, batches
// provider calls, truncates native-width vectors to Dimension, and caches
// single-query results in a bounded LRU. One Service per process, constructed
// in bootstrap and passed to every caller.
type Service struct {
	provider ports.EmbeddingProvider
	cache    *lru.Cache[string, []float32]
	logger   *slog.Logger
}

func NewService(provider ports.EmbeddingProvider, cacheSize int, logger *slog.Logger) (*Service, error) {
	if provider == nil {
		return nil, errors.New("embedding provider required")
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheCap
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, []float32](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("init embedding cache: %w", err)
	}
	return &Service{
		provider: provider,
		cache:    cache,
		logger:   logger.With("component", "embedding"),
	}, nil
}

// EmbedQuery embeds a single text, serving repeats from the LRU cache. The
// cache key is the trimmed text; identical keys always produce identical
// vectors, so a rare duplicate computation under concurrency is harmless.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, domain.WrapError(domain.ErrValidation, "embed query",
			errors.New("input text must not be empty"))
	}

	if vector, ok := s.cache.Get(trimmed); ok {
		return vector, nil
	}

	vectors, err := s.embedBatches(ctx, []string{trimmed})
	if err != nil {
		return nil, err
	}
	s.cache.Add(trimmed, vectors[0])
	return vectors[0], nil
}

// Embed embeds a list of texts in provider batches of at most ten. An empty
// list is a valid no-op; any blank item is a validation error.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	validated := make([]string, 0, len(texts))
	for i, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil, domain.WrapError(domain.ErrValidation, "embed texts",
				fmt.Errorf("item %d is empty", i))
		}
		validated = append(validated, trimmed)
	}

	return s.embedBatches(ctx, validated)
}

func (s *Service) embedBatches(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]
		s.logger.Debug("embedding batch", "items", len(batch))

		vectors, err := s.provider.EmbedBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed batch of %d: %w", len(batch), err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embed batch: %d vectors for %d texts", len(vectors), len(batch))
		}
		for _, vector := range vectors {
			truncated, err := truncate(vector)
			if err != nil {
				return nil, err
			}
			out = append(out, truncated)
		}
	}
	return out, nil
}

// truncate enforces the fixed index dimension regardless of the provider's
// native width.
func truncate(vector []float32) ([]float32, error) {
	if len(vector) < Dimension {
		return nil, fmt.Errorf("provider vector has %d dimensions, need at least %d", len(vector), Dimension)
	}
	return vector[:Dimension:Dimension], nil
}
