package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/intelforge/ai-bos/internal/core/domain"
	"github.com/intelforge/ai-bos/internal/core/ports"
)

const (
	minQueryLength   = 6
	semanticTopK     = 5
	lexicalTopK      = 3
	queryVariants    = 3
	lexicalWeight    = 0.4
	semanticWeight   = 0.6
	rerankCandidates = 10
)

// RetrieveUseCase is the composite retriever: validate, expand, search the
// vector store with parent resolution, fan out rewritten query variants,
// blend in lexical hits, and rerank. Every stage past validation degrades to
// the prior stage's results when its external dependency fails.
type RetrieveUseCase struct {
	embedder  ports.Embedder
	vectors   ports.VectorStore
	lexical   ports.LexicalRetriever
	parents   ports.ParentStore
	repo      ports.DocumentRepository
	content   ports.ContentStore
	generator ports.Generator
	logger    *slog.Logger
}

// NewRetrieveUseCase wires the composite retriever. repo and content are the
// catalog fallback for parent resolution: the parent store is process-local,
// so an api process that did not run processing resolves parents from the
// catalog instead. Both may be nil.
func NewRetrieveUseCase(
	embedder ports.Embedder,
	vectors ports.VectorStore,
	lexical ports.LexicalRetriever,
	parents ports.ParentStore,
	repo ports.DocumentRepository,
	content ports.ContentStore,
	generator ports.Generator,
	logger *slog.Logger,
) *RetrieveUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieveUseCase{
		embedder:  embedder,
		vectors:   vectors,
		lexical:   lexical,
		parents:   parents,
		repo:      repo,
		content:   content,
		generator: generator,
		logger:    logger,
	}
}

func (uc *RetrieveUseCase) Retrieve(ctx context.Context, query string) ([]domain.RetrievedDocument, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLength {
		return nil, domain.WrapError(domain.ErrValidation, "validate query",
			fmt.Errorf("query must be longer than %d characters", minQueryLength-1))
	}

	searchText := uc.hypotheticalAnswer(ctx, query)

	results, err := uc.semanticSearch(ctx, searchText)
	if err != nil {
		uc.logger.Warn("semantic search failed, continuing with lexical only", "error", err)
		results = nil
	}

	results = uc.expandQueries(ctx, query, results)
	results = fuseWeighted(uc.lexical.Search(query, lexicalTopK), results, lexicalWeight, semanticWeight)
	results = uc.rerank(ctx, query, results)
	return results, nil
}

// hypotheticalAnswer asks the generator for a plausible answer to embed in
// place of the raw query, which lands closer to answer-shaped chunks in the
// vector space. A failing generator leaves the query untouched.
func (uc *RetrieveUseCase) hypotheticalAnswer(ctx context.Context, query string) string {
	prompt := "Write a short, factual paragraph that would answer the question below. " +
		"Answer directly, do not mention the question.\n\nQuestion: " + query
	answer, err := uc.generator.Generate(ctx, prompt)
	if err != nil {
		uc.logger.Warn("hypothetical answer generation failed, searching with raw query", "error", err)
		return query
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return query
	}
	return answer
}

// semanticSearch embeds the text, queries child chunks, and resolves each
// match to its parent document. A match whose parent is unknown falls back to
// the chunk text carried in the vector metadata.
func (uc *RetrieveUseCase) semanticSearch(ctx context.Context, text string) ([]domain.RetrievedDocument, error) {
	vector, err := uc.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := uc.vectors.Query(ctx, vector, semanticTopK)
	if err != nil {
		return nil, fmt.Errorf("query vector store: %w", err)
	}

	byID := make(map[string]int, len(matches))
	out := make([]domain.RetrievedDocument, 0, len(matches))
	for _, match := range matches {
		doc := uc.resolveParent(ctx, match)
		if i, seen := byID[doc.ID]; seen {
			// Multiple chunks of one parent: keep the best score.
			if doc.Score > out[i].Score {
				out[i].Score = doc.Score
			}
			continue
		}
		byID[doc.ID] = len(out)
		out = append(out, doc)
	}
	return out, nil
}

func (uc *RetrieveUseCase) resolveParent(ctx context.Context, match ports.VectorMatch) domain.RetrievedDocument {
	parentID, _ := match.Metadata["parent_id"].(string)
	if parentID != "" {
		if parent, ok := uc.parents.Get(parentID); ok {
			return domain.RetrievedDocument{
				ID:         parent.ID,
				Content:    parent.Content,
				Metadata:   parent.Metadata,
				Score:      match.Score,
				Retrievers: []string{domain.RetrieverSemantic},
			}
		}
		if parent, ok := uc.parentFromCatalog(ctx, parentID); ok {
			return domain.RetrievedDocument{
				ID:         parent.ID,
				Content:    parent.Content,
				Metadata:   parent.Metadata,
				Score:      match.Score,
				Retrievers: []string{domain.RetrieverSemantic},
			}
		}
	}

	text, _ := match.Metadata["text"].(string)
	id := parentID
	if id == "" {
		id = match.ID
	}
	return domain.RetrievedDocument{
		ID:      id,
		Content: text,
		Metadata: domain.Metadata{
			Source: domain.Source(stringMeta(match.Metadata, "source")),
		},
		Score:      match.Score,
		Retrievers: []string{domain.RetrieverSemantic},
	}
}

// expandQueries rewrites the query into variants, searches each, and merges
// the union into base deduplicated by document id. Any failure keeps base.
func (uc *RetrieveUseCase) expandQueries(ctx context.Context, query string, base []domain.RetrievedDocument) []domain.RetrievedDocument {
	variants, err := uc.queryVariants(ctx, query)
	if err != nil {
		uc.logger.Warn("query expansion failed, keeping single-query results", "error", err)
		return base
	}

	merged := append([]domain.RetrievedDocument(nil), base...)
	byID := make(map[string]int, len(merged))
	for i, doc := range merged {
		byID[doc.ID] = i
	}

	for _, variant := range variants {
		hits, err := uc.semanticSearch(ctx, variant)
		if err != nil {
			uc.logger.Warn("variant search failed, skipping variant", "error", err)
			continue
		}
		for _, hit := range hits {
			if i, seen := byID[hit.ID]; seen {
				if hit.Score > merged[i].Score {
					merged[i].Score = hit.Score
				}
				continue
			}
			byID[hit.ID] = len(merged)
			merged = append(merged, hit)
		}
	}
	return merged
}

func (uc *RetrieveUseCase) queryVariants(ctx context.Context, query string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Rewrite the question below as %d alternative phrasings with the same meaning. "+
			"Return one phrasing per line with no numbering.\n\nQuestion: %s",
		queryVariants, query)
	raw, err := uc.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	variants := make([]string, 0, queryVariants)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "0123456789.-) "))
		if line == "" || strings.EqualFold(line, query) {
			continue
		}
		variants = append(variants, line)
		if len(variants) == queryVariants {
			break
		}
	}
	if len(variants) == 0 {
		return nil, errors.New("generator returned no usable variants")
	}
	return variants, nil
}

// parentFromCatalog loads a parent document from the catalog and content
// store, and warms the parent store for the next hit.
func (uc *RetrieveUseCase) parentFromCatalog(ctx context.Context, parentID string) (domain.Document, bool) {
	if uc.repo == nil || uc.content == nil {
		return domain.Document{}, false
	}
	doc, err := uc.repo.GetByID(ctx, parentID)
	if err != nil {
		if !domain.IsKind(err, domain.ErrDocumentNotFound) {
			uc.logger.Warn("catalog parent lookup failed", "parent_id", parentID, "error", err)
		}
		return domain.Document{}, false
	}
	content, err := uc.content.Load(ctx, doc.StoragePath)
	if err != nil {
		uc.logger.Warn("parent content load failed", "parent_id", parentID, "error", err)
		return domain.Document{}, false
	}
	doc.Content = content
	uc.parents.Put(*doc)
	return *doc, true
}

func stringMeta(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}
