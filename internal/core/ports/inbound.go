package ports

import (
	"context"

	"github.com/intelforge/ai-bos/internal/core/domain"
)

// SourceIngestor is the inbound contract for a full multi-source ingestion
// run.
type SourceIngestor interface {
	IngestAll(ctx context.Context) ([]domain.Document, error)
}

// DocumentProcessor is the inbound contract for chunk-embed-upsert processing
// of one ingested document.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// KnowledgeRetriever is the inbound contract for relevance-ranked retrieval.
type KnowledgeRetriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.RetrievedDocument, error)
}
