package ports

import (
	"context"

	"github.com/intelforge/ai-bos/internal/core/domain"
)

// SourceConnector produces zero or more tagged documents from one source.
// Fetch never fails: any authentication, network, or parse failure becomes
// exactly one placeholder document carrying the error reason.
type SourceConnector interface {
	Source() domain.Source
	Fetch(ctx context.Context) []domain.Document
}

// Embedder builds fixed-width vectors for chunk and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingProvider is the raw provider boundary behind the embedding
// service. Vectors come back at provider-native width; the service truncates.
type EmbeddingProvider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorPoint is one upsert tuple for the external vector store. Metadata
// always includes the chunk text since the store persists nothing else.
type VectorPoint struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// VectorMatch is one nearest-neighbor hit from the external vector store.
type VectorMatch struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// VectorStore is the external index boundary. EnsureIndex creates the fixed
// 768-dimension cosine index when absent and blocks until it is ready.
type VectorStore interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, points []VectorPoint) error
	Query(ctx context.Context, vector []float32, topK int) ([]VectorMatch, error)
}

// Generator is the external generation collaborator used for hypothetical
// document expansion, multi-query rewriting, and reranking.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Chunker splits a document into overlapping chunks with inherited metadata.
type Chunker interface {
	SplitDocument(doc domain.Document) []domain.Chunk
}

// LexicalRetriever is the in-process keyword index for ensemble retrieval.
// Index must be safe to call concurrently with Search.
type LexicalRetriever interface {
	Index(docs []domain.Document)
	Search(query string, limit int) []domain.RetrievedDocument
}

// ParentStore resolves child chunk matches back to their parent documents.
type ParentStore interface {
	Put(doc domain.Document)
	Get(id string) (domain.Document, bool)
}

// DocumentRepository persists the document catalog (metadata and state, not
// content).
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
}

// ContentStore persists raw document content keyed by document id.
type ContentStore interface {
	Save(ctx context.Context, key string, content string) error
	Load(ctx context.Context, key string) (string, error)
}

// MessageQueue publishes and consumes document-ingested events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}
