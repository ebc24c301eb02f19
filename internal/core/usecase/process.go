package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/intelforge/ai-bos/internal/core/domain"
	"github.com/intelforge/ai-bos/internal/core/ports"
)

const upsertBatchSize = 50

// ProcessUseCase turns one ingested document into searchable state: chunks in
// the vector store, the full document in the parent store, and terms in the
// lexical index. The catalog row tracks the lifecycle.
type ProcessUseCase struct {
	repo     ports.DocumentRepository
	content  ports.ContentStore
	chunker  ports.Chunker
	parents  ports.ParentStore
	lexical  ports.LexicalRetriever
	embedder ports.Embedder
	vectors  ports.VectorStore
	logger   *slog.Logger
}

func NewProcessUseCase(
	repo ports.DocumentRepository,
	content ports.ContentStore,
	chunker ports.Chunker,
	parents ports.ParentStore,
	lexical ports.LexicalRetriever,
	embedder ports.Embedder,
	vectors ports.VectorStore,
	logger *slog.Logger,
) *ProcessUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessUseCase{
		repo:     repo,
		content:  content,
		chunker:  chunker,
		parents:  parents,
		lexical:  lexical,
		embedder: embedder,
		vectors:  vectors,
		logger:   logger,
	}
}

func (uc *ProcessUseCase) ProcessByID(ctx context.Context, documentID string) error {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.pipeline(ctx, doc); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	uc.logger.Info("document processed", "document_id", documentID, "source", doc.Metadata.Source)
	return nil
}

func (uc *ProcessUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	text, err := uc.content.Load(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("load document content: %w", err)
	}
	doc.Content = text
	return doc, nil
}

func (uc *ProcessUseCase) pipeline(ctx context.Context, doc *domain.Document) error {
	// Register the full document for parent resolution and lexical search
	// before chunking, so retrieval sees whole documents, not fragments.
	uc.parents.Put(*doc)
	uc.lexical.Index([]domain.Document{*doc})

	chunks, err := validChunks(uc.chunker.SplitDocument(*doc))
	if err != nil {
		return err
	}

	if err := uc.vectors.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure vector index: %w", err)
	}

	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := uc.upsertBatch(ctx, chunks[start:end]); err != nil {
			return fmt.Errorf("upsert chunks %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// validChunks drops blank chunks; a document whose every chunk is blank is a
// validation failure, not silently empty search state.
func validChunks(chunks []domain.Chunk) ([]domain.Chunk, error) {
	valid := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Content != "" {
			valid = append(valid, chunk)
		}
	}
	if len(valid) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "chunk document",
			errors.New("document produced no non-blank chunks"))
	}
	return valid, nil
}

func (uc *ProcessUseCase) upsertBatch(ctx context.Context, chunks []domain.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunk batch: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks))
	}

	points := make([]ports.VectorPoint, len(chunks))
	for i, chunk := range chunks {
		points[i] = ports.VectorPoint{
			ID:       chunkID(chunk),
			Values:   vectors[i],
			Metadata: chunkMetadata(chunk),
		}
	}
	return uc.vectors.Upsert(ctx, points)
}

// chunkID is deterministic over content and timestamp, so re-ingesting the
// same content at the same moment overwrites instead of duplicating.
func chunkID(chunk domain.Chunk) string {
	sum := sha256.Sum256([]byte(chunk.Content + chunk.Metadata.Timestamp.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}

// chunkMetadata always carries the chunk text; the vector store persists
// nothing else, so omitting it would make matches unreadable.
func chunkMetadata(chunk domain.Chunk) map[string]any {
	meta := map[string]any{
		"text":        chunk.Content,
		"parent_id":   chunk.ParentID,
		"chunk_index": chunk.Index,
		"source":      string(chunk.Metadata.Source),
		"timestamp":   chunk.Metadata.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if chunk.Metadata.File != "" {
		meta["file"] = chunk.Metadata.File
	}
	if chunk.Metadata.Sender != "" {
		meta["sender"] = chunk.Metadata.Sender
	}
	if chunk.Metadata.Subject != "" {
		meta["subject"] = chunk.Metadata.Subject
	}
	if chunk.Metadata.Channel != "" {
		meta["channel"] = chunk.Metadata.Channel
	}
	if chunk.Metadata.User != "" {
		meta["user"] = chunk.Metadata.User
	}
	return meta
}
