package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/intelforge/ai-bos/internal/core/domain"
	"github.com/intelforge/ai-bos/internal/core/ports"
)

// IngestUseCase runs one full multi-source ingestion: fetch from every
// configured connector, persist content and a catalog row per document, and
// hand each document off for processing.
//
// Connectors never fail the run. Network-bound sources fetch in parallel, the
// local records source runs inline, and the final document list preserves
// connector order regardless of fetch completion order.
type IngestUseCase struct {
	connectors []ports.SourceConnector
	repo       ports.DocumentRepository
	content    ports.ContentStore
	queue      ports.MessageQueue
	processor  ports.DocumentProcessor
	logger     *slog.Logger
}

// NewIngestUseCase wires the ingestion orchestrator. Exactly one of queue or
// processor should be set: queue hands documents to worker processes,
// processor runs the pipeline inline in the same process.
func NewIngestUseCase(
	connectors []ports.SourceConnector,
	repo ports.DocumentRepository,
	content ports.ContentStore,
	queue ports.MessageQueue,
	processor ports.DocumentProcessor,
	logger *slog.Logger,
) *IngestUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUseCase{
		connectors: connectors,
		repo:       repo,
		content:    content,
		queue:      queue,
		processor:  processor,
		logger:     logger,
	}
}

func (uc *IngestUseCase) IngestAll(ctx context.Context) ([]domain.Document, error) {
	fetched := uc.fetchAll(ctx)

	ingested := make([]domain.Document, 0, len(fetched))
	placeholders := 0
	failed := 0
	for _, doc := range fetched {
		if doc.IsPlaceholder() {
			placeholders++
		}
		stored, err := uc.ingestOne(ctx, doc)
		if err != nil {
			// One bad document never aborts the run.
			uc.logger.Error("document ingestion failed",
				"source", doc.Metadata.Source, "error", err)
			failed++
			continue
		}
		ingested = append(ingested, stored)
	}

	uc.logger.Info("ingestion run complete",
		"fetched", len(fetched),
		"ingested", len(ingested),
		"placeholders", placeholders,
		"failed", failed,
	)
	return ingested, nil
}

// fetchAll gathers every connector's documents. Slow or failing sources are
// isolated: each connector already settles its own failures into placeholder
// documents, so the gather waits for all of them and concatenates in
// connector order.
func (uc *IngestUseCase) fetchAll(ctx context.Context) []domain.Document {
	slots := make([][]domain.Document, len(uc.connectors))

	var wg sync.WaitGroup
	for i, connector := range uc.connectors {
		if connector.Source() == domain.SourceRecords {
			// Local structured records are fast and CPU-bound; fetch inline.
			slots[i] = connector.Fetch(ctx)
			continue
		}
		wg.Add(1)
		go func(i int, connector ports.SourceConnector) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					// A panicking connector contributes nothing; the run
					// settles with the remaining sources.
					uc.logger.Error("connector panicked",
						"source", string(connector.Source()), "panic", r)
				}
			}()
			slots[i] = connector.Fetch(ctx)
		}(i, connector)
	}
	wg.Wait()

	var out []domain.Document
	for _, docs := range slots {
		out = append(out, docs...)
	}
	return out
}

func (uc *IngestUseCase) ingestOne(ctx context.Context, doc domain.Document) (domain.Document, error) {
	doc.ID = uuid.NewString()
	doc.StoragePath = doc.ID
	doc.Status = domain.StatusIngested

	if err := uc.content.Save(ctx, doc.StoragePath, doc.Content); err != nil {
		return domain.Document{}, fmt.Errorf("save content: %w", err)
	}
	if err := uc.repo.Create(ctx, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("create catalog row: %w", err)
	}

	switch {
	case uc.processor != nil:
		if err := uc.processor.ProcessByID(ctx, doc.ID); err != nil {
			// The catalog row already records the failure; the run goes on.
			uc.logger.Error("inline processing failed", "document_id", doc.ID, "error", err)
		}
	case uc.queue != nil:
		if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
			return domain.Document{}, fmt.Errorf("publish ingestion event: %w", err)
		}
	}
	return doc, nil
}
