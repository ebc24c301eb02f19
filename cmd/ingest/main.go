package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/intelforge/ai-bos/internal/bootstrap"
	"github.com/intelforge/ai-bos/internal/config"
	"github.com/intelforge/ai-bos/internal/observability/metrics"
)

const serviceName = "ingest"

// One-shot ingestion run for cron or manual invocation. The api exposes the
// same operation over POST /v1/ingest.
func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	pipelineMetrics := metrics.NewPipelineMetrics(serviceName)

	docs, err := app.Ingestor.IngestAll(ctx)
	if err != nil {
		log.Fatalf("ingestion error: %v", err)
	}
	for _, doc := range docs {
		pipelineMetrics.ObserveIngested(serviceName, string(doc.Metadata.Source), doc.IsPlaceholder())
	}
	app.Logger.Info("ingestion run complete", "documents", len(docs))
}
