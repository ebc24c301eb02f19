package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intelforge/ai-bos/internal/bootstrap"
	"github.com/intelforge/ai-bos/internal/config"
	"github.com/intelforge/ai-bos/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ProcessInline {
		log.Fatal("PROCESS_INLINE is set; the worker has nothing to consume")
	}

	app, err := bootstrap.New(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	pipelineMetrics := metrics.NewPipelineMetrics(serviceName)
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", pipelineMetrics.Handler())
	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metricsMux,
	}
	go func() {
		app.Logger.Info("metrics listening", "port", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Error("metrics server error", "error", err)
		}
	}()

	app.Logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		if doc, err := app.Repo.GetByID(processCtx, documentID); err == nil && !doc.CreatedAt.IsZero() {
			pipelineMetrics.ObserveQueueLag(serviceName, time.Since(doc.CreatedAt))
		}

		pipelineMetrics.StartDocument()
		start := time.Now()
		err := app.Processor.ProcessByID(processCtx, documentID)
		pipelineMetrics.FinishDocument(serviceName, time.Since(start), err)
		return err
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
