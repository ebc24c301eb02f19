package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/intelforge/ai-bos/internal/config"
	"github.com/intelforge/ai-bos/internal/core/ports"
	"github.com/intelforge/ai-bos/internal/core/usecase"
	"github.com/intelforge/ai-bos/internal/infrastructure/chunking"
	"github.com/intelforge/ai-bos/internal/infrastructure/connectors/crm"
	"github.com/intelforge/ai-bos/internal/infrastructure/connectors/file"
	"github.com/intelforge/ai-bos/internal/infrastructure/connectors/gmailbox"
	"github.com/intelforge/ai-bos/internal/infrastructure/connectors/slackmsg"
	"github.com/intelforge/ai-bos/internal/infrastructure/docstore"
	"github.com/intelforge/ai-bos/internal/infrastructure/embedding"
	"github.com/intelforge/ai-bos/internal/infrastructure/gemini"
	"github.com/intelforge/ai-bos/internal/infrastructure/queue/nats"
	"github.com/intelforge/ai-bos/internal/infrastructure/repository/postgres"
	"github.com/intelforge/ai-bos/internal/infrastructure/resilience"
	"github.com/intelforge/ai-bos/internal/infrastructure/retriever"
	"github.com/intelforge/ai-bos/internal/infrastructure/storage/localfs"
	"github.com/intelforge/ai-bos/internal/infrastructure/vector/pinecone"
	"github.com/intelforge/ai-bos/internal/observability/logging"
)

// App wires the whole dependency graph once so the api, worker, and ingest
// entrypoints share one composition root.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Repo      ports.DocumentRepository
	Queue     ports.MessageQueue
	Ingestor  ports.SourceIngestor
	Processor ports.DocumentProcessor
	Retriever ports.KnowledgeRetriever

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	contentStore, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init content storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	geminiClient, err := gemini.New(cfg.GeminiAPIKey, gemini.Options{
		EmbedModel: cfg.GeminiEmbedModel,
		GenModel:   cfg.GeminiGenModel,
		Executor:   executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}
	embedder, err := embedding.NewService(gemini.NewEmbedder(geminiClient), 0, logger)
	if err != nil {
		return nil, fmt.Errorf("init embedding service: %w", err)
	}
	generator := gemini.NewGenerator(geminiClient)

	vectorStore, err := pinecone.New(cfg.PineconeAPIKey, cfg.PineconeIndex, pinecone.Options{
		Executor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	parents := docstore.NewMemory()
	lexical := retriever.NewKeyword()

	processor := usecase.NewProcessUseCase(
		repo, contentStore, chunker, parents, lexical, embedder, vectorStore, logger)

	var queue *nats.Queue
	var inlineProcessor ports.DocumentProcessor
	if cfg.ProcessInline {
		inlineProcessor = processor
	} else {
		queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
	}

	loadPool, err := ants.NewPool(cfg.FileLoadWorkers)
	if err != nil {
		return nil, fmt.Errorf("init file load pool: %w", err)
	}

	connectors := []ports.SourceConnector{
		crm.New(cfg.RecordsPath, logger),
		file.New(cfg.FilePaths, loadPool, logger),
		slackmsg.New(cfg.SlackBotToken, cfg.SlackChannelID, cfg.SlackMaxMsgs, logger),
		gmailbox.New(cfg.MailCredentials, cfg.MailTokenPath, cfg.MailMaxResults, logger),
	}

	var queuePort ports.MessageQueue
	if queue != nil {
		queuePort = queue
	}
	ingestor := usecase.NewIngestUseCase(
		connectors, repo, contentStore, queuePort, inlineProcessor, logger)

	retrieveUC := usecase.NewRetrieveUseCase(
		embedder, vectorStore, lexical, parents, repo, contentStore, generator, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Repo:      repo,
		Queue:     queuePort,
		Ingestor:  ingestor,
		Processor: processor,
		Retriever: retrieveUC,
		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
			loadPool.Release()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
