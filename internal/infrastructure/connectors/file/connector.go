package file

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/intelforge/ai-bos/internal/core/domain"
	"github.com/intelforge/ai-bos/internal/infrastructure/anonymize"
)

const errorTag = "[FILE_LOAD_ERROR]"

// Connector loads local documents (plain text, markdown, PDF, CSV, XLSX) into
// one document per file. Loads run on a shared bounded pool so a directory of
// large PDFs cannot fan out unbounded goroutines.
type Connector struct {
	paths  []string
	pool   *ants.Pool
	logger *slog.Logger
}

func New(paths []string, pool *ants.Pool, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{paths: paths, pool: pool, logger: logger.With("connector", "file")}
}

func (c *Connector) Source() domain.Source {
	return domain.SourceFile
}

// Fetch loads every configured path concurrently and never fails as a whole:
// a file that cannot be read or parsed becomes a placeholder document for
// that one file, the rest load normally. Output order follows the configured
// path order.
func (c *Connector) Fetch(ctx context.Context) []domain.Document {
	docs := make([]domain.Document, len(c.paths))

	var wg sync.WaitGroup
	for i, path := range c.paths {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			docs[i] = c.loadOne(ctx, path)
		}
		// Submit can fail only on a released pool; degrade to inline.
		if c.pool == nil || c.pool.Submit(task) != nil {
			task()
		}
	}
	wg.Wait()

	loaded := 0
	for _, doc := range docs {
		if !doc.IsPlaceholder() {
			loaded++
		}
	}
	c.logger.Info("files loaded", "requested", len(c.paths), "loaded", loaded)
	return anonymize.Documents(docs)
}

func (c *Connector) loadOne(ctx context.Context, path string) domain.Document {
	if err := ctx.Err(); err != nil {
		return c.placeholder(path, err)
	}
	content, err := loadFile(path)
	if err != nil {
		c.logger.Warn("file load failed, returning placeholder", "path", path, "error", err)
		return c.placeholder(path, err)
	}
	return domain.Document{
		Content: content,
		Status:  domain.StatusIngested,
		Metadata: domain.Metadata{
			Source:    domain.SourceFile,
			Timestamp: time.Now().UTC(),
			File:      path,
		},
	}
}

func (c *Connector) placeholder(path string, err error) domain.Document {
	doc := domain.NewPlaceholder(domain.SourceFile, errorTag, fmt.Errorf("%s: %w", path, err))
	doc.Metadata.File = path
	return doc
}
