package crm

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/intelforge/ai-bos/internal/core/domain"
	"github.com/intelforge/ai-bos/internal/infrastructure/anonymize"
)

const errorTag = "[RECORDS_LOAD_ERROR]"

// Connector loads structured customer records from a local JSON or CSV file,
// one document per record. It is synchronous: the file is local and fast.
type Connector struct {
	path   string
	logger *slog.Logger
}

func New(path string, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{path: path, logger: logger.With("connector", "records")}
}

func (c *Connector) Source() domain.Source {
	return domain.SourceRecords
}

// Fetch never fails: a missing file, unsupported extension, or parse error
// yields exactly one placeholder document. Everything, including the
// placeholder, passes through the anonymizer.
func (c *Connector) Fetch(ctx context.Context) []domain.Document {
	docs, err := c.load(ctx)
	if err != nil {
		c.logger.Warn("records load failed, returning placeholder", "path", c.path, "error", err)
		docs = []domain.Document{domain.NewPlaceholder(domain.SourceRecords, errorTag, err)}
	} else {
		c.logger.Info("records loaded", "path", c.path, "records", len(docs))
	}
	return anonymize.Documents(docs)
}

func (c *Connector) load(_ context.Context) ([]domain.Document, error) {
	if _, err := os.Stat(c.path); err != nil {
		return nil, fmt.Errorf("records file not found: %s", c.path)
	}

	switch strings.ToLower(filepath.Ext(c.path)) {
	case ".json":
		return c.loadJSON()
	case ".csv":
		return c.loadCSV()
	default:
		return nil, fmt.Errorf("records connector supports JSON or CSV only, got %s", filepath.Ext(c.path))
	}
}

func (c *Connector) loadJSON() ([]domain.Document, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}

	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		// A single top-level object is one record.
		var single map[string]any
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return nil, fmt.Errorf("parse records json: %w", err)
		}
		records = []map[string]any{single}
	}

	now := time.Now().UTC()
	docs := make([]domain.Document, 0, len(records))
	for i, record := range records {
		docs = append(docs, c.recordDocument(flattenJSON(record), i, now))
	}
	return docs, nil
}

func (c *Connector) loadCSV() ([]domain.Document, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open records file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse records csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("records csv has no data rows")
	}

	header := rows[0]
	now := time.Now().UTC()
	docs := make([]domain.Document, 0, len(rows)-1)
	for i, row := range rows[1:] {
		lines := make([]string, 0, len(row))
		for j, value := range row {
			key := fmt.Sprintf("column_%d", j)
			if j < len(header) {
				key = header[j]
			}
			lines = append(lines, key+": "+value)
		}
		docs = append(docs, c.recordDocument(strings.Join(lines, "\n"), i, now))
	}
	return docs, nil
}

func (c *Connector) recordDocument(content string, index int, ts time.Time) domain.Document {
	return domain.Document{
		Content: content,
		Status:  domain.StatusIngested,
		Metadata: domain.Metadata{
			Source:      domain.SourceRecords,
			Timestamp:   ts,
			File:        c.path,
			RecordIndex: index,
		},
	}
}

// flattenJSON renders a record as deterministic "key: value" lines.
func flattenJSON(record map[string]any) string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, record[k]))
	}
	return strings.Join(lines, "\n")
}
