package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/intelforge/ai-bos/internal/core/domain"
	"github.com/intelforge/ai-bos/internal/core/ports"
)

type connectorFake struct {
	source domain.Source
	docs   []domain.Document
	delay  time.Duration
}

func (f *connectorFake) Source() domain.Source { return f.source }

func (f *connectorFake) Fetch(context.Context) []domain.Document {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.docs
}

type repoFake struct {
	mu       sync.Mutex
	created  []domain.Document
	statuses map[string][]string
	docs     map[string]domain.Document

	createErr error
	updateErr error
}

func newRepoFake() *repoFake {
	return &repoFake{
		statuses: make(map[string][]string),
		docs:     make(map[string]domain.Document),
	}
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *doc)
	f.docs[doc.ID] = *doc
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
	}
	return &doc, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = append(f.statuses[id], string(status))
	doc := f.docs[id]
	doc.Status = status
	doc.Metadata.Error = errMessage
	f.docs[id] = doc
	return nil
}

type contentStoreFake struct {
	mu      sync.Mutex
	saved   map[string]string
	saveErr error
}

func newContentStoreFake() *contentStoreFake {
	return &contentStoreFake{saved: make(map[string]string)}
}

func (f *contentStoreFake) Save(_ context.Context, key, content string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[key] = content
	return nil
}

func (f *contentStoreFake) Load(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.saved[key]
	if !ok {
		return "", fmt.Errorf("no content for key %s", key)
	}
	return content, nil
}

type queueFake struct {
	mu        sync.Mutex
	published []string
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return nil
}

type processorFake struct {
	mu        sync.Mutex
	processed []string
	err       error
}

func (f *processorFake) ProcessByID(_ context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, documentID)
	return f.err
}

type chunkerFake struct {
	chunks func(doc domain.Document) []domain.Chunk
}

func (f *chunkerFake) SplitDocument(doc domain.Document) []domain.Chunk {
	return f.chunks(doc)
}

type parentStoreFake struct {
	mu   sync.Mutex
	docs map[string]domain.Document
}

func newParentStoreFake() *parentStoreFake {
	return &parentStoreFake{docs: make(map[string]domain.Document)}
}

func (f *parentStoreFake) Put(doc domain.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = doc
}

func (f *parentStoreFake) Get(id string) (domain.Document, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	return doc, ok
}

type lexicalFake struct {
	mu      sync.Mutex
	indexed []domain.Document
	results []domain.RetrievedDocument
}

func (f *lexicalFake) Index(docs []domain.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, docs...)
}

func (f *lexicalFake) Search(string, int) []domain.RetrievedDocument {
	return f.results
}

type embedderFake struct {
	mu          sync.Mutex
	embedded    [][]string
	queries     []string
	embedErr    error
	queryErr    error
	queryVector []float32
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedded = append(f.embedded, texts)
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, 768)
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, text)
	if f.queryVector != nil {
		return f.queryVector, nil
	}
	return make([]float32, 768), nil
}

type vectorStoreFake struct {
	mu          sync.Mutex
	ensureCalls int
	upserts     [][]ports.VectorPoint
	matches     []ports.VectorMatch

	ensureErr error
	upsertErr error
	queryErr  error
}

func (f *vectorStoreFake) EnsureIndex(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureCalls++
	return f.ensureErr
}

func (f *vectorStoreFake) Upsert(_ context.Context, points []ports.VectorPoint) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, points)
	return nil
}

func (f *vectorStoreFake) Query(context.Context, []float32, int) ([]ports.VectorMatch, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

type generatorFake struct {
	mu       sync.Mutex
	prompts  []string
	generate func(prompt string) (string, error)
}

func (f *generatorFake) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.generate == nil {
		return "", fmt.Errorf("no generator behavior configured")
	}
	return f.generate(prompt)
}
