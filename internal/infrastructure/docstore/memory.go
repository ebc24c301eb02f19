package docstore

import (
	"sync"

	"github.com/intelforge/ai-bos/internal/core/domain"
)

// Memory holds full parent documents keyed by id so child chunk matches can
// be resolved back to the document they came from.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]domain.Document)}
}

func (m *Memory) Put(doc domain.Document) {
	if doc.ID == "" {
		return
	}
	m.mu.Lock()
	m.docs[doc.ID] = doc
	m.mu.Unlock()
}

func (m *Memory) Get(id string) (domain.Document, bool) {
	m.mu.RLock()
	doc, ok := m.docs[id]
	m.mu.RUnlock()
	return doc, ok
}
