package retriever

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/intelforge/ai-bos/internal/core/domain"
)

const bm25K1 = 1.2

// Keyword is an in-process lexical index over ingested documents, the sparse
// half of ensemble retrieval. Scoring is saturated term frequency, the same
// weighting the dense store applies to its sparse vectors, without a corpus
// pass for IDF.
type Keyword struct {
	mu   sync.RWMutex
	docs []indexedDocument
}

type indexedDocument struct {
	doc      domain.Document
	termFreq map[string]float64
}

func NewKeyword() *Keyword {
	return &Keyword{}
}

// Index adds documents to the lexical corpus. Blank documents are skipped.
// Safe to call concurrently with Search.
func (k *Keyword) Index(docs []domain.Document) {
	prepared := make([]indexedDocument, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}
		tf := make(map[string]float64, 32)
		for _, token := range tokenizeAlphaNum(doc.Content) {
			tf[token]++
		}
		prepared = append(prepared, indexedDocument{doc: doc, termFreq: tf})
	}
	if len(prepared) == 0 {
		return
	}

	k.mu.Lock()
	k.docs = append(k.docs, prepared...)
	k.mu.Unlock()
}

// Search scores every indexed document against the query terms and returns
// the top limit hits tagged with lexical provenance. Ties keep insertion
// order so results are deterministic.
func (k *Keyword) Search(query string, limit int) []domain.RetrievedDocument {
	terms := tokenizeAlphaNum(query)
	if len(terms) == 0 || limit <= 0 {
		return nil
	}

	k.mu.RLock()
	defer k.mu.RUnlock()

	type scored struct {
		index int
		score float64
	}
	hits := make([]scored, 0, len(k.docs))
	for i, entry := range k.docs {
		score := 0.0
		for _, term := range terms {
			tf := entry.termFreq[term]
			if tf == 0 {
				continue
			}
			score += (tf * (bm25K1 + 1.0)) / (tf + bm25K1)
		}
		if score > 0 {
			hits = append(hits, scored{index: i, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]domain.RetrievedDocument, 0, len(hits))
	for _, hit := range hits {
		doc := k.docs[hit.index].doc
		out = append(out, domain.RetrievedDocument{
			ID:         doc.ID,
			Content:    doc.Content,
			Metadata:   doc.Metadata,
			Score:      hit.score,
			Retrievers: []string{domain.RetrieverLexical},
		})
	}
	return out
}

func tokenizeAlphaNum(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
