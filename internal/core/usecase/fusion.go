package usecase

import (
	"sort"

	"github.com/intelforge/ai-bos/internal/core/domain"
)

// fuseWeighted blends lexical and semantic result lists. Scores are
// normalized to [0, 1] within each list before weighting, so the raw term
// frequency scale of the lexical side cannot drown out cosine similarities.
// Documents returned by both retrievers sum their weighted contributions and
// carry both provenance tags.
func fuseWeighted(lexical, semantic []domain.RetrievedDocument, lexicalWeight, semanticWeight float64) []domain.RetrievedDocument {
	type fused struct {
		doc   domain.RetrievedDocument
		score float64
	}

	acc := make(map[string]*fused, len(lexical)+len(semantic))
	order := make([]string, 0, len(lexical)+len(semantic))

	addList := func(docs []domain.RetrievedDocument, weight float64) {
		maxScore := 0.0
		for _, doc := range docs {
			if doc.Score > maxScore {
				maxScore = doc.Score
			}
		}
		for _, doc := range docs {
			normalized := 0.0
			if maxScore > 0 {
				normalized = doc.Score / maxScore
			}
			candidate, seen := acc[doc.ID]
			if !seen {
				candidate = &fused{doc: doc}
				acc[doc.ID] = candidate
				order = append(order, doc.ID)
			} else {
				candidate.doc = preferRicher(candidate.doc, doc)
				candidate.doc.Retrievers = mergeTags(candidate.doc.Retrievers, doc.Retrievers)
			}
			candidate.score += weight * normalized
		}
	}

	addList(semantic, semanticWeight)
	addList(lexical, lexicalWeight)

	out := make([]domain.RetrievedDocument, 0, len(order))
	for _, id := range order {
		doc := acc[id].doc
		doc.Score = acc[id].score
		out = append(out, doc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// preferRicher keeps the candidate with content when one side resolved only a
// bare chunk.
func preferRicher(current, candidate domain.RetrievedDocument) domain.RetrievedDocument {
	if current.Content == "" && candidate.Content != "" {
		current.Content = candidate.Content
	}
	if current.Metadata.Source == "" && candidate.Metadata.Source != "" {
		current.Metadata = candidate.Metadata
	}
	return current
}

func mergeTags(current, extra []string) []string {
	for _, tag := range extra {
		found := false
		for _, have := range current {
			if have == tag {
				found = true
				break
			}
		}
		if !found {
			current = append(current, tag)
		}
	}
	return current
}
