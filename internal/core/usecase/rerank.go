package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/intelforge/ai-bos/internal/core/domain"
)

// rerank asks the generator to order the merged candidates by relevance to
// the query. The generator is an oracle, not a gate: an error or an
// unparsable reply keeps the fused ordering.
func (uc *RetrieveUseCase) rerank(ctx context.Context, query string, docs []domain.RetrievedDocument) []domain.RetrievedDocument {
	if len(docs) <= 1 {
		return docs
	}
	head := docs
	if len(head) > rerankCandidates {
		head = head[:rerankCandidates]
	}

	reply, err := uc.generator.Generate(ctx, rerankPrompt(query, head))
	if err != nil {
		uc.logger.Warn("rerank generation failed, keeping fused order", "error", err)
		return docs
	}
	ranking := parseRanking(reply, len(head))
	if len(ranking) == 0 {
		uc.logger.Warn("rerank reply unparsable, keeping fused order", "reply", reply)
		return docs
	}

	out := make([]domain.RetrievedDocument, 0, len(docs))
	used := make(map[int]bool, len(head))
	for _, idx := range ranking {
		out = append(out, head[idx])
		used[idx] = true
	}
	for i, doc := range head {
		if !used[i] {
			out = append(out, doc)
		}
	}
	out = append(out, docs[len(head):]...)
	return out
}

func rerankPrompt(query string, docs []domain.RetrievedDocument) string {
	var b strings.Builder
	b.WriteString("Rank the documents below by relevance to the question. ")
	b.WriteString("Reply with only the document numbers, most relevant first, comma separated.\n\n")
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\n\n")
	for i, doc := range docs {
		fmt.Fprintf(&b, "Document %d:\n%s\n\n", i+1, excerpt(doc.Content, 500))
	}
	return b.String()
}

// parseRanking extracts an ordering of 1-based document numbers from the
// generator's reply, tolerating prose around them. Returns 0-based indices.
func parseRanking(reply string, n int) []int {
	fields := strings.FieldsFunc(reply, func(r rune) bool {
		return r < '0' || r > '9'
	})
	out := make([]int, 0, n)
	seen := make(map[int]bool, n)
	for _, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil || v < 1 || v > n || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v-1)
	}
	return out
}

func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
