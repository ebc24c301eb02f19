package domain

// Retriever provenance tags carried on retrieval results.
const (
	RetrieverLexical  = "lexical"
	RetrieverSemantic = "semantic"
)

// RetrievedDocument is one ranked result of the composite retriever: a parent
// document (or chunk resolved to its parent), its relevance score, and which
// retriever(s) contributed it.
type RetrievedDocument struct {
	ID         string   `json:"id"`
	Content    string   `json:"content"`
	Metadata   Metadata `json:"metadata"`
	Score      float64  `json:"score"`
	Retrievers []string `json:"retrievers,omitempty"`
}

// FromRetriever reports whether the given provenance tag is present.
func (r RetrievedDocument) FromRetriever(tag string) bool {
	for _, t := range r.Retrievers {
		if t == tag {
			return true
		}
	}
	return false
}
