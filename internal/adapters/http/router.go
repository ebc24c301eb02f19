package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/intelforge/ai-bos/internal/core/ports"
)

// Router exposes the ingestion trigger, the document catalog, and the
// retrieval endpoint over plain net/http.
type Router struct {
	ingestor  ports.SourceIngestor
	retriever ports.KnowledgeRetriever
	repo      ports.DocumentRepository
	logger    *slog.Logger

	rateLimitRPS   float64
	rateLimitBurst int
	maxInFlight    int

	observeRetrieval func(documents int)
}

type RouterOptions struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	Logger         *slog.Logger

	// ObserveRetrieval, when set, is called with the result count of every
	// successful query.
	ObserveRetrieval func(documents int)
}

func NewRouter(
	ingestor ports.SourceIngestor,
	retriever ports.KnowledgeRetriever,
	repo ports.DocumentRepository,
	options RouterOptions,
) *Router {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		ingestor:       ingestor,
		retriever:      retriever,
		repo:           repo,
		logger:         logger,
		rateLimitRPS:   options.RateLimitRPS,
		rateLimitBurst: options.RateLimitBurst,
		maxInFlight:    options.MaxInFlight,

		observeRetrieval: options.ObserveRetrieval,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/ingest", rt.runIngestion)
	mux.HandleFunc("GET /v1/documents/{id}", rt.getDocumentByID)
	mux.HandleFunc("POST /v1/query", rt.query)

	var handler http.Handler = mux
	if rt.maxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.maxInFlight, 50*time.Millisecond)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// runIngestion triggers a full multi-source run synchronously and reports a
// summary. Source failures surface as placeholder documents, not as errors.
func (rt *Router) runIngestion(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.ingestor.IngestAll(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	placeholders := 0
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.IsPlaceholder() {
			placeholders++
		}
		ids = append(ids, doc.ID)
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"ingested":     len(docs),
		"placeholders": placeholders,
		"document_ids": ids,
	})
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.repo.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	results, err := rt.retriever.Retrieve(r.Context(), req.Query)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.observeRetrieval != nil {
		rt.observeRetrieval(len(results))
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error("request failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
