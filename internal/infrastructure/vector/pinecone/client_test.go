package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/intelforge/ai-bos/internal/core/domain"
	"github.com/intelforge/ai-bos/internal/core/ports"
)

// fakeControl serves both the control plane and the data plane from one
// test server; the describe response points the client back at the server.
type fakeControl struct {
	mux       *http.ServeMux
	server    *httptest.Server
	created   atomic.Int32
	upserts   atomic.Int32
	readyAt   int32 // describes needed before the index reports ready
	describes atomic.Int32
}

func newFakeControl(t *testing.T, readyAt int32) *fakeControl {
	t.Helper()
	f := &fakeControl{mux: http.NewServeMux(), readyAt: readyAt}
	f.server = httptest.NewServer(f.mux)
	t.Cleanup(f.server.Close)

	f.mux.HandleFunc("GET /indexes/kb-test", func(w http.ResponseWriter, _ *http.Request) {
		n := f.describes.Add(1)
		if f.created.Load() == 0 {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		ready := n >= f.readyAt
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": "kb-test",
			"host": f.server.URL,
			"status": map[string]any{
				"ready": ready,
				"state": map[bool]string{true: "Ready", false: "Initializing"}[ready],
			},
		})
	})
	f.mux.HandleFunc("POST /indexes", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["dimension"] != float64(768) || payload["metric"] != "cosine" {
			http.Error(w, "wrong index config", http.StatusBadRequest)
			return
		}
		f.created.Add(1)
		w.WriteHeader(http.StatusCreated)
	})
	f.mux.HandleFunc("POST /vectors/upsert", func(w http.ResponseWriter, r *http.Request) {
		f.upserts.Add(1)
		var payload struct {
			Vectors []json.RawMessage `json:"vectors"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_ = json.NewEncoder(w).Encode(map[string]int{"upsertedCount": len(payload.Vectors)})
	})
	f.mux.HandleFunc("POST /query", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"matches": []map[string]any{
				{"id": "c1", "score": 0.91, "metadata": map[string]any{"text": "first", "parent_id": "p1"}},
				{"id": "c2", "score": 0.45, "metadata": map[string]any{"text": "second", "parent_id": "p2"}},
			},
		})
	})
	return f
}

func newClient(t *testing.T, f *fakeControl) *Client {
	t.Helper()
	client, err := New("test-key", "kb-test", Options{ControlURL: f.server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New("", "idx", Options{}); !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("missing key: got %v, want ErrConfiguration", err)
	}
	if _, err := New("key", "  ", Options{}); !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("missing index: got %v, want ErrConfiguration", err)
	}
}

func TestEnsureIndexCreatesMissingIndex(t *testing.T) {
	f := newFakeControl(t, 1)
	client := newClient(t, f)

	if err := client.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if f.created.Load() != 1 {
		t.Fatalf("created %d indexes, want 1", f.created.Load())
	}

	// Second call is a no-op once ready.
	before := f.describes.Load()
	if err := client.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("second EnsureIndex: %v", err)
	}
	if f.describes.Load() != before {
		t.Fatal("EnsureIndex re-described a ready index")
	}
}

func TestUpsertAndQueryRoundTrip(t *testing.T) {
	f := newFakeControl(t, 1)
	client := newClient(t, f)

	err := client.Upsert(context.Background(), []ports.VectorPoint{
		{ID: "a", Values: make([]float32, 768), Metadata: map[string]any{"text": "alpha"}},
		{ID: "b", Values: make([]float32, 768), Metadata: map[string]any{"text": "beta"}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if f.upserts.Load() != 1 {
		t.Fatalf("upsert requests = %d, want 1", f.upserts.Load())
	}

	matches, err := client.Query(context.Background(), make([]float32, 768), 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].ID != "c1" || matches[0].Score != 0.91 {
		t.Fatalf("first match = %+v", matches[0])
	}
	if matches[0].Metadata["parent_id"] != "p1" {
		t.Fatalf("metadata not decoded: %+v", matches[0].Metadata)
	}
}

func TestUpsertEmptyIsNoOp(t *testing.T) {
	f := newFakeControl(t, 1)
	client := newClient(t, f)

	if err := client.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("Upsert(nil): %v", err)
	}
	if f.upserts.Load() != 0 {
		t.Fatal("empty upsert hit the network")
	}
}
