package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIPort != "8080" {
		t.Errorf("APIPort = %q", cfg.APIPort)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 200 {
		t.Errorf("chunking defaults = %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.PineconeIndex != "knowledge-base" {
		t.Errorf("PineconeIndex = %q", cfg.PineconeIndex)
	}
	if cfg.ProcessInline {
		t.Error("ProcessInline should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("PROCESS_INLINE", "true")
	t.Setenv("FILE_PATHS", " a.txt, b.pdf ,,c.csv ")

	cfg := Load()
	if cfg.ChunkSize != 500 {
		t.Errorf("ChunkSize = %d", cfg.ChunkSize)
	}
	if !cfg.ProcessInline {
		t.Error("ProcessInline override not applied")
	}
	want := []string{"a.txt", "b.pdf", "c.csv"}
	if len(cfg.FilePaths) != len(want) {
		t.Fatalf("FilePaths = %v", cfg.FilePaths)
	}
	for i, p := range want {
		if cfg.FilePaths[i] != p {
			t.Errorf("FilePaths[%d] = %q, want %q", i, cfg.FilePaths[i], p)
		}
	}
}

func TestLoadBadNumbersFallBack(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "not-a-number")
	t.Setenv("API_RATE_LIMIT_RPS", "also-not")

	cfg := Load()
	if cfg.ChunkSize != 1000 {
		t.Errorf("ChunkSize = %d, want fallback 1000", cfg.ChunkSize)
	}
	if cfg.APIRateLimitRPS != 10 {
		t.Errorf("APIRateLimitRPS = %v, want fallback 10", cfg.APIRateLimitRPS)
	}
}
