package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunker.MaxTokens != 200 {
		t.Errorf("expected MaxTokens=200, got %d", cfg.Chunker.MaxTokens)
	}
	if cfg.Chunker.Mode != "sentence" {
		t.Errorf("expected Mode=sentence, got %s", cfg.Chunker.Mode)
	}
	if cfg.Completion.TopK != 3 {
		t.Errorf("expected Completion.TopK=3, got %d", cfg.Completion.TopK)
	}
	if cfg.Completion.Temperature != 0.7 {
		t.Errorf("expected Temperature=0.7, got %f", cfg.Completion.Temperature)
	}
	if cfg.Paths.Sentinel != ".gitkeep" {
		t.Errorf("expected sentinel .gitkeep, got %s", cfg.Paths.Sentinel)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	content := `
chunker:
  max_tokens: 100
  mode: word
embedding:
  provider: hash
  dimension: 64
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunker.MaxTokens != 100 {
		t.Errorf("expected MaxTokens=100, got %d", cfg.Chunker.MaxTokens)
	}
	if cfg.Chunker.Mode != "word" {
		t.Errorf("expected Mode=word, got %s", cfg.Chunker.Mode)
	}
	if cfg.Embedding.Provider != "hash" || cfg.Embedding.Dimension != 64 {
		t.Errorf("unexpected embedding config: %+v", cfg.Embedding)
	}
	// untouched sections keep their defaults
	if cfg.Completion.Model != "local-model" {
		t.Errorf("expected default completion model, got %s", cfg.Completion.Model)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(configPath, []byte("chunker: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	content := `
retrieve:
  top_k: 8
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Retrieve.TopK != 8 {
		t.Errorf("expected TopK=8, got %d", cfg.Retrieve.TopK)
	}
}

func TestResolve(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Paths.History = "/var/lib/quimiaca/historico.db"

	resolved := cfg.Resolve("/home/user/curso")

	expected := filepath.Join("/home/user/curso", "dados", "chunks", "base_chunks.json")
	if resolved.Paths.Metadata != expected {
		t.Errorf("expected %s, got %s", expected, resolved.Paths.Metadata)
	}
	if resolved.Paths.History != "/var/lib/quimiaca/historico.db" {
		t.Errorf("absolute path should be kept, got %s", resolved.Paths.History)
	}
	if cfg.Paths.Metadata == resolved.Paths.Metadata {
		t.Error("Resolve must not modify the receiver")
	}
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig().Resolve(root)

	if err := cfg.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	for _, dir := range []string{cfg.Paths.Sources, filepath.Dir(cfg.Paths.Index)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	}
}
