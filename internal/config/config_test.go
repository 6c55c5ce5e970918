package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ANTHROPIC_AUTH_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "")

	path := writeConfig(t, `
llm:
  default_provider: openai
  providers:
    openai:
      api_key: key-from-file
      model: gpt-4o-mini
embeddings:
  provider: openai
  model: text-embedding-3-small
evaluation:
  concurrency: 8
  timeout: 30s
  limit: 100
storage:
  type: sqlite
  path: data/test.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.DefaultProvider != "openai" {
		t.Fatalf("default provider: got %q", cfg.LLM.DefaultProvider)
	}
	if cfg.LLM.Providers["openai"].Model != "gpt-4o-mini" {
		t.Fatalf("model: got %q", cfg.LLM.Providers["openai"].Model)
	}
	if cfg.Embeddings.Model != "text-embedding-3-small" {
		t.Fatalf("embeddings model: got %q", cfg.Embeddings.Model)
	}
	if cfg.Evaluation.Concurrency != 8 {
		t.Fatalf("concurrency: got %d", cfg.Evaluation.Concurrency)
	}
	if cfg.Evaluation.Timeout != 30*time.Second {
		t.Fatalf("timeout: got %v", cfg.Evaluation.Timeout)
	}
	if cfg.Evaluation.Limit != 100 {
		t.Fatalf("limit: got %d", cfg.Evaluation.Limit)
	}
	if cfg.Storage.Path != "data/test.db" {
		t.Fatalf("storage path: got %q", cfg.Storage.Path)
	}
	if cfg.EvalsDir != "evals" {
		t.Fatalf("evals dir default: got %q", cfg.EvalsDir)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ANTHROPIC_AUTH_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(writeConfig(t, "llm: {}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.DefaultProvider != "claude" {
		t.Fatalf("default provider: got %q", cfg.LLM.DefaultProvider)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")
	t.Setenv("OPENAI_API_KEY", "env-openai")

	cfg, err := Load(writeConfig(t, `
llm:
  providers:
    claude:
      api_key: file-key
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Providers["claude"].APIKey != "env-anthropic" {
		t.Fatalf("claude key: got %q", cfg.LLM.Providers["claude"].APIKey)
	}
	if cfg.LLM.Providers["openai"].APIKey != "env-openai" {
		t.Fatalf("openai key: got %q", cfg.LLM.Providers["openai"].APIKey)
	}
	if cfg.Embeddings.APIKey != "env-openai" {
		t.Fatalf("embeddings key: got %q", cfg.Embeddings.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
