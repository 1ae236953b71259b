package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReadsKeyFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.OpenAIAPIKey != "sk-test" {
		t.Fatalf("unexpected API key: %q", cfg.OpenAIAPIKey)
	}
}

func TestLoadFailsWhenKeyMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "placeholder")
	os.Unsetenv("OPENAI_API_KEY")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when OPENAI_API_KEY is not set")
	}
}

func TestLoadFailsWhenKeyEmpty(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when OPENAI_API_KEY is empty")
	}
}

func TestLoadMergesDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("OPENAI_API_KEY=sk-from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env file: %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "placeholder")
	os.Unsetenv("OPENAI_API_KEY")
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.OpenAIAPIKey != "sk-from-file" {
		t.Fatalf("unexpected API key: %q", cfg.OpenAIAPIKey)
	}
}

func TestLoadPrefersEnvironmentOverDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("OPENAI_API_KEY=sk-from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env file: %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.OpenAIAPIKey != "sk-from-env" {
		t.Fatalf("unexpected API key: %q", cfg.OpenAIAPIKey)
	}
}
