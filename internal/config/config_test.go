package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Vector.Backend != "chroma" {
		t.Errorf("vector backend = %q, want chroma", cfg.Vector.Backend)
	}
	if cfg.Chunking.Size != 1000 || cfg.Chunking.Overlap != 200 {
		t.Errorf("chunking = %+v, want 1000/200", cfg.Chunking)
	}
	if cfg.Upload.MaxSizeBytes != 100<<20 {
		t.Errorf("max upload = %d, want 100 MiB", cfg.Upload.MaxSizeBytes)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("VECTOR_BACKEND", "pgvector")
	t.Setenv("DATABASE_URL", "postgres://localhost/rag")
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Vector.Backend != "pgvector" || cfg.Vector.PostgresURL == "" {
		t.Errorf("vector = %+v", cfg.Vector)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadInvalidInt(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("want error for bad SERVER_PORT")
	}
}

func TestValidate(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		cfg, _ := Load()
		cfg.Vector.Backend = "weaviate"
		if err := cfg.Validate(); err == nil {
			t.Fatal("want error for unknown backend")
		}
	})

	t.Run("pgvector requires database url", func(t *testing.T) {
		cfg, _ := Load()
		cfg.Vector.Backend = "pgvector"
		cfg.Vector.PostgresURL = ""
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
			t.Fatalf("err = %v, want DATABASE_URL mention", err)
		}
	})

	t.Run("openai embeddings require key", func(t *testing.T) {
		cfg, _ := Load()
		cfg.Embedding.Provider = "openai"
		cfg.Embedding.OpenAIKey = ""
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
			t.Fatalf("err = %v, want OPENAI_API_KEY mention", err)
		}
	})

	t.Run("overlap must be below size", func(t *testing.T) {
		cfg, _ := Load()
		cfg.Chunking.Size = 100
		cfg.Chunking.Overlap = 100
		if err := cfg.Validate(); err == nil {
			t.Fatal("want error for overlap >= size")
		}
	})
}
