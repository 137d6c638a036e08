// Package config loads all service settings from the environment with
// sane local-development defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Vector    VectorConfig
	Embedding EmbeddingConfig
	Chunking  ChunkingConfig
	Upload    UploadConfig
	LLM       LLMConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// VectorConfig selects and parameterizes the vector index backend.
// Backend is "chroma" or "pgvector".
type VectorConfig struct {
	Backend    string
	ChromaURL  string
	Collection string
	// PostgresURL is required only for the pgvector backend.
	PostgresURL string
}

// EmbeddingConfig selects the embedding provider. Provider is "ollama"
// or "openai".
type EmbeddingConfig struct {
	Provider  string
	Model     string
	OllamaURL string
	OpenAIKey string
}

type ChunkingConfig struct {
	Size    int
	Overlap int
}

type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

type LLMConfig struct {
	OpenAIKey        string
	AnthropicKey     string
	OllamaURL        string
	DefaultProvider  string
	DefaultModel     string
	FallbackProvider string
	MaxRetries       int
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	chunkSize, err := getEnvInt("CHUNK_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid CHUNK_SIZE: %w", err)
	}

	chunkOverlap, err := getEnvInt("CHUNK_OVERLAP", 200)
	if err != nil {
		return nil, fmt.Errorf("invalid CHUNK_OVERLAP: %w", err)
	}

	maxUploadMB, err := getEnvInt("MAX_UPLOAD_MB", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %w", err)
	}

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Vector: VectorConfig{
			Backend:     getEnv("VECTOR_BACKEND", "chroma"),
			ChromaURL:   getEnv("CHROMA_URL", "http://localhost:8000"),
			Collection:  getEnv("VECTOR_COLLECTION", "documents"),
			PostgresURL: getEnv("DATABASE_URL", ""),
		},
		Embedding: EmbeddingConfig{
			Provider:  getEnv("EMBEDDING_PROVIDER", "ollama"),
			Model:     getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			OllamaURL: getEnv("OLLAMA_URL", "http://localhost:11434"),
			OpenAIKey: getEnv("OPENAI_API_KEY", ""),
		},
		Chunking: ChunkingConfig{
			Size:    chunkSize,
			Overlap: chunkOverlap,
		},
		Upload: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "uploads"),
			MaxSizeBytes: int64(maxUploadMB) << 20,
		},
		LLM: LLMConfig{
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "ollama"),
			DefaultModel:     getEnv("LLM_DEFAULT_MODEL", "llama3"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			MaxRetries:       maxRetries,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	switch c.Vector.Backend {
	case "chroma":
		if c.Vector.ChromaURL == "" {
			missing = append(missing, "CHROMA_URL")
		}
	case "pgvector":
		if c.Vector.PostgresURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q", c.Vector.Backend)
	}

	switch c.Embedding.Provider {
	case "ollama":
		if c.Embedding.OllamaURL == "" {
			missing = append(missing, "OLLAMA_URL")
		}
	case "openai":
		if c.Embedding.OpenAIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.Embedding.Provider)
	}

	if c.Chunking.Overlap <= 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("CHUNK_OVERLAP must be between 1 and CHUNK_SIZE-1, got size=%d overlap=%d",
			c.Chunking.Size, c.Chunking.Overlap)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
