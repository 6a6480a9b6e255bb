package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Storage
	DataDir    string
	UploadDir  string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Embeddings / extraction
	OpenAIBaseURL   string
	OpenAIAPIKey    string
	EmbeddingModel  string
	ExtractionModel string
	EmbedDimensions int

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Search
	SearchCandidateCap int

	// Ingestion
	WorkerCount int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		DataDir:            getEnv("DATA_DIR", "data"),
		UploadDir:          getEnv("UPLOAD_DIR", "data/uploads"),
		Neo4jURI:           getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:          getEnv("NEO4J_USER", ""),
		Neo4jPassword:      getEnv("NEO4J_PASSWORD", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		ExtractionModel:    getEnv("EXTRACTION_MODEL", ""),
		EmbedDimensions:    getEnvInt("EMBED_DIMENSIONS", 1536),
		ChunkSize:          getEnvInt("CHUNK_SIZE", 800),
		ChunkOverlap:       getEnvInt("CHUNK_OVERLAP", 200),
		SearchCandidateCap: getEnvInt("SEARCH_CANDIDATE_CAP", 500),
		WorkerCount:        getEnvInt("WORKER_COUNT", 4),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.EmbedDimensions < 1 {
		return fmt.Errorf("EMBED_DIMENSIONS must be positive")
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("CHUNK_SIZE must be positive")
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("CHUNK_OVERLAP must not be negative")
	}
	if c.SearchCandidateCap < 1 {
		return fmt.Errorf("SEARCH_CANDIDATE_CAP must be positive")
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	// Neo4j credentials are optional: without them the graph store
	// runs on the cache-backed fallback backend.
	return nil
}

// HasNeo4j returns true if graph database credentials are configured
func (c *Config) HasNeo4j() bool {
	return c.Neo4jUser != "" && c.Neo4jPassword != ""
}

// HasOpenAI returns true if a model endpoint is configured
func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
