package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// OllamaConfig holds settings for the Ollama server used for both
// embeddings and answer generation.
type OllamaConfig struct {
	Host       string
	Model      string
	EmbedModel string
	TimeoutSec int
}

// IngestConfig controls document chunking and embedding during upload.
type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	EmbedWorkers int
}

// QueryConfig controls retrieval behavior for /query.
type QueryConfig struct {
	TopK           int
	CandidateLimit int
}

// RedisConfig holds settings for the optional embedding cache.
// An empty Addr disables the cache entirely.
type RedisConfig struct {
	Addr             string
	Password         string
	DB               int
	EmbedCacheTTLSec int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	CORSOrigins string
	Database    DatabaseConfig
	MinIO       MinIOConfig
	Ollama      OllamaConfig
	Ingest      IngestConfig
	Query       QueryConfig
	Redis       RedisConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	cfg := &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8000"),
		Port:        getEnv("PORT", "8000"),
		CORSOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Ollama: OllamaConfig{
			Host:       getEnv("OLLAMA_HOST", "http://localhost:11434"),
			Model:      getEnv("OLLAMA_MODEL", "llama3.2"),
			EmbedModel: getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
			TimeoutSec: getEnvInt("OLLAMA_TIMEOUT_SEC", 120),
		},
		Ingest: IngestConfig{
			ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
			ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
			EmbedWorkers: getEnvInt("EMBED_WORKERS", 4),
		},
		Query: QueryConfig{
			TopK:           getEnvInt("QUERY_TOP_K", 4),
			CandidateLimit: getEnvInt("QUERY_CANDIDATE_LIMIT", 2000),
		},
		Redis: RedisConfig{
			Addr:             getEnv("REDIS_ADDR", ""),
			Password:         getEnv("REDIS_PASSWORD", ""),
			DB:               getEnvInt("REDIS_DB", 0),
			EmbedCacheTTLSec: getEnvInt("EMBED_CACHE_TTL_SEC", 3600),
		},
	}

	// An overlap that reaches the chunk size would make the splitter loop
	// in place; fall back to sane values in that case.
	if cfg.Ingest.ChunkSize <= 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap < 0 || cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		cfg.Ingest.ChunkOverlap = cfg.Ingest.ChunkSize / 5
	}
	if cfg.Ingest.EmbedWorkers <= 0 {
		cfg.Ingest.EmbedWorkers = 4
	}
	if cfg.Query.TopK <= 0 {
		cfg.Query.TopK = 4
	}
	if cfg.Query.CandidateLimit <= 0 {
		cfg.Query.CandidateLimit = 2000
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
