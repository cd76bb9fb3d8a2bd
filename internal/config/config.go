package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Postgres  PostgresConfig
	Embedding EmbeddingConfig
	LLM       LLMConfig
	RAG       RAGConfig
	Slack     SlackConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host               string
	Port               string
	CORSAllowedOrigins string
	// JWTSecret가 비어 있으면 /api 인증을 적용하지 않음
	JWTSecret string
}

// StoreConfig - 벡터 스토어 백엔드 설정
//
//   - VECTOR_BACKEND: sqlite(기본) | postgres
type StoreConfig struct {
	Backend      string
	SQLitePath   string
	EmbeddingDim int
	Timeout      time.Duration
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

// EmbeddingConfig - EMBEDDING_PROVIDER: hash(기본) | genai | ollama
type EmbeddingConfig struct {
	Provider string
	APIKey   string
	Model    string
}

// LLMConfig - LLM_PROVIDER: ollama(기본) | genai
type LLMConfig struct {
	Provider   string
	OllamaHost string
	Model      string
	APIKey     string
	Timeout    time.Duration
}

type RAGConfig struct {
	Enabled            bool
	SummaryConcurrency int
	MaxSummaries       int
	Recommendations    bool
}

type SlackConfig struct {
	BotToken        string
	ChannelID       string
	MessageTemplate string
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

func Load() Config {
	embeddingProvider := strings.ToLower(getenv("EMBEDDING_PROVIDER", "hash"))
	llmProvider := strings.ToLower(getenv("LLM_PROVIDER", "ollama"))
	apiKey := os.Getenv("AI_API_KEY")
	return Config{
		Server: ServerConfig{
			Host:               getenv("HOST", "0.0.0.0"),
			Port:               getenv("PORT", "8000"),
			CORSAllowedOrigins: getenv("CORS_ALLOWED_ORIGINS", "*"),
			JWTSecret:          os.Getenv("API_JWT_SECRET"),
		},
		Store: StoreConfig{
			Backend:      strings.ToLower(getenv("VECTOR_BACKEND", "sqlite")),
			SQLitePath:   getenv("SQLITE_PATH", "./data/rca_rag.db"),
			EmbeddingDim: getenvInt("EMBEDDING_DIM", 768),
			Timeout:      getenvDuration("STORE_TIMEOUT", 30*time.Second),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Embedding: EmbeddingConfig{
			Provider: embeddingProvider,
			APIKey:   apiKey,
			Model:    getenv("EMBEDDING_MODEL", defaultEmbeddingModel(embeddingProvider)),
		},
		LLM: LLMConfig{
			Provider:   llmProvider,
			OllamaHost: getenv("OLLAMA_HOST", "http://localhost:11434"),
			Model:      getenv("LLM_MODEL", defaultLLMModel(llmProvider)),
			APIKey:     apiKey,
			Timeout:    getenvDuration("LLM_TIMEOUT", 120*time.Second),
		},
		RAG: RAGConfig{
			Enabled:            getenvBool("RAG_ENABLED", true),
			SummaryConcurrency: getenvInt("RAG_SUMMARY_CONCURRENCY", 3),
			MaxSummaries:       getenvInt("RAG_MAX_SUMMARIES", 5),
			Recommendations:    getenvBool("RCA_RECOMMENDATIONS", true),
		},
		Slack: SlackConfig{
			BotToken:        os.Getenv("SLACK_BOT_TOKEN"),
			ChannelID:       os.Getenv("SLACK_CHANNEL_ID"),
			MessageTemplate: os.Getenv("SLACK_MESSAGE_TEMPLATE"),
		},
		Log: LogConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "console"),
			File:   os.Getenv("LOG_FILE"),
		},
	}
}

// EMBEDDING_MODEL 미지정 시 provider별 기본 모델
func defaultEmbeddingModel(provider string) string {
	switch provider {
	case "ollama":
		return "nomic-embed-text"
	case "genai", "gemini":
		return "text-embedding-004"
	default:
		return ""
	}
}

// LLM_MODEL 미지정 시 provider별 기본 모델
func defaultLLMModel(provider string) string {
	switch provider {
	case "genai", "gemini":
		return "gemini-2.0-flash"
	default:
		return "llama3"
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

// "30s", "2m" 형식 또는 초 단위 정수
func getenvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
