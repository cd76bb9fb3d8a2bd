package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/kube-rca/rca-rag/internal/client"
	"github.com/kube-rca/rca-rag/internal/config"
	"github.com/kube-rca/rca-rag/internal/db"
	"github.com/kube-rca/rca-rag/internal/metrics"
	"github.com/kube-rca/rca-rag/internal/service"
)

// App - 설정으로부터 조립된 서비스 묶음
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    *db.Store
	LLM      *service.LLMService
	RAG      *service.RAGService
	RCA      *service.RcaService
	Auth     *service.AuthService
	Registry *prometheus.Registry
}

// newApp - embedder -> 벡터 스토어 -> LLM -> RAG/RCA 순서로 조립
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend, err := newBackend(ctx, cfg, embedder)
	if err != nil {
		return nil, err
	}
	store := db.NewStore(backend, cfg.Store.Timeout, logger.Named("store"))
	if err := store.Initialize(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initialize vector store: %w", err)
	}

	chat, err := newChatBackend(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	llm := service.NewLLMService(chat, cfg.LLM.Model, cfg.LLM.Timeout, logger.Named("llm"))

	rag := service.NewRAGService(store, llm, service.RAGOptions{
		SummaryConcurrency: cfg.RAG.SummaryConcurrency,
		MaxSummaries:       cfg.RAG.MaxSummaries,
	}, logger.Named("rag"))

	var notifier service.Notifier
	if slack := client.NewSlackClient(cfg.Slack); slack.IsConfigured() {
		notifier = slack
	} else {
		logger.Info("slack notification disabled (SLACK_BOT_TOKEN / SLACK_CHANNEL_ID not set)")
	}
	rca := service.NewRcaService(rag, llm, notifier, service.RcaOptions{
		RAGEnabled:      cfg.RAG.Enabled,
		Recommendations: cfg.RAG.Recommendations,
	}, logger.Named("rca"))

	var auth *service.AuthService
	if cfg.Server.JWTSecret != "" {
		auth, err = service.NewAuthService(cfg.Server.JWTSecret)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(registry); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		LLM:      llm,
		RAG:      rag,
		RCA:      rca,
		Auth:     auth,
		Registry: registry,
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}

// EMBEDDING_PROVIDER: hash | genai | ollama
func newEmbedder(ctx context.Context, cfg config.Config) (client.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "", "hash":
		return client.NewHashEmbedder(cfg.Store.EmbeddingDim), nil
	case "genai", "gemini":
		return client.NewGenAIClient(ctx, cfg.Embedding.APIKey, cfg.Embedding.Model)
	case "ollama":
		return client.NewOllamaClient(cfg.LLM.OllamaHost, cfg.Embedding.Model), nil
	default:
		return nil, fmt.Errorf("unknown EMBEDDING_PROVIDER %q", cfg.Embedding.Provider)
	}
}

// VECTOR_BACKEND: sqlite | postgres
func newBackend(ctx context.Context, cfg config.Config, embedder client.Embedder) (db.Backend, error) {
	switch cfg.Store.Backend {
	case "", "sqlite":
		return db.NewSQLiteBackend(ctx, cfg.Store.SQLitePath, embedder)
	case "postgres", "pgvector":
		pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		pg := &db.Postgres{Pool: pool}
		if err := pg.EnsureVectorSchema(ctx, cfg.Store.EmbeddingDim); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure vector schema: %w", err)
		}
		return db.NewPgVectorBackend(pg, embedder), nil
	default:
		return nil, fmt.Errorf("unknown VECTOR_BACKEND %q", cfg.Store.Backend)
	}
}

// LLM_PROVIDER: ollama | genai
func newChatBackend(ctx context.Context, cfg config.Config) (client.ChatBackend, error) {
	switch cfg.LLM.Provider {
	case "", "ollama":
		return client.NewOllamaClient(cfg.LLM.OllamaHost, cfg.Embedding.Model), nil
	case "genai", "gemini":
		return client.NewGenAIClient(ctx, cfg.LLM.APIKey, cfg.Embedding.Model)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLM.Provider)
	}
}
