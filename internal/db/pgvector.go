package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/kube-rca/rca-rag/internal/client"
)

// PgVectorBackend - PostgreSQL + pgvector 기반 컬렉션 저장소
//
// 모든 컬렉션은 rag_documents 테이블 하나를 collection 컬럼으로 나눠 쓴다.
type PgVectorBackend struct {
	db       *Postgres
	embedder client.Embedder
}

func NewPgVectorBackend(pg *Postgres, embedder client.Embedder) *PgVectorBackend {
	return &PgVectorBackend{db: pg, embedder: embedder}
}

// EnsureVectorSchema - rag_collections / rag_documents 테이블 및 HNSW 인덱스 생성
func (db *Postgres) EnsureVectorSchema(ctx context.Context, dim int) error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`
		CREATE TABLE IF NOT EXISTS rag_collections (
			name TEXT PRIMARY KEY,
			distance TEXT NOT NULL DEFAULT 'cosine',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS rag_documents (
			collection TEXT NOT NULL REFERENCES rag_collections(name) ON DELETE CASCADE,
			id TEXT NOT NULL,
			document TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (collection, id)
		)
		`, dim),
		`CREATE INDEX IF NOT EXISTS rag_documents_embedding_idx ON rag_documents USING hnsw (embedding vector_cosine_ops)`,
		`CREATE INDEX IF NOT EXISTS rag_documents_created_at_idx ON rag_documents(collection, created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

func (b *PgVectorBackend) EnsureCollection(ctx context.Context, name string) (Collection, error) {
	query := `
		INSERT INTO rag_collections (name, distance)
		VALUES ($1, 'cosine')
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := b.db.Pool.Exec(ctx, query, name); err != nil {
		return nil, fmt.Errorf("ensure collection %s: %w", name, err)
	}
	return &pgCollection{backend: b, name: name}, nil
}

func (b *PgVectorBackend) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := b.db.Pool.Query(ctx, `SELECT name FROM rag_collections ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (b *PgVectorBackend) Close() error {
	b.db.Pool.Close()
	return nil
}

type pgCollection struct {
	backend *PgVectorBackend
	name    string
}

func (c *pgCollection) Name() string {
	return c.name
}

// Insert - 임베딩을 먼저 계산한 뒤 하나의 트랜잭션에서 batch upsert
func (c *pgCollection) Insert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for _, doc := range docs {
		vector, _, err := c.backend.embedder.EmbedText(ctx, doc.Text)
		if err != nil {
			return fmt.Errorf("embed document %s: %w", doc.ID, err)
		}
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata %s: %w", doc.ID, err)
		}
		batch.Queue(`
			INSERT INTO rag_documents (collection, id, document, metadata, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (collection, id) DO UPDATE SET
				document = EXCLUDED.document,
				metadata = EXCLUDED.metadata,
				embedding = EXCLUDED.embedding,
				created_at = EXCLUDED.created_at
		`, c.name, doc.ID, doc.Text, meta, pgvector.NewVector(vector), now)
	}

	tx, err := c.backend.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert into %s: %w", c.name, err)
	}
	return tx.Commit(ctx)
}

func (c *pgCollection) Query(ctx context.Context, text string, k int) ([]QueryResult, error) {
	vector, _, err := c.backend.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	query := `
		SELECT id, document, metadata, embedding <=> $2 AS distance
		FROM rag_documents
		WHERE collection = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	rows, err := c.backend.db.Pool.Query(ctx, query, c.name, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []QueryResult{}
	for rows.Next() {
		var r QueryResult
		if err := rows.Scan(&r.ID, &r.Text, &r.Metadata, &r.Distance); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (c *pgCollection) ScanAll(ctx context.Context) ([]Document, error) {
	query := `
		SELECT id, document, metadata
		FROM rag_documents
		WHERE collection = $1
		ORDER BY created_at, id
	`
	rows, err := c.backend.db.Pool.Query(ctx, query, c.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Text, &d.Metadata); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (c *pgCollection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.backend.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM rag_documents WHERE collection = $1`, c.name).Scan(&n)
	return n, err
}
