package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kube-rca/rca-rag/internal/client"
)

// SQLiteBackend - 단일 파일(또는 :memory:) SQLite 기반 컬렉션 저장소
//
// 임베딩은 JSON 배열로 저장하고, 유사도 검색은 컬렉션 전체를 읽어 Go에서 cosine distance로 정렬한다.
type SQLiteBackend struct {
	db       *sql.DB
	embedder client.Embedder
}

func NewSQLiteBackend(ctx context.Context, path string, embedder client.Embedder) (*SQLiteBackend, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// :memory:는 커넥션마다 별도 DB가 되므로 커넥션 1개로 고정
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys=ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	b := &SQLiteBackend{db: db, embedder: embedder}
	if err := b.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) ensureSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS rag_collections (
			name TEXT PRIMARY KEY,
			distance TEXT NOT NULL DEFAULT 'cosine',
			created_at TEXT NOT NULL
		)
		`,
		`
		CREATE TABLE IF NOT EXISTS rag_documents (
			collection TEXT NOT NULL REFERENCES rag_collections(name) ON DELETE CASCADE,
			id TEXT NOT NULL,
			document TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			embedding TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		)
		`,
		`CREATE INDEX IF NOT EXISTS rag_documents_created_at_idx ON rag_documents(collection, created_at)`,
	}
	for _, query := range queries {
		if _, err := b.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("ensure sqlite schema: %w", err)
		}
	}
	return nil
}

func (b *SQLiteBackend) EnsureCollection(ctx context.Context, name string) (Collection, error) {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO rag_collections (name, distance, created_at) VALUES (?, 'cosine', ?) ON CONFLICT(name) DO NOTHING`,
		name, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("ensure collection %s: %w", name, err)
	}
	return &sqliteCollection{backend: b, name: name}, nil
}

func (b *SQLiteBackend) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT name FROM rag_collections ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

type sqliteCollection struct {
	backend *SQLiteBackend
	name    string
}

func (c *sqliteCollection) Name() string {
	return c.name
}

func (c *sqliteCollection) Insert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	type row struct {
		doc       Document
		meta      []byte
		embedding []byte
	}
	rows := make([]row, 0, len(docs))
	for _, doc := range docs {
		vector, _, err := c.backend.embedder.EmbedText(ctx, doc.Text)
		if err != nil {
			return fmt.Errorf("embed document %s: %w", doc.ID, err)
		}
		embedding, err := json.Marshal(vector)
		if err != nil {
			return err
		}
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata %s: %w", doc.ID, err)
		}
		rows = append(rows, row{doc: doc, meta: meta, embedding: embedding})
	}

	tx, err := c.backend.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rag_documents (collection, id, document, metadata, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			document = excluded.document,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			created_at = excluded.created_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, c.name, r.doc.ID, r.doc.Text, string(r.meta), string(r.embedding), now); err != nil {
			return fmt.Errorf("insert into %s: %w", c.name, err)
		}
	}
	return tx.Commit()
}

func (c *sqliteCollection) Query(ctx context.Context, text string, k int) ([]QueryResult, error) {
	query, _, err := c.backend.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := c.backend.db.QueryContext(ctx,
		`SELECT id, document, metadata, embedding FROM rag_documents WHERE collection = ?`, c.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []QueryResult{}
	for rows.Next() {
		var (
			r              QueryResult
			meta, embedded string
		)
		if err := rows.Scan(&r.ID, &r.Text, &meta, &embedded); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &r.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", r.ID, err)
		}
		var vector []float32
		if err := json.Unmarshal([]byte(embedded), &vector); err != nil {
			return nil, fmt.Errorf("decode embedding %s: %w", r.ID, err)
		}
		r.Distance = cosineDistance(query, vector)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rankByDistance(results, k), nil
}

func (c *sqliteCollection) ScanAll(ctx context.Context) ([]Document, error) {
	rows, err := c.backend.db.QueryContext(ctx,
		`SELECT id, document, metadata FROM rag_documents WHERE collection = ? ORDER BY created_at, rowid`, c.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var (
			d    Document
			meta string
		)
		if err := rows.Scan(&d.ID, &d.Text, &meta); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &d.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", d.ID, err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (c *sqliteCollection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.backend.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rag_documents WHERE collection = ?`, c.name).Scan(&n)
	return n, err
}
