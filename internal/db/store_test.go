package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-rca/rca-rag/internal/client"
	"github.com/kube-rca/rca-rag/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	backend, err := NewSQLiteBackend(ctx, ":memory:", client.NewHashEmbedder(256))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	store := NewStore(backend, 5*time.Second, nil)
	require.NoError(t, store.Initialize(ctx))
	return store
}

func TestInitializeIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, model.CollectionLogs, "logs_1", "ERROR boom", model.Metadata{}))
	require.NoError(t, store.Initialize(ctx))

	stats := store.Stats(ctx)
	assert.Equal(t, 1, stats[model.CollectionLogs].DocumentCount)
	for _, name := range model.DefaultCollections {
		assert.Contains(t, stats, name)
	}
}

func TestStatsStableWithoutWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, model.CollectionMetrics, "metrics_1", "cpu_usage: 95%", model.Metadata{}))

	assert.Equal(t, store.Stats(ctx), store.Stats(ctx))
}

func TestAddSkipsBlankDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, model.CollectionMetrics, "metrics_1", "   \n\t", model.Metadata{}))
	assert.Equal(t, 0, store.Stats(ctx)[model.CollectionMetrics].DocumentCount)
}

func TestAddDuplicateIDLastWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, model.CollectionRCAResults, "rca_1", "first", model.Metadata{AnalysisID: "1"}))
	require.NoError(t, store.Add(ctx, model.CollectionRCAResults, "rca_1", "second", model.Metadata{AnalysisID: "1"}))

	matches, err := store.QueryByMetadata(ctx, map[string]any{model.MetaAnalysisID: "1"}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "second", matches[0].Document)
}

func TestStoreBulkCountsAndMetadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	before := store.Stats(ctx)[model.CollectionLogs].DocumentCount

	items := []any{
		map[string]any{"msg": "a"},
		map[string]any{"msg": "b"},
		map[string]any{"msg": "c"},
	}
	n, err := store.StoreBulk(ctx, model.DataTypeLogs, items)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, before+3, store.Stats(ctx)[model.CollectionLogs].DocumentCount)

	matches, err := store.QueryByMetadata(ctx, map[string]any{"msg": "B", model.MetaBulkUpload: true}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, model.CollectionLogs, matches[0].Collection)
	assert.Equal(t, "{\n  \"msg\": \"b\"\n}", matches[0].Document)
	assert.Regexp(t, `^logs_bulk_[0-9a-f-]{36}$`, matches[0].ID)
	assert.Equal(t, model.DataTypeLogs, matches[0].Metadata[model.MetaDataType])
}

func TestStoreBulkSingleItemAndDynamicCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.StoreBulk(ctx, "events", "deploy finished")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.StoreBulk(ctx, "events", []any{"", "  ", nil})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	stats := store.Stats(ctx)
	assert.Equal(t, 1, stats["observability_events"].DocumentCount)
}

func TestStoreBulkBatches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	items := make([]string, 0, 250)
	for i := 0; i < 250; i++ {
		items = append(items, "line "+time.Duration(i).String())
	}
	n, err := store.StoreBulk(ctx, model.DataTypeTraces, items)
	require.NoError(t, err)
	assert.Equal(t, 250, n)
	assert.Equal(t, 250, store.Stats(ctx)[model.CollectionTraces].DocumentCount)
}

func TestQuerySimilarRanksAndClamps(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, model.CollectionHistoricalCases, "case_1", "database connection refused on port 5432", model.Metadata{}))
	require.NoError(t, store.Add(ctx, model.CollectionHistoricalCases, "case_2", "disk full on node worker-3", model.Metadata{}))

	results, err := store.QuerySimilar(ctx, model.CollectionHistoricalCases, "connection refused", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "case_1", results[0].ID)
	assert.Greater(t, results[0].SimilarityScore, 0.0)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.SimilarityScore, 0.0)
		assert.LessOrEqual(t, r.SimilarityScore, 1.0)
	}

	results, err = store.QuerySimilar(ctx, model.CollectionHistoricalCases, "connection refused", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSimilarityScoreClamp(t *testing.T) {
	assert.Equal(t, 1.0, SimilarityScore(-0.5))
	assert.Equal(t, 0.0, SimilarityScore(1.7))
	assert.InDelta(t, 0.75, SimilarityScore(0.25), 1e-9)
}

func TestQueryByMetadataLimitAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	meta := model.Metadata{Extra: map[string]any{"environment": "Production", "replicas": 3}}
	require.NoError(t, store.Add(ctx, model.CollectionLogs, "logs_1", "log", meta))
	require.NoError(t, store.Add(ctx, model.CollectionTraces, "traces_1", "trace", meta))
	require.NoError(t, store.Add(ctx, model.CollectionMetrics, "metrics_1", "metric", meta))

	matches, err := store.QueryByMetadata(ctx, map[string]any{"environment": "prod"}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, model.CollectionLogs, matches[0].Collection)
	assert.Equal(t, model.CollectionMetrics, matches[1].Collection)

	matches, err = store.QueryByMetadata(ctx, map[string]any{"replicas": 3}, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	matches, err = store.QueryByMetadata(ctx, map[string]any{"missing": "x"}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMatchFilters(t *testing.T) {
	meta := map[string]any{"service": "Checkout-API", "code": float64(503), "ok": false}

	assert.True(t, MatchFilters(meta, map[string]any{"service": "checkout"}))
	assert.True(t, MatchFilters(meta, map[string]any{"code": 503}))
	assert.True(t, MatchFilters(meta, map[string]any{"ok": false}))
	assert.False(t, MatchFilters(meta, map[string]any{"code": 500}))
	assert.False(t, MatchFilters(meta, map[string]any{"absent": 1}))
	assert.True(t, MatchFilters(meta, nil))
}

type failingBackend struct {
	Backend
	failCount string
	failScan  string
}

func (b *failingBackend) EnsureCollection(ctx context.Context, name string) (Collection, error) {
	coll, err := b.Backend.EnsureCollection(ctx, name)
	if err != nil {
		return coll, err
	}
	switch name {
	case b.failCount:
		return &failingCountCollection{Collection: coll}, nil
	case b.failScan:
		return &failingScanCollection{Collection: coll}, nil
	}
	return coll, nil
}

type failingCountCollection struct {
	Collection
}

func (c *failingCountCollection) Count(ctx context.Context) (int, error) {
	return 0, errors.New("count unavailable")
}

type failingScanCollection struct {
	Collection
}

func (c *failingScanCollection) ScanAll(ctx context.Context) ([]Document, error) {
	return nil, errors.New("scan broken")
}

func TestStatsReportsInlineErrors(t *testing.T) {
	ctx := context.Background()
	sqlite, err := NewSQLiteBackend(ctx, ":memory:", client.NewHashEmbedder(64))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	store := NewStore(&failingBackend{Backend: sqlite, failCount: model.CollectionTraces}, time.Second, nil)
	require.NoError(t, store.Initialize(ctx))

	stats := store.Stats(ctx)
	assert.Equal(t, "count unavailable", stats[model.CollectionTraces].Error)
	assert.Empty(t, stats[model.CollectionLogs].Error)
	assert.Len(t, stats, len(model.DefaultCollections))
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0.0, cosineDistance([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 1.0, cosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 1.0, cosineDistance([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 1.0, cosineDistance([]float32{1}, []float32{1, 2}))
}

func TestQueryByMetadataSkipsFailingCollection(t *testing.T) {
	ctx := context.Background()
	sqlite, err := NewSQLiteBackend(ctx, ":memory:", client.NewHashEmbedder(64))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	store := NewStore(&failingBackend{Backend: sqlite, failScan: model.CollectionLogs}, time.Second, nil)
	require.NoError(t, store.Initialize(ctx))
	require.NoError(t, store.Add(ctx, model.CollectionLogs, "logs_1", "ERROR boom", model.Metadata{AnalysisID: "a1"}))
	require.NoError(t, store.Add(ctx, model.CollectionHistoricalCases, "case_1", "RCA: disk full", model.Metadata{AnalysisID: "a1"}))

	matches, err := store.QueryByMetadata(ctx, map[string]any{model.MetaAnalysisID: "a1"}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "case_1", matches[0].ID)
	assert.Equal(t, model.CollectionHistoricalCases, matches[0].Collection)
}
