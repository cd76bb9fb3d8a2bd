package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-rca/rca-rag/internal/extract"
	"github.com/kube-rca/rca-rag/internal/model"
)

func newTestRAG(store VectorStore, gen Generator) *RAGService {
	return NewRAGService(store, gen, RAGOptions{SummaryConcurrency: 2, MaxSummaries: 2}, nil)
}

func TestStoreTelemetryWritesPerKind(t *testing.T) {
	store := &fakeStore{}
	rag := newTestRAG(store, &fakeGenerator{})
	bundle := model.TelemetryBundle{
		Logs:        "ERROR: connection refused",
		Metrics:     "cpu_usage: 95%",
		Traces:      "   ",
		Timestamp:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		SystemID:    "checkout",
		Environment: "staging",
	}

	id, err := rag.StoreTelemetry(context.Background(), "RCA_x", bundle, map[string]any{"team": "sre"})
	require.NoError(t, err)
	assert.Equal(t, "RCA_x", id)
	require.Len(t, store.adds, 2)

	logs := store.adds[0]
	assert.Equal(t, model.CollectionLogs, logs.collection)
	assert.Equal(t, "logs_RCA_x", logs.id)
	assert.Equal(t, model.DataTypeLogs, logs.meta.DataType)
	assert.Equal(t, "RCA_x", logs.meta.AnalysisID)
	assert.Equal(t, "checkout", logs.meta.Extra["system_id"])
	assert.Equal(t, "staging", logs.meta.Extra["environment"])
	assert.Equal(t, "sre", logs.meta.Extra["team"])
	assert.Contains(t, logs.meta.Extra["error_patterns"], "NETWORK_ERROR")

	metrics := store.adds[1]
	assert.Equal(t, model.CollectionMetrics, metrics.collection)
	assert.Equal(t, "metrics_RCA_x", metrics.id)
	assert.Equal(t, 95.0, metrics.meta.Extra["cpu_max"])

	assert.Regexp(t, `^[0-9a-f]{16}$`, logs.meta.Extra["content_hash"])
	assert.NotEqual(t, logs.meta.Extra["content_hash"], metrics.meta.Extra["content_hash"])
	assert.Equal(t, extract.Hash(bundle.Logs), logs.meta.Extra["content_hash"])
}

func TestStoreTelemetryGeneratesID(t *testing.T) {
	store := &fakeStore{}
	rag := newTestRAG(store, &fakeGenerator{})

	id, err := rag.StoreTelemetry(context.Background(), "", model.TelemetryBundle{Logs: "x"}, nil)
	require.NoError(t, err)
	assert.Regexp(t, `^RCA_\d{8}_\d{6}_[0-9a-f]{8}$`, id)
	require.Len(t, store.adds, 1)
	assert.Equal(t, "logs_"+id, store.adds[0].id)
}

func TestStoreTelemetryPropagatesError(t *testing.T) {
	store := &fakeStore{addErr: errors.New("disk full")}
	rag := newTestRAG(store, &fakeGenerator{})

	_, err := rag.StoreTelemetry(context.Background(), "RCA_x", model.TelemetryBundle{Logs: "x"}, nil)
	assert.EqualError(t, err, "disk full")
}

func TestStoreResultWritesResultAndCase(t *testing.T) {
	store := &fakeStore{}
	rag := newTestRAG(store, &fakeGenerator{})
	original := &model.TelemetryBundle{Logs: strings.Repeat("a", 600), Metrics: "m", Traces: "t"}

	require.NoError(t, rag.StoreResult(context.Background(), "RCA_1", "root cause", original))
	require.Len(t, store.adds, 2)

	assert.Equal(t, model.CollectionRCAResults, store.adds[0].collection)
	assert.Equal(t, "rca_RCA_1", store.adds[0].id)
	assert.Equal(t, "root cause", store.adds[0].document)
	assert.True(t, store.adds[0].meta.HasOriginalData)

	hc := store.adds[1]
	assert.Equal(t, model.CollectionHistoricalCases, hc.collection)
	assert.Equal(t, "case_RCA_1", hc.id)
	assert.Equal(t, model.DataTypeHistoricalCase, hc.meta.DataType)
	want := "RCA: root cause\nLogs: " + strings.Repeat("a", 500) + "...\nMetrics: m...\nTraces: t..."
	assert.Equal(t, want, hc.document)
}

func TestBuildHistoricalCaseWithoutOriginal(t *testing.T) {
	hc := BuildHistoricalCase("RCA_2", "only rca", nil, model.Metadata{})
	assert.Equal(t, "RCA: only rca", hc.CombinedText)
	assert.Equal(t, "case_RCA_2", hc.CaseID)
}

func TestSearchSimilarCasesEnhancesQuery(t *testing.T) {
	store := &fakeStore{similar: []model.SimilarCaseResult{
		{ID: "case_1", Document: "RCA: db down", SimilarityScore: 0.9},
		{ID: "case_2", Document: "", SimilarityScore: 0.8},
	}}
	gen := &fakeGenerator{keywords: []string{"database", "timeout"}}
	rag := newTestRAG(store, gen)

	cases := rag.SearchSimilarCases(context.Background(), "db error", 5)
	require.Len(t, cases, 1)
	assert.Equal(t, "case_1", cases[0].ID)
	assert.Equal(t, []string{"db error database timeout"}, store.similarQ)
}

func TestSearchSimilarCasesDegradesOnFailure(t *testing.T) {
	gen := &fakeGenerator{keywordErr: errors.New("llm down")}
	rag := newTestRAG(&fakeStore{}, gen)
	cases := rag.SearchSimilarCases(context.Background(), "db error", 5)
	assert.NotNil(t, cases)
	assert.Empty(t, cases)

	store := &fakeStore{queryErr: errors.New("store down")}
	rag = newTestRAG(store, &fakeGenerator{})
	cases = rag.SearchSimilarCases(context.Background(), "db error", 5)
	assert.NotNil(t, cases)
	assert.Empty(t, cases)
}

func TestSearchSimilarCasesSummaries(t *testing.T) {
	long := strings.Repeat("x", 501)
	store := &fakeStore{similar: []model.SimilarCaseResult{
		{ID: "a", Document: long},
		{ID: "b", Document: "short"},
		{ID: "c", Document: long},
		{ID: "d", Document: long},
	}}
	gen := &fakeGenerator{}
	rag := newTestRAG(store, gen)

	cases := rag.SearchSimilarCases(context.Background(), "q", 10)
	require.Len(t, cases, 4)
	assert.NotEmpty(t, cases[0].Summary)
	assert.Empty(t, cases[1].Summary)
	assert.NotEmpty(t, cases[2].Summary)
	assert.Empty(t, cases[3].Summary)
	assert.Len(t, gen.summarized, 2)
}

func TestSearchSimilarCasesSummaryFailureKeepsResult(t *testing.T) {
	store := &fakeStore{similar: []model.SimilarCaseResult{{ID: "a", Document: strings.Repeat("y", 600)}}}
	rag := newTestRAG(store, &fakeGenerator{summaryErr: errors.New("timeout")})

	cases := rag.SearchSimilarCases(context.Background(), "q", 1)
	require.Len(t, cases, 1)
	assert.Empty(t, cases[0].Summary)
}

func TestGetRelevantContext(t *testing.T) {
	store := &fakeStore{similar: []model.SimilarCaseResult{{ID: "case_1", Document: "RCA: x"}}}
	gen := &fakeGenerator{keywords: []string{"oom"}}
	rag := newTestRAG(store, gen)

	rc := rag.GetRelevantContext(context.Background(), model.TelemetryBundle{Logs: "OOMKilled", Metrics: "mem 99%"})
	assert.True(t, rc.ContextAvailable)
	assert.Len(t, rc.SimilarCases, 1)
	assert.Equal(t, []string{"oom"}, rc.KeywordsByType[model.DataTypeLogs])
	assert.Equal(t, []string{"oom"}, rc.KeywordsByType[model.DataTypeMetrics])
	assert.Equal(t, []string{}, rc.KeywordsByType[model.DataTypeTraces])
	require.Len(t, store.similarQ, 1)
	assert.True(t, strings.HasPrefix(store.similarQ[0], "Logs: OOMKilled Metrics: mem 99% Traces: "))
}

func TestGetRelevantContextDegrades(t *testing.T) {
	store := &fakeStore{similar: []model.SimilarCaseResult{{ID: "case_1", Document: "RCA: x"}}}
	gen := &fakeGenerator{keywordErr: errors.New("boom"), keywordErrOn: "trace-body"}
	rag := newTestRAG(store, gen)

	rc := rag.GetRelevantContext(context.Background(), model.TelemetryBundle{Logs: "l", Traces: "trace-body"})
	assert.False(t, rc.ContextAvailable)
	assert.Empty(t, rc.SimilarCases)
	assert.NotNil(t, rc.SimilarCases)
	assert.Empty(t, rc.KeywordsByType)
}

func TestGetRelevantContextKeepsCasesWhenOneKeywordTypeFails(t *testing.T) {
	store := &fakeStore{similar: []model.SimilarCaseResult{{ID: "case_1", Document: "RCA: x"}}}
	gen := &fakeGenerator{keywords: []string{"oom"}, keywordErr: errors.New("boom"), keywordErrOn: "trace-tail"}
	rag := newTestRAG(store, gen)

	traces := strings.Repeat("t ", contextProbeLimit) + "trace-tail"
	rc := rag.GetRelevantContext(context.Background(), model.TelemetryBundle{Logs: "OOMKilled", Traces: traces})
	assert.True(t, rc.ContextAvailable)
	require.Len(t, rc.SimilarCases, 1)
	assert.Equal(t, []string{"oom"}, rc.KeywordsByType[model.DataTypeLogs])
	assert.Equal(t, []string{}, rc.KeywordsByType[model.DataTypeMetrics])
	assert.NotContains(t, rc.KeywordsByType, model.DataTypeTraces)
}

func TestEnhanceQuery(t *testing.T) {
	store := &fakeStore{similar: []model.SimilarCaseResult{
		{ID: "a", Document: strings.Repeat("d", 250)},
		{ID: "b", Document: strings.Repeat("s", 501)},
	}}
	rag := newTestRAG(store, &fakeGenerator{})

	got := rag.EnhanceQuery(context.Background(), "why slow", 2)
	want := "why slow\n\nRelated historical context:\n" + strings.Repeat("d", 200) + "...\nsummary of ssssssssss"
	assert.Equal(t, want, got)
}

func TestEnhanceQueryUnchangedWithoutContext(t *testing.T) {
	rag := newTestRAG(&fakeStore{}, &fakeGenerator{})
	assert.Equal(t, "why slow", rag.EnhanceQuery(context.Background(), "why slow", 3))

	rag = newTestRAG(&fakeStore{queryErr: errors.New("down")}, &fakeGenerator{})
	assert.Equal(t, "why slow", rag.EnhanceQuery(context.Background(), "why slow", 3))
}

func TestSearchByMetadataDegrades(t *testing.T) {
	rag := newTestRAG(&fakeStore{matchErr: errors.New("scan failed")}, &fakeGenerator{})
	got := rag.SearchByMetadata(context.Background(), map[string]any{"a": "b"}, 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	rag = newTestRAG(&fakeStore{matches: []model.MetadataMatch{{ID: "x"}}}, &fakeGenerator{})
	assert.Len(t, rag.SearchByMetadata(context.Background(), nil, 5), 1)
}
