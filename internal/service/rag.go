package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kube-rca/rca-rag/internal/extract"
	"github.com/kube-rca/rca-rag/internal/metrics"
	"github.com/kube-rca/rca-rag/internal/model"
)

const (
	summarizeThreshold  = 500
	contextProbeLimit   = 500
	contextCaseLimit    = 3
	historicalExcerpt   = 500
	enhanceSnippetLimit = 200
)

// VectorStore - RAG가 사용하는 벡터 스토어 기능 (db.Store)
type VectorStore interface {
	Add(ctx context.Context, collection, id, document string, meta model.Metadata) error
	StoreBulk(ctx context.Context, dataType string, data any) (int, error)
	QuerySimilar(ctx context.Context, collection, queryText string, k int) ([]model.SimilarCaseResult, error)
	QueryByMetadata(ctx context.Context, filters map[string]any, limit int) ([]model.MetadataMatch, error)
	Stats(ctx context.Context) model.CollectionStats
}

// Generator - LLM 기반 생성 기능 (LLMService)
type Generator interface {
	AnalyzeObservability(ctx context.Context, logs, metrics, traces string, similar []model.SimilarCaseResult) (string, error)
	Summarize(ctx context.Context, rcaText string) (string, error)
	ExtractKeywords(ctx context.Context, text string) ([]string, error)
	GenerateRecommendations(ctx context.Context, rcaText string) ([]string, error)
}

type RAGOptions struct {
	// SummaryConcurrency - 유사 사례 요약 동시 호출 수
	SummaryConcurrency int
	// MaxSummaries - 검색 1회당 요약을 붙이는 최대 결과 수
	MaxSummaries int
}

// RAGService - 저장/검색/컨텍스트 조립
//
// 조회 경로(SearchSimilarCases, GetRelevantContext, EnhanceQuery, SearchByMetadata)는
// 실패해도 에러를 올리지 않고 빈 결과로 degrade 한다.
// 저장 경로(StoreTelemetry, StoreResult, BulkStore)는 에러를 그대로 반환한다.
type RAGService struct {
	store  VectorStore
	gen    Generator
	opts   RAGOptions
	logger *zap.Logger
	now    func() time.Time
}

func NewRAGService(store VectorStore, gen Generator, opts RAGOptions, logger *zap.Logger) *RAGService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SummaryConcurrency <= 0 {
		opts.SummaryConcurrency = 1
	}
	if opts.MaxSummaries < 0 {
		opts.MaxSummaries = 0
	}
	return &RAGService{store: store, gen: gen, opts: opts, logger: logger, now: time.Now}
}

// degrade - 조회 경로 실패 시 로그를 남기고 fallback 반환
func degrade[T any](logger *zap.Logger, op string, value T, err error, fallback T) T {
	if err == nil {
		metrics.ObserveSearch(op, metrics.OutcomeSuccess)
		return value
	}
	metrics.ObserveSearch(op, metrics.OutcomeDegraded)
	logger.Warn("retrieval degraded to empty result", zap.String("op", op), zap.Error(err))
	return fallback
}

// StoreTelemetry - logs/metrics/traces를 각 컬렉션에 <kind>_<analysisID>로 저장
//
// analysisID가 비어 있으면 새로 발급한다. 빈 필드는 건너뛴다.
func (s *RAGService) StoreTelemetry(ctx context.Context, analysisID string, bundle model.TelemetryBundle, extra map[string]any) (string, error) {
	if analysisID == "" {
		analysisID = extract.NewAnalysisID(s.now())
	}
	base := bundleExtra(bundle, extra)

	items := []struct {
		collection string
		dataType   string
		text       string
		signals    map[string]any
	}{
		{model.CollectionLogs, model.DataTypeLogs, bundle.Logs, logSignals(bundle.Logs)},
		{model.CollectionMetrics, model.DataTypeMetrics, bundle.Metrics, metricSignals(bundle.Metrics)},
		{model.CollectionTraces, model.DataTypeTraces, bundle.Traces, traceSignals(bundle.Traces)},
	}

	for _, item := range items {
		if strings.TrimSpace(item.text) == "" {
			continue
		}
		meta := model.Metadata{
			AnalysisID: analysisID,
			DataType:   item.dataType,
			Timestamp:  bundle.Timestamp,
			Extra:      mergeExtra(base, item.signals),
		}
		meta.Extra["content_hash"] = extract.Hash(item.text)
		if err := s.store.Add(ctx, item.collection, item.dataType+"_"+analysisID, item.text, meta); err != nil {
			return analysisID, err
		}
	}
	return analysisID, nil
}

// StoreResult - RCA 결과를 rca_results에, RCA + 원본 발췌를 historical_cases에 저장
func (s *RAGService) StoreResult(ctx context.Context, analysisID, rcaText string, original *model.TelemetryBundle) error {
	meta := model.Metadata{
		AnalysisID:      analysisID,
		DataType:        model.DataTypeRCAResult,
		Timestamp:       s.now().UTC(),
		HasOriginalData: original != nil,
	}
	if original != nil {
		meta.Extra = bundleExtra(*original, nil)
	}
	if err := s.store.Add(ctx, model.CollectionRCAResults, "rca_"+analysisID, rcaText, meta); err != nil {
		return err
	}

	hc := BuildHistoricalCase(analysisID, rcaText, original, meta)
	return s.store.Add(ctx, model.CollectionHistoricalCases, hc.CaseID, hc.CombinedText, hc.Metadata)
}

// BuildHistoricalCase - "RCA: ..." + 원본 logs/metrics/traces 500자 발췌
func BuildHistoricalCase(analysisID, rcaText string, original *model.TelemetryBundle, meta model.Metadata) model.HistoricalCase {
	var b strings.Builder
	b.WriteString("RCA: ")
	b.WriteString(rcaText)
	if original != nil {
		fmt.Fprintf(&b, "\nLogs: %s...", extract.Truncate(original.Logs, historicalExcerpt))
		fmt.Fprintf(&b, "\nMetrics: %s...", extract.Truncate(original.Metrics, historicalExcerpt))
		fmt.Fprintf(&b, "\nTraces: %s...", extract.Truncate(original.Traces, historicalExcerpt))
	}
	meta.DataType = model.DataTypeHistoricalCase
	return model.HistoricalCase{
		CaseID:       "case_" + analysisID,
		CombinedText: b.String(),
		Metadata:     meta,
	}
}

// SearchSimilarCases - 키워드로 확장한 쿼리로 historical_cases 검색 (실패 시 빈 목록)
func (s *RAGService) SearchSimilarCases(ctx context.Context, query string, limit int) []model.SimilarCaseResult {
	cases, err := s.searchSimilarCases(ctx, query, limit)
	return degrade(s.logger, "search_similar", cases, err, []model.SimilarCaseResult{})
}

func (s *RAGService) searchSimilarCases(ctx context.Context, query string, limit int) ([]model.SimilarCaseResult, error) {
	keywords, err := s.gen.ExtractKeywords(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("extract keywords: %w", err)
	}
	enhanced := strings.TrimSpace(query + " " + strings.Join(keywords, " "))

	found, err := s.store.QuerySimilar(ctx, model.CollectionHistoricalCases, enhanced, limit)
	if err != nil {
		return nil, err
	}

	cases := make([]model.SimilarCaseResult, 0, len(found))
	for _, c := range found {
		if c.Document != "" {
			cases = append(cases, c)
		}
	}
	s.attachSummaries(ctx, cases)
	return cases, nil
}

// attachSummaries - 500자 초과 문서에 요약을 붙인다
//
// 동시 호출은 SummaryConcurrency, 대상은 MaxSummaries개로 제한.
// 요약 실패는 해당 결과만 요약 없이 남긴다.
func (s *RAGService) attachSummaries(ctx context.Context, cases []model.SimilarCaseResult) {
	var g errgroup.Group
	g.SetLimit(s.opts.SummaryConcurrency)

	requested := 0
	for i := range cases {
		if len([]rune(cases[i].Document)) <= summarizeThreshold {
			continue
		}
		if requested == s.opts.MaxSummaries {
			break
		}
		requested++
		g.Go(func() error {
			summary, err := s.gen.Summarize(ctx, cases[i].Document)
			if err != nil {
				s.logger.Warn("case summary failed", zap.String("id", cases[i].ID), zap.Error(err))
				return nil
			}
			cases[i].Summary = summary
			return nil
		})
	}
	_ = g.Wait()
}

// GetRelevantContext - 유사 사례(최대 3개) + 타입별 키워드
//
// 유사 사례 검색이 실패하면 빈 컨텍스트(context_available=false)를 반환한다.
// 타입별 키워드 추출 실패는 해당 타입만 KeywordsByType에서 빠진다.
func (s *RAGService) GetRelevantContext(ctx context.Context, bundle model.TelemetryBundle) model.RelevantContext {
	rc, err := s.relevantContext(ctx, bundle)
	return degrade(s.logger, "relevant_context", rc, err, emptyContext())
}

func emptyContext() model.RelevantContext {
	return model.RelevantContext{
		SimilarCases:   []model.SimilarCaseResult{},
		KeywordsByType: map[string][]string{},
	}
}

func (s *RAGService) relevantContext(ctx context.Context, bundle model.TelemetryBundle) (model.RelevantContext, error) {
	probe := fmt.Sprintf("Logs: %s Metrics: %s Traces: %s",
		extract.Truncate(bundle.Logs, contextProbeLimit),
		extract.Truncate(bundle.Metrics, contextProbeLimit),
		extract.Truncate(bundle.Traces, contextProbeLimit),
	)

	similar, err := s.searchSimilarCases(ctx, probe, contextCaseLimit)
	if err != nil {
		return model.RelevantContext{}, err
	}

	fields := []struct {
		dataType string
		text     string
	}{
		{model.DataTypeLogs, bundle.Logs},
		{model.DataTypeMetrics, bundle.Metrics},
		{model.DataTypeTraces, bundle.Traces},
	}
	results := make([][]string, len(fields))
	failed := make([]bool, len(fields))

	var g errgroup.Group
	g.SetLimit(s.opts.SummaryConcurrency)
	for i, f := range fields {
		if strings.TrimSpace(f.text) == "" {
			results[i] = []string{}
			continue
		}
		g.Go(func() error {
			kws, err := s.gen.ExtractKeywords(ctx, f.text)
			if err != nil {
				s.logger.Warn("keyword extraction failed, omitted from context", zap.String("data_type", f.dataType), zap.Error(err))
				failed[i] = true
				return nil
			}
			results[i] = kws
			return nil
		})
	}
	_ = g.Wait()

	keywords := make(map[string][]string, len(fields))
	for i, f := range fields {
		if !failed[i] {
			keywords[f.dataType] = results[i]
		}
	}
	return model.RelevantContext{
		SimilarCases:     similar,
		KeywordsByType:   keywords,
		ContextAvailable: len(similar) > 0,
	}, nil
}

// EnhanceQuery - 유사 사례 요약(또는 200자 발췌)을 쿼리 뒤에 붙인다. 실패 시 원본 그대로
func (s *RAGService) EnhanceQuery(ctx context.Context, query string, contextLimit int) string {
	cases, err := s.searchSimilarCases(ctx, query, contextLimit)
	cases = degrade(s.logger, "enhance_query", cases, err, nil)
	if len(cases) == 0 {
		return query
	}

	snippets := make([]string, 0, len(cases))
	for _, c := range cases {
		switch {
		case c.Summary != "":
			snippets = append(snippets, c.Summary)
		case c.Document != "":
			snippets = append(snippets, extract.Truncate(c.Document, enhanceSnippetLimit)+"...")
		}
	}
	if len(snippets) == 0 {
		return query
	}
	return query + "\n\nRelated historical context:\n" + strings.Join(snippets, "\n")
}

// BulkStore - bulk 저장 pass-through
func (s *RAGService) BulkStore(ctx context.Context, dataType string, data any) (int, error) {
	n, err := s.store.StoreBulk(ctx, dataType, data)
	metrics.AddBulkItems(dataType, n)
	return n, err
}

// SearchByMetadata - metadata 필터 검색 (실패 시 빈 목록)
func (s *RAGService) SearchByMetadata(ctx context.Context, filters map[string]any, limit int) []model.MetadataMatch {
	matches, err := s.store.QueryByMetadata(ctx, filters, limit)
	return degrade(s.logger, "search_metadata", matches, err, []model.MetadataMatch{})
}

// DatabaseStats - 컬렉션별 문서 수
func (s *RAGService) DatabaseStats(ctx context.Context) model.CollectionStats {
	return s.store.Stats(ctx)
}

// bundleExtra - 사용자 metadata + system_id/environment
func bundleExtra(bundle model.TelemetryBundle, extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra)+2)
	for k, v := range extra {
		out[k] = v
	}
	if bundle.SystemID != "" {
		out["system_id"] = bundle.SystemID
	}
	if bundle.Environment != "" {
		out["environment"] = bundle.Environment
	}
	return out
}

func mergeExtra(base, more map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(more))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range more {
		out[k] = v
	}
	return out
}

func logSignals(logs string) map[string]any {
	patterns := extract.ErrorPatterns(logs)
	if len(patterns) == 0 {
		return nil
	}
	names := make([]string, 0, len(patterns))
	count := 0
	for _, p := range patterns {
		names = append(names, p.Name)
		count += p.Count
	}
	return map[string]any{
		"error_patterns": strings.Join(names, ","),
		"error_count":    count,
	}
}

func metricSignals(text string) map[string]any {
	summary := extract.MetricsSummary(text)
	if len(summary) == 0 {
		return nil
	}
	out := make(map[string]any, len(summary))
	for kind, stat := range summary {
		out[kind+"_max"] = stat.Max
	}
	return out
}

func traceSignals(text string) map[string]any {
	summary := extract.TraceSummary(text)
	if summary.TotalSpans == 0 && summary.ErrorSpans == 0 {
		return nil
	}
	out := map[string]any{
		"total_spans": summary.TotalSpans,
		"error_spans": summary.ErrorSpans,
	}
	if len(summary.Services) > 0 {
		out["services"] = strings.Join(summary.Services, ",")
	}
	return out
}
