package service

import (
	"context"
	"strings"
	"sync"

	"github.com/kube-rca/rca-rag/internal/client"
	"github.com/kube-rca/rca-rag/internal/model"
)

// fakeChat - system prompt에 따라 고정 응답을 돌려주는 ChatBackend
type fakeChat struct {
	mu       sync.Mutex
	replies  map[string]string
	err      error
	models   []string
	pulled   []string
	pullErr  error
	requests [][]client.ChatMessage
}

func (f *fakeChat) Chat(ctx context.Context, model string, messages []client.ChatMessage, opts client.SamplingOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, messages)
	if f.err != nil {
		return "", f.err
	}
	system := ""
	if len(messages) > 0 && messages[0].Role == client.RoleSystem {
		system = messages[0].Content
	}
	return f.replies[system], nil
}

func (f *fakeChat) ListModels(ctx context.Context) ([]string, error) {
	return f.models, nil
}

func (f *fakeChat) PullModel(ctx context.Context, model string) error {
	f.pulled = append(f.pulled, model)
	return f.pullErr
}

type fakeGenerator struct {
	mu           sync.Mutex
	rca          string
	rcaErr       error
	keywords     []string
	keywordErr   error
	keywordErrOn string
	summaryErr   error
	recs         []string
	recErr       error

	summarized   []string
	analyzeCalls int
	similarSeen  []model.SimilarCaseResult
}

func (f *fakeGenerator) AnalyzeObservability(ctx context.Context, logs, metrics, traces string, similar []model.SimilarCaseResult) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzeCalls++
	f.similarSeen = similar
	return f.rca, f.rcaErr
}

func (f *fakeGenerator) Summarize(ctx context.Context, rcaText string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summarized = append(f.summarized, rcaText)
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return "summary of " + rcaText[:10], nil
}

func (f *fakeGenerator) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	if f.keywordErr != nil && (f.keywordErrOn == "" || strings.Contains(text, f.keywordErrOn)) {
		return nil, f.keywordErr
	}
	return f.keywords, nil
}

func (f *fakeGenerator) GenerateRecommendations(ctx context.Context, rcaText string) ([]string, error) {
	return f.recs, f.recErr
}

type addCall struct {
	collection string
	id         string
	document   string
	meta       model.Metadata
}

type fakeStore struct {
	mu        sync.Mutex
	adds      []addCall
	addErr    error
	similar   []model.SimilarCaseResult
	similarQ  []string
	queryErr  error
	matches   []model.MetadataMatch
	matchErr  error
	bulkCount int
	bulkErr   error
}

func (f *fakeStore) Add(ctx context.Context, collection, id, document string, meta model.Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.adds = append(f.adds, addCall{collection: collection, id: id, document: document, meta: meta})
	return nil
}

func (f *fakeStore) StoreBulk(ctx context.Context, dataType string, data any) (int, error) {
	return f.bulkCount, f.bulkErr
}

func (f *fakeStore) QuerySimilar(ctx context.Context, collection, queryText string, k int) ([]model.SimilarCaseResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.similarQ = append(f.similarQ, queryText)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	out := make([]model.SimilarCaseResult, len(f.similar))
	copy(out, f.similar)
	return out, nil
}

func (f *fakeStore) QueryByMetadata(ctx context.Context, filters map[string]any, limit int) ([]model.MetadataMatch, error) {
	return f.matches, f.matchErr
}

func (f *fakeStore) Stats(ctx context.Context) model.CollectionStats {
	return model.CollectionStats{model.CollectionLogs: {DocumentCount: len(f.adds)}}
}

type fakeRetriever struct {
	storeErr   error
	resultErr  error
	context    model.RelevantContext
	bulkCount  int
	bulkErr    error
	stored     int
	retrieved  int
	persisted  int
	lastResult string
}

func (f *fakeRetriever) StoreTelemetry(ctx context.Context, analysisID string, bundle model.TelemetryBundle, extra map[string]any) (string, error) {
	f.stored++
	return analysisID, f.storeErr
}

func (f *fakeRetriever) GetRelevantContext(ctx context.Context, bundle model.TelemetryBundle) model.RelevantContext {
	f.retrieved++
	return f.context
}

func (f *fakeRetriever) StoreResult(ctx context.Context, analysisID, rcaText string, original *model.TelemetryBundle) error {
	f.persisted++
	f.lastResult = rcaText
	return f.resultErr
}

func (f *fakeRetriever) BulkStore(ctx context.Context, dataType string, data any) (int, error) {
	return f.bulkCount, f.bulkErr
}

type fakeNotifier struct {
	sent chan model.AnalyzeResponse
	err  error
}

func (f *fakeNotifier) IsConfigured() bool { return true }

func (f *fakeNotifier) SendAnalysis(ctx context.Context, resp model.AnalyzeResponse) error {
	f.sent <- resp
	return f.err
}
