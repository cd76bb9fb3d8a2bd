package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kube-rca/rca-rag/internal/model"
)

// BulkBatchSize - bulk 저장 시 한 번에 Insert하는 문서 수
const BulkBatchSize = 100

// DefaultMetadataLimit - QueryByMetadata의 limit 기본값
const DefaultMetadataLimit = 10

// Store - 벡터 스토어 어댑터
//
// 컬렉션 생성/조회와 문서 저장, 유사도 검색, metadata 필터 검색, 통계를 담당.
// 실제 저장과 인덱싱은 Backend에 위임하며 모든 호출에 timeout을 건다.
type Store struct {
	backend Backend
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu          sync.RWMutex
	collections map[string]Collection
}

func NewStore(backend Backend, timeout time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend:     backend,
		timeout:     timeout,
		logger:      logger,
		now:         time.Now,
		collections: make(map[string]Collection),
	}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Initialize - 고정 컬렉션 5개를 생성하거나 기존 것을 재사용
func (s *Store) Initialize(ctx context.Context) error {
	for _, name := range model.DefaultCollections {
		if _, err := s.collection(ctx, name); err != nil {
			return err
		}
	}
	s.logger.Info("vector store initialized", zap.Strings("collections", model.DefaultCollections))
	return nil
}

// collection - 캐시된 컬렉션 반환, 없으면 생성 (NotFound는 자동 생성으로 대체)
func (s *Store) collection(ctx context.Context, name string) (Collection, error) {
	s.mu.RLock()
	coll, ok := s.collections[name]
	s.mu.RUnlock()
	if ok {
		return coll, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	coll, err := s.backend.EnsureCollection(ctx, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.collections[name]; ok {
		return existing, nil
	}
	s.collections[name] = coll
	return coll, nil
}

// Add - 문서 1건 저장. 본문이 비어 있으면 아무것도 하지 않는다.
// 같은 ID가 이미 있으면 덮어쓴다.
func (s *Store) Add(ctx context.Context, collection, id, document string, meta model.Metadata) error {
	if strings.TrimSpace(document) == "" {
		return nil
	}
	coll, err := s.collection(ctx, collection)
	if err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	doc := Document{ID: id, Text: document, Metadata: meta.Flatten()}
	if err := coll.Insert(ctx, []Document{doc}); err != nil {
		return fmt.Errorf("store %s in %s: %w", id, collection, err)
	}
	return nil
}

// StoreBulk - 단일 항목 또는 항목 배열을 observability_<dataType> 컬렉션에 저장
//
// 100개 단위로 나눠 Insert하며, 저장된 문서 수를 반환한다.
// 중간 batch가 실패하면 그때까지 저장된 수와 에러를 함께 반환한다.
func (s *Store) StoreBulk(ctx context.Context, dataType string, data any) (int, error) {
	name := model.BulkCollectionName(dataType)
	coll, err := s.collection(ctx, name)
	if err != nil {
		return 0, err
	}

	ts := s.now().UTC()
	docs := make([]Document, 0, BulkBatchSize)
	stored := 0

	flush := func() error {
		if len(docs) == 0 {
			return nil
		}
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		if err := coll.Insert(ctx, docs); err != nil {
			return fmt.Errorf("bulk insert into %s: %w", name, err)
		}
		stored += len(docs)
		s.logger.Debug("bulk batch stored", zap.String("collection", name), zap.Int("batch", len(docs)), zap.Int("stored", stored))
		docs = docs[:0]
		return nil
	}

	for _, item := range bulkItems(data) {
		text, extra, err := itemDocument(item)
		if err != nil {
			return stored, err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		meta := model.Metadata{DataType: dataType, BulkUpload: true, Timestamp: ts, Extra: extra}
		docs = append(docs, Document{
			ID:       fmt.Sprintf("%s_bulk_%s", dataType, uuid.NewString()),
			Text:     text,
			Metadata: meta.Flatten(),
		})
		if len(docs) == BulkBatchSize {
			if err := flush(); err != nil {
				return stored, err
			}
		}
	}
	if err := flush(); err != nil {
		return stored, err
	}
	return stored, nil
}

func bulkItems(data any) []any {
	switch v := data.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []map[string]any:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return items
	case []string:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return items
	default:
		return []any{v}
	}
}

// itemDocument - 항목을 문서 본문으로 직렬화
//
// map은 키 정렬된 indented JSON으로 저장하고 필드는 metadata에도 넣는다.
func itemDocument(item any) (string, map[string]any, error) {
	switch v := item.(type) {
	case nil:
		return "", nil, nil
	case string:
		return v, nil, nil
	case map[string]any:
		if len(v) == 0 {
			return "", nil, nil
		}
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", nil, fmt.Errorf("serialize bulk item: %w", err)
		}
		extra := make(map[string]any, len(v))
		for k, val := range v {
			extra[k] = val
		}
		return string(b), extra, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v), nil, nil
		}
		return string(b), nil, nil
	}
}

// QuerySimilar - 컬렉션에서 queryText와 가장 가까운 문서 k개
//
// similarity_score = clamp(1 - distance, 0, 1)
func (s *Store) QuerySimilar(ctx context.Context, collection, queryText string, k int) ([]model.SimilarCaseResult, error) {
	if k <= 0 || strings.TrimSpace(queryText) == "" {
		return []model.SimilarCaseResult{}, nil
	}
	coll, err := s.collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	results, err := coll.Query(ctx, queryText, k)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	out := make([]model.SimilarCaseResult, 0, len(results))
	for _, r := range results {
		out = append(out, model.SimilarCaseResult{
			ID:              r.ID,
			Document:        r.Text,
			Metadata:        r.Metadata,
			SimilarityScore: SimilarityScore(r.Distance),
		})
	}
	return out, nil
}

// SimilarityScore - distance를 [0,1] 유사도로 변환
func SimilarityScore(distance float64) float64 {
	score := 1 - distance
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

// QueryByMetadata - 모든 컬렉션을 순회하며 filters를 모두 만족하는 문서 검색
//
// 문자열 필터는 대소문자 무시 부분 일치, 그 외는 완전 일치.
// 고정 컬렉션(선언 순서) -> 동적 컬렉션(이름 순) 순서로 스캔하고 limit에 도달하면 중단.
// 스캔에 실패한 컬렉션은 로그만 남기고 건너뛴다.
func (s *Store) QueryByMetadata(ctx context.Context, filters map[string]any, limit int) ([]model.MetadataMatch, error) {
	if limit <= 0 {
		limit = DefaultMetadataLimit
	}
	names, err := s.scanOrder(ctx)
	if err != nil {
		return nil, err
	}

	matches := []model.MetadataMatch{}
	for _, name := range names {
		coll, err := s.collection(ctx, name)
		if err != nil {
			s.logger.Warn("metadata search skipped collection", zap.String("collection", name), zap.Error(err))
			continue
		}
		scanCtx, cancel := s.withTimeout(ctx)
		docs, err := coll.ScanAll(scanCtx)
		cancel()
		if err != nil {
			s.logger.Warn("metadata search skipped collection", zap.String("collection", name), zap.Error(err))
			continue
		}
		for _, doc := range docs {
			if !MatchFilters(doc.Metadata, filters) {
				continue
			}
			matches = append(matches, model.MetadataMatch{
				ID:         doc.ID,
				Document:   doc.Text,
				Metadata:   doc.Metadata,
				Collection: name,
			})
			if len(matches) >= limit {
				return matches, nil
			}
		}
	}
	return matches, nil
}

// MatchFilters - metadata가 filters를 모두 만족하는지 (키가 없으면 불일치)
func MatchFilters(meta map[string]any, filters map[string]any) bool {
	for key, want := range filters {
		got, ok := meta[key]
		if !ok {
			return false
		}
		if wantStr, ok := want.(string); ok {
			if !strings.Contains(strings.ToLower(fmt.Sprint(got)), strings.ToLower(wantStr)) {
				return false
			}
			continue
		}
		if !equalValue(got, want) {
			return false
		}
	}
	return true
}

func equalValue(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ja) == string(jb)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// scanOrder - 고정 컬렉션(선언 순서) + 그 외 컬렉션(이름 순)
func (s *Store) scanOrder(ctx context.Context) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	listed, err := s.backend.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	fixed := make(map[string]struct{}, len(model.DefaultCollections))
	names := make([]string, 0, len(model.DefaultCollections)+len(listed))
	for _, name := range model.DefaultCollections {
		fixed[name] = struct{}{}
		names = append(names, name)
	}

	dynamic := make([]string, 0, len(listed))
	for _, name := range listed {
		if _, ok := fixed[name]; !ok {
			dynamic = append(dynamic, name)
		}
	}
	sort.Strings(dynamic)
	return append(names, dynamic...), nil
}

// Stats - 컬렉션별 문서 수. 개별 컬렉션 실패는 해당 항목의 Error로 기록
func (s *Store) Stats(ctx context.Context) model.CollectionStats {
	stats := model.CollectionStats{}
	names, err := s.scanOrder(ctx)
	if err != nil {
		s.logger.Warn("list collections failed, reporting fixed collections only", zap.Error(err))
		names = model.DefaultCollections
	}

	for _, name := range names {
		coll, err := s.collection(ctx, name)
		if err != nil {
			stats[name] = model.CollectionStat{Error: err.Error()}
			continue
		}
		countCtx, cancel := s.withTimeout(ctx)
		n, err := coll.Count(countCtx)
		cancel()
		if err != nil {
			stats[name] = model.CollectionStat{Error: err.Error()}
			continue
		}
		stats[name] = model.CollectionStat{DocumentCount: n}
	}
	return stats
}

// Close - backend 연결 종료
func (s *Store) Close() error {
	return s.backend.Close()
}
