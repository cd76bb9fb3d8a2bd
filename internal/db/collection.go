package db

import (
	"context"
	"math"
	"sort"
)

// Document - 컬렉션에 저장되는 문서 1건
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// QueryResult - 유사도 검색 결과 (Distance는 cosine distance, 작을수록 유사)
type QueryResult struct {
	Document
	Distance float64
}

// Collection - 이름으로 구분되는 문서 집합
//
// Insert는 호출 단위로 원자적이며, 같은 ID는 덮어쓴다 (last write wins).
type Collection interface {
	Name() string
	Insert(ctx context.Context, docs []Document) error
	Query(ctx context.Context, text string, k int) ([]QueryResult, error)
	ScanAll(ctx context.Context) ([]Document, error)
	Count(ctx context.Context) (int, error)
}

// Backend - 컬렉션 저장소 (pgvector, sqlite)
type Backend interface {
	// EnsureCollection은 컬렉션이 없으면 만들고, 있으면 그대로 연다.
	EnsureCollection(ctx context.Context, name string) (Collection, error)
	ListCollections(ctx context.Context) ([]string, error)
	Close() error
}

func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// rankByDistance - 거리 오름차순 정렬 후 상위 k개
func rankByDistance(results []QueryResult, k int) []QueryResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if k >= 0 && len(results) > k {
		results = results[:k]
	}
	return results
}
