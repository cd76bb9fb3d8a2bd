package client

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

const hashEmbedderModel = "feature-hash"

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

// HashEmbedder - 외부 API 없이 동작하는 feature hashing 임베더
//
// 토큰(소문자 영숫자)과 인접 토큰 bigram을 FNV로 버킷팅한 뒤 L2 정규화.
// 모든 성분이 0 이상이라 cosine 유사도는 항상 [0,1]이고,
// 토큰을 공유하는 두 텍스트는 유사도가 0보다 크다.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 768
	}
	return &HashEmbedder{dim: dim}
}

func (e *HashEmbedder) EmbedText(ctx context.Context, text string) ([]float32, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, hashEmbedderModel, err
	}
	vec := make([]float32, e.dim)
	tokens := tokenRe.FindAllString(strings.ToLower(text), -1)
	for i, tok := range tokens {
		vec[e.bucket(tok)] += 1
		if i > 0 {
			vec[e.bucket(tokens[i-1]+" "+tok)] += 0.5
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, hashEmbedderModel, nil
}

func (e *HashEmbedder) bucket(token string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(e.dim))
}
