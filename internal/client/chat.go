// LLM 백엔드(Ollama, Gemini)와 임베딩 백엔드의 공통 인터페이스 정의
//
// service 레이어는 구체 타입이 아니라 ChatBackend / Embedder 인터페이스에만 의존

package client

import (
	"context"
	"errors"
)

// ErrPullUnsupported - 모델 pull을 지원하지 않는 백엔드 (hosted 모델)
var ErrPullUnsupported = errors.New("model pull not supported")

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage - chat 요청의 메시지 1개
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SamplingOptions - 생성 파라미터
type SamplingOptions struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// DefaultSampling - temperature 0.7, top-p 0.9, 최대 2048 토큰
var DefaultSampling = SamplingOptions{Temperature: 0.7, TopP: 0.9, MaxTokens: 2048}

// ChatBackend - 텍스트 생성 백엔드
type ChatBackend interface {
	Chat(ctx context.Context, model string, messages []ChatMessage, opts SamplingOptions) (string, error)
	ListModels(ctx context.Context) ([]string, error)
	PullModel(ctx context.Context, model string) error
}

// Embedder - 텍스트 임베딩 (벡터, 사용한 모델명)
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, string, error)
}
