// Ollama 서버와 HTTP 통신하는 클라이언트 정의
//
// 환경변수:
//   - OLLAMA_HOST: Ollama 서버 URL (예: http://localhost:11434)
//
// 사용하는 API:
//   - POST /api/chat: 비스트리밍 chat 생성
//   - GET /api/tags: 설치된 모델 목록
//   - POST /api/pull: 모델 다운로드
//   - POST /api/embed: 텍스트 임베딩

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaClient 구조체 정의
type OllamaClient struct {
	baseURL        string
	embeddingModel string
	httpClient     *http.Client
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []ChatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type ollamaPullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// OllamaClient 객체 생성
//
// 요청별 timeout은 호출하는 쪽 context로 제어하고,
// http.Client timeout은 모델 pull을 고려해 넉넉하게 둔다.
func NewOllamaClient(baseURL, embeddingModel string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		embeddingModel: embeddingModel,
		httpClient: &http.Client{
			Timeout: 30 * time.Minute,
		},
	}
}

// POST /api/chat (stream=false)
func (c *OllamaClient) Chat(ctx context.Context, model string, messages []ChatMessage, opts SamplingOptions) (string, error) {
	req := ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options: map[string]any{
			"temperature": opts.Temperature,
			"top_p":       opts.TopP,
			"num_predict": opts.MaxTokens,
		},
	}

	var resp ollamaChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	if resp.Message.Content == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return resp.Message.Content, nil
}

// GET /api/tags
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	var resp ollamaTagsResponse
	if err := c.do(ctx, http.MethodGet, "/api/tags", nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// POST /api/pull (stream=false, 완료될 때까지 대기)
func (c *OllamaClient) PullModel(ctx context.Context, model string) error {
	return c.do(ctx, http.MethodPost, "/api/pull", ollamaPullRequest{Model: model, Stream: false}, nil)
}

// POST /api/embed
func (c *OllamaClient) EmbedText(ctx context.Context, text string) ([]float32, string, error) {
	var resp ollamaEmbedResponse
	if err := c.do(ctx, http.MethodPost, "/api/embed", ollamaEmbedRequest{Model: c.embeddingModel, Input: text}, &resp); err != nil {
		return nil, c.embeddingModel, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, c.embeddingModel, fmt.Errorf("empty embedding result")
	}
	return resp.Embeddings[0], c.embeddingModel, nil
}

func (c *OllamaClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal ollama request: %w", err)
		}
		reader = bytes.NewBuffer(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to ollama: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
