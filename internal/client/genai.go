package client

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenAIClient - Gemini API 클라이언트 (chat + embedding)
type GenAIClient struct {
	client         *genai.Client
	embeddingModel string
}

func NewGenAIClient(ctx context.Context, apiKey, embeddingModel string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing AI_API_KEY")
	}
	if embeddingModel == "" {
		embeddingModel = "text-embedding-004"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GenAIClient{client: client, embeddingModel: embeddingModel}, nil
}

func (c *GenAIClient) Chat(ctx context.Context, model string, messages []ChatMessage, opts SamplingOptions) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(opts.Temperature)),
		TopP:            genai.Ptr(float32(opts.TopP)),
		MaxOutputTokens: int32(opts.MaxTokens),
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			cfg.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	res, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", err
	}
	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from genai")
	}
	return text, nil
}

// ListModels - "models/" 접두어를 제거한 모델 이름 목록
func (c *GenAIClient) ListModels(ctx context.Context) ([]string, error) {
	var names []string
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, err
		}
		names = append(names, strings.TrimPrefix(m.Name, "models/"))
	}
	return names, nil
}

func (c *GenAIClient) PullModel(ctx context.Context, model string) error {
	return fmt.Errorf("%w: %s", ErrPullUnsupported, model)
}

func (c *GenAIClient) EmbedText(ctx context.Context, text string) ([]float32, string, error) {
	res, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, c.embeddingModel, err
	}
	if res == nil || len(res.Embeddings) == 0 || res.Embeddings[0] == nil {
		return nil, c.embeddingModel, fmt.Errorf("empty embedding result")
	}
	return res.Embeddings[0].Values, c.embeddingModel, nil
}
