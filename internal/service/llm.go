package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kube-rca/rca-rag/internal/client"
	"github.com/kube-rca/rca-rag/internal/extract"
	"github.com/kube-rca/rca-rag/internal/model"
)

const (
	analysisFieldLimit   = 2000
	promptCaseLimit      = 500
	promptMaxCases       = 3
	keywordInputLimit    = 1000
	maxKeywords          = 20
	minKeywordLength     = 3
	maxRecommendations   = 7
	minRecommendationLen = 10
)

const analysisSystemPrompt = `You are an expert Site Reliability Engineer (SRE) and DevOps specialist with deep expertise in:
- System observability and monitoring
- Root cause analysis methodologies
- Log analysis and pattern recognition
- Performance metrics interpretation
- Distributed tracing analysis
- Incident management and troubleshooting

Your task is to analyze observability data (logs, metrics, traces) and provide comprehensive root cause analysis.

Guidelines for analysis:
1. Examine logs for error patterns, anomalies, and sequence of events
2. Analyze metrics for performance degradation, resource constraints, or unusual patterns
3. Review traces for request flow issues, latency spikes, or service dependencies
4. Consider correlations between different data sources
5. Identify the most likely root cause based on evidence
6. Provide actionable recommendations for resolution
7. Rate your confidence level in the analysis

Format your response as a structured RCA report.`

const analysisRequirements = `
**ANALYSIS REQUIREMENTS:**
1. **Root Cause Identification**: What is the primary root cause?
2. **Evidence Summary**: What evidence supports this conclusion?
3. **Impact Assessment**: What systems/services are affected?
4. **Resolution Steps**: What immediate actions should be taken?
5. **Prevention Measures**: How can this be prevented in the future?
6. **Confidence Level**: Rate your confidence (1-10) in this analysis

Please provide a detailed, structured response following the above format.
`

const (
	summarySystemPrompt        = "You are an expert at summarizing technical root cause analysis reports. Provide concise, clear summaries that capture the key points."
	keywordSystemPrompt        = "You are an expert at extracting relevant technical keywords from system logs, metrics, and traces."
	recommendationSystemPrompt = "You are an expert SRE providing actionable recommendations for system improvements."
)

var (
	leadingNumberRe = regexp.MustCompile(`^\d+\.?\s*`)
	leadingBulletRe = regexp.MustCompile(`^[-*]\s*`)
)

// LLMService - 생성 클라이언트
//
// ChatBackend 위에서 분석/요약/키워드/권장 조치 프롬프트를 만들고 결과를 후처리한다.
// 재시도는 하지 않으며 모든 실패는 ErrGeneration으로 감싼다.
type LLMService struct {
	backend client.ChatBackend
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func NewLLMService(backend client.ChatBackend, model string, timeout time.Duration, logger *zap.Logger) *LLMService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMService{backend: backend, model: model, timeout: timeout, logger: logger}
}

func (s *LLMService) Model() string {
	return s.model
}

func (s *LLMService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// EnsureModelAvailable - 모델이 없으면 pull (기동 시 1회)
//
// "<model>" 또는 "<model>:latest"가 목록에 있으면 사용 가능으로 본다.
func (s *LLMService) EnsureModelAvailable(ctx context.Context) error {
	listCtx, cancel := s.withTimeout(ctx)
	models, err := s.backend.ListModels(listCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("%w: list models: %v", ErrGeneration, err)
	}

	for _, name := range models {
		if name == s.model || name == s.model+":latest" {
			s.logger.Info("model is available", zap.String("model", s.model))
			return nil
		}
	}

	s.logger.Info("model not found, pulling", zap.String("model", s.model))
	if err := s.backend.PullModel(ctx, s.model); err != nil {
		return fmt.Errorf("%w: pull model %s: %v", ErrGeneration, s.model, err)
	}
	s.logger.Info("model pulled", zap.String("model", s.model))
	return nil
}

// Generate - system(선택) + user 메시지로 chat 호출
func (s *LLMService) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	messages := make([]client.ChatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, client.ChatMessage{Role: client.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, client.ChatMessage{Role: client.RoleUser, Content: prompt})

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	out, err := s.backend.Chat(ctx, s.model, messages, client.DefaultSampling)
	if err != nil {
		s.logger.Warn("llm generation failed", zap.String("model", s.model), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	s.logger.Debug("llm generation done", zap.String("model", s.model), zap.Duration("elapsed", time.Since(start)), zap.Int("chars", len(out)))
	return out, nil
}

// BuildAnalysisPrompt - 텔레메트리(각 2000자) + 유사 사례(상위 3개, 각 500자) + 분석 요구사항
func BuildAnalysisPrompt(logs, metrics, traces string, similar []model.SimilarCaseResult) string {
	var b strings.Builder
	b.WriteString("\nPlease analyze the following observability data and provide a comprehensive root cause analysis:\n\n")
	fmt.Fprintf(&b, "**LOGS:**\n%s...\n\n", extract.Truncate(logs, analysisFieldLimit))
	fmt.Fprintf(&b, "**METRICS:**\n%s...\n\n", extract.Truncate(metrics, analysisFieldLimit))
	fmt.Fprintf(&b, "**TRACES:**\n%s...\n", extract.Truncate(traces, analysisFieldLimit))

	if len(similar) > 0 {
		b.WriteString("\n**SIMILAR HISTORICAL CASES:**\n")
		for i, c := range similar {
			if i == promptMaxCases {
				break
			}
			fmt.Fprintf(&b, "Case %d (Similarity: %.2f):\n", i+1, c.SimilarityScore)
			fmt.Fprintf(&b, "%s...\n\n", extract.Truncate(c.Document, promptCaseLimit))
		}
	}

	b.WriteString(analysisRequirements)
	return b.String()
}

// AnalyzeObservability - RCA 리포트 생성
func (s *LLMService) AnalyzeObservability(ctx context.Context, logs, metrics, traces string, similar []model.SimilarCaseResult) (string, error) {
	return s.Generate(ctx, BuildAnalysisPrompt(logs, metrics, traces, similar), analysisSystemPrompt)
}

// Summarize - RCA 리포트 2~3문장 요약
func (s *LLMService) Summarize(ctx context.Context, rcaText string) (string, error) {
	prompt := fmt.Sprintf(`
Please provide a concise summary (2-3 sentences) of the following RCA report:

%s

Focus on:
- The root cause
- The impact
- The resolution approach
`, rcaText)
	return s.Generate(ctx, prompt, summarySystemPrompt)
}

// ExtractKeywords - 기술 키워드 추출 (소문자, 3자 이상, 최대 20개)
//
// 입력은 ANSI 색상 코드와 연속 공백을 정리한 뒤 앞 1000자만 사용.
func (s *LLMService) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	prompt := fmt.Sprintf(`
Extract the most relevant technical keywords from the following observability data.
Focus on:
- Error types and codes
- Service names
- System components
- Performance indicators
- Technology stack components

Return only the keywords as a comma-separated list.

Text: %s...
`, extract.Truncate(extract.CleanLogEntry(text), keywordInputLimit))

	out, err := s.Generate(ctx, prompt, keywordSystemPrompt)
	if err != nil {
		return nil, err
	}
	return ParseKeywords(out), nil
}

// ParseKeywords - 모델 출력을 키워드 목록으로 정리
func ParseKeywords(raw string) []string {
	keywords := make([]string, 0, maxKeywords)
	for _, kw := range strings.Split(raw, ",") {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if len([]rune(kw)) < minKeywordLength {
			continue
		}
		keywords = append(keywords, kw)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// GenerateRecommendations - 실행 가능한 권장 조치 (최대 7개)
func (s *LLMService) GenerateRecommendations(ctx context.Context, rcaText string) ([]string, error) {
	prompt := fmt.Sprintf(`
Based on the following RCA analysis, provide 5-7 specific, actionable recommendations for:
1. Immediate remediation
2. Short-term improvements
3. Long-term prevention

RCA Analysis:
%s

Format each recommendation as a single sentence starting with an action verb.
`, rcaText)

	out, err := s.Generate(ctx, prompt, recommendationSystemPrompt)
	if err != nil {
		return nil, err
	}
	return ParseRecommendations(out), nil
}

// ParseRecommendations - 번호/불릿 제거 후 10자 초과 줄만 남김
func ParseRecommendations(raw string) []string {
	recs := make([]string, 0, maxRecommendations)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = leadingNumberRe.ReplaceAllString(line, "")
		line = leadingBulletRe.ReplaceAllString(line, "")
		if len([]rune(line)) <= minRecommendationLen {
			continue
		}
		recs = append(recs, line)
		if len(recs) == maxRecommendations {
			break
		}
	}
	return recs
}
