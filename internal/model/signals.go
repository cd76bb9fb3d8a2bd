package model

// ErrorPattern - 로그에서 검출된 에러 패턴
type ErrorPattern struct {
	Name        string   `json:"pattern_name"`
	Description string   `json:"description"`
	Matches     []string `json:"matches"`
	Count       int      `json:"count"`
}

// MetricStat - 메트릭 종류별 요약 통계
type MetricStat struct {
	Values []float64 `json:"values"`
	Avg    float64   `json:"avg"`
	Max    float64   `json:"max"`
	Min    float64   `json:"min"`
}

type SlowSpan struct {
	Operation  string  `json:"operation"`
	DurationMs float64 `json:"duration_ms"`
}

// TraceSummary - 트레이스 요약 (JSON spans 또는 텍스트 fallback)
type TraceSummary struct {
	TotalSpans int        `json:"total_spans"`
	ErrorSpans int        `json:"error_spans"`
	SlowSpans  []SlowSpan `json:"slow_spans"`
	Services   []string   `json:"services"`
	Operations []string   `json:"operations"`
}

// Signals - 텍스트 휴리스틱으로 추출한 구조화 신호
type Signals struct {
	ErrorPatterns []ErrorPattern        `json:"error_patterns"`
	Metrics       map[string]MetricStat `json:"metrics"`
	Traces        TraceSummary          `json:"traces"`
	Timestamps    []string              `json:"timestamps"`
	KeyValues     map[string]string     `json:"key_values"`
}

// PatternNames - 검출된 에러 패턴 이름 목록
func (s Signals) PatternNames() []string {
	names := make([]string, 0, len(s.ErrorPatterns))
	for _, p := range s.ErrorPatterns {
		names = append(names, p.Name)
	}
	return names
}
