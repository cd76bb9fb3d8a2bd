package model

import "time"

// AnalyzeRequest - RCA 분석 요청 (POST /api/analyze)
type AnalyzeRequest struct {
	Logs        string         `json:"logs"`
	Metrics     string         `json:"metrics"`
	Traces      string         `json:"traces"`
	Timestamp   *time.Time     `json:"timestamp,omitempty"`
	SystemID    string         `json:"system_id,omitempty"`
	Environment string         `json:"environment,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" swaggertype:"object"`
}

// Bundle - 요청을 TelemetryBundle로 변환 (timestamp/environment 기본값 적용)
func (r AnalyzeRequest) Bundle(now time.Time) TelemetryBundle {
	ts := now
	if r.Timestamp != nil && !r.Timestamp.IsZero() {
		ts = *r.Timestamp
	}
	env := r.Environment
	if env == "" {
		env = "production"
	}
	return TelemetryBundle{
		Logs:        r.Logs,
		Metrics:     r.Metrics,
		Traces:      r.Traces,
		Timestamp:   ts,
		SystemID:    r.SystemID,
		Environment: env,
	}
}

// AnalyzeResponse - RCA 분석 응답
type AnalyzeResponse struct {
	AnalysisID      string              `json:"analysis_id"`
	RCAResult       string              `json:"rca_result"`
	Status          string              `json:"status"`
	ConfidenceScore *float64            `json:"confidence_score,omitempty"`
	SimilarCases    []SimilarCaseResult `json:"similar_cases,omitempty"`
	Recommendations []string            `json:"recommendations,omitempty"`
	Signals         *Signals            `json:"signals,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

type SearchSimilarResponse struct {
	SimilarCases []SimilarCaseResult `json:"similar_cases"`
}

// MetadataSearchRequest - metadata 필터 검색 (문자열 값은 부분 일치, 그 외는 완전 일치)
type MetadataSearchRequest struct {
	Filters map[string]any `json:"filters" swaggertype:"object"`
	Limit   int            `json:"limit"`
}

type MetadataSearchResponse struct {
	Results []MetadataMatch `json:"results"`
}

type EnhanceQueryRequest struct {
	Query        string `json:"query"`
	ContextLimit int    `json:"context_limit"`
}

type EnhanceQueryResponse struct {
	Query string `json:"query"`
}

// UploadedFile - bulk 업로드된 파일 정보
type UploadedFile struct {
	Type      string `json:"type"`
	Filename  string `json:"filename"`
	Size      int    `json:"size"`
	Processed int    `json:"processed"`
	// 파싱됐지만 비어 있어 저장하지 않은 항목 수
	Skipped   int    `json:"skipped"`
}

type BulkUploadResponse struct {
	UploadedFiles  []UploadedFile `json:"uploaded_files"`
	TotalProcessed int            `json:"total_processed"`
	Status         string         `json:"status"`
	Errors         []string       `json:"errors,omitempty"`
}
