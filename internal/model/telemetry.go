// 분석 요청 단위로 들어오는 텔레메트리(logs/metrics/traces)와
// 벡터 스토어에 저장/조회되는 문서 구조체를 정의
// handler, service, db 레이어에서 공통으로 사용하기 때문에 model 레이어에 별도로 정의

package model

import "time"

// 컬렉션 이름 (벡터 스토어에 고정으로 생성되는 5개)
const (
	CollectionLogs            = "observability_logs"
	CollectionMetrics         = "observability_metrics"
	CollectionTraces          = "observability_traces"
	CollectionRCAResults      = "rca_results"
	CollectionHistoricalCases = "historical_cases"
)

// DefaultCollections - Initialize 시 생성되는 컬렉션 (선언 순서가 스캔 순서)
var DefaultCollections = []string{
	CollectionLogs,
	CollectionMetrics,
	CollectionTraces,
	CollectionRCAResults,
	CollectionHistoricalCases,
}

// 데이터 타입 (metadata.data_type)
const (
	DataTypeLogs           = "logs"
	DataTypeMetrics        = "metrics"
	DataTypeTraces         = "traces"
	DataTypeRCAResult      = "rca_result"
	DataTypeHistoricalCase = "historical_case"
)

// BulkCollectionName - bulk 업로드 대상 컬렉션 이름 (observability_<dataType>)
func BulkCollectionName(dataType string) string {
	return "observability_" + dataType
}

// TelemetryBundle - 분석 요청 1건의 텔레메트리 (요청 생명주기 동안 불변)
type TelemetryBundle struct {
	Logs        string    `json:"logs"`
	Metrics     string    `json:"metrics"`
	Traces      string    `json:"traces"`
	Timestamp   time.Time `json:"timestamp"`
	SystemID    string    `json:"system_id,omitempty"`
	Environment string    `json:"environment,omitempty"`
}

// AnalysisRecord - 완료된 분석 1건
type AnalysisRecord struct {
	AnalysisID string          `json:"analysis_id"`
	Telemetry  TelemetryBundle `json:"telemetry"`
	RCAResult  string          `json:"rca_result"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Response - 저장이 끝난 분석 기록을 응답 형태로 변환
func (r AnalysisRecord) Response(status string, similar []SimilarCaseResult) AnalyzeResponse {
	return AnalyzeResponse{
		AnalysisID:   r.AnalysisID,
		RCAResult:    r.RCAResult,
		Status:       status,
		SimilarCases: similar,
		CreatedAt:    r.CreatedAt,
	}
}

// HistoricalCase - RCA 결과 + 원본 텔레메트리 발췌 (유사 사례 검색 대상)
type HistoricalCase struct {
	CaseID       string   `json:"case_id"`
	CombinedText string   `json:"combined_text"`
	Metadata     Metadata `json:"metadata"`
}

// SimilarCaseResult - 유사도 검색 결과 (저장하지 않음)
//
// SimilarityScore는 1 - distance를 [0,1]로 clamp한 값이며 순위 신호로만 사용
type SimilarCaseResult struct {
	ID              string         `json:"id,omitempty"`
	Document        string         `json:"document"`
	Metadata        map[string]any `json:"metadata"`
	SimilarityScore float64        `json:"similarity_score"`
	Summary         string         `json:"summary,omitempty"`
}

// MetadataMatch - metadata 필터 검색 결과
type MetadataMatch struct {
	ID         string         `json:"id"`
	Document   string         `json:"document"`
	Metadata   map[string]any `json:"metadata"`
	Collection string         `json:"collection"`
}

// CollectionStat - 컬렉션별 문서 수 (count 실패 시 Error에 사유)
type CollectionStat struct {
	DocumentCount int    `json:"document_count"`
	Error         string `json:"error,omitempty"`
}

type CollectionStats map[string]CollectionStat

// RelevantContext - 분석에 사용할 과거 사례 컨텍스트
type RelevantContext struct {
	SimilarCases     []SimilarCaseResult `json:"similar_cases"`
	KeywordsByType   map[string][]string `json:"keywords"`
	ContextAvailable bool                `json:"context_available"`
}
