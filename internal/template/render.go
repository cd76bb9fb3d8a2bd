// Package template provides notification body template rendering.
//
// 지원하는 변수 형식:
//
//	{{analysis.id}}, {{analysis.status}}, {{analysis.created_at}},
//	{{analysis.result}}, {{analysis.confidence}}, {{analysis.similar_cases}},
//	{{analysis.recommendations}}, {{analysis.error_patterns}}, {{analysis.slow_spans}}
package template

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kube-rca/rca-rag/internal/extract"
	"github.com/kube-rca/rca-rag/internal/model"
)

// AnalysisData - 템플릿 렌더링에 사용할 분석 결과 데이터
type AnalysisData struct {
	ID              string
	Status          string
	CreatedAt       time.Time
	Result          string
	Confidence      *float64
	SimilarCases    int
	Recommendations []string
	ErrorPatterns   []string
	// "operation (1.5s)" 형식
	SlowSpans []string
}

// AnalysisDataFromResponse - AnalyzeResponse에서 AnalysisData 생성
func AnalysisDataFromResponse(resp model.AnalyzeResponse) AnalysisData {
	data := AnalysisData{
		ID:              resp.AnalysisID,
		Status:          resp.Status,
		CreatedAt:       resp.CreatedAt,
		Result:          resp.RCAResult,
		Confidence:      resp.ConfidenceScore,
		SimilarCases:    len(resp.SimilarCases),
		Recommendations: resp.Recommendations,
	}
	if resp.Signals != nil {
		data.ErrorPatterns = resp.Signals.PatternNames()
		for _, span := range resp.Signals.Traces.SlowSpans {
			data.SlowSpans = append(data.SlowSpans, fmt.Sprintf("%s (%s)", span.Operation, extract.FormatDuration(span.DurationMs)))
		}
	}
	return data
}

// FormatConfidence - 0.8 -> "8/10", 값이 없으면 "n/a"
func FormatConfidence(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return strconv.FormatFloat(math.Round(*score*100)/10, 'f', -1, 64) + "/10"
}

// RenderBody - 템플릿의 변수를 실제 값으로 치환
//
// analysis가 nil이면 모든 변수는 빈 문자열로 치환됩니다.
func RenderBody(body string, analysis *AnalysisData) string {
	if analysis == nil {
		return strings.NewReplacer(
			"{{analysis.id}}", "",
			"{{analysis.status}}", "",
			"{{analysis.created_at}}", "",
			"{{analysis.result}}", "",
			"{{analysis.confidence}}", "",
			"{{analysis.similar_cases}}", "",
			"{{analysis.recommendations}}", "",
			"{{analysis.error_patterns}}", "",
			"{{analysis.slow_spans}}", "",
		).Replace(body)
	}

	createdAt := ""
	if !analysis.CreatedAt.IsZero() {
		createdAt = analysis.CreatedAt.Format(time.RFC3339)
	}
	recs := make([]string, 0, len(analysis.Recommendations))
	for i, r := range analysis.Recommendations {
		recs = append(recs, fmt.Sprintf("%d. %s", i+1, r))
	}

	return strings.NewReplacer(
		"{{analysis.id}}", analysis.ID,
		"{{analysis.status}}", analysis.Status,
		"{{analysis.created_at}}", createdAt,
		"{{analysis.result}}", analysis.Result,
		"{{analysis.confidence}}", FormatConfidence(analysis.Confidence),
		"{{analysis.similar_cases}}", strconv.Itoa(analysis.SimilarCases),
		"{{analysis.recommendations}}", strings.Join(recs, "\n"),
		"{{analysis.error_patterns}}", strings.Join(analysis.ErrorPatterns, ", "),
		"{{analysis.slow_spans}}", strings.Join(analysis.SlowSpans, ", "),
	).Replace(body)
}
