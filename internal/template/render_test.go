package template

import (
	"testing"
	"time"

	"github.com/kube-rca/rca-rag/internal/model"
)

func TestRenderBody(t *testing.T) {
	score := 0.8
	resp := model.AnalyzeResponse{
		AnalysisID:      "RCA_20240101_000000_abcd1234",
		Status:          "success",
		RCAResult:       "db pool exhausted",
		ConfidenceScore: &score,
		SimilarCases:    []model.SimilarCaseResult{{Document: "x"}},
		Recommendations: []string{"Increase the pool size", "Add alerting on pool usage"},
		Signals:         &model.Signals{ErrorPatterns: []model.ErrorPattern{{Name: "DATABASE_ERROR"}}},
		CreatedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	data := AnalysisDataFromResponse(resp)

	got := RenderBody("{{analysis.id}} {{analysis.confidence}} {{analysis.similar_cases}} [{{analysis.error_patterns}}] {{analysis.created_at}}\n{{analysis.recommendations}}", &data)
	want := "RCA_20240101_000000_abcd1234 8/10 1 [DATABASE_ERROR] 2024-01-01T00:00:00Z\n1. Increase the pool size\n2. Add alerting on pool usage"
	if got != want {
		t.Fatalf("RenderBody() = %q, want %q", got, want)
	}
}

func TestRenderBodySlowSpans(t *testing.T) {
	resp := model.AnalyzeResponse{
		AnalysisID: "RCA_1",
		Signals: &model.Signals{Traces: model.TraceSummary{SlowSpans: []model.SlowSpan{
			{Operation: "SELECT orders", DurationMs: 1500},
			{Operation: "checkout", DurationMs: 120000},
		}}},
	}
	data := AnalysisDataFromResponse(resp)

	got := RenderBody("slow: {{analysis.slow_spans}}", &data)
	if want := "slow: SELECT orders (1.5s), checkout (2.0m)"; got != want {
		t.Fatalf("RenderBody() = %q, want %q", got, want)
	}
	if got := RenderBody("[{{analysis.slow_spans}}]", nil); got != "[]" {
		t.Fatalf("expected empty substitution, got %q", got)
	}
}

func TestRenderBodyNil(t *testing.T) {
	if got := RenderBody("id={{analysis.id}}", nil); got != "id=" {
		t.Fatalf("expected empty substitution, got %q", got)
	}
}

func TestFormatConfidence(t *testing.T) {
	if got := FormatConfidence(nil); got != "n/a" {
		t.Fatalf("expected n/a, got %q", got)
	}
	v := 0.75
	if got := FormatConfidence(&v); got != "7.5/10" {
		t.Fatalf("expected 7.5/10, got %q", got)
	}
}
