package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second Register() error = %v", err)
	}
}

func TestObserveAnalysisNormalizesLabels(t *testing.T) {
	before := testutil.ToFloat64(analysesTotal.WithLabelValues(OutcomeSuccess, ""))
	ObserveAnalysis(time.Second, "weird", "generated")
	after := testutil.ToFloat64(analysesTotal.WithLabelValues(OutcomeSuccess, ""))
	if after != before+1 {
		t.Fatalf("expected success counter to increase, got %v -> %v", before, after)
	}

	beforeErr := testutil.ToFloat64(analysesTotal.WithLabelValues(OutcomeError, "generated"))
	ObserveAnalysis(-time.Second, OutcomeError, "generated")
	if got := testutil.ToFloat64(analysesTotal.WithLabelValues(OutcomeError, "generated")); got != beforeErr+1 {
		t.Fatalf("expected error counter to increase, got %v", got)
	}
}

func TestAddBulkItems(t *testing.T) {
	before := testutil.ToFloat64(bulkItemsTotal.WithLabelValues("logs"))
	AddBulkItems("logs", 3)
	AddBulkItems("logs", 0)
	if got := testutil.ToFloat64(bulkItemsTotal.WithLabelValues("logs")); got != before+3 {
		t.Fatalf("expected +3, got %v", got-before)
	}
}
