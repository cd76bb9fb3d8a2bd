package extract

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/kube-rca/rca-rag/internal/model"
)

const slowSpanThresholdMs = 1000

type traceSpan struct {
	Service    string  `json:"service"`
	Operation  string  `json:"operation"`
	Status     string  `json:"status"`
	Error      any     `json:"error"`
	DurationMs float64 `json:"duration_ms"`
}

// TraceSummary summarizes {"spans":[...]} JSON; other input falls back to line counting.
func TraceSummary(text string) model.TraceSummary {
	summary := model.TraceSummary{
		SlowSpans:  []model.SlowSpan{},
		Services:   []string{},
		Operations: []string{},
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			Spans []traceSpan `json:"spans"`
		}
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			services := map[string]struct{}{}
			operations := map[string]struct{}{}
			summary.TotalSpans = len(payload.Spans)
			for _, span := range payload.Spans {
				if span.Status == "error" || truthy(span.Error) {
					summary.ErrorSpans++
				}
				if span.DurationMs > slowSpanThresholdMs {
					op := span.Operation
					if op == "" {
						op = "unknown"
					}
					summary.SlowSpans = append(summary.SlowSpans, model.SlowSpan{Operation: op, DurationMs: span.DurationMs})
				}
				if span.Service != "" {
					services[span.Service] = struct{}{}
				}
				if span.Operation != "" {
					operations[span.Operation] = struct{}{}
				}
			}
			summary.Services = sortedKeys(services)
			summary.Operations = sortedKeys(operations)
			return summary
		}
	}

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "span") {
			summary.TotalSpans++
		}
		if strings.Contains(lower, "error") {
			summary.ErrorSpans++
		}
	}
	return summary
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
